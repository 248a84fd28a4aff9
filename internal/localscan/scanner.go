// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package localscan walks one directory level at a time the way the
// teacher's list() (src/misc.go) walks a Drive tree level, but against
// the local filesystem alone: ioutil.ReadDir already returns entries
// sorted by name, which is exactly the lexicographic order spec.md
// §4.3 requires, so there is no separate sort step to get wrong.
package localscan

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

// EntryKind distinguishes the three things a scan can yield.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDir
	KindIgnored
)

// Entry is one yielded directory entry.
type Entry struct {
	Kind    EntryKind
	Name    string
	AbsPath string
	Info    os.FileInfo
}

// IgnoreSet is the subset of IgnorePatternSet the scanner needs: a
// predicate over an absolute path.
type IgnoreSet interface {
	Matches(absPath string) bool
}

// Scan lists dir's immediate children in lexicographic order, skipping
// dotfiles and never following symlinks (spec.md §4.3), and sends one
// Entry per child on the returned channel. The channel is closed when
// the directory is exhausted or on an ioutil.ReadDir error, which is
// sent on the returned error channel; callers read that channel only
// after draining the entry channel.
func Scan(dir string, ignore IgnoreSet) (<-chan Entry, <-chan error) {
	out := make(chan Entry)
	errc := make(chan error, 1)

	infos, err := ioutil.ReadDir(dir)
	if err != nil {
		close(out)
		errc <- err
		close(errc)
		return out, errc
	}

	go func() {
		defer close(out)
		defer close(errc)

		for _, info := range infos {
			name := info.Name()
			if isHidden(name) {
				continue
			}

			absPath := filepath.Join(dir, name)

			if info.Mode()&os.ModeSymlink != 0 {
				continue
			}

			if ignore != nil && ignore.Matches(absPath) {
				out <- Entry{Kind: KindIgnored, Name: name, AbsPath: absPath, Info: info}
				continue
			}

			if info.IsDir() {
				out <- Entry{Kind: KindDir, Name: name, AbsPath: absPath, Info: info}
			} else {
				out <- Entry{Kind: KindFile, Name: name, AbsPath: absPath, Info: info}
			}
		}
	}()

	return out, errc
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
