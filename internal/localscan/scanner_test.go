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

package localscan

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

type fakeIgnore struct {
	match string
}

func (f fakeIgnore) Matches(absPath string) bool {
	return filepath.Base(absPath) == f.match
}

func mustTouch(t *testing.T, dir, name string) {
	t.Helper()
	if err := ioutil.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func drain(out <-chan Entry) []Entry {
	var entries []Entry
	for e := range out {
		entries = append(entries, e)
	}
	return entries
}

func TestScanSortsAndSkipsDotfiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "smug-scan")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	mustTouch(t, dir, "b.jpg")
	mustTouch(t, dir, "a.jpg")
	mustTouch(t, dir, ".hidden")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	out, errc := Scan(dir, nil)
	entries := drain(out)
	if err := <-errc; err != nil {
		t.Fatalf("Scan: %v", err)
	}

	wantNames := []string{"a.jpg", "b.jpg", "sub"}
	if len(entries) != len(wantNames) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(wantNames), entries)
	}
	for i, name := range wantNames {
		if entries[i].Name != name {
			t.Errorf("#%d got name=%q want=%q", i, entries[i].Name, name)
		}
	}

	if entries[2].Kind != KindDir {
		t.Errorf("entry for %q kind = %v, want KindDir", entries[2].Name, entries[2].Kind)
	}
	if entries[0].Kind != KindFile {
		t.Errorf("entry for %q kind = %v, want KindFile", entries[0].Name, entries[0].Kind)
	}
}

func TestScanMarksIgnoredEntries(t *testing.T) {
	dir, err := ioutil.TempDir("", "smug-scan")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	mustTouch(t, dir, "keep.jpg")
	mustTouch(t, dir, "skip.jpg")

	out, errc := Scan(dir, fakeIgnore{match: "skip.jpg"})
	entries := drain(out)
	if err := <-errc; err != nil {
		t.Fatal(err)
	}

	var gotKind EntryKind
	for _, e := range entries {
		if e.Name == "skip.jpg" {
			gotKind = e.Kind
		}
	}
	if gotKind != KindIgnored {
		t.Errorf("skip.jpg kind = %v, want KindIgnored", gotKind)
	}
}

func TestScanNonExistentDirReportsError(t *testing.T) {
	out, errc := Scan(filepath.Join(os.TempDir(), "smug-scan-does-not-exist"), nil)
	if entries := drain(out); len(entries) != 0 {
		t.Errorf("got %d entries from a missing directory, want 0", len(entries))
	}
	if err := <-errc; err == nil {
		t.Error("Scan on a missing directory returned nil error")
	}
}
