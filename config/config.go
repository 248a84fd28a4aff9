// Copyright 2013 Google Inc. All Rights Reserved.
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

// Package config discovers and persists the per-root configuration that
// `smug` needs: OAuth1 credentials, the local thread-count defaults file,
// and the paths of the fingerprint boltdb store and the plain-text ignore
// file that live underneath the root's marker directory.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	SmugDirSuffix = ".smug"
	PathSeparator = fmt.Sprintf("%c", os.PathSeparator)

	ErrNoSmugContext = errors.New("no smug context found; run `smug login` or move into a directory below one where you ran it")
)

const (
	O_RWForAll = 0666

	fingerprintDbName = "fingerprints.db"
	ignoreFileName    = "ignore"
	rcFileName        = "smugrc"
)

// Context is the credentials and root-path bundle discovered for an
// invocation, the OAuth1 analogue of the teacher's OAuth2 Context.
type Context struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	AccessToken    string `json:"access_token"`
	AccessSecret   string `json:"access_secret"`
	NickName       string `json:"nick_name"`
	AbsPath        string `json:"-"`
}

func (c *Context) AbsPathOf(fileOrDirPath string) string {
	return path.Join(c.AbsPath, fileOrDirPath)
}

func (c *Context) Read() (err error) {
	var data []byte
	if data, err = ioutil.ReadFile(credentialsPath(c.AbsPath)); err != nil {
		return
	}
	return json.Unmarshal(data, c)
}

func (c *Context) Write() (err error) {
	var data []byte
	if data, err = json.Marshal(c); err != nil {
		return
	}
	return ioutil.WriteFile(credentialsPath(c.AbsPath), data, 0600)
}

func (c *Context) FingerprintDbPath() string {
	return path.Join(smugPath(c.AbsPath), fingerprintDbName)
}

func (c *Context) IgnoreFilePath() string {
	return path.Join(smugPath(c.AbsPath), ignoreFileName)
}

func (c *Context) DeInitialize(prompter func(...interface{}) bool, returnOnAnyError bool) (err error) {
	rootDir := c.AbsPathOf("")
	pathsToRemove := []string{
		credentialsPath(rootDir),
		c.FingerprintDbPath(),
		c.IgnoreFilePath(),
	}

	for _, p := range pathsToRemove {
		if !prompter("remove: ", p, ". This operation is permanent (Y/N) ") {
			continue
		}

		rmErr := os.RemoveAll(p)
		if rmErr != nil {
			if returnOnAnyError {
				return rmErr
			}
			fmt.Fprintf(os.Stderr, "logout.removeAll: %s %v\n", p, rmErr)
		}
	}

	return nil
}

// Discover walks up from currentAbsPath looking for a `.smug` marker
// directory the way the teacher's Discover walks for `.gd`, returning
// ErrNoSmugContext if none is found by the filesystem root, or if the
// marker directory found holds no credentials file.
func Discover(currentAbsPath string) (context *Context, err error) {
	p := currentAbsPath
	found := false
	for {
		info, e := os.Stat(smugPath(p))
		if e == nil && info.IsDir() {
			found = true
			break
		}
		newPath := path.Join(p, "..")
		if p == newPath {
			break
		}
		p = newPath
	}

	if !found {
		return nil, ErrNoSmugContext
	}
	context = &Context{AbsPath: p}
	if err = context.Read(); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSmugContext
		}
		return nil, err
	}
	return
}

// Initialize creates the `.smug` marker directory at absPath and writes an
// empty Context, the way the teacher's Initialize bootstraps `.gd`.
func Initialize(absPath string) (pathSmug string, firstInit bool, c *Context, err error) {
	pathSmug = smugPath(absPath)
	sInfo, sErr := os.Stat(pathSmug)
	if sErr != nil {
		if os.IsNotExist(sErr) {
			firstInit = true
		} else {
			err = sErr
			return
		}
	}
	if sInfo != nil && !sInfo.IsDir() {
		err = fmt.Errorf("%s is not a directory", pathSmug)
		return
	}
	if err = os.MkdirAll(pathSmug, 0755); err != nil {
		return
	}
	c = &Context{AbsPath: absPath}
	if !firstInit {
		// Preserve any credentials already written for this root.
		_ = c.Read()
	}
	err = c.Write()
	return
}

func smugPath(absPath string) string {
	return path.Join(absPath, SmugDirSuffix)
}

func credentialsPath(absPath string) string {
	return path.Join(smugPath(absPath), "credentials.json")
}

// ResourceConfiguration is the `.smug/smugrc` defaults file, the generalization
// of the teacher's `.driverc`/`ResourceConfiguration` (src/rc.go) to the
// three independently-sized task pools.
type ResourceConfiguration struct {
	FolderThreads int `json:"folder_threads"`
	FileThreads   int `json:"file_threads"`
	UploadThreads int `json:"upload_threads"`
}

func rcPath(absPath string) string {
	return path.Join(smugPath(absPath), rcFileName)
}

// ReadResourceConfiguration reads the persisted defaults for absPath, if
// any. A missing file is not an error; the zero ResourceConfiguration is
// returned so callers fall back to their own hardcoded defaults.
func ReadResourceConfiguration(absPath string) (*ResourceConfiguration, error) {
	data, err := ioutil.ReadFile(rcPath(absPath))
	if err != nil {
		if os.IsNotExist(err) {
			return &ResourceConfiguration{}, nil
		}
		return nil, err
	}

	rc := &ResourceConfiguration{}
	if err := json.Unmarshal(data, rc); err != nil {
		return nil, err
	}
	return rc, nil
}

// WriteResourceConfiguration persists rc for absPath, mirroring the
// teacher's rc.go round trip with the CLI flags (`-set-defaults`).
func WriteResourceConfiguration(absPath string, rc *ResourceConfiguration) error {
	if err := os.MkdirAll(smugPath(absPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(rcPath(absPath), data, 0644)
}

// LeastNonExistantRoot returns the shallowest path prefix of
// contextAbsPath that does not yet exist on disk, mirroring the teacher's
// helper of the same name used before mkdir-ing a fresh root.
func LeastNonExistantRoot(contextAbsPath string) string {
	last := ""
	p := contextAbsPath
	for p != "" {
		fInfo, _ := os.Stat(p)
		if fInfo != nil {
			break
		}
		last = p
		p, _ = filepath.Split(strings.TrimRight(p, PathSeparator))
	}
	return last
}
