// Copyright 2016 Google Inc. All Rights Reserved.
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

package smug

import "strings"

// ErrorStatus is the CLI-facing error taxonomy: the handful of local
// conditions only the sync engine and verb layer can detect (mixed
// content, path resolution misses); smugapi's transport statuses stay in
// smugapi's own Error type.
// Shaped the same way the teacher's own ErrorStatus/Error pair is
// (src/errors.go), with a disjoint code range so the two never collide.
type ErrorStatus int

const (
	StatusGeneric ErrorStatus = iota + 100
	StatusPathNotFound
	StatusMixedContent
	StatusTypeConflict
	StatusNameClash
	StatusLocalIO
	StatusAborted
	StatusBadArgs
)

type Error struct {
	code ErrorStatus
	msg  string
	err  error
}

func (e *Error) Error() string {
	parts := []string{}
	if e.msg != "" {
		parts = append(parts, e.msg)
	}
	if e.err != nil {
		parts = append(parts, e.err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Code() int { return int(e.code) }

// ExitCode maps this error onto the {1,2} process exit-status contract
// spec.md's CLI surface requires: 2 for bad/missing arguments (rejected
// before any task ever ran), 1 for every other failure kind (a task, or
// the run itself, failed after its arguments were accepted).
func (e *Error) ExitCode() int {
	if e.code == StatusBadArgs {
		return 2
	}
	return 1
}

func makeError(msg string, err error, code ErrorStatus) *Error {
	return &Error{code: code, msg: msg, err: err}
}

func badArgsErr(msg string) *Error {
	return makeError(msg, nil, StatusBadArgs)
}

func pathNotFoundErr(path string) *Error {
	return makeError("path not found: "+path, nil, StatusPathNotFound)
}

func mixedContentErr(dir string) *Error {
	return makeError("directory has both files and subdirectories, remote model forbids mixing: "+dir, nil, StatusMixedContent)
}

func typeConflictErr(path string) *Error {
	return makeError("existing remote node type conflicts with required type: "+path, nil, StatusTypeConflict)
}

func nameClashErr(path string) *Error {
	return makeError("name already exists under parent with a different type: "+path, nil, StatusNameClash)
}

func localIOErr(path string, err error) *Error {
	return makeError("local I/O error: "+path, err, StatusLocalIO)
}

func abortedErr(err error) *Error {
	return makeError("aborted", err, StatusAborted)
}
