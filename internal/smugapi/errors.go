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

package smugapi

import "strings"

// ErrorStatus is the RemoteClient error taxonomy (spec.md §7), modeled on
// the teacher's ErrorStatus/Error pair (src/errors.go).
type ErrorStatus int

const (
	StatusGeneric ErrorStatus = iota + 1
	StatusAuth
	StatusNetwork
	StatusRateLimited
	StatusNotFound
	StatusNameCollision
	StatusTypeMismatch
	StatusMixedContent
	StatusPayloadTooLarge
	StatusLocalIO
	StatusCanceled
)

type Error struct {
	code   ErrorStatus
	status string
	err    error
}

func (e *Error) Error() string {
	joins := []string{}
	if e.status != "" {
		joins = append(joins, e.status)
	}
	if e.err != nil {
		joins = append(joins, e.err.Error())
	}
	return strings.Join(joins, " ")
}

func (e *Error) Code() int {
	return int(e.code)
}

func (e *Error) Status() ErrorStatus {
	return e.code
}

func makeError(err error, code ErrorStatus) *Error {
	return &Error{code: code, err: err}
}

func makeErrorWithStatus(status string, err error, code ErrorStatus) *Error {
	e := makeError(err, code)
	e.status = status
	return e
}

func authErr(err error) *Error           { return makeError(err, StatusAuth) }
func notFoundErr(err error) *Error       { return makeError(err, StatusNotFound) }
func nameCollisionErr(err error) *Error  { return makeError(err, StatusNameCollision) }
func typeMismatchErr(err error) *Error   { return makeError(err, StatusTypeMismatch) }
func payloadTooLargeErr(err error) *Error {
	return makeError(err, StatusPayloadTooLarge)
}
