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

package smugapi

import (
	"io"

	"github.com/odeke-em/statos"
)

// ProgressReader wraps body with a statos.Reader the way the teacher
// wraps upload bodies in src/remote.go's upsertByComparison, forwarding
// byte counts onto progress so an UploadTask can drive a pb.ProgressBar.
func ProgressReader(body io.Reader, progress chan<- int) io.Reader {
	if body == nil {
		return nil
	}

	sr := statos.NewReader(body)

	go func() {
		for n := range sr.ProgressChan() {
			if progress != nil {
				progress <- n
			}
		}
	}()

	return sr
}
