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

package syncengine

import "fmt"

func mixedContentErr(dir string) error {
	return fmt.Errorf("%s: directory has both files and subdirectories, remote model forbids mixing", dir)
}

func typeConflictErr(path, wantType string) error {
	return fmt.Errorf("%s: existing remote node is not a %s", path, wantType)
}

func pathNotExistErr(path string) error {
	return fmt.Errorf("%s: destination does not exist", path)
}
