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

package smug

import "path/filepath"

// Ignore and Include are the verb-layer wrappers over internal/ignore.Set
// the teacher's combineIgnores/ignorerByClause round trip (src/misc.go)
// plays for Drive's own ignore file, generalized to persisted glob
// patterns instead of regex clauses.
func (c *Commands) Ignore() error {
	if len(c.Opts.Sources) == 0 {
		for _, pat := range c.Ignores.Patterns() {
			c.log.Logf("%s\n", pat)
		}
		return nil
	}

	var firstErr error
	for _, p := range c.Opts.Sources {
		abs, err := filepath.Abs(p)
		if err != nil {
			firstErr = firstErrOf(firstErr, localIOErr(p, err))
			continue
		}
		if err := c.Ignores.Add(abs); err != nil {
			c.log.LogErrf("ignore: %s: %v\n", p, err)
			firstErr = firstErrOf(firstErr, localIOErr(abs, err))
			continue
		}
		c.log.Logf("ignoring %s\n", abs)
	}
	return firstErr
}

func (c *Commands) Include() error {
	var firstErr error
	for _, p := range c.Opts.Sources {
		abs, err := filepath.Abs(p)
		if err != nil {
			firstErr = firstErrOf(firstErr, localIOErr(p, err))
			continue
		}
		if err := c.Ignores.Remove(abs); err != nil {
			c.log.LogErrf("include: %s: %v\n", p, err)
			firstErr = firstErrOf(firstErr, localIOErr(abs, err))
			continue
		}
		c.log.Logf("including %s\n", abs)
	}
	return firstErr
}
