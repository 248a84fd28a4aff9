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

package smug

import (
	"context"
	"strings"

	"github.com/fatih/color"

	"github.com/smug-cli/smug/internal/pathresolver"
	"github.com/smug-cli/smug/internal/smugapi"
)

// Ls lists the children of each source path, the generalization of the
// teacher's List/breadthFirst (src/list.go) to the Folder/Album tree.
// In long form (spec.md §6's `ls -l`) each line is a `stat`-shaped row:
// type, name and URI, colorized the way the teacher colors shared/
// trashed rows, but here distinguishing Folder from Album.
func (c *Commands) Ls(ctx context.Context) error {
	resolver := pathresolver.New(c.Remote, c.Context.NickName)

	paths := c.Opts.Sources
	if len(paths) == 0 {
		paths = []string{"/"}
	}

	for _, p := range paths {
		segments := pathresolver.Split(p)
		node, err := resolver.Resolve(ctx, segments)
		if err != nil {
			c.log.LogErrf("ls: %s: %v\n", p, err)
			continue
		}

		if !node.IsDir() {
			c.printEntry(p, node)
			continue
		}

		for res := range c.Remote.ListChildren(ctx, node.URI) {
			if res.Err != nil {
				c.log.LogErrf("ls: %s: %v\n", p, res.Err)
				break
			}
			c.printEntry(strings.TrimRight(p, "/")+"/"+res.Node.Name, res.Node)
		}
	}

	return nil
}

func (c *Commands) printEntry(displayPath string, node *smugapi.RemoteNode) {
	if !c.Opts.Long {
		c.log.Logf("%s\n", displayPath)
		return
	}

	kindLetter := "-"
	paint := color.New(color.FgWhite)
	switch node.Type {
	case smugapi.NodeFolder:
		kindLetter = "d"
		paint = color.New(color.FgBlue)
	case smugapi.NodeAlbum:
		kindLetter = "a"
		paint = color.New(color.FgGreen)
	}

	c.log.Logf("%s %-10s\t%s\n", kindLetter, paint.Sprint(node.Name), node.URI)
}
