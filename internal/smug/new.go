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

	"github.com/smug-cli/smug/internal/pathresolver"
	"github.com/smug-cli/smug/internal/smugapi"
)

// Mkdir and Mkalbum are the generalization of the teacher's
// NewFolder/NewFile (src/new.go) to smug's Folder/Album node types:
// for each source path, resolve as far down as nodes already exist and
// create the rest under the at-most-once creation guard.
func (c *Commands) Mkdir(ctx context.Context) error {
	return c.newNode(ctx, smugapi.NodeFolder)
}

func (c *Commands) Mkalbum(ctx context.Context) error {
	return c.newNode(ctx, smugapi.NodeAlbum)
}

func (c *Commands) newNode(ctx context.Context, leafType smugapi.NodeType) error {
	resolver := pathresolver.New(c.Remote, c.Context.NickName)

	var firstErr error
	for _, p := range c.Opts.Sources {
		segments := pathresolver.Split(p)
		if len(segments) == 0 {
			continue
		}

		parent, remaining, err := resolver.ResolveOrParent(ctx, segments[:len(segments)-1])
		if err != nil {
			c.log.LogErrf("mkdir: %s: %v\n", p, err)
			firstErr = firstErrOf(firstErr, err)
			continue
		}

		for _, seg := range remaining {
			parent, err = c.EnsureChild(ctx, parent, seg, smugapi.NodeFolder)
			if err != nil {
				break
			}
		}
		if err != nil {
			c.log.LogErrf("mkdir: %s: %v\n", p, err)
			firstErr = firstErrOf(firstErr, err)
			continue
		}

		leaf := segments[len(segments)-1]
		node, err := c.EnsureChild(ctx, parent, leaf, leafType)
		if err != nil {
			c.log.LogErrf("mkdir: %s: %v\n", p, err)
			firstErr = firstErrOf(firstErr, err)
			continue
		}

		resolver.Invalidate(segments)
		c.log.Logf("%s %s\n", p, node.URI)
	}

	return firstErr
}

func firstErrOf(existing, next error) error {
	if existing != nil {
		return existing
	}
	return next
}
