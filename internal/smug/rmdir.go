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
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/smug-cli/smug/internal/pathresolver"
	"github.com/smug-cli/smug/internal/smugapi"
)

// Rmdir and Rm both resolve each source to a remote node and delete it;
// the only difference spec.md draws between them is the node kind they
// refuse to touch, mirroring how the teacher's Trash/Delete share
// reduceForTrash but differ only in opt.permanent (src/trash.go).
func (c *Commands) Rmdir(ctx context.Context) error {
	return c.remove(ctx, smugapi.NodeFolder)
}

func (c *Commands) Rm(ctx context.Context) error {
	return c.remove(ctx, smugapi.NodeAlbum)
}

func (c *Commands) remove(ctx context.Context, wantType smugapi.NodeType) error {
	if len(c.Opts.Sources) == 0 {
		return nil
	}

	resolver := pathresolver.New(c.Remote, c.Context.NickName)

	var nodes []*smugapi.RemoteNode
	for _, p := range c.Opts.Sources {
		node, err := resolver.Resolve(ctx, pathresolver.Split(p))
		if err != nil {
			c.log.LogErrf("rm: %s: %v\n", p, err)
			continue
		}
		if node.Type != wantType {
			c.log.LogErrf("rm: %s: not a %s\n", p, wantType)
			continue
		}
		nodes = append(nodes, node)
	}

	if len(nodes) == 0 {
		return nil
	}

	if !c.Opts.NoPrompt && c.Opts.canPreview() {
		c.log.Logf("This operation is irreversible. Remove %d item(s)? [y/N]: ", len(nodes))
		if !promptYes(os.Stdin) {
			c.log.Logln("Aborted")
			return nil
		}
	}

	var firstErr error
	for _, node := range nodes {
		if err := c.Remote.DeleteNode(ctx, node.URI); err != nil {
			c.log.LogErrf("rm: %s: %v\n", node.URI, err)
			firstErr = firstErrOf(firstErr, err)
			continue
		}
		c.log.Logf("removed %s\n", node.URI)
	}
	return firstErr
}

// promptYes reads one line from r and reports whether it was an
// affirmative answer, the generalization of the teacher's
// promptForChanges (src/misc.go) to an *os.File such as os.Stdin.
func promptYes(r *os.File) bool {
	line, _ := bufio.NewReader(r).ReadString('\n')
	line = strings.TrimSpace(line)
	return strings.EqualFold(line, "y") || strings.EqualFold(line, "yes")
}
