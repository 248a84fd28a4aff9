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
	"errors"
	"os"

	"github.com/smug-cli/smug/internal/pathresolver"
	"github.com/smug-cli/smug/internal/syncengine"
	"github.com/smug-cli/smug/internal/taskpool"
)

// Upload and Sync are the two verbs that drive a syncengine.Engine —
// the generalization of the teacher's Push (src/push.go) to this
// module's three-pool engine. Upload never deletes remote orphans
// (Options.Delete is forced off regardless of the -delete flag); Sync
// honors it. Both share runEngine, the way the teacher's Push handled
// both a plain and a `--no-clobber` invocation through one function.
func (c *Commands) Upload(ctx context.Context) error {
	return c.runEngine(ctx, false)
}

func (c *Commands) Sync(ctx context.Context) error {
	return c.runEngine(ctx, c.Opts.Delete)
}

func (c *Commands) runEngine(ctx context.Context, deleteOrphans bool) error {
	if len(c.Opts.Sources) == 0 {
		return badArgsErr("sync: at least one local source is required")
	}
	if c.Opts.Destination == "" {
		return badArgsErr("sync: a remote destination is required")
	}

	resolver := pathresolver.New(c.Remote, c.Context.NickName)

	report, onFailure := syncengine.NewReport()

	pools := [3]*taskpool.Pool{c.FolderPool, c.FilePool, c.UploadPool}

	engine := syncengine.New(
		c.Remote,
		resolver,
		c.Fingerprints,
		c.Ignores,
		c.Metadata,
		pools,
		syncengine.Options{Delete: deleteOrphans, DryRun: c.Opts.DryRun},
		onFailure,
	)

	pairs := make([]syncengine.Pair, 0, len(c.Opts.Sources))
	for _, src := range c.Opts.Sources {
		pairs = append(pairs, syncengine.Pair{LocalSource: src, RemoteDest: c.Opts.Destination})
	}

	if err := engine.Sync(ctx, pairs); err != nil {
		return err
	}
	report.AddPoolErrorCounts(c.FolderPool, c.FilePool, c.UploadPool)

	out := os.Stdout
	if c.Opts.Quiet {
		out = nil
	}
	if out != nil {
		report.Print(out)
	}

	if report.ExitCode() != 0 {
		return abortedErr(errors.New("one or more tasks failed"))
	}
	return nil
}
