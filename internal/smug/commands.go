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

// Package smug wires together PathResolver, RemoteClient, FingerprintCache,
// IgnorePatternSet and SyncEngine behind the verbs `smug` exposes at the
// command line. The Options/Commands split, progress-bar wiring, and
// quiet/tty handling are all modeled directly on the teacher's
// src/commands.go.
package smug

import (
	"os"

	"github.com/cheggaaa/pb"
	"github.com/mattn/go-isatty"
	"github.com/odeke-em/log"

	"github.com/smug-cli/smug/config"
	"github.com/smug-cli/smug/internal/fingerprint"
	"github.com/smug-cli/smug/internal/ignore"
	"github.com/smug-cli/smug/internal/smugapi"
	"github.com/smug-cli/smug/internal/taskpool"
)

// Options carries every per-invocation flag, the generalization of the
// teacher's Options struct (src/commands.go) to smug's verb set.
type Options struct {
	Sources     []string
	Destination string

	Recursive bool
	Delete    bool
	DryRun    bool
	Force     bool
	Quiet     bool
	Verbose   bool
	NoPrompt  bool
	Long      bool

	FolderThreads int
	FileThreads   int
	UploadThreads int

	SetDefaults bool

	StdoutIsTty bool
}

func (o *Options) canPreview() bool {
	if o == nil || !o.StdoutIsTty || o.Quiet {
		return false
	}
	return true
}

// Commands bundles one invocation's dependencies: the discovered
// Context, a signed RemoteClient, and the supporting caches/pools, the
// same role the teacher's Commands struct plays around *Remote.
type Commands struct {
	Context *config.Context
	Remote  smugapi.RemoteClient
	Opts    *Options

	Fingerprints *fingerprint.Cache
	Ignores      *ignore.Set
	Metadata     MetadataProbe

	FolderPool *taskpool.Pool
	FilePool   *taskpool.Pool
	UploadPool *taskpool.Pool

	log      *log.Logger
	progress *pb.ProgressBar

	mkdirAllState *mkdirAllState
}

const (
	defaultFolderThreads = 4
	defaultFileThreads   = 8
	defaultUploadThreads = 2
)

// New builds a Commands from a discovered Context, opening the
// fingerprint and ignore stores and sizing the three task pools from
// (in priority order) the Options, the persisted `.smug/smugrc`, then the
// hardcoded defaults — the same fallback chain the teacher's rc.go
// establishes for upload chunk size/rate limit.
func New(context *config.Context, remote smugapi.RemoteClient, opts *Options) (*Commands, error) {
	if opts == nil {
		opts = &Options{}
	}

	stdout := os.Stdout
	if opts.Quiet {
		stdout = nil
	}
	if stdout != nil {
		opts.StdoutIsTty = isatty.IsTerminal(stdout.Fd())
	}
	logger := log.New(os.Stdin, stdout, os.Stderr)

	fp, err := fingerprint.Open(context.FingerprintDbPath())
	if err != nil {
		return nil, err
	}

	ig, err := ignore.Load(context.IgnoreFilePath())
	if err != nil {
		fp.Close()
		return nil, err
	}

	rc, err := config.ReadResourceConfiguration(context.AbsPath)
	if err != nil {
		fp.Close()
		return nil, err
	}

	folderThreads := firstNonZero(opts.FolderThreads, rc.FolderThreads, defaultFolderThreads)
	fileThreads := firstNonZero(opts.FileThreads, rc.FileThreads, defaultFileThreads)
	uploadThreads := firstNonZero(opts.UploadThreads, rc.UploadThreads, defaultUploadThreads)

	cmds := &Commands{
		Context:      context,
		Remote:       remote,
		Opts:         opts,
		Fingerprints: fp,
		Ignores:      ig,
		log:          logger,
	}

	cmds.FolderPool = taskpool.New("folder", uint64(folderThreads), 0, cmds.onTaskError)
	cmds.FilePool = taskpool.New("file", uint64(fileThreads), 0, cmds.onTaskError)
	cmds.UploadPool = taskpool.New("upload", uint64(uploadThreads), 0, cmds.onTaskError)
	cmds.mkdirAllState = newMkdirAllState()

	if probe, probeErr := NewExiftoolProbe(); probeErr == nil {
		cmds.Metadata = probe
	} else {
		logger.LogErrf("metadata: exiftool unavailable, keywords will not be backfilled: %v\n", probeErr)
	}

	if opts.SetDefaults {
		err = config.WriteResourceConfiguration(context.AbsPath, &config.ResourceConfiguration{
			FolderThreads: folderThreads,
			FileThreads:   fileThreads,
			UploadThreads: uploadThreads,
		})
	}

	return cmds, err
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func (c *Commands) onTaskError(err error) {
	c.log.LogErrf("task failed: %v\n", err)
}

func (c *Commands) taskStart(total int64) {
	if total > 0 && c.Opts.canPreview() {
		c.progress = pb.New64(total)
		c.progress.Start()
	}
}

func (c *Commands) taskAdd(n int64) {
	if c.progress != nil {
		c.progress.Add64(n)
	}
}

func (c *Commands) taskFinish() {
	if c.progress != nil {
		c.progress.Finish()
	}
}

// Close releases the Commands' open resources: the fingerprint store,
// the metadata probe's subprocess (if started), and the three task
// pools (draining in-flight work first).
func (c *Commands) Close() error {
	c.FolderPool.Shutdown()
	c.FilePool.Shutdown()
	c.UploadPool.Shutdown()
	if closer, ok := c.Metadata.(interface{ Close() error }); ok {
		closer.Close()
	}
	return c.Fingerprints.Close()
}
