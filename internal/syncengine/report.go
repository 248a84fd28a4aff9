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

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/smug-cli/smug/internal/taskpool"
)

// reconcileDeletions implements Step E: for each album this run
// touched, any remote image whose name was not seen locally and was
// not claimed by a cross-album move is an orphan. The caller runs this
// only when Options.Delete is set, and under Options.DryRun orphans are
// skipped without being removed. Orphans are not reported in either
// case, and none are looked for when Options.Delete is off.
func (e *Engine) reconcileDeletions(ctx context.Context) {
	e.touchedMu.Lock()
	albums := make([]string, 0, len(e.touched))
	for uri := range e.touched {
		albums = append(albums, uri)
	}
	e.touchedMu.Unlock()

	for _, albumURI := range albums {
		e.touchedMu.Lock()
		st := e.touched[albumURI]
		e.touchedMu.Unlock()

		images, err := e.listAlbumImages(ctx, albumURI)
		if err != nil {
			e.fail(albumURI, "folder", err)
			continue
		}

		for _, img := range images {
			if st.localNames[img.FileName] || st.claimedURI[img.ImageURI] {
				continue
			}

			if e.Options.DryRun {
				continue
			}

			if err := e.Remote.DeleteNode(ctx, img.ImageURI); err != nil {
				e.fail(img.ImageURI, "file", err)
				continue
			}
			e.Fingerprints.Remove(img.ImageURI)
		}
	}
}

// Report is the run-wide summary printed after Sync completes, the
// generalization of the teacher's end-of-Push tallying in src/push.go
// to this engine's three task kinds.
type Report struct {
	FoldersOK int
	FilesOK   int
	Failures  []TaskFailure

	// PoolFailures is the sum of every task pool's own
	// taskpool.Pool.ErrorCount — a cross-check against len(Failures)
	// rather than a replacement for it, since a pool only sees a task's
	// own return value while Failures also carries the per-task path
	// and kind a pool never observes.
	PoolFailures int64
}

// AddPoolErrorCounts folds each pool's ErrorCount into PoolFailures.
func (r *Report) AddPoolErrorCounts(pools ...*taskpool.Pool) {
	for _, p := range pools {
		if p != nil {
			r.PoolFailures += p.ErrorCount()
		}
	}
}

// NewReport returns an empty Report and the onFailure callback to pass
// to New. The callback appends each TaskFailure to the Report under a
// mutex, since workers of all three pools call it concurrently.
func NewReport() (*Report, func(TaskFailure)) {
	r := &Report{}
	var mu sync.Mutex
	return r, func(f TaskFailure) {
		mu.Lock()
		r.Failures = append(r.Failures, f)
		mu.Unlock()
	}
}

// Print writes the summary line plus one colorized line per failure,
// red for upload/file failures (data loss risk) and yellow for
// skipped/partially-synced folders, the way the teacher colors
// clash/conflict output.
func (r *Report) Print(w io.Writer) {
	if r.PoolFailures > int64(len(r.Failures)) {
		fmt.Fprintf(w, "warning: task pools recorded %d failure(s) but only %d were reported in detail\n", r.PoolFailures, len(r.Failures))
	}

	if len(r.Failures) == 0 {
		fmt.Fprintf(w, "sync complete, no failures\n")
		return
	}

	fmt.Fprintf(w, "sync complete with %d failure(s):\n", len(r.Failures))
	for _, f := range r.Failures {
		paint := color.New(color.FgYellow)
		if f.Kind == "file" || f.Kind == "upload" {
			paint = color.New(color.FgRed)
		}
		line := paint.Sprint(fmt.Sprintf("[%s] %s: %v", f.Kind, f.Path, f.Detail))
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// ExitCode is 0 if every task in the run succeeded, 1 otherwise
// (spec.md §4.7: "the process exits non-zero if any task failed").
func (r *Report) ExitCode() int {
	if len(r.Failures) == 0 {
		return 0
	}
	return 1
}
