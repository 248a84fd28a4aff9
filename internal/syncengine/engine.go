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

// Package syncengine is the core state machine (spec.md §4.7): for each
// (local_source, remote_destination) pair it reconciles a local
// directory tree onto a remote Folder/Album tree, fanning work out
// across the three internal/taskpool pools.
//
// Shape is grounded on the teacher's Push() (src/push.go): resolve
// sources, queue jobs, drain results, report failures without aborting
// siblings. The one deliberate departure from the teacher is how a
// folder task's completion is tracked: rather than a FolderTask
// blocking inside its own pool worker on Future.Wait() for every child
// it spawned (which can deadlock a small, fixed-size folder pool when
// recursion depth exceeds worker count), the engine tracks every
// outstanding task with one run-wide sync.WaitGroup and a folder task
// returns as soon as it has submitted its children. A FolderTask is
// still only "done" (for the run's purposes) once every descendant
// reaches a terminal state — that join happens at Sync()'s top level
// instead of inside each task. This keeps the deadlock-freedom
// spec.md §4.6/§9 requires without sacrificing the join semantics
// spec.md §4.7 describes.
package syncengine

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/smug-cli/smug/internal/fingerprint"
	"github.com/smug-cli/smug/internal/ignore"
	"github.com/smug-cli/smug/internal/localscan"
	"github.com/smug-cli/smug/internal/smugapi"
	"github.com/smug-cli/smug/internal/taskpool"
)

// MetadataProbe is the pluggable collaborator spec.md §1 names as
// external to the core engine: given a local file path it returns the
// keywords/caption an UploadTask should backfill via
// set_image_keywords after a successful upload.
type MetadataProbe interface {
	Probe(localPath string) (keywords []string, caption string, err error)
}

// Options are the run-wide knobs spec.md §4.7 Step E and §6 name.
type Options struct {
	Delete bool
	DryRun bool
}

// Pair is one (local_source, remote_destination_path) sync request.
type Pair struct {
	LocalSource string
	RemoteDest  string
}

// Resolver is the subset of pathresolver.Resolver the engine consumes,
// scoped narrowly so syncengine never needs to import pathresolver's
// cache internals.
type Resolver interface {
	ResolveOrParent(ctx context.Context, segments []string) (*smugapi.RemoteNode, []string, error)
}

// Engine is one sync run's dependencies.
type Engine struct {
	Remote       smugapi.RemoteClient
	Resolver     Resolver
	Fingerprints *fingerprint.Cache
	Ignores      *ignore.Set
	Metadata     MetadataProbe

	FolderPool *taskpool.Pool
	FilePool   *taskpool.Pool
	UploadPool *taskpool.Pool

	Options Options

	onFailure func(TaskFailure)

	wg sync.WaitGroup

	albumMu    sync.Mutex
	albumImage map[string][]*smugapi.RemoteImage

	mu          sync.Mutex
	createLocks map[string]*sync.Mutex

	touchedMu sync.Mutex
	touched   map[string]*albumSyncState // album_uri -> state
}

// albumSyncState accumulates, per album touched by this run, which
// local basenames mapped into it and which image URIs were claimed by
// a cross-album move, so Step E's orphan pass has what it needs.
type albumSyncState struct {
	localNames map[string]bool
	claimedURI map[string]bool
}

// New builds an Engine ready to run Sync.
func New(remote smugapi.RemoteClient, resolver Resolver, fingerprints *fingerprint.Cache, ignores *ignore.Set, metadata MetadataProbe, pools [3]*taskpool.Pool, opts Options, onFailure func(TaskFailure)) *Engine {
	return &Engine{
		Remote:       remote,
		Resolver:     resolver,
		Fingerprints: fingerprints,
		Ignores:      ignores,
		Metadata:     metadata,
		FolderPool:   pools[0],
		FilePool:     pools[1],
		UploadPool:   pools[2],
		Options:      opts,
		onFailure:    onFailure,
		albumImage:   make(map[string][]*smugapi.RemoteImage),
		createLocks:  make(map[string]*sync.Mutex),
		touched:      make(map[string]*albumSyncState),
	}
}

// TaskFailure is a run-report record (spec.md §4.7's failure semantics).
type TaskFailure struct {
	Path   string
	Kind   string // "folder", "file", "upload"
	Detail error
}

func (e *Engine) fail(path, kind string, err error) {
	if e.onFailure != nil {
		e.onFailure(TaskFailure{Path: path, Kind: kind, Detail: err})
	}
}

// Sync runs every pair to completion (every spawned task reaches a
// terminal state) and then performs Step E's deletion reconciliation.
func (e *Engine) Sync(ctx context.Context, pairs []Pair) error {
	for _, p := range pairs {
		e.syncPair(ctx, p)
	}

	e.wg.Wait()

	if e.Options.Delete {
		e.reconcileDeletions(ctx)
	}

	return nil
}

// syncPair implements Step A: destination normalization, then submits
// the root FolderTask. `upload` and `sync` share this entry point, and
// both take a directory as LocalSource: a regular-file source cannot be
// listed by classifyLocal and is reported as a folder failure, so a
// single file is not uploaded on its own.
func (e *Engine) syncPair(ctx context.Context, p Pair) {
	destSegments := normalizeDestination(p.LocalSource, p.RemoteDest)
	if len(destSegments) == 0 {
		e.fail(p.LocalSource, "folder", pathNotExistErr(p.RemoteDest))
		return
	}

	localKind, err := classifyLocal(p.LocalSource)
	if err != nil {
		e.fail(p.LocalSource, "folder", err)
		return
	}

	parent, remaining, err := e.Resolver.ResolveOrParent(ctx, destSegments[:len(destSegments)-1])
	if err != nil {
		e.fail(p.LocalSource, "folder", err)
		return
	}

	nodeType := smugapi.NodeFolder
	if localKind == localKindFiles {
		nodeType = smugapi.NodeAlbum
	}

	for _, seg := range remaining {
		parent, err = e.ensureChild(ctx, parent, seg, smugapi.NodeFolder)
		if err != nil {
			e.fail(p.LocalSource, "folder", err)
			return
		}
	}

	leafName := destSegments[len(destSegments)-1]
	destNode, err := e.ensureChild(ctx, parent, leafName, nodeType)
	if err != nil {
		e.fail(p.LocalSource, "folder", err)
		return
	}

	e.wg.Add(1)
	e.FolderPool.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		defer e.wg.Done()
		return nil, e.folderTask(ctx, p.LocalSource, destNode)
	})
}

type localKind int

const (
	localKindEmpty localKind = iota
	localKindFiles
	localKindDirs
	localKindMixed
)

func classifyLocal(dir string) (localKind, error) {
	entries, errc := localscan.Scan(dir, nil)
	var sawFile, sawDir bool
	for entry := range entries {
		switch entry.Kind {
		case localscan.KindFile:
			sawFile = true
		case localscan.KindDir:
			sawDir = true
		}
	}
	if err := <-errc; err != nil {
		return localKindEmpty, err
	}
	switch {
	case sawFile && sawDir:
		return localKindMixed, nil
	case sawFile:
		return localKindFiles, nil
	case sawDir:
		return localKindDirs, nil
	default:
		return localKindEmpty, nil
	}
}

// folderTask implements Step B. Its return value is this task's own
// outcome (so the owning taskpool.Pool can count and log it the way
// spec.md §4.6 describes); a subdirectory's own failure is reported
// through e.fail and does not abort its siblings, so it is not folded
// into this return value — only the errors that stop this folderTask
// cold are.
func (e *Engine) folderTask(ctx context.Context, localDir string, remoteNode *smugapi.RemoteNode) error {
	children := make(map[string]*smugapi.RemoteNode)
	for res := range e.Remote.ListChildren(ctx, remoteNode.URI) {
		if res.Err != nil {
			e.fail(localDir, "folder", res.Err)
			return res.Err
		}
		children[res.Node.Name] = res.Node
	}

	entries, errc := localscan.Scan(localDir, e.Ignores)

	var subdirs, files []localscan.Entry
	for entry := range entries {
		switch entry.Kind {
		case localscan.KindDir:
			subdirs = append(subdirs, entry)
		case localscan.KindFile:
			files = append(files, entry)
		}
	}
	if err := <-errc; err != nil {
		e.fail(localDir, "folder", err)
		return err
	}

	if len(subdirs) > 0 && len(files) > 0 {
		e.fail(localDir, "folder", mixedContentErr(localDir))
		files = nil
	}

	if len(files) > 0 && remoteNode.Type != smugapi.NodeAlbum {
		err := typeConflictErr(localDir, "Album")
		e.fail(localDir, "folder", err)
		return err
	}

	for _, sub := range subdirs {
		kind, err := classifyLocal(sub.AbsPath)
		if err != nil {
			e.fail(sub.AbsPath, "folder", err)
			continue
		}

		nodeType := smugapi.NodeFolder
		if kind == localKindFiles {
			nodeType = smugapi.NodeAlbum
		}

		child, ok := children[sub.Name]
		if !ok {
			child, err = e.ensureChild(ctx, remoteNode, sub.Name, nodeType)
			if err != nil {
				e.fail(sub.AbsPath, "folder", err)
				continue
			}
		}

		localPath, node := sub.AbsPath, child
		e.wg.Add(1)
		e.FolderPool.Submit(ctx, func(ctx context.Context) (interface{}, error) {
			defer e.wg.Done()
			return nil, e.folderTask(ctx, localPath, node)
		})
	}

	if len(files) == 0 {
		return nil
	}

	e.markTouched(remoteNode.URI)
	for _, f := range files {
		e.markLocalName(remoteNode.URI, f.Name)

		localPath, albumURI := f.AbsPath, remoteNode.URI
		e.wg.Add(1)
		e.FilePool.Submit(ctx, func(ctx context.Context) (interface{}, error) {
			defer e.wg.Done()
			return nil, e.fileTask(ctx, localPath, albumURI)
		})
	}

	return nil
}

func (e *Engine) markTouched(albumURI string) {
	e.touchedMu.Lock()
	defer e.touchedMu.Unlock()
	if _, ok := e.touched[albumURI]; !ok {
		e.touched[albumURI] = &albumSyncState{localNames: map[string]bool{}, claimedURI: map[string]bool{}}
	}
}

func (e *Engine) markLocalName(albumURI, name string) {
	e.touchedMu.Lock()
	defer e.touchedMu.Unlock()
	e.touched[albumURI].localNames[name] = true
}

func (e *Engine) markClaimed(albumURI, imageURI string) {
	e.touchedMu.Lock()
	defer e.touchedMu.Unlock()
	if st, ok := e.touched[albumURI]; ok {
		st.claimedURI[imageURI] = true
	}
}

// ensureChild is the SyncEngine's own at-most-once creation guard
// (spec.md §5): two concurrent FolderTasks discovering the same
// missing child race on a per-(parent_uri, name) lock, and the loser
// observes what the winner created.
func (e *Engine) ensureChild(ctx context.Context, parent *smugapi.RemoteNode, name string, nodeType smugapi.NodeType) (*smugapi.RemoteNode, error) {
	key := parent.URI + "\x00" + name

	e.mu.Lock()
	mu, ok := e.createLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		e.createLocks[key] = mu
	}
	e.mu.Unlock()

	mu.Lock()
	defer mu.Unlock()

	for res := range e.Remote.ListChildren(ctx, parent.URI) {
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Node.Name == name {
			return res.Node, nil
		}
	}

	if nodeType == smugapi.NodeAlbum {
		return e.Remote.CreateAlbum(ctx, parent.URI, name)
	}
	return e.Remote.CreateFolder(ctx, parent.URI, name)
}

// listAlbumImages returns (and caches for this run) the image listing
// for albumURI, the "consistent-as-of-first-read" snapshot spec.md §5
// requires for the duration of the FileTasks it spawns.
func (e *Engine) listAlbumImages(ctx context.Context, albumURI string) ([]*smugapi.RemoteImage, error) {
	e.albumMu.Lock()
	if imgs, ok := e.albumImage[albumURI]; ok {
		e.albumMu.Unlock()
		return imgs, nil
	}
	e.albumMu.Unlock()

	var imgs []*smugapi.RemoteImage
	for res := range e.Remote.ListAlbumImages(ctx, albumURI) {
		if res.Err != nil {
			return nil, res.Err
		}
		imgs = append(imgs, res.Image)
	}

	e.albumMu.Lock()
	if existing, ok := e.albumImage[albumURI]; ok {
		e.albumMu.Unlock()
		return existing, nil
	}
	e.albumImage[albumURI] = imgs
	e.albumMu.Unlock()

	return imgs, nil
}

// normalizeDestination implements Step A: a trailing separator on the
// local source means "sync the source's contents into the destination"
// (the destination is used as-is); otherwise the destination gains one
// more path segment, the source's own basename, the way `rsync src dst`
// nests src's contents under dst/src rather than merging into dst.
func normalizeDestination(localSource, remoteDest string) []string {
	segments := splitPath(remoteDest)
	if strings.HasSuffix(localSource, "/") {
		return segments
	}

	base := path.Base(strings.TrimRight(localSource, "/"))
	if base == "" || base == "." || base == "/" {
		return segments
	}
	return append(segments, base)
}

func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

