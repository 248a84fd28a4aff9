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
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/smug-cli/smug/internal/fingerprint"
	"github.com/smug-cli/smug/internal/smugapi"
)

// fileTask implements Step C: decide whether localPath is already
// represented in albumURI (by name, by content elsewhere, or not at
// all) and schedule the matching follow-up. Its return value is this
// task's own outcome, so the owning taskpool.Pool can count and log it
// the way spec.md §4.6 describes.
func (e *Engine) fileTask(ctx context.Context, localPath, albumURI string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		e.fail(localPath, "file", err)
		return err
	}

	images, err := e.listAlbumImages(ctx, albumURI)
	if err != nil {
		e.fail(localPath, "file", err)
		return err
	}

	baseName := filepath.Base(localPath)

	if img := findByName(images, baseName); img != nil {
		return e.reconcileNameMatch(ctx, localPath, albumURI, info.Size(), img)
	}

	localMD5, err := fingerprint.HashFile(localPath)
	if err != nil {
		e.fail(localPath, "file", err)
		return err
	}

	if img := e.findByMD5InAlbum(images, localMD5); img != nil {
		// Present under a different name in the same album: prefer
		// keeping the existing image over uploading a duplicate.
		e.markClaimed(albumURI, img.ImageURI)
		return nil
	}

	imageURI, ok := e.Fingerprints.FindByMD5(localMD5)
	if !ok {
		imageURI, ok = e.findMoveAcrossTree(ctx, localMD5)
	}
	if ok {
		if !strings.HasPrefix(imageURI, albumURI) {
			if err := e.Remote.ChangeImageAlbum(ctx, imageURI, albumURI); err != nil {
				e.fail(localPath, "file", err)
				return err
			}
			e.markClaimed(albumURI, imageURI)
			return nil
		}
	}

	e.wg.Add(1)
	e.UploadPool.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		defer e.wg.Done()
		return nil, e.uploadTask(ctx, localPath, albumURI, localMD5, info.Size())
	})
	return nil
}

func (e *Engine) reconcileNameMatch(ctx context.Context, localPath, albumURI string, localSize int64, img *smugapi.RemoteImage) error {
	if cachedMD5, ok := e.Fingerprints.Get(img.ImageURI); ok && img.ArchivedSize == localSize {
		localMD5, err := fingerprint.HashFile(localPath)
		if err != nil {
			e.fail(localPath, "file", err)
			return err
		}
		if localMD5 == cachedMD5 {
			return nil
		}
		e.replace(ctx, localPath, img, localMD5)
		return nil
	}

	localMD5, err := fingerprint.HashFile(localPath)
	if err != nil {
		e.fail(localPath, "file", err)
		return err
	}
	if img.ArchivedSize == localSize && img.ArchivedMD5 == localMD5 {
		e.Fingerprints.Put(img.ImageURI, localMD5)
		return nil
	}

	e.replace(ctx, localPath, img, localMD5)
	return nil
}

func (e *Engine) replace(ctx context.Context, localPath string, img *smugapi.RemoteImage, localMD5 string) {
	e.wg.Add(1)
	e.UploadPool.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		defer e.wg.Done()
		e.Fingerprints.Invalidate(img.ImageURI)

		f, err := os.Open(localPath)
		if err != nil {
			e.fail(localPath, "upload", err)
			return nil, err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			e.fail(localPath, "upload", err)
			return nil, err
		}

		if _, err := e.Remote.ReplaceImage(ctx, img.ImageURI, f, info.Size(), localMD5); err != nil {
			e.fail(localPath, "upload", err)
			return nil, err
		}

		e.Fingerprints.Put(img.ImageURI, localMD5)
		e.backfillMetadata(localPath, img.ImageURI)
		return nil, nil
	})
}

func (e *Engine) findByMD5InAlbum(images []*smugapi.RemoteImage, md5Hex string) *smugapi.RemoteImage {
	for _, img := range images {
		if img.ArchivedMD5 == md5Hex {
			return img
		}
		if cached, ok := e.Fingerprints.Get(img.ImageURI); ok && cached == md5Hex {
			return img
		}
	}
	return nil
}

// findMoveAcrossTree is the cross-album move-detection fallback spec.md
// §9 describes for an md5 this run's Fingerprints cache has never
// recorded — the first run against a pre-existing remote tree, whose
// images were never put there by a prior upload this cache observed.
// It walks every album reachable from the remote root, compares each
// image's own ArchivedMD5 (which needs no prior cache entry to exist),
// and backfills the cache with everything it visits so later lookups —
// in this run and the next — hit Fingerprints.FindByMD5 directly
// instead of repeating the walk.
func (e *Engine) findMoveAcrossTree(ctx context.Context, md5Hex string) (string, bool) {
	root, _, err := e.Resolver.ResolveOrParent(ctx, nil)
	if err != nil {
		return "", false
	}

	var imageURI string
	var found bool
	e.walkAlbums(ctx, root, func(albumURI string) {
		images, err := e.listAlbumImages(ctx, albumURI)
		if err != nil {
			return
		}
		for _, img := range images {
			e.Fingerprints.Put(img.ImageURI, img.ArchivedMD5)
			if !found && img.ArchivedMD5 == md5Hex {
				imageURI, found = img.ImageURI, true
			}
		}
	})
	return imageURI, found
}

// walkAlbums visits every Album node reachable from node, recursing
// depth-first through Folder children.
func (e *Engine) walkAlbums(ctx context.Context, node *smugapi.RemoteNode, visit func(albumURI string)) {
	if node.Type == smugapi.NodeAlbum {
		visit(node.URI)
		return
	}
	for res := range e.Remote.ListChildren(ctx, node.URI) {
		if res.Err != nil {
			return
		}
		e.walkAlbums(ctx, res.Node, visit)
	}
}

func findByName(images []*smugapi.RemoteImage, name string) *smugapi.RemoteImage {
	for _, img := range images {
		if img.FileName == name {
			return img
		}
	}
	return nil
}

// uploadTask implements Step D.
func (e *Engine) uploadTask(ctx context.Context, localPath, albumURI, md5Hex string, size int64) error {
	f, err := os.Open(localPath)
	if err != nil {
		e.fail(localPath, "upload", err)
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		e.fail(localPath, "upload", err)
		return err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(localPath))

	img, err := e.Remote.UploadImage(ctx, albumURI, filepath.Base(localPath), f, size, mimeType, info.ModTime(), md5Hex)
	if err != nil {
		e.fail(localPath, "upload", err)
		return err
	}

	e.Fingerprints.Put(img.ImageURI, md5Hex)
	e.backfillMetadata(localPath, img.ImageURI)
	return nil
}

func (e *Engine) backfillMetadata(localPath, imageURI string) {
	if e.Metadata == nil {
		return
	}
	keywords, _, err := e.Metadata.Probe(localPath)
	if err != nil || len(keywords) == 0 {
		return
	}
	_ = e.Remote.SetImageKeywords(context.Background(), imageURI, keywords)
}
