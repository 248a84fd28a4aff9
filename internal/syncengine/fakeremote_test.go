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
	"io/ioutil"
	"sync"
	"time"

	"github.com/smug-cli/smug/internal/smugapi"
)

// fakeRemote is an in-memory smugapi.RemoteClient: a tree of folders and
// albums rooted at "/root", with a per-album image list a test can
// pre-seed to simulate what's already on the remote.
type fakeRemote struct {
	mu sync.Mutex

	children map[string][]*smugapi.RemoteNode
	images   map[string][]*smugapi.RemoteImage

	uploaded []string
	deleted  []string
	changed  []string // "imageURI -> newAlbumURI"

	nextID int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		children: map[string][]*smugapi.RemoteNode{},
		images:   map[string][]*smugapi.RemoteImage{},
	}
}

func (f *fakeRemote) root() *smugapi.RemoteNode {
	return &smugapi.RemoteNode{URI: "/root", Type: smugapi.NodeFolder, Name: "root"}
}

func (f *fakeRemote) WhoAmI(ctx context.Context) (string, error) { return "tester", nil }

func (f *fakeRemote) GetRoot(ctx context.Context, user string) (*smugapi.RemoteNode, error) {
	return f.root(), nil
}

func (f *fakeRemote) ListChildren(ctx context.Context, nodeURI string, typesFilter ...smugapi.NodeType) <-chan smugapi.NodeResult {
	out := make(chan smugapi.NodeResult)
	go func() {
		defer close(out)
		f.mu.Lock()
		nodes := append([]*smugapi.RemoteNode(nil), f.children[nodeURI]...)
		f.mu.Unlock()
		for _, n := range nodes {
			out <- smugapi.NodeResult{Node: n}
		}
	}()
	return out
}

func (f *fakeRemote) createNode(parentURI, name string, t smugapi.NodeType) (*smugapi.RemoteNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	node := &smugapi.RemoteNode{
		URI:       fmt.Sprintf("%s/%s", parentURI, name),
		Name:      name,
		Type:      t,
		ParentURI: parentURI,
	}
	f.children[parentURI] = append(f.children[parentURI], node)
	return node, nil
}

func (f *fakeRemote) CreateFolder(ctx context.Context, parentURI, name string) (*smugapi.RemoteNode, error) {
	return f.createNode(parentURI, name, smugapi.NodeFolder)
}

func (f *fakeRemote) CreateAlbum(ctx context.Context, parentURI, name string) (*smugapi.RemoteNode, error) {
	return f.createNode(parentURI, name, smugapi.NodeAlbum)
}

func (f *fakeRemote) DeleteNode(ctx context.Context, nodeURI string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, nodeURI)
	for album, imgs := range f.images {
		for i, img := range imgs {
			if img.ImageURI == nodeURI {
				f.images[album] = append(imgs[:i], imgs[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (f *fakeRemote) ListAlbumImages(ctx context.Context, albumURI string) <-chan smugapi.ImageResult {
	out := make(chan smugapi.ImageResult)
	go func() {
		defer close(out)
		f.mu.Lock()
		imgs := append([]*smugapi.RemoteImage(nil), f.images[albumURI]...)
		f.mu.Unlock()
		for _, img := range imgs {
			out <- smugapi.ImageResult{Image: img}
		}
	}()
	return out
}

func (f *fakeRemote) UploadImage(ctx context.Context, albumURI, fileName string, body io.Reader, size int64, mimeType string, mtime time.Time, md5Hex string) (*smugapi.RemoteImage, error) {
	if _, err := ioutil.ReadAll(body); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.uploaded = append(f.uploaded, fileName)
	img := &smugapi.RemoteImage{
		ImageURI:     fmt.Sprintf("%s/image/%s", albumURI, fileName),
		FileName:     fileName,
		ArchivedMD5:  md5Hex,
		ArchivedSize: size,
		AlbumURI:     albumURI,
		ModTime:      mtime,
	}
	f.images[albumURI] = append(f.images[albumURI], img)
	return img, nil
}

func (f *fakeRemote) ReplaceImage(ctx context.Context, imageURI string, body io.Reader, size int64, md5Hex string) (*smugapi.RemoteImage, error) {
	if _, err := ioutil.ReadAll(body); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, imgs := range f.images {
		for _, img := range imgs {
			if img.ImageURI == imageURI {
				img.ArchivedMD5 = md5Hex
				img.ArchivedSize = size
				return img, nil
			}
		}
	}
	return nil, notFoundError(imageURI)
}

func (f *fakeRemote) ChangeImageAlbum(ctx context.Context, imageURI, newAlbumURI string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.changed = append(f.changed, imageURI+" -> "+newAlbumURI)

	for album, imgs := range f.images {
		for i, img := range imgs {
			if img.ImageURI == imageURI {
				f.images[album] = append(imgs[:i], imgs[i+1:]...)
				img.AlbumURI = newAlbumURI
				f.images[newAlbumURI] = append(f.images[newAlbumURI], img)
				return nil
			}
		}
	}
	return notFoundError(imageURI)
}

func (f *fakeRemote) SetImageKeywords(ctx context.Context, imageURI string, keywords []string) error {
	return nil
}

func notFoundError(uri string) error {
	return fmt.Errorf("fake remote: no such image %s", uri)
}

var _ smugapi.RemoteClient = (*fakeRemote)(nil)

// fakeResolver walks fakeRemote's own children map the way
// pathresolver.Resolver would, without any of its caching.
type fakeResolver struct {
	remote *fakeRemote
}

func (r *fakeResolver) ResolveOrParent(ctx context.Context, segments []string) (*smugapi.RemoteNode, []string, error) {
	node := r.remote.root()
	for i, seg := range segments {
		var next *smugapi.RemoteNode
		r.remote.mu.Lock()
		for _, c := range r.remote.children[node.URI] {
			if c.Name == seg {
				next = c
				break
			}
		}
		r.remote.mu.Unlock()
		if next == nil {
			return node, segments[i:], nil
		}
		node = next
	}
	return node, nil, nil
}

var _ Resolver = (*fakeResolver)(nil)
