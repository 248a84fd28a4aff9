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

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/odeke-em/log"

	"github.com/smug-cli/smug/internal/smugapi"
)

// fakeRemote is a minimal smugapi.RemoteClient for verb-layer tests: an
// in-memory tree keyed by node URI, with CreateFolder/CreateAlbum
// appending to it and DeleteNode recording which URIs were removed.
type fakeRemote struct {
	root     *smugapi.RemoteNode
	children map[string][]*smugapi.RemoteNode
	deleted  []string
	nextID   int
}

func newFakeRemote() *fakeRemote {
	root := &smugapi.RemoteNode{URI: "/root", Type: smugapi.NodeFolder}
	return &fakeRemote{
		root:     root,
		children: map[string][]*smugapi.RemoteNode{},
	}
}

func (f *fakeRemote) WhoAmI(ctx context.Context) (string, error) { return "user", nil }

func (f *fakeRemote) GetRoot(ctx context.Context, user string) (*smugapi.RemoteNode, error) {
	return f.root, nil
}

func (f *fakeRemote) ListChildren(ctx context.Context, nodeURI string, typesFilter ...smugapi.NodeType) <-chan smugapi.NodeResult {
	out := make(chan smugapi.NodeResult, len(f.children[nodeURI]))
	for _, n := range f.children[nodeURI] {
		out <- smugapi.NodeResult{Node: n}
	}
	close(out)
	return out
}

func (f *fakeRemote) createNode(parentURI, name string, t smugapi.NodeType) (*smugapi.RemoteNode, error) {
	f.nextID++
	child := &smugapi.RemoteNode{
		URI:       parentURI + "/" + name,
		Name:      name,
		Type:      t,
		ParentURI: parentURI,
	}
	f.children[parentURI] = append(f.children[parentURI], child)
	return child, nil
}

func (f *fakeRemote) CreateFolder(ctx context.Context, parentURI, name string) (*smugapi.RemoteNode, error) {
	return f.createNode(parentURI, name, smugapi.NodeFolder)
}

func (f *fakeRemote) CreateAlbum(ctx context.Context, parentURI, name string) (*smugapi.RemoteNode, error) {
	return f.createNode(parentURI, name, smugapi.NodeAlbum)
}

func (f *fakeRemote) DeleteNode(ctx context.Context, nodeURI string) error {
	f.deleted = append(f.deleted, nodeURI)
	return nil
}

func (f *fakeRemote) ListAlbumImages(ctx context.Context, albumURI string) <-chan smugapi.ImageResult {
	out := make(chan smugapi.ImageResult)
	close(out)
	return out
}

func (f *fakeRemote) UploadImage(ctx context.Context, albumURI, fileName string, body io.Reader, size int64, mimeType string, mtime time.Time, md5Hex string) (*smugapi.RemoteImage, error) {
	return nil, nil
}

func (f *fakeRemote) ReplaceImage(ctx context.Context, imageURI string, body io.Reader, size int64, md5Hex string) (*smugapi.RemoteImage, error) {
	return nil, nil
}

func (f *fakeRemote) ChangeImageAlbum(ctx context.Context, imageURI, newAlbumURI string) error {
	return nil
}

func (f *fakeRemote) SetImageKeywords(ctx context.Context, imageURI string, keywords []string) error {
	return nil
}

// newTestCommands builds a minimal Commands with a live logger, enough
// for verb-layer tests that never touch the fingerprint/task-pool
// collaborators.
func newTestCommands(remote smugapi.RemoteClient, opts *Options) *Commands {
	if opts == nil {
		opts = &Options{}
	}
	var out bytes.Buffer
	return &Commands{
		Remote:        remote,
		Opts:          opts,
		log:           log.New(&bytes.Buffer{}, &out, &out),
		mkdirAllState: newMkdirAllState(),
	}
}
