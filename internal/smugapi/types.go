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

// Package smugapi is the RemoteClient contract: a typed adapter over the
// remote photo host's REST+JSON surface. Nothing above this package knows
// about HTTP, OAuth1, or JSON shapes.
package smugapi

import "time"

type NodeType string

const (
	NodeFolder      NodeType = "Folder"
	NodeAlbum       NodeType = "Album"
	NodePage        NodeType = "Page"
	NodeSystemAlbum NodeType = "SystemAlbum"
)

// RemoteNode is a Folder, Album, Page, or SystemAlbum in the remote tree.
type RemoteNode struct {
	NodeID      string   `json:"NodeID"`
	Type        NodeType `json:"Type"`
	Name        string   `json:"Name"`
	URLName     string   `json:"UrlName"`
	URI         string   `json:"Uri"`
	AlbumURI    string   `json:"AlbumUri,omitempty"`
	HasChildren bool     `json:"HasChildren"`
	ParentURI   string   `json:"ParentUri"`
}

func (n *RemoteNode) IsDir() bool {
	return n != nil && n.Type == NodeFolder
}

// RemoteImage is one uploaded image/video inside an Album.
type RemoteImage struct {
	ImageURI     string    `json:"ImageUri"`
	FileName     string    `json:"FileName"`
	ArchivedMD5  string    `json:"ArchivedMD5"`
	ArchivedSize int64     `json:"ArchivedSize"`
	Caption      string    `json:"Caption,omitempty"`
	Keywords     []string  `json:"Keywords,omitempty"`
	AlbumURI     string    `json:"AlbumUri"`
	ModTime      time.Time `json:"-"`
}

// NodeResult carries one page-item or a terminal error, mirroring the
// teacher's reqDoPage single-channel iterator (src/remote.go).
type NodeResult struct {
	Node *RemoteNode
	Err  error
}

// ImageResult is the RemoteImage analogue of NodeResult.
type ImageResult struct {
	Image *RemoteImage
	Err   error
}
