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

package smugapi

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

type noopSigner struct{}

func (noopSigner) Sign(req *http.Request) error { return nil }

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(srv.URL, noopSigner{}, nil)
	c.RetryCount = 5
	return c
}

func TestWhoAmI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2!authuser" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(authUserResponse{NickName: "shutterbug"})
	}))
	defer srv.Close()

	got, err := newTestClient(srv).WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI: %v", err)
	}
	if got != "shutterbug" {
		t.Errorf("WhoAmI() = %q, want shutterbug", got)
	}
}

func TestGetRoot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "!rooturi") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(RemoteNode{URI: "/api/v2/node/root", Type: NodeFolder})
	}))
	defer srv.Close()

	got, err := newTestClient(srv).GetRoot(context.Background(), "shutterbug")
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if got.URI != "/api/v2/node/root" {
		t.Errorf("GetRoot().URI = %q, want /api/v2/node/root", got.URI)
	}
}

func TestListChildrenPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		switch start {
		case 1:
			json.NewEncoder(w).Encode(childPage{
				Nodes:    []*RemoteNode{{Name: "a"}, {Name: "b"}},
				NextPage: 51,
			})
		case 51:
			json.NewEncoder(w).Encode(childPage{Nodes: []*RemoteNode{{Name: "c"}}})
		default:
			t.Errorf("unexpected start=%d", start)
		}
	}))
	defer srv.Close()

	var names []string
	for res := range newTestClient(srv).ListChildren(context.Background(), "/api/v2/node/root") {
		if res.Err != nil {
			t.Fatalf("ListChildren: %v", res.Err)
		}
		names = append(names, res.Node.Name)
	}

	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("ListChildren() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestListChildrenPropagatesTerminalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res := <-newTestClient(srv).ListChildren(context.Background(), "/api/v2/node/missing")
	if res.Err == nil {
		t.Fatal("ListChildren() err = nil, want a not-found error")
	}
	if se, ok := res.Err.(*Error); !ok || se.Status() != StatusNotFound {
		t.Errorf("ListChildren() err = %v, want StatusNotFound", res.Err)
	}
}

func TestCreateFolderAndCreateAlbum(t *testing.T) {
	var gotBody createNodeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(RemoteNode{Name: gotBody.Name, Type: gotBody.Type})
	}))
	defer srv.Close()

	c := newTestClient(srv)

	folder, err := c.CreateFolder(context.Background(), "/api/v2/node/root", "vacations")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if folder.Type != NodeFolder {
		t.Errorf("CreateFolder().Type = %v, want Folder", folder.Type)
	}

	album, err := c.CreateAlbum(context.Background(), "/api/v2/node/root", "hawaii")
	if err != nil {
		t.Fatalf("CreateAlbum: %v", err)
	}
	if album.Type != NodeAlbum {
		t.Errorf("CreateAlbum().Type = %v, want Album", album.Type)
	}
}

func TestDeleteNode(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
	}))
	defer srv.Close()

	if err := newTestClient(srv).DeleteNode(context.Background(), "/api/v2/node/abc"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/v2/node/abc" {
		t.Errorf("request = %s %s, want DELETE /api/v2/node/abc", gotMethod, gotPath)
	}
}

func TestListAlbumImagesPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		if start == 1 {
			json.NewEncoder(w).Encode(imagePage{Images: []*RemoteImage{{FileName: "a.jpg"}}})
			return
		}
		t.Errorf("unexpected start=%d", start)
	}))
	defer srv.Close()

	var got []string
	for res := range newTestClient(srv).ListAlbumImages(context.Background(), "/api/v2/album/x") {
		if res.Err != nil {
			t.Fatalf("ListAlbumImages: %v", res.Err)
		}
		got = append(got, res.Image.FileName)
	}
	if len(got) != 1 || got[0] != "a.jpg" {
		t.Errorf("ListAlbumImages() = %v, want [a.jpg]", got)
	}
}

func TestUploadImageSetsHeadersAndModTime(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header
		json.NewEncoder(w).Encode(RemoteImage{FileName: "a.jpg", ArchivedMD5: "deadbeef"})
	}))
	defer srv.Close()

	mtime, err := time.Parse(time.RFC3339, "2020-01-02T15:04:05Z")
	if err != nil {
		t.Fatal(err)
	}
	img, err := newTestClient(srv).UploadImage(context.Background(), "/api/v2/album/x", "a.jpg",
		strings.NewReader("data"), 4, "image/jpeg", mtime, "deadbeef")
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if img.ArchivedMD5 != "deadbeef" {
		t.Errorf("UploadImage().ArchivedMD5 = %q, want deadbeef", img.ArchivedMD5)
	}
	if !img.ModTime.Equal(mtime) {
		t.Errorf("UploadImage().ModTime = %v, want %v", img.ModTime, mtime)
	}
	if gotHeaders.Get("Content-MD5") != "deadbeef" {
		t.Errorf("Content-MD5 header = %q, want deadbeef", gotHeaders.Get("Content-MD5"))
	}
	if gotHeaders.Get("X-Smug-AlbumUri") != "/api/v2/album/x" {
		t.Errorf("X-Smug-AlbumUri header = %q, want /api/v2/album/x", gotHeaders.Get("X-Smug-AlbumUri"))
	}
	if gotHeaders.Get("X-Smug-FileName") != "a.jpg" {
		t.Errorf("X-Smug-FileName header = %q, want a.jpg", gotHeaders.Get("X-Smug-FileName"))
	}
}

func TestReplaceImage(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewEncoder(w).Encode(RemoteImage{FileName: "a.jpg"})
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).ReplaceImage(context.Background(), "/api/v2/image/a", strings.NewReader("x"), 1, "hash"); err != nil {
		t.Fatalf("ReplaceImage: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
}

func TestChangeImageAlbumAndSetImageKeywords(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		buf, _ := ioutil.ReadAll(r.Body)
		bodies = append(bodies, string(buf))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if err := c.ChangeImageAlbum(context.Background(), "/api/v2/image/a", "/api/v2/album/y"); err != nil {
		t.Fatalf("ChangeImageAlbum: %v", err)
	}
	if err := c.SetImageKeywords(context.Background(), "/api/v2/image/a", []string{"sun", "sand"}); err != nil {
		t.Fatalf("SetImageKeywords: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("got %d requests, want 2", len(bodies))
	}
	if !strings.Contains(bodies[0], "/api/v2/album/y") {
		t.Errorf("ChangeImageAlbum body = %q, want it to mention the new album uri", bodies[0])
	}
	if !strings.Contains(bodies[1], "sun") || !strings.Contains(bodies[1], "sand") {
		t.Errorf("SetImageKeywords body = %q, want both keywords", bodies[1])
	}
}

func TestDoAuthFailureIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).WhoAmI(context.Background())
	if err == nil {
		t.Fatal("WhoAmI() err = nil, want an auth error")
	}
	se, ok := err.(*Error)
	if !ok || se.Status() != StatusAuth {
		t.Fatalf("WhoAmI() err = %v, want StatusAuth", err)
	}
	if calls != 1 {
		t.Errorf("server got %d calls, want 1 (auth errors are not retryable)", calls)
	}
}

