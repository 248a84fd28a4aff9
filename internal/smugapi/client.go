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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/odeke-em/log"
)

// RemoteClient is the contract the sync engine consumes. The concrete
// implementation below signs every request with OAuth1 and retries
// Network/RateLimited failures up to RetryCount times; only when those
// retries are exhausted does the caller see the last transient error.
type RemoteClient interface {
	WhoAmI(ctx context.Context) (nickName string, err error)
	GetRoot(ctx context.Context, user string) (*RemoteNode, error)
	ListChildren(ctx context.Context, nodeURI string, typesFilter ...NodeType) <-chan NodeResult
	CreateFolder(ctx context.Context, parentURI, name string) (*RemoteNode, error)
	CreateAlbum(ctx context.Context, parentURI, name string) (*RemoteNode, error)
	DeleteNode(ctx context.Context, nodeURI string) error
	ListAlbumImages(ctx context.Context, albumURI string) <-chan ImageResult
	UploadImage(ctx context.Context, albumURI, fileName string, body io.Reader, size int64, mimeType string, mtime time.Time, md5Hex string) (*RemoteImage, error)
	ReplaceImage(ctx context.Context, imageURI string, body io.Reader, size int64, md5Hex string) (*RemoteImage, error)
	ChangeImageAlbum(ctx context.Context, imageURI, newAlbumURI string) error
	SetImageKeywords(ctx context.Context, imageURI string, keywords []string) error
}

// Signer signs an outgoing *http.Request in place, e.g. via OAuth1. The
// core client never depends on how signing is done (spec.md §9).
type Signer interface {
	Sign(req *http.Request) error
}

const defaultPageSize = 50

// DefaultBaseURL is the remote host's API root.
const DefaultBaseURL = "https://api.smugmug.com"

// Client is the concrete RemoteClient: a thin typed wrapper around the
// remote's REST+JSON surface, modeled on the teacher's upsertByComparison/
// reqDoPage shape (src/remote.go) but against a generic JSON API instead
// of a generated Drive SDK.
type Client struct {
	BaseURL    string
	HTTP       *http.Client
	Signer     Signer
	Log        *log.Logger
	PageSize   int
	RetryCount int
}

func NewClient(baseURL string, signer Signer, logger *log.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTP:       &http.Client{Timeout: 60 * time.Second},
		Signer:     signer,
		Log:        logger,
		PageSize:   defaultPageSize,
		RetryCount: 5,
	}
}

func (c *Client) pageSize() int {
	if c.PageSize < defaultPageSize {
		return defaultPageSize
	}
	return c.PageSize
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, headers map[string]string, out interface{}) error {
	fullURL := c.BaseURL + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}

	return withRetry(ctx, c.RetryCount, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
		if err != nil {
			return false, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if c.Signer != nil {
			if err := c.Signer.Sign(req); err != nil {
				return false, err
			}
		}

		if c.Log != nil {
			c.Log.Logf("%s %s\n", method, fullURL)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return true, networkErr(err)
		}
		defer resp.Body.Close()

		if c.Log != nil {
			c.Log.Logf("%s %s -> %d\n", method, fullURL, resp.StatusCode)
		}

		kind, retryable := classifyStatus(resp.StatusCode)
		if kind != 0 {
			return retryable, remoteStatusErr(resp.StatusCode, kind)
		}

		if out == nil {
			return false, nil
		}
		return false, json.NewDecoder(resp.Body).Decode(out)
	})
}

type authUserResponse struct {
	NickName string `json:"NickName"`
}

// WhoAmI identifies the account the current credentials belong to, the
// way the `login` verb discovers which user's root to resolve paths
// against without the caller having to already know their nickname.
func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	var resp authUserResponse
	if err := c.do(ctx, http.MethodGet, "/api/v2!authuser", nil, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.NickName, nil
}

func (c *Client) GetRoot(ctx context.Context, user string) (*RemoteNode, error) {
	var node RemoteNode
	if err := c.do(ctx, http.MethodGet, "/api/v2/user/"+url.PathEscape(user)+"!rooturi", nil, nil, nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

type childPage struct {
	Nodes    []*RemoteNode `json:"Nodes"`
	NextPage int           `json:"NextPage"`
}

// ListChildren paginates node listing the way the teacher's reqDoPage
// paginates Drive's Files.List (src/remote.go): one goroutine, one
// result channel, closed on completion or terminal error.
func (c *Client) ListChildren(ctx context.Context, nodeURI string, typesFilter ...NodeType) <-chan NodeResult {
	out := make(chan NodeResult)

	go func() {
		defer close(out)

		start := 1
		for {
			q := url.Values{}
			q.Set("count", strconv.Itoa(c.pageSize()))
			q.Set("start", strconv.Itoa(start))
			for _, t := range typesFilter {
				q.Add("type", string(t))
			}

			var page childPage
			if err := c.do(ctx, http.MethodGet, nodeURI+"!children", q, nil, nil, &page); err != nil {
				out <- NodeResult{Err: err}
				return
			}

			for _, n := range page.Nodes {
				select {
				case out <- NodeResult{Node: n}:
				case <-ctx.Done():
					out <- NodeResult{Err: canceledErr(ctx.Err())}
					return
				}
			}

			if page.NextPage <= start || len(page.Nodes) == 0 {
				return
			}
			start = page.NextPage
		}
	}()

	return out
}

type createNodeRequest struct {
	Name string   `json:"Name"`
	Type NodeType `json:"Type"`
}

func (c *Client) createNode(ctx context.Context, parentURI, name string, t NodeType) (*RemoteNode, error) {
	payload, err := json.Marshal(createNodeRequest{Name: name, Type: t})
	if err != nil {
		return nil, err
	}

	var node RemoteNode
	headers := map[string]string{"Content-Type": "application/json"}
	if err := c.do(ctx, http.MethodPost, parentURI+"!children", nil, bytes.NewReader(payload), headers, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *Client) CreateFolder(ctx context.Context, parentURI, name string) (*RemoteNode, error) {
	return c.createNode(ctx, parentURI, name, NodeFolder)
}

func (c *Client) CreateAlbum(ctx context.Context, parentURI, name string) (*RemoteNode, error) {
	return c.createNode(ctx, parentURI, name, NodeAlbum)
}

func (c *Client) DeleteNode(ctx context.Context, nodeURI string) error {
	return c.do(ctx, http.MethodDelete, nodeURI, nil, nil, nil, nil)
}

type imagePage struct {
	Images   []*RemoteImage `json:"Images"`
	NextPage int            `json:"NextPage"`
}

func (c *Client) ListAlbumImages(ctx context.Context, albumURI string) <-chan ImageResult {
	out := make(chan ImageResult)

	go func() {
		defer close(out)

		start := 1
		for {
			q := url.Values{}
			q.Set("count", strconv.Itoa(c.pageSize()))
			q.Set("start", strconv.Itoa(start))

			var page imagePage
			if err := c.do(ctx, http.MethodGet, albumURI+"!images", q, nil, nil, &page); err != nil {
				out <- ImageResult{Err: err}
				return
			}

			for _, img := range page.Images {
				select {
				case out <- ImageResult{Image: img}:
				case <-ctx.Done():
					out <- ImageResult{Err: canceledErr(ctx.Err())}
					return
				}
			}

			if page.NextPage <= start || len(page.Images) == 0 {
				return
			}
			start = page.NextPage
		}
	}()

	return out
}

func (c *Client) uploadHeaders(fileName, md5Hex string, size int64, mimeType string) map[string]string {
	h := map[string]string{
		"Content-MD5":    md5Hex,
		"Content-Length": strconv.FormatInt(size, 10),
		"X-Smug-FileName": fileName,
	}
	if mimeType != "" {
		h["Content-Type"] = mimeType
	}
	return h
}

func (c *Client) UploadImage(ctx context.Context, albumURI, fileName string, body io.Reader, size int64, mimeType string, mtime time.Time, md5Hex string) (*RemoteImage, error) {
	headers := c.uploadHeaders(fileName, md5Hex, size, mimeType)
	headers["X-Smug-AlbumUri"] = albumURI

	var img RemoteImage
	if err := c.do(ctx, http.MethodPost, "/api/v2/upload", nil, body, headers, &img); err != nil {
		return nil, err
	}
	img.ModTime = mtime
	return &img, nil
}

func (c *Client) ReplaceImage(ctx context.Context, imageURI string, body io.Reader, size int64, md5Hex string) (*RemoteImage, error) {
	headers := map[string]string{
		"Content-MD5":    md5Hex,
		"Content-Length": strconv.FormatInt(size, 10),
	}

	var img RemoteImage
	if err := c.do(ctx, http.MethodPut, "/api/v2/upload"+imageURI, nil, body, headers, &img); err != nil {
		if nf, ok := err.(*Error); ok && nf.Code() == int(StatusNotFound) {
			return nil, err
		}
		return nil, err
	}
	return &img, nil
}

type changeAlbumRequest struct {
	AlbumURI string `json:"AlbumUri"`
}

func (c *Client) ChangeImageAlbum(ctx context.Context, imageURI, newAlbumURI string) error {
	payload, err := json.Marshal(changeAlbumRequest{AlbumURI: newAlbumURI})
	if err != nil {
		return err
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return c.do(ctx, http.MethodPatch, imageURI, nil, bytes.NewReader(payload), headers, nil)
}

type setKeywordsRequest struct {
	Keywords []string `json:"Keywords"`
}

func (c *Client) SetImageKeywords(ctx context.Context, imageURI string, keywords []string) error {
	payload, err := json.Marshal(setKeywordsRequest{Keywords: keywords})
	if err != nil {
		return err
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return c.do(ctx, http.MethodPatch, imageURI, nil, bytes.NewReader(payload), headers, nil)
}

var _ RemoteClient = (*Client)(nil)

func remoteStatusErr(status int, kind ErrorStatus) error {
	return makeErrorWithStatus(fmt.Sprintf("remote status %d", status), fmt.Errorf("unexpected status %d", status), kind)
}
