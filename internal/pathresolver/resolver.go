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

// Package pathresolver walks "/"-separated remote path strings down the
// user's Folder/Album tree (spec.md §4.1), one listing per segment,
// caching the (user, path_prefix) -> node lookups it makes along the way
// the same way the teacher caches remote directory lookups across a
// single invocation in src/push.go's mkdirAllCache, via
// github.com/odeke-em/cache's OperationCache.
package pathresolver

import (
	"context"
	"errors"
	"strings"
	"sync"

	expirableCache "github.com/odeke-em/cache"

	"github.com/smug-cli/smug/internal/smugapi"
)

// ErrNotFound is returned by Resolve when the path does not exist.
var ErrNotFound = errors.New("pathresolver: not found")

const cacheOffsetSeconds = 3600

func cacheValue(v interface{}) *expirableCache.ExpirableValue {
	return expirableCache.NewExpirableValueWithOffset(v, cacheOffsetSeconds)
}

// Resolver resolves "/"-separated remote paths to nodes for one user,
// memoizing every prefix it walks for the lifetime of the invocation.
type Resolver struct {
	Remote smugapi.RemoteClient
	User   string

	mu    sync.Mutex
	cache *expirableCache.OperationCache
}

// New returns a Resolver for user, backed by remote.
func New(remote smugapi.RemoteClient, user string) *Resolver {
	return &Resolver{
		Remote: remote,
		User:   user,
		cache:  expirableCache.New(),
	}
}

// Split breaks a "/"-separated remote path into its non-empty segments,
// regardless of host OS path separator conventions (spec.md §4.1).
func Split(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Resolve walks path_segments from the user's root, matching each
// segment against a child's Name with a case-sensitive exact match, and
// returns the terminal node or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, segments []string) (*smugapi.RemoteNode, error) {
	node, remaining, err := r.ResolveOrParent(ctx, segments)
	if err != nil {
		return nil, err
	}
	if len(remaining) != 0 {
		return nil, ErrNotFound
	}
	return node, nil
}

// ResolveOrParent walks as far down path_segments as nodes actually
// exist, and returns the deepest existing node along with the segments
// that remain unresolved beneath it — the shape mkdir-style verbs need
// to know where to start creating.
func (r *Resolver) ResolveOrParent(ctx context.Context, segments []string) (*smugapi.RemoteNode, []string, error) {
	root, err := r.nodeAt(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	cur := root
	for i, seg := range segments {
		child, err := r.childNamed(ctx, cur, segments[:i+1], seg)
		if err != nil {
			if err == ErrNotFound {
				return cur, segments[i:], nil
			}
			return nil, nil, err
		}
		cur = child
	}

	return cur, nil, nil
}

// cacheKey identifies a (user, path_prefix) pair. Root is the empty prefix.
func (r *Resolver) cacheKey(prefix []string) string {
	return r.User + "\x00" + strings.Join(prefix, "/")
}

func (r *Resolver) nodeAt(ctx context.Context, prefix []string) (*smugapi.RemoteNode, error) {
	key := r.cacheKey(prefix)

	r.mu.Lock()
	if v, ok := r.cache.Get(key); ok && v != nil {
		if n, ok := v.Value().(*smugapi.RemoteNode); ok && n != nil {
			r.mu.Unlock()
			return n, nil
		}
	}
	r.mu.Unlock()

	if len(prefix) != 0 {
		// nodeAt is only ever called with an empty prefix (the root);
		// deeper prefixes are resolved incrementally by childNamed.
		return nil, ErrNotFound
	}

	root, err := r.Remote.GetRoot(ctx, r.User)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache.Put(key, cacheValue(root))
	r.mu.Unlock()

	return root, nil
}

// childNamed finds the child of parent named seg, consulting the
// within-invocation cache under the full prefix ending in seg before
// falling back to a remote listing.
func (r *Resolver) childNamed(ctx context.Context, parent *smugapi.RemoteNode, prefix []string, seg string) (*smugapi.RemoteNode, error) {
	key := r.cacheKey(prefix)

	r.mu.Lock()
	if v, ok := r.cache.Get(key); ok && v != nil {
		if n, ok := v.Value().(*smugapi.RemoteNode); ok && n != nil {
			r.mu.Unlock()
			return n, nil
		}
	}
	r.mu.Unlock()

	if !parent.IsDir() {
		return nil, ErrNotFound
	}

	for res := range r.Remote.ListChildren(ctx, parent.URI) {
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Node.Name == seg {
			r.mu.Lock()
			r.cache.Put(key, cacheValue(res.Node))
			r.mu.Unlock()
			return res.Node, nil
		}
	}

	return nil, ErrNotFound
}

// Invalidate drops the cached entry for path_segments and for every
// ancestor prefix up to the root, called after a mutation so a later
// lookup within the same invocation does not read a stale resolution.
// Cached entries for paths below path_segments are left in place.
func (r *Resolver) Invalidate(segments []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(segments); i >= 0; i-- {
		r.cache.Remove(r.cacheKey(segments[:i]))
	}
}
