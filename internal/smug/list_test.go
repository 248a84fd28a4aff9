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

package smug

import (
	"context"
	"testing"

	"github.com/smug-cli/smug/config"
	"github.com/smug-cli/smug/internal/smugapi"
)

func TestLsListsRootChildrenByDefault(t *testing.T) {
	remote := newFakeRemote()
	remote.children["/root"] = []*smugapi.RemoteNode{
		{URI: "/root/vacations", Name: "vacations", Type: smugapi.NodeFolder},
	}

	cmds := newTestCommands(remote, &Options{})
	cmds.Context = &config.Context{}

	if err := cmds.Ls(context.Background()); err != nil {
		t.Fatalf("Ls: %v", err)
	}
}

func TestLsOnAPathResolvesThenLists(t *testing.T) {
	remote := newFakeRemote()
	remote.children["/root"] = []*smugapi.RemoteNode{
		{URI: "/root/vacations", Name: "vacations", Type: smugapi.NodeFolder},
	}
	remote.children["/root/vacations"] = []*smugapi.RemoteNode{
		{URI: "/root/vacations/hawaii", Name: "hawaii", Type: smugapi.NodeAlbum},
	}

	cmds := newTestCommands(remote, &Options{Sources: []string{"/vacations"}, Long: true})
	cmds.Context = &config.Context{}

	if err := cmds.Ls(context.Background()); err != nil {
		t.Fatalf("Ls: %v", err)
	}
}

func TestLsOnAnAlbumPrintsItself(t *testing.T) {
	remote := newFakeRemote()
	remote.children["/root"] = []*smugapi.RemoteNode{
		{URI: "/root/hawaii", Name: "hawaii", Type: smugapi.NodeAlbum},
	}

	cmds := newTestCommands(remote, &Options{Sources: []string{"/hawaii"}})
	cmds.Context = &config.Context{}

	if err := cmds.Ls(context.Background()); err != nil {
		t.Fatalf("Ls: %v", err)
	}
}

func TestLsOnMissingPathLogsAndContinues(t *testing.T) {
	remote := newFakeRemote()
	cmds := newTestCommands(remote, &Options{Sources: []string{"/nowhere"}})
	cmds.Context = &config.Context{}

	if err := cmds.Ls(context.Background()); err != nil {
		t.Fatalf("Ls should not propagate a per-path resolve error: %v", err)
	}
}
