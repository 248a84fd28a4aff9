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
	"fmt"
	"os"
	"strings"

	prettywords "github.com/odeke-em/pretty-words"
)

const helpWrapLimit = 80

// Descriptions is the one-line-per-verb text `smug help` prints,
// wrapped the same way the teacher wraps its own topic descriptions
// (src/help.go's formatText) via odeke-em/pretty-words.
var Descriptions = map[string]string{
	"ls":      "list the children of a Folder or Album path",
	"mkdir":   "create a remote Folder, creating ancestors as needed",
	"mkalbum": "create a remote Album, creating ancestors as needed",
	"rmdir":   "remove a remote Folder",
	"rm":      "remove a remote Album",
	"upload":  "upload local files into a remote Album",
	"sync":    "mirror a local directory tree onto a remote path",
	"ignore":  "add local paths to the ignore list, or list it with no arguments",
	"include": "remove local paths from the ignore list",
	"login":   "authorize smug against the remote host",
	"logout":  "forget locally persisted credentials",
}

// PrintHelp writes every verb's description, word-wrapped to
// helpWrapLimit columns.
func PrintHelp() {
	for _, verb := range []string{"ls", "mkdir", "mkalbum", "rmdir", "rm", "upload", "sync", "ignore", "include", "login", "logout"} {
		fmt.Fprintf(os.Stdout, "%s\n", verb)
		for _, line := range formatText(Descriptions[verb]) {
			fmt.Fprintf(os.Stdout, "\t%s\n", line)
		}
	}
}

func formatText(text string) []string {
	pr := prettywords.PrettyRubric{
		Limit: helpWrapLimit,
		Body:  strings.Split(text, "\n"),
	}
	return pr.Format()
}
