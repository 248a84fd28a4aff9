// Copyright 2016 Google Inc. All Rights Reserved.
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

	"github.com/barasher/go-exiftool"

	"github.com/smug-cli/smug/internal/syncengine"
)

// MetadataProbe is the pluggable collaborator spec.md §1 calls out
// (external to the core engine): given a local file path, return the
// keywords/caption an UploadTask should attach via set_image_keywords.
// It is an alias of the engine's own contract so a probe built here can
// be handed straight to a syncengine.Engine with no adapter.
type MetadataProbe = syncengine.MetadataProbe

// exiftoolProbe is the default MetadataProbe, grounded on
// tupyy-photos-ng's own exiftool.NewExiftool/ExtractMetadata usage
// (internal/services/processing.go) rather than a hand-rolled EXIF
// reader.
type exiftoolProbe struct {
	et *exiftool.Exiftool
}

// NewExiftoolProbe starts one long-lived exiftool subprocess, reused
// across every file it probes.
func NewExiftoolProbe() (MetadataProbe, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("metadata: failed to start exiftool: %w", err)
	}
	return &exiftoolProbe{et: et}, nil
}

func (p *exiftoolProbe) Close() error {
	p.et.Close()
	return nil
}

var keywordFields = []string{"Keywords", "Subject"}
var captionFields = []string{"Description", "ImageDescription"}

func (p *exiftoolProbe) Probe(localPath string) ([]string, string, error) {
	infos := p.et.ExtractMetadata(localPath)
	if len(infos) == 0 {
		return nil, "", nil
	}

	info := infos[0]
	if info.Err != nil {
		return nil, "", info.Err
	}

	var keywords []string
	for _, field := range keywordFields {
		if s, ok := stringField(info.Fields, field); ok {
			keywords = append(keywords, s)
		}
	}

	var caption string
	for _, field := range captionFields {
		if s, ok := stringField(info.Fields, field); ok {
			caption = s
			break
		}
	}

	return keywords, caption, nil
}

func stringField(fields map[string]interface{}, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
