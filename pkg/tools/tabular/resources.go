// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tabular

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/protocol"
	"github.com/teradata-labs/tabular-mcp/pkg/summarize"
)

// URIScheme prefixes data file resource URIs: tabular:///sample.csv
const URIScheme = "tabular"

// ResourceURI returns the resource URI for a data file name.
func ResourceURI(name string) string {
	return (&url.URL{Scheme: URIScheme, Path: "/" + name}).String()
}

// nameFromURI extracts the data file name from a tabular:/// URI.
func nameFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid resource URI %q: %w", uri, err)
	}
	if u.Scheme != URIScheme || u.Host != "" {
		return "", fmt.Errorf("unsupported resource URI %q", uri)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", fmt.Errorf("resource URI %q names no file", uri)
	}
	return name, nil
}

// Resources lists the data directory's tabular files as MCP resources whose
// contents are their summaries. It implements server.ResourceProvider.
type Resources struct {
	summarizer *summarize.Summarizer
}

// NewResources creates a resource provider over s.
func NewResources(s *summarize.Summarizer) *Resources {
	return &Resources{summarizer: s}
}

// ListResources returns one resource per recognized data file.
func (r *Resources) ListResources(_ context.Context) ([]protocol.Resource, error) {
	files, err := r.summarizer.ListFiles()
	if err != nil {
		return nil, err
	}

	resources := make([]protocol.Resource, 0, len(files))
	for _, f := range files {
		resources = append(resources, protocol.Resource{
			URI:         ResourceURI(f.Name),
			Name:        f.Name,
			Description: fmt.Sprintf("%s file, %s", f.Format, humanize.Bytes(uint64(f.Size))),
			MimeType:    "text/plain",
		})
	}
	return resources, nil
}

// ReadResource summarizes the file behind uri.
func (r *Resources) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	name, err := nameFromURI(uri)
	if err != nil {
		return nil, protocol.NewError(protocol.InvalidParams, err.Error(), nil)
	}

	sum, err := r.summarizer.SummarizeFile(ctx, name)
	if err != nil {
		if errors.Is(err, summarize.ErrFileNotFound) || errors.Is(err, summarize.ErrOutsideDataDir) {
			return nil, protocol.NewError(protocol.ResourceNotFound, err.Error(), map[string]string{"uri": uri})
		}
		return nil, err
	}

	return &protocol.ReadResourceResult{
		Contents: []protocol.ResourceContents{
			{URI: uri, MimeType: "text/plain", Text: sum.String()},
		},
	}, nil
}
