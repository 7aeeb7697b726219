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

// Package tabular exposes the file summarizer to MCP clients: the summarize
// tools, the data directory as a resource list, and a watcher that tells
// clients when that list changes.
package tabular

import (
	"context"

	"github.com/teradata-labs/tabular-mcp/pkg/mcp/protocol"
	"github.com/teradata-labs/tabular-mcp/pkg/summarize"
	"github.com/teradata-labs/tabular-mcp/pkg/tools/registry"
)

// Tool names.
const (
	ToolSummarizeCSV     = "summarize_csv_file"
	ToolSummarizeParquet = "summarize_parquet_file"
	ToolSummarizeXLSX    = "summarize_xlsx_file"
)

func readOnlyAnnotations(title string) *protocol.ToolAnnotations {
	return &protocol.ToolAnnotations{
		Title:           title,
		ReadOnlyHint:    protocol.Bool(true),
		DestructiveHint: protocol.Bool(false),
		IdempotentHint:  protocol.Bool(true),
		OpenWorldHint:   protocol.Bool(false),
	}
}

func filenameSchema(description string, extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"filename": map[string]interface{}{
			"type":        "string",
			"description": description,
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"required":             []string{"filename"},
		"additionalProperties": false,
	}
}

// Descriptors returns the summarize tool descriptors bound to s, in the
// order they are listed to clients.
func Descriptors(s *summarize.Summarizer) []registry.Descriptor {
	return []registry.Descriptor{
		{
			Name:        ToolSummarizeCSV,
			Description: "Summarize a CSV file by reporting its number of rows and columns. The file is read from the server's data directory and may be gzip (.csv.gz) or zstd (.csv.zst) compressed; the header row is not counted.",
			InputSchema: filenameSchema("Name of the CSV file in the data directory, e.g. 'sample.csv'", nil),
			Annotations: readOnlyAnnotations("Summarize CSV file"),
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				name, err := registry.StringArg(args, "filename")
				if err != nil {
					return "", err
				}
				sum, err := s.SummarizeCSV(ctx, name)
				if err != nil {
					return "", err
				}
				return sum.String(), nil
			},
		},
		{
			Name:        ToolSummarizeParquet,
			Description: "Summarize a Parquet file by reporting its number of rows and columns. The file is read from the server's data directory.",
			InputSchema: filenameSchema("Name of the Parquet file in the data directory, e.g. 'sample.parquet'", nil),
			Annotations: readOnlyAnnotations("Summarize Parquet file"),
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				name, err := registry.StringArg(args, "filename")
				if err != nil {
					return "", err
				}
				sum, err := s.SummarizeParquet(ctx, name)
				if err != nil {
					return "", err
				}
				return sum.String(), nil
			},
		},
		{
			Name:        ToolSummarizeXLSX,
			Description: "Summarize one worksheet of an Excel (.xlsx) workbook by reporting its number of rows and columns. The first row is treated as the header.",
			InputSchema: filenameSchema("Name of the .xlsx file in the data directory", map[string]interface{}{
				"sheet": map[string]interface{}{
					"type":        "string",
					"description": "Worksheet name (default: first sheet)",
				},
			}),
			Annotations: readOnlyAnnotations("Summarize Excel worksheet"),
			Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
				name, err := registry.StringArg(args, "filename")
				if err != nil {
					return "", err
				}
				sheet, err := registry.OptionalStringArg(args, "sheet")
				if err != nil {
					return "", err
				}
				sum, err := s.SummarizeXLSX(ctx, name, sheet)
				if err != nil {
					return "", err
				}
				return sum.String(), nil
			},
		},
	}
}

// Register adds the summarize tools to reg.
func Register(reg *registry.Registry, s *summarize.Summarizer) error {
	for _, d := range Descriptors(s) {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}
