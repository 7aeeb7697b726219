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

// Package summarize loads tabular files from a single data directory and
// reports their row and column counts.
package summarize

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies how a tabular file is encoded.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatParquet
	FormatXLSX
)

// String returns the display name used in summaries.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatParquet:
		return "Parquet"
	case FormatXLSX:
		return "XLSX"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the format by its display name.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatCSV, FormatParquet, FormatXLSX}
}

// ParseFormat maps a user-facing name ("csv", "parquet", "xlsx") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "parquet", "pq":
		return FormatParquet, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return FormatUnknown, fmt.Errorf("unsupported format %q (supported: csv, parquet, xlsx)", name)
	}
}

// csvCompressionExts are the compression suffixes accepted after .csv.
var csvCompressionExts = []string{".gz", ".zst"}

// compressionExt returns the compression suffix of filename, or "".
func compressionExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, c := range csvCompressionExts {
		if ext == c {
			return c
		}
	}
	return ""
}

// DetectFormat infers the format from a filename extension. CSV files may
// carry a trailing .gz or .zst.
func DetectFormat(filename string) (Format, bool) {
	if c := compressionExt(filename); c != "" {
		base := filename[:len(filename)-len(c)]
		if strings.EqualFold(filepath.Ext(base), ".csv") {
			return FormatCSV, true
		}
		return FormatUnknown, false
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, true
	case ".parquet", ".pq":
		return FormatParquet, true
	case ".xlsx":
		return FormatXLSX, true
	default:
		return FormatUnknown, false
	}
}

// Summary is the outcome of one summarize call. Filename is the name the
// caller asked for, not the resolved path.
type Summary struct {
	Format   Format `json:"format"`
	Filename string `json:"filename"`
	Rows     int64  `json:"rows"`
	Columns  int    `json:"columns"`
}

// String renders the summary sentence returned to tool callers, e.g.
// "CSV file 'sample.csv' has 5 rows and 4 columns."
func (s Summary) String() string {
	return fmt.Sprintf("%s file '%s' has %d rows and %d columns.", s.Format, s.Filename, s.Rows, s.Columns)
}
