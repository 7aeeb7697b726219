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

package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

// columnKind is the inferred physical type of a converted column.
type columnKind int

const (
	kindInt64 columnKind = iota
	kindDouble
	kindString
)

func (k columnKind) node() parquet.Node {
	switch k {
	case kindInt64:
		return parquet.Optional(parquet.Int(64))
	case kindDouble:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	default:
		return parquet.Optional(parquet.String())
	}
}

// ParquetName returns the default conversion target for a CSV filename:
// the same name with a .parquet extension, e.g. "a.csv.gz" -> "a.parquet".
func ParquetName(csvName string) string {
	name := csvName
	if c := compressionExt(name); c != "" {
		name = name[:len(name)-len(c)]
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".parquet"
}

// ConvertCSVToParquet reads the CSV file src from the data directory and
// writes it to dst (also inside the data directory) as snappy-compressed
// Parquet. Column types are inferred per column: int64 when every non-empty
// cell is an integer, double when every non-empty cell is a number, string
// otherwise. Empty cells are written as nulls. The destination is replaced
// atomically. The returned summary describes the written file.
func (s *Summarizer) ConvertCSVToParquet(ctx context.Context, src, dst string) (*Summary, error) {
	const op = "convert"

	if dst == "" {
		dst = ParquetName(src)
	}

	in, err := s.open(ctx, op, src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	r, closeFn, err := decompress(src, in)
	if err != nil {
		return nil, fail(ctx, op, src, ErrParse, err)
	}
	defer closeFn()

	header, records, err := readCSV(ctx, r)
	if err != nil {
		return nil, fail(ctx, op, src, ErrParse, err)
	}

	target, err := resolveInRoot(s.root, dst)
	if err != nil {
		return nil, &FileError{Op: op, Filename: dst, Kind: ErrOutsideDataDir}
	}

	if err := writeParquet(target, header, records); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, &FileError{Op: op, Filename: dst, Kind: ErrPermission, Err: err}
		}
		return nil, fmt.Errorf("%s '%s': %w", op, dst, err)
	}

	s.logger.Info("converted csv to parquet",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Int("rows", len(records)),
		zap.Int("columns", len(header)),
	)
	return &Summary{Format: FormatParquet, Filename: dst, Rows: int64(len(records)), Columns: len(header)}, nil
}

func readCSV(ctx context.Context, r io.Reader) (header []string, records [][]string, err error) {
	cr := newCSVReader(r)

	header, err = cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errNoColumns
	}
	if err != nil {
		return nil, nil, err
	}
	if err := checkRecord(cr, header, -1); err != nil {
		return nil, nil, err
	}

	for {
		if len(records)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return columnNames(header), records, nil
		}
		if err != nil {
			return nil, nil, err
		}
		if err := checkRecord(cr, rec, len(header)); err != nil {
			return nil, nil, err
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}
}

// columnNames fills blank header cells and disambiguates duplicates so every
// column gets a distinct schema field.
func columnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			base := name
			for dup {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				_, dup = seen[name]
			}
			seen[base] = n
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

func inferKinds(width int, records [][]string) []columnKind {
	kinds := make([]columnKind, width)
	for col := range kinds {
		kind := kindInt64
		for _, rec := range records {
			cell := rec[col]
			if cell == "" {
				continue
			}
			if kind == kindInt64 {
				if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
					continue
				}
				kind = kindDouble
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				kind = kindString
				break
			}
		}
		kinds[col] = kind
	}
	return kinds
}

func cellValue(kind columnKind, cell string) parquet.Value {
	if cell == "" {
		return parquet.NullValue()
	}
	switch kind {
	case kindInt64:
		n, _ := strconv.ParseInt(cell, 10, 64)
		return parquet.Int64Value(n)
	case kindDouble:
		f, _ := strconv.ParseFloat(cell, 64)
		return parquet.DoubleValue(f)
	default:
		return parquet.ByteArrayValue([]byte(cell))
	}
}

func writeParquet(path string, header []string, records [][]string) (err error) {
	kinds := inferKinds(len(header), records)

	group := make(parquet.Group, len(header))
	for i, name := range header {
		group[name] = kinds[i].node()
	}
	schema := parquet.NewSchema("schema", group)

	// Group fields are stored in name order; map each CSV column to its leaf.
	leaves := make([]int, len(header))
	for i, name := range header {
		leaf, ok := schema.Lookup(name)
		if !ok {
			return fmt.Errorf("column %q missing from schema", name)
		}
		leaves[i] = leaf.ColumnIndex
	}

	rows := make([]parquet.Row, len(records))
	for r, rec := range records {
		row := make(parquet.Row, len(header))
		for i, cell := range rec {
			def := 1
			if cell == "" {
				def = 0
			}
			row[leaves[i]] = cellValue(kinds[i], cell).Level(0, def, leaves[i])
		}
		rows[r] = row
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".convert-*.parquet")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := parquet.NewWriter(tmp, schema, parquet.Compression(&parquet.Snappy))
	if _, err = w.WriteRows(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
