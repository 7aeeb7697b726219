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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ctxCheckInterval is how many records are read between cancellation checks.
const ctxCheckInterval = 4096

var errNoColumns = errors.New("no columns to parse from file")

// SummarizeCSV counts the data rows (header excluded) and columns of a
// comma-delimited file with a header row.
func (s *Summarizer) SummarizeCSV(ctx context.Context, filename string) (*Summary, error) {
	const op = "summarize csv"

	f, err := s.open(ctx, op, filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, closeFn, err := decompress(filename, f)
	if err != nil {
		return nil, fail(ctx, op, filename, ErrParse, err)
	}
	defer closeFn()

	rows, cols, err := countCSV(ctx, r)
	if err != nil {
		return nil, fail(ctx, op, filename, ErrParse, err)
	}

	s.logger.Debug("summarized csv", zap.String("filename", filename), zap.Int64("rows", rows), zap.Int("columns", cols))
	return &Summary{Format: FormatCSV, Filename: filename, Rows: rows, Columns: cols}, nil
}

// decompress wraps r according to the compression suffix of filename. The
// returned func releases decoder resources.
func decompress(filename string, r io.Reader) (io.Reader, func(), error) {
	switch compressionExt(filename) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}

// newCSVReader returns a reader with strict quoting. Record width is checked
// by checkRecord. A leading UTF-8 or UTF-16 BOM is honored.
func newCSVReader(r io.Reader) *csv.Reader {
	decoded := transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	return cr
}

// checkRecord rejects records wider than the header and cells that are not
// valid UTF-8. Short records are accepted; missing trailing cells are null.
func checkRecord(cr *csv.Reader, rec []string, cols int) error {
	line := 0
	if len(rec) > 0 {
		line, _ = cr.FieldPos(0)
	}
	if cols >= 0 && len(rec) > cols {
		return fmt.Errorf("record on line %d: wrong number of fields: %d, header has %d", line, len(rec), cols)
	}
	for i, cell := range rec {
		if !utf8.ValidString(cell) {
			return fmt.Errorf("record on line %d, field %d: invalid UTF-8", line, i+1)
		}
	}
	return nil
}

func countCSV(ctx context.Context, r io.Reader) (rows int64, cols int, err error) {
	cr := newCSVReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, 0, errNoColumns
	}
	if err != nil {
		return 0, 0, err
	}
	if err := checkRecord(cr, header, -1); err != nil {
		return 0, 0, err
	}
	cols = len(header)

	for {
		if rows%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, 0, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, cols, nil
		}
		if err != nil {
			return 0, 0, err
		}
		if err := checkRecord(cr, rec, cols); err != nil {
			return 0, 0, err
		}
		rows++
	}
}
