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
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// SummarizeXLSX counts the data rows (first row is the header) and columns
// of one worksheet. An empty sheet name selects the first sheet. The column
// count is the width of the widest row.
func (s *Summarizer) SummarizeXLSX(ctx context.Context, filename, sheet string) (*Summary, error) {
	const op = "summarize xlsx"

	f, err := s.open(ctx, op, filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, cols, err := countXLSX(f, sheet)
	if err != nil {
		return nil, fail(ctx, op, filename, ErrFormat, err)
	}

	s.logger.Debug("summarized xlsx",
		zap.String("filename", filename),
		zap.String("sheet", sheet),
		zap.Int64("rows", rows),
		zap.Int("columns", cols),
	)
	return &Summary{Format: FormatXLSX, Filename: filename, Rows: rows, Columns: cols}, nil
}

func countXLSX(r io.Reader, sheet string) (rows int64, cols int, err error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return 0, 0, err
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return 0, 0, fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return 0, 0, fmt.Errorf("sheet %q not found (available: %v)", sheet, sheets)
	}

	grid, err := book.GetRows(sheet)
	if err != nil {
		return 0, 0, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(grid) == 0 {
		return 0, 0, nil
	}

	for _, row := range grid {
		cols = max(cols, len(row))
	}
	return int64(len(grid) - 1), cols, nil
}
