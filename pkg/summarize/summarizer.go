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
	"io/fs"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

var errEmptyFilename = errors.New("empty filename")

// maxSuggestions caps the "did you mean" list on missing files.
const maxSuggestions = 3

// Summarizer reads tabular files from one data directory. It holds no
// mutable state and is safe for concurrent use.
type Summarizer struct {
	root   string
	logger *zap.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Summarizer rooted at dataDir. The directory must exist.
func New(dataDir string, opts ...Option) (*Summarizer, error) {
	root, err := resolveRoot(dataDir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", root)
	}

	s := &Summarizer{root: root, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute data directory.
func (s *Summarizer) Root() string {
	return s.root
}

// Summarize dispatches to the summarizer for format.
func (s *Summarizer) Summarize(ctx context.Context, format Format, filename string) (*Summary, error) {
	switch format {
	case FormatCSV:
		return s.SummarizeCSV(ctx, filename)
	case FormatParquet:
		return s.SummarizeParquet(ctx, filename)
	case FormatXLSX:
		return s.SummarizeXLSX(ctx, filename, "")
	default:
		return nil, &FileError{Op: "summarize", Filename: filename, Kind: ErrFormat}
	}
}

// SummarizeFile detects the format from the extension and summarizes.
func (s *Summarizer) SummarizeFile(ctx context.Context, filename string) (*Summary, error) {
	format, ok := DetectFormat(filename)
	if !ok {
		return nil, &FileError{Op: "summarize", Filename: filename, Kind: ErrFormat,
			Err: errors.New("unrecognized file extension")}
	}
	return s.Summarize(ctx, format, filename)
}

// resolve maps filename into the data directory and stats it.
func (s *Summarizer) resolve(op, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", &FileError{Op: op, Filename: filename, Kind: ErrFileNotFound, Err: errEmptyFilename}
	}

	path, err := resolveInRoot(s.root, filename)
	if err != nil {
		return "", &FileError{Op: op, Filename: filename, Kind: ErrOutsideDataDir}
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &FileError{Op: op, Filename: filename, Kind: ErrFileNotFound, Suggestions: s.suggest(filename)}
	case errors.Is(err, fs.ErrPermission):
		return "", &FileError{Op: op, Filename: filename, Kind: ErrPermission}
	case err != nil:
		return "", &FileError{Op: op, Filename: filename, Kind: ErrFileNotFound, Err: err}
	case !info.Mode().IsRegular():
		return "", &FileError{Op: op, Filename: filename, Kind: ErrNotAFile}
	}
	return path, nil
}

// open resolves filename and opens it for reading.
func (s *Summarizer) open(ctx context.Context, op, filename string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolve(op, filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 -- path is contained in the data directory
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, &FileError{Op: op, Filename: filename, Kind: ErrPermission}
		}
		return nil, &FileError{Op: op, Filename: filename, Kind: ErrFileNotFound, Err: err}
	}

	s.logger.Debug("opened data file", zap.String("op", op), zap.String("path", path))
	return f, nil
}

// suggest returns up to maxSuggestions data files that fuzzily match name.
func (s *Summarizer) suggest(name string) []string {
	files, err := s.ListFiles()
	if err != nil || len(files) == 0 {
		return nil
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}

	matches := fuzzy.Find(name, names)
	var out []string
	for _, m := range matches {
		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// DataFile is a file with a recognized extension in the data directory.
type DataFile struct {
	Name   string
	Format Format
	Size   int64
}

// ListFiles returns the recognized tabular files directly under the data
// directory in name order. Hidden files are skipped.
func (s *Summarizer) ListFiles() ([]DataFile, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	var files []DataFile
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		format, ok := DetectFormat(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, DataFile{Name: e.Name(), Format: format, Size: info.Size()})
	}
	return files, nil
}

// fail wraps a content error, preferring ctx.Err when the call was cancelled.
func fail(ctx context.Context, op, filename string, kind, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &FileError{Op: op, Filename: filename, Kind: kind, Err: err}
}
