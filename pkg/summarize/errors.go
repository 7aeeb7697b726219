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
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is on any error returned by this package.
var (
	ErrFileNotFound   = errors.New("file not found in data directory")
	ErrParse          = errors.New("cannot parse file")
	ErrFormat         = errors.New("invalid or unsupported file format")
	ErrPermission     = errors.New("permission denied")
	ErrOutsideDataDir = errors.New("path resolves outside the data directory")
	ErrNotAFile       = errors.New("not a regular file")
)

// FileError reports a failed operation on a named file.
type FileError struct {
	Op       string // "summarize csv", "convert", ...
	Filename string // as requested by the caller
	Kind     error  // one of the Err* kinds
	Err      error  // underlying cause, may be nil

	// Suggestions are nearby filenames offered when the file is missing.
	Suggestions []string
}

func (e *FileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s '%s': %v", e.Op, e.Filename, e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean '%s'?)", strings.Join(e.Suggestions, "', '"))
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
