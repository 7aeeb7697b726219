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
	"fmt"
	"path/filepath"
	"strings"
)

// resolveRoot makes dir absolute and resolves symlinks where possible so
// later containment checks compare like with like.
func resolveRoot(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs(%s): %w", dir, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

// resolveInRoot joins name onto root and returns the absolute path, or
// ErrOutsideDataDir when the result would leave root. Absolute names,
// parent traversal and symlinks pointing outside root are all rejected.
// The leaf does not need to exist.
func resolveInRoot(root, name string) (string, error) {
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: absolute paths are not allowed", ErrOutsideDataDir)
	}

	candidate := filepath.Join(root, filepath.Clean(name))

	// Resolve the whole path if it exists, otherwise its parent, so a
	// symlinked directory cannot smuggle the leaf out of root.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	rel, err := filepath.Rel(root, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ErrOutsideDataDir
	}
	return candidate, nil
}
