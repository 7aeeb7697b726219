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


// Package config loads tabular-mcp settings from flags, environment, an
// optional YAML file and defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirEnv overrides the default data directory.
const DataDirEnv = "TABULAR_DATA_DIR"

// GetDataDir returns the default data directory: TABULAR_DATA_DIR when set,
// otherwise ./data. The result is absolute and ~ is expanded.
//
//	TABULAR_DATA_DIR=/srv/tables   -> /srv/tables
//	TABULAR_DATA_DIR=~/tables      -> /home/user/tables
//	TABULAR_DATA_DIR not set       -> $PWD/data
func GetDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return ExpandPath(dir)
	}
	return ExpandPath("data")
}

// ExpandPath expands a leading ~ and makes path absolute. On failure the
// input is returned unchanged.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
