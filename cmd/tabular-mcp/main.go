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


// tabular-mcp is an MCP (Model Context Protocol) server that summarizes CSV,
// Parquet and Excel files from a single data directory.
//
// It speaks JSON-RPC over stdio, so it is launched by an MCP host rather
// than run by hand:
//
//	{
//	  "mcpServers": {
//	    "tabular": {
//	      "command": "/path/to/tabular-mcp",
//	      "args": ["--data-dir", "/path/to/data"]
//	    }
//	  }
//	}
//
// `tabular-mcp host-config` prints that block for the current install.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp(os.Stdin, os.Stdout, os.Stderr)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
