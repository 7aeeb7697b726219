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


package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/teradata-labs/tabular-mcp/pkg/summarize"
	"github.com/teradata-labs/tabular-mcp/pkg/tools/registry"
	"github.com/teradata-labs/tabular-mcp/pkg/tools/tabular"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newSummarizeCmd(a *app) *cobra.Command {
	var (
		format string
		sheet  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Print the row and column counts of a data file",
		Long: heredoc.Doc(`
			Summarize a file from the data directory the same way the MCP tools do.
			The format is taken from the file extension unless --format is given.
		`),
		Example: heredoc.Doc(`
			tabular-mcp summarize sample.csv
			tabular-mcp summarize --format parquet export.bin
			tabular-mcp summarize --sheet Q3 report.xlsx --json
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(a.cfg.Logging.File, a.cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			s, err := summarize.New(a.cfg.DataDir, summarize.WithLogger(logger))
			if err != nil {
				return err
			}

			var sum *summarize.Summary
			switch {
			case sheet != "":
				sum, err = s.SummarizeXLSX(cmd.Context(), args[0], sheet)
			case format != "":
				f, perr := summarize.ParseFormat(format)
				if perr != nil {
					return perr
				}
				sum, err = s.Summarize(cmd.Context(), f, args[0])
			default:
				sum, err = s.SummarizeFile(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sum.String())
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "file format (csv, parquet, xlsx); default: from extension")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet to summarize (xlsx only)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <src.csv> [dst.parquet]",
		Short: "Convert a CSV file in the data directory to Parquet",
		Long: heredoc.Doc(`
			Write a snappy-compressed Parquet copy of a CSV file. Column types are
			inferred (int64, double or string) and empty cells become nulls. The
			destination defaults to the source name with a .parquet extension and
			must stay inside the data directory.
		`),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(a.cfg.Logging.File, a.cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			s, err := summarize.New(a.cfg.DataDir, summarize.WithLogger(logger))
			if err != nil {
				return err
			}

			dst := ""
			if len(args) == 2 {
				dst = args[1]
			}
			sum, err := s.ConvertCSVToParquet(cmd.Context(), args[0], dst)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", sum)
			return err
		},
	}
}

func newToolsCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools this server registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Handlers are never invoked here, so no summarizer is needed.
			reg := registry.New(zap.NewNop())
			if err := tabular.Register(reg, nil); err != nil {
				return err
			}
			tools, err := reg.ListTools(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tools)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(tools); err != nil {
					return err
				}
				return enc.Close()
			case "text":
				for _, t := range tools {
					if _, err := fmt.Fprintf(out, "%-24s %s\n", t.Name, t.Annotations.Title); err != nil {
						return err
					}
				}
				return nil
			default:
				return fmt.Errorf("unsupported output %q (want text, json or yaml)", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, yaml)")
	return cmd
}

// hostConfig is the mcpServers block MCP hosts use to launch a server.
type hostConfig struct {
	MCPServers map[string]hostServer `json:"mcpServers"`
}

type hostServer struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Cwd     string   `json:"cwd,omitempty"`
}

func newHostConfigCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "host-config",
		Short: "Print the MCP host configuration for this install",
		Long: heredoc.Doc(`
			Print the JSON block an MCP host (for example a desktop assistant's
			config file) needs to launch this server against the configured data
			directory.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate executable: %w", err)
			}
			if resolved, err := filepath.EvalSymlinks(exe); err == nil {
				exe = resolved
			}

			hc := hostConfig{MCPServers: map[string]hostServer{
				name: {
					Command: exe,
					Args:    []string{"--data-dir", a.cfg.DataDir},
					Cwd:     a.cfg.DataDir,
				},
			}}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(hc)
		},
	}

	cmd.Flags().StringVar(&name, "name", "tabular", "server key under mcpServers")
	return cmd
}
