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
	"io"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teradata-labs/tabular-mcp/internal/version"
	"github.com/teradata-labs/tabular-mcp/pkg/config"
)

// app carries the streams and resolved configuration shared by every command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, v: viper.New()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tabular-mcp",
		Short: "MCP server that summarizes CSV, Parquet and Excel files",
		Long: heredoc.Doc(`
			tabular-mcp exposes row and column counts for the tabular files in one
			data directory as MCP tools. With no subcommand it serves MCP over
			stdin/stdout until stdin closes or it receives SIGINT or SIGTERM.

			Tools:
			  summarize_csv_file      rows and columns of a CSV file
			  summarize_parquet_file  rows and columns of a Parquet file
			  summarize_xlsx_file     rows and columns of an Excel worksheet

			Configuration is read from flags, TABULAR_* environment variables and
			tabular-mcp.yaml, in that order of priority.
		`),
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		RunE: a.runServe,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./tabular-mcp.yaml)")
	flags.String("data-dir", "", "directory tabular files are read from (default: $TABULAR_DATA_DIR or ./data)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "log file path (default: stderr; never stdout)")
	flags.Bool("watch", true, "notify clients when files in the data directory change")
	flags.String("server-name", "tabular-mcp", "server name reported to MCP clients")

	_ = a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.file", flags.Lookup("log-file"))
	_ = a.v.BindPFlag("watch", flags.Lookup("watch"))
	_ = a.v.BindPFlag("server_name", flags.Lookup("server-name"))

	root.AddCommand(
		newSummarizeCmd(a),
		newConvertCmd(a),
		newToolsCmd(a),
		newHostConfigCmd(a),
	)
	return root
}
