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
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/teradata-labs/tabular-mcp/internal/version"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/server"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/transport"
	"github.com/teradata-labs/tabular-mcp/pkg/summarize"
	"github.com/teradata-labs/tabular-mcp/pkg/tools/registry"
	"github.com/teradata-labs/tabular-mcp/pkg/tools/tabular"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serverInstructions = heredoc.Doc(`
	Summarizes tabular files stored in the server's data directory.
	Pass a bare file name such as "sample.csv"; paths outside the data
	directory are rejected. Each tool returns one sentence with the row and
	column counts. resources/list shows which files are available.
`)

// newSummarizer builds the summarizer and tool registry for the loaded config.
func (a *app) newSummarizer(logger *zap.Logger) (*summarize.Summarizer, *registry.Registry, error) {
	s, err := summarize.New(a.cfg.DataDir, summarize.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	reg := registry.New(logger)
	if err := tabular.Register(reg, s); err != nil {
		return nil, nil, err
	}
	return s, reg, nil
}

// runServe serves MCP on the app's stdin and stdout.
func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	logger, err := buildLogger(a.cfg.Logging.File, a.cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s, reg, err := a.newSummarizer(logger)
	if err != nil {
		logger.Error("failed to initialize summarizer", zap.Error(err))
		return err
	}

	logger.Info("starting tabular-mcp server",
		zap.String("version", version.Get()),
		zap.String("data_dir", s.Root()),
		zap.Strings("tools", reg.Names()),
		zap.Bool("watch", a.cfg.Watch))

	mcpServer := server.NewMCPServer(a.cfg.ServerName, version.Get(), logger,
		server.WithToolProvider(reg),
		server.WithResourceProvider(tabular.NewResources(s)),
		server.WithInstructions(serverInstructions),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.Watch {
		w, err := tabular.NewWatcher(s.Root(), mcpServer, tabular.WatcherConfig{Logger: logger})
		if err != nil {
			logger.Warn("data directory watch disabled", zap.Error(err))
		} else {
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	g.Go(func() error {
		// The watcher stops with the serve loop.
		defer stop()
		stdio := transport.NewStdio(a.stdin, a.stdout)
		defer func() { _ = stdio.Close() }()
		err := mcpServer.Serve(gctx, stdio)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
