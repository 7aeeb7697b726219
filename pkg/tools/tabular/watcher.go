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


package tabular

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teradata-labs/tabular-mcp/pkg/summarize"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts of filesystem events into one notification.
const DefaultDebounce = 250 * time.Millisecond

// Notifier receives a call whenever the set of data files changes.
// *server.MCPServer satisfies it.
type Notifier interface {
	NotifyResourceListChanged()
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Debounce time.Duration // default: DefaultDebounce
	Logger   *zap.Logger
}

// Watcher notifies clients when tabular files appear in, disappear from, or
// change inside the data directory.
type Watcher struct {
	dir      string
	notifier Notifier
	debounce time.Duration
	logger   *zap.Logger
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching dir. Call Run to deliver notifications and
// Close (or cancel Run's context) to stop.
func NewWatcher(dir string, notifier Notifier, cfg WatcherConfig) (*Watcher, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch data directory: %w", err)
	}

	return &Watcher{
		dir:      dir,
		notifier: notifier,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
		fsw:      fsw,
	}, nil
}

// Run processes filesystem events until ctx is cancelled or the watcher is
// closed. It always returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.logger.Info("Watching data directory",
		zap.String("dir", w.dir),
		zap.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("data directory event",
				zap.String("file", filepath.Base(event.Name)),
				zap.String("op", event.Op.String()))
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			pending = false
			w.notifier.NotifyResourceListChanged()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

// Close stops the underlying watcher; Run returns shortly after.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// relevant reports whether event can change the resource list. Chmod-only
// events and hidden or unrecognized files are ignored.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	_, ok := summarize.DetectFormat(name)
	return ok
}
