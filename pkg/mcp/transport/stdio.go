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

package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// maxLineSize sizes the read buffer; longer lines are still accepted.
const maxLineSize = 1024 * 1024

type readResult struct {
	data []byte
	err  error
}

// Stdio is the server side of the MCP stdio transport: one JSON message per
// line, read from r (usually os.Stdin) and written to w (usually os.Stdout).
//
// A single reader goroutine is started on the first Receive and lives until
// r returns an error, so cancelling a Receive never strands a goroutine.
type Stdio struct {
	reader *bufio.Reader
	writer io.Writer

	mu     sync.Mutex // guards writer and closed
	closed bool

	readCh chan readResult
	once   sync.Once
}

// NewStdio creates a stdio transport over r and w.
func NewStdio(r io.Reader, w io.Writer) *Stdio {
	return &Stdio{
		reader: bufio.NewReaderSize(r, maxLineSize),
		writer: w,
		readCh: make(chan readResult, 1),
	}
}

func (t *Stdio) startReader() {
	t.once.Do(func() {
		go func() {
			defer close(t.readCh)
			for {
				line, err := t.reader.ReadBytes('\n')
				if len(line) > 0 && err != nil {
					// Final line without a trailing newline.
					t.readCh <- readResult{data: line}
				}
				if err != nil {
					t.readCh <- readResult{err: err}
					return
				}
				t.readCh <- readResult{data: line}
			}
		}()
	})
}

// Send writes message followed by a newline. Concurrent sends are serialized.
func (t *Stdio) Send(_ context.Context, message []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}

	buf := make([]byte, 0, len(message)+1)
	buf = append(buf, message...)
	buf = append(buf, '\n')
	if _, err := t.writer.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Receive blocks for the next non-empty line, ctx cancellation, or EOF.
func (t *Stdio) Receive(ctx context.Context) ([]byte, error) {
	t.startReader()

	for {
		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-t.readCh:
			if !ok {
				return nil, io.EOF
			}
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return nil, io.EOF
				}
				return nil, fmt.Errorf("read message: %w", res.err)
			}
			line := bytes.TrimRight(res.data, "\r\n")
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			return line, nil
		}
	}
}

// Close marks the transport closed. The underlying reader and writer are
// left open; they belong to the process.
func (t *Stdio) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
