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


// End-to-end tests: a tabular-mcp server wired exactly as the CLI wires it,
// driven over in-memory pipes by a line-oriented JSON-RPC client.
package mcp_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/protocol"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/server"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/transport"
	"github.com/teradata-labs/tabular-mcp/pkg/summarize"
	"github.com/teradata-labs/tabular-mcp/pkg/tools/registry"
	"github.com/teradata-labs/tabular-mcp/pkg/tools/tabular"
	"go.uber.org/zap/zaptest"
)

const sampleCSV = `id,name,email,signup_date
1,Alice,alice@example.com,2024-01-15
2,Bob,bob@example.com,2024-02-20
3,Carol,carol@example.com,2024-03-05
4,Dave,dave@example.com,2024-04-11
5,Eve,eve@example.com,2024-05-30
`

// message is any inbound JSON-RPC frame: a response or a notification.
type message struct {
	ID     *protocol.RequestID `json:"id,omitempty"`
	Method string              `json:"method,omitempty"`
	Result json.RawMessage     `json:"result,omitempty"`
	Error  *protocol.Error     `json:"error,omitempty"`
}

type testClient struct {
	t      *testing.T
	w      io.WriteCloser
	msgs   chan message
	nextID int64
}

// startServer runs a fully wired server over pipes and returns a client.
func startServer(t *testing.T, dataDir string, watch bool) *testClient {
	t.Helper()

	logger := zaptest.NewLogger(t)
	s, err := summarize.New(dataDir, summarize.WithLogger(logger))
	require.NoError(t, err)

	reg := registry.New(logger)
	require.NoError(t, tabular.Register(reg, s))

	srv := server.NewMCPServer("tabular-mcp", "test", logger,
		server.WithToolProvider(reg),
		server.WithResourceProvider(tabular.NewResources(s)),
	)

	clientToServerR, clientToServerW := io.Pipe()
	serverToClientR, serverToClientW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.Serve(ctx, transport.NewStdio(clientToServerR, serverToClientW))
		_ = serverToClientW.Close()
	}()

	if watch {
		w, err := tabular.NewWatcher(s.Root(), srv, tabular.WatcherConfig{
			Debounce: 20 * time.Millisecond,
			Logger:   logger,
		})
		require.NoError(t, err)
		go func() { _ = w.Run(ctx) }()
	}

	c := &testClient{t: t, w: clientToServerW, msgs: make(chan message, 16)}
	go func() {
		defer close(c.msgs)
		scanner := bufio.NewScanner(serverToClientR)
		for scanner.Scan() {
			var m message
			if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
				t.Errorf("server wrote invalid JSON %q: %v", scanner.Text(), err)
				return
			}
			c.msgs <- m
		}
	}()

	t.Cleanup(func() {
		defer cancel()
		_ = clientToServerW.Close()
		select {
		case err := <-serveErr:
			assert.NoError(t, err, "Serve should return nil when the client hangs up")
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after stdin closed")
		}
	})
	return c
}

func (c *testClient) send(method string, params interface{}) int64 {
	c.t.Helper()
	c.nextID++
	req := map[string]interface{}{"jsonrpc": "2.0", "id": c.nextID, "method": method}
	if params != nil {
		req["params"] = params
	}
	line, err := json.Marshal(req)
	require.NoError(c.t, err)
	_, err = c.w.Write(append(line, '\n'))
	require.NoError(c.t, err)
	return c.nextID
}

// next returns the next frame, failing the test after a timeout.
func (c *testClient) next() message {
	c.t.Helper()
	select {
	case m, ok := <-c.msgs:
		require.True(c.t, ok, "server closed the stream")
		return m
	case <-time.After(5 * time.Second):
		c.t.Fatal("timed out waiting for server message")
		return message{}
	}
}

// call sends a request and decodes the matching response into out.
func (c *testClient) call(method string, params, out interface{}) *protocol.Error {
	c.t.Helper()
	id := c.send(method, params)
	for {
		m := c.next()
		if m.ID == nil {
			continue // notification
		}
		require.Equal(c.t, protocol.NewNumericRequestID(id).String(), m.ID.String())
		if m.Error != nil {
			return m.Error
		}
		if out != nil {
			require.NoError(c.t, json.Unmarshal(m.Result, out))
		}
		return nil
	}
}

func (c *testClient) initialize() protocol.InitializeResult {
	c.t.Helper()
	var res protocol.InitializeResult
	require.Nil(c.t, c.call(protocol.MethodInitialize, protocol.InitializeParams{
		ProtocolVersion: protocol.ProtocolVersion,
		ClientInfo:      protocol.Implementation{Name: "integration-test", Version: "0.1.0"},
	}, &res))
	return res
}

func newDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.csv"), []byte(sampleCSV), 0o644))
	return dir
}

func TestIntegration_InitializeAndListTools(t *testing.T) {
	c := startServer(t, newDataDir(t), false)

	res := c.initialize()
	assert.Equal(t, protocol.ProtocolVersion, res.ProtocolVersion)
	assert.Equal(t, "tabular-mcp", res.ServerInfo.Name)
	require.NotNil(t, res.Capabilities.Tools)
	require.NotNil(t, res.Capabilities.Resources)
	assert.True(t, res.Capabilities.Resources.ListChanged)

	var tools protocol.ToolListResult
	require.Nil(t, c.call(protocol.MethodToolsList, nil, &tools))
	names := make([]string, len(tools.Tools))
	for i, tool := range tools.Tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"summarize_csv_file", "summarize_parquet_file", "summarize_xlsx_file"}, names)
}

func TestIntegration_SummarizeCSVAndParquet(t *testing.T) {
	dir := newDataDir(t)

	s, err := summarize.New(dir)
	require.NoError(t, err)
	_, err = s.ConvertCSVToParquet(context.Background(), "sample.csv", "")
	require.NoError(t, err)

	c := startServer(t, dir, false)
	c.initialize()

	tests := []struct {
		tool     string
		filename string
		want     string
	}{
		{"summarize_csv_file", "sample.csv", "CSV file 'sample.csv' has 5 rows and 4 columns."},
		{"summarize_parquet_file", "sample.parquet", "Parquet file 'sample.parquet' has 5 rows and 4 columns."},
	}
	for _, tt := range tests {
		var res protocol.CallToolResult
		rpcErr := c.call(protocol.MethodToolsCall, protocol.CallToolParams{
			Name:      tt.tool,
			Arguments: map[string]interface{}{"filename": tt.filename},
		}, &res)
		require.Nil(t, rpcErr)
		require.Len(t, res.Content, 1)
		assert.False(t, res.IsError)
		assert.Equal(t, tt.want, res.Content[0].Text)
	}
}

func TestIntegration_ToolErrors(t *testing.T) {
	c := startServer(t, newDataDir(t), false)
	c.initialize()

	// Missing file: reported in-band.
	var res protocol.CallToolResult
	require.Nil(t, c.call(protocol.MethodToolsCall, protocol.CallToolParams{
		Name:      "summarize_csv_file",
		Arguments: map[string]interface{}{"filename": "sampl.csv"},
	}, &res))
	assert.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Contains(t, res.Content[0].Text, "file not found")
	assert.Contains(t, res.Content[0].Text, "did you mean 'sample.csv'")

	// CSV handed to the Parquet tool: a format error, never a zero-row summary.
	res = protocol.CallToolResult{}
	require.Nil(t, c.call(protocol.MethodToolsCall, protocol.CallToolParams{
		Name:      "summarize_parquet_file",
		Arguments: map[string]interface{}{"filename": "sample.csv"},
	}, &res))
	assert.True(t, res.IsError)

	// Schema violation and unknown tool: JSON-RPC errors.
	rpcErr := c.call(protocol.MethodToolsCall, protocol.CallToolParams{Name: "summarize_csv_file"}, nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, protocol.InvalidParams, rpcErr.Code)

	rpcErr = c.call(protocol.MethodToolsCall, protocol.CallToolParams{Name: "drop_table"}, nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, protocol.InvalidParams, rpcErr.Code)
}

func TestIntegration_Resources(t *testing.T) {
	c := startServer(t, newDataDir(t), false)
	c.initialize()

	var list protocol.ResourceListResult
	require.Nil(t, c.call(protocol.MethodResourcesList, nil, &list))
	require.Len(t, list.Resources, 1)
	assert.Equal(t, "tabular:///sample.csv", list.Resources[0].URI)

	var read protocol.ReadResourceResult
	require.Nil(t, c.call(protocol.MethodResourcesRead, protocol.ReadResourceParams{URI: "tabular:///sample.csv"}, &read))
	require.Len(t, read.Contents, 1)
	assert.Equal(t, "CSV file 'sample.csv' has 5 rows and 4 columns.", read.Contents[0].Text)

	rpcErr := c.call(protocol.MethodResourcesRead, protocol.ReadResourceParams{URI: "tabular:///gone.csv"}, nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, protocol.ResourceNotFound, rpcErr.Code)
}

func TestIntegration_ResourceListChanged(t *testing.T) {
	dir := newDataDir(t)
	c := startServer(t, dir, true)
	c.initialize()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "more.csv"), []byte("a,b\n1,2\n"), 0o644))

	for {
		m := c.next()
		if m.Method == protocol.MethodResourceListChanged {
			break
		}
	}

	var list protocol.ResourceListResult
	require.Nil(t, c.call(protocol.MethodResourcesList, nil, &list))
	assert.Len(t, list.Resources, 2)
}
