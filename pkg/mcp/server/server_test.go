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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/protocol"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/transport"
	"go.uber.org/zap/zaptest"
)

type fakeTools struct {
	tools []protocol.Tool
	err   error
	calls []string
}

func (f *fakeTools) ListTools(context.Context) ([]protocol.Tool, error) {
	return f.tools, nil
}

func (f *fakeTools) CallTool(_ context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{protocol.TextContent("called " + name + " with " + args["filename"].(string))},
	}, nil
}

type fakeResources struct{}

func (fakeResources) ListResources(context.Context) ([]protocol.Resource, error) {
	return []protocol.Resource{{URI: "tabular:///sample.csv", Name: "sample.csv"}}, nil
}

func (fakeResources) ReadResource(_ context.Context, uri string) (*protocol.ReadResourceResult, error) {
	if uri != "tabular:///sample.csv" {
		return nil, errors.New("unknown resource")
	}
	return &protocol.ReadResourceResult{
		Contents: []protocol.ResourceContents{{URI: uri, MimeType: "text/plain", Text: "summary"}},
	}, nil
}

func call(t *testing.T, s *MCPServer, id int64, method string, params interface{}) protocol.Response {
	t.Helper()

	req := protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      protocol.NewNumericRequestID(id),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		req.Params = raw
	}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	respBytes, err := s.HandleMessage(context.Background(), reqBytes)
	require.NoError(t, err)
	require.NotNil(t, respBytes)

	var resp protocol.Response
	require.NoError(t, json.Unmarshal(respBytes, &resp))
	return resp
}

func TestNewMCPServer_BuiltinHandlers(t *testing.T) {
	s := NewMCPServer("test-server", "1.0.0", zaptest.NewLogger(t))

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Contains(t, s.handlers, protocol.MethodInitialize)
	assert.Contains(t, s.handlers, protocol.MethodInitialized)
	assert.Contains(t, s.handlers, protocol.MethodPing)
	assert.NotContains(t, s.handlers, protocol.MethodToolsCall)
}

func TestNewMCPServer_NilLogger(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", nil)
	require.NotNil(t, s.logger)
}

func TestMCPServer_Initialize(t *testing.T) {
	s := NewMCPServer("tabular", "1.2.3", zaptest.NewLogger(t),
		WithToolProvider(&fakeTools{}),
		WithResourceProvider(fakeResources{}),
		WithInstructions("use the summarize tools"),
	)

	resp := call(t, s, 1, protocol.MethodInitialize, protocol.InitializeParams{
		ProtocolVersion: protocol.ProtocolVersion,
		ClientInfo:      protocol.Implementation{Name: "desktop", Version: "0.9"},
	})
	require.Nil(t, resp.Error)

	var result protocol.InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, protocol.ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "tabular", result.ServerInfo.Name)
	assert.Equal(t, "1.2.3", result.ServerInfo.Version)
	assert.Equal(t, "use the summarize tools", result.Instructions)
	assert.NotNil(t, result.Capabilities.Tools)
	require.NotNil(t, result.Capabilities.Resources)
	assert.True(t, result.Capabilities.Resources.ListChanged)

	require.NotNil(t, s.ClientInfo())
	assert.Equal(t, "desktop", s.ClientInfo().Name)
}

func TestMCPServer_InitializeBadParams(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t))

	resp := call(t, s, 1, protocol.MethodInitialize, "not-an-object")
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
}

func TestMCPServer_Ping(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t))

	resp := call(t, s, 1, protocol.MethodPing, nil)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `{}`, string(resp.Result))
}

func TestMCPServer_NotificationHasNoResponse(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t))

	for _, method := range []string{protocol.MethodInitialized, "notifications/unknown"} {
		resp, err := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"`+method+`"}`))
		require.NoError(t, err)
		assert.Nil(t, resp, method)
	}
}

func TestMCPServer_Errors(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t))

	tests := []struct {
		name string
		msg  string
		code int
	}{
		{name: "invalid json", msg: `{not json`, code: protocol.ParseError},
		{name: "wrong version", msg: `{"jsonrpc":"1.0","id":1,"method":"ping"}`, code: protocol.InvalidRequest},
		{name: "missing method", msg: `{"jsonrpc":"2.0","id":1}`, code: protocol.InvalidRequest},
		{name: "unknown method", msg: `{"jsonrpc":"2.0","id":1,"method":"nope"}`, code: protocol.MethodNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			respBytes, err := s.HandleMessage(context.Background(), []byte(tt.msg))
			require.NoError(t, err)

			var resp protocol.Response
			require.NoError(t, json.Unmarshal(respBytes, &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestMCPServer_ToolsList(t *testing.T) {
	tools := &fakeTools{tools: []protocol.Tool{{Name: "a"}, {Name: "b"}}}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(tools))

	resp := call(t, s, 1, protocol.MethodToolsList, nil)
	require.Nil(t, resp.Error)

	var result protocol.ToolListResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 2)
	assert.Equal(t, "a", result.Tools[0].Name)
	assert.Equal(t, "b", result.Tools[1].Name)
}

func TestMCPServer_ToolsListEmptyIsArray(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(&fakeTools{}))

	resp := call(t, s, 1, protocol.MethodToolsList, nil)
	assert.JSONEq(t, `{"tools":[]}`, string(resp.Result))
}

func TestMCPServer_ToolsCall(t *testing.T) {
	tools := &fakeTools{}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(tools))

	resp := call(t, s, 1, protocol.MethodToolsCall, protocol.CallToolParams{
		Name:      "summarize_csv_file",
		Arguments: map[string]interface{}{"filename": "sample.csv"},
	})
	require.Nil(t, resp.Error)

	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "called summarize_csv_file with sample.csv", result.Content[0].Text)
	assert.Equal(t, []string{"summarize_csv_file"}, tools.calls)
}

func TestMCPServer_ToolsCallFailureIsInBand(t *testing.T) {
	tools := &fakeTools{err: errors.New("file 'x.csv' not found")}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(tools))

	resp := call(t, s, 1, protocol.MethodToolsCall, protocol.CallToolParams{
		Name:      "summarize_csv_file",
		Arguments: map[string]interface{}{"filename": "x.csv"},
	})
	require.Nil(t, resp.Error)

	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	assert.Equal(t, "file 'x.csv' not found", result.Content[0].Text)
}

func TestMCPServer_ToolsCallProtocolErrorKeepsCode(t *testing.T) {
	tools := &fakeTools{err: protocol.NewError(protocol.InvalidParams, "unknown tool: nope", nil)}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(tools))

	resp := call(t, s, 1, protocol.MethodToolsCall, protocol.CallToolParams{Name: "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
	assert.Equal(t, "unknown tool: nope", resp.Error.Message)
}

func TestMCPServer_ToolsCallMissingName(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(&fakeTools{}))

	resp := call(t, s, 1, protocol.MethodToolsCall, map[string]interface{}{"arguments": map[string]interface{}{}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
}

func TestMCPServer_Resources(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithResourceProvider(fakeResources{}))

	resp := call(t, s, 1, protocol.MethodResourcesList, nil)
	require.Nil(t, resp.Error)
	var list protocol.ResourceListResult
	require.NoError(t, json.Unmarshal(resp.Result, &list))
	require.Len(t, list.Resources, 1)

	resp = call(t, s, 2, protocol.MethodResourcesRead, protocol.ReadResourceParams{URI: "tabular:///sample.csv"})
	require.Nil(t, resp.Error)
	var read protocol.ReadResourceResult
	require.NoError(t, json.Unmarshal(resp.Result, &read))
	assert.Equal(t, "summary", read.Contents[0].Text)

	resp = call(t, s, 3, protocol.MethodResourcesRead, protocol.ReadResourceParams{URI: "tabular:///missing.csv"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InternalError, resp.Error.Code)

	resp = call(t, s, 4, protocol.MethodResourcesRead, protocol.ReadResourceParams{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
}

// syncBuffer is a goroutine-safe writer for capturing transport output.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := strings.TrimSuffix(b.sb.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestMCPServer_ServeUntilEOF(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t))

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\n") + "\n"

	out := &syncBuffer{}
	err := s.Serve(context.Background(), transport.NewStdio(strings.NewReader(input), out))
	require.NoError(t, err)

	lines := out.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":1`)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":2,"result":{}}`, lines[1])
}

func TestMCPServer_ServeContextCancelled(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t))

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, transport.NewStdio(pr, io.Discard))
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestMCPServer_ServeSendsNotifications(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithResourceProvider(fakeResources{}))

	pr, pw := io.Pipe()
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() {
		done <- s.Serve(context.Background(), transport.NewStdio(pr, out))
	}()

	s.NotifyResourceListChanged()

	require.Eventually(t, func() bool {
		return len(out.Lines()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"notifications/resources/list_changed"}`, out.Lines()[0])

	pw.Close()
	assert.NoError(t, <-done)
}

func TestMCPServer_NotifyNeverBlocks(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t))

	for i := 0; i < cap(s.notifyCh)+5; i++ {
		s.NotifyResourceListChanged()
	}
	assert.Len(t, s.notifyCh, cap(s.notifyCh))
}
