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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/teradata-labs/tabular-mcp/pkg/mcp/protocol"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/transport"
	"go.uber.org/zap"
)

// MethodHandler processes the params of one JSON-RPC method. A returned
// *protocol.Error keeps its code on the wire.
type MethodHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// MCPServer dispatches JSON-RPC messages to registered method handlers.
type MCPServer struct {
	info         protocol.Implementation
	instructions string
	capabilities protocol.ServerCapabilities
	logger       *zap.Logger

	mu         sync.RWMutex
	handlers   map[string]MethodHandler
	clientInfo *protocol.Implementation

	notifyCh chan []byte
}

// Option configures an MCPServer.
type Option func(*MCPServer)

// WithToolProvider serves tools/list and tools/call from p.
func WithToolProvider(p ToolProvider) Option {
	return func(s *MCPServer) {
		s.capabilities.Tools = &protocol.ToolsCapability{}
		s.handlers[protocol.MethodToolsList] = newToolsListHandler(p)
		s.handlers[protocol.MethodToolsCall] = newToolsCallHandler(p)
	}
}

// WithResourceProvider serves resources/list and resources/read from p and
// advertises list change notifications.
func WithResourceProvider(p ResourceProvider) Option {
	return func(s *MCPServer) {
		s.capabilities.Resources = &protocol.ResourcesCapability{ListChanged: true}
		s.handlers[protocol.MethodResourcesList] = newResourcesListHandler(p)
		s.handlers[protocol.MethodResourcesRead] = newResourcesReadHandler(p)
	}
}

// WithInstructions sets the free-form usage hint returned from initialize.
func WithInstructions(text string) Option {
	return func(s *MCPServer) {
		s.instructions = text
	}
}

// NewMCPServer creates a server identified by name and version.
func NewMCPServer(name, version string, logger *zap.Logger, opts ...Option) *MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &MCPServer{
		info:     protocol.Implementation{Name: name, Version: version},
		handlers: make(map[string]MethodHandler),
		logger:   logger,
		notifyCh: make(chan []byte, 16),
	}

	s.handlers[protocol.MethodInitialize] = s.handleInitialize
	s.handlers[protocol.MethodInitialized] = s.handleInitialized
	s.handlers[protocol.MethodPing] = s.handlePing

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterHandler registers or replaces the handler for method.
func (s *MCPServer) RegisterHandler(method string, handler MethodHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = handler
}

// HandleMessage processes one raw JSON-RPC message and returns the encoded
// response, or nil for notifications.
func (s *MCPServer) HandleMessage(ctx context.Context, msg []byte) ([]byte, error) {
	var req protocol.Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return protocol.MarshalResponse(nil, nil, protocol.NewError(protocol.ParseError, "invalid JSON", nil))
	}
	if err := protocol.ValidateRequest(&req); err != nil {
		return protocol.MarshalResponse(req.ID, nil, protocol.NewError(protocol.InvalidRequest, err.Error(), nil))
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()

	if !ok {
		if req.IsNotification() {
			s.logger.Debug("ignoring unknown notification", zap.String("method", req.Method))
			return nil, nil
		}
		return protocol.MarshalResponse(req.ID, nil,
			protocol.NewError(protocol.MethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil))
	}

	start := time.Now()
	result, err := handler(ctx, req.Params)
	duration := time.Since(start)

	if err != nil {
		s.logger.Warn("handler error",
			zap.String("method", req.Method),
			zap.Stringer("id", req.ID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if req.IsNotification() {
			return nil, nil
		}
		var rpcErr *protocol.Error
		if errors.As(err, &rpcErr) {
			return protocol.MarshalResponse(req.ID, nil, rpcErr)
		}
		return protocol.MarshalResponse(req.ID, nil, protocol.NewError(protocol.InternalError, err.Error(), nil))
	}

	s.logger.Debug("request handled",
		zap.String("method", req.Method),
		zap.Stringer("id", req.ID),
		zap.Duration("duration", duration),
	)

	if req.IsNotification() {
		return nil, nil
	}
	return protocol.MarshalResponse(req.ID, result, nil)
}

// Serve runs the read loop on t until ctx is cancelled or the client hangs
// up. Messages are handled one at a time in arrival order; queued
// notifications are interleaved between responses. A clean EOF returns nil.
func (s *MCPServer) Serve(ctx context.Context, t transport.Transport) error {
	s.logger.Info("MCP server starting", zap.String("name", s.info.Name), zap.String("version", s.info.Version))

	msgCh := make(chan []byte)
	errCh := make(chan error, 1)
	go func() {
		for {
			msg, err := t.Receive(ctx)
			if err != nil {
				errCh <- err
				return
			}
			select {
			case msgCh <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("MCP server stopping (context cancelled)")
			return ctx.Err()

		case err := <-errCh:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				s.logger.Info("client closed the connection")
				return nil
			}
			return fmt.Errorf("receive: %w", err)

		case msg := <-msgCh:
			resp, err := s.HandleMessage(ctx, msg)
			if err != nil {
				s.logger.Error("handle message", zap.Error(err))
				continue
			}
			if resp == nil {
				continue
			}
			if err := t.Send(ctx, resp); err != nil {
				return fmt.Errorf("send: %w", err)
			}

		case notif := <-s.notifyCh:
			if err := t.Send(ctx, notif); err != nil {
				return fmt.Errorf("send notification: %w", err)
			}
		}
	}
}

func (s *MCPServer) handleInitialize(_ context.Context, params json.RawMessage) (interface{}, error) {
	var init protocol.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &init); err != nil {
			return nil, protocol.NewError(protocol.InvalidParams, fmt.Sprintf("invalid initialize params: %v", err), nil)
		}
	}

	if init.ProtocolVersion != "" && init.ProtocolVersion != protocol.ProtocolVersion {
		s.logger.Warn("client protocol version mismatch",
			zap.String("client_version", init.ProtocolVersion),
			zap.String("server_version", protocol.ProtocolVersion),
		)
	}

	if init.ClientInfo.Name != "" {
		s.mu.Lock()
		client := init.ClientInfo
		s.clientInfo = &client
		s.mu.Unlock()

		s.logger.Info("client connected",
			zap.String("client_name", init.ClientInfo.Name),
			zap.String("client_version", init.ClientInfo.Version),
		)
	}

	return protocol.InitializeResult{
		ProtocolVersion: protocol.ProtocolVersion,
		Capabilities:    s.capabilities,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}, nil
}

func (s *MCPServer) handleInitialized(_ context.Context, _ json.RawMessage) (interface{}, error) {
	s.logger.Debug("client initialized")
	return nil, nil
}

func (s *MCPServer) handlePing(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return struct{}{}, nil
}

// ClientInfo returns the client identity from initialize, or nil before it.
func (s *MCPServer) ClientInfo() *protocol.Implementation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientInfo
}

// NotifyResourceListChanged queues a resources/list_changed notification for
// the serve loop. It never blocks; when the queue is full the notification is
// dropped.
func (s *MCPServer) NotifyResourceListChanged() {
	notif, err := protocol.MarshalNotification(protocol.MethodResourceListChanged, nil)
	if err != nil {
		s.logger.Error("marshal resource list changed notification", zap.Error(err))
		return
	}
	select {
	case s.notifyCh <- notif:
		s.logger.Debug("queued resources/list_changed notification")
	default:
		s.logger.Debug("notification queue full, dropping resources/list_changed")
	}
}
