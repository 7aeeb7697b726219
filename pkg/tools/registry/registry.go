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

// Package registry maps tool names to descriptors and serves them to the MCP
// server. Tools are registered explicitly at startup; nothing registers
// itself on import.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teradata-labs/tabular-mcp/pkg/mcp/protocol"
	"go.uber.org/zap"
)

// Handler runs a tool with already validated arguments and returns its text
// output.
type Handler func(ctx context.Context, args map[string]interface{}) (string, error)

// Descriptor describes one tool.
type Descriptor struct {
	Name        string
	Description string
	InputSchema map[string]interface{} // JSON Schema for the arguments object
	Annotations *protocol.ToolAnnotations
	Handler     Handler
}

// Tool converts the descriptor to its wire form.
func (d Descriptor) Tool() protocol.Tool {
	return protocol.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.InputSchema,
		Annotations: d.Annotations,
	}
}

// Registry is an ordered set of tool descriptors. It implements
// server.ToolProvider.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Descriptor
	order  []string
	logger *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Descriptor),
		logger: logger,
	}
}

// Register adds d. Names must be unique and non-empty and a handler is required.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New("tool name is required")
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("tool %s already registered", d.Name)
	}
	r.tools[d.Name] = d
	r.order = append(r.order, d.Name)

	r.logger.Debug("registered tool", zap.String("tool", d.Name))
	return nil
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ListTools returns all tools in registration order.
func (r *Registry) ListTools(_ context.Context) ([]protocol.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]protocol.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].Tool())
	}
	return tools, nil
}

// CallTool validates args against the tool's schema and runs it. Unknown
// tools and schema violations are returned as InvalidParams protocol errors;
// handler failures are returned unchanged.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	d, ok := r.Get(name)
	if !ok {
		return nil, protocol.NewError(protocol.InvalidParams, fmt.Sprintf("unknown tool: %s", name), nil)
	}

	if err := protocol.ValidateToolArguments(d.Tool(), args); err != nil {
		return nil, protocol.NewError(protocol.InvalidParams, err.Error(), nil)
	}

	callID := uuid.New().String()
	logger := r.logger.With(zap.String("tool", name), zap.String("call_id", callID))
	logger.Debug("tool call started", zap.Any("args", args))

	start := time.Now()
	text, err := runHandler(ctx, d.Handler, args)
	duration := time.Since(start)

	if err != nil {
		logger.Info("tool call failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	logger.Info("tool call succeeded", zap.Duration("duration", duration))
	return &protocol.CallToolResult{
		Content: []protocol.Content{protocol.TextContent(text)},
	}, nil
}

// runHandler converts a handler panic into an error so one bad call cannot
// take the server down.
func runHandler(ctx context.Context, h Handler, args map[string]interface{}) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return h(ctx, args)
}

// StringArg returns the string argument key, or an error when it is missing
// or not a string.
func StringArg(args map[string]interface{}, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, raw)
	}
	return s, nil
}

// OptionalStringArg returns the string argument key, or "" when absent.
func OptionalStringArg(args map[string]interface{}, key string) (string, error) {
	if _, ok := args[key]; !ok {
		return "", nil
	}
	return StringArg(args, key)
}
