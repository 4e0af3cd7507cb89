// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mcptoolset connects to an MCP server and invokes its tools by name.
//
// The connection is lazy: nothing is started until the first CallTool. A
// failed connection attempt is not cached, so the next call tries again.
//
// Transport Support:
//   - stdio: subprocess started with Command and Args
//   - sse, streamable-http: HTTP with retry/backoff from pkg/httpclient
//   - in-process: an mcp-go server in the same process (tests)
package mcptoolset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kadirpekel/docagent/pkg/httpclient"
)

// Transport names.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
	TransportInProcess      = "in-process"
)

// DefaultTimeout bounds a single tool call when Config.Timeout is unset.
const DefaultTimeout = 60 * time.Second

// ErrClosed is returned by CallTool after Close.
var ErrClosed = errors.New("mcp toolset is closed")

// Config configures an MCP toolset.
type Config struct {
	// Name identifies this toolset in logs.
	Name string

	// Transport is stdio, sse or streamable-http. Empty means stdio when
	// Command is set, streamable-http otherwise.
	Transport string

	// Command, Args and Env start the stdio server.
	Command string
	Args    []string
	Env     map[string]string

	// URL and Headers address HTTP servers.
	URL     string
	Headers map[string]string

	// Timeout bounds each tool call (default 60s).
	Timeout time.Duration

	// MaxRetries for HTTP requests (default 3).
	MaxRetries int

	// ClientName and ClientVersion are sent in the initialize handshake.
	ClientName    string
	ClientVersion string
}

// Toolset is an MCP client connection with lazy initialization.
type Toolset struct {
	cfg   Config
	dial  func() (*client.Client, error)
	mu    sync.Mutex
	conn  *client.Client
	tools []string

	closed bool
}

// New creates a toolset for a stdio or HTTP server.
func New(cfg Config) (*Toolset, error) {
	if cfg.Transport == "" {
		if cfg.Command != "" {
			cfg.Transport = TransportStdio
		} else {
			cfg.Transport = TransportStreamableHTTP
		}
	}

	switch cfg.Transport {
	case TransportStdio:
		if cfg.Command == "" {
			return nil, fmt.Errorf("command is required for %s transport", cfg.Transport)
		}
	case TransportSSE, TransportStreamableHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("url is required for %s transport", cfg.Transport)
		}
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}

	applyDefaults(&cfg)
	t := &Toolset{cfg: cfg}
	t.dial = t.dialer()
	return t, nil
}

// NewInProcess creates a toolset bound to an in-process server.
func NewInProcess(name string, srv *server.MCPServer) *Toolset {
	cfg := Config{Name: name, Transport: TransportInProcess}
	applyDefaults(&cfg)
	return &Toolset{
		cfg: cfg,
		dial: func() (*client.Client, error) {
			return client.NewInProcessClient(srv)
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "mcp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "docagent"
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = "dev"
	}
}

// Name returns the toolset name.
func (t *Toolset) Name() string {
	return t.cfg.Name
}

// Transport returns the resolved transport name.
func (t *Toolset) Transport() string {
	return t.cfg.Transport
}

func (t *Toolset) dialer() func() (*client.Client, error) {
	switch t.cfg.Transport {
	case TransportStdio:
		return func() (*client.Client, error) {
			return client.NewStdioMCPClient(t.cfg.Command, convertEnv(t.cfg.Env), t.cfg.Args...)
		}
	case TransportSSE:
		return func() (*client.Client, error) {
			return client.NewSSEMCPClient(t.cfg.URL,
				transport.WithHTTPClient(t.httpClient()),
				transport.WithHeaders(t.cfg.Headers),
			)
		}
	default:
		return func() (*client.Client, error) {
			return client.NewStreamableHttpClient(t.cfg.URL,
				transport.WithHTTPBasicClient(t.httpClient()),
				transport.WithHTTPHeaders(t.cfg.Headers),
			)
		}
	}
}

func (t *Toolset) httpClient() *http.Client {
	return httpclient.NewClient(
		httpclient.WithMaxRetries(t.cfg.MaxRetries),
		httpclient.WithBaseDelay(time.Second),
	)
}

// connect establishes the connection. Caller holds t.mu.
func (t *Toolset) connect(ctx context.Context) (*client.Client, error) {
	if t.closed {
		return nil, ErrClosed
	}
	if t.conn != nil {
		return t.conn, nil
	}

	c, err := t.dial()
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	// The connection outlives the call that opened it.
	if err := c.Start(context.WithoutCancel(ctx)); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    t.cfg.ClientName,
		Version: t.cfg.ClientVersion,
	}
	initResp, err := c.Initialize(ctx, initReq)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize MCP: %w", err)
	}

	listResp, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	names := make([]string, 0, len(listResp.Tools))
	for _, tl := range listResp.Tools {
		names = append(names, tl.Name)
	}
	sort.Strings(names)

	t.conn = c
	t.tools = names

	slog.Info("Connected to MCP server",
		"name", t.cfg.Name,
		"transport", t.cfg.Transport,
		"server", initResp.ServerInfo.Name,
		"tools", len(names),
	)
	return c, nil
}

// Connect establishes the connection eagerly.
func (t *Toolset) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.connect(ctx)
	return err
}

// Tools returns the sorted tool names advertised by the server, connecting
// if needed.
func (t *Toolset) Tools(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.connect(ctx); err != nil {
		return nil, err
	}
	return append([]string(nil), t.tools...), nil
}

// CallTool invokes a remote tool. A result with IsError set is returned
// as is; only transport and protocol failures are errors.
func (t *Toolset) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	c, err := t.connect(ctx)
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server %s: %w", t.cfg.Name, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	start := time.Now()
	res, err := c.CallTool(callCtx, req)
	if err != nil {
		slog.Debug("MCP call failed", "tool", name, "duration", time.Since(start), "error", err)
		return nil, fmt.Errorf("MCP call %s failed: %w", name, err)
	}
	slog.Debug("MCP call completed", "tool", name, "duration", time.Since(start), "is_error", res.IsError)
	return res, nil
}

// Close closes the MCP connection. The toolset cannot be reused.
func (t *Toolset) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.tools = nil
	return err
}

// convertEnv converts map to slice of "KEY=VALUE".
func convertEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}
