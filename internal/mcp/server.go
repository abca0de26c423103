// Package mcp provides the stdio MCP server exposing shell-session state
// tools for coding agents.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/shess/internal/buildinfo"
	"github.com/go-ports/shess/internal/scope"
	"github.com/go-ports/shess/internal/service"
)

const getDescription = `Read a key from the state of the enclosing interactive shell session. Values set earlier in this shell (or a parent shell, unless inheritance is severed) are visible; sibling shells are not.`

const setDescription = `Write a key into the state of the enclosing interactive shell session. The value is scoped to the nearest interactive shell: later commands in the same shell see it, sibling shells do not.`

const parentsDescription = `Inspect the resolved shell ancestry of this process: the interactive-shell candidates and the terminal boundary, nearest first.`

// NewServer creates and registers all shess tools on a new MCP server.
// It is intentionally separate from Serve so that tests and other callers
// can obtain a fully configured server without committing to the stdio
// transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("shess", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve starts the stdio MCP server, blocking until stdin closes.
func Serve(_ context.Context, cacheDir string) error {
	svc, err := service.New(cacheDir)
	if err != nil {
		return fmt.Errorf("mcp: init service: %w", err)
	}
	return mcpserver.ServeStdio(NewServer(svc))
}

// registerTools wires all three MCP tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("shess_get",
		mcp.WithDescription(getDescription),
		mcp.WithString("key",
			mcp.Description("Key to read."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGet(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("shess_set",
		mcp.WithDescription(setDescription),
		mcp.WithString("key",
			mcp.Description("Key to write."),
			mcp.Required(),
		),
		mcp.WithString("value",
			mcp.Description("Value to store. Parsed as JSON unless raw is true."),
			mcp.Required(),
		),
		mcp.WithBoolean("raw",
			mcp.Description("Store the value as a literal string instead of parsing it as JSON."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSet(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("shess_parents",
		mcp.WithDescription(parentsDescription),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleParents(ctx, svc, req)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleGet(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}

	val, err := svc.Get(ctx, key)
	if errors.Is(err, scope.ErrKeyNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no value found for key %q", key)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"key": key, "value": val})
}

func handleSet(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}
	rawValue := req.GetString("value", "")

	var value any = rawValue
	if !req.GetBool("raw", false) {
		if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("value is not valid JSON: %v (pass raw: true to store it as a string)", err)), nil
		}
	}

	if err := svc.Set(ctx, key, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"key": key, "stored": true})
}

func handleParents(ctx context.Context, svc *service.Service, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parents, err := svc.Parents(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(parents)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
