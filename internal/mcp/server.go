// Package mcp exposes slide extraction as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tsawler/slidetag/internal/service"
	"github.com/tsawler/slidetag/render"
)

// MCPServer wraps the extraction service to expose it via MCP.
type MCPServer struct {
	svc *service.Service
}

// NewServer builds the MCP server with its tools registered.
func NewServer(svc *service.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"slidetag",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	ms := &MCPServer{svc: svc}

	// Tool: Extract Slides
	s.AddTool(
		mcp.NewTool(
			"extract_slides",
			mcp.WithDescription("Extract tagged shape text from a PPTX presentation on the local filesystem."),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .pptx file")),
			mcp.WithString("format",
				mcp.Description("Output format: json (default) or markdown"),
				mcp.Enum("json", "markdown"),
			),
		),
		ms.handleExtractSlides,
	)

	// Tool: Resolve Tag
	s.AddTool(
		mcp.NewTool(
			"resolve_tag",
			mcp.WithDescription("Resolve a shape label to its semantic tag. Unmapped labels resolve to themselves."),
			mcp.WithString("label", mcp.Required(), mcp.Description("Shape description, title or name")),
		),
		ms.handleResolveTag,
	)

	return s
}

// Run serves MCP on stdin and stdout until ctx is done.
func Run(ctx context.Context, svc *service.Service, version string) error {
	s := NewServer(svc, version)
	slog.Info("Starting MCP server on Stdio")
	return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
}

// --- Tool Handlers ---

func (ms *MCPServer) handleExtractSlides(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path argument required"), nil
	}

	f := render.JSON
	if name, ok := args["format"].(string); ok {
		parsed, err := render.ParseFormat(name)
		if err != nil || parsed == render.HTML {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q", name)), nil
		}
		f = parsed
	}

	res, err := ms.svc.ExtractFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}

	if f == render.Markdown {
		return mcp.NewToolResultText(render.ToMarkdown(res.Slides)), nil
	}

	jsonBytes, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (ms *MCPServer) handleResolveTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	label, ok := args["label"].(string)
	if !ok {
		return mcp.NewToolResultError("label argument required"), nil
	}
	return mcp.NewToolResultText(ms.svc.Resolve(label)), nil
}
