package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/slidetag/internal/pptxtest"
	"github.com/tsawler/slidetag/internal/service"
)

func newTestServer(t *testing.T) *MCPServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &MCPServer{svc: service.New(nil, service.Options{}, nil, nil, logger)}
}

func writeDeck(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	data := pptxtest.Deck(t, pptxtest.Slide{Shapes: []pptxtest.Shape{
		{Name: "Text Placeholder 1", Runs: []string{"Chicago"}},
		{Name: "Text Placeholder 3", Runs: []string{"Billboard"}},
	}})
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestNewServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NotNil(t, NewServer(service.New(nil, service.Options{}, nil, nil, logger), "test"))
}

func TestExtractSlides_JSON(t *testing.T) {
	ms := newTestServer(t)

	res, err := ms.handleExtractSlides(context.Background(), callRequest("extract_slides", map[string]any{
		"path": writeDeck(t),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out service.Result
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.Len(t, out.Slides, 1)
	assert.Equal(t, 1, out.Slides[0].SlideNumber)
	assert.Equal(t, "City", out.Slides[0].Shapes[0].Tag)
	assert.Equal(t, "Billboard", out.Slides[0].Shapes[1].Content)
}

func TestExtractSlides_Markdown(t *testing.T) {
	ms := newTestServer(t)

	res, err := ms.handleExtractSlides(context.Background(), callRequest("extract_slides", map[string]any{
		"path":   writeDeck(t),
		"format": "markdown",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.True(t, strings.HasPrefix(text, "## Slide 1"))
	assert.Contains(t, text, "| City | Chicago |")
}

func TestExtractSlides_Errors(t *testing.T) {
	ms := newTestServer(t)
	deck := writeDeck(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing path", map[string]any{}},
		{"path not a string", map[string]any{"path": 42}},
		{"unknown format", map[string]any{"path": deck, "format": "pdf"}},
		{"html not offered", map[string]any{"path": deck, "format": "html"}},
		{"missing file", map[string]any{"path": filepath.Join(t.TempDir(), "nope.pptx")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ms.handleExtractSlides(context.Background(), callRequest("extract_slides", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestResolveTag(t *testing.T) {
	ms := newTestServer(t)

	tests := []struct {
		label string
		want  string
	}{
		{"Text Placeholder 1", "City"},
		{"Text Placeholder 11", "QTY"},
		{"Custom Label", "Custom Label"},
		{"", ""},
	}

	for _, tt := range tests {
		res, err := ms.handleResolveTag(context.Background(), callRequest("resolve_tag", map[string]any{"label": tt.label}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, tt.want, resultText(t, res), tt.label)
	}

	res, err := ms.handleResolveTag(context.Background(), callRequest("resolve_tag", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
