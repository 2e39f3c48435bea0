package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCP tool names.
const (
	ToolExtractText = "extract_report_text"
	ToolExtractFile = "extract_report_file"
)

// NewMCPServer exposes the pipeline as MCP tools.
func NewMCPServer(p Pipeline, version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: "medreport", Version: version}, nil)
	RegisterMCPTools(srv, p, logger)
	return srv
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// RegisterMCPTools adds the extraction tools to srv.
func RegisterMCPTools(srv *mcp.Server, p Pipeline, logger *slog.Logger) {
	srv.AddTool(&mcp.Tool{
		Name:        ToolExtractText,
		Description: "Extract lab metrics (with normal/low/high/critical status) and clinical notes from medical report text.",
		InputSchema: inputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Raw report text"},
		}, []string{"text"}),
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var in struct {
			Text string `json:"text"`
		}
		if err := decodeArgs(req, &in); err != nil {
			return toolError(err), nil
		}
		if err := validateText(in.Text); err != nil {
			return toolError(err), nil
		}
		res := p.ExtractText(ctx, in.Text)
		if err := checkResult(res); err != nil {
			logger.Error("extraction result failed validation", "error", err)
			return toolError(err), nil
		}
		return toolJSON(res)
	})

	srv.AddTool(&mcp.Tool{
		Name:        ToolExtractFile,
		Description: "Run the full pipeline (PDF text, OCR fallback, rule extraction) on a local report file (pdf, image or txt).",
		InputSchema: inputSchema(map[string]any{
			"path":      map[string]any{"type": "string", "description": "Path of the report file"},
			"file_type": map[string]any{"type": "string", "enum": fileTypes, "description": "Declared type; detected from the extension when omitted"},
		}, []string{"path"}),
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var in fileRequest
		if err := decodeArgs(req, &in); err != nil {
			return toolError(err), nil
		}
		in.Content = nil
		if err := in.validate(0); err != nil {
			return toolError(err), nil
		}
		res, err := processFileRequest(ctx, p, in)
		if err != nil {
			logger.Error("extract file failed", "error", err)
			return toolError(err), nil
		}
		if !res.Success {
			return toolError(fmt.Errorf("%s", res.Error)), nil
		}
		return toolJSON(res)
	})
}

func decodeArgs(req *mcp.CallToolRequest, v any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Errorf("marshal: %w", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}
