package docpipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/docforge/compare"
	"github.com/hazyhaar/docforge/translate"
)

// RegisterMCP registers the document tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerExtractTool(srv)
	p.registerExtractBatchTool(srv)
	p.registerDetectTool(srv)
	p.registerFormatsTool(srv)
	p.registerTranslateTool(srv)
	p.registerCompareTool(srv)
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

// registerTool wires one JSON-in, JSON-out endpoint as an MCP tool. Tool
// errors come back as error results, not protocol failures.
func registerTool(srv *mcp.Server, tool *mcp.Tool, endpoint func(ctx context.Context, args json.RawMessage) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := endpoint(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- extract ---

func (p *Pipeline) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docforge_extract",
		Description: "Extract text, tables and metadata from a document file (pdf, docx, odt, pptx, xlsx, csv, html, md, json, xml, rtf, txt, images).",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "File path to extract"},
		}, []string{"path"}),
	}
	registerTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return p.Extract(ctx, r.Path)
	})
}

// --- extract batch ---

func (p *Pipeline) registerExtractBatchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docforge_extract_batch",
		Description: "Extract several documents in one call. Per-file failures are reported inline; the batch never aborts once started.",
		InputSchema: inputSchema(map[string]any{
			"paths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "File paths to extract",
			},
		}, []string{"paths"}),
	}
	registerTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r struct {
			Paths []string `json:"paths"`
		}
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return p.ExtractBatch(ctx, r.Paths)
	})
}

// --- detect ---

func (p *Pipeline) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docforge_detect",
		Description: "Detect a document's format from its extension, sniffing content when the extension is unknown.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "File path to detect"},
		}, []string{"path"}),
	}
	registerTool(srv, tool, func(_ context.Context, args json.RawMessage) (any, error) {
		var r struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		tag, mime := p.Detect(r.Path)
		return map[string]any{
			"format":    string(tag),
			"mime_type": mime,
			"supported": p.IsSupported(tag),
		}, nil
	})
}

// --- formats ---

func (p *Pipeline) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docforge_formats",
		Description: "List all supported document formats.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	registerTool(srv, tool, func(_ context.Context, _ json.RawMessage) (any, error) {
		tags := p.SupportedTags()
		formats := make([]string, len(tags))
		for i, t := range tags {
			formats[i] = string(t)
		}
		return map[string]any{"formats": formats}, nil
	})
}

// --- translate ---

func (p *Pipeline) registerTranslateTool(srv *mcp.Server) {
	cfg := p.cfg.Translate
	cfg.Logger = p.logger
	orch := translate.NewOrchestrator(cfg, translate.DefaultServices(http.DefaultClient)...)

	tool := &mcp.Tool{
		Name:        "docforge_translate",
		Description: "Translate text between languages, falling back across translation services and degrading to the original text when all fail.",
		InputSchema: inputSchema(map[string]any{
			"text":        map[string]any{"type": "string", "description": "Text to translate"},
			"source_lang": map[string]any{"type": "string", "description": "Source language code, e.g. en"},
			"target_lang": map[string]any{"type": "string", "description": "Target language code, e.g. fr"},
		}, []string{"text", "target_lang"}),
	}
	registerTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r struct {
			Text       string `json:"text"`
			SourceLang string `json:"source_lang"`
			TargetLang string `json:"target_lang"`
		}
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if r.SourceLang == "" {
			if detected := p.detector.Detect(r.Text); detected != "" {
				r.SourceLang = detected
			} else {
				r.SourceLang = "auto"
			}
		}
		return orch.Translate(ctx, r.Text, r.SourceLang, r.TargetLang), nil
	})
}

// --- compare ---

func (p *Pipeline) registerCompareTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docforge_compare",
		Description: "Compare two texts: similarity percentage plus line-level differences.",
		InputSchema: inputSchema(map[string]any{
			"text1": map[string]any{"type": "string", "description": "First text"},
			"text2": map[string]any{"type": "string", "description": "Second text"},
		}, []string{"text1", "text2"}),
	}
	registerTool(srv, tool, func(_ context.Context, args json.RawMessage) (any, error) {
		var r struct {
			Text1 string `json:"text1"`
			Text2 string `json:"text2"`
		}
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return compare.Compare(r.Text1, r.Text2), nil
	})
}
