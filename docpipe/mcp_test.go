package docpipe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "docforge-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	pipe := newTestPipeline(t)
	srv := mcp.NewServer(testMCPImpl, nil)
	pipe.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_Formats(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "docforge_formats", map[string]any{})

	var resp struct {
		Formats []string `json:"formats"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	seen := make(map[string]bool)
	for _, f := range resp.Formats {
		seen[f] = true
	}
	for _, want := range []string{".pdf", ".docx", ".txt", ".csv", ".pptx", ".png"} {
		if !seen[want] {
			t.Errorf("missing format: %q", want)
		}
	}
}

func TestMCP_Detect(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "docforge_detect", map[string]any{"path": "report.docx"})
	var resp struct {
		Format    string `json:"format"`
		MIMEType  string `json:"mime_type"`
		Supported bool   `json:"supported"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Format != ".docx" || !resp.Supported {
		t.Errorf("unexpected detect response: %+v", resp)
	}
	if resp.MIMEType == "" {
		t.Error("expected MIME type")
	}
}

func TestMCP_Extract(t *testing.T) {
	session := mcpSession(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("Hello World\nSecond line"), 0644)

	text := mcpCallTool(t, session, "docforge_extract", map[string]any{"path": path})

	var content ExtractedContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if content.Metadata.FileType != ".txt" {
		t.Errorf("FileType = %q, want .txt", content.Metadata.FileType)
	}
	if content.Text == "" {
		t.Error("expected non-empty text")
	}
	if content.ProcessingMethod != "text_extraction" {
		t.Errorf("ProcessingMethod = %q", content.ProcessingMethod)
	}
}

func TestMCP_ExtractBatch(t *testing.T) {
	session := mcpSession(t)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	os.WriteFile(a, []byte("first"), 0644)
	b := filepath.Join(dir, "missing.txt")

	text := mcpCallTool(t, session, "docforge_extract_batch", map[string]any{"paths": []string{a, b}})

	var res BatchResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("expected 1/1, got %d/%d", res.Succeeded, res.Failed)
	}
}

func TestMCP_Compare(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "docforge_compare", map[string]any{
		"text1": "same text",
		"text2": "same text",
	})

	var resp struct {
		SimilarityPercentage float64 `json:"similarity_percentage"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.SimilarityPercentage != 100.0 {
		t.Errorf("expected 100.0 for identical texts, got %f", resp.SimilarityPercentage)
	}
}
