// ABOUTME: Tests for the generate_insight MCP tool.
// ABOUTME: Runs the handler against an httptest insight proxy.
package mcp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2389-research/jotter/internal/insight"
)

func insightProxy(t *testing.T, reply string, prompts *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		*prompts = append(*prompts, req.Prompt)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": reply})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateInsight(t *testing.T) {
	var prompts []string
	srv := insightProxy(t, "You seem to be finding your rhythm.", &prompts)
	client := insight.NewClient(insight.NewProxyCompleter(srv.URL, ""))
	s, _ := makeServer(t, WithInsightClient(client))

	callTool(t, s, "write_entry", map[string]string{"text": "Morning pages again"})
	callTool(t, s, "write_entry", map[string]string{"text": "Long run after work"})

	result := callTool(t, s, "generate_insight", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", getTextContent(result))
	}
	if got := getTextContent(result); got != "You seem to be finding your rhythm." {
		t.Errorf("unexpected insight text: %q", got)
	}

	if len(prompts) != 1 {
		t.Fatalf("expected 1 proxy call, got %d", len(prompts))
	}
	if !strings.Contains(prompts[0], "Long run after work") || !strings.Contains(prompts[0], "Morning pages again") {
		t.Errorf("prompt missing entries: %s", prompts[0])
	}

	var limited []string
	srv2 := insightProxy(t, "ok", &limited)
	s.insight = insight.NewClient(insight.NewProxyCompleter(srv2.URL, ""))
	callTool(t, s, "generate_insight", map[string]interface{}{"limit": 1})
	if len(limited) != 1 || strings.Contains(limited[0], "Morning pages again") {
		t.Errorf("limit 1 should include only the newest entry, got: %v", limited)
	}
}

func TestGenerateInsightNoEntries(t *testing.T) {
	var prompts []string
	srv := insightProxy(t, "unused", &prompts)
	s, _ := makeServer(t, WithInsightClient(insight.NewClient(insight.NewProxyCompleter(srv.URL, ""))))

	result := callTool(t, s, "generate_insight", map[string]interface{}{})
	if !result.IsError {
		t.Fatal("expected error with an empty journal")
	}
	if !strings.Contains(getTextContent(result), "no journal entries") {
		t.Errorf("unexpected error text: %s", getTextContent(result))
	}
	if len(prompts) != 0 {
		t.Errorf("proxy should not be called, got %d calls", len(prompts))
	}
}

func TestFormatInsightStructured(t *testing.T) {
	in := insight.ParseResponse(`{"mood":"steady","insights":["sleep helps","walks help"],"reflection":"Keep going."}`)
	got := FormatInsight(in)
	want := "Mood: steady\n\nInsights:\n- sleep helps\n- walks help\n\nKeep going.\n"
	if got != want {
		t.Errorf("FormatInsight() = %q, want %q", got, want)
	}

	plain := insight.ParseResponse("just words")
	if FormatInsight(plain) != "just words" {
		t.Errorf("plain insight should pass through, got %q", FormatInsight(plain))
	}
}
