package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/csmizzle/conductor/pkg/ai"
)

type mockAIClient struct {
	formatFn func(ctx context.Context, name string, prompt string, out any) error
}

func (m *mockAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (m *mockAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	if m.formatFn == nil {
		return errors.New("formatFn not set")
	}
	return m.formatFn(ctx, name, prompt, out)
}

func (m *mockAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return make([]float32, 8), nil
}

func (m *mockAIClient) ResetMetrics() {}

func (m *mockAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

// passthroughFormat fills structured calls with zero values so retrieval can
// complete without asserting on synthesis.
func passthroughFormat(ctx context.Context, name string, prompt string, out any) error {
	return nil
}

func TestWebRetrieverFetchesAndAssembles(t *testing.T) {
	var pageHits atomic.Int32

	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><title>About</title></head><body><article><h1>About Acme</h1><p>Jane Roe founded Acme in 1999. The company builds road-runner traps and employs two hundred people in its Albuquerque office.</p><p>Acme was acquired by Globex in 2019 after a long partnership on desert logistics.</p></article></body></html>`)
	}))
	defer pages.Close()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("search request missing format=json")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":[{"url":%q,"title":"About Acme","content":"snippet"}]}`, pages.URL+"/about")
	}))
	defer search.Close()

	retriever := NewWebRetriever(NewWebRetrieverParams{
		SearchURL: search.URL,
		AIClient:  &mockAIClient{formatFn: passthroughFormat},
	})

	answer, err := retriever.Retrieve(context.Background(), "who founded Acme?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(answer.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(answer.Documents))
	}
	doc := answer.Documents[0]
	if !strings.Contains(doc.Content, "Jane Roe founded Acme") {
		t.Errorf("readable text not extracted: %q", doc.Content)
	}
	if doc.Citation != pages.URL+"/about" {
		t.Errorf("citation = %q", doc.Citation)
	}
	if doc.ID == "" {
		t.Error("document ID not assigned")
	}

	// Second retrieval must come from the cache.
	if _, err := retriever.Retrieve(context.Background(), "who founded Acme?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pageHits.Load() != 1 {
		t.Errorf("expected 1 page fetch, got %d", pageHits.Load())
	}
}

func TestWebRetrieverSkipsFailedPages(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer broken.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "Acme opened a Berlin office in 2021.")
	}))
	defer working.Close()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":[{"url":%q},{"url":%q}]}`, broken.URL, working.URL)
	}))
	defer search.Close()

	retriever := NewWebRetriever(NewWebRetrieverParams{
		SearchURL: search.URL,
		AIClient:  &mockAIClient{formatFn: passthroughFormat},
	})

	answer, err := retriever.Retrieve(context.Background(), "Acme offices")
	if err != nil {
		t.Fatalf("a failing page must not fail retrieval: %v", err)
	}
	if len(answer.Documents) != 1 {
		t.Fatalf("expected the working page only, got %d documents", len(answer.Documents))
	}
	if !strings.Contains(answer.Documents[0].Content, "Berlin office") {
		t.Errorf("unexpected document content: %q", answer.Documents[0].Content)
	}
}

func TestWebRetrieverSearchErrorPropagates(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer search.Close()

	retriever := NewWebRetriever(NewWebRetrieverParams{
		SearchURL: search.URL,
		AIClient:  &mockAIClient{formatFn: passthroughFormat},
	})

	if _, err := retriever.Retrieve(context.Background(), "anything"); err == nil {
		t.Fatal("expected error from failing search backend")
	}
}

func TestTruncateToTokens(t *testing.T) {
	retriever := NewWebRetriever(NewWebRetrieverParams{
		SearchURL:     "http://localhost",
		AIClient:      &mockAIClient{},
		MaxPageTokens: 4,
	})

	long := strings.Repeat("alpha beta gamma delta ", 50)
	truncated, err := retriever.truncateToTokens(long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(truncated) >= len(long) {
		t.Errorf("text not truncated: %d >= %d", len(truncated), len(long))
	}

	short := "tiny"
	kept, err := retriever.truncateToTokens(short)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kept != short {
		t.Errorf("short text must pass through unchanged, got %q", kept)
	}
}
