package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/csmizzle/conductor/pkg/ai"
	"github.com/csmizzle/conductor/pkg/common"
	"github.com/csmizzle/conductor/pkg/logger"
	"github.com/csmizzle/conductor/pkg/retrieval"

	"codeberg.org/readeck/go-readability/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxResults    = 5
	defaultMaxPageTokens = 4096
)

// WebRetriever answers questions from live web evidence: it queries a
// SearxNG-compatible search endpoint, fetches the top results concurrently,
// extracts readable text, and synthesizes a cited answer. Implements
// retrieval.Retriever.
//
// Fetched pages are cached for the lifetime of the retriever; concurrent
// fetches of the same URL are collapsed through singleflight.
type WebRetriever struct {
	searchURL     string
	aiClient      ai.ResearchAIClient
	httpClient    *http.Client
	maxResults    int
	maxPageTokens int

	cache   map[string]string
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewWebRetrieverParams defines the configuration for a WebRetriever.
// SearchURL points at a SearxNG-compatible instance. MaxResults bounds how
// many search hits are fetched per question; MaxPageTokens bounds how much
// of each page is kept.
type NewWebRetrieverParams struct {
	SearchURL     string
	AIClient      ai.ResearchAIClient
	HTTPClient    *http.Client
	MaxResults    int
	MaxPageTokens int
}

// NewWebRetriever creates a live web retriever.
func NewWebRetriever(params NewWebRetrieverParams) *WebRetriever {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	maxPageTokens := params.MaxPageTokens
	if maxPageTokens <= 0 {
		maxPageTokens = defaultMaxPageTokens
	}

	return &WebRetriever{
		searchURL:     strings.TrimRight(params.SearchURL, "/"),
		aiClient:      params.AIClient,
		httpClient:    httpClient,
		maxResults:    maxResults,
		maxPageTokens: maxPageTokens,
		cache:         make(map[string]string),
	}
}

type searchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Retrieve searches the web for the query, fetches the top results, and
// synthesizes a cited answer with per-source credibility. A query with no
// usable results returns an answer with an empty document list.
func (r *WebRetriever) Retrieve(ctx context.Context, query string) (*common.Answer, error) {
	results, err := r.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) > r.maxResults {
		results = results[:r.maxResults]
	}

	documents := make([]common.DocumentWithCredibility, 0, len(results))
	mu := sync.Mutex{}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.maxResults)
	for _, result := range results {
		eg.Go(func() error {
			text, err := r.fetchPageText(gCtx, result.URL)
			if err != nil {
				logger.Warn("[Retrieval] Failed to fetch search result", "url", result.URL, "error", err)
				return nil
			}
			if strings.TrimSpace(text) == "" {
				return nil
			}

			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate document ID: %w", err)
			}

			mu.Lock()
			documents = append(documents, common.DocumentWithCredibility{
				ID:       id,
				Content:  text,
				Citation: result.URL,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("[Retrieval] Web pages fetched", "query", query, "results", len(results), "documents", len(documents))

	return retrieval.SynthesizeAnswer(ctx, r.aiClient, query, documents)
}

func (r *WebRetriever) search(ctx context.Context, query string) ([]searchResult, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s&format=json", r.searchURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var res searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return res.Results, nil
}

// fetchPageText downloads a URL and extracts its readable text. HTML pages
// go through readability; when that fails the raw text content of the HTML
// tree is used instead.
func (r *WebRetriever) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	r.cacheMu.RLock()
	if cached, ok := r.cache[pageURL]; ok {
		r.cacheMu.RUnlock()
		return cached, nil
	}
	r.cacheMu.RUnlock()

	result, err, _ := r.group.Do(pageURL, func() (any, error) {
		r.cacheMu.RLock()
		if cached, ok := r.cache[pageURL]; ok {
			r.cacheMu.RUnlock()
			return cached, nil
		}
		r.cacheMu.RUnlock()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}

		text := ""
		contentType := resp.Header.Get("Content-Type")
		if strings.Contains(contentType, "text/html") {
			text = extractHTMLText(pageURL, body)
		} else if strings.HasPrefix(contentType, "text/") {
			text = string(body)
		}

		text, err = r.truncateToTokens(text)
		if err != nil {
			return "", err
		}

		r.cacheMu.Lock()
		r.cache[pageURL] = text
		r.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func extractHTMLText(pageURL string, body []byte) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), base)
	if err == nil {
		var builder strings.Builder
		if err := article.RenderText(&builder); err == nil && strings.TrimSpace(builder.String()) != "" {
			return builder.String()
		}
	}

	// Not an article page; fall back to the bare text content of the tree.
	node, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	var builder strings.Builder
	collectText(node, &builder)
	return builder.String()
}

func collectText(node *html.Node, builder *strings.Builder) {
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style" || node.Data == "noscript") {
		return
	}
	if node.Type == html.TextNode {
		text := strings.TrimSpace(node.Data)
		if text != "" {
			builder.WriteString(text)
			builder.WriteString(" ")
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, builder)
	}
}

func (r *WebRetriever) truncateToTokens(text string) (string, error) {
	if text == "" {
		return text, nil
	}

	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return "", err
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= r.maxPageTokens {
		return text, nil
	}
	return enc.Decode(tokens[:r.maxPageTokens]), nil
}
