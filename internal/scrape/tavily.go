// Package scrape adapts the Tavily search API into a single Extract call:
// point it at a URL with a natural-language instruction, get back one text
// blob combining Tavily's answer and its source snippets.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no Tavily API key was provided at startup.
var ErrNotConfigured = errors.New("tavily api key is not configured")

// UpstreamError reports a non-2xx response from Tavily, carrying whatever
// error detail the service included in its body.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("tavily returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("tavily returned %d: %s", e.Status, http.StatusText(e.Status))
}

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	httpTimeout    = 60 * time.Second

	// Tavily rejects long queries, so the combined instruction+URL query is
	// truncated to this many characters before submission.
	maxQueryLen = 390

	maxResults       = 5
	snippetSeparator = "\n\n---\n\n"
)

// Client calls the Tavily search API.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewClient constructs a Client with a shared HTTP client. An empty apiKey
// yields a Client whose Extract always fails with ErrNotConfigured.
func NewClient(apiKey string, log *zap.Logger) *Client {
	return &Client{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: tavilyEndpoint,
		client:   &http.Client{Timeout: httpTimeout},
		logger:   log,
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Extract submits the target URL plus an extraction instruction to Tavily and
// returns the answer text followed by each result snippet, concatenated.
// Tavily has no dedicated URL field, so the URL is encoded inline in the
// query string, subject to the query-length ceiling.
func (c *Client) Extract(ctx context.Context, targetURL, instruction string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	query := strings.TrimSpace(instruction + " " + targetURL)
	if len(query) > maxQueryLen {
		query = query[:maxQueryLen]
	}

	body, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		IncludeAnswer: true,
		MaxResults:    maxResults,
	})
	if err != nil {
		return "", fmt.Errorf("marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("tavily request", zap.String("url", targetURL), zap.Int("query_length", len(query)))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tavily http POST: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read tavily response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Status: resp.StatusCode, Detail: upstreamDetail(raw)}
	}

	var result searchResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("unmarshal tavily response: %w", err)
	}

	var parts []string
	if answer := strings.TrimSpace(result.Answer); answer != "" {
		parts = append(parts, answer)
	}
	for _, r := range result.Results {
		parts = append(parts, fmt.Sprintf("URL: %s\nTitle: %s\nContent: %s", r.URL, r.Title, r.Content))
	}

	text := strings.Join(parts, snippetSeparator)
	c.logger.Debug("tavily response", zap.Int("results", len(result.Results)), zap.Int("text_length", len(text)))

	return text, nil
}

// upstreamDetail pulls a human-readable error message out of a Tavily error
// body, which nests the detail inconsistently across status codes.
func upstreamDetail(raw []byte) string {
	var body struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Error != "" {
		return body.Error
	}
	switch d := body.Detail.(type) {
	case string:
		return d
	case map[string]any:
		if msg, ok := d["error"].(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(string(raw))
}
