package mcpserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// apiClient is a thin HTTP client for the flowline REST API. Tool handlers
// return API errors as tool results, never as transport errors.
type apiClient struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func newAPIClient(apiURL string, logger zerolog.Logger) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		client:  &http.Client{},
		logger:  logger,
	}
}

func (c *apiClient) get(ctx context.Context, path string, query url.Values) (string, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, u, "")
}

func (c *apiClient) post(ctx context.Context, path, body string) (string, error) {
	return c.do(ctx, http.MethodPost, c.baseURL+path, body)
}

func (c *apiClient) do(ctx context.Context, method, url, body string) (string, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", url).Msg("MCP tool API call")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return `{"status":"success"}`, nil
	}
	return string(respBody), nil
}
