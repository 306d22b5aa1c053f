// Package gist publishes snapshots as GitHub gists.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com"

// Config controls gist creation.
type Config struct {
	Token       string
	Description string
	Public      bool
	BaseURL     string
	UserAgent   string
}

// Client creates one gist per PutObject call.
type Client struct {
	cfg  Config
	http *http.Client
}

type gistFile struct {
	Content string `json:"content"`
}

type createRequest struct {
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

type createResponse struct {
	URL     string `json:"url"`
	HTMLURL string `json:"html_url"`
}

// New builds a Client. A nil httpClient gets a 30 second timeout.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("gist token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = "board-crawler"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// PutObject creates a gist holding data under the given filename and returns
// its html_url.
func (c *Client) PutObject(ctx context.Context, filename string, _ string, data io.Reader) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("filename is required")
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read gist content: %w", err)
	}
	payload, err := json.Marshal(createRequest{
		Description: c.cfg.Description,
		Public:      c.cfg.Public,
		Files:       map[string]gistFile{filename: {Content: string(content)}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gist: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/gists", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build gist request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gist request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read gist response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("gist API failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode gist response: %w", err)
	}
	if created.HTMLURL != "" {
		return created.HTMLURL, nil
	}
	return created.URL, nil
}
