// Package client provides a typed HTTP client for the unitmap API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/unitmap-io/gounitmap/internal/engine"
	"github.com/unitmap-io/gounitmap/internal/fields"
	"github.com/unitmap-io/gounitmap/internal/mapping"
	"github.com/unitmap-io/gounitmap/internal/rules"
)

// Client is an HTTP client for the unitmap API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// EvaluateResult is the server's evaluation outcome.
type EvaluateResult struct {
	UnitID        string              `json:"unit_id"`
	MatchedRuleID string              `json:"matched_rule_id,omitempty"`
	Trace         []engine.TraceEntry `json:"trace,omitempty"`
	ETag          string              `json:"etag"`
}

// Evaluate maps a context to a unit id on the server.
func (c *Client) Evaluate(ctx context.Context, context map[string]any, trace bool) (*EvaluateResult, error) {
	payload := map[string]any{"context": context, "trace": trace}
	var result EvaluateResult
	if err := c.postJSON(ctx, "/v1/evaluate", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RuleList is the server's authoring state listing.
type RuleList struct {
	Version       string       `json:"version"`
	DefaultUnitID string       `json:"default_unit_id"`
	Rules         []rules.Rule `json:"rules"`
	ETag          string       `json:"etag"`
}

// ListRules retrieves the authored rules.
func (c *Client) ListRules(ctx context.Context) (*RuleList, error) {
	var result RuleList
	if err := c.getJSON(ctx, "/v1/rules/", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Export retrieves the canonical interchange document.
func (c *Client) Export(ctx context.Context) (*mapping.Document, error) {
	var doc mapping.Document
	if err := c.getJSON(ctx, "/v1/mapping/export", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ValidateResult reports a server-side config validation outcome.
type ValidateResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateConfig submits raw config text for structural validation.
func (c *Client) ValidateConfig(ctx context.Context, raw []byte) (*ValidateResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/mapping/validate", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var result ValidateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// ImportConfig replaces the server's authoring state with raw config text.
func (c *Client) ImportConfig(ctx context.Context, raw []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/mapping/import", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// Discover submits a sample context for field discovery.
func (c *Client) Discover(ctx context.Context, sample map[string]any) ([]fields.Descriptor, error) {
	payload := map[string]any{"sample": sample}
	var result struct {
		Fields []fields.Descriptor `json:"fields"`
	}
	if err := c.postJSON(ctx, "/v1/fields/discover", payload, &result); err != nil {
		return nil, err
	}
	return result.Fields, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
}
