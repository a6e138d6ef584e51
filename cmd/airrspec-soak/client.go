// SPDX-License-Identifier: MIT

// API client for the airrspec daemon.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SpecClient drives the daemon's /v1 surface for the harness.
type SpecClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewSpecClient creates a daemon API client.
func NewSpecClient(baseURL, token string) *SpecClient {
	return &SpecClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ValidateResult captures one POST /v1/validate round-trip.
type ValidateResult struct {
	HTTPStatus int
	Digest     string
	Valid      bool
	Errors     []string
	Warnings   []string
	Cached     bool
	Error      error
}

// ExpandResult captures one POST /v1/expand round-trip. Body holds the
// expanded YAML on 200, the problem document otherwise.
type ExpandResult struct {
	HTTPStatus int
	Digest     string // X-Spec-Digest header
	Body       []byte
	Error      error
}

// RootInfo is the daemon's representation of a library root.
type RootInfo struct {
	ID             string `json:"id"`
	Path           string `json:"path"`
	LastScanStatus string `json:"last_scan_status"`
	TotalItems     int    `json:"total_items"`
}

// RescanResult captures one rescan attempt. 200 means this caller's scan
// ran; 503 means another scan held the root.
type RescanResult struct {
	HTTPStatus int
	RetryAfter string
	Error      error
}

// Validate posts one YAML document to /v1/validate.
func (c *SpecClient) Validate(doc []byte) ValidateResult {
	resp, err := c.post("/v1/validate", doc)
	if err != nil {
		return ValidateResult{Error: err}
	}
	defer closeBody(resp, "validate")

	result := ValidateResult{HTTPStatus: resp.StatusCode}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = err
		return result
	}
	if resp.StatusCode != http.StatusOK {
		return result
	}

	var vr struct {
		Digest   string   `json:"digest"`
		Valid    bool     `json:"valid"`
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
		Cached   bool     `json:"cached"`
	}
	if err := json.Unmarshal(body, &vr); err != nil {
		result.Error = fmt.Errorf("failed to unmarshal response: %w", err)
		return result
	}
	result.Digest = vr.Digest
	result.Valid = vr.Valid
	result.Errors = vr.Errors
	result.Warnings = vr.Warnings
	result.Cached = vr.Cached
	return result
}

// Expand posts one YAML document to /v1/expand.
func (c *SpecClient) Expand(doc []byte) ExpandResult {
	resp, err := c.post("/v1/expand", doc)
	if err != nil {
		return ExpandResult{Error: err}
	}
	defer closeBody(resp, "expand")

	result := ExpandResult{
		HTTPStatus: resp.StatusCode,
		Digest:     resp.Header.Get("X-Spec-Digest"),
	}
	result.Body, result.Error = io.ReadAll(resp.Body)
	return result
}

// Roots lists the configured library roots.
func (c *SpecClient) Roots() ([]RootInfo, int, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/v1/library/roots", nil)
	if err != nil {
		return nil, 0, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer closeBody(resp, "roots")

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}
	var rr struct {
		Roots []RootInfo `json:"roots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to unmarshal roots: %w", err)
	}
	return rr.Roots, resp.StatusCode, nil
}

// Rescan triggers a synchronous scan of one root.
func (c *SpecClient) Rescan(rootID string) RescanResult {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/v1/library/roots/"+rootID+"/rescan", nil)
	if err != nil {
		return RescanResult{Error: err}
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RescanResult{Error: err}
	}
	defer closeBody(resp, "rescan")

	// Drain so the connection is reusable.
	_, _ = io.Copy(io.Discard, resp.Body)

	return RescanResult{
		HTTPStatus: resp.StatusCode,
		RetryAfter: resp.Header.Get("Retry-After"),
	}
}

// Ready returns the status code of the readiness probe.
func (c *SpecClient) Ready() (int, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/readyz")
	if err != nil {
		return 0, err
	}
	defer closeBody(resp, "readyz")
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *SpecClient) post(path string, doc []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/yaml")
	c.authorize(req)
	return c.httpClient.Do(req)
}

func (c *SpecClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func closeBody(resp *http.Response, op string) {
	// best-effort close
	if err := resp.Body.Close(); err != nil {
		fmt.Printf("failed to close %s response body: %v\n", op, err)
	}
}
