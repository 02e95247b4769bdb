// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the base URL of the provisioning API
	// (e.g. "https://sandbox.example.gov/api").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used. Set a Timeout on it — the portal has no other request
	// deadline for the dashboard's background refreshes.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// TokenSource supplies the current bearer credential, or "" when
	// the visitor is signed out. Typically SessionStore.Token.
	TokenSource func() string
	// OnUnauthorized is invoked once per UNAUTHORIZED response, from
	// whichever operation produced it. Typically SessionStore.Logout.
	// May be nil.
	OnUnauthorized func()
}

// Client issues typed operations against the remote sandbox
// provisioning API. Idempotent reads are collapsed through the
// Deduplicator; CreateLease is not.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
	tokenSource    func() string
	onUnauthorized func()
	dedup          *Deduplicator
}

// NewClient creates a Client for the provisioning API at
// config.BaseURL.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("sandbox: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("sandbox: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tokenSource := config.TokenSource
	if tokenSource == nil {
		tokenSource = func() string { return "" }
	}

	return &Client{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		httpClient:     httpClient,
		logger:         logger,
		tokenSource:    tokenSource,
		onUnauthorized: config.OnUnauthorized,
		dedup:          NewDeduplicator(),
	}, nil
}

// AuthStatus checks the visitor's credential against the server.
// Returns UNAUTHORIZED when the credential is missing, invalid, or
// expired. Concurrent status checks collapse into one request.
func (c *Client) AuthStatus(ctx context.Context) (*AuthStatusResponse, error) {
	return dedupe(c.dedup, dedupKeyAuthStatus, func() (*AuthStatusResponse, error) {
		body, err := c.doRequest(ctx, http.MethodGet, "/auth/status", nil)
		if err != nil {
			return nil, err
		}
		var response AuthStatusResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, fmt.Errorf("sandbox: failed to parse auth status response: %w", err)
		}
		return &response, nil
	})
}

// LeaseTemplate fetches the template record for templateID. A 404
// classifies as NOT_FOUND, meaning the template is no longer
// requestable. Concurrent fetches of the same template collapse.
func (c *Client) LeaseTemplate(ctx context.Context, templateID string) (*LeaseTemplate, error) {
	if templateID == "" {
		return nil, fmt.Errorf("sandbox: template ID is required")
	}
	return dedupe(c.dedup, dedupKeyTemplate+templateID, func() (*LeaseTemplate, error) {
		body, err := c.doRequest(ctx, http.MethodGet, "/leaseTemplates/"+url.PathEscape(templateID), nil)
		if err != nil {
			return nil, err
		}
		var template LeaseTemplate
		if err := json.Unmarshal(body, &template); err != nil {
			return nil, fmt.Errorf("sandbox: failed to parse lease template response: %w", err)
		}
		return &template, nil
	})
}

// Configuration fetches the portal configuration, including the
// current Acceptable Use Policy text. Fetched fresh on every modal
// open; concurrent fetches collapse.
func (c *Client) Configuration(ctx context.Context) (*Configuration, error) {
	return dedupe(c.dedup, dedupKeyConfiguration, func() (*Configuration, error) {
		body, err := c.doRequest(ctx, http.MethodGet, "/configurations", nil)
		if err != nil {
			return nil, err
		}
		var configuration Configuration
		if err := json.Unmarshal(body, &configuration); err != nil {
			return nil, fmt.Errorf("sandbox: failed to parse configuration response: %w", err)
		}
		return &configuration, nil
	})
}

// Leases fetches the visitor's leases. Concurrent fetches collapse —
// the dashboard's manual retry and its background refresh share one
// request when they coincide.
func (c *Client) Leases(ctx context.Context, email string) ([]Lease, error) {
	return dedupe(c.dedup, dedupKeyLeases, func() ([]Lease, error) {
		query := url.Values{"userEmail": []string{email}}
		body, err := c.doRequest(ctx, http.MethodGet, "/leases?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		var leases []Lease
		if err := json.Unmarshal(body, &leases); err != nil {
			return nil, fmt.Errorf("sandbox: failed to parse leases response: %w", err)
		}
		return leases, nil
	})
}

// CreateLease submits a provisioning request for templateID. Never
// deduplicated: the modal's submit gate is the only guard against
// duplicate submissions, and every user action maps to exactly one
// request. A CONFLICT classification means the visitor's active lease
// limit is reached.
func (c *Client) CreateLease(ctx context.Context, templateID string) (*CreateLeaseResponse, error) {
	if templateID == "" {
		return nil, fmt.Errorf("sandbox: template ID is required")
	}
	request := CreateLeaseRequest{
		LeaseTemplateID: templateID,
		AcceptedAUP:     true,
	}
	body, err := c.doRequest(ctx, http.MethodPost, "/leases", request)
	if err != nil {
		return nil, err
	}
	var response CreateLeaseResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("sandbox: failed to parse create lease response: %w", err)
	}
	c.logger.Info("lease requested",
		"template_id", templateID,
		"lease_id", response.LeaseID,
	)
	return &response, nil
}

// doRequest performs one HTTP call and returns the response body. On
// 2xx, returns the body. On any failure it returns a classified
// *APIError; UNAUTHORIZED additionally fires the OnUnauthorized hook
// so the session is invalidated uniformly no matter which operation
// hit the expired credential.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("sandbox: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("sandbox: failed to create request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenSource(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		apiErr := classifyTransport(err)
		c.logger.Warn("request failed",
			"method", method, "path", path, "code", apiErr.Code, "error", err,
		)
		return nil, fmt.Errorf("sandbox: request to %s %s failed: %w", method, path, apiErr)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("sandbox: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	apiErr := &APIError{
		Code:       classifyStatus(response.StatusCode),
		StatusCode: response.StatusCode,
	}
	// Servers that send a structured error contribute the message;
	// anything else falls back to the classification's own wording.
	var serverError struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(responseBody, &serverError) == nil {
		if serverError.Message != "" {
			apiErr.Message = serverError.Message
		} else if serverError.Error != "" {
			apiErr.Message = serverError.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(response.StatusCode)
	}

	c.logger.Warn("request rejected",
		"method", method, "path", path,
		"status", response.StatusCode, "code", apiErr.Code,
	)

	if apiErr.Code == ErrCodeUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	return nil, apiErr
}

// maxResponseBytes caps response reads. The largest expected payload
// is a lease list; 4 MiB leaves generous headroom.
const maxResponseBytes = 4 << 20
