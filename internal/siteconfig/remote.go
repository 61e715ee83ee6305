// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package siteconfig

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

	"promptlib/internal/models"
)

// SettingsPath is the admin settings endpoint served by the API.
const SettingsPath = "/api/admin/settings"

// ErrRemoteStatus wraps every non-200 answer from the settings API.
var ErrRemoteStatus = errors.New("settings api returned an error")

// RemoteBackend reads and writes the configuration through the admin
// settings API.
type RemoteBackend struct {
	baseURL    string
	token      string
	otp        string
	httpClient *http.Client
}

// RemoteOption configures a RemoteBackend.
type RemoteOption func(*RemoteBackend)

// WithToken sets the bearer token sent with writes.
func WithToken(token string) RemoteOption {
	return func(b *RemoteBackend) { b.token = token }
}

// WithOTP sets the one-time code sent with writes when the server
// enforces TOTP.
func WithOTP(code string) RemoteOption {
	return func(b *RemoteBackend) { b.otp = code }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(b *RemoteBackend) { b.httpClient = c }
}

// NewRemoteBackend returns a backend talking to the API at baseURL.
func NewRemoteBackend(baseURL string, opts ...RemoteOption) *RemoteBackend {
	b := &RemoteBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mode implements Backend.
func (b *RemoteBackend) Mode() models.StorageMode { return models.StorageD1 }

// envelope is the response shape of the settings API.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Load implements Backend. A response without success or data counts as
// nothing stored.
func (b *RemoteBackend) Load(ctx context.Context) (json.RawMessage, error) {
	resp, err := b.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data, nil
}

// Save implements Backend.
func (b *RemoteBackend) Save(ctx context.Context, cfg models.SiteConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal site config: %w", err)
	}
	_, err = b.do(ctx, http.MethodPost, body)
	return err
}

func (b *RemoteBackend) do(ctx context.Context, method string, body []byte) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+SettingsPath, reader)
	if err != nil {
		return nil, fmt.Errorf("build settings request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	if b.otp != "" {
		req.Header.Set("X-Admin-OTP", b.otp)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read settings response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode != http.StatusOK {
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %d %s", ErrRemoteStatus, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode settings response: %w", decodeErr)
	}
	return &env, nil
}
