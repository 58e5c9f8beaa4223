package extpower

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jamesprial/nas-power-mcp/internal/config"
	"github.com/jamesprial/nas-power-mcp/internal/power"
)

const defaultTimeout = 5 * time.Second

// Compile-time interface check.
var _ power.ExternalProvider = (*HTTPProvider)(nil)

// HTTPProvider implements power.ExternalProvider by querying a Home Assistant
// style REST API for the state of a power sensor entity.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	entity     string
	token      string
}

// NewHTTPProvider constructs an HTTPProvider from the provided
// ExternalPowerConfig. It returns an error if cfg.URL or cfg.Entity is empty;
// callers treat that as "no external source configured". When cfg.Timeout is
// zero or negative, a default timeout of 5 seconds is used.
func NewHTTPProvider(cfg config.ExternalPowerConfig) (*HTTPProvider, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("extpower: URL is required")
	}
	if cfg.Entity == "" {
		return nil, fmt.Errorf("extpower: entity is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		entity:     cfg.Entity,
		token:      cfg.Token,
	}, nil
}

// Reading fetches the current sensor state and returns it as an
// ExternalReading. An offline sensor, transport failure, non-2xx status, or
// non-numeric state value is reported as an error; the caller then falls back
// to internal estimation.
func (p *HTTPProvider) Reading(ctx context.Context) (*power.ExternalReading, error) {
	url := p.baseURL + "/states/" + p.entity

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("extpower: create request: %w", err)
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extpower: fetch %s: %w", p.entity, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("extpower: fetch %s: unexpected status %d", p.entity, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("extpower: read response: %w", err)
	}

	var state sensorState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("extpower: parse response: %w", err)
	}

	watts, err := strconv.ParseFloat(state.State, 64)
	if err != nil {
		return nil, fmt.Errorf("extpower: sensor %s state %q is not numeric", p.entity, state.State)
	}

	// Pass the sensor payload through so the breakdown carries it verbatim.
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		raw = map[string]any{"state": state.State}
	}

	return &power.ExternalReading{
		Watts: &watts,
		Raw:   raw,
	}, nil
}
