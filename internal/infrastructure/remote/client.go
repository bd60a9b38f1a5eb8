// Package remote resolves partial addresses against jurisdiction
// property-record services, with retry, rate limiting and per-dialect
// response decoding.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ParcelScanner/internal/address"
	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/jurisdiction"
	"ParcelScanner/internal/ports"
)

// Client issues parameterized lookups against jurisdiction record services.
// Control flow is identical across jurisdictions; every dialect difference
// lives in the schema config.
type Client struct {
	http     *http.Client
	limiter  *rate.Limiter
	policy   RetryPolicy
	registry *Registry
	logger   *slog.Logger
}

var _ ports.PropertyLookup = (*Client)(nil)

// NewClient builds a lookup client. Nil arguments fall back to sane defaults;
// a nil limiter means unthrottled.
func NewClient(httpClient *http.Client, limiter *rate.Limiter, policy RetryPolicy, registry *Registry, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:     httpClient,
		limiter:  limiter,
		policy:   policy.normalized(),
		registry: registry,
		logger:   logger,
	}
}

// Lookup queries the jurisdiction's record service for a partial address and
// returns the first candidate whose situs address matches it. No candidate is
// (nil, nil); exhausted retries surface as an error for this address only.
func (c *Client) Lookup(ctx context.Context, partialAddress string, cfg jurisdiction.Config) (*domain.CanonicalRecord, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("jurisdiction %s has no remote endpoint", cfg.ID)
	}

	parts := address.Parse(partialAddress)
	if parts.Street == "" {
		return nil, nil
	}

	endpoint := renderEndpoint(cfg, parts)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("lookup %s against %s: %w", partialAddress, cfg.ID, err)
	}

	decoder, err := c.registry.Resolve(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	candidates, err := decoder.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", cfg.ID, err)
	}

	for _, raw := range candidates {
		rec := cfg.Canonicalize(raw)
		if m := address.Match(partialAddress, rec.SitusAddress); m.Matched {
			c.logger.Debug("lookup matched",
				"jurisdiction", cfg.ID, "address", partialAddress, "reason", m.Reason)
			return &rec, nil
		}
	}
	return nil, nil
}

// renderEndpoint fills the config's endpoint template with a WHERE-style
// predicate over the jurisdiction's wire address field and the return field
// list.
func renderEndpoint(cfg jurisdiction.Config, parts address.Parts) string {
	needle := strings.TrimSpace(parts.Number + " " + parts.Street)
	needle = strings.ReplaceAll(needle, "'", "''")
	predicate := fmt.Sprintf("UPPER(%s) LIKE '%s%%'", cfg.QueryFields.Address, needle)

	endpoint := strings.ReplaceAll(cfg.Endpoint, "{where}", url.QueryEscape(predicate))
	endpoint = strings.ReplaceAll(endpoint, "{fields}", url.QueryEscape(strings.Join(cfg.QueryFields.Returns, ",")))
	return endpoint
}

// get performs a GET with bounded retries. Transport failures, 5xx and 429
// are retried under the policy's backoff schedule; any other non-200 answer
// is final.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.policy.Delay(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			c.logger.Debug("retrying lookup", "attempt", attempt+1, "error", lastErr)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "ParcelScanner/1.0")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("remote returned %s", resp.Status)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("remote returned %s", resp.Status)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", c.policy.MaxAttempts, lastErr)
}
