// Package catalog is an HTTP client for the remote catalog service that
// resolves entity names and serves enrichment content.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/resilience"
	"github.com/LavishGent/linernotes/internal/types"
)

const (
	maxBodyBytes = 1 << 20
	apiKeyHeader = "X-API-Key"
)

type resolveResponse struct {
	ID string `json:"id"`
}

type contentResponse struct {
	Content string `json:"content"`
}

// Client implements types.EntityResolver and types.ContentFetcher over
// JSON HTTP. Every request passes through the guard and has its own timeout.
type Client struct {
	http    *http.Client
	cfg     config.CatalogConfig
	base    *url.URL
	guard   *resilience.Guard
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a catalog client. A nil guard calls the service unprotected.
func New(cfg config.CatalogConfig, guard *resilience.Guard, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog: base URL %q must be absolute", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.MaxIdleConns
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConns
	}

	return &Client{
		http:    &http.Client{Transport: transport},
		cfg:     cfg,
		base:    base,
		guard:   guard,
		logger:  logger.With("component", "catalog", "host", base.Host),
		timeout: cfg.RequestTimeout,
	}, nil
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.http = hc
}

// Host returns the host:port of the catalog, for connectivity probing.
func (c *Client) Host() string {
	if c.base.Port() != "" {
		return c.base.Host
	}
	if c.base.Scheme == "https" {
		return c.base.Host + ":443"
	}
	return c.base.Host + ":80"
}

// Resolve maps a display name to the catalog's entity id.
func (c *Client) Resolve(ctx context.Context, name string) (string, error) {
	u, err := c.endpoint(c.cfg.ResolvePath)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("name", name)
	u.RawQuery = q.Encode()

	var resp resolveResponse
	if err := c.getJSON(ctx, "resolve", u, &resp); err != nil {
		return "", err
	}
	id := strings.TrimSpace(resp.ID)
	if id == "" {
		return "", types.NewError(types.ErrorKind{Kind: types.KindEntityNotFound}, "resolve", fmt.Errorf("no entity for %q", name))
	}
	return id, nil
}

// Fetch loads one slot of content for an entity.
func (c *Client) Fetch(ctx context.Context, entityID string, slot types.ContentType) (string, error) {
	path := strings.NewReplacer(
		"{id}", url.PathEscape(entityID),
		"{type}", url.PathEscape(slot.String()),
	).Replace(c.cfg.ContentPath)

	u, err := c.endpoint(path)
	if err != nil {
		return "", err
	}

	var resp contentResponse
	if err := c.getJSON(ctx, "fetch", u, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", types.NewError(types.ErrorKind{Kind: types.KindNoContentAvailable}, "fetch", fmt.Errorf("empty %s for %s", slot, entityID))
	}
	return resp.Content, nil
}

// endpoint resolves an escaped path relative to the base URL.
func (c *Client) endpoint(escapedPath string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimLeft(escapedPath, "/"))
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid path %q: %w", escapedPath, err)
	}
	return c.base.ResolveReference(ref), nil
}

func (c *Client) getJSON(ctx context.Context, op string, u *url.URL, dest any) error {
	return c.guard.Do(ctx, func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", c.cfg.UserAgent)
		}
		if !c.cfg.APIKey.IsEmpty() {
			req.Header.Set(apiKeyHeader, c.cfg.APIKey.Value())
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Debug("Catalog request failed", "op", op, "error", err)
			return err
		}
		defer resp.Body.Close()

		c.logger.Debug("Catalog response", "op", op, "status", resp.StatusCode, "latency", time.Since(start))

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return &types.StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: u.Path}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, dest); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || len(body) == 0 {
				return types.NewError(types.ErrorKind{Kind: types.KindMalformedResponse}, op, err)
			}
			return err
		}
		return nil
	})
}

var (
	_ types.EntityResolver = (*Client)(nil)
	_ types.ContentFetcher = (*Client)(nil)
)
