package stac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/dragonfly/internal/config"
	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/couchcryptid/dragonfly/internal/observability"
	"github.com/paulmach/orb/geojson"
)

// Client searches a STAC API and downloads item assets.
// It implements pipeline.Catalog and pipeline.Downloader.
type Client struct {
	baseURL        string
	searchClient   *http.Client
	downloadClient *http.Client
	maxRetries     int
	retryInterval  time.Duration
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewClient creates a STAC client for the configured API root.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.STACURL, "/"),
		searchClient:   &http.Client{Timeout: cfg.STACTimeout},
		downloadClient: &http.Client{Timeout: cfg.DownloadTimeout},
		maxRetries:     cfg.DownloadMaxRetries,
		retryInterval:  500 * time.Millisecond,
		logger:         logger,
		metrics:        metrics,
	}
}

// Search posts q to {base}/search and decodes the returned features.
// An empty result is not an error.
func (c *Client) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Item, error) {
	items, err := c.search(ctx, q)
	switch {
	case err != nil:
		c.metrics.CatalogRequests.WithLabelValues("error").Inc()
	case len(items) == 0:
		c.metrics.CatalogRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.CatalogRequests.WithLabelValues("success").Inc()
	}
	return items, err
}

func (c *Client) search(ctx context.Context, q domain.SearchQuery) ([]domain.Item, error) {
	payload := searchRequest{
		Collections: q.Collections,
		Datetime:    q.Window.Interval(),
		Limit:       q.Limit,
		Query:       map[string]map[string]float64{"eo:cloud_cover": {"lt": q.MaxCloudCover}},
	}
	if q.Geometry != nil {
		payload.Intersects = geojson.NewGeometry(q.Geometry)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")

	start := time.Now()
	resp, err := c.searchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stac search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("stac API error: status %d: %s", resp.StatusCode, msg)
	}

	var fc itemCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	items, err := decodeItems(fc)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("stac search complete",
		"window", q.Window.String(),
		"items", len(items),
		"duration", time.Since(start),
	)
	return items, nil
}

// Fetch transfers href to dest and returns dest. HTTP(S) hrefs are streamed
// with retries on transient failures; file:// URLs and bare paths are copied.
// Every failure matches domain.ErrTransferFailure.
func (c *Client) Fetch(ctx context.Context, href, dest string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTransferFailure, err)
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: parse href %q: %w", domain.ErrTransferFailure, href, err)
	}

	var n int64
	switch u.Scheme {
	case "http", "https":
		n, err = c.download(ctx, href, dest)
	case "file":
		n, err = copyLocal(u.Path, dest)
	case "":
		n, err = copyLocal(href, dest)
	default:
		err = fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrTransferFailure, href, err)
	}

	c.metrics.DownloadBytes.Add(float64(n))
	c.logger.Debug("asset fetched", "href", href, "dest", dest, "bytes", n)
	return dest, nil
}

func (c *Client) download(ctx context.Context, href, dest string) (int64, error) {
	var n int64
	op := func() error {
		var err error
		n, err = c.downloadOnce(ctx, href, dest)
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("asset download failed", "href", href, "error", err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return 0, err
	}
	return n, nil
}

// statusError is a non-2xx download response.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

func (c *Client) downloadOnce(ctx context.Context, href, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		serr := &statusError{code: resp.StatusCode}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return 0, backoff.Permanent(serr)
		}
		return 0, serr
	}
	return writeAtomic(dest, resp.Body)
}

func copyLocal(src, dest string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return writeAtomic(dest, f)
}

// writeAtomic streams r into a temp file next to dest and renames it into
// place, so dest is either absent or complete.
func writeAtomic(dest string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dest)
	}
	if err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck // cleanup of a failed transfer
		return 0, err
	}
	return n, nil
}

// IsStatus reports whether err carries the given download status code.
func IsStatus(err error, code int) bool {
	var serr *statusError
	return errors.As(err, &serr) && serr.code == code
}
