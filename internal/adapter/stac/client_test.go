package stac

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/couchcryptid/dragonfly/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:        baseURL,
		searchClient:   &http.Client{Timeout: 5 * time.Second},
		downloadClient: &http.Client{Timeout: 5 * time.Second},
		maxRetries:     2,
		retryInterval:  time.Millisecond,
		metrics:        observability.NewMetricsForTesting(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testQuery(t *testing.T) domain.SearchQuery {
	t.Helper()
	aoi, err := domain.BoundingBox(-120.5, 38.0, -120.0, 38.5)
	require.NoError(t, err)
	w, err := domain.ParseTimeWindow("2023-07-01/2023-07-15")
	require.NoError(t, err)
	return domain.SearchQuery{
		Geometry:      aoi.Geometry,
		Window:        w,
		Collections:   []string{"sentinel-2-l2a"},
		MaxCloudCover: 5,
		Limit:         1,
	}
}

const searchResponse = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "id": "S2A_MSIL2A_20230705",
    "collection": "sentinel-2-l2a",
    "geometry": {"type": "Polygon", "coordinates": [[[-121,37],[-119,37],[-119,39],[-121,39],[-121,37]]]},
    "properties": {"datetime": "2023-07-05T18:40:11Z", "eo:cloud_cover": 1.5},
    "assets": {
      "B08": {"href": "https://example.test/B08.tif", "type": "image/tiff; application=geotiff"},
      "B12": {"href": "https://example.test/B12.tif"}
    }
  }]
}`

func TestClient_Search_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"sentinel-2-l2a"}, body["collections"])
		assert.Equal(t, "2023-07-01T00:00:00Z/2023-07-15T23:59:59Z", body["datetime"])
		assert.EqualValues(t, 1, body["limit"])
		assert.Equal(t, map[string]any{"eo:cloud_cover": map[string]any{"lt": 5.0}}, body["query"])
		intersects, ok := body["intersects"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Polygon", intersects["type"])

		w.Header().Set(headerContentType, "application/geo+json")
		_, _ = io.WriteString(w, searchResponse)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	items, err := c.Search(context.Background(), testQuery(t))
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, "S2A_MSIL2A_20230705", it.ID)
	assert.Equal(t, time.Date(2023, 7, 5, 18, 40, 11, 0, time.UTC), it.Datetime)
	assert.Equal(t, 1.5, it.CloudCover)
	assert.Equal(t, "https://example.test/B08.tif", it.Assets["B08"].Href)
	require.NotNil(t, it.Geometry)
	assert.Equal(t, "Polygon", it.Geometry.GeoJSONType())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.CatalogRequests.WithLabelValues("success")), 0)
}

func TestClient_Search_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[]}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	items, err := c.Search(context.Background(), testQuery(t))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.CatalogRequests.WithLabelValues("empty")), 0)
}

func TestClient_Search_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad collection", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Search(context.Background(), testQuery(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "bad collection")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.CatalogRequests.WithLabelValues("error")), 0)
}

func TestClient_Search_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), testQuery(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Search_BadDatetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"features":[{"id":"x","properties":{"datetime":"yesterday"}}]}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), testQuery(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item x")
}

func TestClient_Fetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "tiff-bytes")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	dest := filepath.Join(t.TempDir(), "pre", "item_B08.tif")
	got, err := c.Fetch(context.Background(), srv.URL+"/B08.tif", dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "tiff-bytes", string(data))
	assert.InDelta(t, 10, testutil.ToFloat64(c.metrics.DownloadBytes), 0)
}

func TestClient_Fetch_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a.tif")
	_, err := testClient(srv.URL).Fetch(context.Background(), srv.URL+"/a.tif", dest)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Fetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a.tif")
	_, err := testClient(srv.URL).Fetch(context.Background(), srv.URL+"/a.tif", dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransferFailure)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
	assert.NoFileExists(t, dest)
}

func TestClient_Fetch_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), srv.URL+"/missing.tif", filepath.Join(t.TempDir(), "m.tif"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransferFailure)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Fetch_LocalPaths(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.tif")
	require.NoError(t, os.WriteFile(src, []byte("local"), 0o600))
	c := testClient("")

	for name, href := range map[string]string{"bare": src, "file-url": "file://" + src} {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(dir, name, "out.tif")
			_, err := c.Fetch(context.Background(), href, dest)
			require.NoError(t, err)
			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Equal(t, "local", string(data))
		})
	}
}

func TestClient_Fetch_Failures(t *testing.T) {
	c := testClient("")
	dir := t.TempDir()

	_, err := c.Fetch(context.Background(), filepath.Join(dir, "absent.tif"), filepath.Join(dir, "out.tif"))
	assert.ErrorIs(t, err, domain.ErrTransferFailure)

	_, err = c.Fetch(context.Background(), "s3://bucket/key.tif", filepath.Join(dir, "out.tif"))
	assert.ErrorIs(t, err, domain.ErrTransferFailure)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestClient_Fetch_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(srv.URL).Fetch(ctx, srv.URL+"/a.tif", filepath.Join(t.TempDir(), "a.tif"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransferFailure)
	assert.True(t, errors.Is(err, context.Canceled))
}
