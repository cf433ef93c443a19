package stac

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/dragonfly/internal/domain"
)

// FileCatalog serves searches from a STAC ItemCollection on disk, such as the
// scenes written by genmock or a previous run's exported search result.
// Relative asset hrefs resolve against the collection file's directory.
type FileCatalog struct {
	items       []domain.Item
	collections []string
}

// NewFileCatalog loads the ItemCollection at path.
func NewFileCatalog(path string) (*FileCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var fc itemCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}

	base := filepath.Dir(path)
	cat := &FileCatalog{}
	for _, f := range fc.Features {
		it, err := f.toItem()
		if err != nil {
			return nil, err
		}
		it.Assets = resolveAssets(base, it.Assets)
		cat.items = append(cat.items, it)
		cat.collections = append(cat.collections, f.Collection)
	}
	return cat, nil
}

func resolveAssets(base string, assets map[string]domain.Asset) map[string]domain.Asset {
	out := make(map[string]domain.Asset, len(assets))
	for k, a := range assets {
		if !strings.Contains(a.Href, "://") && !filepath.IsAbs(a.Href) {
			a.Href = filepath.Join(base, a.Href)
		}
		out[k] = a
	}
	return out
}

// Search returns items acquired inside the window whose footprint bounds
// intersect the query geometry's bounds and whose cloud cover is below the limit.
// Items without a collection match any requested collection.
func (c *FileCatalog) Search(_ context.Context, q domain.SearchQuery) ([]domain.Item, error) {
	var out []domain.Item
	for i, it := range c.items {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		if coll := c.collections[i]; coll != "" && len(q.Collections) > 0 && !slices.Contains(q.Collections, coll) {
			continue
		}
		if !q.Window.Contains(it.Datetime) {
			continue
		}
		if it.CloudCover >= q.MaxCloudCover {
			continue
		}
		if q.Geometry != nil && it.Geometry != nil && !q.Geometry.Bound().Intersects(it.Geometry.Bound()) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}
