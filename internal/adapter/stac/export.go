package stac

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/dragonfly/internal/domain"
)

// ExportItems writes items as a STAC ItemCollection. The output can be read
// back with FileCatalog to rerun an analysis against the same scenes.
func ExportItems(w io.Writer, items []domain.Item) error {
	fc := itemCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(items))}
	for _, it := range items {
		fc.Features = append(fc.Features, fromItem(it))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("export items: %w", err)
	}
	return nil
}
