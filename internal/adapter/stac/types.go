package stac

import (
	"fmt"
	"time"

	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/paulmach/orb/geojson"
)

// STAC API wire types.

type searchRequest struct {
	Collections []string                      `json:"collections"`
	Intersects  *geojson.Geometry             `json:"intersects"`
	Datetime    string                        `json:"datetime"`
	Limit       int                           `json:"limit"`
	Query       map[string]map[string]float64 `json:"query,omitempty"`
}

type itemCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string                  `json:"type"`
	ID         string                  `json:"id"`
	Collection string                  `json:"collection,omitempty"`
	Geometry   *geojson.Geometry       `json:"geometry"`
	Properties properties              `json:"properties"`
	Assets     map[string]domain.Asset `json:"assets"`
}

type properties struct {
	Datetime   string   `json:"datetime"`
	CloudCover *float64 `json:"eo:cloud_cover,omitempty"`
}

func (f feature) toItem() (domain.Item, error) {
	it := domain.Item{ID: f.ID, Assets: f.Assets}
	if f.Properties.Datetime != "" {
		t, err := time.Parse(time.RFC3339, f.Properties.Datetime)
		if err != nil {
			return domain.Item{}, fmt.Errorf("item %s: parse datetime: %w", f.ID, err)
		}
		it.Datetime = t.UTC()
	}
	if f.Properties.CloudCover != nil {
		it.CloudCover = *f.Properties.CloudCover
	}
	if f.Geometry != nil {
		it.Geometry = f.Geometry.Geometry()
	}
	return it, nil
}

func fromItem(it domain.Item) feature {
	cc := it.CloudCover
	f := feature{
		Type:   "Feature",
		ID:     it.ID,
		Assets: it.Assets,
		Properties: properties{
			CloudCover: &cc,
		},
	}
	if !it.Datetime.IsZero() {
		f.Properties.Datetime = it.Datetime.UTC().Format(time.RFC3339)
	}
	if it.Geometry != nil {
		f.Geometry = geojson.NewGeometry(it.Geometry)
	}
	return f
}

func decodeItems(fc itemCollection) ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(fc.Features))
	for _, f := range fc.Features {
		it, err := f.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
