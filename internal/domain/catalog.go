package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// TimeWindow is an acquisition date range. End is inclusive.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

const dateLayout = "2006-01-02"

// ParseTimeWindow parses "YYYY-MM-DD/YYYY-MM-DD". The end date covers the
// whole day.
func ParseTimeWindow(s string) (TimeWindow, error) {
	start, end, ok := strings.Cut(s, "/")
	if !ok {
		return TimeWindow{}, fmt.Errorf("time window %q: want start/end", s)
	}
	st, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		return TimeWindow{}, fmt.Errorf("time window %q: %w", s, err)
	}
	en, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil {
		return TimeWindow{}, fmt.Errorf("time window %q: %w", s, err)
	}
	w := TimeWindow{Start: st, End: en.Add(24*time.Hour - time.Second)}
	if w.End.Before(w.Start) {
		return TimeWindow{}, fmt.Errorf("time window %q: end before start", s)
	}
	return w, nil
}

// Interval formats the window as an RFC 3339 interval for STAC datetime.
func (w TimeWindow) Interval() string {
	return w.Start.UTC().Format(time.RFC3339) + "/" + w.End.UTC().Format(time.RFC3339)
}

// Contains reports whether t is within the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w TimeWindow) String() string {
	return w.Start.Format(dateLayout) + "/" + w.End.Format(dateLayout)
}

// SearchQuery selects catalog items for one epoch.
type SearchQuery struct {
	Geometry      orb.Geometry
	Window        TimeWindow
	Collections   []string
	MaxCloudCover float64
	Limit         int
}

// Asset is a downloadable file attached to an item.
type Asset struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

// Item is one catalog scene.
type Item struct {
	ID         string           `json:"id"`
	Datetime   time.Time        `json:"datetime"`
	CloudCover float64          `json:"cloud_cover"`
	Assets     map[string]Asset `json:"assets"`
	Geometry   orb.Geometry     `json:"-"`
}

// AssetFor finds the asset for band, falling back to the "B"-prefixed key
// (e.g. "08" resolves to "B08").
func (it Item) AssetFor(band string) (Asset, error) {
	if a, ok := it.Assets[band]; ok {
		return a, nil
	}
	if a, ok := it.Assets["B"+band]; ok {
		return a, nil
	}
	return Asset{}, &MissingAssetError{Band: band, ItemID: it.ID}
}
