// Package leaflet renders RGBA overlays into self-contained Leaflet web maps.
package leaflet

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/paulmach/orb"
)

// Options controls the generated map.
type Options struct {
	// Tiles is a named base layer ("OpenStreetMap", "CartoDB positron",
	// "Esri WorldImagery") or an XYZ URL template containing {z}/{x}/{y}.
	Tiles     string
	Opacity   float64
	LayerName string
	// Legend lists the severity bands shown in the map legend. Optional.
	Legend domain.BandTable
	// LegendTitle heads the legend. Defaults to "Severity".
	LegendTitle string
}

// DefaultOptions are the settings used when fields are left zero.
var DefaultOptions = Options{Tiles: "OpenStreetMap", Opacity: 0.65, LayerName: "dNBR", LegendTitle: "Severity"}

type tileLayer struct {
	URL         string
	Attribution string
}

var namedTiles = map[string]tileLayer{
	"openstreetmap": {
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	},
	"cartodb positron": {
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: `&copy; OpenStreetMap contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
	"esri worldimagery": {
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri",
	},
}

func resolveTiles(name string) (tileLayer, error) {
	if t, ok := namedTiles[strings.ToLower(name)]; ok {
		return t, nil
	}
	if strings.Contains(name, "{z}") && strings.Contains(name, "{x}") && strings.Contains(name, "{y}") {
		return tileLayer{URL: name}, nil
	}
	return tileLayer{}, fmt.Errorf("unknown tile layer %q", name)
}

type legendEntry struct {
	Label string
	Color string
	Range string
}

type page struct {
	Title       string
	LayerName   string
	LegendTitle string
	TileURL     string
	Attribution string
	ImageURL    template.URL
	South       float64
	West        float64
	North       float64
	East        float64
	Opacity     float64
	Legend      []legendEntry
}

// BuildOverlay writes an HTML document that anchors img to the south-west
// and north-east corners of bounds (lon/lat) over the chosen base tiles.
func BuildOverlay(w io.Writer, img image.Image, bounds orb.Bound, opts Options) error {
	if img == nil {
		return errors.New("overlay image is nil")
	}
	if bounds.Min[0] >= bounds.Max[0] || bounds.Min[1] >= bounds.Max[1] {
		return fmt.Errorf("overlay bounds are empty: %v", bounds)
	}
	if opts.Tiles == "" {
		opts.Tiles = DefaultOptions.Tiles
	}
	if opts.LayerName == "" {
		opts.LayerName = DefaultOptions.LayerName
	}
	if opts.LegendTitle == "" {
		opts.LegendTitle = DefaultOptions.LegendTitle
	}
	if opts.Opacity <= 0 || opts.Opacity > 1 {
		opts.Opacity = DefaultOptions.Opacity
	}
	tiles, err := resolveTiles(opts.Tiles)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode overlay png: %w", err)
	}

	p := page{
		Title:       opts.LayerName + " overlay",
		LayerName:   opts.LayerName,
		LegendTitle: opts.LegendTitle,
		TileURL:     tiles.URL,
		Attribution: tiles.Attribution,
		ImageURL:    template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), //nolint:gosec // generated data URI
		South:       bounds.Min[1],
		West:        bounds.Min[0],
		North:       bounds.Max[1],
		East:        bounds.Max[0],
		Opacity:     opts.Opacity,
	}
	for _, b := range opts.Legend {
		p.Legend = append(p.Legend, legendEntry{Label: b.Label, Color: b.Color.Hex(), Range: formatRange(b)})
	}

	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render overlay: %w", err)
	}
	return nil
}

func formatRange(b domain.SeverityBand) string {
	return fmt.Sprintf("[%s, %s)", formatBound(b.Lower), formatBound(b.Upper))
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+∞"
	case math.IsInf(v, -1):
		return "-∞"
	default:
		return fmt.Sprintf("%.3f", v)
	}
}
