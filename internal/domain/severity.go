package domain

import (
	"fmt"
	"math"
)

// RGB is an 8-bit display color.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// SeverityBand is one labeled half-open dNBR interval [Lower, Upper).
type SeverityBand struct {
	Label string
	Lower float64
	Upper float64
	Color RGB
}

// Contains reports whether v lies in [Lower, Upper).
func (b SeverityBand) Contains(v float64) bool {
	return v >= b.Lower && v < b.Upper
}

// BandTable is the ordered list of severity bands. Its positions are the class
// indices written by Classify, so statistics, legends, and overlays all index
// into the same table.
type BandTable []SeverityBand

// DefaultBands is the canonical USGS dNBR severity table.
var DefaultBands = BandTable{
	{Label: "Enhanced Regrowth", Lower: -0.500, Upper: -0.250, Color: RGB{26, 152, 80}},
	{Label: "High Regrowth", Lower: -0.250, Upper: -0.100, Color: RGB{102, 189, 99}},
	{Label: "Unburned", Lower: -0.100, Upper: 0.100, Color: RGB{255, 255, 190}},
	{Label: "Low Severity", Lower: 0.100, Upper: 0.270, Color: RGB{253, 174, 97}},
	{Label: "Moderate Severity", Lower: 0.270, Upper: 0.660, Color: RGB{244, 109, 67}},
	{Label: "High Severity", Lower: 0.660, Upper: 1.300, Color: RGB{215, 48, 39}},
}

// SplitModerateBands splits moderate severity at 0.44 and leaves the lowest
// and highest classes unbounded. It is kept as a named alternative to
// DefaultBands, not merged with it.
var SplitModerateBands = BandTable{
	{Label: "Enhanced Regrowth", Lower: math.Inf(-1), Upper: -0.10, Color: RGB{0, 0, 255}},
	{Label: "Unburned", Lower: -0.10, Upper: 0.10, Color: RGB{127, 255, 0}},
	{Label: "Low Severity", Lower: 0.10, Upper: 0.27, Color: RGB{255, 255, 0}},
	{Label: "Moderate-Low", Lower: 0.27, Upper: 0.44, Color: RGB{255, 165, 0}},
	{Label: "Moderate-High", Lower: 0.44, Upper: 0.66, Color: RGB{255, 69, 0}},
	{Label: "High Severity", Lower: 0.66, Upper: math.Inf(1), Color: RGB{139, 0, 0}},
}

// Band table names accepted by BandTableByName.
const (
	BandTableUSGS          = "usgs"
	BandTableSplitModerate = "split-moderate"
)

// BandTableByName returns a built-in table.
func BandTableByName(name string) (BandTable, error) {
	switch name {
	case BandTableUSGS, "":
		return DefaultBands, nil
	case BandTableSplitModerate:
		return SplitModerateBands, nil
	default:
		return nil, fmt.Errorf("unknown severity table %q", name)
	}
}

// ClassOf returns the index of the first band containing v, or NoClass.
// Bands past MaxBands are never matched.
func (t BandTable) ClassOf(v float64) uint8 {
	if math.IsNaN(v) {
		return NoClass
	}
	for i, b := range t[:min(len(t), MaxBands)] {
		if b.Contains(v) {
			return uint8(i)
		}
	}
	return NoClass
}

// Labels returns the band labels in table order.
func (t BandTable) Labels() []string {
	labels := make([]string, len(t))
	for i, b := range t {
		labels[i] = b.Label
	}
	return labels
}

// Index returns the position of the band with the given label, or -1.
func (t BandTable) Index(label string) int {
	for i, b := range t {
		if b.Label == label {
			return i
		}
	}
	return -1
}

// Check reports configuration problems: empty labels, inverted bounds,
// overlaps, and gaps between consecutive bands. Overlaps are not fatal to
// classification (the first matching band wins) but usually indicate a typo.
func (t BandTable) Check() []string {
	var issues []string
	if len(t) == 0 {
		return []string{"band table is empty"}
	}
	if len(t) > MaxBands {
		issues = append(issues, fmt.Sprintf("band table has %d bands, at most %d allowed", len(t), MaxBands))
	}
	for i, b := range t {
		if b.Label == "" {
			issues = append(issues, fmt.Sprintf("band %d has no label", i))
		}
		if !(b.Lower < b.Upper) {
			issues = append(issues, fmt.Sprintf("band %d (%s): lower %.3f is not below upper %.3f", i, b.Label, b.Lower, b.Upper))
		}
		if i == 0 {
			continue
		}
		prev := t[i-1]
		switch {
		case b.Lower < prev.Upper:
			issues = append(issues, fmt.Sprintf("band %d (%s) overlaps band %d (%s) on [%.3f, %.3f)", i, b.Label, i-1, prev.Label, b.Lower, prev.Upper))
		case b.Lower > prev.Upper:
			issues = append(issues, fmt.Sprintf("gap between band %d (%s) and band %d (%s) on [%.3f, %.3f)", i-1, prev.Label, i, b.Label, prev.Upper, b.Lower))
		}
	}
	return issues
}

// Classify assigns each dNBR pixel the index of the first band in table order
// containing it. NaN pixels and values outside every band get NoClass.
func Classify(dnbr Raster, bands BandTable) ClassRaster {
	out := ClassRaster{
		shape:     dnbr.shape,
		data:      make([]uint8, dnbr.shape.Len()),
		transform: dnbr.transform,
		crs:       dnbr.crs,
	}
	for i, v := range dnbr.data {
		out.data[i] = bands.ClassOf(v)
	}
	return out
}
