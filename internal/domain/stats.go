package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Area thresholds on dNBR. Both comparisons are strict.
const (
	BurnedThreshold       = 0.10
	HighSeverityThreshold = 0.66
)

// DefaultPixelSizeM is the Sentinel-2 NIR ground sampling distance.
const DefaultPixelSizeM = 10.0

// PixelAreaKM2 returns the ground area of a square pixel with the given side
// length in metres.
func PixelAreaKM2(pixelSizeM float64) float64 {
	return pixelSizeM * pixelSizeM / 1e6
}

// Statistics summarizes a dNBR raster. Areas and percentages are computed over
// valid (non-NaN) pixels only.
type Statistics struct {
	TotalAreaKM2           float64 `json:"total_area_km2"`
	BurnedAreaKM2          float64 `json:"burned_area_km2"`
	BurnedPercentage       float64 `json:"burned_percentage"`
	HighSeverityKM2        float64 `json:"high_severity_km2"`
	HighSeverityPercentage float64 `json:"high_severity_percentage"`

	ValidPixels int            `json:"valid_pixels"`
	ClassCounts map[string]int `json:"class_counts,omitempty"`
	Mean        float64        `json:"dnbr_mean"`
	StdDev      float64        `json:"dnbr_std"`
	Min         float64        `json:"dnbr_min"`
	Max         float64        `json:"dnbr_max"`
}

// Summary returns the five headline figures keyed by name.
func (s Statistics) Summary() map[string]float64 {
	return map[string]float64{
		"total_area_km2":           s.TotalAreaKM2,
		"burned_area_km2":          s.BurnedAreaKM2,
		"burned_percentage":        s.BurnedPercentage,
		"high_severity_km2":        s.HighSeverityKM2,
		"high_severity_percentage": s.HighSeverityPercentage,
	}
}

// ComputeStatistics derives burn areas from dnbr. classes may be the zero
// ClassRaster, in which case ClassCounts is left empty.
func ComputeStatistics(dnbr Raster, classes ClassRaster, bands BandTable, pixelAreaKM2 float64) Statistics {
	valid := make([]float64, 0, len(dnbr.data))
	var burned, high int
	for _, v := range dnbr.data {
		if math.IsNaN(v) {
			continue
		}
		valid = append(valid, v)
		if v > BurnedThreshold {
			burned++
		}
		if v > HighSeverityThreshold {
			high++
		}
	}

	s := Statistics{
		ValidPixels:     len(valid),
		TotalAreaKM2:    float64(len(valid)) * pixelAreaKM2,
		BurnedAreaKM2:   float64(burned) * pixelAreaKM2,
		HighSeverityKM2: float64(high) * pixelAreaKM2,
	}
	if len(valid) > 0 {
		s.BurnedPercentage = 100 * float64(burned) / float64(len(valid))
		s.HighSeverityPercentage = 100 * float64(high) / float64(len(valid))
		s.Mean, s.StdDev = stat.PopMeanStdDev(valid, nil)
		s.Min = floats.Min(valid)
		s.Max = floats.Max(valid)
	}

	if classes.shape == dnbr.shape && len(classes.data) > 0 {
		s.ClassCounts = make(map[string]int, len(bands))
		for _, b := range bands {
			s.ClassCounts[b.Label] = 0
		}
		for _, c := range classes.data {
			if int(c) < len(bands) {
				s.ClassCounts[bands[c].Label]++
			}
		}
	}
	return s
}
