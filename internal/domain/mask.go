package domain

import "math"

// DefaultCloudClasses are the SCL categories excluded from analysis: cloud
// medium and high probability, thin cirrus, and snow/ice.
var DefaultCloudClasses = []int{8, 9, 10, 11}

// Mask flags pixels excluded from analysis.
type Mask struct {
	shape    Shape
	excluded []bool
}

// Shape returns the mask dimensions.
func (m Mask) Shape() Shape { return m.shape }

// Excluded reports whether the pixel at (row, col) is masked.
func (m Mask) Excluded(row, col int) bool { return m.excluded[row*m.shape.Cols+col] }

// Count returns the number of masked pixels.
func (m Mask) Count() int {
	n := 0
	for _, e := range m.excluded {
		if e {
			n++
		}
	}
	return n
}

// BuildExclusionMask marks pixels of a categorical raster whose category is in
// excluded. When the raster is not on the target grid it is resampled first
// with method (nil selects Nearest). A bilinear method blends neighbouring
// categories; values are rounded to the nearest integer before the membership
// test, which is an approximation at class boundaries.
func BuildExclusionMask(categorical Raster, target Shape, excluded []int, method Resampler) Mask {
	if method == nil {
		method = Nearest
	}
	if categorical.shape != target {
		categorical = ResampleTo(categorical, target, method)
	}

	set := make(map[int]struct{}, len(excluded))
	for _, c := range excluded {
		set[c] = struct{}{}
	}

	m := Mask{shape: target, excluded: make([]bool, target.Len())}
	for i, v := range categorical.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if _, ok := set[int(math.Round(v))]; ok {
			m.excluded[i] = true
		}
	}
	return m
}

// ApplyMask writes NaN into every masked pixel of r, in place. Applying the
// same mask again leaves r unchanged.
func ApplyMask(r *Raster, m Mask) error {
	if r.shape != m.shape {
		return shapeMismatch(r.shape, m.shape)
	}
	for i, e := range m.excluded {
		if e {
			r.data[i] = math.NaN()
		}
	}
	return nil
}
