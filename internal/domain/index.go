package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ComputeIndex returns the normalized difference (a−b)/(a+b) per pixel.
// Pixels where either operand is NaN, the sum is zero, or the quotient is not
// finite become NaN. The inputs are not modified.
func ComputeIndex(a, b Raster) (Raster, error) {
	if a.shape != b.shape {
		return Raster{}, shapeMismatch(a.shape, b.shape)
	}
	out := a.derive()
	for i := range out.data {
		out.data[i] = safeNormalizedDifference(a.data[i], b.data[i])
	}
	return out, nil
}

func safeNormalizedDifference(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	sum := a + b
	if sum == 0 {
		return math.NaN()
	}
	v := (a - b) / sum
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN()
	}
	return v
}

// ComputeNBR returns the Normalized Burn Ratio of a NIR/SWIR band pair.
func ComputeNBR(nir, swir Raster) (Raster, error) {
	return ComputeIndex(nir, swir)
}

// ComputeDelta returns pre−post per pixel. NaN in either operand yields NaN.
// The result carries the pre raster's georeferencing.
func ComputeDelta(pre, post Raster) (Raster, error) {
	if pre.shape != post.shape {
		return Raster{}, shapeMismatch(pre.shape, post.shape)
	}
	out := pre.derive()
	floats.SubTo(out.data, pre.data, post.data)
	return out, nil
}
