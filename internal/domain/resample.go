package domain

import "math"

// Resampler fills dst (shape dstShape) from src (shape srcShape). Both
// buffers are row-major.
type Resampler interface {
	Resample(src []float64, srcShape Shape, dst []float64, dstShape Shape)
}

var (
	// Bilinear interpolates between the four nearest source pixel centres.
	// Any contributing NaN neighbour makes the output pixel NaN.
	Bilinear Resampler = bilinear{}

	// Nearest copies the source pixel whose centre is closest. It is used for
	// categorical layers, where interpolated values have no meaning.
	Nearest Resampler = nearest{}
)

// ResampleTo returns src resampled onto a grid of the target shape covering
// the same extent. The transform keeps the source origin and rescales the
// pixel pitch by (srcCols/dstCols, srcRows/dstRows). A nil method selects
// Bilinear. When the shapes already match a copy of src is returned.
func ResampleTo(src Raster, target Shape, method Resampler) Raster {
	if method == nil {
		method = Bilinear
	}
	if src.shape == target {
		return src.Clone()
	}
	sx := float64(src.shape.Cols) / float64(target.Cols)
	sy := float64(src.shape.Rows) / float64(target.Rows)
	out := NewRaster(target, src.transform.Scale(sx, sy), src.crs)
	method.Resample(src.data, src.shape, out.data, target)
	return out
}

// sourceCoord maps a destination pixel centre to a continuous source
// coordinate (pixel-centre aligned), clamped to the valid sample range.
func sourceCoord(dst int, ratio float64, srcLen int) float64 {
	c := (float64(dst)+0.5)*ratio - 0.5
	if c < 0 {
		return 0
	}
	if hi := float64(srcLen - 1); c > hi {
		return hi
	}
	return c
}

type bilinear struct{}

func (bilinear) Resample(src []float64, srcShape Shape, dst []float64, dstShape Shape) {
	rx := float64(srcShape.Cols) / float64(dstShape.Cols)
	ry := float64(srcShape.Rows) / float64(dstShape.Rows)

	for r := 0; r < dstShape.Rows; r++ {
		y := sourceCoord(r, ry, srcShape.Rows)
		y0 := int(math.Floor(y))
		y1 := min(y0+1, srcShape.Rows-1)
		fy := y - float64(y0)

		for c := 0; c < dstShape.Cols; c++ {
			x := sourceCoord(c, rx, srcShape.Cols)
			x0 := int(math.Floor(x))
			x1 := min(x0+1, srcShape.Cols-1)
			fx := x - float64(x0)

			dst[r*dstShape.Cols+c] = blend(
				src[y0*srcShape.Cols+x0], src[y0*srcShape.Cols+x1],
				src[y1*srcShape.Cols+x0], src[y1*srcShape.Cols+x1],
				fx, fy,
			)
		}
	}
}

// blend interpolates four corner samples. Corners with zero weight are
// ignored so a NaN only spreads into pixels it actually contributes to.
func blend(v00, v01, v10, v11, fx, fy float64) float64 {
	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	values := [4]float64{v00, v01, v10, v11}

	var sum float64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		if math.IsNaN(values[i]) {
			return math.NaN()
		}
		sum += w * values[i]
	}
	return sum
}

type nearest struct{}

func (nearest) Resample(src []float64, srcShape Shape, dst []float64, dstShape Shape) {
	rx := float64(srcShape.Cols) / float64(dstShape.Cols)
	ry := float64(srcShape.Rows) / float64(dstShape.Rows)

	for r := 0; r < dstShape.Rows; r++ {
		sr := min(int((float64(r)+0.5)*ry), srcShape.Rows-1)
		for c := 0; c < dstShape.Cols; c++ {
			sc := min(int((float64(c)+0.5)*rx), srcShape.Cols-1)
			dst[r*dstShape.Cols+c] = src[sr*srcShape.Cols+sc]
		}
	}
}
