package domain

import (
	"fmt"
	"math"
)

// Shape is the pixel dimensions of a raster.
type Shape struct {
	Rows int
	Cols int
}

// Len returns the number of pixels.
func (s Shape) Len() int { return s.Rows * s.Cols }

func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Rows, s.Cols) }

// GeoTransform maps pixel coordinates to geographic coordinates, in GDAL order:
//
//	x = t[0] + col*t[1] + row*t[2]
//	y = t[3] + col*t[4] + row*t[5]
type GeoTransform [6]float64

// IdentityTransform maps pixel (col, row) to (col, row).
var IdentityTransform = GeoTransform{0, 1, 0, 0, 0, 1}

// Apply returns the geographic coordinate of the pixel corner at (col, row).
func (t GeoTransform) Apply(col, row float64) (x, y float64) {
	return t[0] + col*t[1] + row*t[2], t[3] + col*t[4] + row*t[5]
}

// Scale composes t with a pixel scaling of (sx, sy). The origin is kept and
// only the pixel pitch changes.
func (t GeoTransform) Scale(sx, sy float64) GeoTransform {
	return GeoTransform{t[0], t[1] * sx, t[2] * sy, t[3], t[4] * sx, t[5] * sy}
}

// Raster is a 2-D float64 grid with its georeferencing. The shape is fixed at
// construction; pixel values are stored row-major.
type Raster struct {
	shape     Shape
	data      []float64
	transform GeoTransform
	crs       string
}

// NewRaster allocates a zero-filled raster.
func NewRaster(shape Shape, transform GeoTransform, crs string) Raster {
	return Raster{
		shape:     shape,
		data:      make([]float64, shape.Len()),
		transform: transform,
		crs:       crs,
	}
}

// NewRasterFromData wraps data (row-major, len rows*cols) without copying.
func NewRasterFromData(shape Shape, data []float64, transform GeoTransform, crs string) (Raster, error) {
	if shape.Rows <= 0 || shape.Cols <= 0 {
		return Raster{}, fmt.Errorf("invalid raster shape %s", shape)
	}
	if len(data) != shape.Len() {
		return Raster{}, fmt.Errorf("raster data length %d does not match shape %s", len(data), shape)
	}
	return Raster{shape: shape, data: data, transform: transform, crs: crs}, nil
}

// Shape returns the raster dimensions.
func (r Raster) Shape() Shape { return r.shape }

// Transform returns the geotransform.
func (r Raster) Transform() GeoTransform { return r.transform }

// CRS returns the coordinate reference system identifier.
func (r Raster) CRS() string { return r.crs }

// Values exposes the row-major pixel buffer. Callers must not retain it past
// the raster's owner or resize it.
func (r Raster) Values() []float64 { return r.data }

// At returns the value at (row, col).
func (r Raster) At(row, col int) float64 { return r.data[row*r.shape.Cols+col] }

// Set writes v at (row, col).
func (r Raster) Set(row, col int, v float64) { r.data[row*r.shape.Cols+col] = v }

// Clone returns a deep copy with its own buffer.
func (r Raster) Clone() Raster {
	data := make([]float64, len(r.data))
	copy(data, r.data)
	return Raster{shape: r.shape, data: data, transform: r.transform, crs: r.crs}
}

// CoRegistered reports whether r and o share shape and transform.
func (r Raster) CoRegistered(o Raster) bool {
	return r.shape == o.shape && r.transform == o.transform
}

// derive allocates an output raster sharing r's georeferencing.
func (r Raster) derive() Raster {
	return NewRaster(r.shape, r.transform, r.crs)
}

// Scale returns a copy of r with every value divided by factor. It converts
// stored digital numbers into reflectance.
func Scale(r Raster, factor float64) Raster {
	out := r.derive()
	for i, v := range r.data {
		out.data[i] = v / factor
	}
	return out
}

// ValidCount returns the number of non-NaN pixels.
func (r Raster) ValidCount() int {
	n := 0
	for _, v := range r.data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// NoClass marks pixels that fall in no severity band or are NaN.
const NoClass uint8 = 255

// MaxBands is the largest band table whose indices stay clear of NoClass.
const MaxBands = int(NoClass)

// ClassRaster holds one severity-band index per pixel.
type ClassRaster struct {
	shape     Shape
	data      []uint8
	transform GeoTransform
	crs       string
}

// Shape returns the raster dimensions.
func (c ClassRaster) Shape() Shape { return c.shape }

// Transform returns the geotransform.
func (c ClassRaster) Transform() GeoTransform { return c.transform }

// CRS returns the coordinate reference system identifier.
func (c ClassRaster) CRS() string { return c.crs }

// Values exposes the row-major class buffer.
func (c ClassRaster) Values() []uint8 { return c.data }

// At returns the class index at (row, col).
func (c ClassRaster) At(row, col int) uint8 { return c.data[row*c.shape.Cols+col] }
