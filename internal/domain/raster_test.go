package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRasterFromData(t *testing.T) {
	_, err := NewRasterFromData(Shape{2, 2}, []float64{1, 2, 3}, IdentityTransform, "")
	require.Error(t, err)

	_, err = NewRasterFromData(Shape{0, 2}, nil, IdentityTransform, "")
	require.Error(t, err)

	r := newTestRaster(t, 2, 3, 1, 2, 3, 4, 5, 6)
	assert.Equal(t, 6.0, r.At(1, 2))
	assert.Equal(t, "2x3", r.Shape().String())
}

func TestRaster_CloneIsIndependent(t *testing.T) {
	r := newTestRaster(t, 1, 2, 1, 2)

	c := r.Clone()
	c.Set(0, 1, 42)

	assert.Equal(t, 2.0, r.At(0, 1))
	assert.True(t, r.CoRegistered(c))
}

func TestGeoTransform(t *testing.T) {
	x, y := testTransform.Apply(3, 2)
	assert.Equal(t, 500030.0, x)
	assert.Equal(t, 4199980.0, y)

	scaled := testTransform.Scale(2, 2)
	assert.Equal(t, GeoTransform{500000, 20, 0, 4200000, 0, -20}, scaled)
}

func TestScale(t *testing.T) {
	r := newTestRaster(t, 1, 3, 8000, 0, nan)

	got := Scale(r, 10000)

	sameNaNAware(t, []float64{0.8, 0, nan}, got.Values(), 1e-12)
	assert.Equal(t, 8000.0, r.At(0, 0))
	assert.Equal(t, 2, got.ValidCount())
}
