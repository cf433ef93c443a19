package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

var testTransform = GeoTransform{500000, 10, 0, 4200000, 0, -10}

const testCRS = "EPSG:32611"

func newTestRaster(t *testing.T, rows, cols int, values ...float64) Raster {
	t.Helper()
	r, err := NewRasterFromData(Shape{Rows: rows, Cols: cols}, values, testTransform, testCRS)
	require.NoError(t, err)
	return r
}

// sameNaNAware compares two buffers treating NaN as equal to NaN.
func sameNaNAware(t *testing.T, want, got []float64, delta float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			require.Truef(t, math.IsNaN(got[i]), "pixel %d: want NaN, got %v", i, got[i])
			continue
		}
		require.InDeltaf(t, want[i], got[i], delta, "pixel %d", i)
	}
}
