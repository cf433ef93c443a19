package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeIndex(t *testing.T) {
	a := newTestRaster(t, 2, 3, 0.8, 0.3, 0, nan, 0.5, -0.2)
	b := newTestRaster(t, 2, 3, 0.2, 0.6, 0, 0.4, nan, 0.2)

	got, err := ComputeIndex(a, b)
	require.NoError(t, err)

	sameNaNAware(t, []float64{0.6, -1.0 / 3.0, nan, nan, nan, nan}, got.Values(), 1e-12)
	assert.Equal(t, a.Shape(), got.Shape())
	assert.Equal(t, testTransform, got.Transform())
	assert.Equal(t, testCRS, got.CRS())
}

func TestComputeIndex_DoesNotMutateInputs(t *testing.T) {
	a := newTestRaster(t, 1, 2, 0.4, 0)
	b := newTestRaster(t, 1, 2, 0.1, 0)

	_, err := ComputeIndex(a, b)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.4, 0}, a.Values())
	assert.Equal(t, []float64{0.1, 0}, b.Values())
}

func TestComputeIndex_NeverInfinite(t *testing.T) {
	a := newTestRaster(t, 1, 3, math.MaxFloat64, math.Inf(1), 1e-300)
	b := newTestRaster(t, 1, 3, math.MaxFloat64, 1, -1e-300)

	got, err := ComputeIndex(a, b)
	require.NoError(t, err)
	for i, v := range got.Values() {
		assert.Falsef(t, math.IsInf(v, 0), "pixel %d is infinite", i)
	}
}

func TestComputeIndex_ReflectanceRange(t *testing.T) {
	var av, bv []float64
	for i := 0; i <= 10; i++ {
		for j := 0; j <= 10; j++ {
			av = append(av, float64(i)/10)
			bv = append(bv, float64(j)/10)
		}
	}
	a := newTestRaster(t, 11, 11, av...)
	b := newTestRaster(t, 11, 11, bv...)

	got, err := ComputeIndex(a, b)
	require.NoError(t, err)

	for k, v := range got.Values() {
		if av[k]+bv[k] == 0 {
			assert.Truef(t, math.IsNaN(v), "pixel %d: want NaN for zero sum", k)
			continue
		}
		require.Falsef(t, math.IsNaN(v), "pixel %d: unexpected NaN", k)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestComputeIndex_ShapeMismatch(t *testing.T) {
	a := newTestRaster(t, 1, 2, 1, 2)
	b := newTestRaster(t, 2, 1, 1, 2)

	_, err := ComputeIndex(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestComputeDelta(t *testing.T) {
	pre := newTestRaster(t, 1, 4, 0.6, 0.2, nan, 0.1)
	post := newTestRaster(t, 1, 4, -1.0/3.0, 0.2, 0.3, nan)

	got, err := ComputeDelta(pre, post)
	require.NoError(t, err)
	sameNaNAware(t, []float64{0.6 + 1.0/3.0, 0, nan, nan}, got.Values(), 1e-12)
}

func TestComputeDelta_Antisymmetric(t *testing.T) {
	pre := newTestRaster(t, 2, 3, 0.6, -0.2, nan, 0.9, 0, 0.45)
	post := newTestRaster(t, 2, 3, 0.1, 0.4, 0.2, nan, 0, -0.7)

	forward, err := ComputeDelta(pre, post)
	require.NoError(t, err)
	backward, err := ComputeDelta(post, pre)
	require.NoError(t, err)

	negated := make([]float64, len(backward.Values()))
	for i, v := range backward.Values() {
		negated[i] = -v
	}
	sameNaNAware(t, forward.Values(), negated, 0)
}

func TestComputeDelta_ShapeMismatch(t *testing.T) {
	_, err := ComputeDelta(newTestRaster(t, 1, 1, 0), newTestRaster(t, 1, 2, 0, 0))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBurnScenario(t *testing.T) {
	preNIR := Scale(newTestRaster(t, 1, 1, 8000), 10000)
	preSWIR := Scale(newTestRaster(t, 1, 1, 2000), 10000)
	postNIR := Scale(newTestRaster(t, 1, 1, 3000), 10000)
	postSWIR := Scale(newTestRaster(t, 1, 1, 6000), 10000)

	preNBR, err := ComputeNBR(preNIR, preSWIR)
	require.NoError(t, err)
	postNBR, err := ComputeNBR(postNIR, postSWIR)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, preNBR.At(0, 0), 1e-9)
	assert.InDelta(t, -0.3333333, postNBR.At(0, 0), 1e-6)

	dnbr, err := ComputeDelta(preNBR, postNBR)
	require.NoError(t, err)
	assert.InDelta(t, 0.9333333, dnbr.At(0, 0), 1e-6)

	classes := Classify(dnbr, DefaultBands)
	assert.Equal(t, uint8(5), classes.At(0, 0))
	assert.Equal(t, "High Severity", DefaultBands[classes.At(0, 0)].Label)
}
