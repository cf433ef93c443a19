package domain

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	labelLow      = "Low Severity"
	labelModerate = "Moderate Severity"
)

func TestClassOf_DefaultBands(t *testing.T) {
	tests := []struct {
		name  string
		dnbr  float64
		label string
	}{
		{"lowest bound", -0.500, "Enhanced Regrowth"},
		{"high regrowth", -0.2, "High Regrowth"},
		{"unburned lower bound", -0.100, "Unburned"},
		{"zero", 0, "Unburned"},
		{"low lower bound inclusive", 0.100, labelLow},
		{"low interior", 0.2, labelLow},
		{"moderate lower bound exclusive on low", 0.270, labelModerate},
		{"high lower bound", 0.660, "High Severity"},
		{"burn scenario", 0.9333, "High Severity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := DefaultBands.ClassOf(tt.dnbr)
			require.NotEqual(t, NoClass, class)
			assert.Equal(t, tt.label, DefaultBands[class].Label)
		})
	}
}

func TestClassOf_Sentinel(t *testing.T) {
	for _, v := range []float64{-0.5001, 1.300, 2, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equalf(t, NoClass, DefaultBands.ClassOf(v), "value %v", v)
	}
}

func TestClassify_TotalOverDomain(t *testing.T) {
	values := make([]float64, 0, 180)
	for i := 0; i < 180; i++ {
		values = append(values, -0.5+float64(i)*0.01)
	}
	dnbr := newTestRaster(t, 1, len(values), values...)

	classes := Classify(dnbr, DefaultBands)

	for i, c := range classes.Values() {
		require.Lessf(t, int(c), len(DefaultBands), "value %v got class %d", values[i], c)
		band := DefaultBands[c]
		assert.True(t, band.Contains(values[i]))
	}
}

func TestClassify_PreservesGrid(t *testing.T) {
	dnbr := newTestRaster(t, 2, 2, 0.1, 0.27, nan, 5)

	classes := Classify(dnbr, DefaultBands)

	assert.Equal(t, dnbr.Shape(), classes.Shape())
	assert.Equal(t, dnbr.Transform(), classes.Transform())
	assert.Equal(t, dnbr.CRS(), classes.CRS())
	assert.Equal(t, []uint8{3, 4, NoClass, NoClass}, classes.Values())
}

func TestClassify_FirstMatchWins(t *testing.T) {
	overlapping := BandTable{
		{Label: "a", Lower: 0, Upper: 1},
		{Label: "b", Lower: 0.5, Upper: 2},
	}
	dnbr := newTestRaster(t, 1, 3, 0.7, 1.5, 3)

	classes := Classify(dnbr, overlapping)

	assert.Equal(t, []uint8{0, 1, NoClass}, classes.Values())
}

func TestSplitModerateBands(t *testing.T) {
	tests := []struct {
		dnbr  float64
		label string
	}{
		{-3, "Enhanced Regrowth"},
		{-0.10, "Unburned"},
		{0.30, "Moderate-Low"},
		{0.44, "Moderate-High"},
		{0.66, "High Severity"},
		{7, "High Severity"},
	}
	for _, tt := range tests {
		class := SplitModerateBands.ClassOf(tt.dnbr)
		require.NotEqual(t, NoClass, class)
		assert.Equal(t, tt.label, SplitModerateBands[class].Label)
	}
	assert.Equal(t, NoClass, SplitModerateBands.ClassOf(math.NaN()))
}

func TestBandTable_Check(t *testing.T) {
	assert.Empty(t, DefaultBands.Check())
	assert.Empty(t, SplitModerateBands.Check())

	bad := BandTable{
		{Label: "a", Lower: 0, Upper: 1},
		{Label: "b", Lower: 0.5, Upper: 2},
		{Label: "", Lower: 3, Upper: 2},
	}
	issues := bad.Check()
	require.Len(t, issues, 4)
	assert.Contains(t, issues[0], "overlaps")
	assert.Contains(t, issues[1], "no label")
	assert.Contains(t, issues[2], "not below")
	assert.Contains(t, issues[3], "gap")

	assert.Equal(t, []string{"band table is empty"}, BandTable{}.Check())
}

func TestBandTable_OversizedTableNeverClassifiesPastLimit(t *testing.T) {
	table := make(BandTable, 300)
	for i := range table {
		table[i] = SeverityBand{Label: fmt.Sprintf("b%d", i), Lower: float64(i), Upper: float64(i + 1)}
	}

	assert.Equal(t, uint8(254), table.ClassOf(254.5))
	assert.Equal(t, NoClass, table.ClassOf(255.5))
	assert.Equal(t, NoClass, table.ClassOf(256.5))

	issues := table.Check()
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0], "300 bands, at most 255 allowed")
}

func TestBandTableByName(t *testing.T) {
	table, err := BandTableByName(BandTableUSGS)
	require.NoError(t, err)
	assert.Equal(t, DefaultBands, table)

	table, err = BandTableByName(BandTableSplitModerate)
	require.NoError(t, err)
	assert.Equal(t, SplitModerateBands, table)

	_, err = BandTableByName("bogus")
	assert.Error(t, err)
}

func TestBandTable_Lookups(t *testing.T) {
	assert.Equal(t, 3, DefaultBands.Index(labelLow))
	assert.Equal(t, -1, DefaultBands.Index("nope"))
	assert.Len(t, DefaultBands.Labels(), 6)
	assert.Equal(t, "#d73027", DefaultBands[5].Color.Hex())
}
