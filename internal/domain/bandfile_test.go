package domain

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const splitModerateYAML = `
bands:
  - label: Enhanced Regrowth
    lower: -.inf
    upper: -0.10
    color: [0, 0, 255]
  - label: Unburned
    lower: -0.10
    upper: 0.10
    color: [127, 255, 0]
  - label: Low Severity
    lower: 0.10
    upper: 0.27
    color: [255, 255, 0]
  - label: Moderate-Low
    lower: 0.27
    upper: 0.44
    color: [255, 165, 0]
  - label: Moderate-High
    lower: 0.44
    upper: 0.66
    color: [255, 69, 0]
  - label: High Severity
    lower: 0.66
    upper: .inf
    color: [139, 0, 0]
`

func TestLoadBandTable(t *testing.T) {
	table, err := LoadBandTable(strings.NewReader(splitModerateYAML))
	require.NoError(t, err)

	assert.Equal(t, SplitModerateBands, table)
	assert.True(t, math.IsInf(table[0].Lower, -1))
	assert.Empty(t, table.Check())
}

func TestLoadBandTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"no bands", "bands: []", "no bands"},
		{"short color", "bands:\n  - {label: a, lower: 0, upper: 1, color: [1, 2]}", "3 components"},
		{"color range", "bands:\n  - {label: a, lower: 0, upper: 1, color: [1, 2, 300]}", "out of range"},
		{"bad yaml", "bands: [", "decode band table"},
		{"too many bands", manyBandsYAML(MaxBands + 1), "at most 255 allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBandTable(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

// manyBandsYAML builds a contiguous table of n unit-wide bands starting at 0.
func manyBandsYAML(n int) string {
	var b strings.Builder
	b.WriteString("bands:\n")
	for i := range n {
		fmt.Fprintf(&b, "  - {label: b%d, lower: %d, upper: %d, color: [0, 0, 0]}\n", i, i, i+1)
	}
	return b.String()
}

func TestLoadBandTable_AcceptsMaxBands(t *testing.T) {
	table, err := LoadBandTable(strings.NewReader(manyBandsYAML(MaxBands)))
	require.NoError(t, err)
	require.Len(t, table, MaxBands)
	assert.Empty(t, table.Check())
	assert.Equal(t, uint8(MaxBands-1), table.ClassOf(float64(MaxBands)-0.5))
}
