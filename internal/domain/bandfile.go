package domain

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// bandFile is the YAML layout of a severity band table:
//
//	bands:
//	  - label: Unburned
//	    lower: -0.1
//	    upper: 0.1
//	    color: [255, 255, 190]
//
// Unbounded intervals use -.inf and .inf.
type bandFile struct {
	Bands []struct {
		Label string  `yaml:"label"`
		Lower float64 `yaml:"lower"`
		Upper float64 `yaml:"upper"`
		Color []int   `yaml:"color"`
	} `yaml:"bands"`
}

// LoadBandTable decodes a YAML band table. Structural problems (missing
// bands, bad colors) are errors; interval issues are left to BandTable.Check.
func LoadBandTable(r io.Reader) (BandTable, error) {
	var f bandFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode band table: %w", err)
	}
	if len(f.Bands) == 0 {
		return nil, errors.New("band table has no bands")
	}
	if len(f.Bands) > MaxBands {
		return nil, fmt.Errorf("band table has %d bands, at most %d allowed", len(f.Bands), MaxBands)
	}

	table := make(BandTable, 0, len(f.Bands))
	for i, b := range f.Bands {
		if len(b.Color) != 3 {
			return nil, fmt.Errorf("band %d (%s): color must have 3 components, got %d", i, b.Label, len(b.Color))
		}
		var rgb [3]uint8
		for j, c := range b.Color {
			if c < 0 || c > 255 {
				return nil, fmt.Errorf("band %d (%s): color component %d out of range", i, b.Label, c)
			}
			rgb[j] = uint8(c)
		}
		table = append(table, SeverityBand{
			Label: b.Label,
			Lower: b.Lower,
			Upper: b.Upper,
			Color: RGB{rgb[0], rgb[1], rgb[2]},
		})
	}
	return table, nil
}

// LoadBandTableFile reads a YAML band table from path.
func LoadBandTableFile(path string) (BandTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open band table: %w", err)
	}
	defer f.Close()
	return LoadBandTable(f)
}
