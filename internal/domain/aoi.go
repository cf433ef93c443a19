package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// AreaOfInterest is the WGS84 footprint an analysis covers.
type AreaOfInterest struct {
	Geometry orb.Geometry
}

// BoundingBox builds a rectangular AOI from lon/lat extremes.
func BoundingBox(minLon, minLat, maxLon, maxLat float64) (AreaOfInterest, error) {
	if minLon >= maxLon || minLat >= maxLat {
		return AreaOfInterest{}, fmt.Errorf("invalid bounding box [%g, %g, %g, %g]", minLon, minLat, maxLon, maxLat)
	}
	b := orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
	return AreaOfInterest{Geometry: b.ToPolygon()}, nil
}

// ParseBoundingBox parses "minLon,minLat,maxLon,maxLat".
func ParseBoundingBox(s string) (AreaOfInterest, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return AreaOfInterest{}, fmt.Errorf("bounding box %q: want minLon,minLat,maxLon,maxLat", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return AreaOfInterest{}, fmt.Errorf("bounding box %q: %w", s, err)
		}
		v[i] = f
	}
	return BoundingBox(v[0], v[1], v[2], v[3])
}

// AOIFromGeoJSON accepts a GeoJSON geometry, Feature, or FeatureCollection.
// For collections the first feature's geometry is used.
func AOIFromGeoJSON(data []byte) (AreaOfInterest, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return AreaOfInterest{}, fmt.Errorf("parse aoi: %w", err)
	}

	var g orb.Geometry
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return AreaOfInterest{}, fmt.Errorf("parse aoi: %w", err)
		}
		if len(fc.Features) == 0 {
			return AreaOfInterest{}, errors.New("parse aoi: feature collection is empty")
		}
		g = fc.Features[0].Geometry
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return AreaOfInterest{}, fmt.Errorf("parse aoi: %w", err)
		}
		g = f.Geometry
	default:
		geom, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return AreaOfInterest{}, fmt.Errorf("parse aoi: %w", err)
		}
		g = geom.Geometry()
	}

	if g == nil {
		return AreaOfInterest{}, errors.New("parse aoi: missing geometry")
	}
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return AreaOfInterest{}, fmt.Errorf("parse aoi: unsupported geometry %s", g.GeoJSONType())
	}
	return AreaOfInterest{Geometry: g}, nil
}

// Bounds returns the AOI's lon/lat bounding rectangle.
func (a AreaOfInterest) Bounds() orb.Bound { return a.Geometry.Bound() }

// GeoJSON encodes the AOI geometry.
func (a AreaOfInterest) GeoJSON() ([]byte, error) {
	return json.Marshal(geojson.NewGeometry(a.Geometry))
}
