// Command genmock writes a synthetic pre/post scene pair and an ItemCollection
// describing them, so the full analysis can run offline against
// STAC_CATALOG_FILE.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -size 128 -seed 7
//	STAC_CATALOG_FILE=data/mock/catalog.json go run ./cmd/dragonfly run \
//	  --bbox=-120.5,38.5,-120.4,38.6 --pre 2023-07-01/2023-07-31 --post 2023-09-01/2023-09-30
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/dragonfly/internal/adapter/gdal"
	"github.com/couchcryptid/dragonfly/internal/adapter/stac"
	"github.com/couchcryptid/dragonfly/internal/domain"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	preDate  = time.Date(2023, time.July, 12, 18, 30, 0, 0, time.UTC)
	postDate = time.Date(2023, time.September, 15, 18, 30, 0, 0, time.UTC)
)

// Scene classification values written to the SCL layer.
const (
	sclVegetation = 4
	sclCloudHigh  = 9
)

// burn is a circular fire scar. Severity falls off linearly from the centre.
type burn struct {
	row, col, radius float64
	peak             float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	size := flag.Int("size", 128, "scene width and height in pixels")
	seed := flag.Uint64("seed", 1, "random seed")
	bbox := flag.String("bbox", "-120.5,38.5,-120.4,38.6", "scene extent as minLon,minLat,maxLon,maxLat")
	flag.Parse()

	if *size < 8 {
		return fmt.Errorf("size must be at least 8, got %d", *size)
	}
	aoi, err := domain.ParseBoundingBox(*bbox)
	if err != nil {
		return err
	}
	b := aoi.Bounds()
	n := float64(*size)
	shape := domain.Shape{Rows: *size, Cols: *size}
	transform := domain.GeoTransform{b.Min.Lon(), (b.Max.Lon() - b.Min.Lon()) / n, 0, b.Max.Lat(), 0, -(b.Max.Lat() - b.Min.Lat()) / n}
	// SWIR is delivered at half resolution, exercising the resample stage.
	swirShape := domain.Shape{Rows: *size / 2, Cols: *size / 2}
	swirTransform := transform.Scale(2, 2)

	burns := []burn{
		{row: n * 0.35, col: n * 0.40, radius: n * 0.22, peak: 1},
		{row: n * 0.75, col: n * 0.70, radius: n * 0.12, peak: 0.5},
	}
	noise := distuv.Normal{Mu: 0, Sigma: 120, Src: rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)}

	store := gdal.NewStore(slog.Default())
	scene := func(epoch string, burned bool) (map[string]domain.Asset, error) {
		dir := filepath.Join(*out, epoch)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		nir := domain.NewRaster(shape, transform, "EPSG:4326")
		swir := domain.NewRaster(swirShape, swirTransform, "EPSG:4326")
		scl := domain.NewRaster(shape, transform, "EPSG:4326")
		for r := range shape.Rows {
			for c := range shape.Cols {
				f := 0.0
				if burned {
					f = severityAt(burns, float64(r), float64(c))
				}
				nir.Set(r, c, 3200-2200*f+noise.Rand())
				scl.Set(r, c, sclVegetation)
			}
		}
		for r := range swirShape.Rows {
			for c := range swirShape.Cols {
				f := 0.0
				if burned {
					f = severityAt(burns, float64(2*r+1), float64(2*c+1))
				}
				swir.Set(r, c, 1300+1700*f+noise.Rand()/2)
			}
		}
		if burned {
			// Cloud bank along the eastern edge.
			for r := range shape.Rows / 4 {
				for c := shape.Cols * 7 / 8; c < shape.Cols; c++ {
					scl.Set(r, c, sclCloudHigh)
				}
			}
		}

		assets := map[string]domain.Asset{}
		for band, raster := range map[string]domain.Raster{"B08": nir, "B12": swir, "SCL": scl} {
			name := band + ".tif"
			if err := store.WriteDigitalNumbers(filepath.Join(dir, name), raster); err != nil {
				return nil, fmt.Errorf("write %s %s: %w", epoch, band, err)
			}
			assets[band] = domain.Asset{Href: epoch + "/" + name, Type: "image/tiff; application=geotiff"}
		}
		return assets, nil
	}

	preAssets, err := scene("pre", false)
	if err != nil {
		return err
	}
	postAssets, err := scene("post", true)
	if err != nil {
		return err
	}

	items := []domain.Item{
		{ID: "MOCK_PRE_" + preDate.Format("20060102"), Datetime: preDate, CloudCover: 0.5, Assets: preAssets, Geometry: b.ToPolygon()},
		{ID: "MOCK_POST_" + postDate.Format("20060102"), Datetime: postDate, CloudCover: 3.1, Assets: postAssets, Geometry: b.ToPolygon()},
	}
	catalog := filepath.Join(*out, "catalog.json")
	f, err := os.Create(catalog)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := stac.ExportItems(f, items); err != nil {
		return err
	}

	log.Printf("wrote %dx%d scenes and %s", *size, *size, catalog)
	return f.Close()
}

func severityAt(burns []burn, r, c float64) float64 {
	var f float64
	for _, b := range burns {
		d := math.Hypot(r-b.row, c-b.col)
		if d < b.radius {
			f = math.Max(f, b.peak*(1-d/b.radius))
		}
	}
	return f
}
