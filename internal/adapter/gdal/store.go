// Package gdal reads and writes single-band GeoTIFF rasters through GDAL.
package gdal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/couchcryptid/dragonfly/internal/domain"
)

var registerOnce sync.Once

// Store decodes band 1 of GDAL-readable files into domain rasters and
// encodes analysis products as GeoTIFF.
// It implements pipeline.RasterReader and analysis.ArtifactWriter.
type Store struct {
	logger *slog.Logger
}

// NewStore registers the GDAL drivers on first use.
func NewStore(logger *slog.Logger) *Store {
	registerOnce.Do(godal.RegisterAll)
	return &Store{logger: logger}
}

// Read decodes band 1 of path as float64. Nodata pixels become NaN. Files
// without a geotransform get the identity transform.
func (s *Store) Read(ctx context.Context, path string) (domain.Raster, error) {
	if err := ctx.Err(); err != nil {
		return domain.Raster{}, err
	}
	ds, err := godal.Open(path)
	if err != nil {
		return domain.Raster{}, fmt.Errorf("open raster %s: %w", path, err)
	}
	defer ds.Close() //nolint:errcheck // read-only dataset

	st := ds.Structure()
	if st.NBands < 1 {
		return domain.Raster{}, fmt.Errorf("raster %s has no bands", path)
	}
	shape := domain.Shape{Rows: st.SizeY, Cols: st.SizeX}
	data := make([]float64, shape.Len())
	band := ds.Bands()[0]
	if err := band.Read(0, 0, data, st.SizeX, st.SizeY); err != nil {
		return domain.Raster{}, fmt.Errorf("read raster %s: %w", path, err)
	}
	if nd, ok := band.NoData(); ok {
		for i, v := range data {
			if v == nd {
				data[i] = math.NaN()
			}
		}
	}

	gt, err := ds.GeoTransform()
	transform := domain.GeoTransform(gt)
	if err != nil {
		s.logger.Debug("raster has no geotransform", "path", path)
		transform = domain.IdentityTransform
	}

	return domain.NewRasterFromData(shape, data, transform, ds.Projection())
}

// WriteRaster encodes r as a Float32 GeoTIFF with NaN nodata.
func (s *Store) WriteRaster(ctx context.Context, path string, r domain.Raster) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	nd := math.NaN()
	return s.write(path, layout{r.Shape(), r.Transform(), r.CRS(), godal.Float32, &nd}, r.Values())
}

// WriteClasses encodes c as a Byte GeoTIFF with domain.NoClass as nodata.
func (s *Store) WriteClasses(ctx context.Context, path string, c domain.ClassRaster) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	nd := float64(domain.NoClass)
	return s.write(path, layout{c.Shape(), c.Transform(), c.CRS(), godal.Byte, &nd}, c.Values())
}

// WriteDigitalNumbers encodes r as a UInt16 GeoTIFF without nodata, the
// layout of Sentinel-2 L2A band files. NaN and negative values become 0.
func (s *Store) WriteDigitalNumbers(path string, r domain.Raster) error {
	buf := make([]uint16, len(r.Values()))
	for i, v := range r.Values() {
		if math.IsNaN(v) || v < 0 {
			continue
		}
		buf[i] = uint16(math.Min(math.Round(v), math.MaxUint16))
	}
	return s.write(path, layout{r.Shape(), r.Transform(), r.CRS(), godal.UInt16, nil}, buf)
}

type layout struct {
	shape     domain.Shape
	transform domain.GeoTransform
	crs       string
	dtype     godal.DataType
	nodata    *float64
}

func (s *Store) write(path string, l layout, buf interface{}) error {
	ds, err := godal.Create(godal.GTiff, path, 1, l.dtype, l.shape.Cols, l.shape.Rows,
		godal.CreationOption("TILED=YES", "COMPRESS=DEFLATE"))
	if err != nil {
		return fmt.Errorf("create raster %s: %w", path, err)
	}

	err = populate(ds, l, buf)
	if cerr := ds.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close raster %s: %w", path, cerr)
	}
	if err != nil {
		return err
	}
	s.logger.Debug("raster written", "path", path, "shape", l.shape.String())
	return nil
}

func populate(ds *godal.Dataset, l layout, buf interface{}) error {
	if err := ds.SetGeoTransform([6]float64(l.transform)); err != nil {
		return fmt.Errorf("set geotransform: %w", err)
	}
	if l.crs != "" {
		if err := setCRS(ds, l.crs); err != nil {
			return err
		}
	}
	band := ds.Bands()[0]
	if l.nodata != nil {
		if err := band.SetNoData(*l.nodata); err != nil {
			return fmt.Errorf("set nodata: %w", err)
		}
	}
	if err := band.Write(0, 0, buf, l.shape.Cols, l.shape.Rows); err != nil {
		return fmt.Errorf("write band: %w", err)
	}
	return nil
}

// setCRS accepts an "EPSG:<code>" identifier or a WKT definition.
func setCRS(ds *godal.Dataset, crs string) error {
	if code, ok := strings.CutPrefix(strings.ToUpper(crs), "EPSG:"); ok {
		n, err := strconv.Atoi(code)
		if err != nil {
			return fmt.Errorf("parse crs %q: %w", crs, err)
		}
		sr, err := godal.NewSpatialRefFromEPSG(n)
		if err != nil {
			return fmt.Errorf("crs %q: %w", crs, err)
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			return fmt.Errorf("set crs: %w", err)
		}
		return nil
	}
	if err := ds.SetProjection(crs); err != nil {
		return fmt.Errorf("set crs: %w", err)
	}
	return nil
}
