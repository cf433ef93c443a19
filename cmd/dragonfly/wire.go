package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/dragonfly/internal/adapter/gdal"
	kafkaadapter "github.com/couchcryptid/dragonfly/internal/adapter/kafka"
	"github.com/couchcryptid/dragonfly/internal/adapter/stac"
	"github.com/couchcryptid/dragonfly/internal/analysis"
	"github.com/couchcryptid/dragonfly/internal/config"
	"github.com/couchcryptid/dragonfly/internal/observability"
	"github.com/couchcryptid/dragonfly/internal/pipeline"
)

// app holds the wired service and the resources to release on exit.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *analysis.Service
	closers []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	bands, err := cfg.BandTable()
	if err != nil {
		return nil, err
	}

	client := stac.NewClient(cfg, logger, metrics)
	var searcher stac.Searcher = client
	if cfg.STACCatalogFile != "" {
		fc, err := stac.NewFileCatalog(cfg.STACCatalogFile)
		if err != nil {
			return nil, fmt.Errorf("load catalog file: %w", err)
		}
		searcher = fc
		logger.Info("using local catalog", "path", cfg.STACCatalogFile)
	} else {
		logger.Info("using stac api", "url", cfg.STACURL, "collections", cfg.STACCollections)
	}
	catalog := stac.NewCachedCatalog(searcher, cfg.SearchCacheSize, metrics)

	store := gdal.NewStore(logger)
	p := pipeline.New(catalog, client, store, pipeline.Options{
		Collections:      cfg.STACCollections,
		MaxCloudCover:    cfg.MaxCloudCover,
		NIRBand:          cfg.NIRBand,
		SWIRBand:         cfg.SWIRBand,
		QualityBand:      cfg.QualityBand,
		CloudMask:        cfg.CloudMaskEnabled,
		CloudClasses:     cfg.CloudClasses,
		ReflectanceScale: cfg.ReflectanceScale,
		Bands:            bands,
		PixelAreaKM2:     cfg.PixelAreaKM2(),
	}, logger, metrics)

	a := &app{cfg: cfg, logger: logger}
	var publisher analysis.Publisher
	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		publisher = w
		a.closers = append(a.closers, w)
		logger.Info("kafka analysis sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka analysis sink disabled")
	}

	a.service = analysis.NewService(p, store, publisher, analysis.Config{
		OutputDir: cfg.OutputDir,
		Tiles:     cfg.OverlayTiles,
		Opacity:   cfg.OverlayOpacity,
	}, logger)
	return a, nil
}
