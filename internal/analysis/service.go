// Package analysis runs the burn-severity pipeline and persists its products:
// GeoTIFFs, web-map overlays, statistics, the scene search results, and an
// optional completion event.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/dragonfly/internal/adapter/leaflet"
	"github.com/couchcryptid/dragonfly/internal/adapter/stac"
	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/couchcryptid/dragonfly/internal/pipeline"
	"github.com/google/uuid"
)

// Runner executes one analysis.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ArtifactWriter encodes rasters to disk.
type ArtifactWriter interface {
	WriteRaster(ctx context.Context, path string, r domain.Raster) error
	WriteClasses(ctx context.Context, path string, c domain.ClassRaster) error
}

// Publisher announces completed analyses.
type Publisher interface {
	Publish(ctx context.Context, event domain.AnalysisEvent) error
}

// Config controls where and how products are written.
type Config struct {
	OutputDir string
	Tiles     string
	Opacity   float64
}

// Service turns analysis requests into run directories.
type Service struct {
	runner    Runner
	writer    ArtifactWriter
	publisher Publisher
	cfg       Config
	logger    *slog.Logger
}

// NewService wires a Service. publisher may be nil.
func NewService(runner Runner, writer ArtifactWriter, publisher Publisher, cfg Config, logger *slog.Logger) *Service {
	return &Service{runner: runner, writer: writer, publisher: publisher, cfg: cfg, logger: logger}
}

// Analyze runs req in a fresh directory under the output root and returns
// the completion event. req.RunID and req.WorkDir are assigned here.
func (s *Service) Analyze(ctx context.Context, req pipeline.Request) (domain.AnalysisEvent, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	dir := filepath.Join(s.cfg.OutputDir, req.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.AnalysisEvent{}, fmt.Errorf("create run directory: %w", err)
	}
	req.WorkDir = filepath.Join(dir, "bands")

	res, err := s.runner.Run(ctx, req)
	if err != nil {
		return domain.AnalysisEvent{}, err
	}

	artifacts, err := s.writeArtifacts(ctx, dir, res)
	if err != nil {
		return domain.AnalysisEvent{}, err
	}

	event := newEvent(res, artifacts)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("publish analysis event failed", "run_id", res.RunID, "error", err)
		}
	}
	return event, nil
}

// CheckReadiness verifies the output root is writable.
func (s *Service) CheckReadiness(_ context.Context) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	f, err := os.CreateTemp(s.cfg.OutputDir, ".ready-*")
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

func (s *Service) writeArtifacts(ctx context.Context, dir string, res *pipeline.Result) (map[string]string, error) {
	paths := map[string]string{
		domain.ArtifactDNBR:       filepath.Join(dir, "dnbr.tif"),
		domain.ArtifactSeverity:   filepath.Join(dir, "severity.tif"),
		domain.ArtifactOverlay:    filepath.Join(dir, "overlay.html"),
		domain.ArtifactClassMap:   filepath.Join(dir, "severity.html"),
		domain.ArtifactStatistics: filepath.Join(dir, "statistics.json"),
		domain.ArtifactSearchPre:  filepath.Join(dir, "search_pre.json"),
		domain.ArtifactSearchPost: filepath.Join(dir, "search_post.json"),
	}

	if err := s.writer.WriteRaster(ctx, paths[domain.ArtifactDNBR], res.DNBR); err != nil {
		return nil, fmt.Errorf("write dnbr: %w", err)
	}
	if err := s.writer.WriteClasses(ctx, paths[domain.ArtifactSeverity], res.Classes); err != nil {
		return nil, fmt.Errorf("write severity: %w", err)
	}

	bounds := res.Request.AOI.Bounds()
	img, err := domain.RenderOverlay(res.DNBR, domain.DefaultRamp)
	if err != nil {
		return nil, fmt.Errorf("render overlay: %w", err)
	}
	opts := leaflet.Options{Tiles: s.cfg.Tiles, Opacity: s.cfg.Opacity, LayerName: "dNBR", Legend: res.Bands, LegendTitle: "Burn severity"}
	if err := writeFile(paths[domain.ArtifactOverlay], func(w io.Writer) error {
		return leaflet.BuildOverlay(w, img, bounds, opts)
	}); err != nil {
		return nil, err
	}
	opts.LayerName = "Burn severity"
	classImg := domain.ColorizeClasses(res.Classes, res.Bands)
	if err := writeFile(paths[domain.ArtifactClassMap], func(w io.Writer) error {
		return leaflet.BuildOverlay(w, classImg, bounds, opts)
	}); err != nil {
		return nil, err
	}

	if err := writeFile(paths[domain.ArtifactStatistics], func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Statistics)
	}); err != nil {
		return nil, err
	}
	if err := writeFile(paths[domain.ArtifactSearchPre], func(w io.Writer) error {
		return stac.ExportItems(w, res.Pre.Items)
	}); err != nil {
		return nil, err
	}
	if err := writeFile(paths[domain.ArtifactSearchPost], func(w io.Writer) error {
		return stac.ExportItems(w, res.Post.Items)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("artifacts written", "run_id", res.RunID, "dir", dir)
	return paths, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}

func newEvent(res *pipeline.Result, artifacts map[string]string) domain.AnalysisEvent {
	b := res.Request.AOI.Bounds()
	return domain.AnalysisEvent{
		RunID:           res.RunID,
		PreItemID:       res.Pre.Item.ID,
		PostItemID:      res.Post.Item.ID,
		PreWindow:       res.Pre.Window.String(),
		PostWindow:      res.Post.Window.String(),
		Bounds:          [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]},
		SeverityClasses: res.Bands.Labels(),
		Statistics:      res.Statistics,
		Artifacts:       artifacts,
		StartedAt:       res.StartedAt,
		CompletedAt:     res.CompletedAt,
	}
}
