package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/couchcryptid/dragonfly/internal/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Catalog finds scenes for one epoch.
type Catalog interface {
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.Item, error)
}

// Downloader transfers an asset href to a local file and returns its path.
// Errors must match domain.ErrTransferFailure.
type Downloader interface {
	Fetch(ctx context.Context, href, dest string) (string, error)
}

// RasterReader decodes the first band of a local raster file.
type RasterReader interface {
	Read(ctx context.Context, path string) (domain.Raster, error)
}

// Options are the per-deployment analysis settings.
type Options struct {
	Collections      []string
	MaxCloudCover    float64
	NIRBand          string
	SWIRBand         string
	QualityBand      string
	CloudMask        bool
	CloudClasses     []int
	ReflectanceScale float64
	Bands            domain.BandTable
	PixelAreaKM2     float64
}

// Request describes one analysis.
type Request struct {
	// RunID is generated when empty.
	RunID      string
	AOI        domain.AreaOfInterest
	PreWindow  domain.TimeWindow
	PostWindow domain.TimeWindow
	// MaxCloudCover overrides Options.MaxCloudCover when positive.
	MaxCloudCover float64
	// WorkDir receives downloaded band files under pre/ and post/.
	WorkDir string
}

// Epoch holds one acquisition's scene and bands.
type Epoch struct {
	Window  domain.TimeWindow
	Items   []domain.Item
	Item    domain.Item
	Paths   map[string]string
	NIR     domain.Raster
	SWIR    domain.Raster
	Quality *domain.Raster
	NBR     domain.Raster
}

// Result is the outcome of a completed run.
type Result struct {
	RunID       string
	Request     Request
	Pre         Epoch
	Post        Epoch
	DNBR        domain.Raster
	Classes     domain.ClassRaster
	Bands       domain.BandTable
	Statistics  domain.Statistics
	Skipped     []Stage
	StartedAt   time.Time
	CompletedAt time.Time
}

// Pipeline runs the burn-severity state machine.
type Pipeline struct {
	catalog    Catalog
	downloader Downloader
	reader     RasterReader
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Pipeline with the given collaborators and observability.
func New(c Catalog, d Downloader, r RasterReader, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Bands == nil {
		opts.Bands = domain.DefaultBands
	}
	if opts.ReflectanceScale <= 0 {
		opts.ReflectanceScale = 10000
	}
	if opts.PixelAreaKM2 <= 0 {
		opts.PixelAreaKM2 = domain.PixelAreaKM2(domain.DefaultPixelSizeM)
	}
	if opts.CloudClasses == nil {
		opts.CloudClasses = domain.DefaultCloudClasses
	}
	return &Pipeline{catalog: c, downloader: d, reader: r, opts: opts, logger: logger, metrics: metrics}
}

// Bands returns the severity table the pipeline classifies with.
func (p *Pipeline) Bands() domain.BandTable { return p.opts.Bands }

type stageFunc func(ctx context.Context, res *Result) error

func (p *Pipeline) handler(s Stage) stageFunc {
	switch s {
	case StageInit:
		return p.init
	case StageSearchPre:
		return func(ctx context.Context, res *Result) error { return p.search(ctx, res, &res.Pre) }
	case StageSearchPost:
		return func(ctx context.Context, res *Result) error { return p.search(ctx, res, &res.Post) }
	case StageDownloadPre:
		return func(ctx context.Context, res *Result) error { return p.download(ctx, res, &res.Pre, "pre") }
	case StageDownloadPost:
		return func(ctx context.Context, res *Result) error { return p.download(ctx, res, &res.Post, "post") }
	case StageLoadBands:
		return p.loadBands
	case StageMask:
		return p.mask
	case StageResample:
		return p.resample
	case StageComputeNBRPre:
		return func(_ context.Context, res *Result) error { return computeNBR(&res.Pre) }
	case StageComputeNBRPost:
		return func(_ context.Context, res *Result) error { return computeNBR(&res.Post) }
	case StageComputeDNBR:
		return p.computeDNBR
	case StageClassify:
		return p.classify
	case StageStatistics:
		return p.statistics
	default:
		return nil
	}
}

// enters reports whether stage s runs for res. Only Mask and Resample are guarded.
func (p *Pipeline) enters(s Stage, res *Result) bool {
	switch s {
	case StageMask:
		return maskEnabled(p.opts.CloudMask, res.Pre.Quality != nil, res.Post.Quality != nil)
	case StageResample:
		return needsResample(res.Pre.NIR.Shape(), res.Pre.SWIR.Shape()) ||
			needsResample(res.Post.NIR.Shape(), res.Post.SWIR.Shape())
	default:
		return true
	}
}

// Run executes every stage in order. Cancellation is checked between stages.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		RunID:     req.RunID,
		Request:   req,
		Pre:       Epoch{Window: req.PreWindow},
		Post:      Epoch{Window: req.PostWindow},
		Bands:     p.opts.Bands,
		StartedAt: domain.Now(),
	}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	logger := p.logger.With("run_id", res.RunID)

	p.metrics.PipelineRunning.Inc()
	defer p.metrics.PipelineRunning.Dec()

	logger.Info("analysis started", "pre", req.PreWindow.String(), "post", req.PostWindow.String())
	for s := StageInit; s != StageDone; s = s.Next() {
		if err := ctx.Err(); err != nil {
			p.metrics.RunsTotal.WithLabelValues(Outcome(err)).Inc()
			return nil, err
		}
		if !p.enters(s, res) {
			logger.Debug("stage skipped", "stage", s.String())
			p.metrics.StageSkipped.WithLabelValues(s.String()).Inc()
			res.Skipped = append(res.Skipped, s)
			continue
		}

		start := time.Now()
		err := p.handler(s)(ctx, res)
		elapsed := time.Since(start)
		p.metrics.StageDuration.WithLabelValues(s.String()).Observe(elapsed.Seconds())
		if err != nil {
			logger.Error("stage failed", "stage", s.String(), "duration", elapsed, "error", err)
			p.metrics.RunsTotal.WithLabelValues(Outcome(err)).Inc()
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		logger.Debug("stage complete", "stage", s.String(), "duration", elapsed)
	}

	res.CompletedAt = domain.Now()
	p.metrics.RunsTotal.WithLabelValues(Outcome(nil)).Inc()
	p.metrics.LastBurnedArea.Set(res.Statistics.BurnedAreaKM2)
	logger.Info("analysis complete",
		"pre_item", res.Pre.Item.ID,
		"post_item", res.Post.Item.ID,
		"burned_area_km2", res.Statistics.BurnedAreaKM2,
		"duration", res.CompletedAt.Sub(res.StartedAt),
	)
	return res, nil
}

// Outcome maps a run error to its runs_total label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNoDataFound):
		return "no_data"
	case errors.Is(err, domain.ErrMissingAsset):
		return "missing_asset"
	case errors.Is(err, domain.ErrTransferFailure):
		return "transfer_failure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func (p *Pipeline) init(_ context.Context, res *Result) error {
	req := res.Request
	if req.AOI.Geometry == nil {
		return errors.New("request has no area of interest")
	}
	if req.PreWindow.Start.IsZero() || req.PostWindow.Start.IsZero() {
		return errors.New("request needs pre and post windows")
	}
	if req.WorkDir == "" {
		return errors.New("request has no work directory")
	}
	return nil
}

func (p *Pipeline) search(ctx context.Context, res *Result, e *Epoch) error {
	cloud := p.opts.MaxCloudCover
	if res.Request.MaxCloudCover > 0 {
		cloud = res.Request.MaxCloudCover
	}
	items, err := p.catalog.Search(ctx, domain.SearchQuery{
		Geometry:      res.Request.AOI.Geometry,
		Window:        e.Window,
		Collections:   p.opts.Collections,
		MaxCloudCover: cloud,
		Limit:         1,
	})
	if err != nil {
		return fmt.Errorf("catalog search: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w %s", domain.ErrNoDataFound, e.Window)
	}
	e.Items = items
	e.Item = items[0]
	return nil
}

func (p *Pipeline) download(ctx context.Context, res *Result, e *Epoch, name string) error {
	dir := filepath.Join(res.Request.WorkDir, name)
	e.Paths = make(map[string]string, 3)

	bands := []string{p.opts.NIRBand, p.opts.SWIRBand}
	for _, band := range bands {
		asset, err := e.Item.AssetFor(band)
		if err != nil {
			return err
		}
		if err := p.fetch(ctx, e, band, asset, dir); err != nil {
			return err
		}
	}

	if p.opts.QualityBand == "" || !p.opts.CloudMask {
		return nil
	}
	asset, err := e.Item.AssetFor(p.opts.QualityBand)
	if err != nil {
		p.logger.Warn("quality band unavailable, masking will be skipped",
			"run_id", res.RunID, "item", e.Item.ID, "band", p.opts.QualityBand)
		return nil
	}
	return p.fetch(ctx, e, p.opts.QualityBand, asset, dir)
}

func (p *Pipeline) fetch(ctx context.Context, e *Epoch, band string, asset domain.Asset, dir string) error {
	dest := filepath.Join(dir, fmt.Sprintf("%s_%s.tif", e.Item.ID, band))
	path, err := p.downloader.Fetch(ctx, asset.Href, dest)
	if err != nil {
		if !errors.Is(err, domain.ErrTransferFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrTransferFailure, err)
		}
		return err
	}
	e.Paths[band] = path
	return nil
}

// loadBands decodes every downloaded band concurrently, one goroutine per file.
func (p *Pipeline) loadBands(ctx context.Context, res *Result) error {
	type job struct {
		path  string
		scale bool
		out   *domain.Raster
	}
	var jobs []job
	var preQ, postQ domain.Raster
	for _, e := range []*Epoch{&res.Pre, &res.Post} {
		jobs = append(jobs,
			job{path: e.Paths[p.opts.NIRBand], scale: true, out: &e.NIR},
			job{path: e.Paths[p.opts.SWIRBand], scale: true, out: &e.SWIR},
		)
	}
	if path, ok := res.Pre.Paths[p.opts.QualityBand]; ok {
		jobs = append(jobs, job{path: path, out: &preQ})
	}
	if path, ok := res.Post.Paths[p.opts.QualityBand]; ok {
		jobs = append(jobs, job{path: path, out: &postQ})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			r, err := p.reader.Read(gctx, j.path)
			if err != nil {
				return fmt.Errorf("decode %s: %w", j.path, err)
			}
			if j.scale {
				r = domain.Scale(r, p.opts.ReflectanceScale)
			}
			*j.out = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if _, ok := res.Pre.Paths[p.opts.QualityBand]; ok {
		res.Pre.Quality = &preQ
	}
	if _, ok := res.Post.Paths[p.opts.QualityBand]; ok {
		res.Post.Quality = &postQ
	}
	return nil
}

// mask writes NaN into every band pixel whose quality class is excluded. Each
// band gets a mask built at its own shape.
func (p *Pipeline) mask(_ context.Context, res *Result) error {
	for _, e := range []*Epoch{&res.Pre, &res.Post} {
		for _, band := range []*domain.Raster{&e.NIR, &e.SWIR} {
			m := domain.BuildExclusionMask(*e.Quality, band.Shape(), p.opts.CloudClasses, domain.Nearest)
			if err := domain.ApplyMask(band, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) resample(_ context.Context, res *Result) error {
	for _, e := range []*Epoch{&res.Pre, &res.Post} {
		if needsResample(e.NIR.Shape(), e.SWIR.Shape()) {
			e.SWIR = domain.ResampleTo(e.SWIR, e.NIR.Shape(), domain.Bilinear)
		}
	}
	return nil
}

func computeNBR(e *Epoch) error {
	nbr, err := domain.ComputeNBR(e.NIR, e.SWIR)
	if err != nil {
		return err
	}
	e.NBR = nbr
	return nil
}

func (p *Pipeline) computeDNBR(_ context.Context, res *Result) error {
	dnbr, err := domain.ComputeDelta(res.Pre.NBR, res.Post.NBR)
	if err != nil {
		return err
	}
	res.DNBR = dnbr
	return nil
}

func (p *Pipeline) classify(_ context.Context, res *Result) error {
	res.Classes = domain.Classify(res.DNBR, p.opts.Bands)
	return nil
}

func (p *Pipeline) statistics(_ context.Context, res *Result) error {
	res.Statistics = domain.ComputeStatistics(res.DNBR, res.Classes, p.opts.Bands, p.opts.PixelAreaKM2)
	return nil
}
