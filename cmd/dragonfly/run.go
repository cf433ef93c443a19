package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/dragonfly/internal/config"
	"github.com/couchcryptid/dragonfly/internal/domain"
	"github.com/couchcryptid/dragonfly/internal/observability"
	"github.com/couchcryptid/dragonfly/internal/pipeline"
	"github.com/spf13/cobra"
)

type runFlags struct {
	aoiFile  string
	bbox     string
	pre      string
	post     string
	out      string
	maxCloud float64
	runID    string
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one burn-severity analysis and exit",
		Example: `  dragonfly run --bbox=-120.6,38.9,-120.3,39.1 \
    --pre 2021-07-01/2021-07-20 --post 2021-09-10/2021-09-30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalysis(cmd, f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.aoiFile, "aoi", "", "GeoJSON file with the area of interest")
	flags.StringVar(&f.bbox, "bbox", "", "area of interest as minLon,minLat,maxLon,maxLat")
	flags.StringVar(&f.pre, "pre", "", "pre-fire window YYYY-MM-DD/YYYY-MM-DD")
	flags.StringVar(&f.post, "post", "", "post-fire window YYYY-MM-DD/YYYY-MM-DD")
	flags.StringVar(&f.out, "out", "", "output root (overrides OUTPUT_DIR)")
	flags.Float64Var(&f.maxCloud, "max-cloud", 0, "maximum scene cloud cover percent (overrides MAX_CLOUD_COVER)")
	flags.StringVar(&f.runID, "run-id", "", "run identifier (generated when empty)")
	cmd.MarkFlagsMutuallyExclusive("aoi", "bbox")
	cmd.MarkFlagsOneRequired("aoi", "bbox")
	_ = cmd.MarkFlagRequired("pre")
	_ = cmd.MarkFlagRequired("post")
	return cmd
}

func (f runFlags) request() (pipeline.Request, error) {
	var req pipeline.Request
	var err error
	switch {
	case f.aoiFile != "":
		data, rerr := os.ReadFile(f.aoiFile)
		if rerr != nil {
			return req, fmt.Errorf("read aoi: %w", rerr)
		}
		req.AOI, err = domain.AOIFromGeoJSON(data)
	case f.bbox != "":
		req.AOI, err = domain.ParseBoundingBox(f.bbox)
	default:
		err = errors.New("one of --aoi or --bbox is required")
	}
	if err != nil {
		return req, err
	}
	if req.PreWindow, err = domain.ParseTimeWindow(f.pre); err != nil {
		return req, fmt.Errorf("--pre: %w", err)
	}
	if req.PostWindow, err = domain.ParseTimeWindow(f.post); err != nil {
		return req, fmt.Errorf("--post: %w", err)
	}
	if f.maxCloud < 0 || f.maxCloud > 100 {
		return req, fmt.Errorf("--max-cloud must be in [0, 100], got %g", f.maxCloud)
	}
	req.MaxCloudCover = f.maxCloud
	req.RunID = f.runID
	return req, nil
}

func runAnalysis(cmd *cobra.Command, f runFlags) error {
	req, err := f.request()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.out != "" {
		cfg.OutputDir = f.out
	}

	logger := observability.NewLogger(cfg)
	a, err := newApp(cfg, logger, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	event, err := a.service.Analyze(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(event)
}
