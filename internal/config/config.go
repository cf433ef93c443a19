package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/dragonfly/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Catalog and download settings.
	STACURL            string
	STACCollections    []string
	STACTimeout        time.Duration
	STACCatalogFile    string
	SearchCacheSize    int
	DownloadTimeout    time.Duration
	DownloadMaxRetries int
	MaxCloudCover      float64

	// Band selection and masking.
	NIRBand          string
	SWIRBand         string
	QualityBand      string
	CloudMaskEnabled bool
	CloudClasses     []int
	ReflectanceScale float64

	// Classification and output.
	PixelSizeM        float64
	SeverityTable     string
	SeverityBandsFile string
	OutputDir         string
	OverlayTiles      string
	OverlayOpacity    float64

	// Kafka analysis sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:  sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),

		STACURL:         strings.TrimRight(sharedcfg.EnvOrDefault("STAC_URL", "https://catalogue.dataspace.copernicus.eu/stac"), "/"),
		STACCollections: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("STAC_COLLECTIONS", "sentinel-2-l2a")),
		STACCatalogFile: os.Getenv("STAC_CATALOG_FILE"),

		NIRBand:     sharedcfg.EnvOrDefault("NIR_BAND", "B08"),
		SWIRBand:    sharedcfg.EnvOrDefault("SWIR_BAND", "B12"),
		QualityBand: sharedcfg.EnvOrDefault("QUALITY_BAND", "SCL"),

		SeverityTable:     sharedcfg.EnvOrDefault("SEVERITY_TABLE", domain.BandTableUSGS),
		SeverityBandsFile: os.Getenv("SEVERITY_BANDS_FILE"),
		OutputDir:         sharedcfg.EnvOrDefault("OUTPUT_DIR", "data/runs"),
		OverlayTiles:      sharedcfg.EnvOrDefault("OVERLAY_TILES", "OpenStreetMap"),

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "burn-severity-analyses"),
	}

	var err error
	if cfg.ShutdownTimeout, err = sharedcfg.ParseShutdownTimeout(); err != nil {
		return nil, err
	}
	if cfg.STACTimeout, err = parsePositiveDuration("STAC_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.DownloadTimeout, err = parsePositiveDuration("DOWNLOAD_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.SearchCacheSize, err = parseInt("SEARCH_CACHE_SIZE", 128, 0, 100000); err != nil {
		return nil, err
	}
	if cfg.DownloadMaxRetries, err = parseInt("DOWNLOAD_MAX_RETRIES", 2, 0, 10); err != nil {
		return nil, err
	}
	if cfg.MaxCloudCover, err = parseFloat("MAX_CLOUD_COVER", 5, 0, 100); err != nil {
		return nil, err
	}
	if cfg.ReflectanceScale, err = parseFloat("REFLECTANCE_SCALE", 10000, 1e-9, 1e9); err != nil {
		return nil, err
	}
	if cfg.PixelSizeM, err = parseFloat("PIXEL_SIZE_M", domain.DefaultPixelSizeM, 1e-6, 1e6); err != nil {
		return nil, err
	}
	if cfg.OverlayOpacity, err = parseFloat("OVERLAY_OPACITY", 0.65, 0, 1); err != nil {
		return nil, err
	}
	if cfg.CloudMaskEnabled, err = parseBool("CLOUD_MASK_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.CloudClasses, err = parseIntList("CLOUD_CLASSES", domain.DefaultCloudClasses); err != nil {
		return nil, err
	}

	cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	if len(cfg.STACCollections) == 0 {
		return nil, errors.New("STAC_COLLECTIONS is required")
	}
	if cfg.NIRBand == "" || cfg.SWIRBand == "" {
		return nil, errors.New("NIR_BAND and SWIR_BAND are required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}
	if _, err := cfg.BandTable(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// BandTable resolves the configured severity table. A band file takes
// precedence over the named built-in table.
func (c *Config) BandTable() (domain.BandTable, error) {
	if c.SeverityBandsFile != "" {
		t, err := domain.LoadBandTableFile(c.SeverityBandsFile)
		if err != nil {
			return nil, fmt.Errorf("SEVERITY_BANDS_FILE: %w", err)
		}
		return t, nil
	}
	t, err := domain.BandTableByName(c.SeverityTable)
	if err != nil {
		return nil, fmt.Errorf("SEVERITY_TABLE: %w", err)
	}
	return t, nil
}

// PixelAreaKM2 returns the ground area of one output pixel.
func (c *Config) PixelAreaKM2() float64 { return domain.PixelAreaKM2(c.PixelSizeM) }

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}

func parseFloat(key string, def, lo, hi float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < lo || f > hi {
		return 0, fmt.Errorf("invalid %s: must be a number in [%g, %g]", key, lo, hi)
	}
	return f, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}

func parseIntList(key string, def []int) ([]int, error) {
	s := os.Getenv(key)
	if s == "" {
		return append([]int(nil), def...), nil
	}
	var out []int
	for _, p := range sharedcfg.ParseBrokers(s) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q is not an integer", key, p)
		}
		out = append(out, n)
	}
	return out, nil
}
