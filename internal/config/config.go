package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/AngelCh415/marketing-intel/internal/fixture"
	"github.com/AngelCh415/marketing-intel/internal/models"
	"github.com/AngelCh415/marketing-intel/internal/pipeline"
)

const envPrefix = "MKT"

type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	FacebookURL string `envconfig:"FACEBOOK_URL"`
	GoogleURL   string `envconfig:"GOOGLE_URL"`
	TikTokURL   string `envconfig:"TIKTOK_URL"`
	BusinessURL string `envconfig:"BUSINESS_URL"`

	SinkURL    string `envconfig:"SINK_URL"`
	SinkSecret string `envconfig:"SINK_SECRET"`

	SampleSeed  uint64 `envconfig:"SAMPLE_SEED" default:"42"`
	SampleDays  int    `envconfig:"SAMPLE_DAYS" default:"120"`
	SampleStart string `envconfig:"SAMPLE_START" default:"2024-01-01"`

	TargetROAS float64 `envconfig:"TARGET_ROAS" default:"4.2"`
	TargetCTR  float64 `envconfig:"TARGET_CTR" default:"1.8"`
	TargetCAC  float64 `envconfig:"TARGET_CAC" default:"35"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	if _, err := time.Parse("2006-01-02", cfg.SampleStart); err != nil {
		return Config{}, fmt.Errorf("invalid %s_SAMPLE_START %q: %w", envPrefix, cfg.SampleStart, err)
	}
	if cfg.SampleDays <= 0 {
		return Config{}, fmt.Errorf("invalid %s_SAMPLE_DAYS %d: must be positive", envPrefix, cfg.SampleDays)
	}
	return cfg, nil
}

func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// SourceURLs returns the configured remote location of each source, skipping blanks.
func (c Config) SourceURLs() map[models.Source]string {
	out := map[models.Source]string{}
	for src, u := range map[models.Source]string{
		models.SourceFacebook: c.FacebookURL,
		models.SourceGoogle:   c.GoogleURL,
		models.SourceTikTok:   c.TikTokURL,
		models.SourceBusiness: c.BusinessURL,
	} {
		if u = strings.TrimSpace(u); u != "" {
			out[src] = u
		}
	}
	return out
}

func (c Config) Fixture() fixture.Options {
	start, _ := time.Parse("2006-01-02", c.SampleStart)
	return fixture.Options{Seed: c.SampleSeed, Days: c.SampleDays, Start: start}
}

func (c Config) Targets() pipeline.Targets {
	return pipeline.Targets{ROAS: c.TargetROAS, CTR: c.TargetCTR, CAC: c.TargetCAC}
}
