package ssgan

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
	if cfg.BatchSize != 64 || cfg.LatentDim != 100 || cfg.LabeledRate != 0.2 || cfg.Beta1 != 0.5 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"negative rate":   func(c *Config) { c.LabeledRate = -0.01 },
		"rate above one":  func(c *Config) { c.LabeledRate = 1.5 },
		"NaN rate":        func(c *Config) { c.LabeledRate = math.NaN() },
		"zero batch":      func(c *Config) { c.BatchSize = 0 },
		"zero epochs":     func(c *Config) { c.Epochs = 0 },
		"zero latent":     func(c *Config) { c.LatentDim = 0 },
		"zero height":     func(c *Config) { c.Height = 0 },
		"zero lr":         func(c *Config) { c.LearningRate = 0 },
		"beta1 of one":    func(c *Config) { c.Beta1 = 1 },
		"negative beta2":  func(c *Config) { c.Beta2 = -0.1 },
		"negative eps":    func(c *Config) { c.Epsilon = -1 },
		"negative worker": func(c *Config) { c.Workers = -1 },
		"negative clip":   func(c *Config) { c.MaxGradNorm = -1 },
		"unknown policy":  func(c *Config) { c.MaskPolicy = MaskPolicy(7) },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
			t.Fatalf("%s: expected ErrConfig, got %v", name, err)
		}
	}
}

func TestConfigBoundaryRatesAreValid(t *testing.T) {
	for _, rate := range []float64{0, 1} {
		cfg := DefaultConfig()
		cfg.LabeledRate = rate
		if err := cfg.Validate(); err != nil {
			t.Fatalf("rate %v rejected: %v", rate, err)
		}
	}
}

func TestParseMaskPolicy(t *testing.T) {
	for _, p := range []MaskPolicy{SkipEmptyMask, FailOnEmptyMask} {
		got, err := ParseMaskPolicy(p.String())
		if err != nil || got != p {
			t.Fatalf("round trip of %v gave %v, %v", p, got, err)
		}
	}
	if _, err := ParseMaskPolicy("clamp"); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
