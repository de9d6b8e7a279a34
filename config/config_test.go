package config

import (
	"math"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.DefaultLimit != 10 {
		t.Errorf("default limit = %d", cfg.DefaultLimit)
	}
	if cfg.InitialConfidence["test_drive"] != 0.95 {
		t.Errorf("test_drive confidence = %v", cfg.InitialConfidence["test_drive"])
	}
	sum := cfg.Content.BudgetWeight + cfg.Content.PurposeWeight + cfg.Content.BrandWeight + cfg.Content.AgeWeight
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("content weights sum to %v", sum)
	}
	if cfg.Homepage.PersonalizedRatio != 0.7 {
		t.Errorf("homepage ratio = %v", cfg.Homepage.PersonalizedRatio)
	}
	if cfg.Popularity.Weights["skip"] != -1 {
		t.Errorf("skip weight = %v", cfg.Popularity.Weights["skip"])
	}
	if cfg.Flush.FallbackCap != 1000 {
		t.Errorf("fallback cap = %d", cfg.Flush.FallbackCap)
	}
}

func TestViewConfidenceStaircase(t *testing.T) {
	cfg := Default()
	cases := []struct {
		seconds int
		want    float64
	}{
		{0, 0.1},
		{4, 0.1},
		{5, 0.3},
		{14, 0.3},
		{15, 0.5},
		{29, 0.5},
		{30, 0.7},
		{59, 0.7},
		{60, 0.9},
		{600, 0.9},
	}
	for _, c := range cases {
		if got := cfg.ViewConfidence(c.seconds); got != c.want {
			t.Errorf("ViewConfidence(%d) = %v, want %v", c.seconds, got, c.want)
		}
	}
}

func TestInteractionConfidence(t *testing.T) {
	cfg := Default()
	if got := cfg.InteractionConfidence("like"); got != 0.8 {
		t.Errorf("like = %v", got)
	}
	// unknown types get a neutral default
	if got := cfg.InteractionConfidence("mystery"); got != 0.5 {
		t.Errorf("unknown type = %v", got)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	overlay := []byte(`
default_limit: 20
initial_confidence:
  view: 0.25
homepage:
  personalized_ratio: 0.5
rules:
  - 'label.brand == "BMW"'
`)
	cfg, err := Load(overlay)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DefaultLimit != 20 {
		t.Errorf("default limit = %d", cfg.DefaultLimit)
	}
	if cfg.InitialConfidence["view"] != 0.25 {
		t.Errorf("overridden view confidence = %v", cfg.InitialConfidence["view"])
	}
	// untouched map keys survive the overlay
	if cfg.InitialConfidence["like"] != 0.8 {
		t.Errorf("like confidence lost in overlay: %v", cfg.InitialConfidence["like"])
	}
	if cfg.Homepage.PersonalizedRatio != 0.5 {
		t.Errorf("homepage ratio = %v", cfg.Homepage.PersonalizedRatio)
	}
	if len(cfg.Rules) != 1 {
		t.Errorf("rules = %v", cfg.Rules)
	}
	// untouched sections keep their defaults
	if cfg.Diversity.FreeSlots != 3 {
		t.Errorf("diversity free slots = %d", cfg.Diversity.FreeSlots)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load([]byte("default_limit: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
