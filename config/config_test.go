package config

import (
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
	if cfg.ExpirationFor("content_based") != 21*24*time.Hour {
		t.Errorf("content_based expiration = %v, want 21d", cfg.ExpirationFor("content_based"))
	}
	if cfg.ExpirationFor("unknown_algo") != 7*24*time.Hour {
		t.Errorf("unknown algorithm should fall back to default 7d, got %v", cfg.ExpirationFor("unknown_algo"))
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
max_active: 20
expiration_days:
  default: 3
  trending: 1
hybrid:
  content_weight: 0.7
  collaborative_weight: 0.3
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.MaxActive != 20 {
		t.Errorf("MaxActive = %d, want 20", cfg.MaxActive)
	}
	if cfg.ExpirationFor("trending") != 24*time.Hour {
		t.Errorf("trending expiration = %v, want 1d", cfg.ExpirationFor("trending"))
	}
	if cfg.Hybrid.ContentWeight != 0.7 {
		t.Errorf("Hybrid.ContentWeight = %v, want 0.7", cfg.Hybrid.ContentWeight)
	}
	// 未覆盖的字段保持默认
	if cfg.Collaborative.MinSharedItems != 3 {
		t.Errorf("MinSharedItems = %d, want default 3", cfg.Collaborative.MinSharedItems)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"zero rating scale", "rating_scale: 0"},
		{"negative max_active", "max_active: -1"},
		{"max below default limit", "default_limit: 30\nmax_limit: 10"},
		{"zero expiration entry", "expiration_days:\n  default: 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Errorf("Parse(%q) should fail", tc.yaml)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	cfg := Default()
	cases := []struct {
		in   int
		want int
	}{
		{0, 10},
		{-5, 10},
		{25, 25},
		{500, 50},
	}
	for _, tc := range cases {
		if got := cfg.ClampLimit(tc.in); got != tc.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
