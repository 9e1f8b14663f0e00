package internal

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if addr := cfg.App.HTTP.Address(); addr != ":8080" {
		t.Errorf("address = %q", addr)
	}
	if cfg.Cache.CategoryTTL() != time.Hour || cfg.Cache.PageTTL() != time.Hour {
		t.Errorf("ttls = %v / %v", cfg.Cache.CategoryTTL(), cfg.Cache.PageTTL())
	}
}

func TestHTTPPortBounds(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := NewDefaultConfig()
		cfg.App.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d accepted", port)
		}
	}
}

func TestAirtableCredentialsSetTogether(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Airtable.BaseID = "appX"
	if err := cfg.Validate(); err == nil {
		t.Error("base_id without api_key accepted")
	}

	cfg = NewDefaultConfig()
	cfg.Airtable.APIKey = "key"
	if err := cfg.Validate(); err == nil {
		t.Error("api_key without base_id accepted")
	}

	cfg = NewDefaultConfig()
	cfg.Airtable.BaseID = "appX"
	cfg.Airtable.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("full credentials rejected: %v", err)
	}
}

func TestAirtableTimeoutDefault(t *testing.T) {
	var a AirtableConfig
	if a.Timeout() != 10*time.Second {
		t.Errorf("zero timeout = %v", a.Timeout())
	}
	a.TimeoutSeconds = 3
	if a.Timeout() != 3*time.Second {
		t.Errorf("timeout = %v", a.Timeout())
	}
}

func TestLogFormatValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log format accepted")
	}

	cfg = NewDefaultConfig()
	cfg.App.LogFormat = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty format rejected: %v", err)
	}
	if cfg.App.LogFormat == "" {
		t.Error("empty format not defaulted")
	}
}
