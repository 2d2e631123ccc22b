// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Bus: BusConfig{TimeoutMs: 5000},
			Services: map[string]ServiceConfig{
				ServiceSoftware: {
					Destination: "org.opensuse.Agama.Software1",
					Path:        "/org/opensuse/Agama/Software1",
					Interface:   "org.opensuse.Agama.Software1",
				},
				ServiceStorageProposal: {
					Destination: "org.opensuse.Agama.Storage1",
					Path:        "/org/opensuse/Agama/Storage1/Proposal",
					Interface:   "org.opensuse.Agama.Storage1.Proposal",
				},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
}

func TestValidate_NoServices(t *testing.T) {
	cfg := validConfig()
	cfg.Client.Services = nil

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestValidate_MissingInterface(t *testing.T) {
	cfg := validConfig()
	s := cfg.Client.Services[ServiceSoftware]
	s.Interface = ""
	cfg.Client.Services[ServiceSoftware] = s

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "interface required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RelativePath(t *testing.T) {
	cfg := validConfig()
	s := cfg.Client.Services[ServiceSoftware]
	s.Path = "org/opensuse/Agama/Software1"
	cfg.Client.Services[ServiceSoftware] = s

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestValidate_InterfaceCollision(t *testing.T) {
	cfg := validConfig()
	cfg.Client.Services["duplicate"] = cfg.Client.Services[ServiceSoftware]

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "interface collision") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalize_DefaultTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Client.Bus.TimeoutMs = 0

	Normalize(cfg)

	if cfg.Client.Bus.TimeoutMs != DefaultTimeoutMs {
		t.Fatalf("TimeoutMs=%d want %d", cfg.Client.Bus.TimeoutMs, DefaultTimeoutMs)
	}
}
