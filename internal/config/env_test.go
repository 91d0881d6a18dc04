package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Service.Name != "beacon" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.WS.SendTimeout != 5*time.Second {
		t.Fatalf("WS.SendTimeout = %v", cfg.WS.SendTimeout)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Worker.NotificationStream != "notifications" {
		t.Fatalf("Worker.NotificationStream = %q", cfg.Worker.NotificationStream)
	}
	if cfg.AuthSecret != "" {
		t.Fatalf("AuthSecret = %q, want empty default", cfg.AuthSecret)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_ADDR", ":9999")
	t.Setenv("WS_SEND_TIMEOUT", "250ms")
	t.Setenv("WS_MESSAGE_RATE", "2.5")
	t.Setenv("RATE_LIMIT_REQUESTS", "7")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.WS.SendTimeout != 250*time.Millisecond {
		t.Fatalf("WS.SendTimeout = %v", cfg.WS.SendTimeout)
	}
	if cfg.WS.MessageRate != 2.5 {
		t.Fatalf("WS.MessageRate = %v", cfg.WS.MessageRate)
	}
	if cfg.RateLimit.Requests != 7 {
		t.Fatalf("RateLimit.Requests = %d", cfg.RateLimit.Requests)
	}
	if !cfg.Tracer.Enabled {
		t.Fatal("Tracer.Enabled = false")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "lots")
	t.Setenv("WS_SEND_TIMEOUT", "soon")

	cfg := Load()
	if cfg.RateLimit.Requests != 100 {
		t.Fatalf("RateLimit.Requests = %d, want default on parse failure", cfg.RateLimit.Requests)
	}
	if cfg.WS.SendTimeout != 5*time.Second {
		t.Fatalf("WS.SendTimeout = %v, want default on parse failure", cfg.WS.SendTimeout)
	}
}
