package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.HTTPAddr != ":8080" || c.DeviceAPILevel != 33 || c.USSDTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.AllowedOrigins) != 3 {
		t.Fatalf("AllowedOrigins = %v", c.AllowedOrigins)
	}
	if !c.QueueEnabled || c.JobsPerMinute != 20 {
		t.Fatalf("QueueEnabled = %v, JobsPerMinute = %d", c.QueueEnabled, c.JobsPerMinute)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DEVICE_API_LEVEL", "23")
	t.Setenv("USSD_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://ops.example.com")
	t.Setenv("QUEUE_ENABLED", "false")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.DeviceAPILevel != 23 || c.USSDTimeout != 5*time.Second {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.QueueEnabled {
		t.Fatal("QueueEnabled override not applied")
	}
	if len(c.AllowedOrigins) != 1 || c.AllowedOrigins[0] != "https://ops.example.com" {
		t.Fatalf("AllowedOrigins = %v", c.AllowedOrigins)
	}
}

func TestFromEnvRejectsBadTimeout(t *testing.T) {
	t.Setenv("USSD_TIMEOUT", "0s")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}
