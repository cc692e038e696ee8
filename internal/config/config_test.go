package config

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// parse runs the command with args and returns the configuration it saw.
func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := &Config{}
	var got *Config
	cmd := NewCommand(cfg, "test", func(_ *cobra.Command, c *Config) error {
		got = c
		return nil
	})
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return got, err
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:5175" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.Store != StoreMemory || cfg.PuzzleSource() != SourcePool {
		t.Errorf("store=%q source=%q", cfg.Store, cfg.PuzzleSource())
	}
	if cfg.RetryDelay != time.Second || cfg.SessionTimeout != time.Hour {
		t.Errorf("durations = %v / %v", cfg.RetryDelay, cfg.SessionTimeout)
	}
	if cfg.SealingSecret() != cfg.JWTSecret {
		t.Error("sealing secret should default to the jwt secret")
	}
}

func TestEnvAndFlags(t *testing.T) {
	t.Setenv("GIBBERISH_PORT", "9000")
	t.Setenv("GIBBERISH_STORE", "sqlite")
	t.Setenv("GIBBERISH_GEMINI_API_KEY", "k")
	t.Setenv("GIBBERISH_RETRY_DELAY", "250ms")

	cfg, err := parse(t, "--port", "9100", "--share-secret", "s3cret")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("flag should win over env, Port = %d", cfg.Port)
	}
	if cfg.Store != StoreSQLite || cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("env not applied: store=%q delay=%v", cfg.Store, cfg.RetryDelay)
	}
	if cfg.PuzzleSource() != SourceGemini {
		t.Errorf("source = %q, want gemini when a key is set", cfg.PuzzleSource())
	}
	if cfg.SealingSecret() != "s3cret" {
		t.Errorf("SealingSecret = %q", cfg.SealingSecret())
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port: 5175, LogFormat: "console", Store: StoreMemory, Source: SourcePool,
			RetryDelay: time.Second, FetchTimeout: time.Second, JWTSecret: defaultJWTSecret,
		}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"unknown store", func(c *Config) { c.Store = "etcd" }, true},
		{"sqlite without path", func(c *Config) { c.Store = StoreSQLite }, true},
		{"gemini without key", func(c *Config) { c.Source = SourceGemini }, true},
		{"unknown source", func(c *Config) { c.Source = "oracle" }, true},
		{"zero retry delay", func(c *Config) { c.RetryDelay = 0 }, true},
		{"default secret in production", func(c *Config) { c.Production = true }, true},
		{"production with secret", func(c *Config) { c.Production = true; c.JWTSecret = "real" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecuteRejectsInvalid(t *testing.T) {
	if _, err := parse(t, "--store", "etcd"); err == nil {
		t.Error("expected an error for an unknown store")
	}
}
