package cli

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/famomatic/ytresolve/internal/config"
)

func testEnv() config.Config {
	return config.Config{
		Port:               "8080",
		LogLevel:           "info",
		LogFormat:          "json",
		ProgramCacheTTL:    time.Hour,
		MaxParallelReplays: 4,
		ProbeRetries:       2,
		RequestTimeout:     30 * time.Second,
	}
}

func TestParseFlags_FormatAliases(t *testing.T) {
	opts, err := ParseFlags([]string{"-player-response", "pr.json", "--format", "bestaudio"}, testEnv(), io.Discard)
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if opts.FormatSelector != "bestaudio" {
		t.Fatalf("FormatSelector = %q", opts.FormatSelector)
	}

	opts, err = ParseFlags([]string{"-player-response", "pr.json", "-f", "18", "-format", "140"}, testEnv(), io.Discard)
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if opts.FormatSelector != "18" {
		t.Fatalf("FormatSelector = %q, want the short flag value", opts.FormatSelector)
	}
}

func TestParseFlags_FlagsOverrideEnv(t *testing.T) {
	env := testEnv()
	env.ProxyURL = "http://env-proxy:3128"

	opts, err := ParseFlags([]string{"-serve"}, env, io.Discard)
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if opts.Port != "8080" || opts.ProxyURL != "http://env-proxy:3128" || opts.ProbeRetries != 2 {
		t.Fatalf("env defaults not applied: %+v", opts)
	}

	opts, err = ParseFlags([]string{"-serve", "-port", "9090", "-proxy", "http://flag:1", "-retries", "5", "-verbose"}, env, io.Discard)
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if opts.Port != "9090" || opts.ProxyURL != "http://flag:1" || opts.ProbeRetries != 5 {
		t.Fatalf("flags did not override env: %+v", opts)
	}
	if opts.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug with -verbose", opts.LogLevel)
	}
}

func TestParseFlags_RequiresInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  error
	}{
		{name: "nothing", args: nil, err: ErrNoInput},
		{name: "playerjs without video", args: []string{"-playerjs"}, err: ErrNoInput},
		{name: "playerjs with video", args: []string{"-playerjs", "-v", "jNQXAC9IVRw"}},
		{name: "player response", args: []string{"-player-response", "-"}},
	}
	for _, tt := range tests {
		_, err := ParseFlags(tt.args, testEnv(), io.Discard)
		if !errors.Is(err, tt.err) {
			t.Fatalf("%s: ParseFlags() error = %v, want %v", tt.name, err, tt.err)
		}
	}
}

func TestParseFlags_Help(t *testing.T) {
	opts, err := ParseFlags([]string{"-h"}, testEnv(), io.Discard)
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if !opts.Help {
		t.Fatalf("Help = false")
	}
}

func TestToClientConfig(t *testing.T) {
	env := testEnv()
	env.PlayerJSBaseURL = "https://mirror.example"
	cfg := ToClientConfig(Options{ProxyURL: " http://p:1 ", ProbeRetries: 3, ProbeRPS: 2.5, RequestTimeout: time.Minute}, env)
	if cfg.ProxyURL != "http://p:1" || cfg.PlayerJSBaseURL != "https://mirror.example" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ProbeRetries != 3 || cfg.ProbeRatePerSecond != 2.5 || cfg.RequestTimeout != time.Minute {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ProgramCacheTTL != time.Hour || cfg.MaxParallelReplays != 4 {
		t.Fatalf("cfg = %+v", cfg)
	}

	cfg = ToClientConfig(Options{ProbeRetries: 0}, env)
	if cfg.ProbeRetries != -1 {
		t.Fatalf("ProbeRetries = %d, want -1 for an explicit zero", cfg.ProbeRetries)
	}
}
