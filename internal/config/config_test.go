package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"missive/internal/config"
)

func TestLoadDefaultsExpandPathsAndDeriveDirectories(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "missive")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.NewslettersDir != filepath.Join(wantData, "newsletters") {
		t.Fatalf("unexpected newsletters dir: %q", cfg.Paths.NewslettersDir)
	}
	if cfg.Paths.ImageDir != filepath.Join(wantData, "images") {
		t.Fatalf("unexpected image dir: %q", cfg.Paths.ImageDir)
	}
	if cfg.Paths.Bind != "127.0.0.1:8067" {
		t.Fatalf("unexpected bind: %q", cfg.Paths.Bind)
	}
	if cfg.SMTP.Host != "" {
		t.Fatalf("expected SMTP disabled by default, got host %q", cfg.SMTP.Host)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.NewslettersDir, cfg.Paths.ImageDir, cfg.Paths.LogDir, cfg.UploadDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "missive.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
			Bind    string `toml:"bind"`
		} `toml:"paths"`
		SMTP struct {
			Host string `toml:"host"`
			From string `toml:"from"`
		} `toml:"smtp"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Paths.Bind = "0.0.0.0:9000"
	custom.SMTP.Host = "smtp.example.com"
	custom.SMTP.From = "jo@blogs.com"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DataDir != custom.Paths.DataDir {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.Bind != "0.0.0.0:9000" {
		t.Fatalf("unexpected bind: %q", cfg.Paths.Bind)
	}
	if cfg.SMTP.Host != "smtp.example.com" {
		t.Fatalf("unexpected smtp host: %q", cfg.SMTP.Host)
	}
	if cfg.SMTP.Port != 587 {
		t.Fatalf("expected default smtp port, got %d", cfg.SMTP.Port)
	}
	if cfg.DatabasePath() != filepath.Join(custom.Paths.DataDir, "missive.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestEnvVarSuppliesSMTPPassword(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MISSIVE_SMTP_PASSWORD", "hunter2")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SMTP.Password != "hunter2" {
		t.Fatalf("expected SMTP password from env, got %q", cfg.SMTP.Password)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[smtp]") {
		t.Fatalf("sample config missing smtp section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.From = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for smtp host without from address")
	}

	cfg = config.Default()
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.From = "jo@blogs.com"
	cfg.SMTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid smtp port")
	}

	cfg = config.Default()
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log format")
	}

	cfg = config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
