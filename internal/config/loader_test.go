package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nmodels_dir: /tmp\ntopic_broadcast: myTopic\nwebswitch_server: ws.example.test\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.ModelsDir != "/tmp" || cfg.TopicBroadcast != "myTopic" || cfg.WebswitchServer != "ws.example.test" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","models_dir":"/m","pool":{"min":2,"max":4,"queue_tolerance":30}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.ModelsDir != "/m" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Pool.Min != 2 || cfg.Pool.Max != 4 || cfg.Pool.QueueTolerance != 30 {
		t.Fatalf("unexpected pool defaults: %+v", cfg.Pool)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmodels_dir=\"/x\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.ModelsDir != "/x" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadAppliesSpecDefaults(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != defaultAddr || cfg.TopicBroadcast != defaultTopicBroadcast ||
		cfg.WebswitchServer != defaultWebswitchServer || cfg.LogLevel != defaultLogLevel {
		t.Fatalf("unexpected defaulted cfg: %+v", cfg)
	}
	if cfg.Pool.Min != defaultPoolMin || cfg.Pool.Max != defaultPoolMax || cfg.Pool.QueueTolerance != defaultQueueTolerance {
		t.Fatalf("unexpected defaulted pool: %+v", cfg.Pool)
	}
}

func TestLoadWithEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != defaultAddr {
		t.Fatalf("expected default addr with no config file, got %+v", cfg)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestLoadEnvOverlayWinsOverFile(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070"}`)
	t.Setenv("POOLD_ADDR", ":9000")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("expected env override to win, got %q", cfg.Addr)
	}
}
