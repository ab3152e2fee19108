package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/syncmirror/pkg/models"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Mirror.DirHeuristic != models.DirTotalSize {
		t.Errorf("default heuristic = %s, want size", cfg.Mirror.DirHeuristic)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"BadDigest", func(c *Config) { c.Mirror.Digest = "crc32" }, "mirror.digest"},
		{"BadHeuristic", func(c *Config) { c.Mirror.DirHeuristic = "mtime" }, "mirror.dir_heuristic"},
		{"SmallBuffer", func(c *Config) { c.Performance.BufferSize = 10 }, "performance.buffer_size"},
		{"NegativePatchMax", func(c *Config) { c.Performance.PatchMaxBytes = -1 }, "performance.patch_max_bytes"},
		{"NegativeBandwidth", func(c *Config) { c.Performance.BandwidthLimit = -1 }, "performance.bandwidth_limit"},
		{"BadOutput", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"NegativeRotation", func(c *Config) { c.Events.MaxSizeMB = -1 }, "max_size_mb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			var valErr *models.ValidationError
			if err := cfg.Validate(); !errors.As(err, &valErr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if valErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", valErr.Field, tt.field)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Mirror.DirHeuristic = models.DirContentDigests
	cfg.Exclude = []string{"*.tmp", ".git/"}
	cfg.Events.MaxSizeMB = 10

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Mirror.DirHeuristic != models.DirContentDigests || len(loaded.Exclude) != 2 || loaded.Events.MaxSizeMB != 10 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestLoadFromFile_PartialUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mirror:\n  digest: md5\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Mirror.Digest != models.DigestMD5 {
		t.Errorf("digest = %s, want md5", cfg.Mirror.Digest)
	}
	if cfg.Performance.BufferSize != 65536 {
		t.Errorf("buffer size = %d, want default", cfg.Performance.BufferSize)
	}
}

func TestLoadFromFile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mirror:\n  digets: md5\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() should reject a misspelled key")
	}
}

func TestLoadFromFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Mirror.Digest != models.DigestSHA256 {
		t.Errorf("digest = %s, want the default", cfg.Mirror.Digest)
	}
}

func TestSaveToFile_Header(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveToFile(Default(), path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# syncmirror configuration") {
		t.Errorf("config should start with the header:\n%s", data)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("mirror: [not, a, map"), 0644)
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("LoadFromFile() should fail on malformed YAML")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("output:\n  format: xml\n"), 0644)
	if _, err := LoadFromFile(invalid); err == nil {
		t.Error("LoadFromFile() should fail validation")
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFromFile() should fail on a missing file")
	}
}
