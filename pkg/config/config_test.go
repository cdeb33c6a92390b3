package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name  string        `yaml:"name" toml:"name"`
	Delay time.Duration `yaml:"delay" toml:"delay"`
	Inner struct {
		Port int `yaml:"port" toml:"port"`
	} `yaml:"inner" toml:"inner"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	p := writeFile(t, "c.yaml", "name: ${SAMPLE_NAME}\ndelay: 250ms\ninner:\n  port: 9000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Delay != 250*time.Millisecond || s.Inner.Port != 9000 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_TOML(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "toml-env")
	p := writeFile(t, "c.toml", "name = \"${SAMPLE_NAME}\"\ndelay = \"1s\"\n\n[inner]\nport = 7000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "toml-env" || s.Delay != time.Second || s.Inner.Port != 7000 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	p := writeFile(t, "c.yaml", "delay: 1s\n")

	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	def := writeFile(t, "default.yaml", "name: fallback\n")

	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), def, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Name != "fallback" {
		t.Errorf("name = %q", s.Name)
	}
}
