package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/polemica/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "Acme-Corp"},
		{"  Jane Doe ", "Jane-Doe"},
		{"AT&T / Verizon", "AT&T-_-Verizon"},
		{"a:b*c?d", "a_b_c_d"},
		{"..", "report"},
		{"", "report"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
report:
  window_days: 14
http:
  timeout: 5s
sources:
  nitter:
    mirrors:
      - https://mirror.example
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("POLEMICA_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Report.WindowDays != 14 {
		t.Errorf("expected window from file, got %d", cfg.Report.WindowDays)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.HTTP.Timeout)
	}
	if len(cfg.Sources.Nitter.Mirrors) != 1 {
		t.Errorf("expected mirrors from file, got %v", cfg.Sources.Nitter.Mirrors)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected env log level, got %q", cfg.Log.Level)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Error("expected API key from OPENAI_API_KEY")
	}
	if cfg.RateLimiting.BurstSize != 4 {
		t.Errorf("expected untouched defaults to survive, got burst %d", cfg.RateLimiting.BurstSize)
	}
}

func TestApplyFlags(t *testing.T) {
	t.Cleanup(func() {
		noFooter, useCache, enrich, llmEnabled = false, false, false, false
		windowDays, sourceNames, llmModel = 0, nil, ""
	})

	cfg := model.DefaultConfig()
	noFooter, useCache, enrich = true, true, true
	windowDays = 7
	sourceNames = []string{"forum"}

	if err := applyFlags(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Output.IncludeFooter || !cfg.Cache.Enabled || !cfg.Sources.GoogleNewsRSS.EnrichContent {
		t.Error("expected boolean flags to apply")
	}
	if cfg.Report.WindowDays != 7 || len(cfg.Report.Sources) != 1 {
		t.Errorf("unexpected report config %+v", cfg.Report)
	}

	llmEnabled = true
	if err := applyFlags(model.DefaultConfig()); err == nil {
		t.Error("expected an error when the LLM is enabled without a key")
	}

	withKey := model.DefaultConfig()
	withKey.LLM.APIKey = "k"
	llmModel = "gpt-4o"
	if err := applyFlags(withKey); err != nil {
		t.Fatal(err)
	}
	if withKey.LLM.Provider != "openai" || withKey.LLM.Model != "gpt-4o" {
		t.Errorf("unexpected LLM config %+v", withKey.LLM)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Polemica Configuration File") {
		t.Error("expected header comment")
	}

	var decoded model.Config
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if decoded.Report.WindowDays != 30 {
		t.Errorf("expected default window, got %d", decoded.Report.WindowDays)
	}
	if strings.Contains(string(data), "api_key:") {
		t.Error("API key must never be written to the file")
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected refusal to overwrite")
	}
}
