package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campaignd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "provider:\n  model: claude-sonnet-4-5-20250929\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != defaultPort {
		t.Errorf("port = %d, want %d", cfg.Server.Port, defaultPort)
	}
	if cfg.CRM.Path != defaultCRMPath {
		t.Errorf("crm path = %q, want %q", cfg.CRM.Path, defaultCRMPath)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v, want info/text", cfg.Logging)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("CAMPAIGND_TEST_PORT", "9100")

	cfg, err := Load(writeConfig(t, strings.Join([]string{
		"server:",
		"  port: ${CAMPAIGND_TEST_PORT}",
		"  host: ${CAMPAIGND_TEST_HOST:-127.0.0.1}",
	}, "\n")))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, want default fallback", cfg.Server.Host)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "server:\n  host: ${CAMPAIGND_DOES_NOT_EXIST}\n"))
	if err == nil || !strings.Contains(err.Error(), "CAMPAIGND_DOES_NOT_EXIST") {
		t.Errorf("expected unresolved variable error, got %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, strings.Join([]string{
		"server:",
		"  port: 99999",
		"logging:",
		"  level: noisy",
		"agent:",
		"  timeout: not-a-duration",
	}, "\n")))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"port", "logging.level", "agent.timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestAgentConfig_LoopConfig(t *testing.T) {
	t.Parallel()

	lc := AgentConfig{MaxTurns: 4, Timeout: "2m", LoopThreshold: 5}.LoopConfig()
	if lc.MaxTurns != 4 || lc.Timeout != 2*time.Minute || lc.LoopThreshold != 5 {
		t.Errorf("loop config = %+v", lc)
	}

	// Empty timeout defers to the loop default.
	lc = AgentConfig{}.LoopConfig()
	if lc.Timeout != 0 {
		t.Errorf("timeout = %v, want 0 (loop default applies)", lc.Timeout)
	}
}
