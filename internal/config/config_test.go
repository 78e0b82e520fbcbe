package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeys(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearKeys(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.LLM.Retry.MaxAttempts)
	assert.False(t, cfg.LLM.Retry.RetryInvalid)
	assert.Equal(t, 8, cfg.Mastery.Window)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	clearKeys(t)
	path := filepath.Join(t.TempDir(), "wordsmith.yaml")
	yaml := `
server:
  addr: ":9000"
  mode: debug
llm:
  provider: openai
  timeout: 30s
  openai:
    model: gpt-test
mastery:
  window: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("WORDSMITH_LLM_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("WORDSMITH_SERVER_ADDR", ":9100")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("addr", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "/tmp/w.db"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/w.db", cfg.DB)
	assert.Equal(t, ":9100", cfg.Server.Addr, "env beats file when the flag is unset")
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "gpt-test", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Mastery.Window)
	assert.NoError(t, cfg.LLM.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearKeys(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Server.Mode = "loud"
	cfg.Mastery.Window = 0
	cfg.Assessment.Temperature = 2
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
	assert.Contains(t, err.Error(), "mastery.window")
	assert.Contains(t, err.Error(), "assessment.temperature")
}
