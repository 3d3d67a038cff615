package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
telegram:
  bot_token: "token"
openai:
  api_key: "key"
database:
  url: "postgres://localhost/antiscam"
`

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, DefaultOpenAIBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAI.Model)
	assert.Equal(t, DefaultConfidenceThreshold, cfg.Moderation.ConfidenceThreshold)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Empty(t, cfg.Moderation.AdminChatIDs)
}

func TestLoadConfig_FullFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
telegram:
  bot_token: "token"
openai:
  api_key: "key"
  base_url: "https://llm.internal"
  model: "gpt-test"
database:
  url: "postgres://localhost/antiscam"
moderation:
  admin_chat_ids: "-1001, -1002"
  confidence_threshold: 0.85
server:
  port: "9090"
  jwt_secret: "s3cret"
metrics:
  enabled: true
debug: true
`))
	require.NoError(t, err)

	assert.Equal(t, "https://llm.internal", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-test", cfg.OpenAI.Model)
	assert.Equal(t, 0.85, cfg.Moderation.ConfidenceThreshold)
	assert.Equal(t, []int64{-1001, -1002}, cfg.Moderation.AdminChatIDs)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.JWTSecret)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Debug)
}

func TestLoadConfig_InvalidAdminChatIDsCollected(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
moderation:
  admin_chat_ids: "-1001,oops, ,-1002,12x"
`))
	require.NoError(t, err)

	assert.Equal(t, []int64{-1001, -1002}, cfg.Moderation.AdminChatIDs)
	assert.Equal(t, []string{"oops", "12x"}, cfg.Moderation.InvalidAdminChatIDs)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoadConfig_MissingBotToken(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
openai:
  api_key: "key"
database:
  url: "postgres://localhost/antiscam"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot_token")
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  bot_token: "token"
database:
  url: "postgres://localhost/antiscam"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestLoadConfig_ThresholdOutOfRange(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, minimalConfig+`
moderation:
  confidence_threshold: 1.5
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence_threshold")
}

func TestParseChatIDs_Empty(t *testing.T) {
	ids, invalid := parseChatIDs("")
	assert.Empty(t, ids)
	assert.Empty(t, invalid)
}

func TestParseChatIDs_PreservesOrder(t *testing.T) {
	ids, invalid := parseChatIDs("-3,-1,-2")
	assert.Equal(t, []int64{-3, -1, -2}, ids)
	assert.Empty(t, invalid)
}
