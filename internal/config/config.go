package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file leaves a field empty.
const (
	DefaultOpenAIBaseURL       = "https://api.openai.com"
	DefaultOpenAIModel         = "gpt-4o-mini"
	DefaultConfidenceThreshold = 0.70
)

// Config holds the application's configuration. It is loaded once at
// startup and treated as immutable afterwards; components receive it
// (or slices of it) at construction and never re-read it.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	OpenAI struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Moderation struct {
		// AdminChatIDsRaw is a comma-separated list of Telegram chat ids
		// that act as global admin chats. Parsed into AdminChatIDs at load.
		AdminChatIDsRaw     string  `yaml:"admin_chat_ids"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`

		AdminChatIDs        []int64  `yaml:"-"`
		InvalidAdminChatIDs []string `yaml:"-"`
	} `yaml:"moderation"`
	Server struct {
		Port      string `yaml:"port"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Debug bool `yaml:"debug"`
}

// LoadConfig reads configuration from the specified YAML file, applies
// defaults and parses the admin chat id list. Entries that are not
// valid integers end up in InvalidAdminChatIDs for the caller to log.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	applyDefaults(config)
	config.Moderation.AdminChatIDs, config.Moderation.InvalidAdminChatIDs =
		parseChatIDs(config.Moderation.AdminChatIDsRaw)

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = DefaultOpenAIModel
	}
	if cfg.Moderation.ConfidenceThreshold == 0 {
		cfg.Moderation.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
}

func validate(cfg *Config) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if cfg.Moderation.ConfidenceThreshold < 0 || cfg.Moderation.ConfidenceThreshold > 1 {
		return fmt.Errorf("moderation.confidence_threshold must be within [0, 1], got %v", cfg.Moderation.ConfidenceThreshold)
	}
	return nil
}

// parseChatIDs splits a comma-separated id list, returning the parsed
// ids in their original order and the tokens that failed to parse.
func parseChatIDs(raw string) ([]int64, []string) {
	var ids []int64
	var invalid []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			invalid = append(invalid, part)
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}
