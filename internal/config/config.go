package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for CaptainClaw
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AdminConfig holds API authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig holds upload storage configuration
type StorageConfig struct {
	Uploads     string `mapstructure:"uploads"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

// LLMConfig holds provider credentials and endpoints. The API keys are also
// read from OPENAI_API_KEY / OPENROUTER_API_KEY / OLLAMA_MODEL.
type LLMConfig struct {
	OpenAIAPIKey      string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL     string        `mapstructure:"openai_base_url"`
	OpenRouterAPIKey  string        `mapstructure:"openrouter_api_key"`
	OpenRouterBaseURL string        `mapstructure:"openrouter_base_url"`
	OpenRouterReferer string        `mapstructure:"openrouter_referer"`
	OpenRouterTitle   string        `mapstructure:"openrouter_title"`
	OllamaBaseURL     string        `mapstructure:"ollama_base_url"`
	OllamaModel       string        `mapstructure:"ollama_model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CAPTAINCLAW")
	v.AutomaticEnv()

	// Provider credentials keep their conventional unprefixed names
	bindings := map[string]string{
		"llm.openai_api_key":     "OPENAI_API_KEY",
		"llm.openrouter_api_key": "OPENROUTER_API_KEY",
		"llm.ollama_model":       "OLLAMA_MODEL",
		"server.port":            "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("admin.api_key", "")

	v.SetDefault("database.path", "./data/captainclaw/captainclaw.db")
	v.SetDefault("storage.uploads", "./data/captainclaw/uploads")
	v.SetDefault("storage.max_upload_mb", 50)

	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openrouter_api_key", "")
	v.SetDefault("llm.openrouter_base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.openrouter_referer", "https://captainclaw.ai")
	v.SetDefault("llm.openrouter_title", "CaptainClaw")
	v.SetDefault("llm.ollama_base_url", "http://localhost:11434")
	v.SetDefault("llm.ollama_model", "mistral:latest")
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.retry_attempts", 0)
	v.SetDefault("llm.retry_delay", 2*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
