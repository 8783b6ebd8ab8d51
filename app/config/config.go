package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const (
	defaultThreshold = 20
	defaultListen    = ":8787"
	defaultModel     = "gpt-3.5-turbo"
)

type Config struct {
	Log    Log    `yaml:"log"`
	Host   Host   `yaml:"host"`
	Server Server `yaml:"server"`
	Plugin Plugin `yaml:"plugin"`
}

type Host struct {
	// Base URL of the chat host HTTP API
	BaseURL string `yaml:"base_url" example:"http://localhost:8000" validate:"required,url"`
	// API key for the host, sent as a bearer token when non-empty
	APIKey string `yaml:"api_key" example:"sk-host-abc123456789"`
}

type Server struct {
	// Listen address of the command/health HTTP server
	Listen string `yaml:"listen" example:":8787" validate:"required"`
}

type Plugin struct {
	// Disable automatic memory updates entirely
	Disabled bool `yaml:"disabled" example:"false"`
	// Number of chat messages between automatic memory updates
	MessagesBeforeSummarize int `yaml:"messages_before_summarize" example:"20" validate:"min=1"`
	// Suppress host UI notifications about update results
	DisableNotifications bool `yaml:"disable_notifications" example:"false"`
	// Use a separate OpenAI-compatible endpoint instead of the host model
	UseSeparateModel bool `yaml:"use_separate_model" example:"false"`
	// Chat-completions URL of the separate model
	SeparateModelEndpoint string `yaml:"separate_model_endpoint" example:"https://openrouter.ai/api/v1/chat/completions" validate:"omitempty,url"`
	// API key for the separate model
	SeparateModelAPIKey string `yaml:"separate_model_api_key" example:"sk-or-abc123456789DEF"`
	// Model name sent to the separate endpoint
	SeparateModelName string `yaml:"separate_model_name" example:"deepseek/deepseek-chat-v3-0324:free"`
	// Summarization prompt template, supports {{user}}, {{char}} and {{count}}.
	// Empty value falls back to the built-in template.
	SummarizationPrompt string `yaml:"summarization_prompt"`
	// Do not suppress sentences that already appear in the user persona
	SkipPersonaCheck bool `yaml:"skip_persona_check" example:"false"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	return LoadFrom("config.yaml")
}

func LoadFrom(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Plugin.MessagesBeforeSummarize == 0 {
		result.Plugin.MessagesBeforeSummarize = defaultThreshold
	}
	if result.Plugin.SeparateModelName == "" {
		result.Plugin.SeparateModelName = defaultModel
	}
	if result.Server.Listen == "" {
		result.Server.Listen = defaultListen
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
