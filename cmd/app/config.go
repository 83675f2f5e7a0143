package main

import (
	"fmt"
	"strings"
	"time"

	"BC_telegram_miniapp/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	TelegramAuth TelegramAuthConfig `yaml:"telegramAuth"`
	Event        EventConfig        `yaml:"event"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	WebhookSecret    string `yaml:"webhookSecret"`
	WebAppURL        string `yaml:"webAppURL"`
	DebugMode        bool   `yaml:"debugMode"`
}

type EventConfig struct {
	Name      string `yaml:"name"`
	StartDate string `yaml:"startDate"`
}

// StartTime parses the configured event start as an RFC 3339 timestamp.
func (e EventConfig) StartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.StartDate)
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
