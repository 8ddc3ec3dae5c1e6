package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the process-level configuration loaded at startup. Runtime
// settings (tracked chats, admins) live in the document store instead and
// are managed through the database.ConfigRepository.
type Config struct {
	TelegramToken string
	MongoDB       MongoDBConfig
	Timezone      string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// Load loads configuration from environment variables and an optional
// config file. The Telegram token and Mongo URI are required; startup
// aborts without them.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional, environment variables are enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		TelegramToken: viper.GetString("TELEGRAM_BOT_TOKEN"),
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
		},
		Timezone: viper.GetString("TIMEZONE"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.MongoDB.URI == "" {
		return nil, fmt.Errorf("MONGODB_URI is not set")
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("MONGODB_DATABASE", "arabot")
	viper.SetDefault("TIMEZONE", "UTC")
}
