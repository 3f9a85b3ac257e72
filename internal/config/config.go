// Package config loads file-based bootstrap configuration.
package config

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/emberwiki/emberwiki/internal/logger"
	"github.com/emberwiki/emberwiki/wiki"
)

const configFilename = "config.yaml"

// SetupConfig loads configuration from config.yaml, writing a default
// file on first run, and initializes the global logger. The session
// cookie secret is kept in .cookiesecret.yaml and generated if missing.
func SetupConfig() *wiki.Config {
	viper.SetDefault("dbfile", "emberwiki.db")
	viper.SetDefault("host", "0.0.0.0:8080")
	viper.SetDefault("log_format", "pretty") // pretty, json, or text
	viper.SetDefault("log_level", "info")    // debug, info, warn, error
	viper.SetDefault("base_url", "http://localhost:8080")
	viper.SetDefault("redis_url", "")
	viper.SetDefault("cookie_expiry", 86400*7) // a week

	viper.SetConfigFile(configFilename)
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()

	createDefaultConfigFile := false

	if err != nil {
		if strings.Contains(err.Error(), "no such file or directory") {
			createDefaultConfigFile = true
		} else {
			slog.Error("failed to read config", "error", err)
			os.Exit(1)
		}
	}

	// Initialize logger with configured format and level
	logger.Init(viper.GetString("log_format"), viper.GetString("log_level"))

	config := &wiki.Config{
		DatabaseFile: viper.GetString("dbfile"),
		Host:         viper.GetString("host"),
		BaseURL:      viper.GetString("base_url"),
		LogFormat:    viper.GetString("log_format"),
		LogLevel:     viper.GetString("log_level"),
		RedisURL:     viper.GetString("redis_url"),
		CookieExpiry: viper.GetInt("cookie_expiry"),
		CookieSecret: loadCookieSecret(),
	}

	if createDefaultConfigFile {
		slog.Info("config not found, writing defaults", "file", configFilename)
		conf, err := os.Create(configFilename)
		if err != nil {
			slog.Error("failed to create config file", "error", err)
			os.Exit(1)
		}
		defer conf.Close()

		if err := yaml.NewEncoder(conf).Encode(config); err != nil {
			slog.Error("failed to write config file", "error", err)
			os.Exit(1)
		}
	}

	return config
}

func loadCookieSecret() []byte {
	_, err := os.Stat(".cookiesecret.yaml")
	if err == nil {
		v := viper.New()
		v.SetConfigFile(".cookiesecret.yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			slog.Error("failed to read cookie secret config", "error", err)
			os.Exit(1)
		}
		secretBytes, err := base64.StdEncoding.DecodeString(v.GetString("cookie_secret"))
		if err != nil {
			slog.Error("failed to decode cookie secret", "error", err)
			os.Exit(1)
		}
		return secretBytes
	}

	file, err := os.Create(".cookiesecret.yaml")
	if err != nil {
		slog.Error("failed to create cookie secret file", "error", err)
		os.Exit(1)
	}
	defer file.Close()

	secretBytes := securecookie.GenerateRandomKey(64)
	if secretBytes == nil {
		slog.Error("failed to generate cookie secret", "error", errors.New("securecookie.GenerateRandomKey returned nil"))
		os.Exit(1)
	}
	secret := base64.StdEncoding.EncodeToString(secretBytes)

	if _, err := file.WriteString("cookie_secret: " + secret + "\n"); err != nil {
		slog.Error("failed to write cookie secret", "error", err)
		os.Exit(1)
	}
	return secretBytes
}
