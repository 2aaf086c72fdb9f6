package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds server configuration.
type Config struct {
	Port         string
	StoreBackend string
	QuotesDir    string
	DBPath       string
	MaxRooms     int
	BotName      string
	LogLevel     string
	LogPretty    bool
}

var defaults = map[string]any{
	"port":          "8080",
	"store_backend": BackendFile,
	"quotes_dir":    "var",
	"db_path":       "quoteboard.db",
	"max_rooms":     100,
	"bot_name":      "quotebot",
	"log_level":     "info",
	"log_pretty":    false,
}

// Load reads configuration from an optional quoteboard.yaml (in . or
// ./config) and from environment variables, with sensible defaults.
// Environment variables use the upper-cased key, e.g. QUOTES_DIR.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("quoteboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Port:         v.GetString("port"),
		StoreBackend: v.GetString("store_backend"),
		QuotesDir:    v.GetString("quotes_dir"),
		DBPath:       v.GetString("db_path"),
		MaxRooms:     intOrDefault(v, "max_rooms"),
		BotName:      v.GetString("bot_name"),
		LogLevel:     v.GetString("log_level"),
		LogPretty:    v.GetBool("log_pretty"),
	}
	if cfg.StoreBackend != BackendFile && cfg.StoreBackend != BackendSQLite {
		return Config{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return cfg, nil
}

// intOrDefault falls back to the default when the value is not a valid integer.
func intOrDefault(v *viper.Viper, key string) int {
	n, err := strconv.Atoi(v.GetString(key))
	if err != nil {
		return defaults[key].(int)
	}
	return n
}
