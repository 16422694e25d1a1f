package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig
	Database DatabaseConfig
	Server   ServerConfig
	Worker   WorkerConfig
	History  HistoryConfig
	Logger   LoggerConfig
}

type TelegramConfig struct {
	Token          string
	AllowedUserIDs []int64
}

type DatabaseConfig struct {
	URL string
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	WorkDir      string
	YtdlpBinary  string
	PollInterval time.Duration
	ErrorBackoff time.Duration
}

type HistoryConfig struct {
	Path string
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("PORT", 8000)
	v.SetDefault("HISTORY_DB_PATH", "./certsentry.db")
	v.SetDefault("WORK_DIR", ".")
	v.SetDefault("YTDLP_BINARY", "yt-dlp")
	v.SetDefault("POLL_INTERVAL", "10s")
	v.SetDefault("ERROR_BACKOFF", "30s")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "text")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:          v.GetString("TELEGRAM_BOT_TOKEN"),
			AllowedUserIDs: parseUserIDs(v.GetString("ALLOWED_USER_IDS")),
		},
		Database: DatabaseConfig{
			URL: v.GetString("DATABASE_URL"),
		},
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("PORT"),
		},
		Worker: WorkerConfig{
			WorkDir:      v.GetString("WORK_DIR"),
			YtdlpBinary:  v.GetString("YTDLP_BINARY"),
			PollInterval: parseDuration(v.GetString("POLL_INTERVAL"), 10*time.Second),
			ErrorBackoff: parseDuration(v.GetString("ERROR_BACKOFF"), 30*time.Second),
		},
		History: HistoryConfig{
			Path: v.GetString("HISTORY_DB_PATH"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

// parseUserIDs reads a comma-separated allow-list. Malformed entries are
// skipped rather than failing startup.
func parseUserIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
