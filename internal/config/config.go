package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	BotToken    string // MINDFUL_BOT_TOKEN (required)
	DatabaseURL string // MINDFUL_DATABASE_URL (required)
	NATSURL     string // MINDFUL_NATS_URL (default "nats://127.0.0.1:4222")
	HTTPAddr    string // MINDFUL_HTTP_ADDR (default ":8080")

	// Ritual settings
	CommandPrefix    string // MINDFUL_COMMAND_PREFIX (default "!")
	RoleName         string // MINDFUL_ROLE_NAME (default "MindfulTrader")
	AffirmationsFile string // MINDFUL_AFFIRMATIONS_FILE (optional TOML phrase file)

	// Reset settings
	Timezone          string        // MINDFUL_TIMEZONE (default "UTC")
	ResetHour         int           // MINDFUL_RESET_HOUR (default 0)
	ResetMinute       int           // MINDFUL_RESET_MINUTE (default 0)
	ResetPollInterval time.Duration // MINDFUL_RESET_POLL_INTERVAL (default 5m)

	// Backup settings
	BackupInterval   time.Duration // MINDFUL_BACKUP_INTERVAL (default 0 = disabled)
	BackupS3Bucket   string        // MINDFUL_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // MINDFUL_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // MINDFUL_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // MINDFUL_BACKUP_S3_KEY (default "mindful/backup.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		BotToken:         os.Getenv("MINDFUL_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("MINDFUL_DATABASE_URL"),
		NATSURL:          envOrDefault("MINDFUL_NATS_URL", "nats://127.0.0.1:4222"),
		HTTPAddr:         envOrDefault("MINDFUL_HTTP_ADDR", ":8080"),
		CommandPrefix:    envOrDefault("MINDFUL_COMMAND_PREFIX", "!"),
		RoleName:         envOrDefault("MINDFUL_ROLE_NAME", "MindfulTrader"),
		AffirmationsFile: os.Getenv("MINDFUL_AFFIRMATIONS_FILE"),
		Timezone:         envOrDefault("MINDFUL_TIMEZONE", "UTC"),
		BackupS3Bucket:   os.Getenv("MINDFUL_BACKUP_S3_BUCKET"),
		BackupS3Endpoint: os.Getenv("MINDFUL_BACKUP_S3_ENDPOINT"),
		BackupS3Region:   envOrDefault("MINDFUL_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Key:      envOrDefault("MINDFUL_BACKUP_S3_KEY", "mindful/backup.jsonl"),
	}
	if c.BotToken == "" {
		return nil, fmt.Errorf("MINDFUL_BOT_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("MINDFUL_DATABASE_URL is required")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return nil, fmt.Errorf("MINDFUL_TIMEZONE: %w", err)
	}

	hour, err := envInt("MINDFUL_RESET_HOUR", 0)
	if err != nil {
		return nil, err
	}
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("MINDFUL_RESET_HOUR must be 0-23, got %d", hour)
	}
	c.ResetHour = hour

	minute, err := envInt("MINDFUL_RESET_MINUTE", 0)
	if err != nil {
		return nil, err
	}
	if minute < 0 || minute > 59 {
		return nil, fmt.Errorf("MINDFUL_RESET_MINUTE must be 0-59, got %d", minute)
	}
	c.ResetMinute = minute

	poll, err := envDuration("MINDFUL_RESET_POLL_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	if poll <= 0 {
		return nil, fmt.Errorf("MINDFUL_RESET_POLL_INTERVAL must be positive, got %s", poll)
	}
	c.ResetPollInterval = poll

	backup, err := envDuration("MINDFUL_BACKUP_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	c.BackupInterval = backup

	return c, nil
}

// Location returns the reference timezone. Load has already validated the
// name, so failure here is a programming error.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		panic(fmt.Sprintf("config: timezone %q no longer loads: %v", c.Timezone, err))
	}
	return loc
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
