package config

import (
	"testing"
	"time"
)

// allEnvVars lists every env var Load reads, cleared between tests.
var allEnvVars = []string{
	"MINDFUL_BOT_TOKEN", "MINDFUL_DATABASE_URL", "MINDFUL_NATS_URL",
	"MINDFUL_HTTP_ADDR", "MINDFUL_COMMAND_PREFIX", "MINDFUL_ROLE_NAME",
	"MINDFUL_AFFIRMATIONS_FILE", "MINDFUL_TIMEZONE", "MINDFUL_RESET_HOUR",
	"MINDFUL_RESET_MINUTE", "MINDFUL_RESET_POLL_INTERVAL",
	"MINDFUL_BACKUP_INTERVAL", "MINDFUL_BACKUP_S3_BUCKET",
	"MINDFUL_BACKUP_S3_ENDPOINT", "MINDFUL_BACKUP_S3_REGION", "MINDFUL_BACKUP_S3_KEY",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	base := map[string]string{
		"MINDFUL_BOT_TOKEN":    "token",
		"MINDFUL_DATABASE_URL": "postgres://localhost/mindful",
	}

	for _, tc := range []struct {
		name     string
		env      map[string]string
		wantErr  bool
		check    func(t *testing.T, c *Config)
	}{
		{
			name:    "MissingBotToken",
			env:     map[string]string{"MINDFUL_DATABASE_URL": "postgres://localhost/mindful"},
			wantErr: true,
		},
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{"MINDFUL_BOT_TOKEN": "token"},
			wantErr: true,
		},
		{
			name: "Defaults",
			env:  base,
			check: func(t *testing.T, c *Config) {
				if c.HTTPAddr != ":8080" {
					t.Errorf("HTTPAddr = %q", c.HTTPAddr)
				}
				if c.NATSURL != "nats://127.0.0.1:4222" {
					t.Errorf("NATSURL = %q", c.NATSURL)
				}
				if c.CommandPrefix != "!" || c.RoleName != "MindfulTrader" {
					t.Errorf("prefix/role = %q/%q", c.CommandPrefix, c.RoleName)
				}
				if c.Timezone != "UTC" || c.ResetHour != 0 || c.ResetMinute != 0 {
					t.Errorf("reset = %s %02d:%02d", c.Timezone, c.ResetHour, c.ResetMinute)
				}
				if c.ResetPollInterval != 5*time.Minute {
					t.Errorf("ResetPollInterval = %s", c.ResetPollInterval)
				}
				if c.BackupInterval != 0 {
					t.Errorf("BackupInterval = %s, want disabled", c.BackupInterval)
				}
			},
		},
		{
			name: "CustomReset",
			env: merge(base, map[string]string{
				"MINDFUL_TIMEZONE":            "America/New_York",
				"MINDFUL_RESET_HOUR":          "9",
				"MINDFUL_RESET_MINUTE":        "30",
				"MINDFUL_RESET_POLL_INTERVAL": "1m",
			}),
			check: func(t *testing.T, c *Config) {
				if c.Timezone != "America/New_York" {
					t.Errorf("Timezone = %q", c.Timezone)
				}
				if c.ResetHour != 9 || c.ResetMinute != 30 {
					t.Errorf("reset = %02d:%02d", c.ResetHour, c.ResetMinute)
				}
				if c.ResetPollInterval != time.Minute {
					t.Errorf("ResetPollInterval = %s", c.ResetPollInterval)
				}
				if c.Location().String() != "America/New_York" {
					t.Errorf("Location() = %s", c.Location())
				}
			},
		},
		{
			name:    "BadTimezone",
			env:     merge(base, map[string]string{"MINDFUL_TIMEZONE": "Not/AZone"}),
			wantErr: true,
		},
		{
			name:    "ResetHourOutOfRange",
			env:     merge(base, map[string]string{"MINDFUL_RESET_HOUR": "24"}),
			wantErr: true,
		},
		{
			name:    "ResetMinuteNotANumber",
			env:     merge(base, map[string]string{"MINDFUL_RESET_MINUTE": "half past"}),
			wantErr: true,
		},
		{
			name:    "NonPositivePollInterval",
			env:     merge(base, map[string]string{"MINDFUL_RESET_POLL_INTERVAL": "0s"}),
			wantErr: true,
		},
		{
			name: "BackupEnabled",
			env: merge(base, map[string]string{
				"MINDFUL_BACKUP_INTERVAL":  "1h",
				"MINDFUL_BACKUP_S3_BUCKET": "mindful-backups",
			}),
			check: func(t *testing.T, c *Config) {
				if c.BackupInterval != time.Hour {
					t.Errorf("BackupInterval = %s", c.BackupInterval)
				}
				if c.BackupS3Bucket != "mindful-backups" || c.BackupS3Key != "mindful/backup.jsonl" {
					t.Errorf("bucket/key = %q/%q", c.BackupS3Bucket, c.BackupS3Key)
				}
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			c, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if tc.check != nil {
				tc.check(t, c)
			}
		})
	}
}

func merge(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
