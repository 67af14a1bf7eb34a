package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads; empty values fall back to defaults
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "DEV_MODE", "ZONE_CAUTION_AT", "ZONE_DANGER_AT", "SWEEP_SCHEDULE",
		"CONDITION_TEMPLATES_PATH", "COVENANT_CACHE_SIZE", "BACKUP_ENABLED", "BACKUP_SCHEDULE",
		"BACKUP_RETENTION_DAYS", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY_ID",
		"S3_SECRET_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.80, cfg.ZoneCautionAt)
	assert.Equal(t, 0.90, cfg.ZoneDangerAt)
	assert.Equal(t, "@every 1h", cfg.SweepSchedule)
	assert.Equal(t, 128, cfg.CovenantCacheSize)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, "auto", cfg.Backup.Region)
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	clearEnv(t)
	t.Setenv("DATA_DIR", dir)
	t.Setenv("PORT", "9090")
	t.Setenv("ZONE_CAUTION_AT", "0.7")
	t.Setenv("ZONE_DANGER_AT", "0.85")
	t.Setenv("BACKUP_ENABLED", "true")
	t.Setenv("S3_BUCKET", "covenant-backups")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 0.7, cfg.ZoneCautionAt)
	assert.Equal(t, 0.85, cfg.ZoneDangerAt)
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, "covenant-backups", cfg.Backup.Bucket)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:              8080,
			ZoneCautionAt:     0.8,
			ZoneDangerAt:      0.9,
			SweepSchedule:     "@hourly",
			CovenantCacheSize: 16,
			Backup:            &BackupConfig{},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"caution above danger":  func(c *Config) { c.ZoneCautionAt = 0.95 },
		"caution zero":          func(c *Config) { c.ZoneCautionAt = 0 },
		"danger at one":         func(c *Config) { c.ZoneDangerAt = 1 },
		"bad port":              func(c *Config) { c.Port = 0 },
		"no cache":              func(c *Config) { c.CovenantCacheSize = 0 },
		"no sweep schedule":     func(c *Config) { c.SweepSchedule = "" },
		"backup without bucket": func(c *Config) { c.Backup = &BackupConfig{Enabled: true, AccessKeyID: "k", SecretAccessKey: "s"} },
		"backup without secret": func(c *Config) { c.Backup = &BackupConfig{Enabled: true, Bucket: "b", AccessKeyID: "k"} },
		"backup negative retention": func(c *Config) {
			c.Backup = &BackupConfig{Enabled: true, Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s", RetentionDays: -1}
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
