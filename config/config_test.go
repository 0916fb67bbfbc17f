package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/roster-insights/internal/domain/roster"
)

func mapEnv(m map[string]string) *envReader {
	return &envReader{lookup: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

func TestLoad_Defaults(t *testing.T) {
	env := mapEnv(nil)
	cfg := load(env)

	require.Empty(t, env.errs)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, int64(10<<20), cfg.HTTP.MaxUploadBytes)
	assert.Equal(t, 24*time.Hour, cfg.Reports.CacheTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Reports.Retention)
	assert.Equal(t, time.Hour, cfg.Scheduler.PurgeInterval)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/rosters")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("REPORT_RETENTION", "72h")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("ROSTER_PROFILE", "/etc/roster.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvStaging, cfg.App.Environment)
	assert.Equal(t, "postgres://u:p@db:5432/rosters", cfg.Database.URL)
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, 72*time.Hour, cfg.Reports.Retention)
	assert.Equal(t, "/etc/roster.yaml", cfg.ProfilePath)
}

func TestValidate_AggregatesProblems(t *testing.T) {
	env := mapEnv(map[string]string{
		"APP_ENV":               "production",
		"HTTP_PORT":             "eighty",
		"REPORT_PURGE_INTERVAL": "0s",
		"LOG_FORMAT":            "xml",
		"REDIS_DB":              "42",
	})
	cfg := load(env)

	err := cfg.Validate(env.errs...)
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		`HTTP_PORT: "eighty" is not an integer`,
		"ACCESS_PASSWORD_HASH is required in production",
		"REPORT_PURGE_INTERVAL must be positive",
		"LOG_FORMAT must be json or text",
		"REDIS_DB must be 0-15",
	} {
		assert.Contains(t, msg, want)
	}
	assert.Equal(t, 5, strings.Count(msg, "\n  - "))
}

func TestValidate_UnknownEnvironment(t *testing.T) {
	cfg := load(mapEnv(map[string]string{"APP_ENV": "qa"}))
	assert.ErrorContains(t, cfg.Validate(), `APP_ENV must be development, staging or production, got "qa"`)
}

func TestParseProfile(t *testing.T) {
	t.Run("empty document keeps defaults", func(t *testing.T) {
		s, err := ParseProfile(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, roster.DefaultSchema(), s)
	})

	t.Run("overrides", func(t *testing.T) {
		s, err := ParseProfile(strings.NewReader(`
class_column: CLASS
friend_columns: [FRIENDS]
delimiters: ";"
attributes:
  - {key: BOYS, column: GENDER, marker: M}
`))
		require.NoError(t, err)
		assert.Equal(t, "ΟΝΟΜΑ", s.NameColumn)
		assert.Equal(t, "CLASS", s.ClassColumn)
		assert.Equal(t, []string{"FRIENDS"}, s.FriendColumns)
		assert.Equal(t, ";", s.Delimiters)
		assert.Equal(t, []string{"BOYS"}, s.AttributeKeys())
	})

	t.Run("explicit empty attributes", func(t *testing.T) {
		s, err := ParseProfile(strings.NewReader("attributes: []\n"))
		require.NoError(t, err)
		assert.Empty(t, s.Attributes)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseProfile(strings.NewReader("fuzzy_threshold: 0.5\n"))
		assert.ErrorContains(t, err, "fuzzy_threshold")
	})

	t.Run("invalid attributes and pattern", func(t *testing.T) {
		_, err := ParseProfile(strings.NewReader(`
scenario_pattern: "(["
attributes:
  - {key: A, column: X, marker: Y}
  - {key: A, column: "", marker: Y}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scenario_pattern")
		assert.Contains(t, err.Error(), "duplicate key A")
		assert.Contains(t, err.Error(), "attributes[1]: column is required")
	})
}

func TestLoadProfile(t *testing.T) {
	s, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, roster.DefaultSchema(), s)

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name_column: STUDENT\n"), 0o600))
	s, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "STUDENT", s.NameColumn)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
