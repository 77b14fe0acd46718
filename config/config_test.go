package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PAYROLL_PORT", "PAYROLL_DB_PATH", "PAYROLL_POLICY_FILE", "PAYROLL_ORG_NAME", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}

	cfg := config.FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "payroll.db", cfg.App.DBPath)
	assert.Empty(t, cfg.App.PolicyFile)
	assert.Equal(t, "Hotel Empire", cfg.App.OrgName)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PAYROLL_PORT", "9090")
	t.Setenv("PAYROLL_DB_PATH", "/tmp/p.db")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := config.FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "/tmp/p.db", cfg.App.DBPath)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"non-numeric port":  {"PAYROLL_PORT": "http"},
		"port out of range": {"PAYROLL_PORT": "70000"},
		"unknown level":     {"LOG_LEVEL": "loud"},
		"unknown format":    {"LOG_FORMAT": "xml"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			assert.Error(t, config.FromEnv().Validate())
		})
	}
}

func TestValidate_OverrideReplacesBadEnvPort(t *testing.T) {
	// GIVEN: an unusable port in the environment
	t.Setenv("PAYROLL_PORT", "http")
	cfg := config.FromEnv()
	require.Error(t, cfg.Validate())

	// WHEN: a command-line override sets the port
	cfg.App.Port = 3000

	// THEN: the config is valid and listens on the override
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":3000", cfg.Addr())
}
