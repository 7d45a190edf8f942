package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	require.Equal(t, "https://auth.docker.io/token", cfg.Registry.AuthURL)
	require.Equal(t, "ratelimitpreview/test", cfg.Registry.Repository)
	require.Equal(t, 10*time.Second, cfg.Registry.Timeout)
	require.Equal(t, 500, cfg.Thresholds.Critical)
	require.Equal(t, 100, cfg.Thresholds.Low)
	require.Equal(t, "HUBGATE_TOKEN", cfg.Credentials.EnvPrefix)
	require.Equal(t, "libsql", cfg.Store.Driver)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("registry.timeout", "3s")
	v.Set("thresholds.critical", 50)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.Registry.Timeout)
	require.Equal(t, 50, cfg.Thresholds.Critical)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("registry.repository", "")

	_, err := FromViper(v)
	require.Error(t, err)

	v = viper.New()
	SetDefaults(v)
	v.Set("thresholds.critical", -1)
	_, err = FromViper(v)
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	data, err := cfg.Dump()
	require.NoError(t, err)
	require.Contains(t, string(data), "ratelimitpreview/test")
}
