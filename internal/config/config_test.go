package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/keystone/internal/logging"
)

func viperFromYAML(t *testing.T, doc map[string]interface{}) *viper.Viper {
	t.Helper()

	raw, err := yaml.Marshal(doc)
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(raw)))

	return v
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	v := viper.New()
	v.Set("app.dir", dir)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, dir, cfg.App.Dir)
	assert.Equal(t, DefaultStaticExpires, cfg.App.StaticExpires)
	assert.Equal(t, 0, cfg.Cache.MaxEntries)
	assert.False(t, cfg.Development.Debug)
	assert.False(t, cfg.Development.HotReload)
	assert.Equal(t, DefaultDebounce, cfg.Development.Debounce)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	v := viperFromYAML(t, map[string]interface{}{
		"server": map[string]interface{}{"host": "127.0.0.1", "port": 8080},
		"app":    map[string]interface{}{"dir": dir, "static_expires": "1h"},
		"cache":  map[string]interface{}{"max_entries": 64},
		"development": map[string]interface{}{
			"debug":      true,
			"hot_reload": true,
			"debounce":   "50ms",
		},
		"log": map[string]interface{}{"format": "json"},
	})

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, time.Hour, cfg.App.StaticExpires)
	assert.Equal(t, 64, cfg.Cache.MaxEntries)
	assert.True(t, cfg.Development.Debug)
	assert.True(t, cfg.Development.HotReload)
	assert.Equal(t, 50*time.Millisecond, cfg.Development.Debounce)
	assert.Equal(t, "debug", cfg.Log.Level, "debug mode lowers the default log level")
	assert.Equal(t, "json", cfg.Log.Format)

	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.True(t, lc.AddSource)
}

func TestStaticExpiresZeroIsKept(t *testing.T) {
	v := viper.New()
	v.Set("app.dir", t.TempDir())
	v.Set("app.static_expires", "0s")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.App.StaticExpires)
}

func TestDebugEnablesHotReloadByDefault(t *testing.T) {
	v := viper.New()
	v.Set("app.dir", t.TempDir())
	v.Set("development.debug", true)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.True(t, cfg.Development.HotReload)

	v.Set("development.hot_reload", false)
	cfg, err = LoadFrom(v)
	require.NoError(t, err)
	assert.False(t, cfg.Development.HotReload)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(v *viper.Viper)
		want  string
	}{
		{
			name:  "port out of range",
			setup: func(v *viper.Viper) { v.Set("server.port", 70000) },
			want:  "port 70000",
		},
		{
			name:  "dangerous host",
			setup: func(v *viper.Viper) { v.Set("server.host", "localhost;rm") },
			want:  "dangerous character",
		},
		{
			name:  "missing app dir",
			setup: func(v *viper.Viper) { v.Set("app.dir", "/definitely/not/here") },
			want:  "app directory",
		},
		{
			name:  "negative cache bound",
			setup: func(v *viper.Viper) { v.Set("cache.max_entries", -1) },
			want:  "max_entries",
		},
		{
			name:  "unknown log level",
			setup: func(v *viper.Viper) { v.Set("log.level", "chatty") },
			want:  "unknown log level",
		},
		{
			name:  "unknown log format",
			setup: func(v *viper.Viper) { v.Set("log.format", "xml") },
			want:  "log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set("app.dir", t.TempDir())
			tt.setup(v)

			cfg, err := LoadFrom(v)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsUnparsablePort(t *testing.T) {
	v := viper.New()
	v.Set("app.dir", t.TempDir())
	v.Set("server.port", "invalid_port")

	_, err := LoadFrom(v)
	assert.Error(t, err)
}

func TestLoadUsesGlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("app.dir", t.TempDir())
	viper.Set("server.port", 9000)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
}
