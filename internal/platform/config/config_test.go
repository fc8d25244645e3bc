package config_test

import (
	"testing"
	"time"

	"pet-registry/internal/platform/config"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.New(), nil, "")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "file-only", cfg.RepoType)
	assert.Equal(t, "data/pets.json", cfg.DataPath)
	assert.Equal(t, "pets", cfg.DBCollection)
	assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, uint64(2), cfg.DBConnectRetries)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoad_EnvFileEnvAndFlags(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("PORT=4000\nREPO_TYPE=composite\nDB_DSN=postgres://file\n"), 0o644))

	v := config.New()
	v.SetFs(fs)

	t.Setenv("DB_DSN", "postgres://env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--port", "5000"}))

	cfg, err := config.Load(v, flags, ".env")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "composite", cfg.RepoType)
	assert.Equal(t, "postgres://env", cfg.DBDSN)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	v := config.New()
	v.SetFs(afero.NewMemMapFs())

	_, err := config.Load(v, nil, ".env")
	require.NoError(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "70000")
	_, err := config.Load(config.New(), nil, "")
	require.Error(t, err)
}
