package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p4nett/internal/compiler"
	"p4nett/internal/config"
	"p4nett/internal/multicast"
	"p4nett/internal/runner"
	"p4nett/internal/serrors"
)

func TestSampleDecodes(t *testing.T) {
	var sample bytes.Buffer
	var cfg config.Config
	cfg.Sample(&sample)

	var decoded config.Config
	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().
		Decode(&decoded)
	require.NoError(t, err)
	require.NoError(t, decoded.Validate())

	assert.Equal(t, "p4app.json", decoded.General.Manifest)
	assert.Equal(t, 9090, decoded.Switch.ThriftPort)
	assert.Equal(t, runner.KindLocal, decoded.Runner.Kind)
	assert.Equal(t, []string{"PYTHONUNBUFFERED=1"}, decoded.Runner.Env)
	assert.Equal(t, compiler.DefaultTables(), decoded.Tables.Compiler())
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DefaultManifest, cfg.General.Manifest)
	assert.Equal(t, "simple_switch_CLI", cfg.Switch.CLI)
	assert.Equal(t, multicast.ModelSimpleSwitch, cfg.Switch.Model())
	assert.Equal(t, runner.DefaultNetnsDir, cfg.Runner.NetnsDir)
	assert.Equal(t, compiler.DefaultTables(), cfg.Tables.Compiler())
	assert.Empty(t, cfg.Transcript.Dir)
}

func TestDecode(t *testing.T) {
	cfg, err := config.Decode([]byte(`
[switch]
thrift_port = 22222
target_model = "generic"
strict_transit = true

[runner]
kind = "docker"
container = "p4app"

[tables]
route = "MyIngress.ipv4_lpm"
`))
	require.NoError(t, err)
	assert.Equal(t, 22222, cfg.Switch.ThriftPort)
	assert.Equal(t, multicast.ModelGeneric, cfg.Switch.Model())
	assert.True(t, cfg.Switch.StrictTransit)
	assert.Equal(t, "p4app", cfg.Runner.Container)
	assert.Equal(t, "MyIngress.ipv4_lpm", cfg.Tables.Route)
	assert.Equal(t, "send_frame", cfg.Tables.Frame)
	assert.Equal(t, "info", cfg.General.LogLevel)
}

func TestDecodeErrors(t *testing.T) {
	testCases := map[string]string{
		"unknown key":  "[switch]\nthrift = 1\n",
		"bad port":     "[switch]\nthrift_port = 70000\n",
		"bad model":    "[switch]\ntarget_model = \"tofino\"\n",
		"bad runner":   "[runner]\nkind = \"ssh\"\n",
		"bad format":   "[general]\nlog_format = \"xml\"\n",
		"invalid toml": "[switch\n",
		"wrong type":   "[switch]\nthrift_port = \"9090\"\n",
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Decode([]byte(raw))
			assert.ErrorIs(t, err, serrors.ErrConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(t.TempDir(), "p4nett.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general]\ntarget = \"debug\"\n"), 0644))
	cfg, err = config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.General.Target)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, serrors.ErrConfig)
}
