package manifest_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p4nett/internal/manifest"
	"p4nett/internal/serrors"
	"p4nett/internal/topology"
)

const jsonManifest = `{
  "program": "router.p4",
  "language": "p4-16",
  "targets": {
    "multiswitch": {
      "use": "mininet",
      "links": [["h1", "s1"], ["s1", "s2", "50ms"], ["s2", "h2", 10]],
      "hosts": {
        "h1": {"cmd": "python echo_server.py %port%", "wait": true},
        "h2": {"cmd": "python echo_client.py h1 %port%", "startup_sleep": 0.5}
      },
      "switches": {
        "s1": {"commands": ["register_write port_cnt 0 %port%"], "entries": "s1.txt"},
        "s2": {"mcast": "s2.mcast"}
      },
      "parameters": {"port": 8000}
    },
    "debug": {
      "links": [["h1", "s1"]]
    }
  }
}`

const yamlManifest = `
program: router.p4
language: p4-16
targets:
  second:
    links:
      - [h1, s1]
  first:
    links:
      - [h1, s1]
      - [s1, s2, 20ms]
    switches:
      s2:
        mcast: ["1: 1 2"]
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestLoadJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"p4app.json": jsonManifest,
		"s1.txt":     "# comment\n\ntable_add acl allow 1 =>\n  mirroring_add 5 9  \n",
		"s2.mcast":   "10: h2 1\n",
	})
	m, err := manifest.Load(filepath.Join(dir, "p4app.json"))
	require.NoError(t, err)
	assert.Equal(t, "router.p4", m.Program)
	assert.Equal(t, "p4-16", m.Language)
	assert.Equal(t, dir, m.Dir())
	require.Len(t, m.Targets, 2)
	assert.Equal(t, "multiswitch", m.Targets[0].Name)
	assert.Equal(t, "debug", m.Targets[1].Name)

	tgt, err := m.Target("")
	require.NoError(t, err)
	assert.Equal(t, "multiswitch", tgt.Name)
	assert.Equal(t, []manifest.LinkDecl{
		{A: "h1", B: "s1"},
		{A: "s1", B: "s2", Latency: 50 * time.Millisecond},
		{A: "s2", B: "h2", Latency: 10 * time.Millisecond},
	}, tgt.Links)
	assert.True(t, tgt.Hosts["h1"].Wait)

	src := manifest.SwitchSource{Target: tgt, Dir: m.Dir()}
	cmds, err := src.Commands("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"register_write port_cnt 0 8000",
		"table_add acl allow 1 =>",
		"mirroring_add 5 9",
	}, cmds)
	cmds, err = src.Commands("s9")
	require.NoError(t, err)
	assert.Empty(t, cmds)

	lines, err := src.Multicast("s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"10: h2 1"}, lines)

	decl := tgt.Declaration()
	assert.Equal(t, []string{"h1", "h2"}, decl.Hosts)
	assert.Equal(t, []string{"s1", "s2"}, decl.Switches)
	assert.Equal(t, topology.LinkSpec{A: "s1", B: "s2", Latency: 50 * time.Millisecond}, decl.Links[1])

	_, err = m.Target("nope")
	assert.ErrorIs(t, err, serrors.ErrLookup)
}

func TestLoadYAMLKeepsOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{"p4app.yaml": yamlManifest})
	m, err := manifest.Load(filepath.Join(dir, "p4app.yaml"))
	require.NoError(t, err)
	require.Len(t, m.Targets, 2)
	assert.Equal(t, "second", m.Targets[0].Name)

	tgt, err := m.Target("first")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, tgt.Links[1].Latency)
	lines, err := manifest.SwitchSource{Target: tgt, Dir: dir}.Multicast("s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"1: 1 2"}, lines)
}

func TestLoadErrors(t *testing.T) {
	testCases := map[string]string{
		"bad json":      `{"targets": `,
		"bad link":      `{"targets": {"t": {"links": [["h1"]]}}}`,
		"bad latency":   `{"targets": {"t": {"links": [["h1", "s1", "soon"]]}}}`,
		"link not str":  `{"targets": {"t": {"links": [[1, "s1"]]}}}`,
		"targets array": `{"targets": []}`,
	}
	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"p4app.json": content})
			_, err := manifest.Load(filepath.Join(dir, "p4app.json"))
			assert.ErrorIs(t, err, serrors.ErrConfig)
		})
	}

	_, err := manifest.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, serrors.ErrConfig)

	m, err := manifest.DecodeJSON([]byte(`{"program": "x.p4"}`))
	require.NoError(t, err)
	_, err = m.Target("")
	assert.ErrorIs(t, err, serrors.ErrConfig)
}

func TestMissingCommandFile(t *testing.T) {
	m, err := manifest.DecodeJSON([]byte(
		`{"targets": {"t": {"links": [["h1", "s1"]], "switches": {"s1": {"commands": "nope.txt"}}}}}`))
	require.NoError(t, err)
	tgt, err := m.Target("t")
	require.NoError(t, err)
	_, err = manifest.SwitchSource{Target: tgt, Dir: t.TempDir()}.Commands("s1")
	assert.ErrorIs(t, err, serrors.ErrConfig)
}
