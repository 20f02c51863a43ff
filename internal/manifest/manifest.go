// Package manifest reads p4app package manifests (p4app.json, or the same
// document in YAML) and the per-switch command and multicast files they point
// to.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"p4nett/internal/serrors"
	"p4nett/internal/topology"
)

type Manifest struct {
	Program  string
	Language string
	Targets  []*Target

	// dir is the directory relative file references are resolved against.
	dir string
}

type Target struct {
	Name       string                `json:"-" yaml:"-"`
	Use        string                `json:"use" yaml:"use"`
	Links      []LinkDecl            `json:"links" yaml:"links"`
	Hosts      map[string]HostDecl   `json:"hosts" yaml:"hosts"`
	Switches   map[string]SwitchDecl `json:"switches" yaml:"switches"`
	Parameters map[string]any        `json:"parameters" yaml:"parameters"`
}

// HostDecl is accepted so that full p4app manifests decode; running host
// programs is left to the process supervisor.
type HostDecl struct {
	Cmd          string  `json:"cmd" yaml:"cmd"`
	Wait         bool    `json:"wait" yaml:"wait"`
	StartupSleep float64 `json:"startup_sleep" yaml:"startup_sleep"`
}

type SwitchDecl struct {
	Commands Lines `json:"commands" yaml:"commands"`
	Entries  Lines `json:"entries" yaml:"entries"`
	Mcast    Lines `json:"mcast" yaml:"mcast"`
}

type rawManifest struct {
	Program  string          `json:"program"`
	Language string          `json:"language"`
	Targets  json.RawMessage `json:"targets"`
}

type rawYAMLManifest struct {
	Program  string    `yaml:"program"`
	Language string    `yaml:"language"`
	Targets  yaml.Node `yaml:"targets"`
}

// Load reads the manifest at path. Files ending in .yaml or .yml are decoded
// as YAML, everything else as JSON.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Join(serrors.ErrConfig, err, "manifest", path)
	}
	var m *Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = DecodeYAML(raw)
	default:
		m, err = DecodeJSON(raw)
	}
	if err != nil {
		return nil, serrors.Wrap("decoding manifest", err, "manifest", path)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// DecodeJSON decodes a JSON manifest, keeping targets in file order.
func DecodeJSON(raw []byte) (*Manifest, error) {
	var rm rawManifest
	if err := json.Unmarshal(raw, &rm); err != nil {
		return nil, serrors.Join(serrors.ErrConfig, err)
	}
	m := &Manifest{Program: rm.Program, Language: rm.Language}
	if len(rm.Targets) == 0 {
		return m, nil
	}
	dec := json.NewDecoder(bytes.NewReader(rm.Targets))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, serrors.Join(serrors.ErrConfig, err, "field", "targets")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, serrors.Join(serrors.ErrConfig, err, "field", "targets")
		}
		name, _ := tok.(string)
		t := &Target{}
		if err := dec.Decode(t); err != nil {
			return nil, serrors.Join(serrors.ErrConfig, err, "target", name)
		}
		t.Name = name
		m.Targets = append(m.Targets, t)
	}
	return m, nil
}

// DecodeYAML decodes a YAML manifest, keeping targets in file order.
func DecodeYAML(raw []byte) (*Manifest, error) {
	var rm rawYAMLManifest
	if err := yaml.Unmarshal(raw, &rm); err != nil {
		return nil, serrors.Join(serrors.ErrConfig, err)
	}
	m := &Manifest{Program: rm.Program, Language: rm.Language}
	if rm.Targets.Kind == 0 {
		return m, nil
	}
	if rm.Targets.Kind != yaml.MappingNode {
		return nil, serrors.Join(serrors.ErrConfig, nil, "field", "targets")
	}
	content := rm.Targets.Content
	for i := 0; i+1 < len(content); i += 2 {
		t := &Target{}
		if err := content[i+1].Decode(t); err != nil {
			return nil, serrors.Join(serrors.ErrConfig, err, "target", content[i].Value)
		}
		t.Name = content[i].Value
		m.Targets = append(m.Targets, t)
	}
	return m, nil
}

// Target returns the named target, or the first declared one when name is
// empty.
func (m *Manifest) Target(name string) (*Target, error) {
	if len(m.Targets) == 0 {
		return nil, serrors.Join(serrors.ErrConfig, nil, "reason", "no targets defined")
	}
	if name == "" {
		return m.Targets[0], nil
	}
	for _, t := range m.Targets {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, serrors.Join(serrors.ErrLookup, nil, "target", name)
}

// Dir returns the directory relative paths in the manifest refer to.
func (m *Manifest) Dir() string {
	return m.dir
}

// Declaration converts the target into a topology declaration.
func (t *Target) Declaration() topology.Declaration {
	decl := topology.Declaration{}
	for _, l := range t.Links {
		decl.Links = append(decl.Links, topology.LinkSpec{A: l.A, B: l.B, Latency: l.Latency})
	}
	for name := range t.Hosts {
		decl.Hosts = append(decl.Hosts, name)
	}
	for name := range t.Switches {
		decl.Switches = append(decl.Switches, name)
	}
	sort.Strings(decl.Hosts)
	sort.Strings(decl.Switches)
	return decl
}

// SwitchCommands returns the user commands declared for sw, with %param%
// placeholders replaced by the target's parameters.
func (t *Target) SwitchCommands(sw, dir string) ([]string, error) {
	decl, ok := t.Switches[sw]
	if !ok {
		return nil, nil
	}
	var cmds []string
	for _, src := range []Lines{decl.Commands, decl.Entries} {
		lines, err := src.Resolve(dir)
		if err != nil {
			return nil, serrors.Wrap("reading switch commands", err, "switch", sw)
		}
		for _, l := range lines {
			cmds = append(cmds, t.Expand(l))
		}
	}
	return cmds, nil
}

// MulticastLines returns the raw multicast declaration lines for sw.
func (t *Target) MulticastLines(sw, dir string) ([]string, error) {
	decl, ok := t.Switches[sw]
	if !ok {
		return nil, nil
	}
	lines, err := decl.Mcast.Resolve(dir)
	if err != nil {
		return nil, serrors.Wrap("reading multicast declarations", err, "switch", sw)
	}
	return lines, nil
}

// Expand replaces every %name% occurrence in s with the parameter value.
// Parameters are applied in name order so the result does not depend on map
// iteration.
func (t *Target) Expand(s string) string {
	if len(t.Parameters) == 0 || !strings.Contains(s, "%") {
		return s
	}
	names := make([]string, 0, len(t.Parameters))
	for name := range t.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s = strings.ReplaceAll(s, "%"+name+"%", fmt.Sprint(t.Parameters[name]))
	}
	return s
}

// SwitchSource serves the per-switch user input of a target, resolving files
// relative to Dir.
type SwitchSource struct {
	Target *Target
	Dir    string
}

func (s SwitchSource) Commands(sw string) ([]string, error) {
	return s.Target.SwitchCommands(sw, s.Dir)
}

func (s SwitchSource) Multicast(sw string) ([]string, error) {
	return s.Target.MulticastLines(sw, s.Dir)
}
