// Package config holds the TOML application configuration.
//
// Every section implements InitDefaults, Validate and Sample. A config is
// loaded by initializing defaults, decoding the file on top of them and
// validating the result.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"p4nett/internal/compiler"
	"p4nett/internal/log"
	"p4nett/internal/multicast"
	"p4nett/internal/runner"
	"p4nett/internal/serrors"
	"p4nett/internal/sink"
)

const (
	DefaultManifest = "p4app.json"
	DefaultLevel    = "info"
)

// Sampler writes the sample of a config block.
type Sampler interface {
	Sample(dst io.Writer)
	ConfigName() string
}

type Config struct {
	General    General    `toml:"general,omitempty"`
	Switch     Switch     `toml:"switch,omitempty"`
	Runner     Runner     `toml:"runner,omitempty"`
	Tables     Tables     `toml:"tables,omitempty"`
	Transcript Transcript `toml:"transcript,omitempty"`
}

func (cfg *Config) InitDefaults() {
	cfg.General.InitDefaults()
	cfg.Switch.InitDefaults()
	cfg.Runner.InitDefaults()
	cfg.Tables.InitDefaults()
}

func (cfg *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		&cfg.General, &cfg.Switch, &cfg.Runner, &cfg.Tables,
	} {
		if err := v.Validate(); err != nil {
			return serrors.Wrap("validating config", err, "type", fmt.Sprintf("%T", v))
		}
	}
	return nil
}

// Sample writes a complete sample config to dst.
func (cfg *Config) Sample(dst io.Writer) {
	WriteSample(dst, &cfg.General, &cfg.Switch, &cfg.Runner, &cfg.Tables, &cfg.Transcript)
}

// Default returns a config with every default set.
func Default() *Config {
	cfg := &Config{}
	cfg.InitDefaults()
	return cfg
}

// Decode decodes raw on top of the defaults and validates the result.
// Unknown keys are rejected.
func Decode(raw []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, serrors.Join(serrors.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the config at path. An empty path yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Join(serrors.ErrConfig, err, "file", path)
	}
	cfg, err := Decode(raw)
	if err != nil {
		return nil, serrors.Wrap("loading config", err, "file", path)
	}
	return cfg, nil
}

// WriteSample writes every block under its table header.
func WriteSample(dst io.Writer, samplers ...Sampler) {
	for i, s := range samplers {
		if i > 0 {
			writeString(dst, "\n")
		}
		writeString(dst, "["+s.ConfigName()+"]\n")
		s.Sample(dst)
	}
}

func writeString(dst io.Writer, s string) {
	if _, err := io.WriteString(dst, s); err != nil {
		panic(fmt.Sprintf("Unable to write sample err=%s", err))
	}
}

// General selects the manifest and logging.
type General struct {
	// Manifest is the path of the p4app manifest.
	Manifest string `toml:"manifest,omitempty"`
	// Target names the manifest target. Empty selects the first one.
	Target    string `toml:"target,omitempty"`
	LogLevel  string `toml:"log_level,omitempty"`
	LogFormat string `toml:"log_format,omitempty"`
}

func (cfg *General) InitDefaults() {
	if cfg.Manifest == "" {
		cfg.Manifest = DefaultManifest
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = log.FormatHuman
	}
}

func (cfg *General) Validate() error {
	if cfg.Manifest == "" {
		return serrors.Join(serrors.ErrConfig, nil, "field", "general.manifest", "reason", "empty")
	}
	switch cfg.LogFormat {
	case log.FormatHuman, log.FormatJSON:
	default:
		return serrors.Join(serrors.ErrConfig, nil, "field", "general.log_format",
			"value", cfg.LogFormat)
	}
	return nil
}

func (cfg *General) Sample(dst io.Writer) { writeString(dst, generalSample) }
func (cfg *General) ConfigName() string   { return "general" }

// Switch describes how switches are reached and programmed.
type Switch struct {
	// CLI is the runtime CLI binary.
	CLI string `toml:"cli,omitempty"`
	// ThriftPort is the thrift port of the first switch. Later switches use
	// consecutive ports.
	ThriftPort int `toml:"thrift_port,omitempty"`
	// TargetModel selects the multicast association dialect.
	TargetModel string `toml:"target_model,omitempty"`
	// StrictTransit fails compilation when a transit route would leave the
	// switch towards a host.
	StrictTransit bool `toml:"strict_transit,omitempty"`
}

func (cfg *Switch) InitDefaults() {
	if cfg.CLI == "" {
		cfg.CLI = sink.DefaultCLI
	}
	if cfg.ThriftPort == 0 {
		cfg.ThriftPort = sink.DefaultThriftPort
	}
	if cfg.TargetModel == "" {
		cfg.TargetModel = multicast.ModelSimpleSwitch.String()
	}
}

func (cfg *Switch) Validate() error {
	if cfg.ThriftPort < 1 || cfg.ThriftPort > 65535 {
		return serrors.Join(serrors.ErrConfig, nil, "field", "switch.thrift_port",
			"value", cfg.ThriftPort)
	}
	if _, err := multicast.ParseModel(cfg.TargetModel); err != nil {
		return err
	}
	return nil
}

// Model returns the parsed target model.
func (cfg *Switch) Model() multicast.Model {
	m, _ := multicast.ParseModel(cfg.TargetModel)
	return m
}

func (cfg *Switch) Sample(dst io.Writer) { writeString(dst, switchSample) }
func (cfg *Switch) ConfigName() string   { return "switch" }

// Runner selects where the runtime CLI processes run.
type Runner struct {
	// Kind is one of local, netns or docker.
	Kind string `toml:"kind,omitempty"`
	// NetnsDir holds the named network namespaces, one per switch.
	NetnsDir string `toml:"netns_dir,omitempty"`
	// Container is the docker container hosting the switches. Empty means
	// one container per switch, named after it.
	Container string `toml:"container,omitempty"`
	// Env is added to the environment of every started process.
	Env []string `toml:"env,omitempty"`
}

func (cfg *Runner) InitDefaults() {
	if cfg.Kind == "" {
		cfg.Kind = runner.KindLocal
	}
	if cfg.NetnsDir == "" {
		cfg.NetnsDir = runner.DefaultNetnsDir
	}
}

func (cfg *Runner) Validate() error {
	switch cfg.Kind {
	case runner.KindLocal, runner.KindNetns, runner.KindDocker:
		return nil
	default:
		return serrors.Join(serrors.ErrConfig, nil, "field", "runner.kind", "value", cfg.Kind)
	}
}

func (cfg *Runner) Sample(dst io.Writer) { writeString(dst, runnerSample) }
func (cfg *Runner) ConfigName() string   { return "runner" }

// Tables names the tables and actions the generated entries use.
type Tables struct {
	Frame      string `toml:"frame,omitempty"`
	Forward    string `toml:"forward,omitempty"`
	Route      string `toml:"route,omitempty"`
	Drop       string `toml:"drop,omitempty"`
	RewriteMAC string `toml:"rewrite_mac,omitempty"`
	SetDMAC    string `toml:"set_dmac,omitempty"`
	SetNextHop string `toml:"set_nhop,omitempty"`
}

func (cfg *Tables) InitDefaults() {
	def := compiler.DefaultTables()
	for _, f := range []struct {
		v   *string
		def string
	}{
		{&cfg.Frame, def.Frame},
		{&cfg.Forward, def.Forward},
		{&cfg.Route, def.Route},
		{&cfg.Drop, def.Drop},
		{&cfg.RewriteMAC, def.RewriteMAC},
		{&cfg.SetDMAC, def.SetDMAC},
		{&cfg.SetNextHop, def.SetNextHop},
	} {
		if *f.v == "" {
			*f.v = f.def
		}
	}
}

func (cfg *Tables) Validate() error {
	for name, v := range map[string]string{
		"frame": cfg.Frame, "forward": cfg.Forward, "route": cfg.Route, "drop": cfg.Drop,
		"rewrite_mac": cfg.RewriteMAC, "set_dmac": cfg.SetDMAC, "set_nhop": cfg.SetNextHop,
	} {
		if v == "" {
			return serrors.Join(serrors.ErrConfig, nil, "field", "tables."+name, "reason", "empty")
		}
	}
	return nil
}

// Compiler converts the section into compiler table names.
func (cfg *Tables) Compiler() compiler.Tables {
	return compiler.Tables{
		Frame:      cfg.Frame,
		Forward:    cfg.Forward,
		Route:      cfg.Route,
		Drop:       cfg.Drop,
		RewriteMAC: cfg.RewriteMAC,
		SetDMAC:    cfg.SetDMAC,
		SetNextHop: cfg.SetNextHop,
	}
}

func (cfg *Tables) Sample(dst io.Writer) { writeString(dst, tablesSample) }
func (cfg *Tables) ConfigName() string   { return "tables" }

// Transcript configures the install records.
type Transcript struct {
	// Dir receives one JSON record per programmed switch. Empty disables
	// records.
	Dir string `toml:"dir,omitempty"`
}

func (cfg *Transcript) Sample(dst io.Writer) { writeString(dst, transcriptSample) }
func (cfg *Transcript) ConfigName() string   { return "transcript" }
