package main

import (
	"io"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"p4nett/internal/config"
	"p4nett/internal/controller"
	"p4nett/internal/log"
	"p4nett/internal/multicast"
	"p4nett/internal/runner"
	"p4nett/internal/serrors"
	"p4nett/internal/sink"
	"p4nett/internal/transcript"
)

// globalFlags are shared by every command. Set flags override the config
// file.
type globalFlags struct {
	config   string
	manifest string
	target   string
	logLevel string
}

func (f *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", "", "TOML config file")
	fs.StringVarP(&f.manifest, "manifest", "m", "", "p4app manifest (default from config)")
	fs.StringVarP(&f.target, "target", "t", "", "manifest target (default: first declared)")
	fs.StringVar(&f.logLevel, "log.level", "", "console logging level: debug|info|warn|error")
}

// env is what a command needs once flags and config are resolved.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider *controller.ManifestProvider
}

func (f *globalFlags) load() (*env, error) {
	cfg, err := config.LoadFile(f.config)
	if err != nil {
		return nil, err
	}
	if f.manifest != "" {
		cfg.General.Manifest = f.manifest
	}
	if f.target != "" {
		cfg.General.Target = f.target
	}
	if f.logLevel != "" {
		cfg.General.LogLevel = f.logLevel
	}
	logger, err := log.Setup(cfg.General.LogLevel, cfg.General.LogFormat)
	if err != nil {
		return nil, err
	}
	provider, err := controller.NewManifestProvider(cfg.General.Manifest, cfg.General.Target)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, provider: provider}, nil
}

func (e *env) strategy() controller.Strategy {
	return controller.RoutingStrategy{
		Tables:        e.cfg.Tables.Compiler(),
		StrictTransit: e.cfg.Switch.StrictTransit,
		Logger:        e.logger,
	}
}

func (e *env) runner() (runner.ProcessRunner, error) {
	rc := e.cfg.Runner
	switch rc.Kind {
	case runner.KindLocal:
		return runner.LocalRunner{Env: rc.Env}, nil
	case runner.KindNetns:
		return runner.NetnsRunner{Dir: rc.NetnsDir, Env: rc.Env}, nil
	case runner.KindDocker:
		return runner.NewDockerRunner(rc.Container, rc.Env)
	}
	return nil, serrors.Join(serrors.ErrConfig, nil, "field", "runner.kind", "value", rc.Kind)
}

func (e *env) records() (*transcript.Repository, error) {
	if e.cfg.Transcript.Dir == "" {
		return nil, nil
	}
	return transcript.NewRepository(e.cfg.Transcript.Dir)
}

// controller builds a controller that talks to the switches through their
// runtime CLIs.
func (e *env) controller(out io.Writer) (*controller.Controller, error) {
	r, err := e.runner()
	if err != nil {
		return nil, err
	}
	repo, err := e.records()
	if err != nil {
		return nil, err
	}
	return controller.New(controller.Options{
		Provider: e.provider,
		Strategy: e.strategy(),
		Opener: sink.CLIOpener{
			Runner:   r,
			CLI:      e.cfg.Switch.CLI,
			BasePort: e.cfg.Switch.ThriftPort,
			Logger:   e.logger,
		},
		Allocator: multicast.NewAllocator(e.cfg.Switch.Model(), e.logger),
		Records:   repo,
		Out:       out,
		Logger:    e.logger,
	}), nil
}

// dryRun builds a controller that writes the command stream to out instead
// of sending it.
func (e *env) dryRun(out io.Writer) *controller.Controller {
	return controller.New(controller.Options{
		Provider:  e.provider,
		Strategy:  e.strategy(),
		Opener:    &sink.DryRunOpener{W: out},
		Allocator: multicast.NewAllocator(e.cfg.Switch.Model(), e.logger),
		Logger:    e.logger,
	})
}
