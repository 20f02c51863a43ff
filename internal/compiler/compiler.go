// Package compiler turns a topology into the ordered command list each
// switch is programmed with.
//
// Every switch program is the concatenation of the user commands declared for
// the switch, one drop default per governed table, the generated local and
// transit routes, and finally the switch's multicast groups.
package compiler

import (
	"go.uber.org/zap"

	"p4nett/internal/log"
	"p4nett/internal/multicast"
	"p4nett/internal/serrors"
	"p4nett/internal/shortestpath"
	"p4nett/internal/topology"
)

// Source supplies the user-declared input of a switch.
type Source interface {
	// Commands returns raw commands installed before anything else.
	Commands(sw string) ([]string, error)
	// Multicast returns multicast declaration lines ("mgid:port ...").
	Multicast(sw string) ([]string, error)
}

// Program is the compiled output for one switch.
type Program struct {
	Switch   string
	Commands []string
	Groups   []multicast.Group
}

type Config struct {
	Tables Tables
	Source Source
	// StrictTransit turns a transit path whose second hop is not a switch into
	// a configuration error instead of skipping the host.
	StrictTransit bool
	Logger        *zap.Logger
}

type Compiler struct {
	topo   *topology.Topology
	index  *shortestpath.Index
	cfg    Config
	logger *zap.Logger
}

func New(topo *topology.Topology, cfg Config) *Compiler {
	if cfg.Tables == (Tables{}) {
		cfg.Tables = DefaultTables()
	}
	return &Compiler{
		topo:   topo,
		index:  shortestpath.New(topo),
		cfg:    cfg,
		logger: log.OrNop(cfg.Logger),
	}
}

// Compile compiles all switches in programming order.
func (c *Compiler) Compile() ([]Program, error) {
	var progs []Program
	for _, sw := range c.topo.Switches() {
		p, err := c.CompileSwitch(sw)
		if err != nil {
			return nil, err
		}
		progs = append(progs, p)
	}
	return progs, nil
}

// CompileSwitch compiles the program of a single switch.
func (c *Compiler) CompileSwitch(sw string) (Program, error) {
	if !c.topo.IsSwitch(sw) {
		return Program{}, serrors.Join(serrors.ErrLookup, nil, "switch", sw)
	}
	prog := Program{Switch: sw}

	if c.cfg.Source != nil {
		user, err := c.cfg.Source.Commands(sw)
		if err != nil {
			return Program{}, err
		}
		prog.Commands = append(prog.Commands, user...)
	}
	for _, e := range c.cfg.Tables.defaults() {
		prog.Commands = append(prog.Commands, e.String())
	}
	generated, err := c.Generate(sw)
	if err != nil {
		return Program{}, err
	}
	for _, e := range generated {
		prog.Commands = append(prog.Commands, e.String())
	}

	if c.cfg.Source != nil {
		lines, err := c.cfg.Source.Multicast(sw)
		if err != nil {
			return Program{}, err
		}
		groups, err := multicast.ParseDeclarations(sw, lines,
			multicast.TopologyResolver{Topology: c.topo})
		if err != nil {
			return Program{}, err
		}
		prog.Groups = groups
	}

	c.logger.Debug("Compiled switch program", zap.String("switch", sw),
		zap.Int("commands", len(prog.Commands)), zap.Int("groups", len(prog.Groups)))
	return prog, nil
}

// Generate returns the local attachment entries of sw followed by its transit
// entries.
func (c *Compiler) Generate(sw string) ([]FlowEntry, error) {
	t := c.cfg.Tables
	var entries []FlowEntry

	for _, a := range c.topo.SwitchAttachments(sw) {
		entries = append(entries,
			t.triple(a.SwitchPort, a.SwitchMAC.String(), a.HostIP.String(), a.HostMAC.String())...)
	}

	exclude := shortestpath.Hosts(c.topo)
	for _, h := range c.topo.Hosts() {
		if c.topo.AttachedTo(h, sw) {
			continue
		}
		path, err := c.index.Get(sw, h, exclude)
		if err != nil {
			return nil, err
		}
		if len(path) < 2 {
			c.logger.Debug("No route", zap.String("switch", sw), zap.String("host", h))
			continue
		}
		if !c.topo.IsSwitch(path[1]) {
			if c.cfg.StrictTransit {
				return nil, serrors.Join(serrors.ErrConfig, nil, "switch", sw, "host", h,
					"next_hop", path[1], "reason", "next hop is not a switch")
			}
			c.logger.Debug("Skipping host, next hop is not a switch",
				zap.String("switch", sw), zap.String("host", h), zap.String("next_hop", path[1]))
			continue
		}
		link, _ := c.topo.LinkBetween(sw, path[1])
		local, far, _ := link.End(sw)
		hostIP := c.topo.Attachments(h)[0].HostIP.String()
		entries = append(entries, t.triple(local.Port, local.MAC.String(), hostIP, far.MAC.String())...)
	}
	return entries, nil
}
