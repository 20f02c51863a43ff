package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"p4nett/internal/compiler"
	"p4nett/internal/log"
	"p4nett/internal/multicast"
	"p4nett/internal/serrors"
	"p4nett/internal/shortestpath"
	"p4nett/internal/sink"
	"p4nett/internal/topology"
	"p4nett/internal/transcript"
)

type Options struct {
	Provider  TopologyProvider
	Strategy  Strategy
	Opener    sink.Opener
	Allocator *multicast.Allocator
	// Records receives one install record per switch. Optional.
	Records *transcript.Repository
	// Out receives the command transcript as it is sent. Optional.
	Out    io.Writer
	Logger *zap.Logger
}

type Controller struct {
	provider  TopologyProvider
	strategy  Strategy
	opener    sink.Opener
	allocator *multicast.Allocator
	records   *transcript.Repository
	out       io.Writer
	logger    *zap.Logger
}

func New(opts Options) *Controller {
	c := &Controller{
		provider:  opts.Provider,
		strategy:  opts.Strategy,
		opener:    opts.Opener,
		allocator: opts.Allocator,
		records:   opts.Records,
		out:       opts.Out,
		logger:    log.OrNop(opts.Logger),
	}
	if c.strategy == nil {
		c.strategy = RoutingStrategy{Logger: c.logger}
	}
	if c.allocator == nil {
		c.allocator = multicast.NewAllocator(multicast.ModelSimpleSwitch, c.logger)
	}
	return c
}

// Compile builds the topology and the per-switch programs without contacting
// any switch.
func (c *Controller) Compile() (*topology.Topology, []compiler.Program, error) {
	topo, err := c.provider.Topology()
	if err != nil {
		return nil, nil, fmt.Errorf("build topology: %w", err)
	}
	if parts := shortestpath.Partitions(topo); len(parts) > 1 {
		c.logger.Warn("Network is partitioned, hosts in different parts get no route",
			zap.Int("partitions", len(parts)), zap.Any("components", parts))
	}
	progs, err := c.strategy.Programs(topo, c.provider.Source())
	if err != nil {
		return nil, nil, fmt.Errorf("compile: %w", err)
	}
	return topo, progs, nil
}

// Install compiles the network and programs every switch in order. It stops
// at the first failure. Switches programmed before it keep their state.
func (c *Controller) Install(ctx context.Context) ([]*transcript.Record, error) {
	topo, progs, err := c.Compile()
	if err != nil {
		return nil, err
	}
	run, err := transcript.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	c.logger.Info("Installing", zap.String("run", run), zap.String("target", c.provider.Name()),
		zap.Int("switches", len(progs)))

	recs := make([]*transcript.Record, 0, len(progs))
	for seq, prog := range progs {
		node, _ := topo.Node(prog.Switch)
		rec := transcript.NewRecord(run, c.provider.Name(), prog.Switch, seq)
		recs = append(recs, rec)
		err := c.withSession(ctx, rec, node.Ordinal, func(s sink.Sink) error {
			return c.program(ctx, s, prog)
		})
		if err != nil {
			return recs, err
		}
		c.logger.Info("Switch programmed", zap.String("switch", prog.Switch),
			zap.Int("commands", len(prog.Commands)), zap.Int("groups", len(prog.Groups)))
	}
	return recs, nil
}

func (c *Controller) program(ctx context.Context, s sink.Sink, prog compiler.Program) error {
	for _, cmd := range prog.Commands {
		if _, err := s.Exec(ctx, cmd); err != nil {
			return serrors.Join(serrors.ErrSink, err, "switch", prog.Switch)
		}
	}
	for _, g := range prog.Groups {
		if _, err := c.allocator.CreateGroup(ctx, prog.Switch, s, g.MGID, g.Ports); err != nil {
			return err
		}
	}
	return nil
}

// UpdateGroup replaces the ports of a multicast group installed by an earlier
// run, as found in the install records.
func (c *Controller) UpdateGroup(ctx context.Context, sw string, mgid int,
	ports []int) (*transcript.Record, error) {

	return c.changeGroup(ctx, sw, func(s sink.Sink) error {
		return c.allocator.UpdateGroup(ctx, sw, s, mgid, ports)
	})
}

// DeleteGroup destroys a multicast group installed by an earlier run.
func (c *Controller) DeleteGroup(ctx context.Context, sw string,
	mgid int) (*transcript.Record, error) {

	return c.changeGroup(ctx, sw, func(s sink.Sink) error {
		return c.allocator.DeleteGroup(ctx, sw, s, mgid)
	})
}

func (c *Controller) changeGroup(ctx context.Context, sw string,
	change func(sink.Sink) error) (*transcript.Record, error) {

	if c.records == nil {
		return nil, serrors.Join(serrors.ErrConfig, nil,
			"reason", "changing groups needs a transcript directory")
	}
	topo, err := c.provider.Topology()
	if err != nil {
		return nil, fmt.Errorf("build topology: %w", err)
	}
	node, ok := topo.Node(sw)
	if !ok || node.Type != topology.NodeSwitch {
		return nil, serrors.Join(serrors.ErrLookup, nil, "switch", sw)
	}
	last, err := c.lastRecord(sw)
	if err != nil {
		return nil, err
	}
	c.allocator.Restore(sw, last.Groups)

	run, err := transcript.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	rec := transcript.NewRecord(run, c.provider.Name(), sw, 0)
	return rec, c.withSession(ctx, rec, node.Ordinal, change)
}

func (c *Controller) lastRecord(sw string) (*transcript.Record, error) {
	all, err := c.records.List()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	var last *transcript.Record
	for _, rec := range all {
		if rec.Switch == sw {
			last = rec
		}
	}
	if last == nil {
		return nil, serrors.Join(serrors.ErrLookup, nil, "switch", sw,
			"reason", "no install record")
	}
	return last, nil
}

type thriftPorter interface {
	ThriftPort(ordinal int) int
}

// withSession opens the switch's sink, runs fn against it and fills and
// saves rec with what was exchanged.
func (c *Controller) withSession(ctx context.Context, rec *transcript.Record, ordinal int,
	fn func(sink.Sink) error) error {

	sw := rec.Switch
	if tp, ok := c.opener.(thriftPorter); ok {
		rec.ThriftPort = tp.ThriftPort(ordinal)
	}
	sess, err := c.opener.Open(ctx, sw, ordinal)
	if err != nil {
		return c.finish(rec, nil, fmt.Errorf("open %s: %w", sw, err))
	}
	recorder := sink.NewRecorder(sess)
	var s sink.Sink = recorder
	if c.out != nil {
		s = auditSink{Sink: recorder, sw: sw, out: c.out}
	}
	err = fn(s)
	if cerr := sess.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", sw, cerr)
	}
	return c.finish(rec, recorder, err)
}

func (c *Controller) finish(rec *transcript.Record, recorder *sink.Recorder, err error) error {
	if recorder != nil {
		rec.Exchanges = recorder.Exchanges
	}
	rec.Groups = c.allocator.Installed(rec.Switch)
	if err != nil {
		rec.Error = err.Error()
		c.logger.Error("Programming switch failed", zap.String("switch", rec.Switch),
			zap.Error(err))
	}
	if c.records == nil {
		return err
	}
	if serr := c.records.Save(rec); serr != nil {
		if err != nil {
			c.logger.Error("Saving install record failed", zap.String("switch", rec.Switch),
				zap.Error(serr))
			return err
		}
		return fmt.Errorf("save record: %w", serr)
	}
	return err
}

// auditSink copies every command and its response to out.
type auditSink struct {
	sink.Sink
	sw  string
	out io.Writer
}

func (a auditSink) Exec(ctx context.Context, cmd string) (string, error) {
	resp, err := a.Sink.Exec(ctx, cmd)
	fmt.Fprintf(a.out, "%s> %s\n", a.sw, cmd)
	for _, line := range strings.Split(resp, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(a.out, "%s< %s\n", a.sw, line)
		}
	}
	return resp, err
}
