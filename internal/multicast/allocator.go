// Package multicast allocates replication nodes and programs multicast
// groups on switches.
package multicast

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"p4nett/internal/log"
	"p4nett/internal/serrors"
	"p4nett/internal/sink"
)

var handleRe = regexp.MustCompile(`created with handle\s+(\S+)`)

// Group is a multicast group declaration.
type Group struct {
	MGID  int
	Ports []int
}

// Node is a replication node created by the allocator. ID is the id the
// allocator requested and Handle the one the switch returned.
type Node struct {
	ID     int   `json:"id"`
	Handle int   `json:"handle"`
	Ports  []int `json:"ports"`
}

// Installed records a group programmed on a switch.
type Installed struct {
	MGID  int    `json:"mgid"`
	Nodes []Node `json:"nodes"`
}

// Allocator hands out replication node ids and issues multicast commands.
// Ids start at 0 and are never reused within the allocator's lifetime, even
// when groups are deleted. An Allocator must not be used concurrently.
type Allocator struct {
	model     Model
	next      int
	installed map[string]map[int]*Installed
	logger    *zap.Logger
}

func NewAllocator(model Model, logger *zap.Logger) *Allocator {
	return &Allocator{
		model:     model,
		installed: map[string]map[int]*Installed{},
		logger:    log.OrNop(logger),
	}
}

// Model returns the association dialect in use.
func (a *Allocator) Model() Model {
	return a.model
}

// CreateGroup creates a replication node for ports, creates group mgid and
// associates the node with it.
func (a *Allocator) CreateGroup(ctx context.Context, sw string, s sink.Sink,
	mgid int, ports []int) (Node, error) {

	id := a.next
	a.next++

	resp, err := a.exec(ctx, sw, s, "mc_node_create "+strconv.Itoa(id)+portList(ports))
	if err != nil {
		return Node{}, err
	}
	handle, err := ParseHandle(resp)
	if err != nil {
		return Node{}, serrors.Wrap("creating replication node", err,
			"switch", sw, "mgid", mgid, "node", id)
	}
	if _, err := a.exec(ctx, sw, s, fmt.Sprintf("mc_mgrp_create %d", mgid)); err != nil {
		return Node{}, err
	}
	if _, err := a.exec(ctx, sw, s, a.model.associate(mgid, handle)); err != nil {
		return Node{}, err
	}

	node := Node{ID: id, Handle: handle, Ports: append([]int(nil), ports...)}
	groups := a.installed[sw]
	if groups == nil {
		groups = map[int]*Installed{}
		a.installed[sw] = groups
	}
	g := groups[mgid]
	if g == nil {
		g = &Installed{MGID: mgid}
		groups[mgid] = g
	}
	g.Nodes = append(g.Nodes, node)
	a.logger.Debug("Multicast group created", zap.String("switch", sw),
		zap.Int("mgid", mgid), zap.Int("node", id), zap.Int("handle", handle))
	return node, nil
}

// UpdateGroup replaces the ports of group mgid. The first replication node of
// the group takes the new ports and any further nodes are destroyed.
func (a *Allocator) UpdateGroup(ctx context.Context, sw string, s sink.Sink,
	mgid int, ports []int) error {

	g, err := a.lookup(sw, mgid)
	if err != nil {
		return err
	}
	first := g.Nodes[0]
	if _, err := a.exec(ctx, sw, s,
		"mc_node_update "+strconv.Itoa(first.Handle)+portList(ports)); err != nil {
		return err
	}
	for _, n := range g.Nodes[1:] {
		if _, err := a.exec(ctx, sw, s, fmt.Sprintf("mc_node_destroy %d", n.Handle)); err != nil {
			return err
		}
	}
	first.Ports = append([]int(nil), ports...)
	g.Nodes = []Node{first}
	return nil
}

// DeleteGroup destroys group mgid and its replication nodes.
func (a *Allocator) DeleteGroup(ctx context.Context, sw string, s sink.Sink, mgid int) error {
	g, err := a.lookup(sw, mgid)
	if err != nil {
		return err
	}
	if _, err := a.exec(ctx, sw, s, fmt.Sprintf("mc_mgrp_destroy %d", mgid)); err != nil {
		return err
	}
	for _, n := range g.Nodes {
		if _, err := a.exec(ctx, sw, s, fmt.Sprintf("mc_node_destroy %d", n.Handle)); err != nil {
			return err
		}
	}
	delete(a.installed[sw], mgid)
	return nil
}

// Installed returns the groups programmed on sw ordered by mgid.
func (a *Allocator) Installed(sw string) []Installed {
	var res []Installed
	for _, g := range a.installed[sw] {
		res = append(res, Installed{MGID: g.MGID, Nodes: append([]Node(nil), g.Nodes...)})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].MGID < res[j].MGID })
	return res
}

// Restore loads groups programmed on sw by an earlier allocator. Later ids
// continue past the highest restored node id.
func (a *Allocator) Restore(sw string, groups []Installed) {
	installed := map[int]*Installed{}
	for _, g := range groups {
		g := Installed{MGID: g.MGID, Nodes: append([]Node(nil), g.Nodes...)}
		for _, n := range g.Nodes {
			if n.ID >= a.next {
				a.next = n.ID + 1
			}
		}
		installed[g.MGID] = &g
	}
	a.installed[sw] = installed
}

func (a *Allocator) lookup(sw string, mgid int) (*Installed, error) {
	g := a.installed[sw][mgid]
	if g == nil || len(g.Nodes) == 0 {
		return nil, serrors.Join(serrors.ErrLookup, nil, "switch", sw, "mgid", mgid)
	}
	return g, nil
}

func (a *Allocator) exec(ctx context.Context, sw string, s sink.Sink, cmd string) (string, error) {
	a.logger.Debug("Sending", zap.String("switch", sw), zap.String("cmd", cmd))
	resp, err := s.Exec(ctx, cmd)
	if err != nil {
		return "", serrors.Join(serrors.ErrSink, err, "switch", sw, "cmd", cmd)
	}
	return resp, nil
}

// ParseHandle extracts the node handle from a node creation response.
func ParseHandle(resp string) (int, error) {
	m := handleRe.FindStringSubmatch(resp)
	if m == nil {
		return 0, serrors.Join(serrors.ErrProtocolParse, nil, "response", strings.TrimSpace(resp))
	}
	handle, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, serrors.Join(serrors.ErrProtocolParse, err, "response", strings.TrimSpace(resp))
	}
	return handle, nil
}

func portList(ports []int) string {
	var b strings.Builder
	for _, p := range ports {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}
