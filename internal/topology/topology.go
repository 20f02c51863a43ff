package topology

import (
	"net"
	"net/netip"
	"time"
)

type NodeType string

const (
	NodeHost   NodeType = "host"
	NodeSwitch NodeType = "switch"
)

// Node is a host or switch. Ordinal is the 1-based position of the node among
// the sorted names of its kind and drives address assignment.
type Node struct {
	Name    string
	Type    NodeType
	Ordinal int
}

// Endpoint is one side of a link. Switch endpoints carry the switch port;
// host endpoints carry the host interface number (1-based) and an IP.
type Endpoint struct {
	Node string
	Port int
	MAC  net.HardwareAddr
	IP   netip.Addr
}

type Link struct {
	A       Endpoint
	B       Endpoint
	Latency time.Duration
}

// End returns the endpoint of l on node, and the opposite endpoint.
func (l *Link) End(node string) (Endpoint, Endpoint, bool) {
	switch node {
	case l.A.Node:
		return l.A, l.B, true
	case l.B.Node:
		return l.B, l.A, true
	}
	return Endpoint{}, Endpoint{}, false
}

// Peer returns the name of the node on the other side of l.
func (l *Link) Peer(node string) string {
	if node == l.A.Node {
		return l.B.Node
	}
	return l.A.Node
}

// Attachment describes one host-to-switch link with its derived addressing.
type Attachment struct {
	Host       string
	Switch     string
	Index      int
	HostIP     netip.Addr
	HostMAC    net.HardwareAddr
	SwitchIP   netip.Addr
	SwitchMAC  net.HardwareAddr
	SwitchPort int
}

// Topology is the immutable network model produced by Builder.Build.
type Topology struct {
	nodes       map[string]Node
	hosts       []string
	switches    []string
	links       []*Link
	adj         map[string][]*Link
	attachments map[string][]Attachment
	ports       map[string]int
	ipOwner     map[netip.Addr]string
}

// Node returns the node with the given name.
func (t *Topology) Node(name string) (Node, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

func (t *Topology) IsHost(name string) bool {
	return t.nodes[name].Type == NodeHost
}

func (t *Topology) IsSwitch(name string) bool {
	return t.nodes[name].Type == NodeSwitch
}

// Hosts returns the host names in sorted order.
func (t *Topology) Hosts() []string {
	return append([]string(nil), t.hosts...)
}

// Switches returns the switch names in sorted order. This is the order in
// which switches are programmed.
func (t *Topology) Switches() []string {
	return append([]string(nil), t.switches...)
}

// Links returns all links in declaration order.
func (t *Topology) Links() []*Link {
	return append([]*Link(nil), t.links...)
}

// Adjacent returns the links of node in declaration order.
func (t *Topology) Adjacent(node string) []*Link {
	return t.adj[node]
}

// LinkBetween returns the link joining a and b.
func (t *Topology) LinkBetween(a, b string) (*Link, bool) {
	for _, l := range t.adj[a] {
		if l.Peer(a) == b {
			return l, true
		}
	}
	return nil, false
}

// Attachments returns the switch attachments of host in link order.
func (t *Topology) Attachments(host string) []Attachment {
	return t.attachments[host]
}

// SwitchAttachments returns the hosts attached to sw, sorted by host name and
// then by link order.
func (t *Topology) SwitchAttachments(sw string) []Attachment {
	var res []Attachment
	for _, h := range t.hosts {
		for _, a := range t.attachments[h] {
			if a.Switch == sw {
				res = append(res, a)
			}
		}
	}
	return res
}

// AttachedTo reports whether host has a link to sw.
func (t *Topology) AttachedTo(host, sw string) bool {
	for _, a := range t.attachments[host] {
		if a.Switch == sw {
			return true
		}
	}
	return false
}

// HostByIP returns the host owning ip.
func (t *Topology) HostByIP(ip netip.Addr) (string, bool) {
	h, ok := t.ipOwner[ip]
	return h, ok
}

// PortCount returns the number of ports assigned on sw.
func (t *Topology) PortCount(sw string) int {
	return t.ports[sw]
}
