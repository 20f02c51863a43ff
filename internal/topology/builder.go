package topology

import (
	"net/netip"
	"sort"
	"time"

	"p4nett/internal/serrors"
)

// LinkSpec is a declared link between two named nodes.
type LinkSpec struct {
	A       string
	B       string
	Latency time.Duration
}

// Declaration is the static description a Topology is built from. Nodes are
// the endpoints of the links. Hosts and Switches optionally pin the kind of a
// node; otherwise names starting with 'h' are hosts and names starting with
// 's' are switches.
type Declaration struct {
	Links    []LinkSpec
	Hosts    []string
	Switches []string
}

type Builder struct {
	decl Declaration
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) AddHost(name string) {
	b.decl.Hosts = append(b.decl.Hosts, name)
}

func (b *Builder) AddSwitch(name string) {
	b.decl.Switches = append(b.decl.Switches, name)
}

func (b *Builder) AddLink(a, z string) {
	b.AddLinkWithLatency(a, z, 0)
}

func (b *Builder) AddLinkWithLatency(a, z string, latency time.Duration) {
	b.decl.Links = append(b.decl.Links, LinkSpec{A: a, B: z, Latency: latency})
}

// Build is a shorthand for NewBuilder with decl followed by Build.
func Build(decl Declaration) (*Topology, error) {
	return (&Builder{decl: decl}).Build()
}

// Build validates the declaration and derives ordinals, ports and addresses.
func (b *Builder) Build() (*Topology, error) {
	t := &Topology{
		nodes:       map[string]Node{},
		adj:         map[string][]*Link{},
		attachments: map[string][]Attachment{},
		ports:       map[string]int{},
		ipOwner:     map[netip.Addr]string{},
	}

	if err := b.classify(t); err != nil {
		return nil, err
	}
	if err := b.checkLinks(t); err != nil {
		return nil, err
	}

	// Links are materialized in declaration order so adjacency follows it,
	// while ports are handed out host links first.
	links := make([]*Link, len(b.decl.Links))
	for i, spec := range b.decl.Links {
		links[i] = &Link{
			A:       Endpoint{Node: spec.A},
			B:       Endpoint{Node: spec.B},
			Latency: spec.Latency,
		}
	}

	for _, h := range t.hosts {
		host := t.nodes[h]
		idx := 0
		for _, l := range links {
			if l.A.Node != h && l.B.Node != h {
				continue
			}
			hostEnd, swEnd := &l.A, &l.B
			if l.B.Node == h {
				hostEnd, swEnd = &l.B, &l.A
			}
			sw := t.nodes[swEnd.Node]
			if idx+1 > maxLinkIndex {
				return nil, serrors.Join(serrors.ErrConfig, nil,
					"host", h, "reason", "too many links")
			}
			t.ports[sw.Name]++
			att := Attachment{
				Host:       h,
				Switch:     sw.Name,
				Index:      idx,
				HostIP:     hostIP(host.Ordinal, idx),
				HostMAC:    hostMAC(host.Ordinal, idx),
				SwitchIP:   switchFacingIP(host.Ordinal, idx),
				SwitchMAC:  switchMAC(sw.Ordinal, host.Ordinal),
				SwitchPort: t.ports[sw.Name],
			}
			*hostEnd = Endpoint{Node: h, Port: idx + 1, MAC: att.HostMAC, IP: att.HostIP}
			*swEnd = Endpoint{Node: sw.Name, Port: att.SwitchPort, MAC: att.SwitchMAC, IP: att.SwitchIP}
			t.attachments[h] = append(t.attachments[h], att)
			t.ipOwner[att.HostIP] = h
			idx++
		}
	}

	for _, l := range links {
		a, z := t.nodes[l.A.Node], t.nodes[l.B.Node]
		if a.Type != NodeSwitch || z.Type != NodeSwitch {
			continue
		}
		t.ports[a.Name]++
		t.ports[z.Name]++
		l.A = Endpoint{Node: a.Name, Port: t.ports[a.Name], MAC: trunkMAC(a.Ordinal, z.Ordinal)}
		l.B = Endpoint{Node: z.Name, Port: t.ports[z.Name], MAC: trunkMAC(z.Ordinal, a.Ordinal)}
	}

	for _, l := range links {
		t.adj[l.A.Node] = append(t.adj[l.A.Node], l)
		t.adj[l.B.Node] = append(t.adj[l.B.Node], l)
	}
	t.links = links
	return t, nil
}

// classify collects the link endpoints and determines their kinds and
// ordinals.
func (b *Builder) classify(t *Topology) error {
	hostSet := map[string]bool{}
	for _, h := range b.decl.Hosts {
		hostSet[h] = true
	}
	swSet := map[string]bool{}
	for _, s := range b.decl.Switches {
		swSet[s] = true
	}

	seen := map[string]bool{}
	for _, l := range b.decl.Links {
		for _, name := range []string{l.A, l.B} {
			if seen[name] {
				continue
			}
			seen[name] = true
			switch {
			case name == "":
				return serrors.Join(serrors.ErrConfig, nil, "reason", "empty node name")
			case hostSet[name]:
				t.hosts = append(t.hosts, name)
			case swSet[name]:
				t.switches = append(t.switches, name)
			case name[0] == 'h':
				t.hosts = append(t.hosts, name)
			case name[0] == 's':
				t.switches = append(t.switches, name)
			default:
				return serrors.Join(serrors.ErrConfig, nil,
					"node", name, "reason", "unknown node type")
			}
		}
	}
	sort.Strings(t.hosts)
	sort.Strings(t.switches)
	if len(t.hosts) > maxOrdinal || len(t.switches) > maxOrdinal {
		return serrors.Join(serrors.ErrConfig, nil,
			"hosts", len(t.hosts), "switches", len(t.switches),
			"reason", "address space exhausted")
	}
	for i, h := range t.hosts {
		t.nodes[h] = Node{Name: h, Type: NodeHost, Ordinal: i + 1}
	}
	for i, s := range t.switches {
		t.nodes[s] = Node{Name: s, Type: NodeSwitch, Ordinal: i + 1}
	}
	return nil
}

func (b *Builder) checkLinks(t *Topology) error {
	type pair struct{ a, b string }
	seen := map[pair]bool{}
	for _, l := range b.decl.Links {
		if l.A == l.B {
			return serrors.Join(serrors.ErrConfig, nil, "node", l.A, "reason", "self loop")
		}
		p := pair{l.A, l.B}
		if p.b < p.a {
			p = pair{l.B, l.A}
		}
		if seen[p] {
			return serrors.Join(serrors.ErrConfig, nil,
				"a", l.A, "b", l.B, "reason", "duplicate link")
		}
		seen[p] = true
		if t.nodes[l.A].Type == NodeHost && t.nodes[l.B].Type == NodeHost {
			return serrors.Join(serrors.ErrConfig, nil,
				"a", l.A, "b", l.B, "reason", "hosts must connect to switches")
		}
	}
	return nil
}
