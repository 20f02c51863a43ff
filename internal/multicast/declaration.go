package multicast

import (
	"net/netip"
	"strconv"
	"strings"

	"p4nett/internal/serrors"
	"p4nett/internal/topology"
)

// PortResolver maps a non-numeric port token of a declaration to a port of
// switch sw.
type PortResolver interface {
	ResolvePort(sw, token string) (int, error)
}

// ParseDeclarations parses lines of the form "mgid:port port ...". Blank
// lines and '#' comments are skipped.
func ParseDeclarations(sw string, lines []string, r PortResolver) ([]Group, error) {
	var groups []Group
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		head, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, serrors.Join(serrors.ErrConfig, nil, "switch", sw, "line", line)
		}
		mgid, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil || mgid < 0 {
			return nil, serrors.Join(serrors.ErrConfig, err, "switch", sw, "line", line)
		}
		g := Group{MGID: mgid}
		for _, tok := range strings.Fields(rest) {
			port, err := strconv.Atoi(tok)
			if err != nil {
				if port, err = r.ResolvePort(sw, tok); err != nil {
					return nil, err
				}
			}
			g.Ports = append(g.Ports, port)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// TopologyResolver resolves host names and host IPs to the switch port
// facing that host.
type TopologyResolver struct {
	Topology *topology.Topology
}

func (r TopologyResolver) ResolvePort(sw, token string) (int, error) {
	host := token
	if ip, err := netip.ParseAddr(token); err == nil {
		owner, ok := r.Topology.HostByIP(ip)
		if !ok {
			return 0, serrors.Join(serrors.ErrLookup, nil, "switch", sw, "ip", token)
		}
		host = owner
	}
	if !r.Topology.IsHost(host) {
		return 0, serrors.Join(serrors.ErrLookup, nil, "switch", sw, "host", token)
	}
	for _, a := range r.Topology.Attachments(host) {
		if a.Switch == sw {
			return a.SwitchPort, nil
		}
	}
	return 0, serrors.Join(serrors.ErrLookup, nil,
		"switch", sw, "host", host, "reason", "host not attached")
}
