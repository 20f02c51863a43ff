package controller

import (
	"p4nett/internal/shortestpath"
	"p4nett/internal/topology"
)

// Route is the forwarding decision of one switch towards one host.
type Route struct {
	Switch string
	Host   string
	// Path is empty when the host is unreachable.
	Path shortestpath.Path
	// Port is the egress port on Switch, 0 when unreachable.
	Port  int
	Local bool
}

// NextHop returns the node after the switch, or "" without a route.
func (r Route) NextHop() string {
	if len(r.Path) < 2 {
		return ""
	}
	return r.Path[1]
}

// Routes computes the route of every switch to every host the same way
// compiled entries do. Switches and hosts are in name order.
func Routes(topo *topology.Topology) ([]Route, error) {
	idx := shortestpath.New(topo)
	hosts := shortestpath.Hosts(topo)
	var res []Route
	for _, sw := range topo.Switches() {
		for _, h := range topo.Hosts() {
			r := Route{Switch: sw, Host: h, Local: topo.AttachedTo(h, sw)}
			if r.Local {
				// Local hosts are reached on their first link to the switch.
				for _, a := range topo.SwitchAttachments(sw) {
					if a.Host == h {
						r.Path = shortestpath.Path{sw, h}
						r.Port = a.SwitchPort
						break
					}
				}
				res = append(res, r)
				continue
			}
			path, err := idx.Get(sw, h, hosts)
			if err != nil {
				return nil, err
			}
			r.Path = path
			if len(path) >= 2 {
				if l, ok := topo.LinkBetween(sw, path[1]); ok {
					local, _, _ := l.End(sw)
					r.Port = local.Port
				}
			}
			res = append(res, r)
		}
	}
	return res, nil
}
