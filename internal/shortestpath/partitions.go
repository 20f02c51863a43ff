package shortestpath

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	gtopo "gonum.org/v1/gonum/graph/topo"

	"p4nett/internal/topology"
)

// Graph converts topo into a gonum undirected graph. The returned ids slice
// maps gonum node ids back to node names.
func Graph(topo *topology.Topology) (*simple.UndirectedGraph, []string) {
	names := append(topo.Hosts(), topo.Switches()...)
	sort.Strings(names)
	ids := make(map[string]int64, len(names))
	g := simple.NewUndirectedGraph()
	for i, n := range names {
		ids[n] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, l := range topo.Links() {
		g.SetEdge(g.NewEdge(simple.Node(ids[l.A.Node]), simple.Node(ids[l.B.Node])))
	}
	return g, names
}

// Partitions returns the connected components of topo. Each component is
// sorted by name and components are ordered by their first member.
func Partitions(topo *topology.Topology) [][]string {
	g, names := Graph(topo)
	var res [][]string
	for _, cc := range gtopo.ConnectedComponents(g) {
		part := make([]string, 0, len(cc))
		for _, n := range cc {
			part = append(part, names[n.ID()])
		}
		sort.Strings(part)
		res = append(res, part)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i][0] < res[j][0]
	})
	return res
}
