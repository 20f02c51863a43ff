// Package shortestpath answers hop-count shortest path queries over a
// topology.
//
// Paths are found by breadth-first search that expands neighbors in link
// declaration order. Among several shortest paths, the first one reached in
// that order is returned, so results are reproducible for a given
// declaration.
package shortestpath

import (
	"p4nett/internal/serrors"
	"p4nett/internal/topology"
)

// Path is a sequence of node names from source to destination inclusive. An
// empty path means no route exists.
type Path []string

// Set is a set of node names.
type Set map[string]struct{}

// NewSet returns a set holding names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Index runs path queries against an immutable topology. Results are not
// cached since they depend on the exclusion set of each call.
type Index struct {
	topo *topology.Topology
}

func New(topo *topology.Topology) *Index {
	return &Index{topo: topo}
}

// Get returns a shortest path from src to dst that uses no node of exclude as
// an intermediate hop. src and dst are always allowed. An unknown src or dst
// yields ErrLookup; an unreachable dst yields an empty path and no error.
func (x *Index) Get(src, dst string, exclude Set) (Path, error) {
	if _, ok := x.topo.Node(src); !ok {
		return nil, serrors.Join(serrors.ErrLookup, nil, "node", src)
	}
	if _, ok := x.topo.Node(dst); !ok {
		return nil, serrors.Join(serrors.ErrLookup, nil, "node", dst)
	}
	if src == dst {
		return Path{src}, nil
	}

	parent := map[string]string{src: ""}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range x.topo.Adjacent(cur) {
			next := l.Peer(cur)
			if _, seen := parent[next]; seen {
				continue
			}
			if next == dst {
				parent[next] = cur
				return trace(parent, dst), nil
			}
			if exclude.Has(next) {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return Path{}, nil
}

func trace(parent map[string]string, dst string) Path {
	var rev Path
	for n := dst; n != ""; n = parent[n] {
		rev = append(rev, n)
	}
	p := make(Path, len(rev))
	for i, n := range rev {
		p[len(rev)-1-i] = n
	}
	return p
}

// Hosts returns the set of all hosts of topo. Hosts never relay traffic, so
// this is the exclusion set for switch-to-host queries.
func Hosts(topo *topology.Topology) Set {
	return NewSet(topo.Hosts()...)
}
