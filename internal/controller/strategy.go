package controller

import (
	"go.uber.org/zap"

	"p4nett/internal/compiler"
	"p4nett/internal/topology"
)

// Strategy decides what each switch is programmed with.
type Strategy interface {
	Programs(topo *topology.Topology, src compiler.Source) ([]compiler.Program, error)
}

// RoutingStrategy installs shortest-path IPv4 routing between all hosts.
type RoutingStrategy struct {
	Tables        compiler.Tables
	StrictTransit bool
	Logger        *zap.Logger
}

func (s RoutingStrategy) Programs(topo *topology.Topology,
	src compiler.Source) ([]compiler.Program, error) {

	return compiler.New(topo, compiler.Config{
		Tables:        s.Tables,
		Source:        src,
		StrictTransit: s.StrictTransit,
		Logger:        s.Logger,
	}).Compile()
}
