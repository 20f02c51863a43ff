// Package controller compiles a declared network and programs its switches
// one at a time.
package controller

import (
	"p4nett/internal/compiler"
	"p4nett/internal/manifest"
	"p4nett/internal/topology"
)

// TopologyProvider supplies the declared network and the per-switch user
// input that goes with it.
type TopologyProvider interface {
	Name() string
	Topology() (*topology.Topology, error)
	Source() compiler.Source
}

// ManifestProvider serves one target of a p4app manifest.
type ManifestProvider struct {
	Manifest *manifest.Manifest
	Target   *manifest.Target
}

// NewManifestProvider loads the manifest at path and selects target. An empty
// target selects the first one declared.
func NewManifestProvider(path, target string) (*ManifestProvider, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	t, err := m.Target(target)
	if err != nil {
		return nil, err
	}
	return &ManifestProvider{Manifest: m, Target: t}, nil
}

func (p *ManifestProvider) Name() string {
	return p.Target.Name
}

func (p *ManifestProvider) Topology() (*topology.Topology, error) {
	return topology.Build(p.Target.Declaration())
}

func (p *ManifestProvider) Source() compiler.Source {
	return manifest.SwitchSource{Target: p.Target, Dir: p.Manifest.Dir()}
}
