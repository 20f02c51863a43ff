package topology_test

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p4nett/internal/serrors"
	"p4nett/internal/topology"
)

func TestBuildAddressing(t *testing.T) {
	b := topology.NewBuilder()
	b.AddLink("h1", "s1")
	b.AddLink("s1", "s2")
	b.AddLinkWithLatency("h2", "s2", 50*time.Millisecond)
	b.AddLink("h2", "s1")
	topo, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"h1", "h2"}, topo.Hosts())
	assert.Equal(t, []string{"s1", "s2"}, topo.Switches())

	h2 := topo.Attachments("h2")
	require.Len(t, h2, 2)
	// h2's first declared link is to s2.
	assert.Equal(t, "s2", h2[0].Switch)
	assert.Equal(t, "10.0.2.101", h2[0].HostIP.String())
	assert.Equal(t, "00:04:00:00:02:01", h2[0].HostMAC.String())
	assert.Equal(t, "10.0.2.1", h2[0].SwitchIP.String())
	assert.Equal(t, "00:aa:00:02:00:02", h2[0].SwitchMAC.String())
	assert.Equal(t, 1, h2[0].SwitchPort)

	assert.Equal(t, "s1", h2[1].Switch)
	assert.Equal(t, "10.0.2.102", h2[1].HostIP.String())
	assert.Equal(t, "00:04:00:00:02:02", h2[1].HostMAC.String())
	assert.Equal(t, "10.0.2.2", h2[1].SwitchIP.String())
	assert.Equal(t, "00:aa:00:01:00:02", h2[1].SwitchMAC.String())
	// s1 port 1 went to h1, so h2 gets port 2.
	assert.Equal(t, 2, h2[1].SwitchPort)

	// Switch-switch ports come after all host ports.
	trunk, ok := topo.LinkBetween("s1", "s2")
	require.True(t, ok)
	s1End, s2End, ok := trunk.End("s1")
	require.True(t, ok)
	assert.Equal(t, 3, s1End.Port)
	assert.Equal(t, "00:aa:00:01:02:00", s1End.MAC.String())
	assert.Equal(t, 2, s2End.Port)
	assert.Equal(t, "00:aa:00:02:01:00", s2End.MAC.String())

	assert.Equal(t, 3, topo.PortCount("s1"))
	assert.Equal(t, 2, topo.PortCount("s2"))

	l, ok := topo.LinkBetween("s2", "h2")
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, l.Latency)

	owner, ok := topo.HostByIP(netip.MustParseAddr("10.0.2.102"))
	require.True(t, ok)
	assert.Equal(t, "h2", owner)
	_, ok = topo.HostByIP(netip.MustParseAddr("10.0.9.101"))
	assert.False(t, ok)
}

func TestAdjacencyFollowsDeclarationOrder(t *testing.T) {
	topo, err := topology.Build(topology.Declaration{
		Links: []topology.LinkSpec{
			{A: "s1", B: "s3"},
			{A: "h1", B: "s1"},
			{A: "s1", B: "s2"},
		},
	})
	require.NoError(t, err)

	var peers []string
	for _, l := range topo.Adjacent("s1") {
		peers = append(peers, l.Peer("s1"))
	}
	assert.Equal(t, []string{"s3", "h1", "s2"}, peers)
}

func TestSwitchAttachmentsSorted(t *testing.T) {
	topo, err := topology.Build(topology.Declaration{
		Links: []topology.LinkSpec{
			{A: "h3", B: "s1"},
			{A: "s1", B: "h1"},
			{A: "h2", B: "s1"},
		},
	})
	require.NoError(t, err)

	var hosts []string
	var ports []int
	for _, a := range topo.SwitchAttachments("s1") {
		hosts = append(hosts, a.Host)
		ports = append(ports, a.SwitchPort)
	}
	assert.Equal(t, []string{"h1", "h2", "h3"}, hosts)
	assert.Equal(t, []int{1, 2, 3}, ports)
	assert.True(t, topo.AttachedTo("h2", "s1"))
	assert.False(t, topo.AttachedTo("h2", "s2"))
}

func TestExplicitKinds(t *testing.T) {
	topo, err := topology.Build(topology.Declaration{
		Links:    []topology.LinkSpec{{A: "client", B: "tor"}},
		Hosts:    []string{"client"},
		Switches: []string{"tor"},
	})
	require.NoError(t, err)
	assert.True(t, topo.IsHost("client"))
	assert.True(t, topo.IsSwitch("tor"))
	n, ok := topo.Node("tor")
	require.True(t, ok)
	assert.Equal(t, topology.Node{Name: "tor", Type: topology.NodeSwitch, Ordinal: 1}, n)
}

func TestBuildErrors(t *testing.T) {
	testCases := map[string][]topology.LinkSpec{
		"unknown kind":   {{A: "r1", B: "s1"}},
		"host to host":   {{A: "h1", B: "h2"}},
		"self loop":      {{A: "s1", B: "s1"}},
		"duplicate link": {{A: "h1", B: "s1"}, {A: "s1", B: "h1"}},
		"empty name":     {{A: "", B: "s1"}},
	}
	for name, links := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := topology.Build(topology.Declaration{Links: links})
			assert.ErrorIs(t, err, serrors.ErrConfig)
		})
	}
}
