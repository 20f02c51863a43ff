package multicast_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"p4nett/internal/multicast"
	"p4nett/internal/serrors"
	"p4nett/internal/topology"
)

// fakeSink answers node creation with handles counting up from 100.
type fakeSink struct {
	cmds    []string
	handle  int
	respond func(cmd string) (string, error)
}

func (s *fakeSink) Exec(_ context.Context, cmd string) (string, error) {
	s.cmds = append(s.cmds, cmd)
	if s.respond != nil {
		return s.respond(cmd)
	}
	if strings.HasPrefix(cmd, "mc_node_create") {
		h := 100 + s.handle
		s.handle++
		return fmt.Sprintf("Creating node with rid 0 , port map 110 and lag map \n"+
			"node was created with handle %d\n", h), nil
	}
	return "", nil
}

func TestCreateGroup(t *testing.T) {
	testCases := map[string]struct {
		model multicast.Model
		want  []string
	}{
		"simple switch": {
			model: multicast.ModelSimpleSwitch,
			want: []string{
				"mc_node_create 0 1 2 3",
				"mc_mgrp_create 10",
				"mc_node_associate 10 100",
			},
		},
		"generic": {
			model: multicast.ModelGeneric,
			want: []string{
				"mc_node_create 0 1 2 3",
				"mc_mgrp_create 10",
				"mc_associate_node 10 100 0 0",
			},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			s := &fakeSink{}
			a := multicast.NewAllocator(tc.model, zaptest.NewLogger(t))
			node, err := a.CreateGroup(context.Background(), "s1", s, 10, []int{1, 2, 3})
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.cmds)
			assert.Equal(t, multicast.Node{ID: 0, Handle: 100, Ports: []int{1, 2, 3}}, node)
			assert.Equal(t, tc.model, a.Model())
		})
	}
}

func TestCreateGroupUniqueIDs(t *testing.T) {
	s := &fakeSink{}
	a := multicast.NewAllocator(multicast.ModelSimpleSwitch, nil)
	seen := map[int]bool{}
	for i := 0; i < 5; i++ {
		sw := "s1"
		if i%2 == 1 {
			sw = "s2"
		}
		node, err := a.CreateGroup(context.Background(), sw, s, 7, []int{1})
		require.NoError(t, err)
		assert.Equal(t, i, node.ID)
		assert.False(t, seen[node.ID])
		seen[node.ID] = true
	}
	require.Len(t, a.Installed("s1"), 1)
	assert.Len(t, a.Installed("s1")[0].Nodes, 3)
	assert.Len(t, a.Installed("s2")[0].Nodes, 2)
}

func TestCreateGroupErrors(t *testing.T) {
	sinkErr := errors.New("broken pipe")
	testCases := map[string]struct {
		respond func(string) (string, error)
		wantErr error
		wantLen int
	}{
		"no handle": {
			respond: func(string) (string, error) { return "Error: invalid port", nil },
			wantErr: serrors.ErrProtocolParse,
			wantLen: 1,
		},
		"handle not numeric": {
			respond: func(string) (string, error) { return "node was created with handle x1", nil },
			wantErr: serrors.ErrProtocolParse,
			wantLen: 1,
		},
		"sink failure": {
			respond: func(string) (string, error) { return "", sinkErr },
			wantErr: serrors.ErrSink,
			wantLen: 1,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			s := &fakeSink{respond: tc.respond}
			a := multicast.NewAllocator(multicast.ModelSimpleSwitch, nil)
			_, err := a.CreateGroup(context.Background(), "s1", s, 1, []int{1})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Len(t, s.cmds, tc.wantLen)
			assert.Empty(t, a.Installed("s1"))
		})
	}
}

func TestUpdateDeleteGroup(t *testing.T) {
	ctx := context.Background()
	s := &fakeSink{}
	a := multicast.NewAllocator(multicast.ModelSimpleSwitch, nil)

	assert.ErrorIs(t, a.UpdateGroup(ctx, "s1", s, 5, []int{1}), serrors.ErrLookup)
	assert.ErrorIs(t, a.DeleteGroup(ctx, "s1", s, 5), serrors.ErrLookup)
	assert.Empty(t, s.cmds)

	_, err := a.CreateGroup(ctx, "s1", s, 5, []int{1, 2})
	require.NoError(t, err)
	_, err = a.CreateGroup(ctx, "s1", s, 5, []int{3})
	require.NoError(t, err)
	s.cmds = nil

	require.NoError(t, a.UpdateGroup(ctx, "s1", s, 5, []int{2, 4}))
	assert.Equal(t, []string{"mc_node_update 100 2 4", "mc_node_destroy 101"}, s.cmds)
	assert.Equal(t, []multicast.Installed{{
		MGID:  5,
		Nodes: []multicast.Node{{ID: 0, Handle: 100, Ports: []int{2, 4}}},
	}}, a.Installed("s1"))

	s.cmds = nil
	require.NoError(t, a.DeleteGroup(ctx, "s1", s, 5))
	assert.Equal(t, []string{"mc_mgrp_destroy 5", "mc_node_destroy 100"}, s.cmds)
	assert.Empty(t, a.Installed("s1"))

	// Deleting does not release ids.
	node, err := a.CreateGroup(ctx, "s1", s, 5, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 2, node.ID)
}

func TestRestore(t *testing.T) {
	a := multicast.NewAllocator(multicast.ModelSimpleSwitch, nil)
	a.Restore("s1", []multicast.Installed{
		{MGID: 1, Nodes: []multicast.Node{{ID: 4, Handle: 9, Ports: []int{1}}}},
		{MGID: 2, Nodes: []multicast.Node{{ID: 2, Handle: 3, Ports: []int{2}}}},
	})
	s := &fakeSink{}
	require.NoError(t, a.UpdateGroup(context.Background(), "s1", s, 1, []int{1, 2}))
	node, err := a.CreateGroup(context.Background(), "s1", s, 3, []int{3})
	require.NoError(t, err)
	assert.Equal(t, 5, node.ID)
	require.NoError(t, a.DeleteGroup(context.Background(), "s1", s, 2))
	assert.Equal(t, []string{
		"mc_node_update 9 1 2",
		"mc_node_create 5 3",
		"mc_mgrp_create 3",
		"mc_node_associate 3 100",
		"mc_mgrp_destroy 2",
		"mc_node_destroy 3",
	}, s.cmds)

	installed := a.Installed("s1")
	require.Len(t, installed, 2)
	assert.Equal(t, []int{1, 2}, installed[0].Nodes[0].Ports)
	assert.Equal(t, 3, installed[1].MGID)
}

func TestParseHandle(t *testing.T) {
	h, err := multicast.ParseHandle("RuntimeCmd: node was created with handle 42\n")
	require.NoError(t, err)
	assert.Equal(t, 42, h)

	_, err = multicast.ParseHandle("created with 42")
	assert.ErrorIs(t, err, serrors.ErrProtocolParse)
}

func TestParseModel(t *testing.T) {
	m, err := multicast.ParseModel("")
	require.NoError(t, err)
	assert.Equal(t, multicast.ModelSimpleSwitch, m)
	m, err = multicast.ParseModel("generic")
	require.NoError(t, err)
	assert.Equal(t, "generic", m.String())
	_, err = multicast.ParseModel("tofino")
	assert.ErrorIs(t, err, serrors.ErrConfig)
}

func TestParseDeclarations(t *testing.T) {
	topo, err := topology.Build(topology.Declaration{
		Links: []topology.LinkSpec{
			{A: "h1", B: "s1"}, {A: "h2", B: "s1"}, {A: "h3", B: "s2"}, {A: "s1", B: "s2"},
		},
	})
	require.NoError(t, err)
	r := multicast.TopologyResolver{Topology: topo}

	groups, err := multicast.ParseDeclarations("s1", []string{
		"# flood group",
		"10: 1 2 3",
		"",
		"11:h2 10.0.1.101 3",
	}, r)
	require.NoError(t, err)
	assert.Equal(t, []multicast.Group{
		{MGID: 10, Ports: []int{1, 2, 3}},
		{MGID: 11, Ports: []int{2, 1, 3}},
	}, groups)

	testCases := map[string]struct {
		line    string
		wantErr error
	}{
		"missing colon":    {line: "10 1 2", wantErr: serrors.ErrConfig},
		"bad mgid":         {line: "x:1", wantErr: serrors.ErrConfig},
		"unknown host":     {line: "1:h9", wantErr: serrors.ErrLookup},
		"unknown ip":       {line: "1:10.0.9.101", wantErr: serrors.ErrLookup},
		"switch token":     {line: "1:s2", wantErr: serrors.ErrLookup},
		"host not on s1":   {line: "1:h3", wantErr: serrors.ErrLookup},
		"ip of host on s2": {line: "1:10.0.3.101", wantErr: serrors.ErrLookup},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := multicast.ParseDeclarations("s1", []string{tc.line}, r)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
