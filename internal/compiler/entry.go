package compiler

import (
	"strconv"
	"strings"
)

// FlowEntry is a single table entry. A nil Match makes it the table's
// default entry.
type FlowEntry struct {
	Table    string
	Match    []string
	Action   string
	Params   []string
	Priority int
}

// String renders the entry in switch CLI syntax.
func (e FlowEntry) String() string {
	var b strings.Builder
	if e.Match == nil {
		b.WriteString("table_set_default ")
		b.WriteString(e.Table)
		b.WriteByte(' ')
		b.WriteString(e.Action)
		for _, p := range e.Params {
			b.WriteByte(' ')
			b.WriteString(p)
		}
		return b.String()
	}
	b.WriteString("table_add ")
	b.WriteString(e.Table)
	b.WriteByte(' ')
	b.WriteString(e.Action)
	for _, m := range e.Match {
		b.WriteByte(' ')
		b.WriteString(m)
	}
	b.WriteString(" =>")
	for _, p := range e.Params {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	if e.Priority > 0 {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(e.Priority))
	}
	return b.String()
}

// Tables names the tables and actions the generated entries target.
type Tables struct {
	// Frame rewrites the source MAC per egress port.
	Frame string
	// Forward sets the destination MAC per next-hop IP.
	Forward string
	// Route is the longest-prefix-match routing table.
	Route string

	Drop       string
	RewriteMAC string
	SetDMAC    string
	SetNextHop string
}

func DefaultTables() Tables {
	return Tables{
		Frame:      "send_frame",
		Forward:    "forward",
		Route:      "ipv4_lpm",
		Drop:       "_drop",
		RewriteMAC: "rewrite_mac",
		SetDMAC:    "set_dmac",
		SetNextHop: "set_nhop",
	}
}

// defaults returns one drop default per governed table.
func (t Tables) defaults() []FlowEntry {
	return []FlowEntry{
		{Table: t.Frame, Action: t.Drop},
		{Table: t.Forward, Action: t.Drop},
		{Table: t.Route, Action: t.Drop},
	}
}

// triple returns the rewrite, set-dmac and host-route entries that send
// traffic for hostIP out of port, with srcMAC as the egress source and
// dstMAC as the next hop's address.
func (t Tables) triple(port int, srcMAC, hostIP, dstMAC string) []FlowEntry {
	p := strconv.Itoa(port)
	return []FlowEntry{
		{Table: t.Frame, Match: []string{p}, Action: t.RewriteMAC, Params: []string{srcMAC}},
		{Table: t.Forward, Match: []string{hostIP}, Action: t.SetDMAC, Params: []string{dstMAC}},
		{Table: t.Route, Match: []string{hostIP + "/32"}, Action: t.SetNextHop, Params: []string{hostIP, p}},
	}
}
