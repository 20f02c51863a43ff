package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"p4nett/internal/serrors"
)

// DryRunOpener writes every command to W instead of a switch. Each session
// starts with a "# <switch>" header line.
type DryRunOpener struct {
	W io.Writer

	mu sync.Mutex
}

func (o *DryRunOpener) Open(_ context.Context, sw string, _ int) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := fmt.Fprintf(o.W, "# %s\n", sw); err != nil {
		return nil, serrors.Join(serrors.ErrSink, err, "switch", sw)
	}
	return &dryRunSession{sw: sw, o: o}, nil
}

type dryRunSession struct {
	sw string
	o  *DryRunOpener
}

// Exec records cmd. Node creation is answered the way the runtime CLI does,
// with the node id doubling as its handle.
func (s *dryRunSession) Exec(_ context.Context, cmd string) (string, error) {
	s.o.mu.Lock()
	defer s.o.mu.Unlock()
	if _, err := fmt.Fprintln(s.o.W, cmd); err != nil {
		return "", serrors.Join(serrors.ErrSink, err, "switch", s.sw, "cmd", cmd)
	}
	f := strings.Fields(cmd)
	if len(f) >= 2 && f[0] == "mc_node_create" {
		return "Creating node with rid " + f[1] + " and with port map ...\n" +
			"node was created with handle " + f[1], nil
	}
	return "", nil
}

func (s *dryRunSession) Close() error {
	return nil
}
