// Package sink delivers control-plane commands to running switches and
// returns their textual responses.
package sink

import (
	"context"
	"io"
)

// Sink executes one command against a switch and blocks until the switch
// has answered.
type Sink interface {
	Exec(ctx context.Context, cmd string) (string, error)
}

// Opener opens the sink of a named switch. ordinal is the switch's 1-based
// position in programming order.
type Opener interface {
	Open(ctx context.Context, sw string, ordinal int) (Session, error)
}

// Session is a sink bound to one switch for the duration of its programming.
type Session interface {
	Sink
	io.Closer
}
