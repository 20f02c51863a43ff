package sink

import (
	"context"
	"time"
)

// Exchange is one command and the switch's answer to it.
type Exchange struct {
	Command  string    `json:"command"`
	Response string    `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Recorder wraps a sink and keeps every exchange in order.
type Recorder struct {
	Sink      Sink
	Exchanges []Exchange

	now func() time.Time
}

func NewRecorder(s Sink) *Recorder {
	return &Recorder{Sink: s, now: time.Now}
}

func (r *Recorder) Exec(ctx context.Context, cmd string) (string, error) {
	resp, err := r.Sink.Exec(ctx, cmd)
	now := r.now
	if now == nil {
		now = time.Now
	}
	x := Exchange{Command: cmd, Response: resp, At: now()}
	if err != nil {
		x.Error = err.Error()
	}
	r.Exchanges = append(r.Exchanges, x)
	return resp, err
}
