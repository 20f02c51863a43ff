// Package transcript stores what was sent to each switch during an install,
// one JSON file per switch and run.
package transcript

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"p4nett/internal/multicast"
	"p4nett/internal/sink"
)

// Record is the install transcript of one switch.
type Record struct {
	ID         string `json:"id"`
	Run        string `json:"run"`
	Target     string `json:"target,omitempty"`
	Switch     string `json:"switch"`
	ThriftPort int    `json:"thrift_port,omitempty"`
	// Seq is the position of the switch in the run's programming order.
	Seq       int                   `json:"seq"`
	CreatedAt time.Time             `json:"created_at"`
	Exchanges []sink.Exchange       `json:"exchanges"`
	Groups    []multicast.Installed `json:"groups,omitempty"`
	// Error is set when programming the switch stopped early.
	Error string `json:"error,omitempty"`
}

func NewRecord(run, target, sw string, seq int) *Record {
	return &Record{
		Run:       run,
		Target:    target,
		Switch:    sw,
		Seq:       seq,
		CreatedAt: time.Now(),
		Exchanges: []sink.Exchange{},
	}
}

// Commands returns the commands of the record in the order they were sent.
func (r *Record) Commands() []string {
	cmds := make([]string, 0, len(r.Exchanges))
	for _, x := range r.Exchanges {
		cmds = append(cmds, x.Command)
	}
	return cmds
}

// GenerateID generates a random ID with 6 bytes (12 hex characters)
func GenerateID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
