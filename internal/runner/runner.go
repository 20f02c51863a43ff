// Package runner starts the processes that talk to switches, either directly
// on this machine, inside a switch's network namespace or inside a docker
// container.
package runner

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"p4nett/internal/serrors"
)

// Process is a started process with piped standard streams.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	// Wait waits for the process to exit. A non-zero exit is an error.
	Wait() error
}

// ProcessRunner starts argv on behalf of node.
type ProcessRunner interface {
	Start(ctx context.Context, node string, argv []string) (Process, error)
}

const (
	KindLocal  = "local"
	KindNetns  = "netns"
	KindDocker = "docker"
)

// LocalRunner runs processes on this machine.
type LocalRunner struct {
	// Env is appended to the current environment.
	Env []string
}

func (r LocalRunner) Start(ctx context.Context, node string, argv []string) (Process, error) {
	if len(argv) == 0 {
		return nil, serrors.Join(serrors.ErrConfig, nil, "node", node, "reason", "empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	p := &localProcess{cmd: cmd}
	cmd.Stderr = &p.stderr

	var err error
	if p.stdin, err = cmd.StdinPipe(); err != nil {
		return nil, serrors.Join(serrors.ErrSink, err, "node", node)
	}
	if p.stdout, err = cmd.StdoutPipe(); err != nil {
		return nil, serrors.Join(serrors.ErrSink, err, "node", node)
	}
	if err := cmd.Start(); err != nil {
		return nil, serrors.Join(serrors.ErrSink, err, "node", node, "cmd", strings.Join(argv, " "))
	}
	return p, nil
}

type localProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr bytes.Buffer
}

func (p *localProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *localProcess) Stdout() io.Reader     { return p.stdout }

func (p *localProcess) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return serrors.Join(serrors.ErrSink, err,
			"cmd", p.cmd.Path, "stderr", strings.TrimSpace(p.stderr.String()))
	}
	return nil
}
