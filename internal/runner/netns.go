package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"

	"p4nett/internal/serrors"
)

const (
	DefaultNetnsDir = "/var/run/netns"
	// NsenterCommand is the hidden subcommand the binary re-executes itself
	// with to enter a namespace.
	NsenterCommand = "nsenter"
)

// NetnsRunner runs processes inside the network namespace named after the
// node, by re-executing the current binary with the nsenter subcommand.
type NetnsRunner struct {
	// Dir holds the bind-mounted namespace files.
	Dir string
	// Self is the binary to re-execute. Defaults to os.Executable.
	Self string
	Env  []string
}

func (r NetnsRunner) Start(ctx context.Context, node string, argv []string) (Process, error) {
	self := r.Self
	if self == "" {
		var err error
		if self, err = os.Executable(); err != nil {
			return nil, serrors.Join(serrors.ErrSink, err, "node", node)
		}
	}
	return LocalRunner{Env: r.Env}.Start(ctx, node, r.Argv(self, node, argv))
}

// Argv returns the re-exec command line that runs argv inside node's
// namespace.
func (r NetnsRunner) Argv(self, node string, argv []string) []string {
	dir := r.Dir
	if dir == "" {
		dir = DefaultNetnsDir
	}
	res := []string{self, NsenterCommand, filepath.Join(dir, node), "--"}
	return append(res, argv...)
}

// Enter switches the calling thread into the network namespace at nsPath and
// replaces the process with argv. It only returns on error.
func Enter(nsPath string, argv []string) error {
	if len(argv) == 0 {
		return serrors.Join(serrors.ErrConfig, nil, "reason", "empty command")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	nsFd, err := os.Open(nsPath)
	if err != nil {
		return serrors.Wrap("opening namespace", err, "path", nsPath)
	}
	defer nsFd.Close()

	if err := unix.Setns(int(nsFd.Fd()), unix.CLONE_NEWNET); err != nil {
		return serrors.Wrap("entering namespace", err, "path", nsPath)
	}

	bin := argv[0]
	if filepath.Base(bin) == bin {
		if bin, err = exec.LookPath(argv[0]); err != nil {
			return serrors.Wrap("looking up command", err, "cmd", argv[0])
		}
	}
	if err := syscall.Exec(bin, argv, os.Environ()); err != nil {
		return serrors.Wrap("exec", err, "cmd", bin)
	}
	return nil
}
