package runner

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"golang.org/x/sync/errgroup"

	"p4nett/internal/serrors"
)

// ExecAPI is the part of the docker client the runner uses.
type ExecAPI interface {
	ContainerExecCreate(ctx context.Context, containerID string,
		options container.ExecOptions) (container.ExecCreateResponse, error)
	ContainerExecAttach(ctx context.Context, execID string,
		config container.ExecAttachOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

// DockerRunner runs processes with docker exec. When Container is empty
// every node is expected to live in a container named after it.
type DockerRunner struct {
	API       ExecAPI
	Container string
	Env       []string
}

// NewDockerRunner connects to the docker daemon configured in the
// environment.
func NewDockerRunner(containerName string, env []string) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, serrors.Join(serrors.ErrSink, err, "reason", "creating docker client")
	}
	return &DockerRunner{API: cli, Container: containerName, Env: env}, nil
}

func (r *DockerRunner) Start(ctx context.Context, node string, argv []string) (Process, error) {
	if len(argv) == 0 {
		return nil, serrors.Join(serrors.ErrConfig, nil, "node", node, "reason", "empty command")
	}
	name := r.Container
	if name == "" {
		name = node
	}
	exec, err := r.API.ContainerExecCreate(ctx, name, container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Env:          r.Env,
		Cmd:          argv,
	})
	if err != nil {
		return nil, serrors.Join(serrors.ErrSink, err, "container", name, "node", node)
	}
	hj, err := r.API.ContainerExecAttach(ctx, exec.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, serrors.Join(serrors.ErrSink, err, "container", name, "exec", exec.ID)
	}

	pr, pw := io.Pipe()
	p := &dockerProcess{
		ctx:    ctx,
		api:    r.API,
		id:     exec.ID,
		cmd:    strings.Join(argv, " "),
		hj:     hj,
		stdout: pr,
	}
	p.g.Go(func() error {
		_, err := stdcopy.StdCopy(pw, &p.stderr, hj.Reader)
		pw.CloseWithError(err)
		return err
	})
	return p, nil
}

type dockerProcess struct {
	ctx    context.Context
	api    ExecAPI
	id     string
	cmd    string
	hj     types.HijackedResponse
	stdout *io.PipeReader
	stderr bytes.Buffer
	g      errgroup.Group
}

func (p *dockerProcess) Stdin() io.WriteCloser { return hijackedStdin{&p.hj} }
func (p *dockerProcess) Stdout() io.Reader     { return p.stdout }

func (p *dockerProcess) Wait() error {
	copyErr := p.g.Wait()
	p.hj.Close()
	if copyErr != nil {
		return serrors.Join(serrors.ErrSink, copyErr, "cmd", p.cmd)
	}
	inspect, err := p.api.ContainerExecInspect(p.ctx, p.id)
	if err != nil {
		return serrors.Join(serrors.ErrSink, err, "exec", p.id)
	}
	if inspect.ExitCode != 0 {
		return serrors.Join(serrors.ErrSink, nil, "cmd", p.cmd,
			"exit_code", inspect.ExitCode, "stderr", strings.TrimSpace(p.stderr.String()))
	}
	return nil
}

// hijackedStdin half-closes the hijacked connection so the remote process
// sees EOF while its output can still be read.
type hijackedStdin struct {
	hj *types.HijackedResponse
}

func (s hijackedStdin) Write(b []byte) (int, error) { return s.hj.Conn.Write(b) }
func (s hijackedStdin) Close() error                { return s.hj.CloseWrite() }
