package sink

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"p4nett/internal/log"
	"p4nett/internal/runner"
	"p4nett/internal/serrors"
)

const (
	// Prompt terminates every response of the runtime CLI.
	Prompt = "RuntimeCmd: "

	DefaultCLI        = "simple_switch_CLI"
	DefaultThriftPort = 9090
)

// CLIOpener starts one runtime CLI per switch. Switch n (1-based) listens on
// thrift port BasePort+n-1.
type CLIOpener struct {
	Runner   runner.ProcessRunner
	CLI      string
	BasePort int
	Logger   *zap.Logger
}

// ThriftPort returns the thrift port of the switch with the given ordinal.
func (o CLIOpener) ThriftPort(ordinal int) int {
	base := o.BasePort
	if base == 0 {
		base = DefaultThriftPort
	}
	return base + ordinal - 1
}

func (o CLIOpener) Open(ctx context.Context, sw string, ordinal int) (Session, error) {
	cli := o.CLI
	if cli == "" {
		cli = DefaultCLI
	}
	port := o.ThriftPort(ordinal)
	argv := []string{cli, "--thrift-port", strconv.Itoa(port)}
	proc, err := o.Runner.Start(ctx, sw, argv)
	if err != nil {
		return nil, serrors.Join(serrors.ErrSink, err, "switch", sw, "thrift_port", port)
	}
	s := &CLISession{
		sw:     sw,
		proc:   proc,
		r:      bufio.NewReader(proc.Stdout()),
		logger: log.OrNop(o.Logger).With(zap.String("switch", sw)),
	}
	banner, err := s.readResponse()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.logger.Debug("CLI session opened", zap.Int("thrift_port", port),
		zap.String("banner", banner))
	return s, nil
}

// CLISession talks to one long-lived runtime CLI process. Commands are
// written one per line and each response runs up to the next prompt.
type CLISession struct {
	sw     string
	proc   runner.Process
	r      *bufio.Reader
	logger *zap.Logger
	closed bool
}

func (s *CLISession) Exec(ctx context.Context, cmd string) (string, error) {
	if strings.ContainsAny(cmd, "\r\n") {
		return "", serrors.Join(serrors.ErrConfig, nil, "switch", s.sw, "cmd", cmd,
			"reason", "command spans several lines")
	}
	if err := ctx.Err(); err != nil {
		return "", serrors.Join(serrors.ErrSink, err, "switch", s.sw)
	}
	if _, err := io.WriteString(s.proc.Stdin(), cmd+"\n"); err != nil {
		return "", serrors.Join(serrors.ErrSink, err, "switch", s.sw, "cmd", cmd)
	}
	resp, err := s.readResponse()
	if err != nil {
		return resp, err
	}
	s.logger.Debug("Command executed", zap.String("cmd", cmd), zap.String("response", resp))
	return resp, nil
}

// readResponse reads up to and including the next prompt and returns what
// came before it.
func (s *CLISession) readResponse() (string, error) {
	var buf bytes.Buffer
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return strings.TrimSpace(buf.String()), serrors.Join(serrors.ErrSink, err,
				"switch", s.sw, "reason", "CLI output ended before prompt")
		}
		buf.WriteByte(b)
		if b == ' ' && bytes.HasSuffix(buf.Bytes(), []byte(Prompt)) {
			buf.Truncate(buf.Len() - len(Prompt))
			return strings.TrimSpace(buf.String()), nil
		}
	}
}

// Close ends the CLI by closing its input and waits for it to exit.
func (s *CLISession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.proc.Stdin().Close(); err != nil {
		return serrors.Join(serrors.ErrSink, err, "switch", s.sw)
	}
	// Drain whatever the CLI prints on its way out.
	_, _ = io.Copy(io.Discard, s.r)
	return s.proc.Wait()
}
