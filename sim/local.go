// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Local drives a simulator REPL through its standard streams.
//
// Every command written to the REPL is answered by a line starting with the
// prompt, followed by the command output. A background goroutine continuously
// drains the REPL output.
//
// Once a command has failed after being sent, the REPL output no longer
// matches the commands and all later calls to Exchange fail with an error
// wrapping ErrClosed.
//
type Local struct {
	mu     sync.Mutex
	cfg    Config
	log    *zap.Logger
	stdin  io.WriteCloser
	out    *lineQueue
	cmd    *exec.Cmd
	closed bool
	broken error
}

// StartLocal runs the REPL command from cfg and waits until it is ready.
//
func StartLocal(cfg Config, log *zap.Logger) (*Local, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdout pipe")
	}
	if err = cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", cfg.Command)
	}
	l, err := NewLocal(stdin, stdout, cfg, log)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	l.cmd = cmd
	return l, nil
}

// NewLocal returns a Local talking to a REPL that reads commands from stdin and
// writes its output to stdout. It waits for the REPL banner.
//
func NewLocal(stdin io.WriteCloser, stdout io.Reader, cfg Config, log *zap.Logger) (*Local, error) {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Local{
		cfg:   cfg,
		log:   log,
		stdin: stdin,
		out:   newLineQueue(),
	}
	go l.out.pump(stdout)

	for {
		line, err := l.out.get(cfg.StartupTimeout.Duration)
		if err != nil {
			return nil, errors.Wrap(err, "waiting for simulator banner")
		}
		l.log.Debug("startup", zap.String("line", line))
		if strings.Contains(line, cfg.Banner) {
			return l, nil
		}
	}
}

// Exchange sends cmd and reads expect response lines.
//
func (l *Local) Exchange(cmd string, expect int) ([]string, error) {
	if strings.ContainsAny(cmd, "\r\n") {
		return nil, errors.Errorf("sim: invalid command %q", cmd)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.broken != nil {
		return nil, l.broken
	}

	l.log.Debug("<-", zap.String("cmd", cmd))
	lines, err := l.exchange(cmd, expect)
	if err != nil {
		l.broken = errors.Wrapf(ErrClosed, "sim: out of sync after %s", cmd)
		l.log.Debug("out of sync", zap.String("cmd", cmd), zap.Error(err))
		return lines, err
	}
	l.log.Debug("->", zap.String("cmd", cmd), zap.Strings("lines", lines))
	return lines, nil
}

func (l *Local) exchange(cmd string, expect int) ([]string, error) {
	if _, err := io.WriteString(l.stdin, cmd+"\n"); err != nil {
		return nil, errors.Wrapf(err, "sim: %s", cmd)
	}
	echo, err := l.read(cmd, expect, 0)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(echo, l.cfg.Prompt) {
		return nil, &ProtocolError{Cmd: cmd, Msg: fmt.Sprintf("unexpected line %q, want prompt", echo)}
	}

	lines := make([]string, 0, expect)
	for len(lines) < expect {
		line, err := l.read(cmd, expect, len(lines))
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (l *Local) read(cmd string, expect, got int) (string, error) {
	line, err := l.out.get(l.cfg.ReadTimeout.Duration)
	if err == io.EOF {
		return "", &ProtocolError{Cmd: cmd, Expected: expect, Got: got}
	}
	if err != nil {
		return "", errors.Wrapf(err, "sim: %s", cmd)
	}
	return line, nil
}

// Close asks the REPL to quit and closes its input. If the REPL was started by
// StartLocal and does not exit within the configured QuitTimeout, it is
// killed.
//
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	l.log.Debug("<-", zap.String("cmd", "quit"))
	_, _ = io.WriteString(l.stdin, "quit\n")
	err := l.stdin.Close()
	if l.cmd == nil {
		return errors.Wrap(err, "close simulator input")
	}

	done := make(chan error, 1)
	go func() { done <- l.cmd.Wait() }()
	t := time.NewTimer(l.cfg.QuitTimeout.Duration)
	defer t.Stop()
	select {
	case err = <-done:
	case <-t.C:
		l.log.Debug("killing simulator", zap.Int("pid", l.cmd.Process.Pid))
		_ = l.cmd.Process.Kill()
		err = <-done
		if _, ok := err.(*exec.ExitError); ok {
			err = nil
		}
	}
	return errors.Wrap(err, "simulator exit")
}
