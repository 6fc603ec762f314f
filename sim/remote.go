// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Remote is a client of a simulator Server. Every command is sent as a single
// "<command>|<count>" line, and the server answers with exactly count lines.
//
// A command that fails after it has been sent closes the connection. All later
// calls to Exchange then fail with an error wrapping ErrClosed.
//
type Remote struct {
	mu     sync.Mutex
	conn   net.Conn
	r      *bufio.Reader
	cfg    Config
	log    *zap.Logger
	broken error
	once   sync.Once
	cerr   error
}

// Dial connects to the server at cfg.Remote.
//
func Dial(ctx context.Context, cfg Config, log *zap.Logger) (*Remote, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Remote)
	if err != nil {
		return nil, errors.Wrapf(err, "dial simulator server %s", cfg.Remote)
	}
	log.Debug("connected", zap.String("remote", cfg.Remote))
	return &Remote{
		conn: conn,
		r:    bufio.NewReader(conn),
		cfg:  cfg,
		log:  log,
	}, nil
}

// Exchange sends cmd and reads expect response lines.
//
func (r *Remote) Exchange(cmd string, expect int) ([]string, error) {
	if strings.ContainsAny(cmd, "\r\n") {
		return nil, errors.Errorf("sim: invalid command %q", cmd)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.broken != nil {
		return nil, r.broken
	}

	r.log.Debug("<-", zap.String("cmd", cmd))
	lines, err := r.exchange(cmd, expect)
	if err != nil {
		r.broken = errors.Wrapf(ErrClosed, "sim: out of sync after %s", cmd)
		r.log.Debug("out of sync", zap.String("cmd", cmd), zap.Error(err))
		_ = r.close()
		return lines, err
	}
	r.log.Debug("->", zap.String("cmd", cmd), zap.Strings("lines", lines))
	return lines, nil
}

func (r *Remote) exchange(cmd string, expect int) ([]string, error) {
	var deadline time.Time
	if r.cfg.ReadTimeout.Duration > 0 {
		deadline = time.Now().Add(r.cfg.ReadTimeout.Duration)
	}
	if err := r.conn.SetDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "set deadline")
	}

	if _, err := io.WriteString(r.conn, cmd+"|"+strconv.Itoa(expect)+"\n"); err != nil {
		return nil, errors.Wrapf(err, "sim: %s", cmd)
	}
	lines := make([]string, 0, expect)
	for len(lines) < expect {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return lines, errors.Wrapf(ErrTimeout, "sim: %s", cmd)
			}
			if err == io.EOF {
				return lines, &ProtocolError{Cmd: cmd, Expected: expect, Got: len(lines)}
			}
			return lines, errors.Wrapf(err, "sim: %s", cmd)
		}
		lines = append(lines, strings.TrimSuffix(line, "\n"))
	}
	return lines, nil
}

func (r *Remote) close() error {
	r.once.Do(func() { r.cerr = r.conn.Close() })
	return r.cerr
}

// Close closes the connection. The server keeps its simulator running.
//
func (r *Remote) Close() error {
	return errors.Wrap(r.close(), "close connection")
}
