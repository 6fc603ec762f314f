// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server shares a single simulator backend between remote clients.
//
// Requests from concurrent clients are handled one at a time, in arrival
// order. There is no isolation between clients: a client sees the simulator
// state left by the others.
//
type Server struct {
	backend Backend
	log     *zap.Logger
	mu      sync.Mutex
}

// NewServer returns a server for backend b. The server does not close b.
//
func NewServer(b Backend, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{backend: b, log: log}
}

// Serve accepts connections on ln until ctx is done or ln fails. ln is closed
// when Serve returns. It returns nil if it was stopped by ctx.
//
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		_ = ln.Close()
		return nil
	})
	g.Go(func() error {
		s.log.Info("serving", zap.String("addr", ln.Addr().String()))
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.log.Error("accept failed", zap.Error(err))
				return errors.Wrap(err, "accept")
			}
			g.Go(func() error {
				s.handle(ctx, conn)
				return nil
			})
		}
	})
	return g.Wait()
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	log := s.log.With(zap.String("session", uuid.New().String()),
		zap.String("client", conn.RemoteAddr().String()))
	log.Info("session started")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	sc := newScanner(conn)
	w := bufio.NewWriter(conn)
	for sc.Scan() {
		cmd, n, err := parseRequest(sc.Text())
		if err != nil {
			log.Error("bad request", zap.Error(err))
			return
		}
		lines, err := s.exchange(cmd, n)
		if err != nil {
			log.Error("simulator failure", zap.String("cmd", cmd), zap.Error(err))
			return
		}
		for _, l := range lines {
			_, _ = w.WriteString(l)
			_ = w.WriteByte('\n')
		}
		if err = w.Flush(); err != nil {
			log.Error("write failed", zap.Error(err))
			return
		}
	}
	if err := sc.Err(); err != nil {
		log.Error("read failed", zap.Error(err))
		return
	}
	log.Info("session closed")
}

func (s *Server) exchange(cmd string, n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, err := s.backend.Exchange(cmd, n)
	if err != nil {
		return nil, err
	}
	if len(lines) != n {
		return nil, &ProtocolError{Cmd: cmd, Expected: n, Got: len(lines)}
	}
	return lines, nil
}

// parseRequest splits a "<command>|<count>" request line.
//
func parseRequest(line string) (cmd string, n int, err error) {
	i := strings.LastIndexByte(line, '|')
	if i < 0 {
		return "", 0, errors.Errorf("malformed request %q", line)
	}
	n, err = strconv.Atoi(line[i+1:])
	if err != nil || n < 0 {
		return "", 0, errors.Errorf("malformed response count in request %q", line)
	}
	return line[:i], n, nil
}
