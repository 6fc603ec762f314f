// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package sim drives an external circuit simulator, either a REPL subprocess
// (Local) or a simulator Server over the network (Remote).
//
// All commands are synchronous. Every command has a fixed number of response
// lines and any deviation is reported as a *ProtocolError.
//
package sim

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/db47h/aga/firrtl"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// A Backend sends a command to a simulator and returns its response lines.
// Implementations return fewer than expect lines only along with an error.
//
type Backend interface {
	Exchange(cmd string, expect int) ([]string, error)
	Close() error
}

// Simulator wraps a backend with the simulator commands.
//
type Simulator struct {
	b   Backend
	log *zap.Logger
}

// New returns a Simulator using backend b.
//
func New(b Backend, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{b: b, log: log}
}

// Start connects to the server at cfg.Remote if set, or starts a local REPL.
//
func Start(ctx context.Context, cfg Config, log *zap.Logger) (*Simulator, error) {
	var (
		b   Backend
		err error
	)
	if cfg.Remote != "" {
		b, err = Dial(ctx, cfg, log)
	} else {
		b, err = StartLocal(cfg, log)
	}
	if err != nil {
		return nil, err
	}
	return New(b, log), nil
}

func (s *Simulator) exchange(cmd string, expect int) ([]string, error) {
	lines, err := s.b.Exchange(cmd, expect)
	if err != nil {
		return nil, err
	}
	if len(lines) != expect {
		return nil, &ProtocolError{Cmd: cmd, Expected: expect, Got: len(lines)}
	}
	return lines, nil
}

// Load loads a circuit in its serialized form.
//
func (s *Simulator) Load(ir string) error {
	f, err := os.CreateTemp("", "aga-*.fir")
	if err != nil {
		return errors.Wrap(err, "load")
	}
	name := f.Name()
	defer os.Remove(name)
	_, err = f.WriteString(ir + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "load")
	}
	s.log.Debug("load", zap.String("file", name), zap.Int("size", len(ir)))
	// compile and load messages
	_, err = s.exchange("load "+name, 2)
	return err
}

// Peek returns the current value of signal.
//
func (s *Simulator) Peek(signal string) (int64, error) {
	cmd := "peek " + signal
	lines, err := s.exchange(cmd, 1)
	if err != nil {
		return 0, err
	}
	fs := strings.Fields(lines[0])
	if len(fs) == 0 {
		return 0, &ProtocolError{Cmd: cmd, Msg: "empty response"}
	}
	v, err := strconv.ParseInt(fs[len(fs)-1], 10, 64)
	if err != nil {
		return 0, &ProtocolError{Cmd: cmd, Msg: "no value in response " + strconv.Quote(lines[0])}
	}
	return v, nil
}

// Poke sets an input signal.
//
func (s *Simulator) Poke(signal string, value int64) error {
	_, err := s.exchange("poke "+signal+" "+strconv.FormatInt(value, 10), 0)
	return err
}

// Step advances the simulation by n clock cycles.
//
func (s *Simulator) Step(n int) error {
	_, err := s.exchange("step "+strconv.Itoa(n), 1)
	return err
}

// Stop shuts down the backend.
//
func (s *Simulator) Stop() error {
	return s.b.Close()
}

// Run loads c into s, resets it for one cycle, then runs it for the given
// number of cycles.
//
func Run(s *Simulator, c firrtl.Circuit, cycles int) error {
	ir, err := firrtl.Serialize(c)
	if err != nil {
		return err
	}
	if err = s.Load(ir); err != nil {
		return err
	}
	if err = s.Poke(firrtl.ResetName, 1); err != nil {
		return err
	}
	if err = s.Step(1); err != nil {
		return err
	}
	if err = s.Poke(firrtl.ResetName, 0); err != nil {
		return err
	}
	return s.Step(cycles)
}
