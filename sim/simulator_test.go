// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim_test

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/db47h/aga/firrtl"
	"github.com/db47h/aga/sim"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Backend that records commands and answers every command
// with expect+extra lines.
//
type recorder struct {
	mu     sync.Mutex
	cmds   []string
	files  []string
	loaded string
	extra  int
	reply  string
	closed bool
}

func (r *recorder) Exchange(cmd string, expect int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	if name := strings.TrimPrefix(cmd, "load "); name != cmd {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		r.files = append(r.files, name)
		r.loaded = string(b)
	}
	n := expect + r.extra
	if n < 0 {
		n = 0
	}
	lines := make([]string, n)
	for i := range lines {
		lines[i] = r.reply
	}
	return lines, nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recorder) state() (cmds []string, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cmds...), r.closed
}

func TestRun(t *testing.T) {
	c := firrtl.Circuit{Name: "M", Modules: []firrtl.Module{
		firrtl.NewModule("M", nil, []firrtl.Statement{
			firrtl.Stop{Clock: firrtl.Ref{Name: firrtl.ClockName}, Condition: firrtl.True, ExitCode: 0},
		}),
	}}
	ir, err := firrtl.Serialize(c)
	require.NoError(t, err)

	r := &recorder{}
	s := sim.New(r, nil)
	require.NoError(t, sim.Run(s, c, 10))

	require.Len(t, r.cmds, 5)
	require.Len(t, r.files, 1)
	assert.Equal(t, "load "+r.files[0], r.cmds[0])
	assert.Equal(t, []string{"poke reset 1", "step 1", "poke reset 0", "step 10"}, r.cmds[1:])
	assert.Equal(t, ir+"\n", r.loaded)
	_, err = os.Stat(r.files[0])
	assert.True(t, os.IsNotExist(err), "temporary file not removed")

	require.NoError(t, s.Stop())
	assert.True(t, r.closed)
}

func TestSimulator_lineCount(t *testing.T) {
	for _, extra := range []int{-1, 1} {
		r := &recorder{extra: extra}
		s := sim.New(r, nil)
		err := s.Step(1)
		var pe *sim.ProtocolError
		require.True(t, errors.As(err, &pe), "got %v", err)
		assert.Equal(t, 1, pe.Expected)
		assert.Equal(t, 1+extra, pe.Got)
	}
}

func TestSimulator_peek(t *testing.T) {
	s := sim.New(&recorder{reply: "peek x -7"}, nil)
	v, err := s.Peek("x")
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)

	s = sim.New(&recorder{reply: "error: no such signal"}, nil)
	_, err = s.Peek("x")
	assert.EqualError(t, err, `sim: peek x: no value in response "error: no such signal"`)

	s = sim.New(&recorder{}, nil)
	_, err = s.Peek("x")
	assert.EqualError(t, err, "sim: peek x: empty response")
}
