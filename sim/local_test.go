// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim_test

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/db47h/aga/sim"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.ReadTimeout = sim.Duration{5 * time.Second}
	cfg.StartupTimeout = sim.Duration{5 * time.Second}
	return cfg
}

// repl mimics a treadle REPL. Loaded file contents are sent to loaded.
//
func repl(in *io.PipeReader, out *io.PipeWriter, loaded chan<- string) {
	defer in.Close()
	defer out.Close()
	fmt.Fprintln(out, "[info] compiling")
	fmt.Fprintln(out, "Running treadle.TreadleRepl")
	s := bufio.NewScanner(in)
	for s.Scan() {
		cmd := s.Text()
		f := strings.Fields(cmd)
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "quit":
			return
		case "garbage":
			fmt.Fprintln(out, "Exception in thread main")
			continue
		}
		fmt.Fprintln(out, "treadle>> "+cmd)
		switch f[0] {
		case "load":
			b, err := os.ReadFile(f[1])
			if err != nil {
				fmt.Fprintln(out, err)
				return
			}
			loaded <- string(b)
			fmt.Fprintln(out, "compiled "+f[1])
			fmt.Fprintln(out, "loaded")
		case "peek":
			fmt.Fprintf(out, "peek %s 42\n", f[1])
		case "step":
			fmt.Fprintf(out, "step %s took 1 ms\n", f[1])
		case "die":
			return
		}
	}
}

func startREPL(t *testing.T, cfg sim.Config) (*sim.Local, chan string) {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	loaded := make(chan string, 1)
	go repl(inR, outW, loaded)
	l, err := sim.NewLocal(inW, outR, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return l, loaded
}

func TestLocal_commands(t *testing.T) {
	l, loaded := startREPL(t, testConfig())
	s := sim.New(l, zaptest.NewLogger(t))

	require.NoError(t, s.Load("circuit M :"))
	assert.Equal(t, "circuit M :\n", <-loaded)
	require.NoError(t, s.Poke("in", 3))
	require.NoError(t, s.Step(2))
	v, err := s.Peek("out")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	require.NoError(t, s.Stop())
	_, err = l.Exchange("step 1", 1)
	assert.Equal(t, sim.ErrClosed, err)
	// second close is a no-op
	assert.NoError(t, l.Close())
}

func TestLocal_timeout(t *testing.T) {
	cfg := testConfig()
	cfg.ReadTimeout = sim.Duration{50 * time.Millisecond}
	l, _ := startREPL(t, cfg)
	defer l.Close()

	// "hang" is echoed with no further output
	_, err := l.Exchange("hang", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrTimeout), "got %v", err)
}

// slowREPL answers its first command after delay, every command with the
// command name followed by its sequence number.
//
func slowREPL(in *io.PipeReader, out *io.PipeWriter, delay time.Duration) {
	defer in.Close()
	defer out.Close()
	fmt.Fprintln(out, "Running treadle.TreadleRepl")
	s := bufio.NewScanner(in)
	for n := 1; s.Scan(); n++ {
		cmd := s.Text()
		if cmd == "quit" {
			return
		}
		if n == 1 {
			time.Sleep(delay)
		}
		fmt.Fprintln(out, "treadle>> "+cmd)
		fmt.Fprintf(out, "%s %d\n", cmd, n)
	}
}

func TestLocal_lateResponse(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	go slowREPL(inR, outW, 200*time.Millisecond)
	cfg := testConfig()
	cfg.ReadTimeout = sim.Duration{50 * time.Millisecond}
	l, err := sim.NewLocal(inW, outR, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer l.Close()
	s := sim.New(l, nil)

	_, err = s.Peek("a")
	require.True(t, errors.Is(err, sim.ErrTimeout), "got %v", err)
	// let the response to "peek a" arrive
	time.Sleep(300 * time.Millisecond)

	v, err := s.Peek("b")
	assert.True(t, errors.Is(err, sim.ErrClosed), "got %d, %v", v, err)
	assert.EqualError(t, err, "sim: out of sync after peek a: sim: backend closed")
	_, err = l.Exchange("step 1", 1)
	assert.True(t, errors.Is(err, sim.ErrClosed), "got %v", err)
}

func TestLocal_exited(t *testing.T) {
	l, _ := startREPL(t, testConfig())
	defer l.Close()

	lines, err := l.Exchange("die", 2)
	assert.Empty(t, lines)
	var pe *sim.ProtocolError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, 2, pe.Expected)
	assert.Equal(t, 0, pe.Got)
	assert.EqualError(t, err, "sim: die: expected 2 response lines, got 0")

	_, err = l.Exchange("step 1", 1)
	assert.True(t, errors.Is(err, sim.ErrClosed), "got %v", err)
}

func TestLocal_noPrompt(t *testing.T) {
	l, _ := startREPL(t, testConfig())
	defer l.Close()

	_, err := l.Exchange("garbage", 0)
	assert.EqualError(t, err, `sim: garbage: unexpected line "Exception in thread main", want prompt`)
}

func TestLocal_invalidCommand(t *testing.T) {
	l, _ := startREPL(t, testConfig())
	defer l.Close()

	_, err := l.Exchange("step 1\nquit", 1)
	assert.Error(t, err)
	// the REPL is still usable
	_, err = l.Exchange("step 1", 1)
	assert.NoError(t, err)
}

func TestNewLocal_noBanner(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	defer inR.Close()
	defer outW.Close()

	cfg := testConfig()
	cfg.StartupTimeout = sim.Duration{50 * time.Millisecond}
	_, err := sim.NewLocal(inW, outR, cfg, nil)
	assert.True(t, errors.Is(err, sim.ErrTimeout), "got %v", err)
}

func TestNewLocal_eof(t *testing.T) {
	inR, inW := io.Pipe()
	defer inR.Close()

	_, err := sim.NewLocal(inW, strings.NewReader("command not found\n"), testConfig(), nil)
	assert.True(t, errors.Is(err, io.EOF), "got %v", err)
}
