// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// MaxLineSize is the size of the longest line accepted from a simulator REPL
// or in a server request.
//
const MaxLineSize = 16 << 20

// newScanner returns a line scanner for r that accepts lines up to
// MaxLineSize bytes.
//
func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxLineSize)
	return s
}

// lineQueue is an unbounded FIFO of lines filled by a background reader, so
// that the process writing them never blocks on a full pipe. It supports a
// single consumer.
//
type lineQueue struct {
	mu     sync.Mutex
	lines  []string
	err    error
	notify chan struct{}
}

func newLineQueue() *lineQueue {
	return &lineQueue{notify: make(chan struct{}, 1)}
}

func (q *lineQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *lineQueue) put(line string) {
	q.mu.Lock()
	q.lines = append(q.lines, line)
	q.mu.Unlock()
	q.signal()
}

// close marks the end of input. Lines already queued can still be read, then
// get returns err, or io.EOF if err is nil.
//
func (q *lineQueue) close(err error) {
	if err == nil {
		err = io.EOF
	}
	q.mu.Lock()
	q.err = err
	q.mu.Unlock()
	q.signal()
}

// get returns the next line. It blocks for at most timeout, or forever if
// timeout is 0.
//
func (q *lineQueue) get(timeout time.Duration) (string, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	for {
		q.mu.Lock()
		if len(q.lines) > 0 {
			l := q.lines[0]
			q.lines = q.lines[1:]
			q.mu.Unlock()
			return l, nil
		}
		err := q.err
		q.mu.Unlock()
		if err != nil {
			return "", err
		}
		select {
		case <-q.notify:
		case <-deadline:
			return "", ErrTimeout
		}
	}
}

// pump reads r line by line into q until EOF or a read error.
//
func (q *lineQueue) pump(r io.Reader) {
	s := newScanner(r)
	for s.Scan() {
		q.put(s.Text())
	}
	q.close(s.Err())
}
