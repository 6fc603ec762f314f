// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by backends.
//
var (
	ErrTimeout = errors.New("sim: read timeout")
	ErrClosed  = errors.New("sim: backend closed")
)

// ProtocolError reports a simulator response that does not match the command
// that was sent.
//
type ProtocolError struct {
	Cmd      string
	Msg      string // set for an unexpected line
	Expected int    // expected line count
	Got      int    // received line count
}

func (e *ProtocolError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("sim: %s: %s", e.Cmd, e.Msg)
	}
	return fmt.Sprintf("sim: %s: expected %d response lines, got %d", e.Cmd, e.Expected, e.Got)
}
