// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package firrtl

import (
	"fmt"
)

// Reason qualifies a ConstructionError.
//
type Reason int

// Construction error reasons.
//
const (
	MissingField Reason = iota
	TypeMismatch
	DuplicateName
	DoubleUpdate
	DoubleReturn
	MissingReturn
	OutOfScope
	Frozen
	Unfinished
	UnknownField
)

var reasonText = [...]string{
	MissingField:  "missing value for field",
	TypeMismatch:  "wrong type for field",
	DuplicateName: "duplicate name",
	DoubleUpdate:  "state element updated more than once",
	DoubleReturn:  "return value already set",
	MissingReturn: "no return value",
	OutOfScope:    "value used outside of its scope",
	Frozen:        "construction already finished",
	Unfinished:    "construction not finished",
	UnknownField:  "no such field",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonText) {
		return fmt.Sprintf("Reason(%d)", int(r))
	}
	return reasonText[r]
}

// ConstructionError reports an ill-formed node or a builder contract
// violation.
//
type ConstructionError struct {
	Node   string // node kind or construct name
	Field  string // offending field or name, may be empty
	Reason Reason
}

func (e *ConstructionError) Error() string {
	if e.Field == "" {
		return e.Node + ": " + e.Reason.String()
	}
	return e.Node + ": " + e.Reason.String() + " `" + e.Field + "`"
}

// UnhandledConstruct is returned when a pass meets a node kind it does not
// know about. It always denotes a programming error.
//
type UnhandledConstruct struct {
	Op   string // name of the pass
	Node Node
}

func (e *UnhandledConstruct) Error() string {
	return e.Op + ": unhandled construct " + Kind(e.Node)
}

// IRValidityError reports a node that cannot be rendered as valid IR text,
// typically an out of range numeric argument.
//
type IRValidityError struct {
	Node string
	Msg  string
}

func (e *IRValidityError) Error() string {
	return e.Node + ": " + e.Msg
}

func missing(n Node, field string) error {
	return &ConstructionError{Node: Kind(n), Field: field, Reason: MissingField}
}

func mismatch(n Node, field string) error {
	return &ConstructionError{Node: Kind(n), Field: field, Reason: TypeMismatch}
}

func invalid(n Node, format string, args ...interface{}) error {
	return &IRValidityError{Node: Kind(n), Msg: fmt.Sprintf(format, args...)}
}
