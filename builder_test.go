// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package aga_test

import (
	"testing"

	"github.com/db47h/aga"
	"github.com/db47h/aga/firrtl"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var u8 = firrtl.UInt{Width: 8}

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func requireReason(t *testing.T, err error, r firrtl.Reason) *firrtl.ConstructionError {
	t.Helper()
	var ce *firrtl.ConstructionError
	require.True(t, errors.As(err, &ce), "expected a ConstructionError, got %v", err)
	require.Equal(t, r, ce.Reason, ce.Error())
	return ce
}

func TestRule_doubleUpdate(t *testing.T) {
	x := aga.NewRegU("x", u8)
	b := aga.NewModule("M")
	r, err := b.Rule("r")
	require.NoError(t, err)
	require.NoError(t, r.Update(x, firrtl.U(1, 8)))
	err = r.Update(x, firrtl.U(2, 8))
	ce := requireReason(t, err, firrtl.DoubleUpdate)
	assert.EqualError(t, ce, "r: state element updated more than once `x`")

	_, err = r.Build()
	requireReason(t, err, firrtl.DoubleUpdate)
	_, err = b.Build()
	requireReason(t, err, firrtl.DoubleUpdate)
}

func TestModule_duplicateName(t *testing.T) {
	b := aga.NewModule("M")
	_, err := b.Rule("a")
	require.NoError(t, err)
	_, err = b.Rule("a")
	requireReason(t, err, firrtl.DuplicateName)
	_, err = b.Action("a")
	requireReason(t, err, firrtl.DuplicateName)
	_, err = b.Value(u8, "a")
	requireReason(t, err, firrtl.DuplicateName)
	_, err = b.Action("m", firrtl.Field{Name: "x", Type: u8}, firrtl.Field{Name: "x", Type: u8})
	requireReason(t, err, firrtl.DuplicateName)
	// a failed Action does not take the name
	_, err = b.Action("m", firrtl.Field{Name: "x", Type: u8})
	require.NoError(t, err)

	x := aga.NewWire("x", u8)
	require.NoError(t, b.Declare(x))
	requireReason(t, b.Declare(x), firrtl.DuplicateName)
}

func TestValue_ret(t *testing.T) {
	x := aga.NewRegU("x", u8)
	b := aga.NewModule("M")
	v, err := b.Value(u8, "get")
	require.NoError(t, err)
	require.NoError(t, v.Ret(x))
	requireReason(t, v.Ret(x), firrtl.DoubleReturn)
	_, err = v.Build()
	requireReason(t, err, firrtl.DoubleReturn)

	v, err = b.Value(u8, "none")
	require.NoError(t, err)
	_, err = v.Build()
	requireReason(t, err, firrtl.MissingReturn)
}

func TestBuilder_frozen(t *testing.T) {
	x := aga.NewRegU("x", u8)
	b := aga.NewModule("M")
	r, err := b.Rule("r")
	require.NoError(t, err)
	require.NoError(t, r.Guard(firrtl.Eq(x, firrtl.U(0, 8))))
	rule, err := r.Build()
	require.NoError(t, err)
	assert.Equal(t, "r", rule.Name())
	assert.Equal(t, firrtl.Eq(x, firrtl.U(0, 8)), rule.Guard())

	requireReason(t, r.Guard(firrtl.True), firrtl.Frozen)
	requireReason(t, r.Update(x, x), firrtl.Frozen)
	requireReason(t, r.Display("x"), firrtl.Frozen)
	requireReason(t, r.Finish(), firrtl.Frozen)
	_, err = r.Build()
	requireReason(t, err, firrtl.Frozen)

	m, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, m.Rules(), 1)
	_, err = b.Rule("s")
	requireReason(t, err, firrtl.Frozen)
	requireReason(t, b.Declare(aga.NewWire("", u8)), firrtl.Frozen)
	_, err = b.Build()
	requireReason(t, err, firrtl.Frozen)
}

func TestBuilder_unfinished(t *testing.T) {
	b := aga.NewModule("M")
	_, err := b.Rule("r")
	require.NoError(t, err)
	_, err = b.Build()
	ce := requireReason(t, err, firrtl.Unfinished)
	assert.Equal(t, "r", ce.Field)
}

func TestBuilder_missing(t *testing.T) {
	b := aga.NewModule("M")
	r, err := b.Rule("r")
	require.NoError(t, err)
	requireReason(t, r.Guard(nil), firrtl.MissingField)
	requireReason(t, r.Update(nil, firrtl.True), firrtl.MissingField)
	_, err = b.Rule("")
	requireReason(t, err, firrtl.MissingField)
}

func TestAction_argScope(t *testing.T) {
	x := aga.NewRegU("x", u8)
	b := aga.NewModule("M")
	a, err := b.Action("start", firrtl.Field{Name: "v", Type: u8})
	require.NoError(t, err)
	v := a.Arg("v")
	assert.Equal(t, "start_v", v.PortName())
	assert.Equal(t, []*aga.Arg{v}, a.Args())
	require.NoError(t, a.Update(x, v))
	m, err := a.Build()
	require.NoError(t, err)
	assert.Equal(t, []*aga.Arg{v}, m.Args())

	r, err := b.Rule("r")
	require.NoError(t, err)
	ce := requireReason(t, r.Update(x, firrtl.Add(v, x)), firrtl.OutOfScope)
	assert.Equal(t, "start_v", ce.Field)

}

func TestAction_unknownArg(t *testing.T) {
	x := aga.NewRegU("x", u8)
	b := aga.NewModule("M")
	a, err := b.Action("start", firrtl.Field{Name: "v", Type: u8})
	require.NoError(t, err)
	assert.Nil(t, a.Arg("nope"))
	requireReason(t, a.Update(x, a.Arg("nope")), firrtl.MissingField)

	_, err = a.Build()
	ce := requireReason(t, err, firrtl.UnknownField)
	assert.EqualError(t, ce, "start: no such field `nope`")
	_, err = b.Build()
	requireReason(t, err, firrtl.UnknownField)
}

func TestModule_reservedNames(t *testing.T) {
	b := aga.NewModule("M")
	for _, arg := range []string{"firing", "can_fire", "enable", "ready"} {
		_, err := b.Action("a", firrtl.Field{Name: arg, Type: u8})
		ce := requireReason(t, err, firrtl.DuplicateName)
		assert.Equal(t, "a_"+arg, ce.Field)
	}

	// a failed declaration claims no name
	a, err := b.Action("a", firrtl.Field{Name: "b_firing", Type: u8})
	require.NoError(t, err)
	_, err = a.Build()
	require.NoError(t, err)

	// rule a_b would drive a_b_firing, already an input port of a
	_, err = b.Rule("a_b")
	ce := requireReason(t, err, firrtl.DuplicateName)
	assert.Equal(t, "a_b_firing", ce.Field)
	// and the other way around
	_, err = b.Rule("p_q")
	require.NoError(t, err)
	_, err = b.Action("p", firrtl.Field{Name: "q_can_fire", Type: u8})
	ce = requireReason(t, err, firrtl.DuplicateName)
	assert.Equal(t, "p_q_can_fire", ce.Field)
	_, err = b.Value(u8, "a")
	requireReason(t, err, firrtl.DuplicateName)
}

func TestRule_guardConjunction(t *testing.T) {
	x, y := aga.NewRegU("x", u8), aga.NewRegU("y", u8)
	b := aga.NewModule("M")
	r, err := b.Rule("r")
	require.NoError(t, err)
	require.NoError(t, r.Guard(firrtl.Gt(x, y)))
	require.NoError(t, r.Guard(firrtl.Neq(y, firrtl.U(0, 8))))
	require.NoError(t, r.Display("x=%d", x))
	require.NoError(t, r.Stop(3))
	rule, err := r.Build()
	require.NoError(t, err)
	assert.Equal(t, firrtl.And(firrtl.Gt(x, y), firrtl.Neq(y, firrtl.U(0, 8))), rule.Guard())
	assert.Equal(t, []aga.Statement{
		aga.Display{Format: "x=%d", Args: []firrtl.Expr{x}},
		aga.Finish{ExitCode: 3},
	}, rule.Body())
	assert.Empty(t, rule.Updates())
}

type bogus struct {
	firrtl.Extension
}

func TestRule_unhandledConstruct(t *testing.T) {
	b := aga.NewModule("M")
	r, err := b.Rule("r")
	require.NoError(t, err)
	err = r.Guard(firrtl.Not(&bogus{}))
	var uc *firrtl.UnhandledConstruct
	require.True(t, errors.As(err, &uc), "got %v", err)
}
