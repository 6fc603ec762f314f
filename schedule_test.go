// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package aga

import (
	"strconv"
	"testing"
	"testing/quick"

	"github.com/db47h/aga/firrtl"
	"github.com/db47h/aga/hwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canFireRefs(n int) ([]string, []firrtl.Expr) {
	names := make([]string, n)
	refs := make([]firrtl.Expr, n)
	for i := range names {
		names[i] = "cf" + strconv.Itoa(i)
		refs[i] = firrtl.Ref{Name: names[i]}
	}
	return names, refs
}

func evalFiring(t *testing.T, firing []firrtl.Expr, canFire []bool) []bool {
	t.Helper()
	env := make(firrtl.Env, len(canFire))
	for i, b := range canFire {
		env["cf"+strconv.Itoa(i)] = firrtl.Bool(b)
	}
	out := make([]bool, len(firing))
	for i, f := range firing {
		v, err := firrtl.Eval(f, env)
		require.NoError(t, err)
		out[i] = v.IsSet()
	}
	return out
}

func TestSchedule_muxChain(t *testing.T) {
	for n := 1; n <= 6; n++ {
		names, refs := canFireRefs(n)
		f1, f2 := Schedule(refs), scheduleMuxChain(refs)
		require.Len(t, f1, n)
		require.Len(t, f2, n)
		for i := range f1 {
			hwtest.CompareExprs(t, names, f1[i], f2[i])
		}
	}
}

func TestSchedule_example(t *testing.T) {
	_, refs := canFireRefs(3)
	assert.Equal(t, []bool{false, true, false}, evalFiring(t, Schedule(refs), []bool{false, true, true}))
	assert.Equal(t, []bool{true, false, false}, evalFiring(t, Schedule(refs), []bool{true, true, true}))
	assert.Equal(t, []bool{false, false, false}, evalFiring(t, Schedule(refs), []bool{false, false, false}))
	assert.Empty(t, Schedule(nil))
}

func TestSchedule_priority(t *testing.T) {
	f := func(bits uint16, size uint8) bool {
		n := int(size%16) + 1
		canFire := make([]bool, n)
		for i := range canFire {
			canFire[i] = bits&(1<<uint(i)) != 0
		}
		_, refs := canFireRefs(n)
		firing := evalFiring(t, Schedule(refs), canFire)
		first := -1
		for i, b := range canFire {
			if b {
				first = i
				break
			}
		}
		for i, b := range firing {
			if b != (i == first) {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}
