// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/aga/firrtl"
)

// maxExhaustive is the number of inputs up to which CompareExprs tries every
// input combination.
const maxExhaustive = 12

func randBool(r *rand.Rand) bool {
	return r.Int63()&(1<<62) != 0
}

// CompareExprs takes two expressions and compares their values given the same
// inputs. inputs are the names of the 1 bit references used by the
// expressions.
//
// With up to 12 inputs, all input combinations are tried. Otherwise,
// CompareExprs tries all 0, all 1 and 4096 random combinations.
//
func CompareExprs(t testing.TB, inputs []string, e1, e2 firrtl.Expr) {
	t.Helper()

	env := make(firrtl.Env, len(inputs))
	values := make([]bool, len(inputs))

	errString := func(ex, got firrtl.Value) string {
		var b strings.Builder
		for i, n := range inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			b.WriteString(n)
			b.WriteRune('=')
			if values[i] {
				b.WriteString("1")
			} else {
				b.WriteString("0")
			}
		}
		return fmt.Sprintf("\nExpected %s => %d\nGot %d", b.String(), ex.Bits, got.Bits)
	}

	check := func() {
		t.Helper()
		for i, n := range inputs {
			env[n] = firrtl.Bool(values[i])
		}
		v1, err := firrtl.Eval(e1, env)
		if err != nil {
			t.Fatal(err)
		}
		v2, err := firrtl.Eval(e2, env)
		if err != nil {
			t.Fatal(err)
		}
		if v1.Bits != v2.Bits {
			t.Fatal(errString(v1, v2))
		}
	}

	if len(inputs) <= maxExhaustive {
		for v := 0; v < 1<<uint(len(inputs)); v++ {
			for i := range values {
				values[i] = v&(1<<uint(i)) != 0
			}
			check()
		}
		return
	}

	// try all 0
	check()

	// try all 1
	for i := range values {
		values[i] = true
	}
	check()

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for n := 0; n < 1<<maxExhaustive; n++ {
		for i := range values {
			values[i] = randBool(r)
		}
		check()
	}
}
