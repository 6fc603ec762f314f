// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package aga

import "strconv"

// A namespace is a set of identifiers in use within a module.
//
type namespace map[string]struct{}

func newNamespace(reserved ...string) namespace {
	ns := make(namespace, len(reserved))
	for _, n := range reserved {
		ns[n] = struct{}{}
	}
	return ns
}

// reserve adds name to the namespace. It returns false if name is already
// taken.
//
func (ns namespace) reserve(name string) bool {
	if _, ok := ns[name]; ok {
		return false
	}
	ns[name] = struct{}{}
	return true
}

// fresh returns prefix if it is not taken, or prefix_N with N the smallest
// integer such that prefix_N is not taken. The returned name is reserved.
//
func (ns namespace) fresh(prefix string) string {
	name := prefix
	for i := 0; !ns.reserve(name); i++ {
		name = prefix + "_" + strconv.Itoa(i)
	}
	return name
}
