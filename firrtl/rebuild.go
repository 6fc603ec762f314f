// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package firrtl

import (
	"reflect"
	"sort"
)

// Rebuild returns a copy of n where the fields named in overrides are replaced
// by the given values. All other fields are shared with n.
//
// Naming a field that n does not declare is an UnknownField error and a value
// that is not assignable to the field a TypeMismatch. A nil value clears an
// optional or list field. The result is checked for missing and mistyped
// fields, numeric ranges are left to Check and Serialize.
//
func Rebuild(n Node, overrides map[string]interface{}) (Node, error) {
	if _, err := Children(n); err != nil {
		return nil, &UnhandledConstruct{Op: "rebuild", Node: n}
	}
	v := reflect.ValueOf(n)
	t := v.Type()
	cp := reflect.New(t).Elem()
	cp.Set(v)

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, ok := t.FieldByName(name)
		if !ok || f.PkgPath != "" || f.Anonymous {
			return nil, &ConstructionError{Node: Kind(n), Field: name, Reason: UnknownField}
		}
		fv := cp.FieldByIndex(f.Index)
		x := overrides[name]
		if x == nil {
			switch fv.Kind() {
			case reflect.Interface, reflect.Ptr, reflect.Slice:
				fv.Set(reflect.Zero(fv.Type()))
				continue
			}
			return nil, mismatch(n, name)
		}
		xv := reflect.ValueOf(x)
		if !xv.Type().AssignableTo(fv.Type()) {
			return nil, mismatch(n, name)
		}
		fv.Set(xv)
	}

	r := cp.Interface().(Node)
	if err := checkNode(r); err != nil {
		if _, ok := err.(*IRValidityError); !ok {
			return nil, err
		}
	}
	return r, nil
}
