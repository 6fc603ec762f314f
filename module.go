// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package aga

import (
	"github.com/db47h/aga/firrtl"
)

// A StateElement is a Register or a Wire. State elements are used directly as
// expression leaves in guards, update values and display arguments.
//
type StateElement interface {
	firrtl.Expr
	// Hint returns the name hint given at creation time. It may be empty.
	Hint() string
	// Type returns the declared type.
	Type() firrtl.Type
	stateElement()
}

// Register is a clocked state element.
//
type Register struct {
	firrtl.Extension
	hint  string
	typ   firrtl.Type
	reset *int64
}

// NewReg returns a new register of the given type that is set to reset while
// the module reset input is high.
//
func NewReg(hint string, typ firrtl.Type, reset int64) *Register {
	return &Register{hint: hint, typ: typ, reset: &reset}
}

// NewRegU returns a new register without reset value.
//
func NewRegU(hint string, typ firrtl.Type) *Register {
	return &Register{hint: hint, typ: typ}
}

// Hint implements StateElement.
func (r *Register) Hint() string { return r.hint }

// Type implements StateElement.
func (r *Register) Type() firrtl.Type { return r.typ }

// Reset returns the reset value of r. ok is false if r has no reset value.
//
func (r *Register) Reset() (v int64, ok bool) {
	if r.reset == nil {
		return 0, false
	}
	return *r.reset, true
}

func (*Register) stateElement() {}

// Wire is a combinational state element. Its value is only defined during the
// cycles where it is updated.
//
type Wire struct {
	firrtl.Extension
	hint string
	typ  firrtl.Type
}

// NewWire returns a new wire.
//
func NewWire(hint string, typ firrtl.Type) *Wire {
	return &Wire{hint: hint, typ: typ}
}

// Hint implements StateElement.
func (w *Wire) Hint() string { return w.hint }

// Type implements StateElement.
func (w *Wire) Type() firrtl.Type { return w.typ }

func (*Wire) stateElement() {}

// A ModuleBuilder collects the state, rules and methods of a module.
//
// Rule, Action and Value return builders for individual constructs. Each of
// these must be finalized with its Build method before the module itself is
// built. Once Build has been called on the ModuleBuilder, any further call
// fails with a Frozen ConstructionError.
//
type ModuleBuilder struct {
	name   string
	state  []StateElement
	seen   map[StateElement]bool
	names  map[string]bool
	ids    map[string]bool
	cs     []*RuleBuilder
	frozen bool
}

// NewModule returns a ModuleBuilder for a module with the given name.
//
func NewModule(name string) *ModuleBuilder {
	return &ModuleBuilder{
		name:  name,
		seen:  make(map[StateElement]bool),
		names: make(map[string]bool),
		ids:   make(map[string]bool),
	}
}

func (b *ModuleBuilder) error(field string, r firrtl.Reason) error {
	return &firrtl.ConstructionError{Node: b.name, Field: field, Reason: r}
}

// Declare adds state elements to the module. Declared state is named before
// state that is only discovered in rule bodies, in declaration order.
//
func (b *ModuleBuilder) Declare(s ...StateElement) error {
	if b.frozen {
		return b.error("", firrtl.Frozen)
	}
	for _, e := range s {
		if e == nil {
			return b.error("state", firrtl.MissingField)
		}
		if b.seen[e] {
			return b.error(e.Hint(), firrtl.DuplicateName)
		}
	}
	for _, e := range s {
		b.seen[e] = true
		b.state = append(b.state, e)
	}
	return nil
}

func (b *ModuleBuilder) newConstruct(name string) (*RuleBuilder, error) {
	if b.frozen {
		return nil, b.error(name, firrtl.Frozen)
	}
	if name == "" {
		return nil, b.error("name", firrtl.MissingField)
	}
	if b.names[name] {
		return nil, b.error(name, firrtl.DuplicateName)
	}
	r := &RuleBuilder{
		name:    name,
		guard:   firrtl.True,
		updated: make(map[StateElement]bool),
	}
	return r, nil
}

// reserve claims the circuit identifiers generated for a construct: its
// can_fire and firing signals and its ports. Nothing is claimed if any of them
// is already taken.
//
func (b *ModuleBuilder) reserve(name string, suffixes ...string) error {
	ids := make(map[string]bool, len(suffixes))
	for _, s := range append([]string{"can_fire", "firing"}, suffixes...) {
		id := name + "_" + s
		if b.ids[id] || ids[id] {
			return b.error(id, firrtl.DuplicateName)
		}
		ids[id] = true
	}
	for id := range ids {
		b.ids[id] = true
	}
	return nil
}

func (b *ModuleBuilder) add(r *RuleBuilder) {
	b.names[r.name] = true
	b.cs = append(b.cs, r)
}

// Rule starts a new rule. It fails if the name is already used by another rule
// or method of the module, or if one of its <name>_can_fire or <name>_firing
// signals collides with a signal or port of another construct.
//
func (b *ModuleBuilder) Rule(name string) (*RuleBuilder, error) {
	r, err := b.newConstruct(name)
	if err != nil {
		return nil, err
	}
	if err = b.reserve(name); err != nil {
		return nil, err
	}
	b.add(r)
	return r, nil
}

// Action starts a new action method with the given arguments. Arguments are
// available through ActionBuilder.Arg.
//
// Each argument becomes an input port <name>_<arg>, next to the <name>_enable
// and <name>_ready ports. Names colliding with these or with the signals of
// another construct are rejected.
//
func (b *ModuleBuilder) Action(name string, args ...firrtl.Field) (*ActionBuilder, error) {
	r, err := b.newConstruct(name)
	if err != nil {
		return nil, err
	}
	a := &ActionBuilder{RuleBuilder: r}
	for _, f := range args {
		if f.Name == "" {
			return nil, b.error(name, firrtl.MissingField)
		}
		if f.Type == nil {
			return nil, b.error(name+"."+f.Name, firrtl.MissingField)
		}
		if r.lookup(f.Name) != nil {
			return nil, b.error(name+"."+f.Name, firrtl.DuplicateName)
		}
		r.args = append(r.args, &Arg{owner: r, method: name, name: f.Name, typ: f.Type})
	}
	ports := []string{"enable", "ready"}
	for _, a := range r.args {
		ports = append(ports, a.name)
	}
	if err = b.reserve(name, ports...); err != nil {
		return nil, err
	}
	r.kind = kindAction
	b.add(r)
	return a, nil
}

// Value starts a new value method returning a value of type typ.
//
func (b *ModuleBuilder) Value(typ firrtl.Type, name string) (*ValueBuilder, error) {
	if typ == nil {
		return nil, b.error(name, firrtl.MissingField)
	}
	r, err := b.newConstruct(name)
	if err != nil {
		return nil, err
	}
	if err = b.reserve(name, "ready", "value"); err != nil {
		return nil, err
	}
	r.kind = kindValue
	b.add(r)
	return &ValueBuilder{r: r, typ: typ}, nil
}

// Build freezes the module. It fails if any rule or method was not built
// successfully.
//
func (b *ModuleBuilder) Build() (*Module, error) {
	if b.frozen {
		return nil, b.error("", firrtl.Frozen)
	}
	m := &Module{name: b.name, state: append([]StateElement(nil), b.state...)}
	for _, r := range b.cs {
		if r.err != nil {
			return nil, r.err
		}
		switch {
		case r.method != nil:
			m.methods = append(m.methods, r.method)
		case r.rule != nil:
			m.rules = append(m.rules, r.rule)
		default:
			return nil, b.error(r.name, firrtl.Unfinished)
		}
	}
	b.frozen = true
	return m, nil
}

// Module is a frozen guarded atomic action module.
//
type Module struct {
	name    string
	state   []StateElement
	rules   []*Rule
	methods []Method
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// State returns the declared state elements.
func (m *Module) State() []StateElement { return append([]StateElement(nil), m.state...) }

// Rules returns the module rules in declaration order.
func (m *Module) Rules() []*Rule { return append([]*Rule(nil), m.rules...) }

// Methods returns the module methods in declaration order.
func (m *Module) Methods() []Method { return append([]Method(nil), m.methods...) }
