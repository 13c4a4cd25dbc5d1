// SPDX-License-Identifier: MPL-2.0

package variables

import (
	"log/slog"
	"strings"
)

type (
	// Variable is a named, ordered list of parts owned by one module.
	Variable struct {
		Module string
		Name   string
		Parts  []Part
	}

	namespace struct {
		vars  map[string]*Variable
		order []string
	}

	// Store holds every module's variables for one build invocation.
	// It is not safe for concurrent mutation.
	Store struct {
		modules map[string]*namespace
		order   []string
	}
)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{modules: make(map[string]*namespace)}
}

// Declare makes module known to the store, so that references to it resolve
// even before it has any variables.
func (s *Store) Declare(module string) {
	s.namespace(module)
}

// Set replaces the content of module's variable name with parts.
// Passing no parts leaves the variable declared and empty.
func (s *Store) Set(module, name string, parts ...Part) {
	v := s.variable(module, name)
	v.Parts = append(v.Parts[:0:0], parts...)
}

// Append adds parts to the end of module's variable name, creating it empty first if needed.
func (s *Store) Append(module, name string, parts ...Part) {
	v := s.variable(module, name)
	v.Parts = append(v.Parts, parts...)
}

// Reset removes every variable of module. The module stays declared.
func (s *Store) Reset(module string) {
	ns := s.namespace(module)
	clear(ns.vars)
	ns.order = nil
}

// HasModule reports whether module was declared.
func (s *Store) HasModule(module string) bool {
	_, ok := s.modules[module]
	return ok
}

// Lookup returns the variable ref points at.
func (s *Store) Lookup(ref Ref) (*Variable, error) {
	ns, ok := s.modules[ref.Module]
	if !ok {
		return nil, &ResolutionError{Ref: ref, Err: ErrUnknownModule}
	}
	v, ok := ns.vars[ref.Name]
	if !ok {
		return nil, &ResolutionError{Ref: ref, Err: ErrUnknownVariable}
	}
	return v, nil
}

// Modules returns module names in declaration order.
func (s *Store) Modules() []string {
	return append([]string(nil), s.order...)
}

// Names returns the variable names of module in declaration order.
func (s *Store) Names(module string) []string {
	ns, ok := s.modules[module]
	if !ok {
		return nil
	}
	return append([]string(nil), ns.order...)
}

// Evaluate resolves ref to its list of strings.
func (s *Store) Evaluate(ref Ref) ([]string, error) {
	return s.newEvaluator().ref(ref)
}

// EvaluateValue resolves every part of value in order.
func (s *Store) EvaluateValue(value Value) ([]string, error) {
	return s.newEvaluator().parts(value)
}

// Interpolate expands the ${...} markers of text as if it were a literal declared in module.
func (s *Store) Interpolate(module, text string) (string, error) {
	return s.newEvaluator().interpolate(module, text)
}

// Environ projects every variable into environment entries of the form
// <module>_<name>=<space-joined value>. Variables of current are additionally
// exported under their bare name, after the scoped entries.
func (s *Store) Environ(current string) ([]string, error) {
	var env []string
	var local []string
	for _, module := range s.order {
		ns := s.modules[module]
		for _, name := range ns.order {
			values, err := s.Evaluate(Ref{Module: module, Name: name})
			if err != nil {
				return nil, err
			}
			joined := strings.Join(values, " ")
			env = append(env, module+"_"+name+"="+joined)
			if module == current {
				local = append(local, name+"="+joined)
			}
		}
	}
	return append(env, local...), nil
}

func (s *Store) namespace(module string) *namespace {
	ns, ok := s.modules[module]
	if !ok {
		ns = &namespace{vars: make(map[string]*Variable)}
		s.modules[module] = ns
		s.order = append(s.order, module)
	}
	return ns
}

func (s *Store) variable(module, name string) *Variable {
	ns := s.namespace(module)
	v, ok := ns.vars[name]
	if !ok {
		v = &Variable{Module: module, Name: name}
		ns.vars[name] = v
		ns.order = append(ns.order, name)
		slog.Debug("declared variable", "module", module, "name", name)
	}
	return v
}
