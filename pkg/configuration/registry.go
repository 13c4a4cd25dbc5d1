// SPDX-License-Identifier: MPL-2.0

// Package configuration keeps the named toolchain profiles declared by build
// files and tracks which one is active for a build invocation.
package configuration

import (
	"errors"
	"fmt"

	"github.com/Quasek/pake/pkg/pakefile"
)

var (
	// ErrConfigurationNotFound is the sentinel wrapped by NotFoundError.
	ErrConfigurationNotFound = errors.New("configuration not found")
	// ErrDuplicateConfiguration is the sentinel wrapped by DuplicateError.
	ErrDuplicateConfiguration = errors.New("configuration declared twice")
	// ErrLocked is returned when the selection changes after Lock.
	ErrLocked = errors.New("active configuration is locked for this build")
)

type (
	// NotFoundError reports a configuration name no build file declares.
	NotFoundError struct {
		Name string
	}

	// DuplicateError reports two declarations of the same configuration name.
	DuplicateError struct {
		Name    string
		First   string
		Another string
	}

	// Registry holds every known configuration. The reserved default
	// configuration is always present and starts out active.
	Registry struct {
		byName     map[string]*pakefile.Configuration
		order      []string
		active     string
		overridden bool
		locked     bool
	}
)

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %q", ErrConfigurationNotFound, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrConfigurationNotFound
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%v: %q in module %s and module %s", ErrDuplicateConfiguration, e.Name, e.First, e.Another)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateConfiguration
}

// New returns a registry holding only the default configuration.
func New() *Registry {
	def := pakefile.DefaultConfiguration()
	return &Registry{
		byName: map[string]*pakefile.Configuration{def.Name: def},
		order:  []string{def.Name},
		active: def.Name,
	}
}

// Add registers c. A build file may redeclare the default configuration once
// to change its toolchain; any other repeated name is an error.
func (r *Registry) Add(c *pakefile.Configuration) error {
	existing, ok := r.byName[c.Name]
	if ok {
		if c.Name != pakefile.DefaultConfigurationName || r.overridden {
			return &DuplicateError{Name: c.Name, First: existing.Module, Another: c.Module}
		}
		r.overridden = true
		r.byName[c.Name] = c
		return nil
	}
	r.byName[c.Name] = c
	r.order = append(r.order, c.Name)
	return nil
}

// Get returns the configuration called name.
func (r *Registry) Get(name string) (*pakefile.Configuration, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return c, nil
}

// Select makes name the active configuration.
func (r *Registry) Select(name string) error {
	if r.locked && name != r.active {
		return ErrLocked
	}
	if _, ok := r.byName[name]; !ok {
		return &NotFoundError{Name: name}
	}
	r.active = name
	return nil
}

// Lock freezes the active configuration for the rest of the invocation.
func (r *Registry) Lock() {
	r.locked = true
}

// Active returns the active configuration.
func (r *Registry) Active() *pakefile.Configuration {
	return r.byName[r.active]
}

// Names lists configurations with the default first, then in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
