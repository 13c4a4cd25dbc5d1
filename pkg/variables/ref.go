// SPDX-License-Identifier: MPL-2.0

package variables

import (
	"fmt"
	"strings"
)

// Sigil prefixes variable names in build files.
const Sigil = "$"

// Ref identifies a variable by owning module and name. Names never carry the sigil.
type Ref struct {
	Module string
	Name   string
}

// String renders the reference in its fully qualified form, $module.name.
func (r Ref) String() string {
	return Sigil + r.Module + "." + r.Name
}

// ParseRef resolves a reference token relative to the current module.
//
// "$name" and "name" refer to a variable of current; "$module.name" refers to a
// variable of another module. The split happens at the first dot.
func ParseRef(current, token string) (Ref, error) {
	name := strings.TrimPrefix(token, Sigil)
	if name == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidReference, token)
	}

	module, local, dotted := strings.Cut(name, ".")
	if !dotted {
		return Ref{Module: current, Name: name}, nil
	}
	if module == "" || local == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidReference, token)
	}
	return Ref{Module: module, Name: local}, nil
}
