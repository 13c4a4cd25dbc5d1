// SPDX-License-Identifier: MPL-2.0

package variables

// PartKind discriminates the two kinds of variable parts.
type PartKind int

const (
	// LiteralPart is text that is interpolated and contributes exactly one string.
	LiteralPart PartKind = iota
	// ReferencePart points at another variable and contributes every string it evaluates to.
	ReferencePart
)

type (
	// Part is one element of a variable or field value.
	//
	// A literal part remembers the module it was written in, so ${name} markers
	// resolve against that module no matter where the value ends up.
	Part struct {
		Kind   PartKind
		Text   string
		Module string
		Ref    Ref
	}

	// Value is an ordered list of parts, as written in a build file.
	Value []Part
)

// Literal returns a literal part declared in module.
func Literal(module, text string) Part {
	return Part{Kind: LiteralPart, Text: text, Module: module}
}

// Reference returns a part referring to ref.
func Reference(ref Ref) Part {
	return Part{Kind: ReferencePart, Ref: ref}
}

// Literals builds a value of literal parts, handy for synthetic variables and defaults.
func Literals(module string, texts ...string) Value {
	v := make(Value, len(texts))
	for i, t := range texts {
		v[i] = Literal(module, t)
	}
	return v
}

func (p Part) String() string {
	if p.Kind == ReferencePart {
		return p.Ref.String()
	}
	return p.Text
}

// IsEmpty reports whether the value has no parts at all.
func (v Value) IsEmpty() bool {
	return len(v) == 0
}
