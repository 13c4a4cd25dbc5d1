// SPDX-License-Identifier: MPL-2.0

package variables

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// evaluator carries the chain of references being resolved by one top-level call.
type evaluator struct {
	store *Store
	chain []Ref
}

func (s *Store) newEvaluator() *evaluator {
	return &evaluator{store: s}
}

func (e *evaluator) ref(r Ref) ([]string, error) {
	if i := slices.Index(e.chain, r); i >= 0 {
		cycle := append(slices.Clone(e.chain[i:]), r)
		return nil, &CycleError{Chain: cycle}
	}

	v, err := e.store.Lookup(r)
	if err != nil {
		return nil, err
	}

	e.chain = append(e.chain, r)
	defer func() { e.chain = e.chain[:len(e.chain)-1] }()

	return e.parts(v.Parts)
}

// parts evaluates a list of parts. A literal contributes exactly one string,
// a reference contributes each string of its own evaluation.
func (e *evaluator) parts(parts []Part) ([]string, error) {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case LiteralPart:
			s, err := e.interpolate(p.Module, p.Text)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		case ReferencePart:
			values, err := e.ref(p.Ref)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
	}
	return out, nil
}

func (e *evaluator) interpolate(module, text string) (string, error) {
	if !strings.Contains(text, Sigil) {
		return text, nil
	}

	var b strings.Builder
	for i := 0; i < len(text); {
		if text[i] != '$' {
			b.WriteByte(text[i])
			i++
			continue
		}
		if i+1 >= len(text) || text[i+1] != '{' {
			return "", &InterpolationError{Module: module, Text: text, Offset: i, Reason: "expected '{' after '$'"}
		}
		end := strings.IndexByte(text[i+2:], '}')
		if end < 0 {
			return "", &InterpolationError{Module: module, Text: text, Offset: i, Reason: "missing closing '}'"}
		}

		name := text[i+2 : i+2+end]
		r, err := ParseRef(module, name)
		if err != nil {
			return "", &InterpolationError{Module: module, Text: text, Offset: i, Reason: "malformed name " + strconv.Quote(name)}
		}
		values, err := e.ref(r)
		if err != nil {
			return "", err
		}
		b.WriteString(strings.Join(values, " "))
		i += end + 3
	}
	return b.String(), nil
}

// IsResolution reports whether err is an unknown module or variable failure.
func IsResolution(err error) bool {
	return errors.Is(err, ErrUnknownModule) || errors.Is(err, ErrUnknownVariable)
}
