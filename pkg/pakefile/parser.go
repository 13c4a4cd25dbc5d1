// SPDX-License-Identifier: MPL-2.0

package pakefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Quasek/pake/pkg/variables"
)

type parser struct {
	file   string
	tokens []Token
	next   int
	store  *variables.Store
	mod    *Module
}

// ModuleName derives a module name from a build file path: its base name without extension.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseFile reads, lexes and parses the build file at path.
func ParseFile(path string, store *variables.Store) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read build file: %w", err)
	}
	tokens, err := Lex(abs, string(data))
	if err != nil {
		return nil, err
	}
	return Parse(abs, tokens, store)
}

// Parse builds the module described by tokens. Variables are written into
// store under the module's name; targets and configurations are returned.
// The first unexpected token aborts parsing.
func Parse(file string, tokens []Token, store *variables.Store) (*Module, error) {
	mod := &Module{
		Name: ModuleName(file),
		Path: file,
		Dir:  filepath.Dir(file),
	}
	store.Declare(mod.Name)

	p := &parser{file: file, tokens: tokens, store: store, mod: mod}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return mod, nil
}

func (p *parser) parse() error {
	for {
		tok, ok := p.advance()
		if !ok {
			return nil
		}
		if tok.Kind == Newline {
			continue
		}
		if tok.Kind != Literal {
			return p.fail(&tok, "expected a directive")
		}

		var err error
		switch tok.Text {
		case "set":
			err = p.parseAssignment(false)
		case "append":
			err = p.parseAssignment(true)
		case "target":
			err = p.parseTarget()
		case "configuration":
			err = p.parseConfiguration()
		default:
			err = p.fail(&tok, "unknown directive, expected set, append, target or configuration")
		}
		if err != nil {
			return err
		}
	}
}

// parseAssignment handles "set $name values..." and "append $name values...".
func (p *parser) parseAssignment(appending bool) error {
	tok, ok := p.advance()
	if !ok {
		return p.fail(nil, "expected a variable name")
	}
	if tok.Kind != Variable {
		return p.fail(&tok, "expected a variable name")
	}
	ref, err := variables.ParseRef(p.mod.Name, tok.Text)
	if err != nil {
		return p.fail(&tok, "malformed variable name")
	}
	if ref.Module != p.mod.Name {
		return p.fail(&tok, "cannot assign a variable of another module")
	}

	var parts []variables.Part
	for {
		tok, ok := p.advance()
		if !ok || tok.Kind == Newline {
			break
		}
		part, err := p.part(tok)
		if err != nil {
			return err
		}
		parts = append(parts, part)
	}

	if appending {
		p.store.Append(ref.Module, ref.Name, parts...)
	} else {
		p.store.Set(ref.Module, ref.Name, parts...)
	}
	return nil
}

func (p *parser) parseTarget() error {
	typ, err := p.expect(Literal, "expected a target type")
	if err != nil {
		return err
	}
	name, err := p.expect(Literal, "expected a target name")
	if err != nil {
		return err
	}

	t := &Target{Name: name.Text, Module: p.mod.Name, Dir: p.mod.Dir, Pos: typ.Pos}
	fields := map[string]*variables.Value{
		"depends_on": &t.DependsOn,
		"run_before": &t.RunBefore,
		"run_after":  &t.RunAfter,
		"resources":  &t.Resources,
		"visible_in": &t.VisibleIn,
	}

	switch typ.Text {
	case "phony":
		v := &Phony{}
		fields["artefacts"] = &v.Artefacts
		fields["prerequisites"] = &v.Prerequisites
		t.Variant = v
	case "application":
		v := &Application{}
		compilableFields(fields, &v.Compilable)
		fields["link_with"] = &v.LinkWith
		fields["library_dirs"] = &v.LibraryDirs
		t.Variant = v
	case "static_library":
		v := &StaticLibrary{}
		compilableFields(fields, &v.Compilable)
		t.Variant = v
	default:
		return p.fail(&typ, "unknown target type, expected application, static_library or phony")
	}

	if err := p.parseFields("target "+t.Name, fields, nil); err != nil {
		return err
	}
	p.mod.Targets = append(p.mod.Targets, t)
	return nil
}

func compilableFields(fields map[string]*variables.Value, c *Compilable) {
	fields["sources"] = &c.Sources
	fields["include_dirs"] = &c.IncludeDirs
	fields["compiler_flags"] = &c.CompilerFlags
}

func (p *parser) parseConfiguration() error {
	name, err := p.expect(Literal, "expected a configuration name")
	if err != nil {
		return err
	}

	c := NewConfiguration(name.Text, p.mod.Name)
	c.Pos = name.Pos
	fields := map[string]*variables.Value{
		"compiler":           &c.Compiler,
		"archiver":           &c.Archiver,
		"application_suffix": &c.ApplicationSuffix,
		"compiler_flags":     &c.CompilerFlags,
		"linker_flags":       &c.LinkerFlags,
	}
	if err := p.parseFields("configuration "+c.Name, fields, &c.Exports); err != nil {
		return err
	}
	p.mod.Configurations = append(p.mod.Configurations, c)
	return nil
}

// parseFields reads "field (list)" pairs up to the end of the statement.
// exports is nil for statements without an export field.
func (p *parser) parseFields(owner string, fields map[string]*variables.Value, exports *[]Export) error {
	seen := make(map[string]bool)
	for {
		tok, ok := p.advance()
		if !ok || tok.Kind == Newline {
			return nil
		}
		if tok.Kind != Literal {
			return p.fail(&tok, "expected a field name for "+owner)
		}
		if seen[tok.Text] {
			return p.fail(&tok, "field given twice for "+owner)
		}
		seen[tok.Text] = true

		if dst, ok := fields[tok.Text]; ok {
			value, err := p.parseList()
			if err != nil {
				return err
			}
			*dst = value
			continue
		}
		if exports != nil && tok.Text == "export" {
			pairs, err := p.parseExports()
			if err != nil {
				return err
			}
			*exports = pairs
			continue
		}
		return p.fail(&tok, "unknown field for "+owner)
	}
}

// parseList reads "(value value ...)". Newlines inside the parentheses are ignored.
func (p *parser) parseList() (variables.Value, error) {
	if _, err := p.expect(OpenParen, "expected '('"); err != nil {
		return nil, err
	}
	value := variables.Value{}
	for {
		tok, ok := p.advance()
		if !ok {
			return nil, p.fail(nil, "expected ')'")
		}
		switch {
		case tok.Kind == CloseParen:
			return value, nil
		case tok.Kind == Newline:
			continue
		case tok.isValue():
			part, err := p.part(tok)
			if err != nil {
				return nil, err
			}
			value = append(value, part)
		default:
			return nil, p.fail(&tok, "expected a value or ')'")
		}
	}
}

// parseExports reads "(value:$name ...)".
func (p *parser) parseExports() ([]Export, error) {
	if _, err := p.expect(OpenParen, "expected '('"); err != nil {
		return nil, err
	}
	var exports []Export
	for {
		tok, ok := p.advance()
		if !ok {
			return nil, p.fail(nil, "expected ')'")
		}
		if tok.Kind == CloseParen {
			return exports, nil
		}
		if tok.Kind == Newline {
			continue
		}
		if !tok.isValue() {
			return nil, p.fail(&tok, "expected an exported value")
		}
		value, err := p.part(tok)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Colon, "expected ':' after exported value"); err != nil {
			return nil, err
		}
		name, err := p.expect(Variable, "expected the exported variable name")
		if err != nil {
			return nil, err
		}
		local := strings.TrimPrefix(name.Text, variables.Sigil)
		if local == "" || strings.Contains(local, ".") {
			return nil, p.fail(&name, "exported name must be a plain variable name")
		}
		exports = append(exports, Export{Name: local, Value: value})
	}
}

func (p *parser) part(tok Token) (variables.Part, error) {
	switch tok.Kind {
	case Literal, MultilineLiteral:
		return variables.Literal(p.mod.Name, tok.Text), nil
	case Variable:
		ref, err := variables.ParseRef(p.mod.Name, tok.Text)
		if err != nil {
			return variables.Part{}, p.fail(&tok, "malformed variable reference")
		}
		return variables.Reference(ref), nil
	default:
		return variables.Part{}, p.fail(&tok, "expected a literal or variable")
	}
}

func (p *parser) advance() (Token, bool) {
	if p.next >= len(p.tokens) {
		return Token{}, false
	}
	tok := p.tokens[p.next]
	p.next++
	return tok, true
}

func (p *parser) expect(kind Kind, msg string) (Token, error) {
	tok, ok := p.advance()
	if !ok {
		return Token{}, p.fail(nil, msg)
	}
	if tok.Kind != kind {
		return Token{}, p.fail(&tok, msg)
	}
	return tok, nil
}

func (p *parser) fail(tok *Token, msg string) error {
	return &ParseError{File: p.file, Token: tok, Msg: msg}
}
