// SPDX-License-Identifier: MPL-2.0

package pakefile

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Quasek/pake/pkg/variables"
)

func parseString(t *testing.T, src string) (*Module, *variables.Store) {
	t.Helper()
	store := variables.NewStore()
	tokens, err := Lex("/work/app.pake", src)
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	mod, err := Parse("/work/app.pake", tokens, store)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return mod, store
}

func evaluate(t *testing.T, store *variables.Store, v variables.Value) []string {
	t.Helper()
	got, err := store.EvaluateValue(v)
	if err != nil {
		t.Fatalf("EvaluateValue() error = %v", err)
	}
	return got
}

func TestParse_ModuleIdentity(t *testing.T) {
	t.Parallel()

	mod, store := parseString(t, "")
	if mod.Name != "app" {
		t.Errorf("Name = %q, want %q", mod.Name, "app")
	}
	if mod.Dir != "/work" {
		t.Errorf("Dir = %q, want %q", mod.Dir, "/work")
	}
	if !store.HasModule("app") {
		t.Error("module should be declared in the store even without variables")
	}
}

func TestParse_SetAndAppend(t *testing.T) {
	t.Parallel()

	_, store := parseString(t, `
set $a 1
append $a 2
set $b old
set $b x y
append $c "${a}"
set $d $a z
`)

	tests := []struct {
		name string
		want []string
	}{
		{"a", []string{"1", "2"}},
		{"b", []string{"x", "y"}},
		{"c", []string{"1 2"}},
		{"d", []string{"1", "2", "z"}},
	}
	for _, tt := range tests {
		got, err := store.Evaluate(variables.Ref{Module: "app", Name: tt.name})
		if err != nil {
			t.Fatalf("Evaluate(%s) error = %v", tt.name, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Evaluate(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParse_StatementAtEndOfFileWithoutNewline(t *testing.T) {
	t.Parallel()

	mod, store := parseString(t, "set $a 1\ntarget phony last depends_on (x)")

	if len(mod.Targets) != 1 || mod.Targets[0].Name != "last" {
		t.Fatalf("Targets = %v, want one target named last", mod.Targets)
	}
	if got := evaluate(t, store, mod.Targets[0].DependsOn); !slices.Equal(got, []string{"x"}) {
		t.Errorf("DependsOn = %q, want [x]", got)
	}
}

func TestParse_Targets(t *testing.T) {
	t.Parallel()

	mod, store := parseString(t, `
set $srcs a.cpp b.cpp
target application demo sources ($srcs main.cpp) include_dirs (include) compiler_flags (-O2) link_with (util) library_dirs (/opt/lib) depends_on (util gen) run_before ("echo before") run_after ("echo after") resources (assets) visible_in (debug release)
target static_library util sources (
    util.cpp
    more.cpp
)
target phony gen artefacts (gen.h) prerequisites (gen.py) run_before ("python gen.py")
`)
	if len(mod.Targets) != 3 {
		t.Fatalf("len(Targets) = %d, want 3", len(mod.Targets))
	}

	demo := mod.Targets[0]
	app, ok := demo.Variant.(*Application)
	if !ok {
		t.Fatalf("demo.Variant = %T, want *Application", demo.Variant)
	}
	checks := []struct {
		field string
		value variables.Value
		want  []string
	}{
		{"sources", app.Sources, []string{"a.cpp", "b.cpp", "main.cpp"}},
		{"include_dirs", app.IncludeDirs, []string{"include"}},
		{"compiler_flags", app.CompilerFlags, []string{"-O2"}},
		{"link_with", app.LinkWith, []string{"util"}},
		{"library_dirs", app.LibraryDirs, []string{"/opt/lib"}},
		{"depends_on", demo.DependsOn, []string{"util", "gen"}},
		{"run_before", demo.RunBefore, []string{"echo before"}},
		{"run_after", demo.RunAfter, []string{"echo after"}},
		{"resources", demo.Resources, []string{"assets"}},
		{"visible_in", demo.VisibleIn, []string{"debug", "release"}},
	}
	for _, c := range checks {
		if got := evaluate(t, store, c.value); !slices.Equal(got, c.want) {
			t.Errorf("demo %s = %q, want %q", c.field, got, c.want)
		}
	}
	if demo.Module != "app" || demo.Dir != "/work" {
		t.Errorf("demo owner = %q in %q, want app in /work", demo.Module, demo.Dir)
	}

	lib, ok := mod.Targets[1].Variant.(*StaticLibrary)
	if !ok {
		t.Fatalf("util.Variant = %T, want *StaticLibrary", mod.Targets[1].Variant)
	}
	if got := evaluate(t, store, lib.Sources); !slices.Equal(got, []string{"util.cpp", "more.cpp"}) {
		t.Errorf("util sources = %q", got)
	}

	phony, ok := mod.Targets[2].Variant.(*Phony)
	if !ok {
		t.Fatalf("gen.Variant = %T, want *Phony", mod.Targets[2].Variant)
	}
	if got := evaluate(t, store, phony.Artefacts); !slices.Equal(got, []string{"gen.h"}) {
		t.Errorf("gen artefacts = %q", got)
	}
	if got := evaluate(t, store, phony.Prerequisites); !slices.Equal(got, []string{"gen.py"}) {
		t.Errorf("gen prerequisites = %q", got)
	}
}

func TestParse_Configuration(t *testing.T) {
	t.Parallel()

	mod, store := parseString(t, `
set $mode optimized
configuration release compiler (clang++) compiler_flags (-O3 -DNDEBUG) linker_flags (-s) application_suffix (.bin) export (
    fast:$speed
    $mode:$label
)
configuration plain
`)
	if len(mod.Configurations) != 2 {
		t.Fatalf("len(Configurations) = %d, want 2", len(mod.Configurations))
	}

	release := mod.Configurations[0]
	if release.Name != "release" {
		t.Errorf("Name = %q, want release", release.Name)
	}
	checks := []struct {
		field string
		value variables.Value
		want  []string
	}{
		{"compiler", release.Compiler, []string{"clang++"}},
		{"archiver", release.Archiver, []string{"ar"}},
		{"compiler_flags", release.CompilerFlags, []string{"-O3", "-DNDEBUG"}},
		{"linker_flags", release.LinkerFlags, []string{"-s"}},
		{"application_suffix", release.ApplicationSuffix, []string{".bin"}},
	}
	for _, c := range checks {
		if got := evaluate(t, store, c.value); !slices.Equal(got, c.want) {
			t.Errorf("release %s = %q, want %q", c.field, got, c.want)
		}
	}

	if len(release.Exports) != 2 {
		t.Fatalf("len(Exports) = %d, want 2", len(release.Exports))
	}
	if release.Exports[0].Name != "speed" || release.Exports[1].Name != "label" {
		t.Errorf("export names = %q, %q; want speed, label", release.Exports[0].Name, release.Exports[1].Name)
	}
	if got := evaluate(t, store, variables.Value{release.Exports[1].Value}); !slices.Equal(got, []string{"optimized"}) {
		t.Errorf("label export = %q, want [optimized]", got)
	}

	plain := mod.Configurations[1]
	if got := evaluate(t, store, plain.Compiler); !slices.Equal(got, []string{"c++"}) {
		t.Errorf("plain compiler = %q, want default [c++]", got)
	}
	if got := evaluate(t, store, plain.CompilerFlags); !slices.Equal(got, []string{"-I."}) {
		t.Errorf("plain compiler_flags = %q, want default [-I.]", got)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantTok string
	}{
		{"unknown directive", "build $x\n", "build"},
		{"directive must be a literal", "$x 1\n", "$x"},
		{"set needs a variable", "set x 1\n", "x"},
		{"set of a foreign variable", "set $lib.x 1\n", "$lib.x"},
		{"unknown target type", "target library x\n", "library"},
		{"target name must be literal", "target phony $x\n", "$x"},
		{"unknown target field", "target phony x sources (a)\n", "sources"},
		{"field given twice", "target phony x depends_on (a) depends_on (b)\n", "depends_on"},
		{"list without parenthesis", "target phony x depends_on a\n", "a"},
		{"paren in set values", "set $x (a)\n", "("},
		{"nested list", "target phony x depends_on (a (b))\n", "("},
		{"unknown configuration field", "configuration c sources (a)\n", "sources"},
		{"export without colon", "configuration c export (a $b)\n", "$b"},
		{"export name must be a variable", "configuration c export (a:b)\n", "b"},
		{"export name must be local", "configuration c export (a:$m.b)\n", "$m.b"},
		{"export only on configurations", "target phony x export (a:$b)\n", "export"},
		{"malformed reference", "set $x $\n", "$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tokens, err := Lex("t.pake", tt.src)
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			_, err = Parse("t.pake", tokens, variables.NewStore())
			if !errors.Is(err, ErrParse) {
				t.Fatalf("Parse() error = %v, want ErrParse", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error should be *ParseError, got %T", err)
			}
			if pe.Token == nil {
				t.Fatalf("ParseError.Token = nil, want %q", tt.wantTok)
			}
			if pe.Token.Text != tt.wantTok {
				t.Errorf("ParseError.Token = %v, want text %q", pe.Token, tt.wantTok)
			}
		})
	}
}

func TestParse_UnexpectedEndOfFile(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"set",
		"target",
		"target phony",
		"target phony x depends_on",
		"target phony x depends_on (a",
		"configuration c export (a:",
	} {
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			tokens, err := Lex("t.pake", src)
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			_, err = Parse("t.pake", tokens, variables.NewStore())
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
			if pe.Token != nil {
				t.Errorf("ParseError.Token = %v, want nil at end of file", pe.Token)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "engine.pake")
	if err := os.WriteFile(path, []byte("set $name engine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := variables.NewStore()
	mod, err := ParseFile(path, store)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if mod.Name != "engine" || mod.Dir != dir {
		t.Errorf("module = %q in %q, want engine in %q", mod.Name, mod.Dir, dir)
	}
	if _, err := store.Evaluate(variables.Ref{Module: "engine", Name: "name"}); err != nil {
		t.Errorf("Evaluate() error = %v", err)
	}
}

func TestParseFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.pake"), variables.NewStore())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile() error = %v, want os.ErrNotExist", err)
	}
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a/b/core.pake":  "core",
		"core.pake":      "core",
		"dir/lib.x.pake": "lib.x",
		"noext":          "noext",
	}
	for in, want := range tests {
		if got := ModuleName(in); got != want {
			t.Errorf("ModuleName(%q) = %q, want %q", in, got, want)
		}
	}
}
