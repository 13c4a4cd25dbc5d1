// SPDX-License-Identifier: MPL-2.0

package pakefile

import "github.com/Quasek/pake/pkg/variables"

const (
	// DefaultConfigurationName names the configuration that exists even when no file declares one.
	DefaultConfigurationName = "__default"
	// ConfigurationModule is the pseudo-module holding the active configuration's name and exports.
	ConfigurationModule = "__configuration"
)

type (
	// Module is the parse result of one build file.
	Module struct {
		Name           string
		Path           string
		Dir            string
		Targets        []*Target
		Configurations []*Configuration
	}

	// Target is a named unit of work. The fields shared by every target type live
	// here; the type-specific ones live in Variant.
	Target struct {
		Name   string
		Module string
		Dir    string
		Pos    Pos

		DependsOn variables.Value
		RunBefore variables.Value
		RunAfter  variables.Value
		Resources variables.Value
		VisibleIn variables.Value

		Variant Variant
	}

	// Variant is one of *Phony, *Application or *StaticLibrary.
	Variant interface {
		TypeName() string
		variant()
	}

	// Phony targets only run hooks. Artefacts and Prerequisites gate those hooks.
	Phony struct {
		Artefacts     variables.Value
		Prerequisites variables.Value
	}

	// Compilable holds the fields shared by targets that compile sources.
	Compilable struct {
		Sources       variables.Value
		IncludeDirs   variables.Value
		CompilerFlags variables.Value
	}

	// Application is linked into an executable.
	Application struct {
		Compilable
		LinkWith    variables.Value
		LibraryDirs variables.Value
	}

	// StaticLibrary is archived into lib<name>.a.
	StaticLibrary struct {
		Compilable
	}

	// Configuration is a named toolchain profile.
	Configuration struct {
		Name   string
		Module string
		Pos    Pos

		Compiler          variables.Value
		Archiver          variables.Value
		ApplicationSuffix variables.Value
		CompilerFlags     variables.Value
		LinkerFlags       variables.Value
		Exports           []Export
	}

	// Export publishes Value as $__configuration.<Name> while the configuration is active.
	Export struct {
		Name  string
		Value variables.Part
	}
)

func (*Phony) TypeName() string         { return "phony" }
func (*Application) TypeName() string   { return "application" }
func (*StaticLibrary) TypeName() string { return "static_library" }

func (*Phony) variant()         {}
func (*Application) variant()   {}
func (*StaticLibrary) variant() {}

// NewConfiguration returns a configuration preloaded with the default toolchain:
// compiler c++, archiver ar and compiler flags -I.
func NewConfiguration(name, module string) *Configuration {
	return &Configuration{
		Name:          name,
		Module:        module,
		Compiler:      variables.Literals(module, "c++"),
		Archiver:      variables.Literals(module, "ar"),
		CompilerFlags: variables.Literals(module, "-I."),
	}
}

// DefaultConfiguration returns the reserved configuration used when none is selected.
func DefaultConfiguration() *Configuration {
	return NewConfiguration(DefaultConfigurationName, ConfigurationModule)
}
