// SPDX-License-Identifier: MPL-2.0

// Package pakefile lexes and parses build description files.
//
// A build file is a sequence of newline-terminated statements:
//
//	set $flags -O2 -Wall
//	append $flags "-DNAME=${__name}"
//	configuration release compiler (clang++) compiler_flags (-O3)
//	target application demo sources (main.cpp) link_with (util) depends_on (gen)
//	target phony gen run_before ("./gen.sh") artefacts (gen.h) prerequisites (gen.sh)
//
// Each file becomes one Module named after its base name. Parsing writes the
// module's variables straight into a shared *variables.Store and returns the
// targets and configurations it declares.
package pakefile
