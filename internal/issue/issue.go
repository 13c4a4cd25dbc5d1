// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	FileNotFoundId Id = iota + 1
	PakefileNotFoundId
	PakefileSyntaxErrorId
	VariableResolutionFailedId
	VariableCycleId
	TargetNotFoundId
	TargetNotVisibleId
	DuplicateTargetId
	DependencyCycleId
	ConfigurationNotFoundId
	DuplicateConfigurationId
	CompilationFailedId
	HookFailedId
	ConfigLoadFailedId
	ShellNotFoundId
	InvalidShellModeId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render returns the entry as terminal Markdown in the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- [" + string(link) + "](" + string(link) + ")"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- [" + string(link) + "](" + string(link) + ")"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# File not found!

A file or directory named on the command line or in a build file does not exist.

## Things you can try:
- Check the path passed to ` + "`-C`" + ` or ` + "`--config`" + `
- Check relative paths in ` + "`sources`" + `, ` + "`resources`" + ` and ` + "`prerequisites`" + `;
  they resolve against the directory of the build file that declares them`,
	}

	pakefileNotFoundIssue = &Issue{
		id: PakefileNotFoundId,
		mdMsg: `
# No build files found!

pake looks for files ending in ` + "`.pake`" + ` in the current directory and every
directory below it, skipping the build root and ignored paths.

## Things you can try:
- Create a build file in your project root:
~~~
$ echo 'target phony hello run_before("echo hello")' > build.pake
$ pake hello
~~~

- Or run pake from another directory:
~~~
$ pake -C path/to/project
~~~`,
	}

	pakefileSyntaxErrorIssue = &Issue{
		id: PakefileSyntaxErrorId,
		mdMsg: `
# Failed to parse a build file!

A build file contains a character or statement pake does not understand.

## Common issues:
- A statement that does not start with ` + "`set`" + `, ` + "`append`" + `, ` + "`target`" + ` or ` + "`configuration`" + `
- A target field given twice, or a field the target type does not support
- A missing closing parenthesis or quote
- A statement split over lines outside of parentheses

## Example:
~~~
set $sources main.cpp util.cpp
target application app sources($sources) depends_on(lib)
configuration debug compiler_flags(-g -O0)
~~~`,
	}

	variableResolutionFailedIssue = &Issue{
		id: VariableResolutionFailedId,
		mdMsg: `
# Failed to resolve a variable!

A ` + "`$variable`" + ` or ` + "`${variable}`" + ` reference names a module or variable that is
not declared.

## Things you can try:
- Variables of another build file are named ` + "`$module.variable`" + `, where the module
  name is the file name without the ` + "`.pake`" + ` extension
- Run ` + "`pake check`" + ` to evaluate every variable of the project
- Use ` + "`$__configuration.name`" + ` for values exported by a configuration`,
	}

	variableCycleIssue = &Issue{
		id: VariableCycleId,
		mdMsg: `
# Variable reference cycle!

A variable refers back to itself, directly or through other variables. Its value
can never be computed.

## Things you can try:
- Follow the chain printed above and break one of the references
- Use ` + "`append`" + ` instead of ` + "`set $x $x ...`" + ` to extend a variable`,
	}

	targetNotFoundIssue = &Issue{
		id: TargetNotFoundId,
		mdMsg: `
# Target not found!

No build file declares a target with this name.

## Things you can try:
- List all targets:
~~~
$ pake list
~~~

- Check the ` + "`depends_on`" + ` list of the target that requires it
- Target names are global across build files; check for typos`,
	}

	targetNotVisibleIssue = &Issue{
		id: TargetNotVisibleId,
		mdMsg: `
# Target not visible in this configuration!

The target restricts itself with ` + "`visible_in`" + ` to configurations other than the
active one.

## Things you can try:
- Select a configuration the target is visible in:
~~~
$ pake -c <configuration> <target>
~~~

- Extend the target's ` + "`visible_in`" + ` list`,
	}

	duplicateTargetIssue = &Issue{
		id: DuplicateTargetId,
		mdMsg: `
# Target declared twice!

Two declarations share one target name. Target names are global across every
build file of a project.

## Things you can try:
- Rename one of the targets
- Allow later declarations to replace earlier ones:
~~~cue
allow_target_redefinition: true
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Targets depend on each other in a loop, so none of them can be built first.

## Things you can try:
- Follow the chain printed above and remove one ` + "`depends_on`" + ` entry
- Inspect the build order:
~~~
$ pake list --order
~~~`,
	}

	configurationNotFoundIssue = &Issue{
		id: ConfigurationNotFoundId,
		mdMsg: `
# Configuration not found!

No build file declares a configuration with this name.

## Things you can try:
- List the declared configurations:
~~~
$ pake
~~~

- Declare it:
~~~
configuration release compiler_flags(-O2)
~~~`,
	}

	duplicateConfigurationIssue = &Issue{
		id: DuplicateConfigurationId,
		mdMsg: `
# Configuration declared twice!

Configuration names are global. Only ` + "`__default`" + ` may be redeclared, and only once.

## Things you can try:
- Rename one of the configurations
- Keep a single declaration and share values through variables`,
	}

	compilationFailedIssue = &Issue{
		id: CompilationFailedId,
		mdMsg: `
# Compilation failed!

The compiler, linker or archiver exited unsuccessfully. Its output is printed above.

## Things you can try:
- Fix the reported source errors and run pake again; up to date objects are reused
- Check the ` + "`compiler`" + ` and ` + "`archiver`" + ` of the active configuration are installed
- Run with ` + "`-v`" + ` to see every tool invocation`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# A hook command failed!

A ` + "`run_before`" + ` or ` + "`run_after`" + ` command exited with a non-zero status.

## Things you can try:
- Run the command by hand from the directory of the build file
- Variables are exported to hooks as ` + "`<module>_<name>`" + `, and by bare name for
  the target's own module
- Switch shells:
~~~cue
shell: "virtual"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The pake configuration file could not be read or does not match the schema.

## Things you can try:
- Print the configuration pake would use:
~~~
$ pake config show
~~~

- Write a fresh default file:
~~~
$ pake config init
~~~

- Check which file was loaded:
~~~
$ pake config path
~~~`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

Hook commands run through ` + "`sh`" + ` or ` + "`bash`" + `, and neither is on your PATH.

## Things you can try:
- Install a POSIX shell
- Use the built-in shell instead:
~~~cue
shell: "virtual"
~~~`,
	}

	invalidShellModeIssue = &Issue{
		id: InvalidShellModeId,
		mdMsg: `
# Invalid shell mode!

The ` + "`shell`" + ` setting must be ` + "`native`" + ` or ` + "`virtual`" + `.`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

pake could not read a build file or write into the build root.

## Things you can try:
- Check the permissions of the project directory and of ` + "`__build`" + `
- Point the build root elsewhere:
~~~cue
build_root: "/tmp/pake-build"
~~~`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():             fileNotFoundIssue,
		pakefileNotFoundIssue.Id():         pakefileNotFoundIssue,
		pakefileSyntaxErrorIssue.Id():      pakefileSyntaxErrorIssue,
		variableResolutionFailedIssue.Id(): variableResolutionFailedIssue,
		variableCycleIssue.Id():            variableCycleIssue,
		targetNotFoundIssue.Id():           targetNotFoundIssue,
		targetNotVisibleIssue.Id():         targetNotVisibleIssue,
		duplicateTargetIssue.Id():          duplicateTargetIssue,
		dependencyCycleIssue.Id():          dependencyCycleIssue,
		configurationNotFoundIssue.Id():    configurationNotFoundIssue,
		duplicateConfigurationIssue.Id():   duplicateConfigurationIssue,
		compilationFailedIssue.Id():        compilationFailedIssue,
		hookFailedIssue.Id():               hookFailedIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		shellNotFoundIssue.Id():            shellNotFoundIssue,
		invalidShellModeIssue.Id():         invalidShellModeIssue,
		permissionDeniedIssue.Id():         permissionDeniedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
