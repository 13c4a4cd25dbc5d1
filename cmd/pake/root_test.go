// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/Quasek/pake/internal/config"
	"github.com/Quasek/pake/internal/shell"
	"github.com/Quasek/pake/internal/testutil"

	"github.com/charmbracelet/fang"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// These tests are not parallel: every command installs the default slog logger.

type staticProvider struct {
	cfg *config.Config
	err error
}

func (p staticProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if p.err != nil {
		return nil, p.err
	}
	cfg := *p.cfg
	return &cfg, nil
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type result struct {
	stdout string
	stderr string
	err    error
}

func runPake(t *testing.T, dir string, args ...string) result {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.UI.ColorScheme = config.ColorSchemeDark
	return runPakeWith(t, staticProvider{cfg: cfg}, dir, args...)
}

func runPakeWith(t *testing.T, provider config.Provider, dir string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config:  provider,
		Shell:   shell.NewVirtual(),
		Environ: []string{},
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(append([]string{"-C", dir}, args...))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return result{
		stdout: ansiEscape.ReplaceAllString(stdout.String(), ""),
		stderr: ansiEscape.ReplaceAllString(stderr.String(), ""),
		err:    err,
	}
}

const sampleProject = `set $greeting hello
target phony first run_before ("echo first ${greeting}")
target phony second depends_on (first) run_before ("echo second") visible_in (release)
configuration release
`

func TestRoot_ListsWithoutTargets(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"main.pake": sampleProject})

	res := runPake(t, dir)
	if res.err != nil {
		t.Fatalf("pake error = %v\n%s", res.err, res.stderr)
	}
	for _, want := range []string{"targets found in this source tree:", "first", "second", "depends on: first", "configurations:", "__default", "release"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("listing misses %q:\n%s", want, res.stdout)
		}
	}
}

func TestRoot_BuildsTargetAfterDependencies(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"main.pake": sampleProject})

	res := runPake(t, dir, "-c", "release", "second")
	if res.err != nil {
		t.Fatalf("pake error = %v\n%s", res.err, res.stderr)
	}

	var lines []string
	for line := range strings.Lines(res.stdout) {
		lines = append(lines, strings.TrimRight(line, "\n"))
	}
	want := []string{
		"configuration release",
		"target first (phony)",
		"virtual echo first hello",
		"first hello",
		"target second (phony)",
		"virtual echo second",
		"second",
	}
	if !slices.Equal(lines, want) {
		t.Errorf("stdout lines =\n%q\nwant\n%q", lines, want)
	}
}

func TestRoot_AllSkipsInvisibleTargets(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"main.pake": sampleProject})

	res := runPake(t, dir, "-a")
	if res.err != nil {
		t.Fatalf("pake -a error = %v\n%s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "first hello") || !strings.Contains(res.stdout, "skip second") {
		t.Errorf("stdout = %q, want first built and second skipped", res.stdout)
	}
}

func TestRoot_FailuresRenderIssue(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		args   []string
		stderr []string
	}{
		{
			name:   "unknown target",
			files:  map[string]string{"main.pake": sampleProject},
			args:   []string{"ghost"},
			stderr: []string{"fatal:", "ghost", "Target not found"},
		},
		{
			name:   "invisible target",
			files:  map[string]string{"main.pake": sampleProject},
			args:   []string{"second"},
			stderr: []string{"fatal:", "Target not visible"},
		},
		{
			name:   "no build files",
			files:  map[string]string{"README": ""},
			args:   []string{"app"},
			stderr: []string{"fatal:", "No build files found"},
		},
		{
			name:   "syntax error",
			files:  map[string]string{"main.pake": "target phony a (\n"},
			args:   []string{"a"},
			stderr: []string{"fatal:", "Failed to parse a build file"},
		},
		{
			name:   "failing hook",
			files:  map[string]string{"main.pake": "target phony a run_before (\"exit 3\")\n"},
			args:   []string{"a"},
			stderr: []string{"fatal:", "exit status 3", "A hook command failed"},
		},
		{
			name:   "unknown configuration",
			files:  map[string]string{"main.pake": sampleProject},
			args:   []string{"-c", "nightly", "first"},
			stderr: []string{"fatal:", "nightly", "Configuration not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			testutil.WriteTree(t, dir, tt.files)

			res := runPake(t, dir, tt.args...)
			var exitErr *ExitError
			if !errors.As(res.err, &exitErr) || exitErr.Code != 1 {
				t.Fatalf("pake error = %v, want *ExitError with code 1", res.err)
			}
			if n := strings.Count(res.stderr, "fatal:"); n != 1 {
				t.Errorf("stderr holds %d fatal lines, want 1:\n%s", n, res.stderr)
			}
			for _, want := range tt.stderr {
				if !strings.Contains(res.stderr, want) {
					t.Errorf("stderr misses %q:\n%s", want, res.stderr)
				}
			}
		})
	}
}

func TestBuild_ReachesTargetsNamedLikeSubcommands(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"main.pake": `target phony check run_before ("echo ran-check")
target phony list run_before ("echo ran-list")
`,
	})

	res := runPake(t, dir, "build", "check", "list")
	if res.err != nil {
		t.Fatalf("pake build error = %v\n%s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "ran-check") || !strings.Contains(res.stdout, "ran-list") {
		t.Errorf("pake build check list stdout = %q, want both hooks", res.stdout)
	}

	res = runPake(t, dir, "check")
	if res.err != nil {
		t.Fatalf("pake check error = %v\n%s", res.err, res.stderr)
	}
	if strings.Contains(res.stdout, "ran-check") {
		t.Errorf("pake check built the target: %q", res.stdout)
	}
	for _, want := range []string{"shadowed by a subcommand", "pake build check", "pake build list"} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("stderr misses %q:\n%s", want, res.stderr)
		}
	}
}

func TestBuild_WithoutTargetsBuildsAll(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"main.pake": sampleProject})

	res := runPake(t, dir, "build")
	if res.err != nil {
		t.Fatalf("pake build error = %v\n%s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "first hello") || !strings.Contains(res.stdout, "skip second") {
		t.Errorf("stdout = %q, want first built and second skipped", res.stdout)
	}
}

func TestRenderUnhandledError(t *testing.T) {
	var out bytes.Buffer
	renderUnhandledError(&out, fang.Styles{}, &ExitError{Code: 1, Err: errors.New("already shown")})
	if out.Len() != 0 {
		t.Errorf("ExitError rendered again: %q", out.String())
	}

	renderUnhandledError(&out, fang.Styles{}, errors.New("unknown flag: --nope"))
	if !strings.Contains(out.String(), "unknown flag: --nope") {
		t.Errorf("flag error output = %q", out.String())
	}
}

func TestRoot_ConfigLoadFailure(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"main.pake": sampleProject})

	res := runPakeWith(t, staticProvider{err: errors.New("broken config")}, dir, "first")
	if res.err == nil || !strings.Contains(res.stderr, "broken config") {
		t.Errorf("pake = %v, stderr %q; want the config error", res.err, res.stderr)
	}
}

func TestList_Formats(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"main.pake": sampleProject})

	decoders := map[string]func([]byte, any) error{
		formatJSON: json.Unmarshal,
		formatYAML: yaml.Unmarshal,
		formatTOML: toml.Unmarshal,
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			res := runPake(t, dir, "list", "--format", format, "--order")
			if res.err != nil {
				t.Fatalf("pake list error = %v\n%s", res.err, res.stderr)
			}

			var got listing
			if err := decode([]byte(res.stdout), &got); err != nil {
				t.Fatalf("decode %s: %v\n%s", format, err, res.stdout)
			}
			if len(got.Targets) != 2 || got.Targets[1].Name != "second" || !slices.Equal(got.Targets[1].DependsOn, []string{"first"}) {
				t.Errorf("Targets = %+v", got.Targets)
			}
			if got.Targets[1].Module != "main" || got.Targets[1].Type != "phony" {
				t.Errorf("second = %+v", got.Targets[1])
			}
			if len(got.Configurations) != 2 || !got.Configurations[0].Active || got.Configurations[1].Name != "release" {
				t.Errorf("Configurations = %+v", got.Configurations)
			}
			if !slices.Equal(got.Order, []string{"first", "second"}) {
				t.Errorf("Order = %q", got.Order)
			}
		})
	}
}

func TestList_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"main.pake": sampleProject})

	res := runPake(t, dir, "list", "--format", "xml")
	if res.err == nil || !strings.Contains(res.stderr, `unknown format "xml"`) {
		t.Errorf("pake list --format xml = %v, stderr %q", res.err, res.stderr)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"main.pake": sampleProject})

	res := runPake(t, dir, "check")
	if res.err != nil {
		t.Fatalf("pake check error = %v\n%s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "1 build files, 2 targets, 2 configurations") {
		t.Errorf("stdout = %q", res.stdout)
	}

	cyclic := t.TempDir()
	testutil.WriteTree(t, cyclic, map[string]string{
		"main.pake": "target phony a depends_on (b)\ntarget phony b depends_on (a)\n",
	})
	res = runPake(t, cyclic, "check")
	if res.err == nil || !strings.Contains(res.stderr, "Dependency cycle detected") {
		t.Errorf("pake check on a cycle = %v, stderr %q", res.err, res.stderr)
	}
}

func TestConfig_InitAndPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "pake.cue")

	res := runPake(t, dir, "--config", path, "config", "init")
	if res.err != nil {
		t.Fatalf("config init error = %v\n%s", res.err, res.stderr)
	}
	if got := testutil.MustReadFile(t, path); got != config.GenerateCUE(config.DefaultConfig()) {
		t.Errorf("written config =\n%s", got)
	}

	res = runPake(t, dir, "--config", path, "config", "init")
	if res.err != nil || !strings.Contains(res.stdout, "already exists") {
		t.Errorf("second config init = %v, stdout %q", res.err, res.stdout)
	}

	res = runPake(t, dir, "--config", path, "config", "path")
	if res.err != nil || strings.TrimSpace(res.stdout) != path {
		t.Errorf("config path = %v, stdout %q, want %q", res.err, res.stdout, path)
	}

	res = runPake(t, dir, "--config", path, "config", "show")
	if res.err != nil || !strings.Contains(res.stdout, "jobs: 1") || !strings.Contains(res.stdout, path) {
		t.Errorf("config show = %v, stdout %q", res.err, res.stdout)
	}
}
