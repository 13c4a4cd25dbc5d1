// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Quasek/pake/internal/issue"
	"github.com/Quasek/pake/internal/testutil"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	testutil.MustWriteFile(t, path, content)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Jobs != 1 {
		t.Errorf("Jobs = %d, want 1", cfg.Jobs)
	}
	if cfg.DefaultConfiguration != "__default" {
		t.Errorf("DefaultConfiguration = %q, want %q", cfg.DefaultConfiguration, "__default")
	}
	if cfg.BuildRoot != "__build" {
		t.Errorf("BuildRoot = %q, want %q", cfg.BuildRoot, "__build")
	}
	if cfg.FileExtension != ".pake" {
		t.Errorf("FileExtension = %q, want %q", cfg.FileExtension, ".pake")
	}
	if cfg.Shell != ShellNative {
		t.Errorf("Shell = %q, want %q", cfg.Shell, ShellNative)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Watch.Debounce = %s, want 500ms", cfg.Watch.Debounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	t.Cleanup(Reset)

	SetConfigDirOverride("/custom/dir")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != "/custom/dir" {
		t.Errorf("ConfigDir() = %q, want override", dir)
	}

	Reset()
	if runtime.GOOS != "linux" {
		return
	}
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != filepath.Join("/xdg", AppName) {
		t.Errorf("ConfigDir() = %q, want suffix %q", dir, AppName)
	}

	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))
	t.Setenv("XDG_CONFIG_HOME", "")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join(home, ".config", AppName); dir != want {
		t.Errorf("ConfigDir() without XDG_CONFIG_HOME = %q, want %q", dir, want)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: t.TempDir(),
		ProjectDir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("load error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want none", path)
	}
	if got, want := GenerateCUE(cfg), GenerateCUE(DefaultConfig()); got != want {
		t.Errorf("config =\n%s\nwant defaults\n%s", got, want)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()

	userDir := t.TempDir()
	projectDir := t.TempDir()
	projectFile := filepath.Join(projectDir, ProjectConfigDir, "config.cue")
	writeConfig(t, projectFile, "jobs: 3\nshell: \"virtual\"\n")

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: userDir, ProjectDir: projectDir})
	if err != nil {
		t.Fatalf("load error = %v", err)
	}
	if path != projectFile {
		t.Errorf("resolved path = %q, want %q", path, projectFile)
	}
	if cfg.Jobs != 3 || cfg.Shell != ShellVirtual {
		t.Errorf("config = jobs %d shell %q, want 3 virtual", cfg.Jobs, cfg.Shell)
	}
	if cfg.BuildRoot != "__build" {
		t.Errorf("BuildRoot = %q, unset keys should keep defaults", cfg.BuildRoot)
	}

	userFile := filepath.Join(userDir, "config.cue")
	writeConfig(t, userFile, "jobs: 8\n")
	cfg, path, err = loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: userDir, ProjectDir: projectDir})
	if err != nil {
		t.Fatalf("load error = %v", err)
	}
	if path != userFile || cfg.Jobs != 8 {
		t.Errorf("got %q jobs %d, want user file with jobs 8", path, cfg.Jobs)
	}

	explicit := filepath.Join(t.TempDir(), "explicit.cue")
	writeConfig(t, explicit, "watch: {debounce: \"2s\", clear_screen: true}\nui: {verbose: true}\n")
	cfg, path, err = loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: explicit, ConfigDirPath: userDir})
	if err != nil {
		t.Fatalf("load error = %v", err)
	}
	if path != explicit {
		t.Errorf("resolved path = %q, want %q", path, explicit)
	}
	if cfg.Jobs != 1 {
		t.Errorf("Jobs = %d, an explicit file replaces the lookup", cfg.Jobs)
	}
	if cfg.Watch.Debounce != 2*time.Second || !cfg.Watch.ClearScreen || !cfg.UI.Verbose {
		t.Errorf("watch/ui = %+v %+v", cfg.Watch, cfg.UI)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PAKE_JOBS", "6")
	t.Setenv("PAKE_WATCH_DEBOUNCE", "1s")

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), ProjectDir: t.TempDir()})
	if err != nil {
		t.Fatalf("load error = %v", err)
	}
	if cfg.Jobs != 6 {
		t.Errorf("Jobs = %d, want 6", cfg.Jobs)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Watch.Debounce = %s, want 1s", cfg.Watch.Debounce)
	}
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("PAKE_SHELL", "zsh")

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), ProjectDir: t.TempDir()})
	if !errors.Is(err, ErrInvalidShellMode) {
		t.Errorf("load error = %v, want ErrInvalidShellMode", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{name: "syntax error", content: "jobs: [\n", contains: "config.cue"},
		{name: "unknown field", content: "colour: \"red\"\n", contains: "colour"},
		{name: "jobs below one", content: "jobs: 0\n", contains: "jobs"},
		{name: "bad shell", content: "shell: \"fish\"\n", contains: "shell"},
		{name: "bad debounce", content: "watch: {debounce: \"soon\"}\n", contains: "watch.debounce"},
		{name: "bad extension", content: "file_extension: \"pake\"\n", contains: "file_extension"},
		{name: "bad list element", content: "discovery: {ignore: [1]}\n", contains: "discovery.ignore[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, filepath.Join(dir, "config.cue"), tt.content)

			_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir, ProjectDir: t.TempDir()})
			if err == nil {
				t.Fatal("load error = nil")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("load error = %T, want *issue.ActionableError", err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should contain %q", err, tt.contains)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
	}
	if ae.Resource != missing || len(ae.Suggestions) == 0 {
		t.Errorf("ActionableError = %+v", ae)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.Jobs = 4
	want.Shell = ShellVirtual
	want.Watch.Debounce = 90 * time.Second
	want.Watch.Ignore = []string{"**/*.o", "docs/**"}
	want.UI.ColorScheme = ColorSchemeDark

	path := filepath.Join(t.TempDir(), "config.cue")
	writeConfig(t, path, GenerateCUE(want))

	got, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("load generated file: %v", err)
	}
	if GenerateCUE(got) != GenerateCUE(want) {
		t.Errorf("round trip =\n%s\nwant\n%s", GenerateCUE(got), GenerateCUE(want))
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	wrote, err := WriteDefault(path, false)
	if err != nil || !wrote {
		t.Fatalf("WriteDefault() = %v, %v, want true, nil", wrote, err)
	}
	if got := testutil.MustReadFile(t, path); got != GenerateCUE(DefaultConfig()) {
		t.Errorf("file content = %q", got)
	}

	writeConfig(t, path, "jobs: 2\n")
	if wrote, err := WriteDefault(path, false); err != nil || wrote {
		t.Errorf("WriteDefault() on existing file = %v, %v, want false, nil", wrote, err)
	}
	if wrote, err := WriteDefault(path, true); err != nil || !wrote {
		t.Errorf("WriteDefault(force) = %v, %v, want true, nil", wrote, err)
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	userDir := t.TempDir()
	projectDir := t.TempDir()

	got, err := ResolvePath(LoadOptions{ConfigDirPath: userDir, ProjectDir: projectDir})
	if err != nil || got != "" {
		t.Errorf("ResolvePath() = %q, %v, want empty", got, err)
	}

	got, err = ResolvePath(LoadOptions{ConfigFilePath: "/explicit.cue", ConfigDirPath: userDir})
	if err != nil || got != "/explicit.cue" {
		t.Errorf("ResolvePath() = %q, %v, want /explicit.cue", got, err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}
	err := FormatError(errors.New("boom"), "x.cue")
	if err == nil || !strings.Contains(err.Error(), "x.cue") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("FormatError() = %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"jobs"}, "jobs"},
		{[]string{"watch", "ignore", "2"}, "watch.ignore[2]"},
		{[]string{"0", "x"}, "0.x"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.in); got != tt.want {
			t.Errorf("formatPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
