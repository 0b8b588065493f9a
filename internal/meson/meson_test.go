package meson

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/packsmith/speexpkg/pkg/recipe"
)

// fakeRunner returns canned results keyed by the first argument
// ("--version", "setup", "compile", "install").
func fakeRunner(t *testing.T, results map[string]struct {
	out string
	err error
}, calls *[][]string) Runner {
	t.Helper()
	return func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		if calls != nil {
			*calls = append(*calls, append([]string{name}, args...))
		}
		res, ok := results[args[0]]
		if !ok {
			t.Fatalf("unexpected meson invocation: %v", args)
		}
		return []byte(res.out), res.err
	}
}

func testLayout(t *testing.T) recipe.Layout {
	return recipe.BasicLayout(t.TempDir(), "src")
}

func TestCheckRequirement(t *testing.T) {
	req := recipe.ToolRequirement{Name: "meson", MinVersion: "1.2.3", MaxVersion: "2.0.0"}

	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{name: "exact minimum", version: "1.2.3", wantErr: false},
		{name: "inside range", version: "1.4.0", wantErr: false},
		{name: "below minimum", version: "1.0.1", wantErr: true},
		{name: "at exclusive maximum", version: "2.0.0", wantErr: true},
		{name: "above maximum", version: "2.1.0", wantErr: true},
		{name: "garbage output", version: "not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(nil).WithRunner(fakeRunner(t, map[string]struct {
				out string
				err error
			}{
				"--version": {out: tt.version + "\n"},
			}, nil))

			err := m.CheckRequirement(context.Background(), req)
			if tt.wantErr {
				if !errors.Is(err, recipe.ErrToolMissing) {
					t.Fatalf("error = %v, want ErrToolMissing", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckRequirement: %v", err)
			}
		})
	}
}

func TestCheckRequirement_BinaryMissing(t *testing.T) {
	m := New(nil).WithRunner(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		return nil, &exec.Error{Name: "meson", Err: exec.ErrNotFound}
	})

	err := m.CheckRequirement(context.Background(), recipe.ToolRequirement{Name: "meson", MinVersion: "1.2.3"})
	if !errors.Is(err, recipe.ErrToolMissing) {
		t.Fatalf("error = %v, want ErrToolMissing", err)
	}
}

func TestCheckRequirement_UnknownTool(t *testing.T) {
	m := New(nil)
	err := m.CheckRequirement(context.Background(), recipe.ToolRequirement{Name: "ninja"})
	if !errors.Is(err, recipe.ErrToolMissing) {
		t.Fatalf("error = %v, want ErrToolMissing", err)
	}
}

func TestSetup_ArgsAndFailure(t *testing.T) {
	layout := testLayout(t)

	var calls [][]string
	m := New(nil).WithRunner(fakeRunner(t, map[string]struct {
		out string
		err error
	}{
		"setup": {},
	}, &calls))

	if err := m.Setup(context.Background(), layout); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	want := []string{
		"meson", "setup",
		layout.BuildDir(), layout.SourceDir(),
		"--native-file", filepath.Join(layout.GeneratorsDir(), NativeFileName),
		"--prefix", layout.PackageDir(),
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	for i, arg := range want {
		if calls[0][i] != arg {
			t.Errorf("setup arg[%d] = %q, want %q", i, calls[0][i], arg)
		}
	}

	// Non-zero exit is a fatal build error.
	m = New(nil).WithRunner(fakeRunner(t, map[string]struct {
		out string
		err error
	}{
		"setup": {out: "ERROR: Dependency not found", err: fmt.Errorf("exit status 1")},
	}, nil))
	err := m.Setup(context.Background(), layout)
	if !errors.Is(err, recipe.ErrBuild) {
		t.Fatalf("setup failure = %v, want ErrBuild", err)
	}
}

func TestCompile_FailureIsBuildError(t *testing.T) {
	m := New(nil).WithRunner(fakeRunner(t, map[string]struct {
		out string
		err error
	}{
		"compile": {out: "cc: fatal error", err: fmt.Errorf("exit status 2")},
	}, nil))

	err := m.Compile(context.Background(), testLayout(t))
	if !errors.Is(err, recipe.ErrBuild) {
		t.Fatalf("compile failure = %v, want ErrBuild", err)
	}
}

func TestInstall_FailureIsPackagingError(t *testing.T) {
	m := New(nil).WithRunner(fakeRunner(t, map[string]struct {
		out string
		err error
	}{
		"install": {err: fmt.Errorf("exit status 1")},
	}, nil))

	err := m.Install(context.Background(), testLayout(t))
	if !errors.Is(err, recipe.ErrPackaging) {
		t.Fatalf("install failure = %v, want ErrPackaging", err)
	}
}
