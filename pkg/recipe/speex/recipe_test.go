package speex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/packsmith/speexpkg/internal/meson"
	"github.com/packsmith/speexpkg/pkg/recipe"
)

func TestConfigureOptions(t *testing.T) {
	tests := []struct {
		name     string
		os       string
		shared   bool
		wantFPIC bool
	}{
		{name: "linux static keeps fPIC", os: "Linux", shared: false, wantFPIC: true},
		{name: "linux shared drops fPIC", os: "Linux", shared: true, wantFPIC: false},
		{name: "windows never has fPIC", os: "Windows", shared: false, wantFPIC: false},
		{name: "windows shared has no fPIC", os: "Windows", shared: true, wantFPIC: false},
		{name: "freebsd static keeps fPIC", os: "FreeBSD", shared: false, wantFPIC: true},
		{name: "macos shared drops fPIC", os: "Macos", shared: true, wantFPIC: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("1.2.1", nil)
			if err := r.Descriptor().Options.Set("shared", tt.shared); err != nil {
				t.Fatalf("setting shared: %v", err)
			}

			if err := r.ConfigureOptions(recipe.Settings{OS: tt.os}); err != nil {
				t.Fatalf("ConfigureOptions: %v", err)
			}

			if got := r.Descriptor().Options.Has("fPIC"); got != tt.wantFPIC {
				t.Errorf("fPIC present = %v, want %v", got, tt.wantFPIC)
			}
		})
	}
}

func TestOptionDefaults(t *testing.T) {
	r := New("1.2.1", nil)
	opts := r.Descriptor().Options

	if opts.Bool("shared") {
		t.Error("shared should default to false")
	}
	if !opts.Bool("fPIC") {
		t.Error("fPIC should default to true")
	}
	if err := opts.Set("shared", "sometimes"); !errors.Is(err, recipe.ErrConfiguration) {
		t.Errorf("out-of-domain value error = %v, want ErrConfiguration", err)
	}
}

func TestSourceForVersion(t *testing.T) {
	src, err := SourceForVersion("1.2.1")
	if err != nil {
		t.Fatalf("SourceForVersion(1.2.1): %v", err)
	}
	if !strings.HasSuffix(src.URL, "speex-1.2.1.tar.gz") {
		t.Errorf("url = %q, want speex-1.2.1 tarball", src.URL)
	}
	if len(src.SHA256) != 64 {
		t.Errorf("sha256 length = %d, want 64", len(src.SHA256))
	}

	if _, err := SourceForVersion("9.9.9"); !errors.Is(err, recipe.ErrFetch) {
		t.Errorf("unknown version error = %v, want ErrFetch", err)
	}
}

func TestSource_UnknownVersionFailsBeforeFetch(t *testing.T) {
	r := New("9.9.9", nil)
	layout := r.Layout(t.TempDir())

	err := r.Source(context.Background(), layout)
	if !errors.Is(err, recipe.ErrFetch) {
		t.Fatalf("error = %v, want ErrFetch", err)
	}
	// Nothing may be created for a version with no source mapping.
	if _, err := os.Stat(layout.SourceDir()); !os.IsNotExist(err) {
		t.Error("source dir created despite unresolvable version")
	}
}

func TestGenerate_NativeFile(t *testing.T) {
	tests := []struct {
		name        string
		os          string
		shared      bool
		wantLines   []string
		absentLines []string
	}{
		{
			name:   "linux static",
			os:     "Linux",
			shared: false,
			wantLines: []string{
				"default_library = 'static'",
				"b_staticpic = true",
				"tools = 'disabled'",
				"test-binaries = 'disabled'",
			},
		},
		{
			name:   "linux shared",
			os:     "Linux",
			shared: true,
			wantLines: []string{
				"default_library = 'shared'",
			},
			absentLines: []string{"b_staticpic"},
		},
		{
			name:   "windows static",
			os:     "Windows",
			shared: false,
			wantLines: []string{
				"default_library = 'static'",
			},
			absentLines: []string{"b_staticpic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("1.2.1", nil)
			settings := recipe.Settings{OS: tt.os, BuildType: "Release"}
			if err := r.Descriptor().Options.Set("shared", tt.shared); err != nil {
				t.Fatal(err)
			}
			if err := r.ConfigureOptions(settings); err != nil {
				t.Fatal(err)
			}

			layout := r.Layout(t.TempDir())
			if err := r.Generate(settings, layout); err != nil {
				t.Fatalf("Generate: %v", err)
			}

			data, err := os.ReadFile(filepath.Join(layout.GeneratorsDir(), meson.NativeFileName))
			if err != nil {
				t.Fatalf("reading native file: %v", err)
			}
			content := string(data)

			if !strings.Contains(content, "buildtype = 'release'") {
				t.Errorf("native file missing buildtype, got:\n%s", content)
			}
			for _, line := range tt.wantLines {
				if !strings.Contains(content, line) {
					t.Errorf("native file missing %q, got:\n%s", line, content)
				}
			}
			for _, line := range tt.absentLines {
				if strings.Contains(content, line) {
					t.Errorf("native file unexpectedly contains %q:\n%s", line, content)
				}
			}
		})
	}
}

// fakeInstall populates the package dir the way a meson install would,
// including everything package() must prune afterwards.
func fakeInstall(t *testing.T, layout recipe.Layout) meson.Runner {
	t.Helper()
	return func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		if args[0] != "install" {
			t.Fatalf("unexpected meson invocation: %v", args)
		}
		pkg := layout.PackageDir()
		files := map[string]string{
			filepath.Join(pkg, "lib", "libspeex.a"):            "archive",
			filepath.Join(pkg, "lib", "libspeex.pdb"):          "symbols",
			filepath.Join(pkg, "lib", "pkgconfig", "speex.pc"): "pc",
			filepath.Join(pkg, "bin", "speex.pdb"):             "symbols",
			filepath.Join(pkg, "share", "doc", "manual.txt"):   "docs",
			filepath.Join(pkg, "include", "speex", "speex.h"):  "header",
		}
		for path, content := range files {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	return paths
}

func TestPackage_PruneAndIdempotency(t *testing.T) {
	r := New("1.2.1", nil)
	layout := r.Layout(t.TempDir())

	if err := os.MkdirAll(layout.SourceDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(layout.SourceDir(), "COPYING"), []byte("BSD-3-Clause"), 0644); err != nil {
		t.Fatal(err)
	}
	r.meson = meson.New(nil).WithRunner(fakeInstall(t, layout))

	if err := r.Package(context.Background(), layout); err != nil {
		t.Fatalf("Package: %v", err)
	}

	want := []string{
		"bin",
		"include",
		"include/speex",
		"include/speex/speex.h",
		"lib",
		"lib/libspeex.a",
		"licenses",
		"licenses/COPYING",
	}
	first := listTree(t, layout.PackageDir())
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("package tree after first run (-want +got):\n%s", diff)
	}

	// Second run re-installs and re-prunes; the tree must come out
	// identical and no removal may fail on already-missing files.
	if err := r.Package(context.Background(), layout); err != nil {
		t.Fatalf("second Package: %v", err)
	}
	second := listTree(t, layout.PackageDir())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("package tree changed on second run (-first +second):\n%s", diff)
	}
}

func TestPackage_InstallFailure(t *testing.T) {
	r := New("1.2.1", nil)
	layout := r.Layout(t.TempDir())

	if err := os.MkdirAll(layout.SourceDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(layout.SourceDir(), "COPYING"), []byte("BSD-3-Clause"), 0644); err != nil {
		t.Fatal(err)
	}
	r.meson = meson.New(nil).WithRunner(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		return []byte("ERROR: no install target"), fmt.Errorf("exit status 1")
	})

	err := r.Package(context.Background(), layout)
	if !errors.Is(err, recipe.ErrPackaging) {
		t.Fatalf("install failure = %v, want ErrPackaging", err)
	}
}

func TestPackageInfo(t *testing.T) {
	tests := []struct {
		os       string
		wantMath bool
	}{
		{os: "Linux", wantMath: true},
		{os: "FreeBSD", wantMath: true},
		{os: "Windows", wantMath: false},
		{os: "Macos", wantMath: false},
	}

	for _, tt := range tests {
		t.Run(tt.os, func(t *testing.T) {
			r := New("1.2.1", nil)
			info, err := r.PackageInfo(recipe.Settings{OS: tt.os})
			if err != nil {
				t.Fatalf("PackageInfo: %v", err)
			}

			if diff := cmp.Diff([]string{"speex"}, info.Libs); diff != "" {
				t.Errorf("libs (-want +got):\n%s", diff)
			}

			hasMath := false
			for _, lib := range info.SystemLibs {
				if lib == "m" {
					hasMath = true
				}
			}
			if hasMath != tt.wantMath {
				t.Errorf("system libs = %v, math lib present = %v, want %v", info.SystemLibs, hasMath, tt.wantMath)
			}

			wantProps := map[string]string{
				"pkg_config_name":   "speex",
				"cmake_file_name":   "Speex",
				"cmake_target_name": "Speex::speex",
			}
			if diff := cmp.Diff(wantProps, info.Properties); diff != "" {
				t.Errorf("properties (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_SetupThenCompile(t *testing.T) {
	r := New("1.2.1", nil)
	layout := r.Layout(t.TempDir())

	var order []string
	r.meson = meson.New(nil).WithRunner(func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		order = append(order, args[0])
		return nil, nil
	})

	if err := r.Build(context.Background(), layout); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]string{"setup", "compile"}, order); diff != "" {
		t.Errorf("meson invocation order (-want +got):\n%s", diff)
	}
}
