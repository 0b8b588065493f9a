// Package speex is the build recipe for the speex audio codec library.
// It wraps the upstream meson build: fetch the release tarball, generate
// a build environment with the optional tools and test binaries disabled,
// compile, install into a package tree, and prune what must not ship.
package speex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/packsmith/speexpkg/internal/fetch"
	"github.com/packsmith/speexpkg/internal/fsutil"
	"github.com/packsmith/speexpkg/internal/meson"
	"github.com/packsmith/speexpkg/pkg/recipe"
)

var _ recipe.Recipe = (*Recipe)(nil)

// Recipe implements recipe.Recipe for speex.
type Recipe struct {
	desc   *recipe.Descriptor
	logger hclog.Logger
	meson  *meson.Meson

	// resolveSource maps a version to its download descriptor. Tests
	// point it at a local fixture server.
	resolveSource func(version string) (fetch.Source, error)
}

// New creates a fresh speex recipe for one build of the given version.
func New(version string, logger hclog.Logger) *Recipe {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Recipe{
		desc: &recipe.Descriptor{
			Name:        "speex",
			Version:     version,
			Description: "Speex is an Open Source/Free Software patent-free audio compression format designed for speech.",
			License:     "BSD-3-Clause",
			URL:         "https://github.com/xiph/speex",
			Homepage:    "https://www.speex.org/",
			Topics:      []string{"audio", "codec", "speech", "compression"},
			Options: recipe.NewOptionSet(
				recipe.Option{Name: "shared", Domain: []any{true, false}, Default: false},
				recipe.Option{Name: "fPIC", Domain: []any{true, false}, Default: true},
			),
		},
		logger:        logger.Named("speex"),
		meson:         meson.New(logger),
		resolveSource: SourceForVersion,
	}
}

// Descriptor returns the package identity and option set.
func (r *Recipe) Descriptor() *recipe.Descriptor {
	return r.desc
}

// ConfigureOptions prunes options that do not apply to the target. fPIC
// has no meaning on Windows, and a shared build makes it mandatory
// rather than optional, so it is removed in both cases.
func (r *Recipe) ConfigureOptions(settings recipe.Settings) error {
	opts := r.desc.Options
	if settings.OS == "Windows" {
		opts.Remove("fPIC")
	}
	if opts.Bool("shared") {
		opts.Remove("fPIC")
	}
	return nil
}

// Layout puts sources under "src" next to the build and package folders.
func (r *Recipe) Layout(root string) recipe.Layout {
	return recipe.BasicLayout(root, "src")
}

// BuildRequirements declares the meson range the upstream build needs.
func (r *Recipe) BuildRequirements() []recipe.ToolRequirement {
	return []recipe.ToolRequirement{
		{Name: "meson", MinVersion: "1.2.3", MaxVersion: "2.0.0"},
	}
}

// Source fetches and extracts the release tarball for the recipe's
// version, dropping the speex-<version> wrapper directory so the layout's
// source folder is the project root.
func (r *Recipe) Source(ctx context.Context, layout recipe.Layout) error {
	src, err := r.resolveSource(r.desc.Version)
	if err != nil {
		return err
	}
	return fetch.Get(ctx, r.logger, src, layout.SourceDir(), true)
}

// Generate writes the meson native file describing this build: build
// type, shared/static linkage, PIC when still optional, and the upstream
// project options that keep command-line tools and test binaries out of
// the build.
func (r *Recipe) Generate(settings recipe.Settings, layout recipe.Layout) error {
	settings = settings.WithoutCompilerExtras() // pure C, libcxx/cppstd never apply

	tc := &meson.Toolchain{
		BuildType:      buildType(settings),
		DefaultLibrary: "static",
		ProjectOptions: map[string]string{
			"tools":         "disabled",
			"test-binaries": "disabled",
		},
	}
	if r.desc.Options.Bool("shared") {
		tc.DefaultLibrary = "shared"
	}
	if r.desc.Options.Has("fPIC") {
		pic := r.desc.Options.Bool("fPIC")
		tc.StaticPIC = &pic
	}

	if err := os.MkdirAll(layout.GeneratorsDir(), 0755); err != nil {
		return fmt.Errorf("%w: creating generators dir: %v", recipe.ErrBuild, err)
	}
	return tc.WriteFile(filepath.Join(layout.GeneratorsDir(), meson.NativeFileName))
}

// Build runs meson's configure-then-compile sequence.
func (r *Recipe) Build(ctx context.Context, layout recipe.Layout) error {
	if err := r.meson.Setup(ctx, layout); err != nil {
		return err
	}
	return r.meson.Compile(ctx, layout)
}

// Package copies the license into place, installs the build output into
// the package folder, and prunes: the pkgconfig metadata directory, the
// share tree, and debug-symbol files under lib and bin. Every removal
// treats a missing target as success, so packaging an already-pruned
// tree is a no-op.
func (r *Recipe) Package(ctx context.Context, layout recipe.Layout) error {
	licenseDst := filepath.Join(layout.PackageDir(), "licenses", "COPYING")
	if err := fsutil.CopyFile(filepath.Join(layout.SourceDir(), "COPYING"), licenseDst); err != nil {
		return fmt.Errorf("%w: copying license: %v", recipe.ErrPackaging, err)
	}

	if err := r.meson.Install(ctx, layout); err != nil {
		return err
	}

	pkg := layout.PackageDir()
	prune := []func() error{
		func() error { return fsutil.RemoveDir(filepath.Join(pkg, "lib", "pkgconfig")) },
		func() error { return fsutil.RemoveDir(filepath.Join(pkg, "share")) },
		func() error { return fsutil.RemoveGlob(filepath.Join(pkg, "lib"), "*.pdb") },
		func() error { return fsutil.RemoveGlob(filepath.Join(pkg, "bin"), "*.pdb") },
	}
	for _, step := range prune {
		if err := step(); err != nil {
			return fmt.Errorf("%w: pruning package: %v", recipe.ErrPackaging, err)
		}
	}
	return nil
}

// PackageInfo reports the link name, the downstream build-system aliases,
// and the platform math library on targets whose standard link set lacks
// one.
func (r *Recipe) PackageInfo(settings recipe.Settings) (*recipe.PackageInfo, error) {
	info := &recipe.PackageInfo{
		Libs: []string{"speex"},
		Properties: map[string]string{
			"pkg_config_name":   "speex",
			"cmake_file_name":   "Speex",
			"cmake_target_name": "Speex::speex",
		},
	}
	if settings.OS == "Linux" || settings.OS == "FreeBSD" {
		info.SystemLibs = append(info.SystemLibs, "m")
	}
	return info, nil
}

func buildType(settings recipe.Settings) string {
	if settings.BuildType == "" {
		return "release"
	}
	return strings.ToLower(settings.BuildType)
}
