// Package meson wraps the meson build tool for one build invocation:
// probing the installed version, generating the native machine file, and
// running the setup/compile/install sequence against a recipe layout.
package meson

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/mod/semver"

	"github.com/packsmith/speexpkg/pkg/recipe"
)

// NativeFileName is the machine file Generate writes and Setup consumes.
const NativeFileName = "speexpkg_meson_native.ini"

// Runner executes one external command in dir and returns its combined
// output. Tests substitute a fake so no build tool is ever spawned.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Meson drives the meson binary for a single build.
type Meson struct {
	logger hclog.Logger
	run    Runner
	bin    string
}

// New creates a wrapper around the meson binary. SPEEXPKG_MESON overrides
// the binary looked up on PATH.
func New(logger hclog.Logger) *Meson {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	bin := os.Getenv("SPEEXPKG_MESON")
	if bin == "" {
		bin = "meson"
	}
	return &Meson{logger: logger, run: execRunner, bin: bin}
}

// WithRunner swaps the command runner. Used by tests.
func (m *Meson) WithRunner(r Runner) *Meson {
	m.run = r
	return m
}

// Version reports the installed meson version.
func (m *Meson) Version(ctx context.Context) (string, error) {
	out, err := m.run(ctx, "", m.bin, "--version")
	if err != nil {
		return "", fmt.Errorf("%w: running %s --version: %v", recipe.ErrToolMissing, m.bin, err)
	}
	version := strings.TrimSpace(string(out))
	if version == "" {
		return "", fmt.Errorf("%w: %s --version produced no output", recipe.ErrToolMissing, m.bin)
	}
	return version, nil
}

// CheckRequirement verifies the installed meson satisfies the declared
// version range. Requirements for other tools are unsatisfiable here.
func (m *Meson) CheckRequirement(ctx context.Context, req recipe.ToolRequirement) error {
	if req.Name != "meson" {
		return fmt.Errorf("%w: no provider for tool %q", recipe.ErrToolMissing, req.Name)
	}

	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	m.logger.Debug("🧰 Found meson", "version", version)

	v := "v" + version
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: cannot parse meson version %q", recipe.ErrToolMissing, version)
	}
	if req.MinVersion != "" && semver.Compare(v, "v"+req.MinVersion) < 0 {
		return fmt.Errorf("%w: meson %s is older than required %s", recipe.ErrToolMissing, version, req.MinVersion)
	}
	if req.MaxVersion != "" && semver.Compare(v, "v"+req.MaxVersion) >= 0 {
		return fmt.Errorf("%w: meson %s is not below required upper bound %s", recipe.ErrToolMissing, version, req.MaxVersion)
	}
	return nil
}

// Setup configures the build directory against the source tree, pointing
// the install prefix at the package folder and loading the generated
// native file.
func (m *Meson) Setup(ctx context.Context, layout recipe.Layout) error {
	args := []string{
		"setup",
		layout.BuildDir(),
		layout.SourceDir(),
		"--native-file", nativeFilePath(layout),
		"--prefix", layout.PackageDir(),
	}
	m.logger.Debug("🔧 meson setup", "args", args)
	out, err := m.run(ctx, layout.Root, m.bin, args...)
	if err != nil {
		return toolError(recipe.ErrBuild, "meson setup", out, err)
	}
	return nil
}

// Compile builds the configured tree.
func (m *Meson) Compile(ctx context.Context, layout recipe.Layout) error {
	args := []string{"compile", "-C", layout.BuildDir()}
	m.logger.Debug("🔨 meson compile", "args", args)
	out, err := m.run(ctx, layout.Root, m.bin, args...)
	if err != nil {
		return toolError(recipe.ErrBuild, "meson compile", out, err)
	}
	return nil
}

// Install copies build artifacts into the package folder configured as
// prefix during Setup.
func (m *Meson) Install(ctx context.Context, layout recipe.Layout) error {
	args := []string{"install", "-C", layout.BuildDir()}
	m.logger.Debug("📦 meson install", "args", args)
	out, err := m.run(ctx, layout.Root, m.bin, args...)
	if err != nil {
		return toolError(recipe.ErrPackaging, "meson install", out, err)
	}
	return nil
}

func nativeFilePath(layout recipe.Layout) string {
	return filepath.Join(layout.GeneratorsDir(), NativeFileName)
}

// toolError folds a non-zero exit and its output into one fatal error.
// The tail of the output is kept so the failing compiler line survives.
func toolError(kind error, step string, out []byte, cause error) error {
	var notFound *exec.Error
	if errors.As(cause, &notFound) {
		return fmt.Errorf("%w: %s: %v", recipe.ErrToolMissing, step, cause)
	}
	tail := strings.TrimSpace(string(out))
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	if tail == "" {
		return fmt.Errorf("%w: %s: %v", kind, step, cause)
	}
	return fmt.Errorf("%w: %s: %v\n%s", kind, step, cause, tail)
}
