package recipe

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// ToolChecker verifies that one declared tool requirement is satisfied on
// this machine. It returns ErrToolMissing (wrapped) when it is not.
type ToolChecker func(ctx context.Context, req ToolRequirement) error

// Driver executes a recipe's lifecycle phases in their fixed order and
// aborts on the first failure. No phase is retried and no recovery is
// attempted; error reporting belongs to the caller.
//
// A Driver is single-use: one Run per build invocation.
type Driver struct {
	logger    hclog.Logger
	settings  Settings
	root      string
	checkTool ToolChecker
	consumed  bool
}

// NewDriver creates a driver for one build under root with the given
// target settings. checkTool may be nil, in which case declared tool
// requirements are logged but not verified.
func NewDriver(logger hclog.Logger, settings Settings, root string, checkTool ToolChecker) *Driver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Driver{
		logger:    logger,
		settings:  settings,
		root:      root,
		checkTool: checkTool,
	}
}

// Run drives r through all eight phases and returns the exported package
// metadata. The first failing phase aborts the run; the returned error
// names the phase and wraps the recipe's error.
func (d *Driver) Run(ctx context.Context, r Recipe) (*PackageInfo, error) {
	if d.consumed {
		return nil, fmt.Errorf("%w: driver already consumed, build invocations do not share state", ErrConfiguration)
	}
	d.consumed = true

	desc := r.Descriptor()
	d.logger.Info("📦 Building package",
		"name", desc.Name,
		"version", desc.Version,
		"os", d.settings.OS,
		"arch", d.settings.Arch,
		"build_type", d.settings.BuildType)

	d.logger.Debug("🔧 Configuring options", "options", desc.Options.Names())
	if err := r.ConfigureOptions(d.settings); err != nil {
		return nil, d.phaseFailed(PhaseConfigureOptions, err)
	}
	d.logger.Debug("✅ Options configured", "options", desc.Options.Names())

	layout := r.Layout(d.root)
	d.logger.Debug("📁 Layout established",
		"source", layout.SourceDir(),
		"build", layout.BuildDir(),
		"package", layout.PackageDir())

	for _, req := range r.BuildRequirements() {
		d.logger.Debug("🧰 Tool requirement",
			"tool", req.Name,
			"min", req.MinVersion,
			"max", req.MaxVersion)
		if d.checkTool == nil {
			continue
		}
		if err := d.checkTool(ctx, req); err != nil {
			return nil, d.phaseFailed(PhaseBuildRequirements, err)
		}
	}

	d.logger.Info("⬇️ Acquiring sources", "version", desc.Version)
	if err := r.Source(ctx, layout); err != nil {
		return nil, d.phaseFailed(PhaseSource, err)
	}

	d.logger.Info("📝 Generating build environment")
	if err := r.Generate(d.settings, layout); err != nil {
		return nil, d.phaseFailed(PhaseGenerate, err)
	}

	d.logger.Info("🔨 Building")
	if err := r.Build(ctx, layout); err != nil {
		return nil, d.phaseFailed(PhaseBuild, err)
	}

	d.logger.Info("📦 Packaging")
	if err := r.Package(ctx, layout); err != nil {
		return nil, d.phaseFailed(PhasePackage, err)
	}

	info, err := r.PackageInfo(d.settings)
	if err != nil {
		return nil, d.phaseFailed(PhasePackageInfo, err)
	}

	d.logger.Info("✅ Package built",
		"name", desc.Name,
		"version", desc.Version,
		"libs", info.Libs,
		"system_libs", info.SystemLibs)
	return info, nil
}

func (d *Driver) phaseFailed(p Phase, err error) error {
	d.logger.Error("❌ Phase failed", "phase", p.String(), "error", err)
	return fmt.Errorf("phase %s: %w", p, err)
}
