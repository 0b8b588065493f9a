// Package recipe defines the contract between a package-build recipe and
// the driver that executes it. A recipe declares what to build and how;
// the driver owns the lifecycle and invokes each phase exactly once, in
// order, aborting the whole build on the first failure.
package recipe

import "context"

// Phase identifies one step of the build lifecycle.
type Phase int

const (
	PhaseConfigureOptions Phase = iota
	PhaseLayout
	PhaseBuildRequirements
	PhaseSource
	PhaseGenerate
	PhaseBuild
	PhasePackage
	PhasePackageInfo
)

// String returns the human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseConfigureOptions:
		return "configure-options"
	case PhaseLayout:
		return "layout"
	case PhaseBuildRequirements:
		return "build-requirements"
	case PhaseSource:
		return "source"
	case PhaseGenerate:
		return "generate"
	case PhaseBuild:
		return "build"
	case PhasePackage:
		return "package"
	case PhasePackageInfo:
		return "package-info"
	default:
		return "unknown"
	}
}

// Descriptor carries the identity of a package plus its declared options.
// Identity fields never change after construction; the option set is
// mutated only during the configure phase.
type Descriptor struct {
	Name        string
	Version     string
	Description string
	License     string
	URL         string
	Homepage    string
	Topics      []string
	Options     *OptionSet
}

// ToolRequirement names an external build tool and the version range it
// must satisfy: MinVersion inclusive, MaxVersion exclusive.
type ToolRequirement struct {
	Name       string
	MinVersion string
	MaxVersion string
}

// Recipe is implemented by every package recipe. The Driver invokes the
// methods in declaration order, each exactly once per build invocation.
// A recipe instance must not carry state from one invocation into the
// next; the driver constructs a fresh one per build.
type Recipe interface {
	// Descriptor returns the package identity and option set.
	Descriptor() *Descriptor

	// ConfigureOptions adjusts the option set for the target: options
	// that have no meaning on the platform, or that a prior choice made
	// mandatory, are removed here. Runs before any file is touched.
	ConfigureOptions(settings Settings) error

	// Layout declares the directory convention under root. Pure
	// declaration, no I/O.
	Layout(root string) Layout

	// BuildRequirements states which external tools must be available
	// before building. Declaration only; the driver verifies.
	BuildRequirements() []ToolRequirement

	// Source resolves the package version to a download, fetches it, and
	// populates the layout's source folder.
	Source(ctx context.Context, layout Layout) error

	// Generate writes the build-environment description for the
	// underlying build tool into the layout's generators folder.
	Generate(settings Settings, layout Layout) error

	// Build runs the underlying tool's configure-then-compile sequence.
	Build(ctx context.Context, layout Layout) error

	// Package copies artifacts into the package folder and prunes files
	// that must not ship. Pruning is idempotent: a missing file during
	// removal is success.
	Package(ctx context.Context, layout Layout) error

	// PackageInfo reports how downstream build systems consume the
	// produced artifact. Read-only once returned.
	PackageInfo(settings Settings) (*PackageInfo, error)
}
