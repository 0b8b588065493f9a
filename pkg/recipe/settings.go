package recipe

// Compiler describes the compiler half of the target settings. Fields a
// recipe does not care about are cleared during option configuration.
type Compiler struct {
	Name   string
	Libcxx string
	Cppstd string
}

// Settings is the target description handed to every lifecycle phase.
// It is built once by the orchestrator and treated as read-only input;
// recipes that need adjustments keep their own copy.
type Settings struct {
	OS        string // "Linux", "Windows", "Macos", "FreeBSD"
	Arch      string // "x86_64", "armv8", ...
	BuildType string // "Release" or "Debug"
	Compiler  Compiler
}

// WithoutCompilerExtras returns a copy with the C++-only compiler settings
// cleared. Pure C packages use this so libcxx/cppstd never leak into the
// generated build environment.
func (s Settings) WithoutCompilerExtras() Settings {
	s.Compiler.Libcxx = ""
	s.Compiler.Cppstd = ""
	return s
}
