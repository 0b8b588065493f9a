package meson

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/renameio/v2"
)

// Toolchain describes the build environment for one invocation: built-in
// meson options derived from the target settings plus per-project options
// the recipe sets. It renders as a meson native machine file. A Toolchain
// lives for one build and is discarded afterwards.
type Toolchain struct {
	BuildType      string // meson buildtype: "release", "debug"
	DefaultLibrary string // "shared" or "static"

	// StaticPIC maps to b_staticpic. Nil leaves the option out entirely,
	// which is the case on targets where PIC is meaningless or implied.
	StaticPIC *bool

	// ProjectOptions are -D style project options, e.g. disabling the
	// wrapped library's optional tools.
	ProjectOptions map[string]string
}

// Render produces the native file contents. Output is deterministic:
// project options are emitted in sorted order.
func (t *Toolchain) Render() []byte {
	var buf bytes.Buffer

	buf.WriteString("[built-in options]\n")
	fmt.Fprintf(&buf, "buildtype = '%s'\n", t.BuildType)
	fmt.Fprintf(&buf, "default_library = '%s'\n", t.DefaultLibrary)
	if t.StaticPIC != nil {
		fmt.Fprintf(&buf, "b_staticpic = %t\n", *t.StaticPIC)
	}

	if len(t.ProjectOptions) > 0 {
		buf.WriteString("\n[project options]\n")
		names := make([]string, 0, len(t.ProjectOptions))
		for name := range t.ProjectOptions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&buf, "%s = '%s'\n", name, t.ProjectOptions[name])
		}
	}

	return buf.Bytes()
}

// WriteFile atomically writes the rendered native file to path.
func (t *Toolchain) WriteFile(path string) error {
	if err := renameio.WriteFile(path, t.Render(), 0644); err != nil {
		return fmt.Errorf("writing native file %s: %w", path, err)
	}
	return nil
}
