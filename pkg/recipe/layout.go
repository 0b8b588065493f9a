package recipe

import "path/filepath"

// Layout fixes the directory convention for one build so every phase
// agrees on where sources, build output, generated files, and the final
// package tree live. All folders hang off a single root.
type Layout struct {
	Root          string
	SourceFolder  string
	BuildFolder   string
	PackageFolder string
}

// BasicLayout is the standard convention: sources under srcFolder, build
// output under "build" with generated files in a "generators" subfolder,
// and the package tree under "package".
func BasicLayout(root, srcFolder string) Layout {
	return Layout{
		Root:          root,
		SourceFolder:  srcFolder,
		BuildFolder:   "build",
		PackageFolder: "package",
	}
}

// SourceDir returns the absolute source folder path.
func (l Layout) SourceDir() string {
	return filepath.Join(l.Root, l.SourceFolder)
}

// BuildDir returns the absolute build folder path.
func (l Layout) BuildDir() string {
	return filepath.Join(l.Root, l.BuildFolder)
}

// GeneratorsDir returns where generated build-environment files are written.
func (l Layout) GeneratorsDir() string {
	return filepath.Join(l.BuildDir(), "generators")
}

// PackageDir returns the absolute package folder path.
func (l Layout) PackageDir() string {
	return filepath.Join(l.Root, l.PackageFolder)
}
