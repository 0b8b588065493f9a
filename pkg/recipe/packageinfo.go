package recipe

// PackageInfo is the exported link/compile metadata of a finished package.
// Downstream build systems consume it; the recipe that produced it never
// reads it back.
type PackageInfo struct {
	// Libs are the link names of the libraries this package provides.
	Libs []string

	// SystemLibs are additional system libraries the target platform
	// requires when linking against this package.
	SystemLibs []string

	// Properties carries build-system naming: pkg_config_name,
	// cmake_file_name, cmake_target_name.
	Properties map[string]string
}
