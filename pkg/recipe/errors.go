package recipe

import "errors"

var (
	// Configuration errors 🔧
	ErrConfiguration = errors.New("❌ invalid option configuration")

	// Acquisition errors ⬇️
	ErrFetch = errors.New("❌ source fetch failed")

	// Tool errors 🧰
	ErrToolMissing = errors.New("❌ required build tool unavailable")

	// Build errors 🔨
	ErrBuild = errors.New("❌ build failed")

	// Packaging errors 📦
	ErrPackaging = errors.New("❌ packaging failed")
)
