package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsmith/speexpkg/internal/meson"
	"github.com/packsmith/speexpkg/pkg/logging"
	"github.com/packsmith/speexpkg/pkg/recipe"
	"github.com/packsmith/speexpkg/pkg/recipe/speex"
)

const version = "0.2.0"

var (
	pkgVersion  string
	rootDir     string
	targetOS    string
	targetArch  string
	buildType   string
	shared      bool
	logLevel    string
	rootCmd     *cobra.Command
	versionFlag bool
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// hostOS maps the runtime OS to the settings vocabulary recipes use.
func hostOS() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows"
	case "darwin":
		return "Macos"
	case "freebsd":
		return "FreeBSD"
	default:
		return "Linux"
	}
}

// hostArch maps the runtime architecture to the settings vocabulary.
func hostArch() string {
	switch runtime.GOARCH {
	case "arm64":
		return "armv8"
	case "386":
		return "x86"
	default:
		return "x86_64"
	}
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "speexpkg",
		Short: "Build and package the speex codec library",
		Long:  `Build and package the speex codec library`,
		Run:   buildPackage,
	}

	rootCmd.Flags().StringVarP(&pkgVersion, "version", "v", "1.2.1", "speex version to build")
	rootCmd.Flags().StringVarP(&rootDir, "root", "r", ".", "Root directory for sources, build output, and the package tree")
	rootCmd.Flags().StringVar(&targetOS, "os", hostOS(), "Target OS (Linux, Windows, Macos, FreeBSD)")
	rootCmd.Flags().StringVar(&targetArch, "arch", hostArch(), "Target architecture (x86_64, armv8, x86)")
	rootCmd.Flags().StringVar(&buildType, "build-type", "Release", "Build type (Release, Debug)")
	rootCmd.Flags().BoolVar(&shared, "shared", false, "Build a shared library instead of a static one")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&versionFlag, "tool-version", "V", false, "Show tool version information")
}

func main() {
	// Handle --tool-version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--tool-version" || os.Args[1] == "-V") {
		fmt.Printf("speexpkg %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildPackage(cmd *cobra.Command, args []string) {
	if versionFlag {
		fmt.Printf("speexpkg %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		return
	}

	level := logLevel
	if level == "" {
		level = logging.GetLogLevel()
	}
	logger := logging.NewLogger("speexpkg", level, os.Stderr)

	// meson wants an absolute install prefix, so anchor the whole layout.
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		logger.Error("❌ Resolving root directory", "error", err)
		os.Exit(1)
	}

	settings := recipe.Settings{
		OS:        targetOS,
		Arch:      targetArch,
		BuildType: buildType,
	}

	r := speex.New(pkgVersion, logger)
	if err := r.Descriptor().Options.Set("shared", shared); err != nil {
		logger.Error("❌ Invalid options", "error", err)
		os.Exit(1)
	}

	tool := meson.New(logger)
	driver := recipe.NewDriver(logger, settings, absRoot, tool.CheckRequirement)

	info, err := driver.Run(context.Background(), r)
	if err != nil {
		logger.Error("❌ Build aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("📤 Package metadata",
		"libs", info.Libs,
		"system_libs", info.SystemLibs,
		"cmake_target", info.Properties["cmake_target_name"],
		"pkg_config", info.Properties["pkg_config_name"])
}
