// Package fetch downloads and unpacks upstream source archives. Downloads
// land in a per-user cache keyed by content hash, are verified against
// their declared SHA-256, and are then extracted into the recipe's source
// folder. A failed download or a digest mismatch is fatal; this layer
// never retries.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/hashicorp/go-hclog"

	"github.com/packsmith/speexpkg/pkg/recipe"
)

// Source describes one downloadable origin of a package version.
type Source struct {
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256"`
}

// CacheDir returns the download cache directory. SPEEXPKG_CACHE_DIR
// overrides the platform default.
func CacheDir() string {
	if dir := os.Getenv("SPEEXPKG_CACHE_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(xdg.CacheHome, "speexpkg", "downloads")
}

// Get fetches src into the cache, verifies its digest, and extracts the
// archive into destDir. With stripRoot set, the archive's single
// top-level directory is dropped so destDir itself becomes the source
// root.
func Get(ctx context.Context, logger hclog.Logger, src Source, destDir string, stripRoot bool) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	archive, err := download(ctx, logger, src)
	if err != nil {
		return err
	}

	logger.Debug("📂 Extracting archive", "archive", archive, "dest", destDir, "strip_root", stripRoot)
	if err := Extract(archive, destDir, stripRoot); err != nil {
		return fmt.Errorf("%w: extracting %s: %v", recipe.ErrFetch, filepath.Base(archive), err)
	}
	return nil
}

// download returns the path of the verified archive in the cache,
// fetching it when not already present.
func download(ctx context.Context, logger hclog.Logger, src Source) (string, error) {
	if src.SHA256 == "" {
		return "", fmt.Errorf("%w: no integrity descriptor for %s", recipe.ErrFetch, src.URL)
	}

	cacheDir := CacheDir()
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating cache dir: %v", recipe.ErrFetch, err)
	}

	cached := filepath.Join(cacheDir, src.SHA256+archiveExt(src.URL))
	if digest, err := fileSHA256(cached); err == nil {
		if digest == src.SHA256 {
			logger.Debug("💾 Cache hit", "archive", cached)
			return cached, nil
		}
		// Stale or truncated cache entry, refetch.
		os.Remove(cached)
	}

	logger.Info("⬇️ Downloading", "url", src.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request for %s: %v", recipe.ErrFetch, src.URL, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: downloading %s: %v", recipe.ErrFetch, src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: downloading %s: status %s", recipe.ErrFetch, src.URL, resp.Status)
	}

	tmp, err := os.CreateTemp(cacheDir, "partial-*")
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file: %v", recipe.ErrFetch, err)
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("%w: downloading %s: %v", recipe.ErrFetch, src.URL, err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	if digest != src.SHA256 {
		return "", fmt.Errorf("%w: %s digest mismatch: got %s, want %s", recipe.ErrFetch, src.URL, digest, src.SHA256)
	}

	if err := os.Rename(tmp.Name(), cached); err != nil {
		return "", fmt.Errorf("%w: caching download: %v", recipe.ErrFetch, err)
	}

	logger.Debug("✅ Download verified", "size", size, "sha256", digest)
	return cached, nil
}

// archiveExt preserves the archive suffix so extraction can pick the
// right decompressor for a cache entry.
func archiveExt(url string) string {
	for _, ext := range []string{".tar.gz", ".tgz", ".tar.bz2", ".tar"} {
		if strings.HasSuffix(url, ext) {
			return ext
		}
	}
	return filepath.Ext(url)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
