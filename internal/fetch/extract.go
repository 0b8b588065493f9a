package fetch

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

// Extract unpacks a tar archive (plain, gzip, or bzip2 compressed) into
// destDir. With stripRoot set, the leading path element of every entry is
// dropped, flattening the conventional name-version wrapper directory
// upstream tarballs carry.
func Extract(archive, destDir string, stripRoot bool) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archive, err)
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case strings.HasSuffix(archive, ".tar.bz2"):
		bz, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
		if err != nil {
			return fmt.Errorf("bzip2 reader: %w", err)
		}
		defer bz.Close()
		reader = bz
	case strings.HasSuffix(archive, ".tar"):
		// Plain tar, no decompression.
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archive))
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", destDir, err)
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}

		name, ok := entryPath(header.Name, stripRoot)
		if !ok {
			continue
		}

		target, err := secureJoin(destDir, name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating dir %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
		case tar.TypeSymlink:
			if strings.HasPrefix(header.Linkname, "/") || strings.Contains(header.Linkname, "..") {
				return fmt.Errorf("refusing symlink %s -> %s", name, header.Linkname)
			}
			os.Remove(target)
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating dir for %s: %w", name, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("symlink %s: %w", name, err)
			}
		default:
			// Character devices, fifos and friends never appear in
			// source tarballs worth building; skip them.
		}
	}
}

// entryPath normalizes a tar entry name, optionally dropping the leading
// path element. The second return is false when the entry has nothing
// left after stripping (the wrapper directory itself).
func entryPath(name string, stripRoot bool) (string, bool) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	if name == "" || name == "." {
		return "", false
	}
	if stripRoot {
		parts := strings.SplitN(name, "/", 2)
		if len(parts) < 2 || parts[1] == "" {
			return "", false
		}
		name = parts[1]
	}
	return name, true
}

// secureJoin joins dir and name, rejecting entries that would escape dir.
func secureJoin(dir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("refusing absolute entry %s", name)
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("refusing entry escaping archive root: %s", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
