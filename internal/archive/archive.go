// Package archive unpacks the zipped sponsor databases.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafeArchivePath is returned for an archive entry that would be
// written outside the extraction root.
var ErrUnsafeArchivePath = errors.New("archive entry escapes extraction root")

// ExtractAll finds every .zip file under root and extracts it into root
// itself, overwriting existing files. It returns the number of archives
// extracted.
func ExtractAll(root string) (int, error) {
	var archives []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip") {
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning %s: %w", root, err)
	}

	for i, a := range archives {
		if err := Extract(a, root); err != nil {
			return i, err
		}
	}
	return len(archives), nil
}

// Extract unpacks the archive at path into dest.
func Extract(path, dest string) error {
	zr, err := zip.OpenReader(path)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return fmt.Errorf("%w: %s: %v", ErrUnsafeArchivePath, path, err)
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := extractFile(f, dest); err != nil {
			return fmt.Errorf("extracting %s from %s: %w", f.Name, path, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	target, err := safeJoin(dest, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if !f.Mode().IsRegular() {
		// Symlinks and devices are skipped.
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// safeJoin joins name onto dest, rejecting names that resolve outside dest.
func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}
	return target, nil
}
