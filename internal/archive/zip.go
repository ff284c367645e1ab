// Package archive packages a directory into a zip file for upload.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ZipDir zips the contents of srcDir into a new file at destPath, preserving
// the folder structure as paths relative to srcDir. It refuses to overwrite:
// a pre-existing destPath is an error, before any byte is written.
func ZipDir(srcDir, destPath string, logger *slog.Logger) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("archive: output zip %s already exists; remove it to re-run", destPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("archive: checking %s: %w", destPath, err)
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("archive: creating %s: %w", destPath, err)
	}

	zw := zip.NewWriter(out)

	if err := addTree(zw, srcDir, logger); err != nil {
		zw.Close()
		out.Close()
		_ = os.Remove(destPath)

		return err
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("archive: finalizing zip: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("archive: closing %s: %w", destPath, err)
	}

	return nil
}

// addTree walks srcDir and writes every regular file into the zip under its
// relative path.
func addTree(zw *zip.Writer, srcDir string, logger *slog.Logger) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("archive: walking %s: %w", path, err)
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("archive: relativizing %s: %w", path, err)
		}

		logger.Debug("zipping file",
			slog.String("file", rel),
		)

		return addFile(zw, path, filepath.ToSlash(rel))
	})
}

// addFile deflate-compresses a single file into the zip under name.
func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive: opening %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive: adding %s: %w", name, err)
	}

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("archive: writing %s: %w", name, err)
	}

	return nil
}
