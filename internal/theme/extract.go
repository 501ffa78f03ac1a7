package theme

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

//go:embed assets/default_theme.zip
var defaultArchive []byte

var ErrUnsafeArchive = errors.New("archive entry escapes the target folder")

// EnsureDefault extracts the embedded default theme into themesDir unless a
// usable copy is already there.
func EnsureDefault(themesDir string) error {
	dest := filepath.Join(themesDir, DefaultName)
	if _, err := os.Stat(filepath.Join(dest, metadataFile)); err == nil {
		return nil
	}

	if err := os.MkdirAll(themesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create themes folder: %w", err)
	}

	// Staged next to dest; dest only ever holds a complete theme.
	staging, err := os.MkdirTemp(themesDir, ".default-*")
	if err != nil {
		return fmt.Errorf("failed to create staging folder: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	if err := Extract(bytes.NewReader(defaultArchive), int64(len(defaultArchive)), staging); err != nil {
		return fmt.Errorf("unable to extract default theme: %w", err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to clear default theme folder: %w", err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return fmt.Errorf("failed to install default theme: %w", err)
	}

	slog.Info("Extracted default theme", "folder", dest)
	return nil
}

// Extract unpacks a zip archive into dest. Entries that would land outside
// dest are rejected before anything is written for them.
func Extract(r io.ReaderAt, size int64, dest string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("%w: %s", ErrUnsafeArchive, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
