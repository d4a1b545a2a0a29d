// Package archive writes and reads back the per-bundle zip archives.
//
// Files are stored flat under their base name; the directory structure of
// the inputs is not preserved. When two inputs share a base name the last
// one wins, matching what an overwrite-in-place zip writer would produce.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Error describes a failed archive operation.
type Error struct {
	Op   string // "create", "add", "close", "open", "extract"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Build creates (or truncates) archivePath and stores every file in files
// under its base name. Parent directories of archivePath are created.
// It returns the number of entries written.
func Build(archivePath string, files []string) (n int, err error) {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return 0, &Error{Op: "create", Path: archivePath, Err: err}
	}

	// Later duplicates replace earlier ones but keep the first position.
	var order []string
	byName := make(map[string]string, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		byName[name] = f
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return 0, &Error{Op: "create", Path: archivePath, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &Error{Op: "close", Path: archivePath, Err: cerr}
		}
	}()

	zw := zip.NewWriter(out)
	for _, name := range order {
		if err := addFile(zw, name, byName[name]); err != nil {
			zw.Close()
			return 0, &Error{Op: "add", Path: byName[name], Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return 0, &Error{Op: "close", Path: archivePath, Err: err}
	}
	return len(order), nil
}

func addFile(zw *zip.Writer, name, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// List returns the entry names of an archive in stored order.
func List(archivePath string) ([]string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &Error{Op: "open", Path: archivePath, Err: err}
	}
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Extract unpacks archivePath into dir and returns the written paths.
// Entries that would land outside dir are rejected.
func Extract(archivePath, dir string) ([]string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &Error{Op: "open", Path: archivePath, Err: err}
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Op: "extract", Path: dir, Err: err}
	}

	var written []string
	for _, f := range zr.File {
		dest := filepath.Join(dir, f.Name)
		if !strings.HasPrefix(dest, filepath.Clean(dir)+string(filepath.Separator)) {
			return written, &Error{Op: "extract", Path: f.Name, Err: errors.New("entry escapes destination")}
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractFile(f, dest); err != nil {
			return written, &Error{Op: "extract", Path: f.Name, Err: err}
		}
		written = append(written, dest)
	}
	return written, nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
