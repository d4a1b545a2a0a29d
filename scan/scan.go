// Package scan discovers translation bundles in a directory tree.
//
// A bundle is a directory whose path ends with a fixed suffix (by default
// Bundle/Resources/translations, as in Symfony's <Name>Bundle layout) and
// that directly contains at least one messages.*.xliff file:
//
//	src/AcmeBundle/Resources/translations/messages.fr.xliff
//	src/AcmeBundle/Resources/translations/messages.de.xliff
//
// The bundle name is the path element two levels above the translations
// directory (AcmeBundle above).
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Bundle is one discovered translations directory.
type Bundle struct {
	// Name is the directory element preceding Resources/translations.
	Name string
	// Dir is the translations directory itself.
	Dir string
	// Files are the matching translation files, sorted by name.
	Files []string
}

// DirError reports a directory below the root that could not be read.
// Bundle is set when the directory itself qualified as a bundle; otherwise
// the directory was unrelated and has been skipped. A DirError never ends
// the sequence returned by Bundles.
type DirError struct {
	Path   string
	Bundle string
	Err    error
}

func (e *DirError) Error() string {
	if e.Bundle != "" {
		return fmt.Sprintf("bundle %s: %v", e.Bundle, e.Err)
	}
	return fmt.Sprintf("skipping %s: %v", e.Path, e.Err)
}

func (e *DirError) Unwrap() error { return e.Err }

// Options controls which directories and files qualify.
type Options struct {
	// Suffix is the slash-separated tail a directory path must end with.
	Suffix string
	// Prefix and Ext select translation files by base name.
	Prefix string
	Ext    string
	// SkipDirs are directory names that are never descended into.
	// Nothing is skipped when empty.
	SkipDirs []string
}

// DefaultOptions matches <Name>Bundle/Resources/translations/messages.*.xliff.
func DefaultOptions() Options {
	return Options{
		Suffix: "Bundle/Resources/translations",
		Prefix: "messages.",
		Ext:    ".xliff",
	}
}

// Bundles walks root and yields every qualifying bundle in lexical
// directory order. Each directory is visited once.
//
// A directory below root that cannot be read is yielded as a *DirError and
// the walk continues past it; for a qualifying directory the Bundle carries
// its Name and Dir. Failing to read root itself is yielded with a zero
// Bundle and ends the sequence.
func Bundles(root string, opts Options) iter.Seq2[Bundle, error] {
	suffix := filepath.FromSlash(opts.Suffix)
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		skip[d] = true
	}

	return func(yield func(Bundle, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				if !yield(Bundle{}, &DirError{Path: path, Err: err}) {
					stopped = true
					return filepath.SkipAll
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			if !strings.HasSuffix(path, suffix) {
				return nil
			}

			files, err := MatchFiles(path, opts.Prefix, opts.Ext)
			if err != nil {
				b := Bundle{Name: BundleName(path), Dir: path}
				if !yield(b, &DirError{Path: path, Bundle: b.Name, Err: err}) {
					stopped = true
					return filepath.SkipAll
				}
				return filepath.SkipDir
			}
			if len(files) == 0 {
				return nil
			}

			b := Bundle{Name: BundleName(path), Dir: path, Files: files}
			if !yield(b, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield(Bundle{}, fmt.Errorf("scanning %s: %w", root, err))
		}
	}
}

// Collect drains Bundles into a slice. Unreadable directories are returned
// separately; any other error stops the walk.
func Collect(root string, opts Options) ([]Bundle, []*DirError, error) {
	var (
		bundles []Bundle
		skipped []*DirError
	)
	for b, err := range Bundles(root, opts) {
		var de *DirError
		if errors.As(err, &de) {
			skipped = append(skipped, de)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, skipped, nil
}

// MatchFiles returns the non-directory entries directly inside dir whose name
// starts with prefix and ends with ext, sorted by name.
func MatchFiles(dir, prefix, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// BundleName returns the third-from-last element of a translations
// directory path, or the base name of dir when the path is too short.
func BundleName(dir string) string {
	parts := strings.Split(filepath.Clean(dir), string(filepath.Separator))
	if len(parts) < 3 {
		return filepath.Base(dir)
	}
	return parts[len(parts)-3]
}
