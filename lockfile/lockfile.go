// Package lockfile implements xliffbook.lock, a YAML ledger of the last
// run: for every bundle, the MD5 checksum of each input file and whether
// the bundle was exported successfully.
//
// The ledger is informational. Every run processes every bundle; the
// checksums only let the driver report which bundles changed since the
// previous run.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Version is the lock file format version.
const Version = 1

// Bundle status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the xliffbook.lock file structure.
type LockFile struct {
	Version int               `yaml:"version"`
	Bundles map[string]*Entry `yaml:"bundles"`

	path string `yaml:"-"`
}

// Entry is the ledger record of one bundle.
type Entry struct {
	Dir       string            `yaml:"dir"`
	Status    string            `yaml:"status"`
	Stage     string            `yaml:"stage,omitempty"`
	Error     string            `yaml:"error,omitempty"`
	Archive   string            `yaml:"archive,omitempty"`
	Table     string            `yaml:"table,omitempty"`
	Checksums map[string]string `yaml:"checksums"` // file -> md5
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// New returns an empty lock file that will be saved to path.
func New(path string) *LockFile {
	return &LockFile{
		Version: Version,
		Bundles: make(map[string]*Entry),
		path:    path,
	}
}

// Load reads the lock file at path.
// Returns an empty lock file if the file doesn't exist.
func Load(path string) (*LockFile, error) {
	lf := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Bundles == nil {
		lf.Bundles = make(map[string]*Entry)
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if dir := filepath.Dir(lf.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(lf.path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a byte slice.
func Hash(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// HashFile computes the MD5 hex digest of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileKey builds the checksum key for a file: its slash-separated path.
func FileKey(path string) string {
	return filepath.ToSlash(path)
}

// Checksums hashes every file. Unreadable files are reported as errors.
func Checksums(files []string) (map[string]string, error) {
	sums := make(map[string]string, len(files))
	for _, f := range files {
		sum, err := HashFile(f)
		if err != nil {
			return nil, err
		}
		sums[FileKey(f)] = sum
	}
	return sums, nil
}

// Changed returns the keys of files that are new, modified, or no longer
// present compared with the previous run of bundle, sorted. A bundle that
// was not recorded, or failed last time, reports every file as changed.
func (lf *LockFile) Changed(bundle string, sums map[string]string) []string {
	prev, ok := lf.Bundles[bundle]

	var changed []string
	for key, sum := range sums {
		if !ok || prev.Status != StatusOK || prev.Checksums[key] != sum {
			changed = append(changed, key)
		}
	}
	if ok {
		for key := range prev.Checksums {
			if _, still := sums[key]; !still {
				changed = append(changed, key)
			}
		}
	}
	sort.Strings(changed)
	return changed
}

// Record stores the outcome of a bundle, replacing any previous entry.
func (lf *LockFile) Record(bundle string, e *Entry) {
	if e.Checksums == nil {
		e.Checksums = make(map[string]string)
	}
	lf.Bundles[bundle] = e
}

// Prune removes bundles that were not seen in the current run.
func (lf *LockFile) Prune(seen map[string]bool) {
	for name := range lf.Bundles {
		if !seen[name] {
			delete(lf.Bundles, name)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of bundles, failed bundles and files recorded.
func (lf *LockFile) Stats() (bundles, failed, files int) {
	bundles = len(lf.Bundles)
	for _, e := range lf.Bundles {
		if e.Status != StatusOK {
			failed++
		}
		files += len(e.Checksums)
	}
	return
}

// Names returns the sorted list of recorded bundle names.
func (lf *LockFile) Names() []string {
	names := make([]string, 0, len(lf.Bundles))
	for n := range lf.Bundles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	bundles, failed, files := lf.Stats()
	if bundles == 0 {
		return "empty"
	}

	var parts []string
	for _, n := range lf.Names() {
		e := lf.Bundles[n]
		parts = append(parts, fmt.Sprintf("%s: %d files, %s", n, len(e.Checksums), e.Status))
	}
	return fmt.Sprintf("%d bundles (%d failed), %d files (%s)", bundles, failed, files, strings.Join(parts, "; "))
}
