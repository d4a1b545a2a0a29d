// Package config loads xliffbook settings from an optional .xliffbook.yaml
// file in the working directory, overridden by XLIFFBOOK_* environment
// variables. Every setting has a default, so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// FileName is the default config file name.
const FileName = ".xliffbook.yaml"

// Config holds output locations and the bundle matching rules.
type Config struct {
	// ZipDir receives one <bundle>.zip per discovered bundle.
	ZipDir string `yaml:"zip_dir" env:"XLIFFBOOK_ZIP_DIR" env-default:"zips"`
	// CSVDir receives one <bundle>.csv per discovered bundle.
	CSVDir string `yaml:"csv_dir" env:"XLIFFBOOK_CSV_DIR" env-default:"csv"`
	// Workbook is the combined spreadsheet written after all bundles.
	Workbook string `yaml:"workbook" env:"XLIFFBOOK_WORKBOOK" env-default:"traductions.xlsx"`
	// LockFile records input checksums and bundle status of the last run.
	LockFile string `yaml:"lock_file" env:"XLIFFBOOK_LOCK_FILE" env-default:"xliffbook.lock"`

	// BundleSuffix is the slash-separated tail a translations directory must end with.
	BundleSuffix string `yaml:"bundle_suffix" env:"XLIFFBOOK_BUNDLE_SUFFIX" env-default:"Bundle/Resources/translations"`
	// FilePrefix and FileExt select the translation files inside a bundle.
	FilePrefix string `yaml:"file_prefix" env:"XLIFFBOOK_FILE_PREFIX" env-default:"messages."`
	FileExt    string `yaml:"file_ext"    env:"XLIFFBOOK_FILE_EXT"    env-default:".xliff"`
	// SkipDirs are directory names never descended into. Empty by default,
	// so every directory under the root is visited.
	SkipDirs []string `yaml:"skip_dirs" env:"XLIFFBOOK_SKIP_DIRS" env-separator:","`
}

// Load reads dir/.xliffbook.yaml if it exists, then applies environment
// overrides and defaults. Priority: ENV > YAML > defaults.
func Load(dir string) (*Config, error) {
	var cfg Config

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when neither a file nor
// environment overrides are present.
func Default() *Config {
	return &Config{
		ZipDir:       "zips",
		CSVDir:       "csv",
		Workbook:     "traductions.xlsx",
		LockFile:     "xliffbook.lock",
		BundleSuffix: "Bundle/Resources/translations",
		FilePrefix:   "messages.",
		FileExt:      ".xliff",
	}
}

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	required := map[string]string{
		"zip_dir":       c.ZipDir,
		"csv_dir":       c.CSVDir,
		"workbook":      c.Workbook,
		"lock_file":     c.LockFile,
		"bundle_suffix": c.BundleSuffix,
		"file_prefix":   c.FilePrefix,
		"file_ext":      c.FileExt,
	}
	for _, name := range []string{"zip_dir", "csv_dir", "workbook", "lock_file", "bundle_suffix", "file_prefix", "file_ext"} {
		if strings.TrimSpace(required[name]) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	if strings.HasPrefix(c.BundleSuffix, "/") || strings.HasSuffix(c.BundleSuffix, "/") {
		return fmt.Errorf("bundle_suffix %q must not start or end with '/'", c.BundleSuffix)
	}
	if !strings.HasPrefix(c.FileExt, ".") {
		return fmt.Errorf("file_ext %q must start with '.'", c.FileExt)
	}
	return nil
}

// SuffixPath returns BundleSuffix using the platform path separator.
func (c *Config) SuffixPath() string {
	return filepath.FromSlash(c.BundleSuffix)
}
