// Package pipeline drives a full xliffbook run:
//
//	Scanning → per bundle (Archiving → Extracting → Aggregating → Exporting)
//	→ Assembling → Done
//
// A failure inside one bundle is recorded and logged, and the run moves on
// to the next bundle. A bundle directory that cannot be read counts as that
// bundle's failure; other unreadable directories are skipped with a warning.
// Failing to walk the root and workbook assembly failures end the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/minios-linux/xliffbook/archive"
	"github.com/minios-linux/xliffbook/config"
	"github.com/minios-linux/xliffbook/langmeta"
	"github.com/minios-linux/xliffbook/lockfile"
	"github.com/minios-linux/xliffbook/merge"
	"github.com/minios-linux/xliffbook/scan"
	"github.com/minios-linux/xliffbook/table"
	"github.com/minios-linux/xliffbook/workbook"
)

// Stage names a step of the run.
type Stage string

const (
	StageScanning    Stage = "scanning"
	StageArchiving   Stage = "archiving"
	StageExtracting  Stage = "extracting"
	StageAggregating Stage = "aggregating"
	StageExporting   Stage = "exporting"
	StageAssembling  Stage = "assembling"
)

// BundleError is a failure confined to one bundle.
type BundleError struct {
	Bundle string
	Dir    string
	Stage  Stage
	Err    error
}

func (e *BundleError) Error() string {
	return fmt.Sprintf("bundle %s: %s: %v", e.Bundle, e.Stage, e.Err)
}

func (e *BundleError) Unwrap() error { return e.Err }

// Options carries the progress callbacks. Nil callbacks are skipped.
type Options struct {
	// OnLog reports ordinary progress.
	OnLog func(format string, args ...any)
	// OnSuccess reports a completed artifact (archive, table, workbook).
	OnSuccess func(format string, args ...any)
	// OnWarning reports a non-fatal oddity.
	OnWarning func(format string, args ...any)
	// OnError reports a bundle failure; the run continues.
	OnError func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o Options) successf(format string, args ...any) {
	if o.OnSuccess != nil {
		o.OnSuccess(format, args...)
	} else {
		o.logf(format, args...)
	}
}

func (o Options) warnf(format string, args ...any) {
	if o.OnWarning != nil {
		o.OnWarning(format, args...)
	} else {
		o.logf(format, args...)
	}
}

func (o Options) errorf(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else {
		o.logf(format, args...)
	}
}

// BundleResult describes one successfully exported bundle.
type BundleResult struct {
	Name      string
	Dir       string
	Files     []string
	Archive   string
	Entries   int
	Table     string
	Keys      int
	Languages []string
	// Changed lists inputs that differ from the previous run's ledger.
	Changed []string
}

// Report summarises a run.
type Report struct {
	Bundles []BundleResult
	Failed  []*BundleError
	// Workbook is the written workbook path, empty when no bundle was exported.
	Workbook string
}

// OK reports whether every discovered bundle was exported.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Run scans root and processes every bundle according to cfg.
// The returned error is fatal (scan, cancellation or workbook assembly);
// per-bundle failures are only listed in the report.
func Run(ctx context.Context, cfg *config.Config, root string, opts Options) (*Report, error) {
	report := &Report{}

	ledger, err := lockfile.Load(cfg.LockFile)
	if err != nil {
		opts.warnf("Ignoring unreadable lock file: %v", err)
		ledger = lockfile.New(cfg.LockFile)
	}

	scanOpts := scan.Options{
		Suffix:   cfg.BundleSuffix,
		Prefix:   cfg.FilePrefix,
		Ext:      cfg.FileExt,
		SkipDirs: cfg.SkipDirs,
	}

	var sheets []workbook.Sheet
	sheetIndex := make(map[string]int)
	seen := make(map[string]bool)

	fail := func(berr *BundleError) {
		report.Failed = append(report.Failed, berr)
		opts.errorf("%v", berr)
		ledger.Record(berr.Bundle, &lockfile.Entry{
			Dir:    berr.Dir,
			Status: lockfile.StatusFailed,
			Stage:  string(berr.Stage),
			Error:  berr.Err.Error(),
		})
	}

	for b, err := range scan.Bundles(root, scanOpts) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		var dirErr *scan.DirError
		switch {
		case errors.As(err, &dirErr) && dirErr.Bundle == "":
			opts.warnf("Skipping unreadable directory %s: %v", dirErr.Path, dirErr.Err)
			continue
		case errors.As(err, &dirErr):
			seen[b.Name] = true
			fail(&BundleError{Bundle: b.Name, Dir: b.Dir, Stage: StageScanning, Err: dirErr.Err})
			continue
		case err != nil:
			return report, fmt.Errorf("%s: %w", StageScanning, err)
		}

		if seen[b.Name] {
			opts.warnf("Bundle name %s seen again at %s; its outputs replace the earlier ones", b.Name, b.Dir)
		}
		seen[b.Name] = true

		res, berr := processBundle(cfg, ledger, b, opts)
		if berr != nil {
			fail(berr)
			continue
		}

		report.Bundles = append(report.Bundles, *res)
		sheet := workbook.Sheet{Name: res.Name, Path: res.Table}
		if i, ok := sheetIndex[res.Name]; ok {
			sheets[i] = sheet
		} else {
			sheetIndex[res.Name] = len(sheets)
			sheets = append(sheets, sheet)
		}
	}

	ledger.Prune(seen)
	if err := ledger.Save(); err != nil {
		opts.warnf("Could not save lock file: %v", err)
	} else {
		opts.logf("Updated %s: %s", ledger.Path(), ledger.Summary())
	}

	err = workbook.Assemble(sheets, cfg.Workbook, workbook.Options{
		OnTruncate: func(sheet, cell string, length int) {
			opts.warnf("%s!%s: %d characters truncated to %d", sheet, cell, length, excelize.TotalCellChars)
		},
	})
	switch {
	case errors.Is(err, workbook.ErrNoSheets):
		opts.warnf("No bundle exported under %s; %s not written", root, cfg.Workbook)
		return report, nil
	case err != nil:
		return report, fmt.Errorf("%s: %w", StageAssembling, err)
	}
	report.Workbook = cfg.Workbook
	opts.successf("Created %s with %d sheets.", cfg.Workbook, len(sheets))
	return report, nil
}

func processBundle(cfg *config.Config, ledger *lockfile.LockFile, b scan.Bundle, opts Options) (*BundleResult, *BundleError) {
	fail := func(stage Stage, err error) *BundleError {
		return &BundleError{Bundle: b.Name, Dir: b.Dir, Stage: stage, Err: err}
	}

	res := &BundleResult{Name: b.Name, Dir: b.Dir, Files: b.Files}

	// Archiving
	res.Archive = filepath.Join(cfg.ZipDir, b.Name+".zip")
	n, err := archive.Build(res.Archive, b.Files)
	if err != nil {
		return nil, fail(StageArchiving, err)
	}
	res.Entries = n
	opts.successf("Created %s with %d files.", res.Archive, len(b.Files))

	sums, err := lockfile.Checksums(b.Files)
	if err != nil {
		return nil, fail(StageArchiving, err)
	}
	res.Changed = ledger.Changed(b.Name, sums)
	if len(res.Changed) == 0 {
		opts.logf("%s unchanged since last run", b.Name)
	}

	// Extracting + Aggregating
	t, err := merge.Bundle(b.Name, b.Files)
	if err != nil {
		return nil, fail(StageExtracting, err)
	}
	res.Keys = len(t.Rows)
	res.Languages = t.Languages
	for _, lang := range t.Languages {
		if !langmeta.Resolve(lang).Valid {
			opts.warnf("%s: %q is not a known language code", b.Name, lang)
		}
	}

	// Exporting
	res.Table = filepath.Join(cfg.CSVDir, b.Name+".csv")
	if err := table.Write(t, res.Table); err != nil {
		return nil, fail(StageExporting, err)
	}
	opts.logf("Wrote %s: %d keys, languages: %s", res.Table, res.Keys, strings.Join(langmeta.Labels(t.Languages), ", "))

	ledger.Record(b.Name, &lockfile.Entry{
		Dir:       b.Dir,
		Status:    lockfile.StatusOK,
		Archive:   res.Archive,
		Table:     res.Table,
		Checksums: sums,
	})
	return res, nil
}
