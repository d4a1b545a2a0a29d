// Package workbook combines the exported bundle tables into one .xlsx
// file, one sheet per bundle.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/minios-linux/xliffbook/table"
)

// MaxSheetName is the longest sheet name spreadsheet applications accept.
const MaxSheetName = 31

// ErrNoSheets is returned by Assemble when there is nothing to write.
var ErrNoSheets = errors.New("no sheets to write")

// Sheet names one exported CSV table.
type Sheet struct {
	Name string
	Path string
}

// Options carries optional Assemble callbacks.
type Options struct {
	// OnTruncate is called for every cell longer than excelize.TotalCellChars
	// runes. The cell is stored cut to that length.
	OnTruncate func(sheet, cell string, length int)
}

// Assemble re-reads every sheet's CSV file and writes them, in order, as
// the sheets of a new workbook at path. Row and column order are kept;
// every cell is stored as text. The header row is bold and frozen.
func Assemble(sheets []Sheet, path string, opts Options) (err error) {
	if len(sheets) == 0 {
		return ErrNoSheets
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	used := make(map[string]bool, len(sheets))
	defaultSheet := f.GetSheetName(0)
	for i, s := range sheets {
		rows, err := table.Read(s.Path)
		if err != nil {
			return err
		}

		name := SheetName(s.Name, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}

		if err := writeRows(f, name, rows, headerStyle, opts.OnTruncate); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]string, headerStyle int, onTruncate func(sheet, cell string, length int)) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
			if n := utf8.RuneCountInString(v); n > excelize.TotalCellChars && onTruncate != nil {
				long, err := excelize.CoordinatesToCellName(j+1, i+1)
				if err != nil {
					return err
				}
				onTruncate(sheet, long, n)
			}
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// SheetName turns a bundle name into a valid, unique sheet name and
// records it in used (keys are lower-cased; uniqueness is
// case-insensitive). Characters : \ / ? * [ ] become '_', surrounding
// apostrophes are dropped, the result is cut to MaxSheetName runes and
// duplicates get a "~N" suffix. An empty result becomes "Sheet".
func SheetName(name string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	base = strings.Trim(truncate(strings.Trim(base, "'"), MaxSheetName), "'")
	if strings.TrimSpace(base) == "" {
		base = "Sheet"
	}

	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := "~" + strconv.Itoa(n)
		candidate = strings.TrimRight(truncate(base, MaxSheetName-len(suffix)), "'") + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
