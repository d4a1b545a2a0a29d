// Package merge folds extracted records of one bundle into a table with
// one row per key and one column per language.
//
// Keys are compared by exact string equality. The first record seen for a
// key fixes its domain. Several values for the same (key, language) are
// kept in encounter order and rendered joined by "; ".
package merge

import (
	"strings"

	"github.com/minios-linux/xliffbook/extract"
)

// Separator joins repeated values of one cell.
const Separator = "; "

// Row is one aggregated key.
type Row struct {
	Key    string
	Domain string
	// Values holds every value seen per language, in encounter order.
	Values map[string][]string
}

// Cell returns the rendered value of lang: all values joined by
// Separator, or "" when the key has no value in that language.
func (r *Row) Cell(lang string) string {
	return strings.Join(r.Values[lang], Separator)
}

// Table is the aggregated content of one bundle.
type Table struct {
	Bundle string
	// Languages is the union of languages in first-appearance order.
	Languages []string
	// Rows are ordered by first appearance of their key.
	Rows []*Row
}

// Header returns Key, Domain, then every language.
func (t *Table) Header() []string {
	return append([]string{"Key", "Domain"}, t.Languages...)
}

// Records renders the table body, one slice per row aligned with Header.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make([]string, 0, 2+len(t.Languages))
		rec = append(rec, r.Key, r.Domain)
		for _, lang := range t.Languages {
			rec = append(rec, r.Cell(lang))
		}
		out = append(out, rec)
	}
	return out
}

// Row looks up a row by key.
func (t *Table) Row(key string) (*Row, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return nil, false
}

// Aggregator accumulates the records of a single bundle.
type Aggregator struct {
	table *Table
	byKey map[string]*Row
	langs map[string]bool
}

// New returns an empty aggregator for bundle.
func New(bundle string) *Aggregator {
	return &Aggregator{
		table: &Table{Bundle: bundle},
		byKey: make(map[string]*Row),
		langs: make(map[string]bool),
	}
}

// Add merges records into the table.
func (a *Aggregator) Add(records ...extract.Record) {
	for _, rec := range records {
		row, ok := a.byKey[rec.Key]
		if !ok {
			row = &Row{Key: rec.Key, Domain: rec.Domain, Values: make(map[string][]string)}
			a.byKey[rec.Key] = row
			a.table.Rows = append(a.table.Rows, row)
		}
		if rec.Untranslated {
			continue
		}
		if !a.langs[rec.Language] {
			a.langs[rec.Language] = true
			a.table.Languages = append(a.table.Languages, rec.Language)
		}
		row.Values[rec.Language] = append(row.Values[rec.Language], rec.Value)
	}
}

// Table returns the accumulated table. It stays owned by the aggregator;
// later Add calls are reflected in it.
func (a *Aggregator) Table() *Table {
	return a.table
}

// Bundle extracts every file of a bundle in order and aggregates the
// result. The first extraction error aborts the bundle.
func Bundle(name string, files []string) (*Table, error) {
	agg := New(name)
	for _, path := range files {
		records, err := extract.File(path)
		if err != nil {
			return nil, err
		}
		agg.Add(records...)
	}
	return agg.Table(), nil
}
