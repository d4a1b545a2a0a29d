package workbook

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, dir, name, content string) Sheet {
	t.Helper()
	path := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return Sheet{Name: name, Path: path}
}

func TestAssemblePreservesOrder(t *testing.T) {
	dir := t.TempDir()
	sheets := []Sheet{
		writeCSV(t, dir, "ShopBundle", "Key,Domain,fr,de\nCart,messages,Panier,Warenkorb\nPay,messages,,Zahlen\n"),
		writeCSV(t, dir, "AcmeBundle", "Key,Domain,fr\nHello,messages,Bonjour; Salut\n007,messages,0042\n"),
	}

	out := filepath.Join(dir, "out", "traductions.xlsx")
	require.NoError(t, Assemble(sheets, out, Options{}))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"ShopBundle", "AcmeBundle"}, f.GetSheetList())

	rows, err := f.GetRows("ShopBundle")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Key", "Domain", "fr", "de"},
		{"Cart", "messages", "Panier", "Warenkorb"},
		{"Pay", "messages", "", "Zahlen"},
	}, rows)

	rows, err = f.GetRows("AcmeBundle")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Key", "Domain", "fr"},
		{"Hello", "messages", "Bonjour; Salut"},
		{"007", "messages", "0042"},
	}, rows)
}

func TestAssembleSanitizesSheetNames(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("Very", 10) + "Bundle"
	sheets := []Sheet{
		writeCSV(t, dir, "a", "Key,Domain\n"),
		writeCSV(t, dir, "b", "Key,Domain\n"),
	}
	sheets[0].Name = long
	sheets[1].Name = long

	out := filepath.Join(dir, "book.xlsx")
	require.NoError(t, Assemble(sheets, out, Options{}))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	names := f.GetSheetList()
	require.Len(t, names, 2)
	assert.Equal(t, long[:MaxSheetName], names[0])
	assert.Equal(t, long[:MaxSheetName-2]+"~2", names[1])
}

func TestAssembleNoSheets(t *testing.T) {
	out := filepath.Join(t.TempDir(), "book.xlsx")
	err := Assemble(nil, out, Options{})
	assert.True(t, errors.Is(err, ErrNoSheets))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no workbook should be written")
}

func TestAssembleMissingCSV(t *testing.T) {
	dir := t.TempDir()
	err := Assemble([]Sheet{{Name: "X", Path: filepath.Join(dir, "missing.csv")}}, filepath.Join(dir, "book.xlsx"), Options{})
	require.Error(t, err)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	tests := []struct {
		in   string
		want string
	}{
		{"AcmeBundle", "AcmeBundle"},
		{"acmebundle", "acmebundle~2"},
		{"Acme:Bundle/[x]?*", "Acme_Bundle__x___"},
		{"'Quoted'", "Quoted"},
		{"", "Sheet"},
		{"'", "Sheet~2"},
	}
	for _, tc := range tests {
		if got := SheetName(tc.in, used); got != tc.want {
			t.Fatalf("SheetName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("é", 40)
	got := SheetName(long, used)
	assert.Equal(t, MaxSheetName, utf8.RuneCountInString(got))
}

func TestAssembleReportsTruncatedCells(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("é", excelize.TotalCellChars+10)
	sheets := []Sheet{
		writeCSV(t, dir, "AcmeBundle", "Key,Domain,fr\nHello,messages,"+long+"\nBye,messages,Au revoir\n"),
	}

	type truncation struct {
		sheet, cell string
		length      int
	}
	var got []truncation
	out := filepath.Join(dir, "traductions.xlsx")
	require.NoError(t, Assemble(sheets, out, Options{
		OnTruncate: func(sheet, cell string, length int) {
			got = append(got, truncation{sheet, cell, length})
		},
	}))
	assert.Equal(t, []truncation{{"AcmeBundle", "C2", excelize.TotalCellChars + 10}}, got)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("AcmeBundle", "C2")
	require.NoError(t, err)
	assert.Equal(t, excelize.TotalCellChars, utf8.RuneCountInString(v))
}
