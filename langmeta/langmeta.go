// Package langmeta resolves the language segment of a translation file
// name (fr, de_CH, pt-BR) to a BCP 47 tag and its native display name,
// for progress output. Table headers keep the raw segment.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the segment as it appears in the file name.
	Code string
	// Tag is the canonical BCP 47 form, empty when Code does not parse.
	Tag string
	// Name is the language's name in itself ("français"), or Code.
	Name string
	// Valid reports whether Code parsed as a language tag.
	Valid bool
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, accepting
// both pt_BR and pt-BR forms.
func Resolve(code string) Meta {
	m := Meta{Code: code, Name: code}
	normalized := canonicalize(code)
	if normalized == "" {
		return m
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return m
	}
	m.Tag = tag.String()
	m.Valid = true
	if name := display.Self.Name(tag); name != "" {
		m.Name = name
	}
	return m
}

// Label formats a code for log lines: "fr (français)", or the bare code
// when no name is known.
func Label(code string) string {
	m := Resolve(code)
	if m.Name == "" || m.Name == code {
		return code
	}
	return code + " (" + m.Name + ")"
}

// Labels applies Label to every code.
func Labels(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = Label(c)
	}
	return out
}
