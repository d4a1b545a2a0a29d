// Package extract pulls source/target string pairs out of XLIFF
// translation files with a line-oriented scan.
//
// The scan does not parse XML. A line containing <source> opens a key and
// a line containing <target> adds a value for the open key; the text of
// either is the CDATA slice of the line:
//
//	<source><![CDATA[Hello]]></source>
//	<target><![CDATA[Bonjour]]></target>
//
// Files are named <domain>.<language>.xliff, optionally with extra
// segments between domain and language (messages.core.fr.xliff).
package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"

	sourceTag = "<source>"
	targetTag = "<target>"
)

// ErrKeyNotFound is matched by KeyNotFoundError via errors.Is.
var ErrKeyNotFound = errors.New("target without preceding source")

// ErrBadFileName reports a translation file name without a language segment.
var ErrBadFileName = errors.New("file name is not <domain>.<language>.<ext>")

// KeyNotFoundError is returned when a <target> line appears before any
// <source> line of the same file.
type KeyNotFoundError struct {
	File string
	Line int
}

func (e *KeyNotFoundError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %v", e.Line, ErrKeyNotFound)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, ErrKeyNotFound)
}

func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// Kind tells a source line from a target line.
type Kind int

const (
	Source Kind = iota
	Target
)

func (k Kind) String() string {
	if k == Source {
		return "source"
	}
	return "target"
}

// Token is one tagged line of a translation file.
type Token struct {
	Kind  Kind
	Value string
	Line  int // 1-based
}

// Record is one translated string. A source line that is never followed
// by a target yields a record with Untranslated set and an empty Value,
// so the key still gets a row.
type Record struct {
	Key          string
	Value        string
	Domain       string
	Language     string
	Line         int
	Untranslated bool
}

// Slice returns the text strictly between the first "<![CDATA[" and the
// next "]]>" of line. Without an opening marker the search starts at 0;
// without a closing marker the result is empty.
func Slice(line string) string {
	start := 0
	if i := strings.Index(line, cdataOpen); i >= 0 {
		start = i + len(cdataOpen)
	}
	end := strings.Index(line[start:], cdataClose)
	if end < 0 {
		return ""
	}
	return line[start : start+end]
}

// Tokens lazily scans r and yields a token for every line that contains
// <source> or <target>. Lines end at "\n", "\r\n" or a bare "\r" and have
// no length limit. A line containing both tags counts as a source line.
// A read error is yielded once and ends the sequence.
func Tokens(r io.Reader) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		br := bufio.NewReader(r)

		for n := 1; ; n++ {
			line, ok, err := readLine(br)
			if err != nil {
				yield(Token{}, err)
				return
			}
			if !ok {
				return
			}

			var tok Token
			switch {
			case strings.Contains(line, sourceTag):
				tok = Token{Kind: Source, Value: Slice(line), Line: n}
			case strings.Contains(line, targetTag):
				tok = Token{Kind: Target, Value: Slice(line), Line: n}
			default:
				continue
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// readLine returns the next line of br without its terminator. ok is false
// once br is exhausted.
func readLine(br *bufio.Reader) (line string, ok bool, err error) {
	var sb strings.Builder
	for {
		c, err := br.ReadByte()
		switch {
		case err == io.EOF:
			return sb.String(), sb.Len() > 0, nil
		case err != nil:
			return "", false, err
		case c == '\n':
			return sb.String(), true, nil
		case c == '\r':
			if next, err := br.Peek(1); err == nil && next[0] == '\n' {
				br.Discard(1)
			}
			return sb.String(), true, nil
		}
		sb.WriteByte(c)
	}
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

// Records extracts every (key, value) pair of one file. Repeated pairs for
// the same key are all kept, in file order.
func Records(domain, language string, r io.Reader) ([]Record, error) {
	var (
		records []Record
		key     string
		keyLine int
		haveKey bool
		used    bool
	)
	untranslated := func() {
		if haveKey && !used {
			records = append(records, Record{
				Key:          key,
				Domain:       domain,
				Language:     language,
				Line:         keyLine,
				Untranslated: true,
			})
		}
	}

	for tok, err := range Tokens(r) {
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case Source:
			untranslated()
			key, keyLine, haveKey, used = tok.Value, tok.Line, true, false
		case Target:
			if !haveKey {
				return nil, &KeyNotFoundError{Line: tok.Line}
			}
			used = true
			records = append(records, Record{
				Key:      key,
				Value:    tok.Value,
				Domain:   domain,
				Language: language,
				Line:     tok.Line,
			})
		}
	}
	untranslated()
	return records, nil
}

// File opens path, derives domain and language from its name and
// extracts its records.
func File(path string) ([]Record, error) {
	domain, language, err := ParseName(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := Records(domain, language, f)
	if err != nil {
		var knf *KeyNotFoundError
		if errors.As(err, &knf) {
			knf.File = path
			return nil, knf
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// ParseName splits a base name such as messages.fr.xliff or
// messages.core.fr.xliff into its domain (first segment) and language
// (segment before the extension).
func ParseName(base string) (domain, language string, err error) {
	parts := strings.Split(base, ".")
	if len(parts) < 3 || parts[0] == "" || parts[len(parts)-2] == "" {
		return "", "", fmt.Errorf("%q: %w", base, ErrBadFileName)
	}
	return parts[0], parts[len(parts)-2], nil
}
