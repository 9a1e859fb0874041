// Package labels maps source-document field labels to canonical header
// field names. Order forms in this document family carry Hebrew labels
// whose exact spelling varies between suppliers (abbreviations, extra
// colons, bidi control characters inserted by OCR), so resolution runs
// over a normalized alias table instead of substring matching.
package labels

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Canonical header field names produced by alias resolution.
const (
	FieldCustomer    = "customer"
	FieldContact     = "contact"
	FieldOrderNumber = "order_number"
	FieldSite        = "site"
	FieldDate        = "date"
	FieldPhone       = "phone"
)

// defaultAliases lists the label spellings observed in scanned orders,
// keyed by canonical field name. Loaded tables extend this set.
var defaultAliases = map[string][]string{
	FieldCustomer:    {"לקוח", "שם לקוח", "שם הלקוח"},
	FieldContact:     {"איש קשר", "אישקשר"},
	FieldOrderNumber: {"מספר הזמנה", "מס הזמנה", "מס' הזמנה", "הזמנה מס"},
	FieldSite:        {"אתר", "שם אתר", "שם האתר"},
	FieldDate:        {"תאריך", "תאריך הזמנה"},
	FieldPhone:       {"טלפון", "טל", "טל'", "נייד"},
}

// Table resolves normalized source labels to canonical field names.
type Table struct {
	byAlias map[string]string
}

// DefaultTable builds a table from the built-in alias set.
func DefaultTable() *Table {
	t := &Table{byAlias: make(map[string]string)}
	t.add(defaultAliases)
	return t
}

// Load reads a YAML alias document (canonical name -> list of label
// variants) and merges it over the built-in table. Later entries win on
// conflicting variants.
func Load(r io.Reader) (*Table, error) {
	var doc map[string][]string
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode alias table: %w", err)
	}
	t := DefaultTable()
	t.add(doc)
	return t, nil
}

// LoadFile loads a YAML alias table from disk, merged over the built-in
// table.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alias table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (t *Table) add(aliases map[string][]string) {
	for canonical, variants := range aliases {
		// The canonical name resolves to itself so already-mapped
		// fields pass through resolution unchanged.
		t.byAlias[Normalize(canonical)] = canonical
		for _, v := range variants {
			t.byAlias[Normalize(v)] = canonical
		}
	}
}

// Resolve maps a raw source label to its canonical field name.
func (t *Table) Resolve(label string) (string, bool) {
	canonical, ok := t.byAlias[Normalize(label)]
	return canonical, ok
}

// ResolveFields rewrites the keys of a recognized header-field map to
// canonical names. Unrecognized labels are kept under their normalized
// spelling so no recognized text is dropped; when an alias and an
// already-canonical key collide, the canonical key wins.
func (t *Table) ResolveFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for label, value := range fields {
		key, ok := t.Resolve(label)
		if !ok {
			key = Normalize(label)
		}
		if _, exists := out[key]; exists && Normalize(label) != key {
			continue
		}
		out[key] = value
	}
	return out
}

// Normalize prepares a label for table lookup: NFC normalization,
// removal of bidi control characters, trailing colon strip, and
// whitespace collapse. OCR output for right-to-left text routinely
// embeds directional marks that would defeat exact matching.
func Normalize(label string) string {
	s := norm.NFC.String(label)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case isBidiControl(r):
			continue
		case unicode.IsSpace(r):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return strings.TrimSuffix(b.String(), ":")
}

// isBidiControl reports whether r is a Unicode directional formatting
// character (marks, embeddings, overrides, isolates).
func isBidiControl(r rune) bool {
	switch r {
	case 0x200E, 0x200F, 0x061C: // LRM, RLM, ALM
		return true
	case 0x202A, 0x202B, 0x202C, 0x202D, 0x202E: // embeddings and overrides
		return true
	case 0x2066, 0x2067, 0x2068, 0x2069: // isolates
		return true
	}
	return false
}
