package labels

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "לקוח", "לקוח"},
		{"trailing colon", "לקוח:", "לקוח"},
		{"surrounding space", "  תאריך \t", "תאריך"},
		{"collapsed inner space", "איש   קשר", "איש קשר"},
		{"rlm marks stripped", "‏מספר הזמנה‏", "מספר הזמנה"},
		{"isolate controls stripped", "⁧טלפון⁩:", "טלפון"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestResolve(t *testing.T) {
	tbl := DefaultTable()

	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"לקוח", FieldCustomer, true},
		{"שם הלקוח:", FieldCustomer, true},
		{"מס' הזמנה", FieldOrderNumber, true},
		{"‏תאריך‏", FieldDate, true},
		{"טל'", FieldPhone, true},
		{"customer", FieldCustomer, true}, // canonical names self-resolve
		{"הערות", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := tbl.Resolve(tt.label)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFields(t *testing.T) {
	tbl := DefaultTable()

	got := tbl.ResolveFields(map[string]string{
		"שם לקוח:": "חברת בניין בע\"מ",
		"מס הזמנה": "4711",
		"טלפון":    "050-1234567",
		"הערות":    "דחוף", // unrecognized, kept under normalized label
	})
	require.Equal(t, map[string]string{
		FieldCustomer:    "חברת בניין בע\"מ",
		FieldOrderNumber: "4711",
		FieldPhone:       "050-1234567",
		"הערות":          "דחוף",
	}, got)
}

func TestResolveFieldsCanonicalWinsOnCollision(t *testing.T) {
	tbl := DefaultTable()

	got := tbl.ResolveFields(map[string]string{
		"customer": "from canonical key",
		"לקוח":     "from alias",
	})
	require.Equal(t, "from canonical key", got[FieldCustomer])
	require.Len(t, got, 1)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	doc := `
order_number:
  - "הזמנה"
project:
  - "פרויקט"
`
	tbl, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	// New variant for an existing field.
	got, ok := tbl.Resolve("הזמנה")
	require.True(t, ok)
	require.Equal(t, FieldOrderNumber, got)

	// Entirely new canonical field.
	got, ok = tbl.Resolve("פרויקט:")
	require.True(t, ok)
	require.Equal(t, "project", got)

	// Defaults survive the merge.
	got, ok = tbl.Resolve("לקוח")
	require.True(t, ok)
	require.Equal(t, FieldCustomer, got)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(strings.NewReader("customer: {not a list"))
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/nonexistent/aliases.yaml")
	require.Error(t, err)
}
