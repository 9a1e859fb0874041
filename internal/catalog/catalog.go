// Package catalog maps bending-shape catalog numbers to the rib
// letters each shape defines. The record store uses it to validate
// shape_rib_values keys on line-item writes: a value for rib "E" on a
// two-rib L shape is a recognition error worth rejecting early.
package catalog

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ferroscan/ferroscan/internal/record"
)

// defaultShapes holds the rib letters of the standard bending shape
// codes that appear in this order family. Per-supplier codes can be
// added through a YAML overlay.
var defaultShapes = map[string][]string{
	"00": {"A"},                     // straight bar
	"11": {"A", "B"},                // L bend
	"13": {"A", "B", "C"},           // offset bend
	"21": {"A", "B", "C"},           // U bend
	"26": {"A", "B", "C"},           // Z bend
	"31": {"A", "B", "C", "D"},      // double offset
	"41": {"A", "B", "C", "D", "E"}, // crank bend
	"51": {"A", "B"},                // closed link
}

// Catalog answers which rib letters a catalog shape defines.
type Catalog struct {
	shapes map[string][]string
}

// Default builds a catalog from the built-in shape set.
func Default() *Catalog {
	c := &Catalog{shapes: make(map[string][]string)}
	c.add(defaultShapes)
	return c
}

// Load reads a YAML shape document (catalog number -> rib letters) and
// merges it over the built-in catalog. An entry for an existing code
// replaces its rib set.
func Load(r io.Reader) (*Catalog, error) {
	var doc map[string][]string
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode shape catalog: %w", err)
	}
	c := Default()
	c.add(doc)
	return c, nil
}

// LoadFile loads a YAML shape catalog from disk, merged over the
// built-in catalog.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shape catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c *Catalog) add(shapes map[string][]string) {
	for code, ribs := range shapes {
		normalized := make([]string, len(ribs))
		for i, r := range ribs {
			normalized[i] = strings.ToUpper(strings.TrimSpace(r))
		}
		c.shapes[strings.TrimSpace(code)] = normalized
	}
}

// Ribs returns the rib letters of a catalog shape in definition order.
func (c *Catalog) Ribs(catalogNumber string) ([]string, bool) {
	ribs, ok := c.shapes[strings.TrimSpace(catalogNumber)]
	if !ok {
		return nil, false
	}
	return slices.Clone(ribs), true
}

// ValidateRibKeys checks that every rib letter belongs to the catalog
// shape. Unknown catalog numbers validate as a no-op: hand-written
// codes outside the catalog are common and their rib values still need
// to reach the record. The signature matches record.RibValidator so a
// Catalog plugs straight into the store.
func (c *Catalog) ValidateRibKeys(catalogNumber string, ribLetters []string) error {
	ribs, ok := c.shapes[strings.TrimSpace(catalogNumber)]
	if !ok {
		return nil
	}
	for _, letter := range ribLetters {
		if !slices.Contains(ribs, strings.ToUpper(letter)) {
			return &record.ValidationError{
				Field:  "shape_rib_values",
				Reason: fmt.Sprintf("rib %q not defined for catalog shape %s", letter, catalogNumber),
			}
		}
	}
	return nil
}
