package record

import (
	"fmt"
	"sort"
	"strconv"
)

// Line item field keys accepted by UpsertLineItem. Writes are
// field-level: keys absent from a write never disturb stored values.
const (
	FieldCatalogNumber  = "catalog_number"
	FieldDiameter       = "diameter"
	FieldUnitCount      = "unit_count"
	FieldLength         = "length"
	FieldNotes          = "notes"
	FieldShapeImage     = "shape_image"
	FieldShapeRibValues = "shape_rib_values"
	FieldChecked        = "checked"
)

// touchesLockedFields reports whether the write touches anything beyond
// the checked flag.
func touchesLockedFields(fields map[string]any) bool {
	for k := range fields {
		if k != FieldChecked {
			return true
		}
	}
	return false
}

// applyLineFields merges the given fields into the line item, returning
// whether anything actually changed. Unknown keys and uncoercible
// values are ValidationErrors.
func applyLineFields(item *LineItem, fields map[string]any) (bool, error) {
	changed := false
	for key, raw := range fields {
		switch key {
		case FieldCatalogNumber:
			v, err := asString(key, raw)
			if err != nil {
				return changed, err
			}
			if item.CatalogNumber != v {
				item.CatalogNumber = v
				changed = true
			}
		case FieldDiameter:
			v, err := asFloat(key, raw)
			if err != nil {
				return changed, err
			}
			if item.Diameter != v {
				item.Diameter = v
				changed = true
			}
		case FieldUnitCount:
			v, err := asInt(key, raw)
			if err != nil {
				return changed, err
			}
			if item.UnitCount != v {
				item.UnitCount = v
				changed = true
			}
		case FieldLength:
			v, err := asFloat(key, raw)
			if err != nil {
				return changed, err
			}
			if item.Length != v {
				item.Length = v
				changed = true
			}
		case FieldNotes:
			v, err := asString(key, raw)
			if err != nil {
				return changed, err
			}
			if item.Notes != v {
				item.Notes = v
				changed = true
			}
		case FieldShapeImage:
			v, err := asString(key, raw)
			if err != nil {
				return changed, err
			}
			if item.ShapeImage != v {
				item.ShapeImage = v
				changed = true
			}
		case FieldShapeRibValues:
			ribs, err := asRibValues(raw)
			if err != nil {
				return changed, err
			}
			if item.ShapeRibValues == nil {
				item.ShapeRibValues = make(map[string]string, len(ribs))
			}
			for letter, val := range ribs {
				if item.ShapeRibValues[letter] != val {
					item.ShapeRibValues[letter] = val
					changed = true
				}
			}
		case FieldChecked:
			v, ok := raw.(bool)
			if !ok {
				return changed, &ValidationError{Field: key, Reason: fmt.Sprintf("expected bool, got %T", raw)}
			}
			if item.Checked != v {
				item.Checked = v
				changed = true
			}
		default:
			return changed, &ValidationError{Field: key, Reason: "unknown line item field"}
		}
	}
	return changed, nil
}

// ribKeys returns the sorted rib letters present in a write.
func ribKeys(ribs map[string]string) []string {
	keys := make([]string, 0, len(ribs))
	for k := range ribs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("expected string, got %T", v)}
	}
	return s, nil
}

func asFloat(field string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("cannot parse %q as number", t)}
		}
		return f, nil
	default:
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("expected number, got %T", v)}
	}
}

func asInt(field string, v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("cannot parse %q as integer", t)}
		}
		return n, nil
	default:
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("expected integer, got %T", v)}
	}
}

func asRibValues(v any) (map[string]string, error) {
	switch t := v.(type) {
	case map[string]string:
		return t, nil
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, raw := range t {
			s, err := asString(FieldShapeRibValues+"."+k, raw)
			if err != nil {
				return nil, err
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, &ValidationError{Field: FieldShapeRibValues, Reason: fmt.Sprintf("expected mapping, got %T", v)}
	}
}
