package extract

import (
	"fmt"
	"sort"
	"strings"
)

// FieldKind selects how a raw value is coerced and which sentinel stands in
// for an absent value.
type FieldKind int

const (
	// String fields default to "".
	String FieldKind = iota
	// List fields default to an empty []string.
	List
	// Number fields default to nil and otherwise hold a float64.
	Number
)

func (k FieldKind) String() string {
	switch k {
	case List:
		return "list of strings"
	case Number:
		return "number"
	default:
		return "string"
	}
}

// FieldSpec describes one output field.
type FieldSpec struct {
	Name        string
	Description string
	Kind        FieldKind
	Required    bool
	// Aliases are alternative keys a model may emit for this field.
	Aliases []string
	// FallbackVar names a context variable used when the model leaves the
	// field empty.
	FallbackVar string
}

// Schema is the set of fields an extraction produces plus the prompt used to
// ask for them.
type Schema struct {
	Name   string
	Fields []FieldSpec
	// Prompt is the template rendered by RenderPrompt.
	Prompt string
	// Format decodes untagged fenced blocks.
	Format Format
}

// Record is a validated extraction result. Every field of the schema is
// present, holding its sentinel when unknown.
type Record map[string]any

// String returns a string field, or "" when absent.
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// List returns a list field, or nil when absent.
func (r Record) List(name string) []string {
	l, _ := r[name].([]string)
	return l
}

// Number returns a numeric field and whether it is known.
func (r Record) Number(name string) (float64, bool) {
	n, ok := r[name].(float64)
	return n, ok
}

// Validate maps a decoded payload onto the schema. Keys are matched
// case-insensitively against field names and aliases, values are coerced to
// the field kind, absent fields receive their sentinel and empty fields fall
// back to vars. A required field left empty is ErrMalformedPayload.
func (s *Schema) Validate(payload map[string]any, vars map[string]string) (Record, error) {
	byKey := make(map[string]any, len(payload))
	for k, v := range payload {
		byKey[normalizeKey(k)] = v
	}

	record := make(Record, len(s.Fields))
	var missing []string
	for _, field := range s.Fields {
		raw, ok := lookup(byKey, field)
		var value any
		switch field.Kind {
		case List:
			value = coerceList(raw)
		case Number:
			value = coerceNumber(raw)
		default:
			str := coerceString(raw)
			if str == "" && field.FallbackVar != "" {
				str = cleanString(vars[field.FallbackVar])
			}
			value = str
		}
		record[field.Name] = value

		if field.Required && isEmpty(value) {
			if !ok {
				missing = append(missing, field.Name)
			} else {
				missing = append(missing, field.Name+" (empty)")
			}
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, newError(ErrMalformedPayload, s.Name, "", fmt.Errorf("required fields missing: %s", strings.Join(missing, ", ")))
	}

	return record, nil
}

// Describe lists the schema fields, one per line, for use in prompts.
func (s *Schema) Describe() string {
	var b strings.Builder
	for _, field := range s.Fields {
		fmt.Fprintf(&b, "- %q (%s", field.Name, field.Kind)
		if field.Required {
			b.WriteString(", required")
		}
		b.WriteString(")")
		if field.Description != "" {
			b.WriteString(": ")
			b.WriteString(field.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func lookup(byKey map[string]any, field FieldSpec) (any, bool) {
	if v, ok := byKey[normalizeKey(field.Name)]; ok {
		return v, true
	}
	for _, alias := range field.Aliases {
		if v, ok := byKey[normalizeKey(alias)]; ok {
			return v, true
		}
	}
	return nil, false
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '/':
			return '_'
		}
		return r
	}, k)
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	default:
		return false
	}
}
