package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unknown is the placeholder scrapers and models use for a missing value.
const Unknown = "N/A"

var unknownMarkers = map[string]bool{
	"n/a": true, "na": true, "none": true, "null": true, "nil": true,
	"unknown": true, "not specified": true, "not mentioned": true,
	"not available": true, "not provided": true, "-": true,
}

var numberPattern = regexp.MustCompile(`-?[0-9]+(?:[.,][0-9]+)?`)

// IsUnknown reports whether s is blank or one of the unknown markers.
func IsUnknown(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "" || unknownMarkers[s]
}

func cleanString(s string) string {
	s = strings.TrimSpace(s)
	if IsUnknown(s) {
		return ""
	}
	return s
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return cleanString(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		return strings.Join(coerceList(val), ", ")
	case map[string]any:
		bytes, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(bytes)
	default:
		return cleanString(fmt.Sprintf("%v", val))
	}
}

func coerceList(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case nil:
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range val {
			if s := cleanString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if IsUnknown(val) {
			break
		}
		for _, item := range strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n'
		}) {
			item = strings.TrimLeft(strings.TrimSpace(item), "-*• ")
			if s := cleanString(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := coerceString(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// coerceNumber returns a float64, or nil when the value carries no number.
// Strings such as "5+ years" yield their first number.
func coerceNumber(v any) any {
	var f float64
	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		match := numberPattern.FindString(val)
		if match == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
