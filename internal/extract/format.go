package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Format decodes a fenced payload into a key-value object.
type Format interface {
	Name() string
	Decode(body string) (map[string]any, error)
}

// JSON and YAML are the supported payload formats.
var (
	JSON Format = jsonFormat{}
	YAML Format = yamlFormat{}
)

// FormatFor picks the decoder for a fence language tag, falling back to def
// for untagged or unknown blocks.
func FormatFor(lang string, def Format) Format {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "json", "jsonc":
		return JSON
	case "yaml", "yml", "python", "py":
		return YAML
	}
	if def == nil {
		return JSON
	}
	return def
}

type jsonFormat struct{}

func (jsonFormat) Name() string { return "json" }

func (jsonFormat) Decode(body string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode json: trailing data after object")
	}
	return asObject(payload)
}

// yamlFormat also accepts Python dict literals, which are YAML flow mappings
// once None/True/False are mapped.
type yamlFormat struct{}

func (yamlFormat) Name() string { return "yaml" }

func (yamlFormat) Decode(body string) (map[string]any, error) {
	var payload any
	if err := yaml.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return asObject(pythonLiterals(payload))
}

func asObject(payload any) (map[string]any, error) {
	switch obj := payload.(type) {
	case map[string]any:
		return obj, nil
	case map[any]any:
		out := make(map[string]any, len(obj))
		for k, v := range obj {
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("payload is empty")
	default:
		return nil, fmt.Errorf("payload is %T, want an object", payload)
	}
}

func pythonLiterals(v any) any {
	switch val := v.(type) {
	case string:
		switch val {
		case "None":
			return nil
		case "True":
			return true
		case "False":
			return false
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = pythonLiterals(item)
		}
		return val
	case map[any]any:
		for k, item := range val {
			val[k] = pythonLiterals(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = pythonLiterals(item)
		}
		return val
	default:
		return v
	}
}
