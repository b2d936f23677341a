package extract

import (
	"sort"
	"strings"
)

const defaultPrompt = `Extract the following fields from the text below.

Fields:
{{FIELDS}}

Respond with ONLY one fenced {{FORMAT}} code block containing a single object with exactly these keys and no other prose.

Text:
{{TEXT}}`

// RenderPrompt fills the schema template. {{TEXT}} receives the input,
// {{FIELDS}} the field list, {{FORMAT}} the payload format and every
// context variable is available as {{UPPER_CASE_KEY}}.
func (s *Schema) RenderPrompt(text string, vars map[string]string) string {
	template := s.Prompt
	if strings.TrimSpace(template) == "" {
		template = defaultPrompt
	}

	format := JSON
	if s.Format != nil {
		format = s.Format
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := []string{
		"{{FIELDS}}", s.Describe(),
		"{{FORMAT}}", format.Name(),
		"{{TEXT}}", text,
	}
	for _, k := range keys {
		pairs = append(pairs, "{{"+strings.ToUpper(k)+"}}", vars[k])
	}

	return strings.NewReplacer(pairs...).Replace(template)
}
