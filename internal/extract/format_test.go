package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONDecode(t *testing.T) {
	payload, err := JSON.Decode(`{"title": "Go", "years": 5}`)
	require.NoError(t, err)
	assert.Equal(t, "Go", payload["title"])
	assert.Equal(t, json.Number("5"), payload["years"])

	_, err = JSON.Decode(`["not", "an", "object"]`)
	require.Error(t, err)

	_, err = JSON.Decode(`{"title": "Go",}`)
	require.Error(t, err)

	_, err = JSON.Decode(`{"a": 1} {"b": 2}`)
	require.Error(t, err)
}

func TestYAMLDecodeAcceptsPythonLiterals(t *testing.T) {
	payload, err := YAML.Decode(`{'Name': 'Jane', 'Certifications': None, 'Remote': True, 'Skills': ['Go', 'SQL']}`)
	require.NoError(t, err)
	assert.Equal(t, "Jane", payload["Name"])
	assert.Nil(t, payload["Certifications"])
	assert.Equal(t, true, payload["Remote"])
	assert.Equal(t, []any{"Go", "SQL"}, payload["Skills"])

	_, err = YAML.Decode("just a string")
	require.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, JSON, FormatFor("JSON", YAML))
	assert.Equal(t, YAML, FormatFor("yml", JSON))
	assert.Equal(t, YAML, FormatFor("python", JSON))
	assert.Equal(t, YAML, FormatFor("", YAML))
	assert.Equal(t, JSON, FormatFor("text", nil))
}
