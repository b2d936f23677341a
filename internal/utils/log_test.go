package utils

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "cuts cyrillic on rune boundary",
			input:  "Разработчик Go в Москве",
			limit:  5,
			expect: "Разра...",
		},
		{
			name:   "keeps cyrillic within limit",
			input:  " Зарплата от 300 000 ₽ ",
			limit:  21,
			expect: "Зарплата от 300 000 ₽",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := TruncateForLog(tt.input, tt.limit)
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncated value %q is not valid UTF-8", got)
			}
		})
	}
}
