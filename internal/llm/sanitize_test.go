package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no markers", `{"a":1}`, `{"a":1}`},
		{"no markers padded", "  \n{\"a\":1}\n\t", `{"a":1}`},
		{"opening only", "```json\n{\"a\":1}", `{"a":1}`},
		{"closing only", "{\"a\":1}\n```", `{"a":1}`},
		{"single line", "```{\"a\":1}```", `{"a":1}`},
		{"empty", "", ""},
		{"only fence", "```", ""},
		{"only fence with tag", "```json", ""},
		{"interior backticks kept", "```json\n{\"a\":\"x ``` y\"}\n```", "{\"a\":\"x ``` y\"}"},
		{"prose untouched", "Here is the data:\n{\"a\":1}", "Here is the data:\n{\"a\":1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Sanitize(got), "sanitize must be idempotent")
		})
	}
}

func TestSanitizeIdempotentOnNestedFences(t *testing.T) {
	inputs := []string{
		"```\n```json\n{}\n```\n```",
		"``````",
		"```csv\na,b\n```  ",
		"\n\n```JSON\n[1,2]\n```\n\n",
		"```` \n{}\n````",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}
