package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"prose around", "Sure! Here it is: {\"a\":{\"b\":2}} Let me know.", `{"a":{"b":2}}`, true},
		{"brace in string", `x {"a":"}{"} y`, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"say \"}\""} tail`, `{"a":"say \"}\""}`, true},
		{"first object only", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"no brace", "no json here", "", false},
		{"unterminated", `{"a":1,`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
