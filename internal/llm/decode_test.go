package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/internal/llm"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "leading and trailing prose",
			input: `Sure, here is the result: {"a": 1} Hope that helps!`,
			want:  `{"a": 1}`,
		},
		{
			name:  "markdown fences",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "nested objects",
			input: `{"outer": {"inner": {"deep": true}}}`,
			want:  `{"outer": {"inner": {"deep": true}}}`,
		},
		{
			name:  "braces inside strings are ignored",
			input: `{"text": "a } b { c"}`,
			want:  `{"text": "a } b { c"}`,
		},
		{
			name:  "escaped quotes inside strings",
			input: `{"text": "she said \"hi\" {ok}"}`,
			want:  `{"text": "she said \"hi\" {ok}"}`,
		},
		{
			name:  "only first object returned",
			input: `{"first": 1} {"second": 2}`,
			want:  `{"first": 1}`,
		},
		{
			name:  "no object passes through",
			input: "I cannot answer that.",
			want:  "I cannot answer that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.ExtractJSON(tt.input))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var parsed struct {
		IsGoal     bool `json:"isGoal"`
		Confidence int  `json:"confidence"`
	}

	err := llm.DecodeJSON("Here you go:\n```json\n{\"isGoal\": true, \"confidence\": 85}\n```", &parsed)
	require.NoError(t, err)
	assert.True(t, parsed.IsGoal)
	assert.Equal(t, 85, parsed.Confidence)
}

func TestDecodeJSONFailsOnProse(t *testing.T) {
	var parsed map[string]interface{}
	err := llm.DecodeJSON("no json here at all", &parsed)
	assert.Error(t, err)
}

func TestDecodeJSONFailsOnTruncatedObject(t *testing.T) {
	var parsed map[string]interface{}
	err := llm.DecodeJSON(`{"a": 1, "b":`, &parsed)
	assert.Error(t, err)
}
