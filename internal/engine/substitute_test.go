package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceVariables(t *testing.T) {
	contextData := map[string]any{
		"employee_name": "Ada",
		"task_id":       "task-123",
		"count":         float64(3),
		"score":         float64(2.5),
		"big":           float64(1000000),
		"flag":          true,
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no tokens", "plain text", "plain text"},
		{"single token", "Onboard {{employee_name}}", "Onboard Ada"},
		{"multiple tokens", "{{employee_name}}: {{task_id}}", "Ada: task-123"},
		{"token with spaces", "Onboard {{ employee_name }}", "Onboard Ada"},
		{"whole number renders without decimals", "count is {{count}}", "count is 3"},
		{"large whole number is not scientific", "n={{big}}", "n=1000000"},
		{"fractional number", "score is {{score}}", "score is 2.5"},
		{"boolean", "flag={{flag}}", "flag=true"},
		{"unresolved token left verbatim", "hello {{missing}}", "hello {{missing}}"},
		{"adjacent tokens", "{{employee_name}}{{task_id}}", "Adatask-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReplaceVariables(tt.input, contextData))
		})
	}
}

func TestReplaceVariablesNilContext(t *testing.T) {
	assert.Equal(t, "{{anything}}", ReplaceVariables("{{anything}}", nil))
	assert.Equal(t, "plain", ReplaceVariables("plain", nil))
}
