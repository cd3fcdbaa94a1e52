package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Comparisons(t *testing.T) {
	ctx := map[string]any{
		"amount":   float64(1500),
		"status":   "open",
		"approved": true,
		"count":    3,
	}

	cases := []struct {
		source string
		want   bool
	}{
		{`amount > 1000`, true},
		{`amount < 1000`, false},
		{`amount >= 1500`, true},
		{`amount <= 1499`, false},
		{`status == "open"`, true},
		{`status == 'open'`, true},
		{`status != "closed"`, true},
		{`approved`, true},
		{`!approved`, false},
		{`count == 3`, true},
		{`"abc" < "abd"`, true},
		{`missing == null`, true},
		{`missing != null`, false},
	}
	for _, tc := range cases {
		got, err := Evaluate(tc.source, ctx)
		require.NoError(t, err, tc.source)
		assert.Equal(t, tc.want, got, tc.source)
	}
}

func TestEvaluate_BooleanCombinators(t *testing.T) {
	ctx := map[string]any{"a": float64(1), "b": float64(2), "flag": false}

	cases := []struct {
		source string
		want   bool
	}{
		{`a == 1 && b == 2`, true},
		{`a == 1 && b == 3`, false},
		{`a == 2 || b == 2`, true},
		{`a == 2 || b == 3`, false},
		{`!(a == 2) && (b == 2 || flag)`, true},
		{`a == 1 && b == 2 || flag`, true},
	}
	for _, tc := range cases {
		got, err := Evaluate(tc.source, ctx)
		require.NoError(t, err, tc.source)
		assert.Equal(t, tc.want, got, tc.source)
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	// The right side of a short-circuited && would error if evaluated.
	got, err := Evaluate(`false && missing > 1`, map[string]any{})
	require.NoError(t, err)
	assert.False(t, got)

	got, err = Evaluate(`true || missing > 1`, map[string]any{})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluate_NumericCoercion(t *testing.T) {
	// JSON decoding yields float64; int-typed context values must still match.
	got, err := Evaluate(`n == 5`, map[string]any{"n": 5})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Evaluate(`n > 4.5`, map[string]any{"n": int64(5)})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate(`amount >`, map[string]any{})
	assert.Error(t, err)

	_, err = Evaluate(`"unterminated`, map[string]any{})
	assert.Error(t, err)

	_, err = Evaluate(`1 + 1`, map[string]any{})
	assert.Error(t, err)

	// Non-boolean result.
	_, err = Evaluate(`amount`, map[string]any{"amount": float64(5)})
	assert.Error(t, err)

	// Ordering on incomparable operands.
	_, err = Evaluate(`flag > 3`, map[string]any{"flag": true})
	assert.Error(t, err)
}

func TestParse_RejectsTrailingInput(t *testing.T) {
	_, err := Parse(`a == 1 b`)
	assert.Error(t, err)
}

func TestEvaluate_DottedIdent(t *testing.T) {
	// Dotted names are flat keys, not path traversal.
	got, err := Evaluate(`user.role == "admin"`, map[string]any{"user.role": "admin"})
	require.NoError(t, err)
	assert.True(t, got)
}
