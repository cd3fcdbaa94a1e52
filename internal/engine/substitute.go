package engine

import (
	"fmt"
	"regexp"
	"strings"
)

var variableToken = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// ReplaceVariables substitutes {{name}} tokens with flat key lookups in the
// context map. Unresolved tokens are left verbatim.
func ReplaceVariables(s string, contextData map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return variableToken.ReplaceAllStringFunc(s, func(token string) string {
		name := variableToken.FindStringSubmatch(token)[1]
		value, ok := contextData[name]
		if !ok {
			return token
		}
		switch v := value.(type) {
		case string:
			return v
		case float64:
			// Render whole numbers without a trailing ".000000".
			if v == float64(int64(v)) {
				return fmt.Sprintf("%d", int64(v))
			}
			return fmt.Sprintf("%g", v)
		default:
			return fmt.Sprintf("%v", v)
		}
	})
}
