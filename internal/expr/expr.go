// Package expr implements a small, closed boolean expression language used by
// CONDITION steps and assignment-rule predicates. Expressions are parsed into
// an AST and interpreted against a flat context map; they are never executed
// as code.
//
// Grammar:
//
//	expr       = or
//	or         = and { "||" and }
//	and        = unary { "&&" unary }
//	unary      = "!" unary | comparison
//	comparison = operand [ ("==" | "!=" | "<" | "<=" | ">" | ">=") operand ]
//	operand    = number | string | "true" | "false" | "null" | ident | "(" expr ")"
package expr

import (
	"fmt"
	"strconv"
)

// Node is an AST node evaluated against a context map.
type Node interface {
	eval(ctx map[string]any) (any, error)
}

type literal struct {
	value any
}

func (n literal) eval(map[string]any) (any, error) {
	return n.value, nil
}

type variable struct {
	name string
}

func (n variable) eval(ctx map[string]any) (any, error) {
	// Missing variables evaluate to null rather than erroring, so templates
	// can probe optional context keys.
	return ctx[n.name], nil
}

type not struct {
	operand Node
}

func (n not) eval(ctx map[string]any) (any, error) {
	v, err := n.operand.eval(ctx)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("operand of ! is not boolean")
	}
	return !b, nil
}

type logical struct {
	op          string // "&&" or "||"
	left, right Node
}

func (n logical) eval(ctx map[string]any) (any, error) {
	lv, err := n.left.eval(ctx)
	if err != nil {
		return nil, err
	}
	lb, ok := lv.(bool)
	if !ok {
		return nil, fmt.Errorf("left operand of %s is not boolean", n.op)
	}
	// Short-circuit.
	if n.op == "&&" && !lb {
		return false, nil
	}
	if n.op == "||" && lb {
		return true, nil
	}
	rv, err := n.right.eval(ctx)
	if err != nil {
		return nil, err
	}
	rb, ok := rv.(bool)
	if !ok {
		return nil, fmt.Errorf("right operand of %s is not boolean", n.op)
	}
	return rb, nil
}

type comparison struct {
	op          string
	left, right Node
}

func (n comparison) eval(ctx map[string]any) (any, error) {
	lv, err := n.left.eval(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := n.right.eval(ctx)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return equal(lv, rv), nil
	case "!=":
		return !equal(lv, rv), nil
	}

	ln, lok := toNumber(lv)
	rn, rok := toNumber(rv)
	if lok && rok {
		switch n.op {
		case "<":
			return ln < rn, nil
		case "<=":
			return ln <= rn, nil
		case ">":
			return ln > rn, nil
		case ">=":
			return ln >= rn, nil
		}
	}

	ls, lok := lv.(string)
	rs, rok := rv.(string)
	if lok && rok {
		switch n.op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}

	return nil, fmt.Errorf("operands of %s are not comparable (%T vs %T)", n.op, lv, rv)
}

// equal compares with numeric coercion so context values decoded from JSON
// (float64) match integer literals and vice versa.
func equal(a, b any) bool {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return an == bn
		}
		return false
	}
	return a == b
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Evaluate parses source and evaluates it against ctx. The expression must
// produce a boolean.
func Evaluate(source string, ctx map[string]any) (bool, error) {
	node, err := Parse(source)
	if err != nil {
		return false, err
	}
	v, err := node.eval(ctx)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", source, err)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: result is %T, not boolean", source, v)
	}
	return b, nil
}
