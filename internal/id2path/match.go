package id2path

import (
	"fmt"
	"strings"

	goeval "github.com/edisonguo/govaluate"
)

// Matcher is a boolean expression over the path, type and label of a path
// item, e.g. `type == "directory" && path =~ "^/data/"`.
type Matcher struct {
	expr *goeval.EvaluableExpression
}

// ParseMatcher compiles an expression. An empty expression yields nil,
// which matches everything.
func ParseMatcher(expression string) (*Matcher, error) {
	if len(strings.TrimSpace(expression)) == 0 {
		return nil, nil
	}

	expr, err := goeval.NewEvaluableExpression(expression)
	if err != nil {
		return nil, err
	}

	validVariables := map[string]struct{}{"path": {}, "type": {}, "label": {}}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
			}
			if _, found := validVariables[varName]; !found {
				return nil, fmt.Errorf("variable %v is not supported. Valid variables are path, type and label", varName)
			}
		}
	}
	return &Matcher{expr: expr}, nil
}

// Match evaluates the expression for item.
func (m *Matcher) Match(item PathItem) (bool, error) {
	if m == nil {
		return true, nil
	}

	parameters := map[string]interface{}{
		"path":  item.Path,
		"type":  item.Type.String(),
		"label": item.Label,
	}
	result, err := m.expr.Evaluate(parameters)
	if err != nil {
		return false, fmt.Errorf("match expression: %v", err)
	}

	val, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("match expression: result '%v' is not boolean", result)
	}
	return val, nil
}
