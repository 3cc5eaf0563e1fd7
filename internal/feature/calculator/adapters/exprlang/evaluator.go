// Package exprlang evaluates arithmetic expressions with expr-lang/expr.
package exprlang

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"

	"fxchart_bot/internal/feature/calculator/domain"
	"fxchart_bot/internal/feature/calculator/usecase"
)

// divFunc は "/" の置き換え先の関数名です。
const divFunc = "div"

// numberLiteral matches a run of digits and dots. Runs without a dot are integer literals.
var numberLiteral = regexp.MustCompile(`[\d.]+`)

// Evaluator compiles and runs expressions without any environment,
// so only literals and operators are available.
//
// All arithmetic is done in float64: integer literals are rewritten to float literals,
// since expr-lang evaluates integers in int64 and wraps on overflow.
type Evaluator struct{}

// Evaluatorがusecase.Evaluatorを実装していることをコンパイル時に検証します。
var _ usecase.Evaluator = (*Evaluator)(nil)

// NewEvaluator creates an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns the numeric value of expression.
// A zero divisor fails with domain.ErrDivisionByZero.
func (e *Evaluator) Evaluate(_ context.Context, expression string) (float64, error) {
	program, err := expr.Compile(asFloatLiterals(expression),
		expr.Function(divFunc, divide, new(func(float64, float64) float64)),
		expr.Patch(divisionPatcher{}),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidExpression, err)
	}

	out, err := expr.Run(program, nil)
	if err != nil {
		if errors.Is(err, domain.ErrDivisionByZero) {
			return 0, domain.ErrDivisionByZero
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidExpression, err)
	}

	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: unexpected result type %T", domain.ErrInvalidExpression, out)
	}
}

// asFloatLiterals appends ".0" to every integer literal ("2*3" -> "2.0*3.0").
func asFloatLiterals(expression string) string {
	return numberLiteral.ReplaceAllStringFunc(expression, func(lit string) string {
		if strings.Contains(lit, ".") {
			return lit
		}
		return lit + ".0"
	})
}

// divisionPatcher は a / b を div(a, b) に置き換え、ゼロ除算をエラーとして検出できるようにします。
type divisionPatcher struct{}

func (divisionPatcher) Visit(node *ast.Node) {
	n, ok := (*node).(*ast.BinaryNode)
	if !ok || n.Operator != "/" {
		return
	}
	ast.Patch(node, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: divFunc},
		Arguments: []ast.Node{n.Left, n.Right},
	})
}

func divide(params ...any) (any, error) {
	a, aok := params[0].(float64)
	b, bok := params[1].(float64)
	if !aok || !bok {
		return nil, fmt.Errorf("%w: non-numeric operand", domain.ErrInvalidExpression)
	}
	if b == 0 {
		return nil, domain.ErrDivisionByZero
	}
	return a / b, nil
}
