// Package usecase はcalculatorフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fxchart_bot/internal/feature/calculator/domain"
	"fxchart_bot/internal/feature/calculator/domain/entity"
)

// MaxExpressionLength は受け付ける式の最大文字数です。
const MaxExpressionLength = 256

// mathExpression は式に許可される文字パターンです（数字・四則演算子・括弧・小数点・空白）。
var mathExpression = regexp.MustCompile(`^[\d+\-*/\s.()]+$`)

// Evaluator は検証済みの中置記法の式を評価します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Evaluator interface {
	Evaluate(ctx context.Context, expression string) (float64, error)
}

// CalculatorUsecase は算術式の検証と評価を提供します。
type CalculatorUsecase struct {
	evaluator Evaluator
}

// NewCalculatorUsecase はCalculatorUsecaseの新しいインスタンスを生成します。
func NewCalculatorUsecase(evaluator Evaluator) *CalculatorUsecase {
	return &CalculatorUsecase{evaluator: evaluator}
}

// IsMathExpression は text が（先頭の "/" を除いて）数字で始まり、許可された文字だけで構成されているかを判定します。
func IsMathExpression(text string) bool {
	text = strings.TrimPrefix(text, "/")
	if text == "" || text[0] < '0' || text[0] > '9' {
		return false
	}
	return mathExpression.MatchString(text)
}

// Calculate は式を正規化・検証してから評価します。
func (u *CalculatorUsecase) Calculate(ctx context.Context, expression string) (*entity.Calculation, error) {
	if expression == "" {
		return nil, fmt.Errorf("%w: expression cannot be empty", domain.ErrInvalidExpression)
	}

	expression = strings.TrimPrefix(expression, "/")
	expression = strings.ReplaceAll(expression, " ", "")

	if len(expression) > MaxExpressionLength {
		return nil, fmt.Errorf("%w: expression exceeds maximum length of %d", domain.ErrInvalidExpression, MaxExpressionLength)
	}
	if !IsMathExpression(expression) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidExpression, expression)
	}

	v, err := u.evaluator.Evaluate(ctx, expression)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidExpression) {
			return nil, err
		}
		slog.Warn("calculation error", "expression", expression, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidExpression, err)
	}
	// ゼロ除算はEvaluatorが検出するため、ここでの非有限値はオーバーフローです。
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, fmt.Errorf("%w: result out of range", domain.ErrInvalidExpression)
	}

	return &entity.Calculation{
		Expression: expression,
		Value:      v,
		Formatted:  FormatResult(v),
	}, nil
}

// FormatResult は整数値ならそのまま、それ以外は小数点以下2桁に丸めて文字列にします。
func FormatResult(v float64) string {
	d := decimal.NewFromFloat(v)
	if v == math.Trunc(v) {
		return d.String()
	}
	return d.Round(2).String()
}
