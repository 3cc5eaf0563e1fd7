package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fxchart_bot/internal/feature/calculator/domain"
	"fxchart_bot/internal/feature/calculator/domain/entity"
	"fxchart_bot/internal/feature/calculator/transport/http/dto"
)

// Calculator は算術式を評価するユースケースのインターフェースです。
type Calculator interface {
	Calculate(ctx context.Context, expression string) (*entity.Calculation, error)
}

// CalcHandler は計算に関するHTTPリクエストを処理します。
type CalcHandler struct {
	uc Calculator
}

// NewCalcHandler は新しい CalcHandler を作成します。
func NewCalcHandler(uc Calculator) *CalcHandler {
	return &CalcHandler{uc: uc}
}

// Calculate は GET /v1/calc?expr=... を処理します。
// ゼロ除算は422、それ以外の不正な式は400を返します。
func (h *CalcHandler) Calculate(c *gin.Context) {
	expr := c.Query("expr")
	if expr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expr is required"})
		return
	}

	calc, err := h.uc.Calculate(c.Request.Context(), expr)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDivisionByZero):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "division by zero"})
		case errors.Is(err, domain.ErrInvalidExpression):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expression"})
		default:
			slog.Error("calculation failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.CalculationResponse{
		Expression: calc.Expression,
		Result:     calc.Value,
		Formatted:  calc.Formatted,
	})
}
