// Package handler はconversionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fxchart_bot/internal/feature/conversion/domain"
	"fxchart_bot/internal/feature/conversion/domain/entity"
	"fxchart_bot/internal/feature/conversion/transport/http/dto"
)

// ConversionUsecase は換算画像を生成するユースケースのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ConversionUsecase interface {
	Convert(ctx context.Context, req entity.ConversionRequest) (*entity.ConversionResult, error)
	RicoRates(ctx context.Context) (*entity.ConversionResult, error)
}

// ParseFunc はコマンド引数をConversionRequestに変換します。
type ParseFunc func(args []string, base string) entity.ConversionRequest

// ConversionHandler は換算に関するHTTPリクエストを処理します。
type ConversionHandler struct {
	uc    ConversionUsecase
	parse ParseFunc
}

// NewConversionHandler は新しい ConversionHandler を作成します。
func NewConversionHandler(uc ConversionUsecase, parse ParseFunc) *ConversionHandler {
	return &ConversionHandler{uc: uc, parse: parse}
}

// Convert はボットの /eur 100USD R-2 と同じ解釈で換算します。
//
// エンドポイント例:
// GET /v1/convert/eur?args=100USD+R-2
func (h *ConversionHandler) Convert(c *gin.Context) {
	base := c.Param("base")
	if !entity.IsSupportedBase(base) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unsupported base currency: " + base})
		return
	}

	req := h.parse(strings.Fields(c.Query("args")), base)
	res, err := h.uc.Convert(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(res))
}

// Rico はRico.geのレート表のスクリーンショットを返します。
func (h *ConversionHandler) Rico(c *gin.Context) {
	res, err := h.uc.RicoRates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(res))
}

// レスポンスに返すエラーメッセージ。内部のエラー文字列（外部APIのURLなど）は返さずログにだけ出します。
const (
	invalidRequestMessage = "invalid conversion request"
	fetchFailedMessage    = "failed to fetch exchange rate page"
	internalErrorMessage  = "internal server error"
)

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		slog.Warn("invalid conversion request", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: invalidRequestMessage})
	case errors.Is(err, domain.ErrExternalFetch):
		slog.Error("conversion fetch failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: fetchFailedMessage})
	default:
		slog.Error("conversion failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: internalErrorMessage})
	}
}

func toResponse(res *entity.ConversionResult) dto.ConversionResponse {
	out := dto.ConversionResponse{
		Amount:         res.Request.Amount,
		From:           res.Request.From,
		To:             res.Request.To,
		RateMultiplier: res.Request.RateMultiplier,
		Caption:        res.Caption,
		Image:          res.Image,
	}
	if res.Rate != nil {
		out.Rate = &dto.RateResponse{
			FromAmount: res.Rate.FromAmount,
			ToAmount:   res.Rate.ToAmount,
			UnitRate:   res.Rate.UnitRate,
			Reciprocal: res.Rate.Reciprocal(),
		}
	}
	return out
}
