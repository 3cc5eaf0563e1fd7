// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"log/slog"
	"time"

	calcexpr "fxchart_bot/internal/feature/calculator/adapters/exprlang"
	calcusecase "fxchart_bot/internal/feature/calculator/usecase"
	"fxchart_bot/internal/feature/conversion/adapters/htmltext"
	"fxchart_bot/internal/feature/conversion/adapters/vision"
	convusecase "fxchart_bot/internal/feature/conversion/usecase"
	"fxchart_bot/internal/platform/config"
	"fxchart_bot/internal/platform/externalapi/urlbox"
	infrahttp "fxchart_bot/internal/platform/http"
	"fxchart_bot/internal/shared/ratelimiter"
)

// NewRenderer creates a URLBox client paced to cfg.RenderRateLimit renders per minute.
func NewRenderer(cfg *config.App) *urlbox.Client {
	httpClient := infrahttp.NewHTTPClient(cfg.URLBox.Timeout)
	limiter := ratelimiter.NewRateLimiter(cfg.RenderRateLimit, time.Minute)
	return urlbox.NewClient(cfg.URLBox, httpClient, limiter)
}

// NewConversionUsecase wires the renderer, the HTML text extractor and, when enabled, the OCR fallback.
// Every request gets a fresh render. The returned func releases the OCR client.
func NewConversionUsecase(ctx context.Context, cfg *config.App) (*convusecase.ConversionUsecase, func()) {
	renderer := NewRenderer(cfg)
	extractor := convusecase.NewRateExtractor(htmltext.NewExtractor())

	var opts []convusecase.Option
	cleanup := func() {}
	if cfg.OCREnabled {
		ocr, err := vision.NewVisionTextReader(ctx)
		if err != nil {
			slog.Warn("OCR fallback disabled", "error", err)
		} else {
			opts = append(opts, convusecase.WithOCR(ocr))
			cleanup = func() {
				if err := ocr.Close(); err != nil {
					slog.Error("failed to close vision client", "error", err)
				}
			}
		}
	}

	return convusecase.NewConversionUsecase(renderer, renderer, extractor, opts...), cleanup
}

// NewCalculator creates the calculator backed by expr-lang.
func NewCalculator() *calcusecase.CalculatorUsecase {
	return calcusecase.NewCalculatorUsecase(calcexpr.NewEvaluator())
}
