// Package usecase implements the business logic of the conversion feature:
// input parsing, rate adjustment, rate extraction and the conversion flow itself.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fxchart_bot/internal/feature/conversion/domain"
	"fxchart_bot/internal/feature/conversion/domain/entity"
)

const (
	// XEConvertURL is the conversion page rendered for currency commands.
	XEConvertURL = "https://www.xe.com/currencyconverter/convert/"
	// RicoURL is the secondary rate source.
	RicoURL = "https://www.rico.ge/en/"
	// RicoTimezone is the timezone shown in Rico captions.
	RicoTimezone = "Asia/Tbilisi"
)

// Viewports for both sources.
var (
	xeViewport   = entity.RenderRequest{Width: 500, Height: 580, Scroll: "300"}
	ricoViewport = entity.RenderRequest{Width: 500, Height: 420, Scroll: ".currencies-section"}
)

// Renderer turns a URL into a rendered image locator and the raw page.
type Renderer interface {
	Render(ctx context.Context, req entity.RenderRequest) (entity.PageFetch, error)
}

// ImageFetcher downloads a rendered image.
type ImageFetcher interface {
	FetchImage(ctx context.Context, locator string) ([]byte, error)
}

// ImageTextReader reads text out of an image (OCR). Optional.
type ImageTextReader interface {
	ReadText(ctx context.Context, image []byte) (string, error)
}

// ConversionUsecase composes the renderer, the rate extractor and the image download.
type ConversionUsecase struct {
	renderer  Renderer
	images    ImageFetcher
	extractor *RateExtractor
	ocr       ImageTextReader
	now       func() time.Time
	printer   *message.Printer
}

// Option customizes a ConversionUsecase.
type Option func(*ConversionUsecase)

// WithOCR enables reading the rate from the screenshot when the page text has none.
func WithOCR(ocr ImageTextReader) Option {
	return func(u *ConversionUsecase) { u.ocr = ocr }
}

// WithClock overrides the clock used for caption timestamps.
func WithClock(now func() time.Time) Option {
	return func(u *ConversionUsecase) { u.now = now }
}

// NewConversionUsecase creates a ConversionUsecase.
func NewConversionUsecase(renderer Renderer, images ImageFetcher, extractor *RateExtractor, opts ...Option) *ConversionUsecase {
	u := &ConversionUsecase{
		renderer:  renderer,
		images:    images,
		extractor: extractor,
		now:       time.Now,
		printer:   message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Convert renders the conversion page for req and builds the caption.
// A missing rate is not an error; a failed render or image download is.
func (u *ConversionUsecase) Convert(ctx context.Context, req entity.ConversionRequest) (*entity.ConversionResult, error) {
	slog.Info("converting", "amount", req.Amount, "from", req.From, "to", req.To, "rate_multiplier", req.RateMultiplier)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	adjusted := Adjust(req.Amount, req.RateMultiplier)
	rr := xeViewport
	rr.URL = BuildXEURL(adjusted, req.From, req.To)

	page, err := u.renderer.Render(ctx, rr)
	if err != nil {
		return nil, asFetchError("render conversion page", err)
	}

	var rate *entity.RateSample
	if sample, err := u.extractor.Extract(ctx, page.RawText); err != nil {
		if !errors.Is(err, domain.ErrRateParse) {
			return nil, err
		}
		slog.Warn("rate parsing failed (non-critical)", "error", err)
	} else {
		rate = &sample
	}

	image, err := u.images.FetchImage(ctx, page.ImageLocator)
	if err != nil {
		return nil, asFetchError("download image", err)
	}

	if rate == nil && u.ocr != nil {
		rate = u.rateFromImage(ctx, image)
	}

	return &entity.ConversionResult{
		Request: req,
		Image:   image,
		Caption: u.conversionCaption(req, rate),
		Rate:    rate,
	}, nil
}

// RicoRates renders the currencies section of the secondary source.
func (u *ConversionUsecase) RicoRates(ctx context.Context) (*entity.ConversionResult, error) {
	slog.Info("fetching rico rates", "url", RicoURL)

	rr := ricoViewport
	rr.URL = RicoURL
	page, err := u.renderer.Render(ctx, rr)
	if err != nil {
		return nil, asFetchError("render rico page", err)
	}

	image, err := u.images.FetchImage(ctx, page.ImageLocator)
	if err != nil {
		return nil, asFetchError("download image", err)
	}

	return &entity.ConversionResult{
		Image:   image,
		Caption: u.ricoCaption(),
	}, nil
}

func validateRequest(req entity.ConversionRequest) error {
	switch {
	case !isCurrencyCode(req.From) || !isCurrencyCode(req.To):
		return fmt.Errorf("%w: currency codes %q, %q", domain.ErrInvalidRequest, req.From, req.To)
	case req.Amount < 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0):
		return fmt.Errorf("%w: amount %v", domain.ErrInvalidRequest, req.Amount)
	case !(req.RateMultiplier > 0) || math.IsInf(req.RateMultiplier, 0):
		return fmt.Errorf("%w: rate multiplier %v", domain.ErrInvalidRequest, req.RateMultiplier)
	}
	return nil
}

// BuildXEURL builds the conversion page URL for an already adjusted amount.
func BuildXEURL(amount float64, from, to string) string {
	q := url.Values{}
	q.Set("Amount", strconv.FormatFloat(amount, 'f', -1, 64))
	q.Set("From", from)
	q.Set("To", to)
	return XEConvertURL + "?" + q.Encode()
}

func (u *ConversionUsecase) rateFromImage(ctx context.Context, image []byte) *entity.RateSample {
	text, err := u.ocr.ReadText(ctx, image)
	if err != nil {
		slog.Warn("ocr failed (non-critical)", "error", err)
		return nil
	}
	sample, err := ParseRateStatement(text)
	if err != nil {
		slog.Warn("ocr rate parsing failed (non-critical)", "error", err)
		return nil
	}
	slog.Info("rate read from screenshot", "rate", sample.UnitRate)
	return &sample
}

func (u *ConversionUsecase) conversionCaption(req entity.ConversionRequest, rate *entity.RateSample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s %s ➔ %s</b>", u.printer.Sprintf("%.2f", req.Amount), req.From, req.To)
	if req.HasAdjustment() {
		fmt.Fprintf(&b, "\n📊 Rate adjustment: %+.1f%%", req.AdjustmentPercent())
	}
	fmt.Fprintf(&b, "\n\nXE Rate, %s", u.now().UTC().Format("15:04 UTC, 02-01-2006"))
	if rate != nil && rate.UnitRate > 0 {
		fmt.Fprintf(&b, "\n1 %s = %.7f %s", req.From, rate.UnitRate, req.To)
		fmt.Fprintf(&b, "\n1 %s = %.7f %s", req.To, rate.Reciprocal(), req.From)
	}
	return b.String()
}

func (u *ConversionUsecase) ricoCaption() string {
	now := u.now()
	if loc, err := time.LoadLocation(RicoTimezone); err == nil {
		now = now.In(loc)
	} else {
		slog.Warn("failed to load timezone", "tz", RicoTimezone, "error", err)
	}
	return fmt.Sprintf("Rico.ge Exchange Rates\n%s (Tbilisi)", now.Format("15:04"))
}

// asFetchError makes sure err matches domain.ErrExternalFetch.
func asFetchError(op string, err error) error {
	if errors.Is(err, domain.ErrExternalFetch) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrExternalFetch, err)
}
