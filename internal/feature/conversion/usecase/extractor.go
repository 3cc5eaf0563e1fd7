package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fxchart_bot/internal/feature/conversion/domain"
	"fxchart_bot/internal/feature/conversion/domain/entity"
)

// RatePrecision is the number of decimal places kept in a unit rate.
const RatePrecision = 7

// ratePattern matches a "<amount> <currency name> = <amount> <currency name>" statement,
// e.g. "1.00 US Dollar = 0.92345 Euros". Amounts may carry thousands separators.
var ratePattern = regexp.MustCompile(
	`(\d{1,3}(?:,\d{3})*|\d+)\.\d+\s+[A-Za-z\s]+=\s*(\d{1,3}(?:,\d{3})*|\d+)\.\d+\s+[A-Za-z\s]+`)

// notAmountChars matches everything that is not part of the two amounts or the separator.
var notAmountChars = regexp.MustCompile(`[^0-9.=]`)

// TextExtractor converts a raw page (usually HTML) into plain prose.
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type TextExtractor interface {
	ExtractText(ctx context.Context, raw string) (string, error)
}

// RateExtractor derives a unit exchange rate from rendered page text.
type RateExtractor struct {
	text TextExtractor
}

// NewRateExtractor creates a RateExtractor backed by the given text extractor.
func NewRateExtractor(text TextExtractor) *RateExtractor {
	return &RateExtractor{text: text}
}

// Extract strips markup from raw and parses the first rate statement found.
// Every failure wraps domain.ErrRateParse.
func (e *RateExtractor) Extract(ctx context.Context, raw string) (entity.RateSample, error) {
	clean, err := e.text.ExtractText(ctx, raw)
	if err != nil {
		return entity.RateSample{}, fmt.Errorf("%w: extract text: %v", domain.ErrRateParse, err)
	}
	return ParseRateStatement(clean)
}

// ParseRateStatement parses the first rate statement in already-clean text.
func ParseRateStatement(clean string) (entity.RateSample, error) {
	if strings.TrimSpace(clean) == "" {
		return entity.RateSample{}, fmt.Errorf("%w: empty text", domain.ErrRateParse)
	}

	match := ratePattern.FindString(clean)
	if match == "" {
		slog.Debug("no rate statement found", "preview", preview(clean, 1000))
		return entity.RateSample{}, fmt.Errorf("%w: no currency amounts in text", domain.ErrRateParse)
	}
	slog.Debug("found rate statement", "statement", match)

	amounts := notAmountChars.ReplaceAllString(match, "")
	parts := strings.Split(amounts, "=")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return entity.RateSample{}, fmt.Errorf("%w: invalid amount format %q", domain.ErrRateParse, amounts)
	}

	from, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return entity.RateSample{}, fmt.Errorf("%w: parse source amount %q: %v", domain.ErrRateParse, parts[0], err)
	}
	to, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return entity.RateSample{}, fmt.Errorf("%w: parse target amount %q: %v", domain.ErrRateParse, parts[1], err)
	}
	if from <= 0 {
		return entity.RateSample{}, fmt.Errorf("%w: source amount must be greater than 0", domain.ErrRateParse)
	}

	rate := decimal.NewFromFloat(to).DivRound(decimal.NewFromFloat(from), RatePrecision)
	return entity.RateSample{
		FromAmount: from,
		ToAmount:   to,
		UnitRate:   rate.InexactFloat64(),
	}, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
