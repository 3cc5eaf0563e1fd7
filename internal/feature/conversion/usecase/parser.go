package usecase

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"fxchart_bot/internal/feature/conversion/domain/entity"
)

const (
	// MaxRandomAmount is the upper bound of the amount picked when the user gives none.
	MaxRandomAmount = 10000
	// FallbackCurrency is the default target currency.
	FallbackCurrency = "USD"
	// FallbackCurrencyForUSD is the default target currency when the base currency is USD.
	FallbackCurrencyForUSD = "EUR"
)

// InputParser turns command arguments into a ConversionRequest.
// It holds no state besides the random source used for default amounts.
type InputParser struct {
	randomAmount func() float64
}

// NewInputParser creates an InputParser. A nil randomAmount uses a uniform integer in [1, MaxRandomAmount].
func NewInputParser(randomAmount func() float64) *InputParser {
	if randomAmount == nil {
		randomAmount = func() float64 { return float64(rand.IntN(MaxRandomAmount) + 1) }
	}
	return &InputParser{randomAmount: randomAmount}
}

var defaultParser = NewInputParser(nil)

// ParseInput parses args with the default random source.
func ParseInput(args []string, base string) entity.ConversionRequest {
	return defaultParser.Parse(args, base)
}

// Parse normalizes args for the given base currency.
//
// The first token may be a target currency ("USD"), an amount with a source currency ("100USD")
// or a bare amount ("100"). Further tokens are rate adjustments ("R-2", "+5", "3%") or target
// currencies; the last of each kind wins. Anything unrecognized is ignored.
func (p *InputParser) Parse(args []string, base string) entity.ConversionRequest {
	base = strings.ToUpper(base)
	req := entity.ConversionRequest{
		Amount:         p.randomAmount(),
		From:           base,
		To:             FallbackCurrency,
		RateMultiplier: 1.0,
	}
	if base == FallbackCurrency {
		req.To = FallbackCurrencyForUSD
	}

	if len(args) == 0 {
		return req
	}

	first := []rune(strings.ToUpper(args[0]))
	switch {
	case len(first) == 3 && isAlpha(first):
		req.To = string(first)
	case len(first) >= 3 && isAlpha(first[len(first)-3:]):
		prefix := first[:len(first)-3]
		if isDigits(prefix) {
			if amount, err := strconv.ParseFloat(string(prefix), 64); err == nil {
				req.Amount = amount
				req.From = string(first[len(first)-3:])
				req.To = base
			}
		}
	case isDigits(first):
		if amount, err := strconv.ParseFloat(string(first), 64); err == nil {
			req.Amount = amount
		}
	default:
		slog.Debug("ignoring unrecognized first argument", "arg", args[0])
	}

	for _, raw := range args[1:] {
		arg := strings.ToUpper(raw)
		switch {
		case isRateToken(arg):
			multiplier, err := parseRateMultiplier(arg)
			if err != nil {
				slog.Warn("invalid rate adjustment value", "arg", raw, "error", err)
				continue
			}
			req.RateMultiplier = multiplier
		case isCurrencyCode(arg):
			req.To = arg
		}
	}

	slog.Debug("parsed currency input",
		"amount", req.Amount, "from", req.From, "to", req.To, "rate_multiplier", req.RateMultiplier)
	return req
}

// isRateToken reports whether arg has the shape of a rate adjustment.
func isRateToken(arg string) bool {
	if strings.HasPrefix(arg, "R") || strings.HasPrefix(arg, "+") ||
		strings.HasPrefix(arg, "-") || strings.HasSuffix(arg, "%") {
		return true
	}
	return isDigits([]rune(strings.Replace(arg, ".", "", 1)))
}

// parseRateMultiplier converts a rate token into a multiplier.
// Positive values scale up linearly; negative values divide, so -100 halves instead of zeroing.
func parseRateMultiplier(arg string) (float64, error) {
	s := strings.TrimLeft(arg, "R")
	s = strings.TrimLeft(s, "+")
	s = strings.TrimRight(s, "%")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	if v >= 0 {
		return 1 + v/100, nil
	}
	return 1 / (1 + math.Abs(v)/100), nil
}

func isCurrencyCode(arg string) bool {
	r := []rune(arg)
	return len(r) == 3 && isAlpha(r)
}

func isAlpha(rs []rune) bool {
	if len(rs) == 0 {
		return false
	}
	for _, r := range rs {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isDigits(rs []rune) bool {
	if len(rs) == 0 {
		return false
	}
	for _, r := range rs {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
