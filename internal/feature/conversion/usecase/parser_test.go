package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fxchart_bot/internal/feature/conversion/domain/entity"
	"fxchart_bot/internal/feature/conversion/usecase"
)

// fixedAmount is the "random" amount used by deterministic parser tests.
const fixedAmount = 4242.0

func newFixedParser() *usecase.InputParser {
	return usecase.NewInputParser(func() float64 { return fixedAmount })
}

func TestParseInput_DefaultsWithRandomAmount(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		req := usecase.ParseInput(nil, "EUR")

		assert.Equal(t, "EUR", req.From)
		assert.Equal(t, "USD", req.To)
		assert.Equal(t, 1.0, req.RateMultiplier)
		assert.GreaterOrEqual(t, req.Amount, 1.0)
		assert.LessOrEqual(t, req.Amount, float64(usecase.MaxRandomAmount))
		assert.Equal(t, float64(int(req.Amount)), req.Amount, "random amount must be an integer")
	}
}

func TestInputParser_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		base string
		want entity.ConversionRequest
	}{
		{
			name: "no args with USD base defaults to EUR target",
			args: nil,
			base: "USD",
			want: entity.ConversionRequest{Amount: fixedAmount, From: "USD", To: "EUR", RateMultiplier: 1},
		},
		{
			name: "bare currency code sets target",
			args: []string{"USD"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: fixedAmount, From: "EUR", To: "USD", RateMultiplier: 1},
		},
		{
			name: "lower case currency code is upper-cased",
			args: []string{"gbp"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: fixedAmount, From: "EUR", To: "GBP", RateMultiplier: 1},
		},
		{
			name: "amount with source currency converts into base",
			args: []string{"100USD"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "USD", To: "EUR", RateMultiplier: 1},
		},
		{
			name: "bare amount keeps default currencies",
			args: []string{"250"},
			base: "PLN",
			want: entity.ConversionRequest{Amount: 250, From: "PLN", To: "USD", RateMultiplier: 1},
		},
		{
			name: "letters with non-digit prefix are ignored",
			args: []string{"ABCD"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: fixedAmount, From: "EUR", To: "USD", RateMultiplier: 1},
		},
		{
			name: "decimal first token is ignored",
			args: []string{"12.5"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: fixedAmount, From: "EUR", To: "USD", RateMultiplier: 1},
		},
		{
			name: "same currency is allowed",
			args: []string{"usd"},
			base: "USD",
			want: entity.ConversionRequest{Amount: fixedAmount, From: "USD", To: "USD", RateMultiplier: 1},
		},
		{
			name: "positive R adjustment",
			args: []string{"100", "R+5"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "USD", RateMultiplier: 1.05},
		},
		{
			name: "percent suffix adjustment",
			args: []string{"100", "5%"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "USD", RateMultiplier: 1.05},
		},
		{
			name: "plain decimal adjustment",
			args: []string{"100", "2.5"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "USD", RateMultiplier: 1.025},
		},
		{
			name: "minus 100 halves instead of zeroing",
			args: []string{"100", "-100"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "USD", RateMultiplier: 0.5},
		},
		{
			name: "extra currency overrides target",
			args: []string{"100USD", "aed"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "USD", To: "AED", RateMultiplier: 1},
		},
		{
			name: "last adjustment and last currency win",
			args: []string{"100", "R5", "GBP", "-10", "CHF"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "CHF", RateMultiplier: 1 / 1.1},
		},
		{
			name: "malformed R alone is ignored",
			args: []string{"100", "R"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "USD", RateMultiplier: 1},
		},
		{
			name: "malformed adjustment keeps the previous one",
			args: []string{"100", "R+5", "Rabc"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "USD", RateMultiplier: 1.05},
		},
		{
			name: "malformed adjustment does not stop later tokens",
			args: []string{"100", "R-", "JPY"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "JPY", RateMultiplier: 1},
		},
		{
			name: "unrecognized extra tokens are ignored",
			args: []string{"100", "hello", "1.2.3"},
			base: "EUR",
			want: entity.ConversionRequest{Amount: 100, From: "EUR", To: "USD", RateMultiplier: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := newFixedParser().Parse(tt.args, tt.base)

			assert.Equal(t, tt.want.Amount, got.Amount)
			assert.Equal(t, tt.want.From, got.From)
			assert.Equal(t, tt.want.To, got.To)
			assert.InDelta(t, tt.want.RateMultiplier, got.RateMultiplier, 1e-12)
		})
	}
}

func TestInputParser_Parse_NegativeAdjustmentIsAsymmetric(t *testing.T) {
	t.Parallel()

	got := newFixedParser().Parse([]string{"100", "R-2"}, "EUR")

	assert.Equal(t, 100.0, got.Amount)
	assert.InDelta(t, 0.9803921568, got.RateMultiplier, 1e-9)
	assert.InDelta(t, 1/1.02, got.RateMultiplier, 1e-15)
}
