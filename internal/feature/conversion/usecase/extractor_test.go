package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxchart_bot/internal/feature/conversion/domain"
	"fxchart_bot/internal/feature/conversion/domain/entity"
	"fxchart_bot/internal/feature/conversion/usecase"
)

// plainText は入力をそのまま返すTextExtractorのモック実装です。
type plainText struct {
	err error
}

func (p plainText) ExtractText(_ context.Context, raw string) (string, error) {
	return raw, p.err
}

func TestRateExtractor_Extract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantRate float64
		wantFrom float64
		wantTo   float64
	}{
		{
			name:     "simple statement",
			text:     "1.00 US Dollar = 0.92 Euro",
			wantRate: 0.92,
			wantFrom: 1,
			wantTo:   0.92,
		},
		{
			name:     "thousands separators",
			text:     "1,234.56 Japanese Yen = 7.89 US Dollars",
			wantRate: 0.0063909,
			wantFrom: 1234.56,
			wantTo:   7.89,
		},
		{
			name:     "separators on both sides",
			text:     "100,000.00 Euros = 92,345.67 British Pounds",
			wantRate: 0.9234567,
			wantFrom: 100000,
			wantTo:   92345.67,
		},
		{
			name:     "statement spread over lines",
			text:     "Convert\n1.00 US Dollar =\n0.92345 Euros\nMid-market rate",
			wantRate: 0.92345,
			wantFrom: 1,
			wantTo:   0.92345,
		},
		{
			name:     "first statement wins",
			text:     "1.00 Euro = 1.08 US Dollars\n1.00 US Dollar = 0.92 Euros",
			wantRate: 1.08,
			wantFrom: 1,
			wantTo:   1.08,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sample, err := usecase.NewRateExtractor(plainText{}).Extract(context.Background(), tt.text)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRate, sample.UnitRate)
			assert.Equal(t, tt.wantFrom, sample.FromAmount)
			assert.Equal(t, tt.wantTo, sample.ToAmount)
		})
	}
}

func TestRateExtractor_Extract_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		textErr error
	}{
		{name: "no numbers", text: "no numbers here"},
		{name: "empty text", text: ""},
		{name: "whitespace only", text: "  \n\t "},
		{name: "integers only", text: "1 US Dollar = 0 Euro"},
		{name: "zero source amount", text: "0.00 US Dollar = 1.00 Euro"},
		{name: "text extractor failure", text: "1.00 US Dollar = 0.92 Euro", textErr: errors.New("broken html")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := usecase.NewRateExtractor(plainText{err: tt.textErr}).Extract(context.Background(), tt.text)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrRateParse)
		})
	}
}

func TestRateSample_ReciprocalMatchesCaptionPrecision(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"1.00 US Dollar = 0.92 Euro",
		"1.00 Euro = 4.2712 Polish Zloty",
		"1.00 US Dollar = 3.6725 UAE Dirham",
		"1.00 Euro = 97.123456 Russian Rubles",
	} {
		sample, err := usecase.ParseRateStatement(text)
		require.NoError(t, err, text)

		// 7桁目の丸め誤差のみ許容
		assert.InDelta(t, 1/sample.UnitRate, sample.Reciprocal(), 1e-7, text)
		assert.InDelta(t, sample.UnitRate*sample.Reciprocal(), 1.0, 1e-5, text)
	}
}

func TestRateSample_ReciprocalOfZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, entity.RateSample{}.Reciprocal())
}
