// Package entity defines the domain models for the conversion feature.
package entity

import "github.com/shopspring/decimal"

// ConversionRequest is a normalized currency conversion command.
// It is built once per user command and never mutated afterwards.
type ConversionRequest struct {
	Amount         float64 // Amount in the source currency (>= 0)
	From           string  // Source currency code (e.g., "EUR")
	To             string  // Target currency code (e.g., "USD")
	RateMultiplier float64 // Factor applied to Amount before rendering (> 0)
}

// HasAdjustment reports whether the request carries a rate adjustment.
func (r ConversionRequest) HasAdjustment() bool {
	return r.RateMultiplier != 1.0
}

// AdjustmentPercent returns the signed percentage represented by RateMultiplier.
func (r ConversionRequest) AdjustmentPercent() float64 {
	return (r.RateMultiplier - 1) * 100
}

// RateSample is an exchange rate derived from a single rendered page.
type RateSample struct {
	FromAmount float64 // Amount on the left side of the page statement
	ToAmount   float64 // Amount on the right side of the page statement
	UnitRate   float64 // ToAmount / FromAmount rounded to 7 decimal places
}

// Reciprocal returns 1/UnitRate rounded to 7 decimal places, or 0 for a zero rate.
func (s RateSample) Reciprocal() float64 {
	if s.UnitRate == 0 {
		return 0
	}
	return decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(s.UnitRate), 7).InexactFloat64()
}

// ConversionResult is what the orchestrator hands to the transport layer.
type ConversionResult struct {
	Request ConversionRequest
	Image   []byte      // Rendered screenshot bytes
	Caption string      // HTML-formatted caption
	Rate    *RateSample // nil when no rate could be derived from the page
}
