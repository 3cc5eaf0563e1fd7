// Package dto はconversionフィーチャーのHTTPレスポンス型を定義します。
package dto

// RateResponse はページから読み取ったレートです。
type RateResponse struct {
	FromAmount float64 `json:"from_amount"`
	ToAmount   float64 `json:"to_amount"`
	UnitRate   float64 `json:"unit_rate"`
	Reciprocal float64 `json:"reciprocal"`
}

// ConversionResponse は /v1/convert と /v1/rico のレスポンスボディです。
// Image はPNGのバイト列で、JSONではbase64文字列になります。
type ConversionResponse struct {
	Amount         float64       `json:"amount,omitempty"`
	From           string        `json:"from,omitempty"`
	To             string        `json:"to,omitempty"`
	RateMultiplier float64       `json:"rate_multiplier,omitempty"`
	Caption        string        `json:"caption"`
	Rate           *RateResponse `json:"rate"`
	Image          []byte        `json:"image"`
}

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error string `json:"error"`
}
