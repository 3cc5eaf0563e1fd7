package dto

// CalculationResponse は /v1/calc のレスポンスボディです。
type CalculationResponse struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
	Formatted  string  `json:"formatted"`
}
