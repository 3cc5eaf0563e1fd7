package usecase

import "strconv"

// Adjust applies multiplier to amount and rounds the product to 2 decimal places.
// Rounding works on the exact binary value of the product (ties to even), so 1.005 becomes 1.00.
// Zero and negative amounts are not real amounts and are returned unchanged.
func Adjust(amount, multiplier float64) float64 {
	if amount <= 0 {
		return amount
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(amount*multiplier, 'f', 2, 64), 64)
	if err != nil {
		return amount * multiplier
	}
	return v
}
