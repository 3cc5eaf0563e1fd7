// Package entity defines the domain models for the calculator feature.
package entity

// Calculation is an evaluated arithmetic expression.
type Calculation struct {
	Expression string  // Normalized expression (no leading slash, no spaces)
	Value      float64 // Raw result
	Formatted  string  // Integer when integral, otherwise rounded to 2 decimals
}
