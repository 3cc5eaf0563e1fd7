package usecase_test

import (
	"testing"

	"fxchart_bot/internal/feature/conversion/usecase"
)

func TestAdjust(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		amount     float64
		multiplier float64
		want       float64
	}{
		{"positive adjustment", 100, 1.05, 105},
		{"no adjustment", 123.456, 1, 123.46},
		{"negative adjustment rounds to cents", 100, 1 / 1.02, 98.04},
		{"zero amount passes through", 0, 1.05, 0},
		{"negative amount passes through unrounded", -5, 2, -5},
		{"negative fraction passes through unrounded", -5.555, 2, -5.555},
		{"large amount", 1234567.891, 1.1, 1358024.68},
		{"binary value below half rounds down", 1.005, 1, 1.0},
		{"binary value below half rounds down again", 2.675, 1, 2.67},
		{"exact tie rounds to even", 0.125, 1, 0.12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := usecase.Adjust(tt.amount, tt.multiplier); got != tt.want {
				t.Errorf("Adjust(%v, %v) = %v, want %v", tt.amount, tt.multiplier, got, tt.want)
			}
		})
	}
}
