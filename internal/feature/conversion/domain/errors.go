// Package domain defines domain-level errors for the conversion feature.
package domain

import "errors"

var (
	// ErrRateParse indicates that no exchange rate could be derived from a page.
	// It is recovered by the orchestrator: the caption simply omits the rate lines.
	ErrRateParse = errors.New("rate parse failed")

	// ErrExternalFetch indicates that the rendering service or the image download failed.
	// It aborts the current command.
	ErrExternalFetch = errors.New("external fetch failed")

	// ErrInvalidRequest indicates a request that cannot be rendered (bad currency code, amount or multiplier).
	ErrInvalidRequest = errors.New("invalid conversion request")
)
