// Package urlbox provides a client for the URLBox screenshot rendering API.
package urlbox

import "time"

// DefaultBaseURL is the URLBox API root.
const DefaultBaseURL = "https://api.urlbox.com/v1"

// Config holds configuration for the URLBox API client.
// It is filled from URLBOX_* variables by the platform config loader.
type Config struct {
	APIKey  string        `envconfig:"API_KEY"`                                    // API key, part of the request path
	BaseURL string        `envconfig:"BASE_URL" default:"https://api.urlbox.com/v1"` // Base URL for the API
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`                      // HTTP request timeout
}
