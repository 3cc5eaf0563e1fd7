// Package dto defines data transfer objects for the URLBox API responses.
package dto

// RenderResponse represents the JSON response of a render request with response_type=json.
type RenderResponse struct {
	RenderURL string `json:"renderUrl"`
	HTMLURL   string `json:"htmlUrl,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Error     *struct {
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error,omitempty"`
}
