package entity

// RenderRequest describes a screenshot to be taken by the rendering service.
type RenderRequest struct {
	URL    string // Page to render
	Width  int    // Viewport width in pixels
	Height int    // Viewport height in pixels
	Scroll string // Pixel offset ("300") or CSS selector (".currencies-section")
}

// PageFetch is the rendering service output for one request.
type PageFetch struct {
	ImageLocator string // URL of the rendered image
	RawText      string // Raw HTML of the rendered page
}
