// Package htmltext converts rendered HTML pages into plain text for rate extraction.
package htmltext

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"fxchart_bot/internal/feature/conversion/usecase"
)

// skipped elements never contribute prose.
const skipped = "script, style, noscript, template, svg, iframe, head, nav, footer"

// blockTags start a new line in the output. Inline elements are concatenated as-is so that
// split numbers like "0.92<span>345</span>" stay one number.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "figure": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// Extractor strips markup and boilerplate from HTML.
type Extractor struct{}

// Extractorがusecase.TextExtractorを実装していることをコンパイル時に検証します。
var _ usecase.TextExtractor = (*Extractor)(nil)

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the visible prose of raw, one block per line.
// It returns an empty string when the page has no visible text.
func (e *Extractor) ExtractText(_ context.Context, raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(skipped).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	root.Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			walk(&b, n)
		}
	})
	return normalize(b.String()), nil
}

func walk(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// normalize collapses whitespace inside lines and drops empty lines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
