// Package extractor isolates the main article region of an HTML document and
// converts it to plain structured text.
package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoContent is returned when no main-content region can be isolated, e.g.
// on a boilerplate-only page.
var ErrNoContent = errors.New("no extractable content")

// Image is a picture referenced from inside the article region.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Article is the structured result of extraction. Markdown carries headings,
// paragraphs and code blocks only; no markup survives.
type Article struct {
	Title    string  `json:"title"`
	Markdown string  `json:"markdown"`
	Images   []Image `json:"images"`
}

// minContentScore is the threshold below which a candidate region is treated
// as boilerplate rather than article content.
const minContentScore = 25.0

// Extract parses the document, isolates the primary article region, and
// converts it to plain text. Image sources are resolved against baseURL and
// deduplicated in document order.
func Extract(rawHTML, baseURL string) (*Article, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, _ := url.Parse(baseURL)

	region := findContentRegion(doc)
	if region == nil {
		return nil, ErrNoContent
	}

	markdown := renderMarkdown(region)
	if strings.TrimSpace(markdown) == "" {
		return nil, ErrNoContent
	}

	title := findTitle(doc)

	return &Article{
		Title:    title,
		Markdown: markdown,
		Images:   collectImages(region, base),
	}, nil
}

// findContentRegion scores every element on the text mass of its paragraph
// children, penalized by link density, and returns the best candidate.
func findContentRegion(doc *html.Node) *html.Node {
	var best *html.Node
	var bestScore float64

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if isBoilerplate(n) {
				return
			}
			if score := contentScore(n); score > bestScore {
				bestScore = score
				best = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if bestScore < minContentScore {
		return nil
	}
	return best
}

// contentScore rewards direct paragraph and heading children carrying real
// text. Scoring direct children only keeps the score local, so the tightest
// wrapper around the article wins over <body>.
func contentScore(n *html.Node) float64 {
	var score float64
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "p", "pre", "h1", "h2", "h3", "blockquote":
			text := nodeText(c)
			if len(text) < 20 {
				continue
			}
			score += float64(len(text)) / 10
			score += float64(strings.Count(text, ","))
		}
	}
	if score == 0 {
		return 0
	}

	total := len(nodeText(n))
	linked := linkTextLength(n)
	if total > 0 {
		density := float64(linked) / float64(total)
		score *= 1 - density
	}
	return score
}

// isBoilerplate filters structural chrome before scoring.
func isBoilerplate(n *html.Node) bool {
	switch n.Data {
	case "script", "style", "nav", "header", "footer", "aside", "form", "noscript", "iframe":
		return true
	}

	attrs := strings.ToLower(attr(n, "id") + " " + attr(n, "class"))
	for _, marker := range []string{"sidebar", "comment", "related", "promo", "banner", "advert"} {
		if strings.Contains(attrs, marker) {
			return true
		}
	}
	return false
}

// renderMarkdown converts the region's structured markup to a plain
// heading/paragraph/code representation.
func renderMarkdown(region *html.Node) string {
	var blocks []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				level := int(n.Data[1] - '0')
				if text := nodeText(n); text != "" {
					blocks = append(blocks, strings.Repeat("#", level)+" "+text)
				}
				return
			case "p", "blockquote":
				if text := nodeText(n); text != "" {
					if n.Data == "blockquote" {
						text = "> " + text
					}
					blocks = append(blocks, text)
				}
				return
			case "pre":
				if code := rawText(n); strings.TrimSpace(code) != "" {
					blocks = append(blocks, "```\n"+strings.TrimRight(code, "\n")+"\n```")
				}
				return
			case "li":
				if text := nodeText(n); text != "" {
					blocks = append(blocks, "- "+text)
				}
				return
			case "script", "style", "nav", "aside", "form":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(region)

	return strings.Join(blocks, "\n\n")
}

// collectImages gathers img elements within the region only, preserving
// document order and deduplicating by resolved source.
func collectImages(region *html.Node, base *url.URL) []Image {
	var images []Image
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			src := attr(n, "src")
			if src == "" {
				src = attr(n, "data-src")
			}
			if src != "" {
				if base != nil {
					if ref, err := url.Parse(src); err == nil {
						src = base.ResolveReference(ref).String()
					}
				}
				if !seen[src] {
					seen[src] = true
					images = append(images, Image{Src: src, Alt: attr(n, "alt")})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(region)

	return images
}

// findTitle prefers the heuristic's own detection (the document's leading h1,
// then og:title), falling back to the title tag.
func findTitle(doc *html.Node) string {
	var ogTitle, h1Title, docTitle string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				if strings.EqualFold(attr(n, "property"), "og:title") && ogTitle == "" {
					ogTitle = attr(n, "content")
				}
			case "h1":
				if h1Title == "" {
					h1Title = nodeText(n)
				}
			case "title":
				if docTitle == "" {
					docTitle = nodeText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if h1Title != "" {
		return h1Title
	}
	if ogTitle != "" {
		return ogTitle
	}
	return docTitle
}

// linkTextLength sums the text length inside anchor elements.
func linkTextLength(n *html.Node) int {
	var total int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			total += len(nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return total
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText flattens the node's text content, collapsing whitespace.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// rawText preserves whitespace, for code blocks.
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
