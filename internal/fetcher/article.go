package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/writetoearn/scorer/internal/extractor"
)

// articleUserAgent identifies the fetcher as a regular browser; article hosts
// commonly reject unadorned Go clients.
const articleUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxArticleBytes caps how much of a response body is read.
const maxArticleBytes = 4 << 20

// ArticleResult is a fetched article. Convertible is false when the response
// was not HTML (or extraction found nothing), in which case Content carries
// the raw decoded body.
type ArticleResult struct {
	Title       string            `json:"title,omitempty"`
	Content     string            `json:"content"`
	Images      []extractor.Image `json:"images"`
	Convertible bool              `json:"convertible"`
}

// ArticleFetcher retrieves and extracts article pages.
type ArticleFetcher struct {
	http *http.Client
}

// NewArticleFetcher creates an article fetcher with its own HTTP client.
func NewArticleFetcher() *ArticleFetcher {
	return &ArticleFetcher{
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch GETs the URL and extracts its content. Non-HTML responses fall back
// to the raw body tagged as non-convertible.
func (a *ArticleFetcher) Fetch(ctx context.Context, rawURL string) (*ArticleResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid article URL: %w", err)
	}
	req.Header.Set("User-Agent", articleUserAgent)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read article body: %w", err)
	}

	text := string(body)
	contentType := resp.Header.Get("Content-Type")
	isHTML := strings.Contains(contentType, "text/html") ||
		strings.Contains(strings.ToLower(text), "<html")

	if !isHTML {
		return &ArticleResult{
			Content: fmt.Sprintf("Content type %s cannot be simplified to markdown, raw content follows:\n%s", contentType, text),
			Images:  []extractor.Image{},
		}, nil
	}

	article, err := extractor.Extract(text, rawURL)
	if err != nil {
		if errors.Is(err, extractor.ErrNoContent) {
			// Degrade rather than fail; the model can still read raw text.
			return &ArticleResult{
				Content: "Page failed to be simplified from HTML",
				Images:  []extractor.Image{},
			}, nil
		}
		return nil, err
	}

	return &ArticleResult{
		Title:       article.Title,
		Content:     article.Markdown,
		Images:      article.Images,
		Convertible: true,
	}, nil
}
