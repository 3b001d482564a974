package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
<title>Site | The Tools Will Change</title>
<meta property="og:title" content="The Tools Will Change">
</head>
<body>
<nav><a href="/">Home</a><a href="/about">About</a></nav>
<div class="sidebar"><p>Subscribe to our newsletter for daily updates, hot takes, and more great content every morning.</p></div>
<article>
<h1>The Tools Will Change</h1>
<p>Every generation of builders inherits a toolkit it did not choose, and spends its early years mistaking familiarity for superiority. The tools will change again, and the muscle worth building is the one that survives that change.</p>
<p>What endures is not mastery of any single instrument, but the judgment to know which problems matter, which constraints are real, and which habits deserve to be carried forward into whatever comes next.</p>
<img src="/images/cover.png" alt="cover">
<img src="/images/cover.png" alt="duplicate">
<p>Practice the craft, not the tool. The craft compounds; the tool depreciates from the day you learn it.</p>
</article>
<footer><p>Copyright</p></footer>
</body>
</html>`

func TestFetchArticleExtractsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.Contains(got, "Mozilla") {
			t.Errorf("User-Agent = %q, want a browser-like value", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	f := NewArticleFetcher()
	result, err := f.Fetch(context.Background(), server.URL+"/post")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !result.Convertible {
		t.Error("HTML article should be convertible")
	}
	if result.Title != "The Tools Will Change" {
		t.Errorf("Title = %q", result.Title)
	}
	if !strings.Contains(result.Content, "Every generation of builders") {
		t.Errorf("Content missing article text: %q", result.Content)
	}
	if strings.Contains(result.Content, "newsletter") {
		t.Error("sidebar boilerplate leaked into content")
	}
	if len(result.Images) != 1 {
		t.Fatalf("Images = %v, want the cover deduplicated to one", result.Images)
	}
	if result.Images[0].Src != server.URL+"/images/cover.png" {
		t.Errorf("image src = %q, want resolved against base", result.Images[0].Src)
	}
}

func TestFetchArticleNonHTMLFallsBackRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 raw bytes"))
	}))
	defer server.Close()

	f := NewArticleFetcher()
	result, err := f.Fetch(context.Background(), server.URL+"/doc.pdf")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if result.Convertible {
		t.Error("non-HTML response must not be marked convertible")
	}
	if result.Title != "" || len(result.Images) != 0 {
		t.Errorf("raw fallback should carry no title or images: %+v", result)
	}
	if encoded, _ := json.Marshal(result); !strings.Contains(string(encoded), `"images":[]`) {
		t.Errorf("images should serialize as an empty list, got %s", encoded)
	}
	if !strings.Contains(result.Content, "cannot be simplified to markdown") {
		t.Errorf("Content = %q, want raw fallback preamble", result.Content)
	}
	if !strings.Contains(result.Content, "%PDF-1.4 raw bytes") {
		t.Errorf("Content = %q, want raw body included", result.Content)
	}
}

func TestFetchArticleBoilerplateOnlyDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><nav><a href="/">Home</a></nav></body></html>`))
	}))
	defer server.Close()

	f := NewArticleFetcher()
	result, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("extraction failure on tolerable pages must degrade, got %v", err)
	}
	if result.Convertible {
		t.Error("degraded result must not be convertible")
	}
	if result.Content != "Page failed to be simplified from HTML" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Images == nil {
		t.Error("degraded result should carry an empty image list, not null")
	}
}

func TestFetchArticleNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	f := NewArticleFetcher()
	_, err := f.Fetch(context.Background(), server.URL+"/gone")
	if !errors.Is(err, ErrContentNotFound) {
		t.Errorf("err = %v, want ErrContentNotFound", err)
	}
}

func TestFetchArticleServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewArticleFetcher()
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Error("non-200 status should be an error")
	}
}
