package twitter

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// CookieRecord mirrors the platform's native cookie shape. Records are
// persisted and restored exactly as captured; nothing here reconstructs or
// normalizes what the provider issued.
type CookieRecord struct {
	Key      string  `json:"key"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// jarFromRecords builds a cookie jar seeded with the given records for both
// x.com and twitter.com, which share the session cookies.
func jarFromRecords(records []CookieRecord) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	cookies := make([]*http.Cookie, 0, len(records))
	for _, r := range records {
		c := &http.Cookie{
			Name:     r.Key,
			Value:    r.Value,
			Path:     r.Path,
			HttpOnly: r.HTTPOnly,
			Secure:   r.Secure,
		}
		if r.Expires > 0 {
			c.Expires = time.Unix(int64(r.Expires), 0)
		}
		cookies = append(cookies, c)
	}

	for _, origin := range []string{"https://x.com/", "https://twitter.com/", "https://api.x.com/"} {
		u, err := url.Parse(origin)
		if err != nil {
			return nil, err
		}
		jar.SetCookies(u, cookies)
	}

	return jar, nil
}

// csrfToken extracts the ct0 cookie value, which X requires echoed in the
// x-csrf-token header on authenticated calls.
func csrfToken(records []CookieRecord) string {
	for _, r := range records {
		if r.Key == "ct0" {
			return r.Value
		}
	}
	return ""
}
