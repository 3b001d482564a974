// Package twitter is a minimal X client covering the calls the scoring
// pipeline needs: fetch one post, page an author's tweets-and-replies, and
// check session liveness. It speaks the same GraphQL endpoints the web client
// uses, authenticated either by a restored cookie session or by OAuth1
// application credentials.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/writetoearn/scorer/internal/types"
)

var (
	// ErrNotFound is returned when the requested post does not exist or is
	// not visible to the session.
	ErrNotFound = errors.New("post not found")
	// ErrUnauthorized indicates the session is no longer accepted.
	ErrUnauthorized = errors.New("session rejected")
)

const (
	apiBase = "https://x.com/i/api"

	tweetByIDPath    = "/graphql/2ICDjqPd81tulZcYrtpTuQ/TweetResultByRestId"
	userTimelinePath = "/graphql/pZXwh96YGRqmBbbxu7Vk2Q/UserTweetsAndReplies"
	viewerPath       = "/1.1/account/settings.json"

	// Public bearer token used by the X web client for GraphQL calls.
	webBearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

	requestTimeout = 20 * time.Second
)

// Client is the authenticated handle the session manager hands out.
type Client interface {
	// GetTweet fetches a single post by id.
	GetTweet(ctx context.Context, id string) (*types.Post, error)
	// TimelinePage fetches one page of a user's tweets-and-replies. An empty
	// cursor starts from the top; the returned cursor is empty when the
	// timeline is exhausted.
	TimelinePage(ctx context.Context, userID string, count int, cursor string) ([]types.Post, string, error)
	// IsLoggedIn performs a lightweight liveness check.
	IsLoggedIn(ctx context.Context) (bool, error)
	// Cookies returns the session's current credential records.
	Cookies() []CookieRecord
}

// signer mutates an outgoing request with authentication material.
type signer interface {
	sign(req *http.Request) error
}

// HTTPClient talks to X over its JSON API.
type HTTPClient struct {
	http    *http.Client
	signer  signer
	records []CookieRecord
}

// cookieSigner authenticates with the web client's bearer token plus the
// session's csrf cookie echo.
type cookieSigner struct {
	csrf string
}

func (s *cookieSigner) sign(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+webBearerToken)
	if s.csrf != "" {
		req.Header.Set("x-csrf-token", s.csrf)
	}
	return nil
}

// NewWithCookies builds a client from a previously captured cookie session.
// The records are applied verbatim; callers own liveness verification.
func NewWithCookies(records []CookieRecord) (*HTTPClient, error) {
	jar, err := jarFromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("failed to build cookie jar: %w", err)
	}

	return &HTTPClient{
		http: &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
		},
		signer:  &cookieSigner{csrf: csrfToken(records)},
		records: records,
	}, nil
}

// NewWithOAuth1 builds a client that signs every request with the configured
// application credentials instead of a cookie session.
func NewWithOAuth1(consumerKey, consumerSecret, accessToken, accessSecret string) *HTTPClient {
	return &HTTPClient{
		http: &http.Client{Timeout: requestTimeout},
		signer: &oauth1Signer{
			consumerKey:    consumerKey,
			consumerSecret: consumerSecret,
			token:          accessToken,
			tokenSecret:    accessSecret,
		},
	}
}

// Cookies returns the credential records this client was built from. OAuth
// clients have none.
func (c *HTTPClient) Cookies() []CookieRecord {
	return c.records
}

func (c *HTTPClient) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if err := c.signer.sign(req); err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status 404", ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// GetTweet fetches one post by its rest id.
func (c *HTTPClient) GetTweet(ctx context.Context, id string) (*types.Post, error) {
	variables := map[string]any{
		"tweetId":                id,
		"withCommunity":          false,
		"includePromotedContent": false,
		"withVoice":              false,
	}
	u := graphqlURL(tweetByIDPath, variables)

	var result tweetResultResponse
	if err := c.get(ctx, u, &result); err != nil {
		return nil, err
	}

	post := result.post()
	if post == nil {
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	return post, nil
}

// TimelinePage fetches one page of the user's tweets-and-replies timeline.
func (c *HTTPClient) TimelinePage(ctx context.Context, userID string, count int, cursor string) ([]types.Post, string, error) {
	variables := map[string]any{
		"userId":                 userID,
		"count":                  count,
		"includePromotedContent": false,
		"withVoice":              false,
	}
	if cursor != "" {
		variables["cursor"] = cursor
	}
	u := graphqlURL(userTimelinePath, variables)

	var result timelineResponse
	if err := c.get(ctx, u, &result); err != nil {
		return nil, "", err
	}

	posts, next := result.entries()
	return posts, next, nil
}

// IsLoggedIn checks whether the platform still accepts the session.
func (c *HTTPClient) IsLoggedIn(ctx context.Context) (bool, error) {
	var settings struct {
		ScreenName string `json:"screen_name"`
	}
	err := c.get(ctx, apiBase+viewerPath, &settings)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}
	return settings.ScreenName != "", nil
}

// graphqlURL encodes GraphQL variables into the query string the way the web
// client does.
func graphqlURL(path string, variables map[string]any) string {
	vars, _ := json.Marshal(variables)
	features, _ := json.Marshal(defaultFeatures)

	q := url.Values{}
	q.Set("variables", string(vars))
	q.Set("features", string(features))
	return apiBase + path + "?" + q.Encode()
}

// defaultFeatures is the feature-flag set the GraphQL endpoints require to be
// present. Values track the public web client.
var defaultFeatures = map[string]bool{
	"creator_subscriptions_tweet_preview_api_enabled":                         true,
	"tweet_awards_web_tipping_enabled":                                        false,
	"freedom_of_speech_not_reach_fetch_enabled":                               true,
	"standardized_nudges_misinfo":                                             true,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
	"longform_notetweets_consumption_enabled":                                 true,
	"longform_notetweets_rich_text_read_enabled":                              true,
	"longform_notetweets_inline_media_enabled":                                true,
	"responsive_web_graphql_exclude_directive_enabled":                        true,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
	"responsive_web_graphql_timeline_navigation_enabled":                      true,
	"responsive_web_enhance_cards_enabled":                                    false,
	"verified_phone_label_enabled":                                            false,
	"view_counts_everywhere_api_enabled":                                      true,
}
