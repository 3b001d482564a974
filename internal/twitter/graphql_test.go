package twitter

import (
	"encoding/json"
	"testing"
	"time"
)

const tweetFixture = `{
	"data": {
		"tweetResult": {
			"result": {
				"rest_id": "1910622968289374299",
				"core": {
					"user_results": {
						"result": {
							"rest_id": "44196397",
							"legacy": {"screen_name": "author"}
						}
					}
				},
				"views": {"count": "1523"},
				"legacy": {
					"full_text": "thread root",
					"created_at": "Mon Apr 07 18:00:00 +0000 2025",
					"conversation_id_str": "1910622968289374299",
					"favorite_count": 42,
					"bookmark_count": 7
				}
			}
		}
	}
}`

func TestTweetResultToPost(t *testing.T) {
	var resp tweetResultResponse
	if err := json.Unmarshal([]byte(tweetFixture), &resp); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	post := resp.post()
	if post == nil {
		t.Fatal("post() returned nil")
	}
	if post.ID != "1910622968289374299" {
		t.Errorf("ID = %q", post.ID)
	}
	if post.ConversationID != "1910622968289374299" {
		t.Errorf("ConversationID = %q", post.ConversationID)
	}
	if post.AuthorHandle != "author" || post.AuthorID != "44196397" {
		t.Errorf("author = %q/%q", post.AuthorHandle, post.AuthorID)
	}
	if post.Likes != 42 || post.Bookmarks != 7 || post.Views != 1523 {
		t.Errorf("metrics = likes %d bookmarks %d views %d", post.Likes, post.Bookmarks, post.Views)
	}
	want := time.Date(2025, time.April, 7, 18, 0, 0, 0, time.UTC)
	if !post.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", post.Timestamp, want)
	}
}

func TestToPostMissingResult(t *testing.T) {
	var resp tweetResultResponse
	if err := json.Unmarshal([]byte(`{"data":{"tweetResult":{}}}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if post := resp.post(); post != nil {
		t.Errorf("empty result should yield nil post, got %+v", post)
	}
}

func TestToPostAuthorIDFallback(t *testing.T) {
	raw := `{"rest_id":"1","legacy":{"full_text":"x","user_id_str":"999"}}`
	var result tweetResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	post := result.toPost()
	if post.AuthorID != "999" {
		t.Errorf("AuthorID = %q, want legacy fallback 999", post.AuthorID)
	}
}

const timelineFixture = `{
	"data": {"user": {"result": {"timeline_v2": {"timeline": {"instructions": [
		{"type": "TimelinePinEntry", "entries": [
			{"content": {"itemContent": {"tweet_results": {"result": {"rest_id": "pinned", "legacy": {"full_text": "pinned"}}}}}}
		]},
		{"type": "TimelineAddEntries", "entries": [
			{"content": {"itemContent": {"tweet_results": {"result": {"rest_id": "1", "legacy": {"full_text": "solo tweet"}}}}}},
			{"content": {"items": [
				{"item": {"itemContent": {"tweet_results": {"result": {"rest_id": "2", "legacy": {"full_text": "module first"}}}}}},
				{"item": {"itemContent": {"tweet_results": {"result": {"rest_id": "3", "legacy": {"full_text": "module second"}}}}}}
			]}},
			{"content": {"cursorType": "Top", "value": "cursor-top"}},
			{"content": {"cursorType": "Bottom", "value": "cursor-bottom"}}
		]}
	]}}}}}
}`

func TestTimelineEntries(t *testing.T) {
	var resp timelineResponse
	if err := json.Unmarshal([]byte(timelineFixture), &resp); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	posts, cursor := resp.entries()
	if len(posts) != 3 {
		t.Fatalf("len(posts) = %d, want 3 (pin instruction skipped, module flattened)", len(posts))
	}
	for i, wantID := range []string{"1", "2", "3"} {
		if posts[i].ID != wantID {
			t.Errorf("posts[%d].ID = %q, want %q", i, posts[i].ID, wantID)
		}
	}
	if cursor != "cursor-bottom" {
		t.Errorf("cursor = %q, want cursor-bottom", cursor)
	}
}

func TestParseMetric(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"0", 0},
		{"1234", 1234},
		{"1,234,567", 1234567},
		{"1.2K", 1200},
		{"3k", 3000},
		{"5.7M", 5700000},
		{"2m", 2000000},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := parseMetric(tc.in); got != tc.want {
			t.Errorf("parseMetric(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
