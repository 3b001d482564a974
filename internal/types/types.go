package types

import "time"

// Post represents a single X post as returned by the platform API.
type Post struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	AuthorHandle   string    `json:"author_handle"`
	AuthorID       string    `json:"author_id"`
	Text           string    `json:"text"`
	Likes          int       `json:"likes"`
	Bookmarks      int       `json:"bookmarks"`
	Views          int       `json:"views"`
	Timestamp      time.Time `json:"timestamp"`
	InReplyToID    string    `json:"in_reply_to_id,omitempty"`
}

// ThreadSummary is the aggregated view over a root post and its reply thread.
// Context holds the root post's text followed by each thread post's text in
// chronological order, with bookmark-promotion lines filtered out.
type ThreadSummary struct {
	ConversationID string   `json:"conversation_id"`
	TotalViews     int      `json:"total_views"`
	TotalLikes     int      `json:"total_likes"`
	TotalBookmarks int      `json:"total_bookmarks"`
	Username       string   `json:"username"`
	UserID         string   `json:"user_id"`
	Context        []string `json:"context"`
}
