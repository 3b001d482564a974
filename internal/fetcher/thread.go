// Package fetcher turns content locators into scoring input: it rebuilds a
// post's reply thread with aggregated engagement, and fetches article pages
// with readability extraction.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/writetoearn/scorer/internal/auth"
	"github.com/writetoearn/scorer/internal/twitter"
	"github.com/writetoearn/scorer/internal/types"
)

// ErrContentNotFound is returned when the root post does not exist.
var ErrContentNotFound = errors.New("content not found")

const (
	// timelineCap bounds how many of the author's recent posts are scanned
	// for thread membership.
	timelineCap = 100
	// timelinePageSize is the batch size per timeline request.
	timelinePageSize = 50
	// bookmarkMarker tags promotional bookmark-link lines, which are dropped
	// from the scoring context.
	bookmarkMarker = "🔖:"
)

// Fetcher reconstructs threads through the shared session.
type Fetcher struct {
	sessions *auth.SessionManager
	log      *slog.Logger
}

// New creates a Fetcher backed by the given session manager.
func New(sessions *auth.SessionManager, log *slog.Logger) *Fetcher {
	return &Fetcher{
		sessions: sessions,
		log:      log.With("component", "fetcher"),
	}
}

// FetchThread retrieves the root post, reconstructs its reply thread from the
// author's recent timeline, and aggregates engagement. If the timeline is
// unavailable the summary degrades to the root post alone.
func (f *Fetcher) FetchThread(ctx context.Context, postID string) (*types.ThreadSummary, error) {
	client, err := f.sessions.Client(ctx)
	if err != nil {
		return nil, err
	}

	root, err := client.GetTweet(ctx, postID)
	if err != nil {
		if errors.Is(err, twitter.ErrNotFound) {
			return nil, fmt.Errorf("%w: post %s", ErrContentNotFound, postID)
		}
		return nil, fmt.Errorf("failed to fetch post %s: %w", postID, err)
	}

	conversationID := root.ConversationID
	if conversationID == "" {
		conversationID = root.ID
	}

	thread, err := f.collectThread(ctx, client, root, conversationID)
	if err != nil {
		// Timeline enrichment is best effort; the root alone still scores.
		f.log.Warn("timeline enrichment failed, keeping root post only", "post", postID, "error", err)
		thread = nil
	}

	return summarize(root, conversationID, thread), nil
}

// collectThread pages the author's tweets-and-replies and classifies them
// against the root. Classification is transitive over this single pass: a
// candidate replying to an already-classified post joins the thread.
func (f *Fetcher) collectThread(ctx context.Context, client twitter.Client, root *types.Post, conversationID string) ([]types.Post, error) {
	var candidates []types.Post
	cursor := ""

	for len(candidates) < timelineCap {
		page, next, err := client.TimelinePage(ctx, root.AuthorID, timelinePageSize, cursor)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, page...)
		if next == "" || len(page) == 0 {
			break
		}
		cursor = next
	}
	if len(candidates) > timelineCap {
		candidates = candidates[:timelineCap]
	}

	inThread := map[string]bool{root.ID: true}
	var thread []types.Post

	for _, candidate := range candidates {
		if candidate.ID == root.ID {
			continue
		}
		if candidate.ConversationID == conversationID ||
			candidate.InReplyToID == root.ID ||
			(candidate.InReplyToID != "" && inThread[candidate.InReplyToID]) {
			inThread[candidate.ID] = true
			thread = append(thread, candidate)
		}
	}

	// Chronological order; the stable sort keeps fetch order for ties.
	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].Timestamp.Before(thread[j].Timestamp)
	})

	return thread, nil
}

// summarize aggregates the root and its thread. Views come from the root
// only; likes and bookmarks sum across the whole thread.
func summarize(root *types.Post, conversationID string, thread []types.Post) *types.ThreadSummary {
	summary := &types.ThreadSummary{
		ConversationID: conversationID,
		TotalViews:     root.Views,
		TotalLikes:     root.Likes,
		TotalBookmarks: root.Bookmarks,
		Username:       root.AuthorHandle,
		UserID:         root.AuthorID,
		Context:        []string{root.Text},
	}

	for _, post := range thread {
		summary.TotalLikes += post.Likes
		summary.TotalBookmarks += post.Bookmarks
		if post.Text != "" && !strings.Contains(post.Text, bookmarkMarker) {
			summary.Context = append(summary.Context, post.Text)
		}
	}

	return summary
}
