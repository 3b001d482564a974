package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/writetoearn/scorer/internal/auth"
	"github.com/writetoearn/scorer/internal/twitter"
	"github.com/writetoearn/scorer/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTwitter serves canned posts and timeline pages.
type fakeTwitter struct {
	posts       map[string]*types.Post
	pages       [][]types.Post
	timelineErr error

	timelineCalls int
}

func (f *fakeTwitter) GetTweet(ctx context.Context, id string) (*types.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", twitter.ErrNotFound, id)
	}
	return post, nil
}

func (f *fakeTwitter) TimelinePage(ctx context.Context, userID string, count int, cursor string) ([]types.Post, string, error) {
	if f.timelineErr != nil {
		return nil, "", f.timelineErr
	}
	if f.timelineCalls >= len(f.pages) {
		return nil, "", nil
	}
	page := f.pages[f.timelineCalls]
	f.timelineCalls++
	next := ""
	if f.timelineCalls < len(f.pages) {
		next = fmt.Sprintf("cursor-%d", f.timelineCalls)
	}
	return page, next, nil
}

func (f *fakeTwitter) IsLoggedIn(ctx context.Context) (bool, error) { return true, nil }

func (f *fakeTwitter) Cookies() []twitter.CookieRecord { return nil }

// clientStrategy hands the session manager a prebuilt client.
type clientStrategy struct {
	client twitter.Client
}

func (s *clientStrategy) Name() string { return "test" }

func (s *clientStrategy) Attempt(ctx context.Context) (*auth.Result, error) {
	return &auth.Result{Client: s.client}, nil
}

func newTestFetcher(t *testing.T, client twitter.Client) *Fetcher {
	t.Helper()
	sessions := auth.NewSessionManager(
		"svc_account",
		[]auth.Strategy{&clientStrategy{client: client}},
		auth.NewCredentialStore(t.TempDir()),
		testLogger(),
	)
	return New(sessions, testLogger())
}

func rootPost() *types.Post {
	return &types.Post{
		ID:             "1910622968289374299",
		ConversationID: "1910622968289374299",
		AuthorHandle:   "author",
		AuthorID:       "44196397",
		Text:           "thread root",
		Likes:          10,
		Bookmarks:      2,
		Views:          1000,
		Timestamp:      time.Date(2025, 4, 7, 18, 0, 0, 0, time.UTC),
	}
}

func TestFetchThreadRootOnly(t *testing.T) {
	root := rootPost()
	client := &fakeTwitter{posts: map[string]*types.Post{root.ID: root}}
	f := newTestFetcher(t, client)

	summary, err := f.FetchThread(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("FetchThread: %v", err)
	}

	if len(summary.Context) != 1 || summary.Context[0] != "thread root" {
		t.Errorf("Context = %v, want just the root text", summary.Context)
	}
	if summary.TotalLikes != 10 || summary.TotalBookmarks != 2 || summary.TotalViews != 1000 {
		t.Errorf("totals = %d/%d/%d, want root's own metrics",
			summary.TotalLikes, summary.TotalBookmarks, summary.TotalViews)
	}
	if summary.Username != "author" || summary.UserID != "44196397" {
		t.Errorf("author = %q/%q", summary.Username, summary.UserID)
	}
	if summary.ConversationID != root.ID {
		t.Errorf("ConversationID = %q", summary.ConversationID)
	}
}

func TestFetchThreadTransitiveClassification(t *testing.T) {
	root := rootPost()
	base := root.Timestamp

	directReply := types.Post{
		ID: "r1", ConversationID: root.ID, AuthorID: root.AuthorID,
		Text: "first reply", Likes: 3, Bookmarks: 1,
		InReplyToID: root.ID, Timestamp: base.Add(time.Minute),
	}
	// Replies to a classified post without carrying the conversation id.
	transitiveReply := types.Post{
		ID: "r2", ConversationID: "other", AuthorID: root.AuthorID,
		Text: "second reply", Likes: 2,
		InReplyToID: "r1", Timestamp: base.Add(2 * time.Minute),
	}
	unrelated := types.Post{
		ID: "x1", ConversationID: "elsewhere", AuthorID: root.AuthorID,
		Text: "different topic", Likes: 100,
		Timestamp: base.Add(3 * time.Minute),
	}

	client := &fakeTwitter{
		posts: map[string]*types.Post{root.ID: root},
		pages: [][]types.Post{{unrelated, directReply, transitiveReply, *root}},
	}
	f := newTestFetcher(t, client)

	summary, err := f.FetchThread(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("FetchThread: %v", err)
	}

	want := []string{"thread root", "first reply", "second reply"}
	if len(summary.Context) != len(want) {
		t.Fatalf("Context = %v, want %v", summary.Context, want)
	}
	for i := range want {
		if summary.Context[i] != want[i] {
			t.Errorf("Context[%d] = %q, want %q", i, summary.Context[i], want[i])
		}
	}
	if summary.TotalLikes != 15 {
		t.Errorf("TotalLikes = %d, want 15 (unrelated post excluded)", summary.TotalLikes)
	}
	if summary.TotalViews != 1000 {
		t.Errorf("TotalViews = %d, want root views only", summary.TotalViews)
	}
}

func TestFetchThreadChronologicalOrder(t *testing.T) {
	root := rootPost()
	base := root.Timestamp

	late := types.Post{
		ID: "late", ConversationID: root.ID, Text: "posted later",
		Timestamp: base.Add(time.Hour),
	}
	early := types.Post{
		ID: "early", ConversationID: root.ID, Text: "posted earlier",
		Timestamp: base.Add(time.Minute),
	}

	client := &fakeTwitter{
		posts: map[string]*types.Post{root.ID: root},
		pages: [][]types.Post{{late, early}},
	}
	f := newTestFetcher(t, client)

	summary, err := f.FetchThread(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("FetchThread: %v", err)
	}
	want := []string{"thread root", "posted earlier", "posted later"}
	for i := range want {
		if summary.Context[i] != want[i] {
			t.Fatalf("Context = %v, want %v", summary.Context, want)
		}
	}
}

func TestFetchThreadFiltersBookmarkLines(t *testing.T) {
	root := rootPost()
	promo := types.Post{
		ID: "promo", ConversationID: root.ID, Likes: 5,
		Text:      "read the full post 🔖: https://example.com/post",
		Timestamp: root.Timestamp.Add(time.Minute),
	}

	client := &fakeTwitter{
		posts: map[string]*types.Post{root.ID: root},
		pages: [][]types.Post{{promo}},
	}
	f := newTestFetcher(t, client)

	summary, err := f.FetchThread(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("FetchThread: %v", err)
	}
	if len(summary.Context) != 1 {
		t.Errorf("promo line should be filtered from context, got %v", summary.Context)
	}
	if summary.TotalLikes != 15 {
		t.Errorf("TotalLikes = %d, want 15 (filtered posts still count)", summary.TotalLikes)
	}
}

func TestFetchThreadFollowsCursor(t *testing.T) {
	root := rootPost()
	page1 := types.Post{ID: "p1", ConversationID: root.ID, Text: "from page one", Timestamp: root.Timestamp.Add(time.Minute)}
	page2 := types.Post{ID: "p2", ConversationID: root.ID, Text: "from page two", Timestamp: root.Timestamp.Add(2 * time.Minute)}

	client := &fakeTwitter{
		posts: map[string]*types.Post{root.ID: root},
		pages: [][]types.Post{{page1}, {page2}},
	}
	f := newTestFetcher(t, client)

	summary, err := f.FetchThread(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("FetchThread: %v", err)
	}
	if client.timelineCalls != 2 {
		t.Errorf("timeline calls = %d, want 2", client.timelineCalls)
	}
	if len(summary.Context) != 3 {
		t.Errorf("Context = %v, want posts from both pages", summary.Context)
	}
}

func TestFetchThreadDegradesOnTimelineFailure(t *testing.T) {
	root := rootPost()
	client := &fakeTwitter{
		posts:       map[string]*types.Post{root.ID: root},
		timelineErr: errors.New("rate limited"),
	}
	f := newTestFetcher(t, client)

	summary, err := f.FetchThread(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("timeline failure must not fail the fetch: %v", err)
	}
	if len(summary.Context) != 1 || summary.TotalLikes != 10 {
		t.Errorf("degraded summary should carry the root only, got %+v", summary)
	}
}

func TestFetchThreadNotFound(t *testing.T) {
	f := newTestFetcher(t, &fakeTwitter{posts: map[string]*types.Post{}})

	_, err := f.FetchThread(context.Background(), "missing")
	if !errors.Is(err, ErrContentNotFound) {
		t.Errorf("err = %v, want ErrContentNotFound", err)
	}
}
