package twitter

import (
	"strconv"
	"strings"
	"time"

	"github.com/writetoearn/scorer/internal/types"
)

// createdAtFormat is X's legacy timestamp layout ("Mon Jan 02 15:04:05 +0000 2006").
const createdAtFormat = time.RubyDate

// tweetResult is the GraphQL tweet payload shared by both endpoints. Only the
// fields the pipeline reads are modeled.
type tweetResult struct {
	RestID string `json:"rest_id"`
	Core   struct {
		UserResults struct {
			Result struct {
				RestID string `json:"rest_id"`
				Legacy struct {
					ScreenName string `json:"screen_name"`
				} `json:"legacy"`
			} `json:"result"`
		} `json:"user_results"`
	} `json:"core"`
	Views struct {
		Count string `json:"count"`
	} `json:"views"`
	Legacy struct {
		FullText          string `json:"full_text"`
		CreatedAt         string `json:"created_at"`
		ConversationIDStr string `json:"conversation_id_str"`
		InReplyToStatusID string `json:"in_reply_to_status_id_str"`
		FavoriteCount     int    `json:"favorite_count"`
		BookmarkCount     int    `json:"bookmark_count"`
		UserIDStr         string `json:"user_id_str"`
	} `json:"legacy"`
}

func (t *tweetResult) toPost() *types.Post {
	if t == nil || t.RestID == "" {
		return nil
	}

	post := &types.Post{
		ID:             t.RestID,
		ConversationID: t.Legacy.ConversationIDStr,
		AuthorHandle:   t.Core.UserResults.Result.Legacy.ScreenName,
		AuthorID:       t.Core.UserResults.Result.RestID,
		Text:           t.Legacy.FullText,
		Likes:          t.Legacy.FavoriteCount,
		Bookmarks:      t.Legacy.BookmarkCount,
		Views:          parseMetric(t.Views.Count),
		InReplyToID:    t.Legacy.InReplyToStatusID,
	}
	if post.AuthorID == "" {
		post.AuthorID = t.Legacy.UserIDStr
	}
	if ts, err := time.Parse(createdAtFormat, t.Legacy.CreatedAt); err == nil {
		post.Timestamp = ts
	}
	return post
}

// tweetResultResponse is the TweetResultByRestId envelope.
type tweetResultResponse struct {
	Data struct {
		TweetResult struct {
			Result *tweetResult `json:"result"`
		} `json:"tweetResult"`
	} `json:"data"`
}

func (r *tweetResultResponse) post() *types.Post {
	return r.Data.TweetResult.Result.toPost()
}

// timelineResponse is the UserTweetsAndReplies envelope. Entries arrive as
// typed timeline instructions; only tweet items and bottom cursors matter.
type timelineResponse struct {
	Data struct {
		User struct {
			Result struct {
				TimelineV2 struct {
					Timeline struct {
						Instructions []timelineInstruction `json:"instructions"`
					} `json:"timeline"`
				} `json:"timeline_v2"`
			} `json:"result"`
		} `json:"user"`
	} `json:"data"`
}

type timelineInstruction struct {
	Type    string          `json:"type"`
	Entries []timelineEntry `json:"entries"`
}

type timelineEntry struct {
	EntryID string `json:"entryId"`
	Content struct {
		EntryType string `json:"entryType"`
		ItemContent struct {
			TweetResults struct {
				Result *tweetResult `json:"result"`
			} `json:"tweet_results"`
		} `json:"itemContent"`
		Items []struct {
			Item struct {
				ItemContent struct {
					TweetResults struct {
						Result *tweetResult `json:"result"`
					} `json:"tweet_results"`
				} `json:"itemContent"`
			} `json:"item"`
		} `json:"items"`
		CursorType string `json:"cursorType"`
		Value      string `json:"value"`
	} `json:"content"`
}

// entries flattens timeline instructions into posts in arrival order and
// returns the bottom cursor for the next page, if any.
func (r *timelineResponse) entries() ([]types.Post, string) {
	var posts []types.Post
	var nextCursor string

	for _, inst := range r.Data.User.Result.TimelineV2.Timeline.Instructions {
		if inst.Type != "TimelineAddEntries" {
			continue
		}
		for _, entry := range inst.Entries {
			switch {
			case entry.Content.CursorType == "Bottom":
				nextCursor = entry.Content.Value
			case len(entry.Content.Items) > 0:
				// Conversation modules hold several tweets per entry.
				for _, item := range entry.Content.Items {
					if p := item.Item.ItemContent.TweetResults.Result.toPost(); p != nil {
						posts = append(posts, *p)
					}
				}
			default:
				if p := entry.Content.ItemContent.TweetResults.Result.toPost(); p != nil {
					posts = append(posts, *p)
				}
			}
		}
	}

	return posts, nextCursor
}

// parseMetric converts count strings like "1234", "1.2K", or "5.7M" to
// integers. X reports view counts as strings, occasionally abbreviated.
func parseMetric(s string) int {
	if s == "" {
		return 0
	}

	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	multiplier := 1.0
	if strings.HasSuffix(strings.ToUpper(s), "K") {
		multiplier = 1000
		s = s[:len(s)-1]
	} else if strings.HasSuffix(strings.ToUpper(s), "M") {
		multiplier = 1000000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return int(value * multiplier)
}
