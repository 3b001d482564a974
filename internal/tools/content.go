package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/writetoearn/scorer/internal/fetcher"
)

// NewContentRegistry wires the two content tools over the given fetchers.
func NewContentRegistry(threads *fetcher.Fetcher, articles *fetcher.ArticleFetcher) *Registry {
	getTweet := Tool{
		Name:        "getTweet",
		Description: "Get a tweet thread by its ID (retrieves the main tweet and all its self-replies) with aggregated engagement metrics",
		Schema: Schema{
			Properties: map[string]Property{
				"tweetId": {
					Type:        "string",
					Description: "The ID of the first tweet in the thread, example: 1910622968289374299",
				},
			},
			Required: []string{"tweetId"},
		},
		Run: func(ctx context.Context, args map[string]string) (string, error) {
			summary, err := threads.FetchThread(ctx, args["tweetId"])
			if err != nil {
				return "", fmt.Errorf("failed to fetch tweet thread: %w", err)
			}
			return marshalResult(summary)
		},
	}

	fetchMedium := Tool{
		Name:        "fetchMedium",
		Description: "Get an article's content based on its URL, simplified to markdown with referenced images",
		Schema: Schema{
			Properties: map[string]Property{
				"url": {
					Type:        "string",
					Description: "The URL of the article, example: https://medium.com/@author/the-tools-will-change-3d971ae3cb67",
				},
			},
			Required: []string{"url"},
		},
		Run: func(ctx context.Context, args map[string]string) (string, error) {
			article, err := articles.Fetch(ctx, args["url"])
			if err != nil {
				return "", fmt.Errorf("failed to fetch article: %w", err)
			}
			return marshalResult(article)
		},
	}

	return NewRegistry(getTweet, fetchMedium)
}

func marshalResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(data), nil
}
