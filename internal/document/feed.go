package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// LoadFeed ingests policy bulletins from an RSS or Atom feed. Each item
// becomes one Document so that a lender's guideline-update feed can be
// indexed alongside uploaded documents.
func LoadFeed(ctx context.Context, url string) ([]Document, error) {
	feed, err := gofeed.NewParser().ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("document: parse feed %s: %w", url, err)
	}

	docs := make([]Document, 0, len(feed.Items))
	for _, item := range feed.Items {
		body := item.Content
		if body == "" {
			body = item.Description
		}
		text := strings.TrimSpace(item.Title + "\n\n" + stripHTML(body))
		if text == "" {
			continue
		}
		source := item.Link
		if source == "" {
			source = url
		}
		docs = append(docs, Document{Source: source, Text: text})
	}
	return docs, nil
}
