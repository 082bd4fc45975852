package crawler

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// fromFeed reads the site's RSS/Atom feed and returns item links. Feeds are
// already article listings, so no path-pattern filtering applies; fragments
// and duplicates are still normalized by the caller.
func (c *Crawler) fromFeed(ctx context.Context, feedURL string) (interface{}, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = c.config.UserAgent
	fp.Client = c.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		links = append(links, item.Link)
	}

	return links, nil
}
