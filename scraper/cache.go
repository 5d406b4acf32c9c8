package scraper

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// responseCache keeps recently fetched bodies keyed by URL.
type responseCache struct {
	entries *lru.Cache[string, []byte]
}

func newResponseCache(size int) (*responseCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}
	return &responseCache{entries: entries}, nil
}

func (c *responseCache) get(url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(url)
}

func (c *responseCache) put(url string, body []byte) {
	if c == nil {
		return
	}
	c.entries.Add(url, body)
}
