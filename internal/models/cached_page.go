package models

import "time"

// CachedPage is a fetched link stored in the fetch cache. Documents holds
// the extracted fragments so a cache hit reproduces the fetcher's output
// without touching the network.
type CachedPage struct {
	URL       string     `json:"url" badgerhold:"key"`
	Documents []Document `json:"documents"`
	FetchedAt time.Time  `json:"fetched_at"`
}
