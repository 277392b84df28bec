package models

import "time"

// ChannelCache is the parsed playlist of one source plus its freshness window.
type ChannelCache struct {
	SourceKey string    `json:"sourceKey"`
	Channels  []Channel `json:"channels"`
	FetchedAt time.Time `json:"updateTime"`
	ExpiresAt time.Time `json:"expireTime"`
}

// Fresh reports whether the entry may still be served at now.
func (c *ChannelCache) Fresh(now time.Time) bool {
	return c != nil && now.Before(c.ExpiresAt)
}
