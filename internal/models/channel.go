package models

// DefaultGroup is assigned to channels whose #EXTINF line carries no group-title.
const DefaultGroup = "Uncategorized"

// Channel is one playable entry parsed from a playlist (name, url, logo, group, epg id).
type Channel struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Logo  string `json:"logo,omitempty"`
	Group string `json:"group,omitempty"`
	EPGID string `json:"epgId,omitempty"`
}
