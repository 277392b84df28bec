package models

// Origin records where a source came from and therefore what may be changed on it.
type Origin string

const (
	// OriginConfig sources are imported from the static sources file. Only
	// Disabled and Order may change.
	OriginConfig Origin = "config"
	// OriginCustom sources were added by an administrator.
	OriginCustom Origin = "custom"
)

// Source represents a configured playlist feed in the live catalog.
type Source struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	UserAgent    string `json:"ua,omitempty"`
	EPGURL       string `json:"epg,omitempty"`
	From         Origin `json:"from"`
	ChannelCount int    `json:"channelNumber"`
	Disabled     bool   `json:"disabled"`
	Order        int    `json:"order"`
}

// Immutable reports whether the source's name, url, ua and epg are locked.
func (s Source) Immutable() bool {
	return s.From == OriginConfig
}
