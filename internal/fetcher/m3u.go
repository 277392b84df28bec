package fetcher

import (
	"regexp"
	"strings"

	"github.com/voyagen/livecatalog/internal/models"
)

const (
	headerPrefix = "#EXTM3U"
	extinfPrefix = "#EXTINF:"
)

// reCombined matches the common "tvg-logo tvg-id group-title" run some
// providers emit in the attribute section. The single-attribute patterns are
// applied after it, over the whole line, and overwrite what it set.
var reCombined = regexp.MustCompile(`tvg-logo="([^"]*)"(?:\s+tvg-id="([^"]*)")?(?:\s+group-title="([^"]*)")?`)

// Single-attribute patterns. Matching is case-sensitive and takes the first
// occurrence on the line.
var (
	reLogo  = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	reEPGID = regexp.MustCompile(`tvg-id="([^"]*)"`)
	reGroup = regexp.MustCompile(`group-title="([^"]*)"`)
)

// pending accumulates #EXTINF data until the next URL line.
type pending struct {
	name  string
	logo  string
	epgID string
	group string
}

// ParseM3U parses playlist text into channels. It never fails: lines it does
// not understand are skipped, and a URL line with no named #EXTINF before it
// is dropped. Channels are returned in URL line order.
func ParseM3U(content string) []models.Channel {
	var channels []models.Channel
	var cur pending

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, headerPrefix):
			continue
		case strings.HasPrefix(line, extinfPrefix):
			parseExtinf(line[len(extinfPrefix):], &cur)
		case strings.HasPrefix(line, "#"):
			// Other directives (#EXTVLCOPT, #EXTGRP, ...) are ignored.
		case strings.HasPrefix(line, "http"):
			if cur.name != "" {
				group := cur.group
				if group == "" {
					group = models.DefaultGroup
				}
				channels = append(channels, models.Channel{
					Name:  cur.name,
					URL:   line,
					Logo:  cur.logo,
					Group: group,
					EPGID: cur.epgID,
				})
			}
			cur = pending{}
		}
	}
	return channels
}

// parseExtinf applies one #EXTINF body (without the prefix) to cur. Lines
// without a display-name comma are ignored. Attributes present on the line
// overwrite earlier values; absent ones are left as they were.
func parseExtinf(body string, cur *pending) {
	i := topLevelComma(body)
	if i < 0 {
		return
	}
	attrs, name := body[:i], body[i+1:]
	cur.name = strings.TrimSpace(name)

	if m := reCombined.FindStringSubmatch(attrs); m != nil {
		if m[1] != "" {
			cur.logo = m[1]
		}
		if m[2] != "" {
			cur.epgID = m[2]
		}
		if m[3] != "" {
			cur.group = m[3]
		}
	}

	// A matched but empty value still overwrites.
	if m := reLogo.FindStringSubmatch(body); m != nil {
		cur.logo = m[1]
	}
	if m := reEPGID.FindStringSubmatch(body); m != nil {
		cur.epgID = m[1]
	}
	if m := reGroup.FindStringSubmatch(body); m != nil {
		cur.group = m[1]
	}
}

// topLevelComma returns the index of the first comma outside double quotes,
// falling back to the first comma at all when quotes are unbalanced.
func topLevelComma(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				return i
			}
		}
	}
	return strings.IndexByte(s, ',')
}
