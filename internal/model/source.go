package model

import (
	"fmt"
	"strings"
)

// SourceKind is what a caller asks for
type SourceKind string

const (
	KindNews      SourceKind = "news"
	KindForum     SourceKind = "forum"
	KindMicroblog SourceKind = "microblog"
)

// AllKinds lists every selectable source kind
var AllKinds = []SourceKind{KindNews, KindForum, KindMicroblog}

// SourceType identifies the collector an item came from. The set is closed.
type SourceType string

const (
	SourceGoogleNews    SourceType = "google_news"     // Rendered search page, RSS fallback
	SourceGoogleNewsRSS SourceType = "google_news_rss" // Syndication feed, alternate feed retry
	SourceReddit        SourceType = "reddit"          // Forum HTML search, JSON fallback
	SourceTwitter       SourceType = "twitter"         // Microblog mirror pool
)

// AllSourceTypes lists every source type in report order
var AllSourceTypes = []SourceType{SourceGoogleNews, SourceGoogleNewsRSS, SourceReddit, SourceTwitter}

var kindExpansion = map[SourceKind][]SourceType{
	KindNews:      {SourceGoogleNews, SourceGoogleNewsRSS},
	KindForum:     {SourceReddit},
	KindMicroblog: {SourceTwitter},
}

// Valid reports whether t belongs to the closed set
func (t SourceType) Valid() bool {
	for _, known := range AllSourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Valid reports whether k is a known source kind
func (k SourceKind) Valid() bool {
	_, ok := kindExpansion[k]
	return ok
}

// ParseSourceKind parses a user-supplied source name
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown source %q (want news, forum or microblog)", s)
	}
	return k, nil
}

// ParseSourceKinds parses a list of source names; an empty list selects everything
func ParseSourceKinds(names []string) ([]SourceKind, error) {
	if len(names) == 0 {
		return append([]SourceKind(nil), AllKinds...), nil
	}
	kinds := make([]SourceKind, 0, len(names))
	for _, name := range names {
		k, err := ParseSourceKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ExpandKinds resolves source kinds into the de-duplicated source types to query,
// in AllSourceTypes order
func ExpandKinds(kinds []SourceKind) []SourceType {
	wanted := make(map[SourceType]bool)
	for _, k := range kinds {
		for _, t := range kindExpansion[k] {
			wanted[t] = true
		}
	}

	var types []SourceType
	for _, t := range AllSourceTypes {
		if wanted[t] {
			types = append(types, t)
		}
	}
	return types
}
