package entity

import (
	"strings"
	"time"
)

// CacheClass groups archive endpoints that share a freshness window.
type CacheClass string

const (
	CacheClassSearch  CacheClass = "search"
	CacheClassPage    CacheClass = "page"
	CacheClassTitles  CacheClass = "titles"
	CacheClassDefault CacheClass = "default"
)

// ClassifyEndpoint maps a normalized archive endpoint (no leading slash) to
// its cache class. Rules are checked in order; the first match wins.
func ClassifyEndpoint(endpoint string) CacheClass {
	switch {
	case strings.HasPrefix(endpoint, "search/pages/results"),
		strings.HasPrefix(endpoint, "search/titles/results"):
		return CacheClassSearch
	case strings.Contains(endpoint, "/seq-"):
		return CacheClassPage
	case strings.HasPrefix(endpoint, "newspapers"),
		strings.HasPrefix(endpoint, "lccn"):
		return CacheClassTitles
	default:
		return CacheClassDefault
	}
}

// TTLPolicy holds the freshness window of each cache class.
type TTLPolicy struct {
	Search  time.Duration
	Page    time.Duration
	Titles  time.Duration
	Default time.Duration
}

// DefaultTTLPolicy returns the stock archive freshness windows.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Search:  15 * time.Minute,
		Page:    6 * time.Hour,
		Titles:  24 * time.Hour,
		Default: time.Hour,
	}
}

// TTL returns the freshness window of class.
func (p TTLPolicy) TTL(class CacheClass) time.Duration {
	switch class {
	case CacheClassSearch:
		return p.Search
	case CacheClassPage:
		return p.Page
	case CacheClassTitles:
		return p.Titles
	default:
		return p.Default
	}
}

// Max returns the longest window of the policy.
func (p TTLPolicy) Max() time.Duration {
	longest := p.Default
	for _, d := range []time.Duration{p.Search, p.Page, p.Titles} {
		if d > longest {
			longest = d
		}
	}
	return longest
}

// CacheEntry is a captured upstream response.
type CacheEntry struct {
	Body        []byte    `json:"body"`
	ContentType string    `json:"content_type"`
	CapturedAt  time.Time `json:"captured_at"`
}

// IsLive reports whether the entry is still fresh at now under ttl.
func (e *CacheEntry) IsLive(now time.Time, ttl time.Duration) bool {
	return e != nil && now.Sub(e.CapturedAt) < ttl
}
