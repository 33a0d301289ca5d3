package avatar

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSize is the pixel size used when a request does not name one.
	DefaultSize = 160
	// DefaultTTL is how long a resolved avatar stays valid in the cache.
	DefaultTTL = 24 * time.Hour
	// HandleMarker is the optional prefix users type in front of a handle.
	HandleMarker = "@"
)

// Entry is a cached resolution. Entries are never mutated; a refresh replaces them.
type Entry struct {
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewEntry(url string, now time.Time, ttl time.Duration) Entry {
	return Entry{URL: url, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

// Valid reports whether the entry can still be served at now.
func (e Entry) Valid(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

type Source string

const (
	SourceCache       Source = "cache"
	SourceRemote      Source = "remote"
	SourcePlaceholder Source = "placeholder"
)

// Request is a normalized resolution request.
type Request struct {
	Handle string
	Size   int
}

// NewRequest strips the handle marker and substitutes DefaultSize for non-positive sizes.
func NewRequest(handle string, size int) Request {
	if size <= 0 {
		size = DefaultSize
	}
	return Request{Handle: NormalizeHandle(handle), Size: size}
}

func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(handle, HandleMarker)
}

// CacheKey combines handle and size; sizes are not interchangeable.
func (r Request) CacheKey() string {
	return r.Handle + "_" + strconv.Itoa(r.Size)
}

// CacheKey returns the key a request for handle at size is stored under.
func CacheKey(handle string, size int) string {
	return NewRequest(handle, size).CacheKey()
}

// Resolution describes where a resolved URL came from.
type Resolution struct {
	Key    string `json:"key"`
	Handle string `json:"handle"`
	Size   int    `json:"size"`
	URL    string `json:"url"`
	Source Source `json:"source"`
}
