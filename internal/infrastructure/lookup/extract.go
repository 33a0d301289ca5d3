package lookup

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Extractor finds an avatar URL in a fetched profile page.
type Extractor interface {
	Name() string
	Extract(body []byte) (string, bool)
}

// MetaImageExtractor reads the content of <meta property="og:image"> (or name="og:image").
type MetaImageExtractor struct {
	// Property defaults to og:image.
	Property string
}

func (e MetaImageExtractor) property() string {
	if e.Property == "" {
		return "og:image"
	}
	return e.Property
}

func (e MetaImageExtractor) Name() string { return "meta:" + e.property() }

func (e MetaImageExtractor) Extract(body []byte) (string, bool) {
	want := e.property()
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr || string(name) != "meta" {
				continue
			}
			var prop, content string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "property", "name":
					prop = string(val)
				case "content":
					content = strings.TrimSpace(string(val))
				}
				if !more {
					break
				}
			}
			if strings.EqualFold(prop, want) && content != "" {
				return content, true
			}
		}
	}
}

// PatternExtractor returns the first match of a raw URL pattern anywhere in the page.
type PatternExtractor struct {
	Label   string
	Pattern *regexp.Regexp
}

// mediaCDNPattern matches Telegram's public media CDN file URLs.
var mediaCDNPattern = regexp.MustCompile(`https://cdn\d+\.telesco\.pe/file/[^"'\s]+`)

// NewMediaCDNExtractor matches https://cdnN.telesco.pe/file/... links.
func NewMediaCDNExtractor() PatternExtractor {
	return PatternExtractor{Label: "media-cdn", Pattern: mediaCDNPattern}
}

func (e PatternExtractor) Name() string { return "pattern:" + e.Label }

func (e PatternExtractor) Extract(body []byte) (string, bool) {
	if e.Pattern == nil {
		return "", false
	}
	m := e.Pattern.Find(body)
	if m == nil {
		return "", false
	}
	return string(m), true
}

// DefaultPrimaryExtractors is tried against the primary proxy, in order.
func DefaultPrimaryExtractors() []Extractor {
	return []Extractor{MetaImageExtractor{}, NewMediaCDNExtractor()}
}

// DefaultFallbackExtractors is tried against the fallback proxy.
func DefaultFallbackExtractors() []Extractor {
	return []Extractor{MetaImageExtractor{}}
}

// extractFirst runs extractors in order and reports which one matched.
func extractFirst(body []byte, extractors []Extractor) (url, by string, ok bool) {
	for _, ex := range extractors {
		if u, found := ex.Extract(body); found {
			return u, ex.Name(), true
		}
	}
	return "", "", false
}
