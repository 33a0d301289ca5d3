package avatar

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/exterafans/efans-avatars/internal/utils"
)

const (
	placeholderPrefix = "data:image/svg+xml;charset=utf-8,"
	defaultGlyph      = "U"
	minFontSize       = 32.0
)

var placeholderTemplate = template.Must(template.New("placeholder").Funcs(template.FuncMap{
	"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}).Parse(`<svg width="{{.Size}}" height="{{.Size}}" viewBox="0 0 {{.Size}} {{.Size}}" xmlns="http://www.w3.org/2000/svg">
<defs>
<linearGradient id="grad-{{.Hash}}" x1="0%" y1="0%" x2="100%" y2="100%">
<stop offset="0%" style="stop-color:hsl({{.Hue}}, 75%, 55%);stop-opacity:1"/>
<stop offset="50%" style="stop-color:hsl({{.Hue30}}, 75%, 60%);stop-opacity:1"/>
<stop offset="100%" style="stop-color:hsl({{.Hue60}}, 75%, 50%);stop-opacity:1"/>
</linearGradient>
<filter id="shadow-{{.Hash}}" x="-50%" y="-50%" width="200%" height="200%">
<feGaussianBlur in="SourceAlpha" stdDeviation="3"/>
<feOffset dx="0" dy="2" result="offsetblur"/>
<feComponentTransfer><feFuncA type="linear" slope="0.3"/></feComponentTransfer>
<feMerge><feMergeNode/><feMergeNode in="SourceGraphic"/></feMerge>
</filter>
</defs>
<circle cx="{{num .Center}}" cy="{{num .Center}}" r="{{num .Radius}}" fill="url(#grad-{{.Hash}})" filter="url(#shadow-{{.Hash}})"/>
<text x="{{num .Center}}" y="{{num .Baseline}}" font-family="system-ui, -apple-system, 'Segoe UI', sans-serif" font-size="{{num .FontSize}}" font-weight="600" text-anchor="middle" fill="white" style="text-shadow: 0 1px 2px rgba(0,0,0,0.2);">{{html .Glyph}}</text>
</svg>`))

type placeholderData struct {
	Size     int
	Hash     int64
	Hue      int64
	Hue30    int64
	Hue60    int64
	Center   float64
	Radius   float64
	Baseline float64
	FontSize float64
	Glyph    string
}

// NameHash folds the UTF-16 code units of name into a 32-bit signed rolling hash
// (h*31 + c) and returns its absolute value.
func NameHash(name string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(name)) {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Glyph is the upper-cased first character of handle, or "U" when handle is empty.
func Glyph(handle string) string {
	r, n := utf8.DecodeRuneInString(handle)
	if n == 0 {
		return defaultGlyph
	}
	return strings.ToUpper(string(r))
}

// Placeholder renders a deterministic gradient circle with the handle's initial and
// returns it as an embeddable SVG data URI. It never fails.
func Placeholder(handle string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}
	hash := NameHash(handle)
	hue := hash % 360
	fontSize := math.Max(minFontSize, float64(size)*0.45)
	center := float64(size) / 2

	data := placeholderData{
		Size:     size,
		Hash:     hash,
		Hue:      hue,
		Hue30:    (hue + 30) % 360,
		Hue60:    (hue + 60) % 360,
		Center:   center,
		Radius:   center - 2,
		Baseline: center + fontSize/3.2,
		FontSize: fontSize,
		Glyph:    Glyph(handle),
	}

	var buf bytes.Buffer
	if err := placeholderTemplate.Execute(&buf, data); err != nil {
		// only reachable on a broken template; keep the contract total
		return placeholderPrefix + utils.EncodeURIComponent(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	}
	return placeholderPrefix + utils.EncodeURIComponent(buf.String())
}
