package avatar

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePlaceholder(t *testing.T, uri string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, placeholderPrefix))
	svg, err := url.PathUnescape(strings.TrimPrefix(uri, placeholderPrefix))
	require.NoError(t, err)
	return svg
}

func TestNameHash(t *testing.T) {
	assert.Equal(t, int64(0), NameHash(""))
	assert.Equal(t, int64(97), NameHash("a"))
	assert.Equal(t, int64(97*31+98), NameHash("ab"))
}

func TestNameHash_IsNonNegativeAndWraps(t *testing.T) {
	long := strings.Repeat("serialhomicide", 20)
	h := NameHash(long)
	assert.GreaterOrEqual(t, h, int64(0))
	assert.LessOrEqual(t, h, int64(1)<<31)
}

func TestPlaceholder_Deterministic(t *testing.T) {
	for _, h := range []string{"alice", "bob", "", "qidok", "Дмитрий", "🙂"} {
		assert.Equal(t, Placeholder(h, 160), Placeholder(h, 160), "handle %q", h)
	}
	assert.NotEqual(t, Placeholder("alice", 160), Placeholder("alice", 64))
}

func TestPlaceholder_HuesAndGeometry(t *testing.T) {
	// NameHash("ab") = 3105, 3105 mod 360 = 225
	svg := decodePlaceholder(t, Placeholder("ab", 160))

	assert.Contains(t, svg, `width="160" height="160"`)
	assert.Contains(t, svg, "hsl(225, 75%, 55%)")
	assert.Contains(t, svg, "hsl(255, 75%, 60%)")
	assert.Contains(t, svg, "hsl(285, 75%, 50%)")
	assert.Contains(t, svg, `id="grad-3105"`)
	assert.Contains(t, svg, `r="78"`)
	assert.Contains(t, svg, `font-size="72"`)
	assert.Contains(t, svg, `y="102.5"`)
	assert.Contains(t, svg, ">A</text>")
}

func TestPlaceholder_FontSizeFloor(t *testing.T) {
	svg := decodePlaceholder(t, Placeholder("zed", 48))
	assert.Contains(t, svg, `font-size="32"`)
	assert.Contains(t, svg, `cx="24"`)
}

func TestPlaceholder_EmptyHandleUsesDefaultGlyph(t *testing.T) {
	svg := decodePlaceholder(t, Placeholder("", 160))
	assert.Contains(t, svg, ">U</text>")
	assert.Contains(t, svg, "hsl(0, 75%, 55%)")
}

func TestPlaceholder_EscapesGlyph(t *testing.T) {
	svg := decodePlaceholder(t, Placeholder("<script>", 64))
	assert.Contains(t, svg, ">&lt;</text>")
	assert.NotContains(t, svg, "<script>")
}

func TestPlaceholder_NonPositiveSizeUsesDefault(t *testing.T) {
	assert.Equal(t, Placeholder("alice", DefaultSize), Placeholder("alice", 0))
}

func TestPlaceholder_HueAlwaysInRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		h := fmt.Sprintf("user%dname", i*7919)
		hue := NameHash(h) % 360
		assert.GreaterOrEqual(t, hue, int64(0))
		assert.Less(t, hue, int64(360))
		assert.NotEmpty(t, Placeholder(h, 32+i))
	}
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, "A", Glyph("alice"))
	assert.Equal(t, "Д", Glyph("дмитрий"))
	assert.Equal(t, "U", Glyph(""))
	assert.Equal(t, "1", Glyph("1abc"))
}
