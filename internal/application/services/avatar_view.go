package services

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
)

// AvatarView backs one avatar widget. Every Load or Cancel starts a new generation;
// a Load whose generation has been superseded reports ok=false and its result is dropped.
type AvatarView struct {
	avatars    ports.AvatarService
	generation atomic.Uint64
}

func NewAvatarView(avatars ports.AvatarService) *AvatarView {
	return &AvatarView{avatars: avatars}
}

// IsHandle reports whether src names a handle to resolve rather than a direct image URL.
func IsHandle(src string) bool {
	return strings.HasPrefix(src, avatar.HandleMarker) || !strings.Contains(src, "://")
}

// Load returns the image to display for src. Direct URLs pass through untouched.
func (v *AvatarView) Load(ctx context.Context, src string, size int) (string, bool) {
	gen := v.generation.Add(1)

	url := src
	if IsHandle(src) {
		url = v.avatars.ResolveAvatar(ctx, src, size)
	}

	if v.generation.Load() != gen {
		return "", false
	}
	return url, true
}

// Cancel discards any Load still in flight, e.g. when the widget goes away.
func (v *AvatarView) Cancel() {
	v.generation.Add(1)
}

// ImageFailed returns the placeholder to show when the browser could not load the image.
// It is keyed on the display name first, matching what the user sees.
func (v *AvatarView) ImageFailed(src, alt string, size int) string {
	name := alt
	if name == "" {
		name = src
	}
	if name == "" {
		name = "U"
	}
	return v.avatars.GeneratePlaceholder(name, size)
}
