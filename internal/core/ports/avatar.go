package ports

import (
	"context"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
)

// AvatarCache is the in-memory mirror of the durable avatar slot.
// Storage failures are logged by the implementation and never returned from Load, Save or Put.
type AvatarCache interface {
	// Load replaces the mirror with the slot contents; missing or malformed data yields an empty cache.
	Load(ctx context.Context)
	// Save writes the whole mirror to the slot.
	Save(ctx context.Context)
	// Get returns the entry for key only if it has not expired.
	Get(key string) (avatar.Entry, bool)
	// Put stores a fresh entry for key, overwriting any previous one, then saves.
	Put(ctx context.Context, key, url string) avatar.Entry
	// Entries returns a snapshot of every entry, expired ones included.
	Entries() map[string]avatar.Entry
	// Prune drops expired entries and returns how many were removed.
	Prune(ctx context.Context) int
	// Clear empties both the mirror and the slot.
	Clear(ctx context.Context) error
}

// AvatarLookup fetches a real avatar URL for a normalized handle.
// Failures are reported as *avatar.LookupError.
type AvatarLookup interface {
	Fetch(ctx context.Context, handle string) (string, error)
}

// AvatarService is the surface the rest of the site depends on. Both operations are total.
type AvatarService interface {
	ResolveAvatar(ctx context.Context, handle string, size int) string
	Resolve(ctx context.Context, handle string, size int) avatar.Resolution
	GeneratePlaceholder(handle string, size int) string
}
