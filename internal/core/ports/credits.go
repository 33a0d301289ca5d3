package ports

import (
	"context"

	"github.com/exterafans/efans-avatars/internal/core/domain/credits"
)

// CreditsService renders the credits list with resolved avatars.
type CreditsService interface {
	Cards(ctx context.Context) ([]credits.Card, error)
	// Warm resolves every developer avatar at each size and returns the number of resolutions.
	Warm(ctx context.Context, sizes ...int) (int, error)
}
