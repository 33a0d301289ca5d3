package services

import (
	"context"

	"github.com/exterafans/efans-avatars/internal/core/domain/credits"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentResolutions = 4

type CreditsService struct {
	avatars    ports.AvatarService
	developers []credits.Developer
	logger     *logrus.Logger
}

// NewCreditsService uses credits.Developers() when developers is nil.
func NewCreditsService(avatars ports.AvatarService, developers []credits.Developer, logger *logrus.Logger) *CreditsService {
	if developers == nil {
		developers = credits.Developers()
	}
	return &CreditsService{avatars: avatars, developers: developers, logger: logger}
}

// Cards resolves every developer's avatar concurrently and keeps list order.
func (s *CreditsService) Cards(ctx context.Context) ([]credits.Card, error) {
	cards := make([]credits.Card, len(s.developers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResolutions)
	for i, dev := range s.developers {
		i, dev := i, dev
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cards[i] = credits.Card{
				Developer:  dev,
				WebsiteURL: dev.WebsiteURL(),
				AvatarURL:  s.avatars.ResolveAvatar(gctx, dev.Username, credits.CardAvatarSize),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

// Warm resolves each developer at each size so later page loads hit the cache.
// With no sizes it warms the card size.
func (s *CreditsService) Warm(ctx context.Context, sizes ...int) (int, error) {
	if len(sizes) == 0 {
		sizes = []int{credits.CardAvatarSize}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResolutions)
	for _, dev := range s.developers {
		for _, size := range sizes {
			dev, size := dev, size
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s.avatars.ResolveAvatar(gctx, dev.Username, size)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	n := len(s.developers) * len(sizes)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"developers": len(s.developers), "sizes": sizes, "resolutions": n}).Info("credits avatars warmed")
	}
	return n, nil
}

var _ ports.CreditsService = (*CreditsService)(nil)
