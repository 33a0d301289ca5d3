package redis

import (
	"context"
	"fmt"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// Slot implements ports.Slot as a single Redis string key without expiry;
// entry TTLs live inside the value.
type Slot struct {
	r redis.Cmdable
	// optional key prefix to namespace the slot
	prefix string
	name   string
}

// NewSlot creates a Redis-backed slot named name.
func NewSlot(r redis.Cmdable, prefix, name string) *Slot {
	return &Slot{r: r, prefix: prefix, name: name}
}

func (s *Slot) Name() string { return s.name }

func (s *Slot) key() string {
	if s.prefix == "" {
		return s.name
	}
	return s.prefix + ":" + s.name
}

func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	val, err := s.r.Get(ctx, s.key()).Bytes()
	if err == redis.Nil {
		return nil, avatar.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", s.key(), err)
	}
	return val, nil
}

func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := s.r.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", s.key(), err)
	}
	return nil
}

func (s *Slot) Clear(ctx context.Context) error {
	if err := s.r.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear slot %s: %w", s.key(), err)
	}
	return nil
}

var _ ports.Slot = (*Slot)(nil)
