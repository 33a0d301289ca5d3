package health

import (
	"context"
	"errors"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// slotHealthChecker reports whether the durable cache slot can be read.
// An empty slot is healthy.
type slotHealthChecker struct{ slot ports.Slot }

func (s *slotHealthChecker) Name() string { return "slot:" + s.slot.Name() }

func (s *slotHealthChecker) Check(ctx context.Context) error {
	_, err := s.slot.Read(ctx)
	if err == nil || errors.Is(err, avatar.ErrSlotEmpty) {
		return nil
	}
	return err
}

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewSlotHealthChecker creates a health checker for the avatar cache slot.
func NewSlotHealthChecker(slot ports.Slot) ports.HealthChecker {
	return &slotHealthChecker{slot: slot}
}
