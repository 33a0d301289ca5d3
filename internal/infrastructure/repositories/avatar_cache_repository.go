package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// AvatarCacheRepository keeps every cached avatar in memory and mirrors the whole
// map into one durable slot after each mutation.
type AvatarCacheRepository struct {
	slot   ports.Slot
	ttl    time.Duration
	now    func() time.Time
	logger *logrus.Logger

	mu      sync.RWMutex
	entries map[string]avatar.Entry

	// serializes snapshot+write so the slot never goes back in time
	saveMu sync.Mutex
}

// AvatarCacheOption configures an AvatarCacheRepository.
type AvatarCacheOption func(*AvatarCacheRepository)

// WithClock overrides time.Now, mostly for TTL tests.
func WithClock(now func() time.Time) AvatarCacheOption {
	return func(r *AvatarCacheRepository) {
		r.now = now
	}
}

// NewAvatarCacheRepository creates an empty cache over slot. A nil slot keeps the cache in memory only.
// Call Load to read existing entries.
func NewAvatarCacheRepository(slot ports.Slot, ttl time.Duration, logger *logrus.Logger, opts ...AvatarCacheOption) *AvatarCacheRepository {
	if ttl <= 0 {
		ttl = avatar.DefaultTTL
	}
	r := &AvatarCacheRepository{
		slot:    slot,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		entries: make(map[string]avatar.Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *AvatarCacheRepository) slotName() string {
	if r.slot == nil {
		return ""
	}
	return r.slot.Name()
}

func (r *AvatarCacheRepository) warn(op string, err error) {
	if r.logger == nil {
		return
	}
	serr := &avatar.StorageError{Op: op, Slot: r.slotName(), Err: err}
	r.logger.WithFields(logrus.Fields{"slot": serr.Slot, "op": op}).WithError(serr).Warn("avatar cache storage failure")
}

func (r *AvatarCacheRepository) Load(ctx context.Context) {
	loaded := make(map[string]avatar.Entry)
	defer func() {
		r.mu.Lock()
		r.entries = loaded
		r.mu.Unlock()
	}()

	if r.slot == nil {
		return
	}
	data, err := r.slot.Read(ctx)
	if err != nil {
		if !errors.Is(err, avatar.ErrSlotEmpty) {
			r.warn("read", err)
		}
		return
	}
	if len(data) == 0 {
		return
	}
	var decoded map[string]avatar.Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		r.warn("decode", err)
		return
	}
	for k, e := range decoded {
		if e.URL == "" {
			continue
		}
		loaded[k] = e
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"slot": r.slotName(), "entries": len(loaded)}).Debug("avatar cache loaded")
	}
}

func (r *AvatarCacheRepository) Save(ctx context.Context) {
	if r.slot == nil {
		return
	}
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.RLock()
	data, err := json.Marshal(r.entries)
	r.mu.RUnlock()
	if err != nil {
		r.warn("encode", err)
		return
	}
	if err := r.slot.Write(ctx, data); err != nil {
		r.warn("write", err)
	}
}

func (r *AvatarCacheRepository) Get(key string) (avatar.Entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok || !e.Valid(r.now()) {
		return avatar.Entry{}, false
	}
	return e, true
}

func (r *AvatarCacheRepository) Put(ctx context.Context, key, url string) avatar.Entry {
	e := avatar.NewEntry(url, r.now(), r.ttl)
	r.mu.Lock()
	r.entries[key] = e
	r.mu.Unlock()
	r.Save(ctx)
	return e
}

func (r *AvatarCacheRepository) Entries() map[string]avatar.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]avatar.Entry, len(r.entries))
	for k, e := range r.entries {
		out[k] = e
	}
	return out
}

func (r *AvatarCacheRepository) Prune(ctx context.Context) int {
	now := r.now()
	removed := 0
	r.mu.Lock()
	for k, e := range r.entries {
		if !e.Valid(now) {
			delete(r.entries, k)
			removed++
		}
	}
	r.mu.Unlock()
	if removed > 0 {
		r.Save(ctx)
	}
	return removed
}

func (r *AvatarCacheRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.entries = make(map[string]avatar.Entry)
	r.mu.Unlock()
	if r.slot == nil {
		return nil
	}
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	if err := r.slot.Clear(ctx); err != nil {
		return &avatar.StorageError{Op: "clear", Slot: r.slotName(), Err: err}
	}
	return nil
}

var _ ports.AvatarCache = (*AvatarCacheRepository)(nil)
