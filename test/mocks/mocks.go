package mocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
)

// SlotMock is an in-memory ports.Slot whose operations can be overridden.
type SlotMock struct {
	SlotName string
	ReadFn   func(ctx context.Context) ([]byte, error)
	WriteFn  func(ctx context.Context, data []byte) error
	ClearFn  func(ctx context.Context) error

	mu     sync.Mutex
	data   []byte
	Writes int
}

func (m *SlotMock) Name() string {
	if m.SlotName == "" {
		return "avatarCache"
	}
	return m.SlotName
}

func (m *SlotMock) Read(ctx context.Context) ([]byte, error) {
	if m.ReadFn != nil {
		return m.ReadFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, avatar.ErrSlotEmpty
	}
	return append([]byte(nil), m.data...), nil
}

func (m *SlotMock) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	m.Writes++
	m.mu.Unlock()
	if m.WriteFn != nil {
		return m.WriteFn(ctx, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *SlotMock) Clear(ctx context.Context) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// Data returns what was last written.
func (m *SlotMock) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// WriteCount returns how many writes were attempted.
func (m *SlotMock) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Writes
}

// AvatarLookupMock counts calls; without FetchFn every lookup fails as unreachable.
type AvatarLookupMock struct {
	FetchFn func(ctx context.Context, handle string) (string, error)
	calls   atomic.Int64
}

func (m *AvatarLookupMock) Fetch(ctx context.Context, handle string) (string, error) {
	m.calls.Add(1)
	if m.FetchFn != nil {
		return m.FetchFn(ctx, handle)
	}
	return "", &avatar.LookupError{Handle: handle, Cause: context.DeadlineExceeded}
}

func (m *AvatarLookupMock) Calls() int { return int(m.calls.Load()) }

// AvatarServiceMock resolves through ResolveFn or falls back to the placeholder.
type AvatarServiceMock struct {
	ResolveFn func(ctx context.Context, handle string, size int) string

	mu      sync.Mutex
	Handles []string
}

func (m *AvatarServiceMock) ResolveAvatar(ctx context.Context, handle string, size int) string {
	m.mu.Lock()
	m.Handles = append(m.Handles, handle)
	m.mu.Unlock()
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, handle, size)
	}
	return avatar.Placeholder(avatar.NormalizeHandle(handle), size)
}

func (m *AvatarServiceMock) Resolve(ctx context.Context, handle string, size int) avatar.Resolution {
	req := avatar.NewRequest(handle, size)
	return avatar.Resolution{
		Key:    req.CacheKey(),
		Handle: req.Handle,
		Size:   req.Size,
		URL:    m.ResolveAvatar(ctx, handle, size),
		Source: avatar.SourceRemote,
	}
}

func (m *AvatarServiceMock) GeneratePlaceholder(handle string, size int) string {
	return avatar.Placeholder(handle, size)
}

// ResolvedHandles returns the handles passed to ResolveAvatar so far.
func (m *AvatarServiceMock) ResolvedHandles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Handles...)
}

// HealthCheckerMock is a named probe returning Err.
type HealthCheckerMock struct {
	CheckName string
	Err       error
}

func (m *HealthCheckerMock) Name() string                    { return m.CheckName }
func (m *HealthCheckerMock) Check(ctx context.Context) error { return m.Err }

// MetricsMock tallies observations in memory.
type MetricsMock struct {
	mu             sync.Mutex
	Hits, Misses   int
	Sources        map[avatar.Source]int
	RemoteAttempts map[string]int
}

func (m *MetricsMock) ObserveCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.Hits++
	} else {
		m.Misses++
	}
}

func (m *MetricsMock) ObserveResolution(source avatar.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Sources == nil {
		m.Sources = map[avatar.Source]int{}
	}
	m.Sources[source]++
}

func (m *MetricsMock) ObserveRemoteAttempt(endpoint string, success bool, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoteAttempts == nil {
		m.RemoteAttempts = map[string]int{}
	}
	m.RemoteAttempts[endpoint]++
}

// FakeClock is a settable time source.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock { return &FakeClock{now: now} }

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	_ ports.Slot          = (*SlotMock)(nil)
	_ ports.AvatarLookup  = (*AvatarLookupMock)(nil)
	_ ports.AvatarService = (*AvatarServiceMock)(nil)
	_ ports.HealthChecker = (*HealthCheckerMock)(nil)
	_ ports.AvatarMetrics = (*MetricsMock)(nil)
)
