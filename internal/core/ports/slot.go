package ports

import "context"

// Slot is a single named durable value holding the serialized avatar cache.
type Slot interface {
	Name() string
	// Read returns avatar.ErrSlotEmpty when nothing has been written yet.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// Clear removes the value; clearing an empty slot is not an error.
	Clear(ctx context.Context) error
}
