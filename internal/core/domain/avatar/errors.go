package avatar

import (
	"errors"
	"fmt"
)

var (
	ErrNoImageFound     = errors.New("avatar image not found in profile page")
	ErrUnexpectedStatus = errors.New("unexpected proxy response status")
	ErrNoEndpoints      = errors.New("no proxy endpoints configured")
	ErrSlotEmpty        = errors.New("storage slot is empty")
)

// LookupError is returned when every proxy attempt for a handle failed.
// Cause is the primary endpoint's failure; Fallback is the second attempt's, if one was made.
type LookupError struct {
	Handle   string
	Cause    error
	Fallback error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("avatar lookup for %q failed: %v", e.Handle, e.Cause)
	if e.Fallback != nil {
		msg += fmt.Sprintf(" (fallback: %v)", e.Fallback)
	}
	return msg
}

func (e *LookupError) Unwrap() error { return e.Cause }

// StorageError wraps a durable slot failure. It is logged, never surfaced.
type StorageError struct {
	Op   string
	Slot string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("avatar cache %s on slot %q: %v", e.Op, e.Slot, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
