package ports

import (
	"time"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
)

// AvatarMetrics records resolver activity. Implementations must be safe for concurrent use.
type AvatarMetrics interface {
	ObserveCacheLookup(hit bool)
	ObserveResolution(source avatar.Source)
	ObserveRemoteAttempt(endpoint string, success bool, elapsed time.Duration)
}
