package grant

import (
	"time"

	"dataportal/pkg/domain"
)

// Grant is a durable authorization record permitting a subject an access
// level on one resource. Keyed by (subject, resource ref): at most one grant
// exists per pair, and upsert replaces rather than appends.
type Grant struct {
	Subject     string
	ResourceRef string
	Level       domain.AccessLevel
	GrantedBy   string
	GrantedAt   time.Time
}
