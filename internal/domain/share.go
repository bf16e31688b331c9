package domain

import (
	"time"

	"github.com/google/uuid"
)

// Share permission levels
const (
	PermissionView     = "VIEW"
	PermissionDownload = "DOWNLOAD"
)

// ValidPermission reports whether p is a known share permission
func ValidPermission(p string) bool {
	return p == PermissionView || p == PermissionDownload
}

// FileShare grants one user access to one file at a permission level.
// At most one row exists per (file, user); re-sharing updates the
// permission in place. The target is never the file owner.
// Maps to the file_shares table.
type FileShare struct {
	ShareID    uuid.UUID `json:"share_id" db:"share_id"`
	FileID     uuid.UUID `json:"file_id" db:"file_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Permission string    `json:"permission" db:"permission"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ShareableLink is an anonymous, time-limited credential for one file.
// A link past its expiry is inert but not purged.
// Maps to the shareable_links table.
type ShareableLink struct {
	LinkID    uuid.UUID `json:"link_id" db:"link_id"`
	FileID    uuid.UUID `json:"file_id" db:"file_id"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the link is past its expiry at the given instant
func (l *ShareableLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
