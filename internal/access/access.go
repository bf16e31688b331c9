// Package access implements the authorization decision for file operations.
// It is deliberately pure: callers load the principal, file, and any share
// row first, then ask for the resulting capability level.
package access

import (
	"github.com/google/uuid"

	"vaultdrop-backend/internal/domain"
)

// Level is a capability on a file. Levels form an ordered lattice:
// MANAGE implies DOWNLOAD implies VIEW.
type Level int

const (
	None Level = iota
	View
	Download
	Manage
)

// String returns the wire name of the level
func (l Level) String() string {
	switch l {
	case View:
		return "VIEW"
	case Download:
		return "DOWNLOAD"
	case Manage:
		return "MANAGE"
	default:
		return "NONE"
	}
}

// Allows reports whether the level grants at least the required capability
func (l Level) Allows(required Level) bool {
	return l >= required
}

// Principal is the authenticated actor making a request
type Principal struct {
	UserID uuid.UUID
	Role   string
}

// Evaluate computes the principal's capability on a file. share is the
// explicit FileShare row for (file, principal), or nil when none exists.
//
// Admins and owners get MANAGE on every file they touch; everyone else is
// bound by the explicit share. List scope is intentionally narrower than
// this single-object scope: "my files" shows owned files only, and admins
// browse non-owned files via the shared listing.
func Evaluate(principal Principal, file *domain.File, share *domain.FileShare) Level {
	if principal.Role == domain.RoleAdmin {
		return Manage
	}
	if file.OwnerID == principal.UserID {
		return Manage
	}
	if share == nil {
		return None
	}
	switch share.Permission {
	case domain.PermissionDownload:
		return Download
	case domain.PermissionView:
		return View
	default:
		return None
	}
}
