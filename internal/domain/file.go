package domain

import (
	"time"

	"github.com/google/uuid"
)

// File represents file metadata stored in the system.
// The bytes themselves live in object storage, always wrapped in the
// server-side envelope; storage key and metadata are immutable after upload.
// Maps to the files table.
type File struct {
	FileID      uuid.UUID `json:"file_id" db:"file_id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Size        int64     `json:"size" db:"size"` // Bytes, as uploaded
	ContentType string    `json:"content_type" db:"content_type"`
	StorageKey  string    `json:"-" db:"storage_key"` // Internal, never exposed

	// Client-side encryption layer. When the caller uploaded pre-encrypted
	// bytes, key and IV are opaque strings handed back on download so the
	// client can undo its own layer. They never feed the server envelope.
	IsClientEncrypted bool    `json:"is_client_encrypted" db:"is_client_encrypted"`
	ClientKey         *string `json:"-" db:"client_key"`
	ClientIV          *string `json:"-" db:"client_iv"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FileResponse is the file representation returned to clients
type FileResponse struct {
	FileID            uuid.UUID `json:"file_id"`
	Name              string    `json:"name"`
	Size              int64     `json:"size"`
	ContentType       string    `json:"content_type"`
	IsClientEncrypted bool      `json:"is_client_encrypted"`
	OwnerEmail        string    `json:"owner_email,omitempty"`
	IsOwner           bool      `json:"is_owner"`
	CreatedAt         time.Time `json:"created_at"`
}

// ToResponse converts File to FileResponse for a given viewer
func (f *File) ToResponse(ownerEmail string, isOwner bool) *FileResponse {
	return &FileResponse{
		FileID:            f.FileID,
		Name:              f.Name,
		Size:              f.Size,
		ContentType:       f.ContentType,
		IsClientEncrypted: f.IsClientEncrypted,
		OwnerEmail:        ownerEmail,
		IsOwner:           isOwner,
		CreatedAt:         f.CreatedAt,
	}
}
