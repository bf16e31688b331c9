// Package files exposes the file upload, listing, download, sharing, and
// deletion endpoints.
package files

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vaultdrop-backend/internal/middleware"
	filesvc "vaultdrop-backend/internal/service/files"
	sharesvc "vaultdrop-backend/internal/service/share"
	"vaultdrop-backend/pkg/constants"
	apperrors "vaultdrop-backend/pkg/errors"
	"vaultdrop-backend/pkg/metrics"
	"vaultdrop-backend/pkg/response"
	"vaultdrop-backend/pkg/sanitize"
)

// Handler handles HTTP requests for files
type Handler struct {
	fileService  *filesvc.Service
	shareService *sharesvc.Service
	metrics      *metrics.Metrics
}

// NewHandler creates a new files handler
func NewHandler(fileService *filesvc.Service, shareService *sharesvc.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		fileService:  fileService,
		shareService: shareService,
		metrics:      m,
	}
}

// ShareRequest represents a per-user share grant
type ShareRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Permission string `json:"permission" binding:"required,oneof=VIEW DOWNLOAD"`
}

// ShareLinkRequest represents an expiring-link creation
type ShareLinkRequest struct {
	Hours int `json:"hours" binding:"required"`
}

// Upload stores a new file
// POST /api/files/upload (multipart)
func (h *Handler) Upload(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ValidationError(c, "multipart field 'file' is required")
		return
	}
	if fileHeader.Size > constants.MaxUploadSize {
		response.ValidationError(c, fmt.Sprintf("file exceeds maximum size of %d bytes", constants.MaxUploadSize))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "Failed to read upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.InternalError(c, "Failed to read upload")
		return
	}

	isClientEncrypted, _ := strconv.ParseBool(c.PostForm("is_client_encrypted"))

	resp, err := h.fileService.Upload(c.Request.Context(), principal.UserID, &filesvc.UploadInput{
		Name:              fileHeader.Filename,
		ContentType:       fileHeader.Header.Get("Content-Type"),
		Data:              data,
		IsClientEncrypted: isClientEncrypted,
		ClientKey:         c.PostForm("client_key"),
		ClientIV:          c.PostForm("client_iv"),
	})
	if err != nil {
		response.AppError(c, err)
		return
	}

	h.metrics.RecordUpload(resp.Size)
	response.Success(c, http.StatusCreated, gin.H{"file": resp})
}

// List returns the caller's own files
// GET /api/files/
func (h *Handler) List(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	files, err := h.fileService.ListOwned(c.Request.Context(), principal)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"files": files})
}

// ListShared returns files shared with the caller
// GET /api/files/shared
func (h *Handler) ListShared(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	files, err := h.fileService.ListShared(c.Request.Context(), principal)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"files": files})
}

// Download serves the decrypted file bytes, or a JSON envelope for
// client-encrypted files
// GET /api/files/:id/download
func (h *Handler) Download(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid file id")
		return
	}

	out, err := h.fileService.Download(c.Request.Context(), principal, fileID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	h.metrics.RecordDownload()
	h.serve(c, out)
}

// Delete removes a file
// DELETE /api/files/:id
func (h *Handler) Delete(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid file id")
		return
	}

	if err := h.fileService.Delete(c.Request.Context(), principal, fileID); err != nil {
		response.AppError(c, err)
		return
	}

	h.metrics.RecordDelete()
	c.Status(http.StatusNoContent)
}

// Share grants another user access to a file
// POST /api/files/:id/share
func (h *Handler) Share(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid file id")
		return
	}

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	share, err := h.shareService.CreateShare(c.Request.Context(), principal, fileID, req.Email, req.Permission)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"share": share})
}

// CreateShareLink creates an anonymous expiring download link
// POST /api/files/share-link/:id
func (h *Handler) CreateShareLink(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid file id")
		return
	}

	var req ShareLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	link, err := h.shareService.CreateLink(c.Request.Context(), principal, fileID, req.Hours)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"link_id":    link.LinkID,
		"expires_at": link.ExpiresAt,
	})
}

// DownloadByLink serves a file through a share link, no authentication
// GET /api/files/download-link/:id
func (h *Handler) DownloadByLink(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid link id")
		return
	}

	out, err := h.fileService.DownloadByLink(c.Request.Context(), linkID)
	if err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.ErrCodeLinkExpired):
			h.metrics.RecordLinkDownload("expired")
		case apperrors.IsCode(err, apperrors.ErrCodeLinkNotFound), apperrors.IsCode(err, apperrors.ErrCodeFileNotFound):
			h.metrics.RecordLinkDownload("not_found")
		}
		response.AppError(c, err)
		return
	}

	h.metrics.RecordLinkDownload("success")
	h.serve(c, out)
}

// serve writes the download response. Client-encrypted files go out as a
// JSON envelope carrying the stored key and IV; everything else streams as
// a binary attachment.
func (h *Handler) serve(c *gin.Context, out *filesvc.DownloadOutput) {
	filename := sanitize.HeaderFilename(out.Name)

	if out.IsClientEncrypted {
		c.Header("X-Suggested-Filename", filename)
		response.Success(c, http.StatusOK, gin.H{
			"is_client_encrypted": true,
			"name":                out.Name,
			"content_type":        out.ContentType,
			"data":                out.Data, // base64 via JSON encoding
			"client_key":          out.ClientKey,
			"client_iv":           out.ClientIV,
		})
		return
	}

	contentType := out.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Suggested-Filename", filename)
	c.Data(http.StatusOK, contentType, out.Data)
}
