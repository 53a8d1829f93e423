package handler

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkanlabs/course-feedback-api/pkg/config"
	appErrors "github.com/arkanlabs/course-feedback-api/pkg/errors"
	"github.com/arkanlabs/course-feedback-api/pkg/response"
	"github.com/arkanlabs/course-feedback-api/pkg/storage"
)

// AttachmentHandler manages feedback attachment uploads and signed downloads.
type AttachmentHandler struct {
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	cfg     config.UploadsConfig
	prefix  string
	logger  *zap.Logger
}

// NewAttachmentHandler constructs AttachmentHandler.
func NewAttachmentHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg config.UploadsConfig, apiPrefix string, logger *zap.Logger) *AttachmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentHandler{storage: store, signer: signer, cfg: cfg, prefix: strings.TrimRight(apiPrefix, "/"), logger: logger}
}

// UploadResponse describes a stored attachment.
type UploadResponse struct {
	FilePath    string    `json:"file_path"`
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Upload accepts a multipart file, validates it and stores it under a
// generated name. The original filename is only echoed back for display.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if file.Size > h.cfg.MaxFileSizeBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxFileSizeBytes)))
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !h.extensionAllowed(ext) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file type %q is not allowed", ext)))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	fileID := uuid.NewString()
	storedName := fileID + ext
	relPath, err := h.storage.SaveStream(storedName, src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload"))
		return
	}

	token, expiresAt, err := h.signer.Generate(fileID, relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url"))
		return
	}

	h.logger.Info("attachment stored",
		zap.String("file_id", fileID),
		zap.String("original_name", file.Filename),
		zap.Int64("size_bytes", file.Size))

	response.Created(c, UploadResponse{
		FilePath:    relPath,
		FileName:    file.Filename,
		DownloadURL: fmt.Sprintf("%s/attachments/%s", h.prefix, token),
		ExpiresAt:   expiresAt,
	})
}

// Download streams a stored attachment referenced by a signed token. The
// token itself authenticates the request, so the route carries no JWT gate.
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := c.Param("token")
	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.storage.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "attachment not found"))
		return
	}
	_ = file.Close()

	c.FileAttachment(h.storage.Path(relPath), filepath.Base(relPath))
}

func (h *AttachmentHandler) extensionAllowed(ext string) bool {
	for _, allowed := range h.cfg.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}
