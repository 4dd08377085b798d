package handlers

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/config"
	apperrors "github.com/spec-kit/shop-service/pkg/util"
)

var allowedImageTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// UploadHandler stages product images in a temp directory. The file is
// moved next to the catalog only when a product create or update claims it.
type UploadHandler struct {
	cfg config.UploadConfig
}

// NewUploadHandler constructs handler.
func NewUploadHandler(cfg config.UploadConfig) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

// Upload handles POST /upload.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewBadRequest("file field required")
	}
	if file.Size > h.cfg.MaxSizeBytes {
		return apperrors.NewValidationError("file exceeds maximum size", map[string]any{
			"maxSizeBytes": h.cfg.MaxSizeBytes,
		})
	}

	ext, ok := allowedImageTypes[file.Header.Get(fiber.HeaderContentType)]
	if !ok {
		return apperrors.NewValidationError("only png, jpeg, gif and svg images are accepted", nil)
	}

	if err := os.MkdirAll(h.cfg.TempDir, 0o755); err != nil {
		return apperrors.NewInternalError(err)
	}

	fileName := uuid.NewString() + ext
	if err := c.SaveFile(file, filepath.Join(h.cfg.TempDir, fileName)); err != nil {
		return apperrors.NewInternalError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{
		FileName:     fileName,
		OriginalName: file.Filename,
	})
}
