package handler

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/cookbook-upload/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	uploadFailedMessage = "Upload failed"
)

// UploadHandler handles HTTP requests for file uploads
type UploadHandler struct {
	uploadService domain.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService domain.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
	}
}

// Upload handles POST /upload. It is mounted for every method so that
// non-POST requests get a JSON 405 instead of the router's 404.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	result, err := h.uploadService.Upload(c.UserContext(), domain.UploadRequest{
		Method:      c.Method(),
		ContentType: c.Get(fiber.HeaderContentType),
		Body:        requestBody(c),
	})
	if err != nil {
		return writeUploadError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// ListUploads handles GET /uploads
func (h *UploadHandler) ListUploads(c *fiber.Ctx) error {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be between 1 and 100",
			})
		}
		limit = n
	}

	records, err := h.uploadService.ListRecent(c.UserContext(), limit)
	if err != nil {
		log.Printf("list uploads failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list uploads",
		})
	}

	return c.JSON(fiber.Map{
		"data": records,
	})
}

// writeUploadError is the single place upload errors become HTTP responses.
// Client errors carry their stable message; everything else is logged and hidden.
func writeUploadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrMethodNotAllowed):
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"error": domain.ErrMethodNotAllowed.Error(),
		})
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return badRequest(c, domain.ErrUnsupportedMediaType)
	case errors.Is(err, domain.ErrMissingBoundary):
		return badRequest(c, domain.ErrMissingBoundary)
	case errors.Is(err, domain.ErrNoFileField):
		return badRequest(c, domain.ErrNoFileField)
	default:
		log.Printf("upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": uploadFailedMessage,
		})
	}
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// requestBody prefers the raw stream when fasthttp is streaming the body
func requestBody(c *fiber.Ctx) io.Reader {
	if stream := c.Context().RequestBodyStream(); stream != nil {
		return stream
	}
	return bytes.NewReader(c.Body())
}
