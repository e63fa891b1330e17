package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nomadland/nomadland/internal/middleware"
	"github.com/nomadland/nomadland/internal/services"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

var uploadKinds = map[string]bool{
	"points":  true,
	"events":  true,
	"avatars": true,
}

// UploadImage accepts a multipart image upload and stores it in S3. The
// response carries the object key and a presigned URL the client can embed
// as image_url / avatar_url on the owning resource.
func (h *Handler) UploadImage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if h.storage == nil {
		return Error(c, fiber.StatusServiceUnavailable, "image storage is not configured")
	}

	kind := c.FormValue("kind", "points")
	if !uploadKinds[kind] {
		return Error(c, fiber.StatusBadRequest, "kind must be one of points, events, avatars")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "image file is required")
	}

	// Validate file size (max 10MB)
	if file.Size > maxImageSize {
		return Error(c, fiber.StatusBadRequest, "file too large. Maximum size is 10MB")
	}

	contentType := file.Header.Get("Content-Type")
	key, err := services.NewImageKey(kind, contentType)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid image type. Supported: JPEG, PNG, WebP")
	}

	src, err := file.Open()
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}
	defer src.Close()

	result, err := h.storage.UploadImage(c.Context(), key, src, file.Size, contentType)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to upload image")
	}

	url, err := h.storage.GetPresignedURL(c.Context(), result.Key, 7*24*time.Hour)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to generate image URL")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data: fiber.Map{
			"key":          result.Key,
			"url":          url,
			"size":         result.Size,
			"content_type": result.ContentType,
		},
	})
}
