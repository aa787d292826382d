package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/crimpz/clic/internal/adapter/filestore"
	"github.com/crimpz/clic/internal/app"
	apperrors "github.com/crimpz/clic/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

const (
	uploadURLPrefix   = "uploads"
	multipartOverhead = 64 << 10
)

func invalidUpload(reason string) *apperrors.Error {
	return apperrors.ValidationError(apperrors.CodeInvalidRequest, "invalid upload").
		WithContext("reason", reason)
}

func (s *Server) handleUploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	identity := identityFrom(c)

	if s.images == nil {
		return apperrors.InternalError("image storage not configured", nil)
	}

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.config.MaxUploadBytes+multipartOverhead)

	rawID := c.FormValue("message_id")
	if rawID == "" {
		return invalidUpload("message_id is required")
	}
	messageID, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || messageID <= 0 {
		return invalidUpload("message_id must be a positive integer")
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return invalidUpload("file exceeds upload limit")
		}
		return invalidUpload("file is required")
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.InternalError("failed to open uploaded file", err)
	}
	defer file.Close()

	stored, err := s.images.SaveImage(file)
	switch {
	case errors.Is(err, filestore.ErrTooLarge):
		return invalidUpload("file exceeds upload limit")
	case errors.Is(err, filestore.ErrUnsupportedType):
		return invalidUpload("file must be a png, jpeg, gif or webp image")
	case err != nil:
		return apperrors.InternalError("failed to store uploaded file", err)
	}

	img, err := s.app.AttachImage(ctx, identity, app.ImageUpload{
		ID:          stored.ID,
		MessageID:   messageID,
		Filename:    header.Filename,
		ContentType: stored.ContentType,
		StoragePath: path.Join(uploadURLPrefix, stored.Path),
	})
	if err != nil {
		if rmErr := s.images.Remove(stored.Path); rmErr != nil {
			slog.ErrorContext(ctx, "Failed to remove orphaned upload", "path", stored.Path, "error", rmErr)
		}
		return err
	}

	if err := c.JSON(http.StatusOK, img); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
