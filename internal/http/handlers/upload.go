package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"pumarket/internal/services"
)

// formUpload returns the file posted under field, or nil when none was chosen.
func formUpload(c *fiber.Ctx, field string) *services.Upload {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Filename == "" {
		return nil
	}
	return &services.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}
}
