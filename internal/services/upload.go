package services

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"pumarket/internal/storage"
	"pumarket/internal/validate"
)

// ImageStore is the object storage a dashboard writes images to.
type ImageStore interface {
	Put(key string, r io.Reader, size int64) (string, error)
	MaxBytes() int64
}

// Upload is a file picked in a dashboard form.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// storeImage checks up against the store's ceiling before opening it and
// writes it under prefix/<unixmillis>-<rand8>.<ext>.
func storeImage(store ImageStore, prefix string, up *Upload, now time.Time) (string, error) {
	if up.Size > store.MaxBytes() {
		return "", storage.ErrTooLarge
	}
	ext, ok := validate.ImageExt(up.Filename)
	if !ok {
		return "", fmt.Errorf("%w: image must be jpg, png, gif or webp", ErrInvalid)
	}
	key := fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString()[:8], ext)
	if prefix != "" {
		key = prefix + "/" + key
	}
	f, err := up.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return store.Put(key, f, up.Size)
}
