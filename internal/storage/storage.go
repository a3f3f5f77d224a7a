// Package storage keeps uploaded images in named buckets on the local
// filesystem and hands back the public URL each object is served from.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	ProductImages  = "product_images"
	CarouselImages = "carousel_images"

	MaxProductImage  int64 = 1 << 20 // 1 MiB
	MaxCarouselImage int64 = 2 << 20 // 2 MiB
)

var (
	ErrTooLarge = errors.New("file exceeds the size limit")
	ErrBadKey   = errors.New("invalid object key")
)

// Bucket is a directory under the media root with its own size ceiling.
type Bucket struct {
	name     string
	dir      string
	maxBytes int64
}

func NewBucket(mediaDir, name string, maxBytes int64) *Bucket {
	return &Bucket{name: name, dir: filepath.Join(mediaDir, name), maxBytes: maxBytes}
}

func (b *Bucket) Name() string    { return b.name }
func (b *Bucket) MaxBytes() int64 { return b.maxBytes }

func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.ContainsRune(key, 0) ||
		strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrBadKey
	}
	return path.Clean(key), nil
}

// Put writes size bytes from r under key and returns the object's public URL.
// Objects larger than the bucket ceiling are refused before anything is written.
func (b *Bucket) Put(key string, r io.Reader, size int64) (string, error) {
	if size > b.maxBytes {
		return "", ErrTooLarge
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(b.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", key, err)
	}
	// Read one byte past the limit so an understated size is still caught.
	n, err := io.Copy(f, io.LimitReader(r, b.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > b.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return b.PublicURL(key), nil
}

func (b *Bucket) PublicURL(key string) string {
	return "/media/" + b.name + "/" + key
}
