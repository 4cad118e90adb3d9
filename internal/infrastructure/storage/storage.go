package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path"
	"strings"
	"time"
)

// File is one image submitted with a listing form.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// BlobStore is the object store for listing images.
type BlobStore interface {
	// Upload stores the file under name and returns the stored path.
	Upload(ctx context.Context, name string, f File) (string, error)
	// PublicURL maps a stored path to its public URL. Pure, never fails.
	PublicURL(storedPath string) string
}

// RandomName builds "<random>-<unix millis>.<ext>" from the submitted file name.
func RandomName(original string) string {
	ext := strings.TrimPrefix(path.Ext(original), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%v-%d.%s", rand.Float64(), time.Now().UnixMilli(), strings.ToLower(ext))
}
