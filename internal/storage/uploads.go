package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"headshot/internal/domain"
)

// UploadSession spools the images of one request into a private directory.
// Cleanup removes everything it wrote.
type UploadSession struct {
	store *FileStore
	dir   string
	count int
}

// BeginUpload opens a new session under store.
func BeginUpload(store *FileStore) *UploadSession {
	return &UploadSession{store: store, dir: uuid.NewString()}
}

// Save writes an uploaded image. Content that does not sniff as an image is
// rejected with domain.ErrUnsupportedMedia.
func (s *UploadSession) Save(ctx context.Context, name string, r io.Reader) (domain.ImageBlob, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.ImageBlob{}, fmt.Errorf("storage: read upload: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return domain.ImageBlob{}, fmt.Errorf("%w: %s is %s", domain.ErrUnsupportedMedia, name, mime)
	}
	s.count++
	key := path.Join(s.dir, fmt.Sprintf("%02d%s", s.count, extensionFor(mime)))
	key, err = s.store.Write(ctx, key, data)
	if err != nil {
		return domain.ImageBlob{}, err
	}
	fullPath, err := s.store.Path(key)
	if err != nil {
		return domain.ImageBlob{}, err
	}
	return domain.ImageBlob{
		Name:     name,
		MIMEType: mime,
		Path:     fullPath,
		Size:     int64(len(data)),
	}, nil
}

// Cleanup deletes the session directory.
func (s *UploadSession) Cleanup() error {
	return s.store.Delete(s.dir)
}

func mimeForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
