package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"asur-wears/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PublicPrefix is the URL path the image directory is served under
const PublicPrefix = "/uploads"

var (
	ErrTooLarge        = errors.New("image exceeds the upload size limit")
	ErrUnsupportedType = errors.New("image type not supported")
	ErrNotFound        = errors.New("image not found")
	ErrInvalidID       = errors.New("invalid image id")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var publicIDPattern = regexp.MustCompile(`^aw-[0-9a-f]{32}$`)

// ImageStore keeps product photos on local disk
type ImageStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewImageStore creates the upload directory if needed
func NewImageStore(dir, baseURL string, maxBytes int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &ImageStore{dir: dir, baseURL: baseURL, maxBytes: maxBytes}, nil
}

// Dir returns the directory served under PublicPrefix
func (s *ImageStore) Dir() string {
	return s.dir
}

// MaxBytes returns the upload size ceiling
func (s *ImageStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates an upload by size and sniffed content type and stores it
// under a fresh public id.
func (s *ImageStore) Save(ctx context.Context, r io.Reader) (*models.ProductImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mt := mimetype.Detect(data)
	ext, ok := allowedTypes[mt.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	publicID := "aw-" + hexID()
	name := publicID + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}

	url := PublicPrefix + "/" + name
	return &models.ProductImage{
		URL:      url,
		PublicID: publicID,
		CDNURL:   s.baseURL + url,
	}, nil
}

// Delete removes a stored image by public id
func (s *ImageStore) Delete(_ context.Context, publicID string) error {
	if !publicIDPattern.MatchString(publicID) {
		return ErrInvalidID
	}

	removed := false
	for _, ext := range allowedTypes {
		err := os.Remove(filepath.Join(s.dir, publicID+ext))
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("failed to remove image: %w", err)
		}
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

func hexID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}
