package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/validation"
)

const photoField = "photo"

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type objectStore interface {
	Save(key string, data []byte) (string, error)
	PublicURL(key string) string
}

// UploadConfig bounds accepted photos.
type UploadConfig struct {
	MaxBytes     int64
	AllowedMIMEs []string
}

// StoredPhoto describes a persisted image.
type StoredPhoto struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
}

// UploadService validates and stores applicant photos.
type UploadService struct {
	store    objectStore
	maxBytes int64
	allowed  map[string]struct{}
	logger   *zap.Logger
	now      func() time.Time
}

// NewUploadService constructs the upload service.
func NewUploadService(store objectStore, cfg UploadConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 * 1024 * 1024
	}
	allowed := make(map[string]struct{})
	for _, mime := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(mime))] = struct{}{}
	}
	if len(allowed) == 0 {
		allowed["image/jpeg"] = struct{}{}
		allowed["image/png"] = struct{}{}
		allowed["image/webp"] = struct{}{}
	}
	return &UploadService{store: store, maxBytes: cfg.MaxBytes, allowed: allowed, logger: logger, now: time.Now}
}

// MaxBytes reports the photo size limit.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// SavePhoto sniffs, size-checks and stores an image.
func (s *UploadService) SavePhoto(ctx context.Context, data []byte) (*StoredPhoto, error) {
	if len(data) == 0 {
		return nil, photoError("photo is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, photoError(fmt.Sprintf("photo exceeds %d bytes", s.maxBytes))
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	mime := http.DetectContentType(head)
	if _, ok := s.allowed[mime]; !ok {
		return nil, photoError(fmt.Sprintf("photo type %s is not allowed", mime))
	}

	key := fmt.Sprintf("photos/%s/%s%s", s.now().UTC().Format("2006/01"), uuid.NewString(), photoExtensions[mime])
	stored, err := s.store.Save(key, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	s.logger.Debug("photo stored", zap.String("key", stored), zap.Int("size", len(data)))
	return &StoredPhoto{Key: stored, URL: s.store.PublicURL(stored), MimeType: mime, Size: len(data)}, nil
}

// ResolvePhoto turns a submitted photo value into a public URL. Data URLs are decoded and stored;
// http(s) URLs are kept as given.
func (s *UploadService) ResolvePhoto(ctx context.Context, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", nil
	case validation.IsHTTPURL(value):
		return value, nil
	case validation.IsImageDataURL(value):
		_, data, err := validation.DecodeImageDataURL(value)
		if err != nil {
			return "", photoError("photo data URL could not be decoded")
		}
		stored, err := s.SavePhoto(ctx, data)
		if err != nil {
			return "", err
		}
		return stored.URL, nil
	default:
		return "", photoError("photo must be an uploaded image URL or an image data URL")
	}
}

func photoError(message string) error {
	return appErrors.Validation("validation failed", []appErrors.FieldError{{Field: photoField, Tag: "image", Message: message}})
}
