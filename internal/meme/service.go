package meme

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/memebin/service/internal/storage"
)

// MaxUploadBytes is the largest accepted image file (10 MiB).
const MaxUploadBytes = 10 * 1024 * 1024

// MaxImageURLLength bounds the stored image URL.
const MaxImageURLLength = 2000

// ErrInvalidInput is returned for requests rejected by validation. The
// wrapped message is safe to show to the client.
var ErrInvalidInput = errors.New("invalid input")

// allowedContentTypes is the upload allow-set, checked case-insensitively.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

const allowedFormats = "jpeg, jpg, png, gif, webp"

// Store is the persistence collaborator for meme records.
type Store interface {
	List(ctx context.Context) ([]Meme, error)
	GetByID(ctx context.Context, id string) (*Meme, error)
	Create(ctx context.Context, m *Meme) (*Meme, error)
	Replace(ctx context.Context, id string, m *Meme) (*Meme, error)
	Delete(ctx context.Context, id string) error
}

// Service contains business logic for meme management: record validation,
// the upload workflow, and the best-effort object cleanup on delete.
type Service struct {
	store   Store
	objects storage.Storage
}

// NewService creates a new meme Service.
func NewService(store Store, objects storage.Storage) *Service {
	return &Service{store: store, objects: objects}
}

// List returns all memes, newest first.
func (s *Service) List(ctx context.Context) ([]Meme, error) {
	return s.store.List(ctx)
}

// Get returns one meme by id.
func (s *Service) Get(ctx context.Context, id string) (*Meme, error) {
	return s.store.GetByID(ctx, id)
}

// Create persists a meme whose image URL the caller supplies directly.
func (s *Service) Create(ctx context.Context, m *Meme) (*Meme, error) {
	if err := validateRecord(m); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, m)
}

// Replace overwrites an existing meme. The id in the record body, when set,
// must match the addressed id.
func (s *Service) Replace(ctx context.Context, id string, m *Meme) (*Meme, error) {
	if m.ID != "" && m.ID != id {
		return nil, fmt.Errorf("%w: body id %q does not match path id %q", ErrInvalidInput, m.ID, id)
	}
	if err := validateRecord(m); err != nil {
		return nil, err
	}
	return s.store.Replace(ctx, id, m)
}

// Delete removes a meme: a best-effort delete of the stored object first,
// then the metadata row. Object cleanup failures are logged and swallowed —
// an orphaned object is preferable to an undeletable record.
func (s *Service) Delete(ctx context.Context, id string) error {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.removeObject(ctx, m.ImageURL) {
		log.Printf("meme %s: stored object not removed, proceeding with row delete", id)
	}
	return s.store.Delete(ctx, id)
}

// Upload validates an incoming file, writes it to object storage under a
// fresh key, and persists a meme record pointing at the resulting public URL.
//
// Storage write failures propagate as-is (the handler maps them to a generic
// 5xx); if the metadata insert fails after a successful write, the uploaded
// object is orphaned — there is no rollback.
func (s *Service) Upload(ctx context.Context, data []byte, contentType, filename, keywordsCSV string) (*Meme, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image file is required and must not be empty", ErrInvalidInput)
	}
	if !allowedContentTypes[strings.ToLower(contentType)] {
		return nil, fmt.Errorf("%w: unsupported content type %q, allowed formats: %s", ErrInvalidInput, contentType, allowedFormats)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds the %d MiB limit", ErrInvalidInput, MaxUploadBytes/(1024*1024))
	}

	key := uuid.NewString() + filepath.Ext(filename)
	if err := s.objects.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("upload object: %w", err)
	}

	return s.store.Create(ctx, &Meme{
		ImageURL: s.objects.PublicURL(key),
		Keywords: parseKeywordsCSV(keywordsCSV),
	})
}

// IsNotFound returns true when the error indicates a missing meme.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true when the error comes from request validation.
func (s *Service) IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// removeObject issues the compensating delete for a meme's stored object.
// It reports whether the object was deleted; every failure mode (unparsable
// URL, empty key, storage error) is non-fatal.
func (s *Service) removeObject(ctx context.Context, imageURL string) bool {
	u, err := url.Parse(imageURL)
	if err != nil || u.Scheme == "" || u.Host == "" || u.Path == "" {
		return false
	}
	key := path.Base(u.Path)
	if key == "" || key == "." || key == "/" {
		return false
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		log.Printf("compensating delete of object %q failed: %v", key, err)
		return false
	}
	return true
}

// validateRecord enforces the meme invariants shared by the create and
// replace paths.
func validateRecord(m *Meme) error {
	m.ImageURL = strings.TrimSpace(m.ImageURL)
	if m.ImageURL == "" {
		return fmt.Errorf("%w: imageUrl is required", ErrInvalidInput)
	}
	if len(m.ImageURL) > MaxImageURLLength {
		return fmt.Errorf("%w: imageUrl exceeds %d characters", ErrInvalidInput, MaxImageURLLength)
	}
	if u, err := url.Parse(m.ImageURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: imageUrl is not a valid URL", ErrInvalidInput)
	}
	if len(m.Keywords) > MaxKeywords {
		return fmt.Errorf("%w: at most %d keywords are allowed", ErrInvalidInput, MaxKeywords)
	}
	for i, kw := range m.Keywords {
		m.Keywords[i] = strings.TrimSpace(kw)
	}
	return nil
}
