// Package storage keeps blog media in Supabase Storage and derives the
// remote identifiers used to delete it again.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
	supabase "github.com/supabase-community/supabase-go"

	"github.com/Adarsh108-tech/glacier-server/internal/models"
)

// ErrUnsupportedFormat is returned for uploads outside the allowed formats.
var ErrUnsupportedFormat = errors.New("unsupported media format")

// Object is an uploaded media object.
type Object struct {
	URL string
	ID  string
}

// Config describes buckets and naming for uploads.
type Config struct {
	SupabaseURL    string
	SupabaseKey    string
	ImageBucket    string
	VideoBucket    string
	Folder         string
	AllowedFormats []string
}

// bucketAPI is the subset of the storage-go client this package uses.
type bucketAPI interface {
	UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	RemoveFile(bucketID string, paths []string) ([]storage_go.FileUploadResponse, error)
	GetPublicUrl(bucketID, filePath string, urlOptions ...storage_go.UrlOptions) storage_go.SignedUrlResponse
}

// Supabase stores media objects in Supabase Storage buckets, one per media kind.
type Supabase struct {
	api     bucketAPI
	buckets map[models.MediaKind]string
	folder  string
	allowed map[string]struct{}
	newName func() string
}

// NewSupabase connects the Supabase SDK and returns a store.
func NewSupabase(cfg Config) (*Supabase, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}
	if client.Storage == nil {
		return nil, fmt.Errorf("supabase storage client not initialized")
	}
	return newSupabase(client.Storage, cfg), nil
}

func newSupabase(api bucketAPI, cfg Config) *Supabase {
	allowed := make(map[string]struct{}, len(cfg.AllowedFormats))
	for _, f := range cfg.AllowedFormats {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f != "" {
			allowed[f] = struct{}{}
		}
	}
	videoBucket := cfg.VideoBucket
	if videoBucket == "" {
		videoBucket = cfg.ImageBucket
	}
	return &Supabase{
		api: api,
		buckets: map[models.MediaKind]string{
			models.MediaImage: cfg.ImageBucket,
			models.MediaVideo: videoBucket,
		},
		folder:  strings.Trim(cfg.Folder, "/"),
		allowed: allowed,
		newName: uuid.NewString,
	}
}

// Folder is the namespace every object key starts with.
func (s *Supabase) Folder() string {
	return s.folder
}

// Upload stores data under "<folder>/<random name>" in the bucket for kind.
// filename and contentType are checked against the allowed formats.
func (s *Supabase) Upload(ctx context.Context, filename, contentType string, kind models.MediaKind, data io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if !s.formatAllowed(filename, contentType) {
		return Object{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filename, contentType)
	}

	bucket := s.buckets[kind]
	key := path.Join(s.folder, s.newName())
	upsert := false
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	if _, err := s.api.UploadFile(bucket, key, data, opts); err != nil {
		return Object{}, fmt.Errorf("upload %s to bucket %s: %w", key, bucket, err)
	}

	public := s.api.GetPublicUrl(bucket, key)
	return Object{URL: public.SignedURL, ID: key}, nil
}

// Delete removes the object id from the bucket for kind.
func (s *Supabase) Delete(ctx context.Context, id string, kind models.MediaKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("empty object id")
	}
	bucket := s.buckets[kind]
	if _, err := s.api.RemoveFile(bucket, []string{id}); err != nil {
		return fmt.Errorf("remove %s from bucket %s: %w", id, bucket, err)
	}
	return nil
}

func (s *Supabase) formatAllowed(filename, contentType string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	if ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")); ext != "" {
		_, ok := s.allowed[ext]
		return ok
	}
	// No extension: fall back to the MIME subtype, e.g. "image/png" -> "png".
	if _, sub, found := strings.Cut(strings.ToLower(contentType), "/"); found {
		sub, _, _ = strings.Cut(sub, ";")
		if sub == "quicktime" {
			sub = "mov"
		}
		_, ok := s.allowed[strings.TrimSpace(sub)]
		return ok
	}
	return false
}
