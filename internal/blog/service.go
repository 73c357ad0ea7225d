// Package blog implements the blog media pipeline: uploads go to the object
// store, metadata goes to the document store, and deletion removes both.
package blog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Adarsh108-tech/glacier-server/internal/logger"
	"github.com/Adarsh108-tech/glacier-server/internal/metrics"
	"github.com/Adarsh108-tech/glacier-server/internal/models"
	"github.com/Adarsh108-tech/glacier-server/internal/storage"
)

var (
	// ErrMissingMedia means the request carried no attachment.
	ErrMissingMedia = errors.New("media file is required")
	// ErrInvalidInput wraps a missing or malformed text field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned for unknown post ids.
	ErrNotFound = models.ErrNotFound
)

// Repository persists blog posts.
type Repository interface {
	InsertBlog(ctx context.Context, post *models.BlogPost) error
	ListBlogs(ctx context.Context) ([]models.BlogPost, error)
	FindBlog(ctx context.Context, id string) (models.BlogPost, error)
	DeleteBlog(ctx context.Context, id string) error
}

// MediaStore holds the binary attachments.
type MediaStore interface {
	Upload(ctx context.Context, filename, contentType string, kind models.MediaKind, data io.Reader) (storage.Object, error)
	Delete(ctx context.Context, id string, kind models.MediaKind) error
	Folder() string
}

// Upload is one create request. A nil Media means no file was attached.
type Upload struct {
	Title       string
	Description string
	Filename    string
	ContentType string
	Media       io.Reader
}

// Service composes the repository and the media store.
type Service struct {
	repo  Repository
	media MediaStore
	log   *slog.Logger
	now   func() time.Time
}

// NewService wires a Service.
func NewService(repo Repository, media MediaStore, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, media: media, log: log, now: time.Now}
}

// Create uploads the attachment and stores the resulting post.
func (s *Service) Create(ctx context.Context, in Upload) (models.BlogPost, error) {
	if in.Media == nil {
		return models.BlogPost{}, ErrMissingMedia
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" {
		return models.BlogPost{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if description == "" {
		return models.BlogPost{}, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	kind := models.MediaKindFromContentType(in.ContentType)
	obj, err := s.media.Upload(ctx, in.Filename, in.ContentType, kind, in.Media)
	if err != nil {
		metrics.RecordBlog("create", "upload_error")
		return models.BlogPost{}, fmt.Errorf("upload media: %w", err)
	}

	post := models.BlogPost{
		Title:       title,
		Description: description,
		MediaURL:    obj.URL,
		MediaID:     obj.ID,
		MediaType:   kind,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.InsertBlog(ctx, &post); err != nil {
		metrics.RecordBlog("create", "store_error")
		if derr := s.media.Delete(context.WithoutCancel(ctx), obj.ID, kind); derr != nil {
			s.log.Warn("remove orphaned media", slog.String("media_id", obj.ID), slog.Any("err", derr))
		}
		return models.BlogPost{}, fmt.Errorf("save blog: %w", err)
	}

	metrics.RecordBlog("create", "ok")
	s.log.Info("blog created",
		slog.String("id", post.ID),
		slog.String("media_type", string(kind)),
		slog.String("media_id", obj.ID),
	)
	return post, nil
}

// List returns every post, newest first.
func (s *Service) List(ctx context.Context) ([]models.BlogPost, error) {
	posts, err := s.repo.ListBlogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return posts, nil
}

// Delete removes the remote media and then the record. A failed remote
// delete is logged and does not stop the record deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	post, err := s.repo.FindBlog(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("find blog: %w", err)
	}

	mediaID := s.MediaID(post)
	if mediaID == "" {
		s.log.Warn("blog has no derivable media id", slog.String("id", id), slog.String("media_url", post.MediaURL))
	} else if err := s.media.Delete(ctx, mediaID, post.MediaType); err != nil {
		metrics.RecordBlog("delete", "media_error")
		s.log.Warn("delete blog media", slog.String("id", id), slog.String("media_id", mediaID), slog.Any("err", err))
	}

	if err := s.repo.DeleteBlog(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrNotFound
		}
		metrics.RecordBlog("delete", "store_error")
		return fmt.Errorf("delete blog: %w", err)
	}

	metrics.RecordBlog("delete", "ok")
	s.log.Info("blog deleted", slog.String("id", id), slog.String("media_id", mediaID))
	return nil
}

// MediaID is the remote identifier of post's attachment. Posts written
// before the id was persisted fall back to deriving it from the URL.
func (s *Service) MediaID(post models.BlogPost) string {
	if post.MediaID != "" {
		return post.MediaID
	}
	return storage.ObjectID(post.MediaURL, s.media.Folder())
}
