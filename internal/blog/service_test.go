package blog_test

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adarsh108-tech/glacier-server/internal/blog"
	"github.com/Adarsh108-tech/glacier-server/internal/models"
	"github.com/Adarsh108-tech/glacier-server/internal/storage"
)

type memoryRepo struct {
	posts     map[string]models.BlogPost
	seq       int
	insertErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{posts: map[string]models.BlogPost{}}
}

func (m *memoryRepo) InsertBlog(_ context.Context, post *models.BlogPost) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.seq++
	post.ID = strconv.Itoa(m.seq)
	m.posts[post.ID] = *post
	return nil
}

func (m *memoryRepo) ListBlogs(context.Context) ([]models.BlogPost, error) {
	out := make([]models.BlogPost, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryRepo) FindBlog(_ context.Context, id string) (models.BlogPost, error) {
	p, ok := m.posts[id]
	if !ok {
		return models.BlogPost{}, models.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) DeleteBlog(_ context.Context, id string) error {
	if _, ok := m.posts[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

type deletion struct {
	id   string
	kind models.MediaKind
}

type fakeMedia struct {
	uploads   int
	deletions []deletion
	uploadErr error
	deleteErr error
}

func (f *fakeMedia) Upload(_ context.Context, filename, _ string, _ models.MediaKind, data io.Reader) (storage.Object, error) {
	if f.uploadErr != nil {
		return storage.Object{}, f.uploadErr
	}
	f.uploads++
	_, _ = io.ReadAll(data)
	return storage.Object{URL: "https://cdn.example/media/blogs/" + filename, ID: storage.ObjectID(filename, "blogs")}, nil
}

func (f *fakeMedia) Delete(_ context.Context, id string, kind models.MediaKind) error {
	f.deletions = append(f.deletions, deletion{id: id, kind: kind})
	return f.deleteErr
}

func (f *fakeMedia) Folder() string { return "blogs" }

func TestCreateRequiresMedia(t *testing.T) {
	repo, media := newMemoryRepo(), &fakeMedia{}
	svc := blog.NewService(repo, media, nil)

	_, err := svc.Create(context.Background(), blog.Upload{Title: "t", Description: "d"})
	require.ErrorIs(t, err, blog.ErrMissingMedia)
	require.Zero(t, media.uploads)
	require.Empty(t, repo.posts)
}

func TestCreateRequiresTextFields(t *testing.T) {
	repo, media := newMemoryRepo(), &fakeMedia{}
	svc := blog.NewService(repo, media, nil)

	_, err := svc.Create(context.Background(), blog.Upload{Title: " ", Description: "d", Media: strings.NewReader("x")})
	require.ErrorIs(t, err, blog.ErrInvalidInput)
	_, err = svc.Create(context.Background(), blog.Upload{Title: "t", Media: strings.NewReader("x")})
	require.ErrorIs(t, err, blog.ErrInvalidInput)
	require.Zero(t, media.uploads)
}

func TestCreateDerivesMediaKind(t *testing.T) {
	tests := []struct {
		contentType string
		want        models.MediaKind
	}{
		{contentType: "image/png", want: models.MediaImage},
		{contentType: "video/mp4", want: models.MediaVideo},
		{contentType: "", want: models.MediaImage},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			repo, media := newMemoryRepo(), &fakeMedia{}
			svc := blog.NewService(repo, media, nil)

			post, err := svc.Create(context.Background(), blog.Upload{
				Title:       "Retreat",
				Description: "Ten years of melt",
				Filename:    "abc123.bin",
				ContentType: tt.contentType,
				Media:       strings.NewReader("bytes"),
			})
			require.NoError(t, err)
			require.Equal(t, tt.want, post.MediaType)
			require.NotEmpty(t, post.ID)
			require.False(t, post.CreatedAt.IsZero())
			require.Equal(t, "blogs/abc123", post.MediaID)
			require.Contains(t, repo.posts, post.ID)
		})
	}
}

func TestCreateRemovesMediaWhenSaveFails(t *testing.T) {
	repo, media := newMemoryRepo(), &fakeMedia{}
	repo.insertErr = errors.New("write concern")
	svc := blog.NewService(repo, media, nil)

	_, err := svc.Create(context.Background(), blog.Upload{Title: "t", Description: "d", Filename: "a.jpg", ContentType: "image/jpeg", Media: strings.NewReader("x")})
	require.ErrorContains(t, err, "write concern")
	require.Equal(t, []deletion{{id: "blogs/a", kind: models.MediaImage}}, media.deletions)
}

func TestCreateUploadFailure(t *testing.T) {
	repo, media := newMemoryRepo(), &fakeMedia{uploadErr: storage.ErrUnsupportedFormat}
	svc := blog.NewService(repo, media, nil)

	_, err := svc.Create(context.Background(), blog.Upload{Title: "t", Description: "d", Media: strings.NewReader("x")})
	require.ErrorIs(t, err, storage.ErrUnsupportedFormat)
	require.Empty(t, repo.posts)
}

func TestDeleteUnknownID(t *testing.T) {
	repo, media := newMemoryRepo(), &fakeMedia{}
	svc := blog.NewService(repo, media, nil)

	require.ErrorIs(t, svc.Delete(context.Background(), "missing"), blog.ErrNotFound)
	require.Empty(t, media.deletions)
}

func TestDeleteDerivesIDFromURL(t *testing.T) {
	repo, media := newMemoryRepo(), &fakeMedia{}
	repo.posts["p1"] = models.BlogPost{ID: "p1", MediaURL: "https://cdn.example/v1/blogs/abc123.jpg", MediaType: models.MediaVideo}
	svc := blog.NewService(repo, media, nil)

	require.NoError(t, svc.Delete(context.Background(), "p1"))
	require.Equal(t, []deletion{{id: "blogs/abc123", kind: models.MediaVideo}}, media.deletions)
	require.NotContains(t, repo.posts, "p1")
}

func TestDeletePrefersStoredMediaID(t *testing.T) {
	repo, media := newMemoryRepo(), &fakeMedia{}
	repo.posts["p1"] = models.BlogPost{ID: "p1", MediaURL: "https://cdn.example/v1/blogs/abc123.jpg", MediaID: "blogs/custom", MediaType: models.MediaImage}
	svc := blog.NewService(repo, media, nil)

	require.NoError(t, svc.Delete(context.Background(), "p1"))
	require.Equal(t, "blogs/custom", media.deletions[0].id)
}

func TestDeleteStillRemovesRecordWhenMediaDeleteFails(t *testing.T) {
	repo, media := newMemoryRepo(), &fakeMedia{deleteErr: errors.New("cdn timeout")}
	repo.posts["p1"] = models.BlogPost{ID: "p1", MediaURL: "https://cdn.example/blogs/abc123.jpg", MediaType: models.MediaImage}
	svc := blog.NewService(repo, media, nil)

	require.NoError(t, svc.Delete(context.Background(), "p1"))
	require.Len(t, media.deletions, 1)
	require.Empty(t, repo.posts)
}
