package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Adarsh108-tech/glacier-server/internal/blog"
	"github.com/Adarsh108-tech/glacier-server/internal/config"
	"github.com/Adarsh108-tech/glacier-server/internal/models"
	"github.com/Adarsh108-tech/glacier-server/internal/refresh"
	"github.com/Adarsh108-tech/glacier-server/internal/storage"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

var mediaFields = []string{"media", "file"}

type newsReader interface {
	ListNews(ctx context.Context) ([]models.NewsArticle, error)
}

type refresher interface {
	Run(ctx context.Context) (refresh.Result, error)
}

type blogService interface {
	Create(ctx context.Context, in blog.Upload) (models.BlogPost, error)
	List(ctx context.Context) ([]models.BlogPost, error)
	Delete(ctx context.Context, id string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type server struct {
	log     *slog.Logger
	cfg     *config.API
	news    newsReader
	refresh refresher
	blogs   blogService
	health  map[string]pinger
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(allowOrigins(s.cfg.AllowedOrigins))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/news", s.handleListNews)
		r.Get("/news/refresh", s.handleRefresh)

		r.Get("/blogs", s.handleListBlogs)
		r.Post("/blogs", s.handleCreateBlog)
		r.Delete("/blogs/{id}", s.handleDeleteBlog)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, p := range s.health {
		if err := p.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: name + ": " + err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleListNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	articles, err := s.news.ListNews(ctx)
	if err != nil {
		s.log.Error("list news", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch news"})
		return
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	writeJSON(w, http.StatusOK, articles)
}

// handleRefresh runs one refresh cycle synchronously and relays the raw
// upstream payload.
func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.News.Timeout)
	defer cancel()

	res, err := s.refresh.Run(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	if len(res.Raw) == 0 {
		writeJSON(w, http.StatusOK, res)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Raw)
}

func (s *server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	posts, err := s.blogs.List(ctx)
	if err != nil {
		s.log.Error("list blogs", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch blogs"})
		return
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, posts)
}

func (s *server) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	in := blog.Upload{}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "upload exceeds size limit"})
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
			return
		}
	} else {
		defer r.MultipartForm.RemoveAll()
	}

	in.Title = r.FormValue("title")
	in.Description = r.FormValue("description")

	if r.MultipartForm != nil {
		for _, field := range mediaFields {
			file, header, err := r.FormFile(field)
			if err != nil {
				continue
			}
			defer file.Close()
			in.Filename = header.Filename
			in.ContentType = header.Header.Get("Content-Type")
			in.Media = file
			break
		}
	}

	post, err := s.blogs.Create(r.Context(), in)
	if err != nil {
		s.writeBlogError(w, "create blog", err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (s *server) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.blogs.Delete(r.Context(), id); err != nil {
		s.writeBlogError(w, "delete blog", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "blog deleted"})
}

func (s *server) writeBlogError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, blog.ErrMissingMedia),
		errors.Is(err, blog.ErrInvalidInput),
		errors.Is(err, storage.ErrUnsupportedFormat):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, blog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "blog not found"})
	default:
		s.log.Error(op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to " + op})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
