package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Adarsh108-tech/glacier-server/internal/logger"
	"github.com/Adarsh108-tech/glacier-server/internal/models"
)

const (
	newsCollection  = "news"
	blogsCollection = "blogs"
)

// Store wraps the MongoDB client and the database holding the news and
// blogs collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

// Connect dials MongoDB, verifies connectivity and ensures indexes.
func Connect(ctx context.Context, uri, database string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database), log: log}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(blogsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create blogs index: %w", err)
	}
	return nil
}

// ListNews returns every stored article, most recently published first.
func (s *Store) ListNews(ctx context.Context) ([]models.NewsArticle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}})
	cursor, err := s.db.Collection(newsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find news: %w", err)
	}
	defer cursor.Close(ctx)

	articles := make([]models.NewsArticle, 0)
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	return articles, nil
}

// ReplaceNews writes articles into a fresh staging collection and renames it
// over the news collection. Readers see either the old or the new snapshot.
func (s *Store) ReplaceNews(ctx context.Context, articles []models.NewsArticle) error {
	staging := stagingName(time.Now())
	coll := s.db.Collection(staging)

	docs := stagedDocs(articles)

	cleanup := func() {
		dropCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := coll.Drop(dropCtx); err != nil {
			s.log.Warn("drop staging collection", slog.String("collection", staging), slog.Any("err", err))
		}
	}

	if len(docs) > 0 {
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			cleanup()
			return fmt.Errorf("insert staged news: %w", err)
		}
	}
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "publishedAt", Value: -1}}}); err != nil {
		cleanup()
		return fmt.Errorf("index staged news: %w", err)
	}

	cmd := renameCommand(s.db.Name(), staging, newsCollection)
	if err := s.client.Database("admin").RunCommand(ctx, cmd).Err(); err != nil {
		cleanup()
		return fmt.Errorf("swap news collection: %w", err)
	}

	s.log.Debug("news collection swapped", slog.String("staging", staging), slog.Int("count", len(docs)))
	return nil
}

// stagedDocs clears article ids so every staged document gets a fresh _id.
func stagedDocs(articles []models.NewsArticle) []any {
	docs := make([]any, 0, len(articles))
	for _, a := range articles {
		a.ID = ""
		docs = append(docs, a)
	}
	return docs
}

// renameCommand moves database.from over database.to, replacing it. It must
// run against the admin database.
func renameCommand(database, from, to string) bson.D {
	return bson.D{
		{Key: "renameCollection", Value: database + "." + from},
		{Key: "to", Value: database + "." + to},
		{Key: "dropTarget", Value: true},
	}
}

func stagingName(now time.Time) string {
	return fmt.Sprintf("%s_staging_%d_%s", newsCollection, now.Unix(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// InsertBlog stores post and sets its database-assigned ID.
func (s *Store) InsertBlog(ctx context.Context, post *models.BlogPost) error {
	post.ID = ""
	res, err := s.db.Collection(blogsCollection).InsertOne(ctx, post)
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	post.ID = oid.Hex()
	return nil
}

// ListBlogs returns every post, newest first.
func (s *Store) ListBlogs(ctx context.Context) ([]models.BlogPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.db.Collection(blogsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find blogs: %w", err)
	}
	defer cursor.Close(ctx)

	posts := make([]models.BlogPost, 0)
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}
	return posts, nil
}

// FindBlog loads one post. Malformed ids are reported as not found.
func (s *Store) FindBlog(ctx context.Context, id string) (models.BlogPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.BlogPost{}, models.ErrNotFound
	}

	var post models.BlogPost
	err = s.db.Collection(blogsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.BlogPost{}, models.ErrNotFound
	}
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("find blog %s: %w", id, err)
	}
	return post, nil
}

// DeleteBlog removes one post.
func (s *Store) DeleteBlog(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	res, err := s.db.Collection(blogsCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete blog %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
