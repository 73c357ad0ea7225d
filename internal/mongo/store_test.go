package mongo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Adarsh108-tech/glacier-server/internal/models"
)

func TestStagingNameIsUnique(t *testing.T) {
	now := time.Unix(1700000000, 0)
	a := stagingName(now)
	b := stagingName(now)
	require.True(t, strings.HasPrefix(a, "news_staging_1700000000_"))
	require.NotEqual(t, a, b)
}

func TestBlogPostBSONShape(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(models.BlogPost{
		Title:     "Retreat",
		MediaURL:  "https://cdn.example/blogs/abc.jpg",
		MediaType: models.MediaImage,
		CreatedAt: created,
	})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	_, hasID := doc["_id"]
	require.False(t, hasID, "empty id must be left to the database")
	require.Equal(t, "image", doc["mediaType"])
	require.Equal(t, "https://cdn.example/blogs/abc.jpg", doc["mediaUrl"])
}

func TestRenameCommandReplacesNewsCollection(t *testing.T) {
	cmd := renameCommand("glacier", "news_staging_1700000000_abcd1234", newsCollection)

	require.Equal(t, bson.D{
		{Key: "renameCollection", Value: "glacier.news_staging_1700000000_abcd1234"},
		{Key: "to", Value: "glacier.news"},
		{Key: "dropTarget", Value: true},
	}, cmd)
	require.Equal(t, "renameCollection", cmd[0].Key, "command name must come first")
}

func TestStagedDocsHoldExactlyTheNewSet(t *testing.T) {
	ts := time.Date(2024, 4, 5, 6, 7, 8, 0, time.UTC)
	dup := models.NewsArticle{ID: "65f000000000000000000001", Title: "Glacier melt", URL: "https://a.example", PublishedAt: ts}
	other := models.NewsArticle{Title: "Ice sheet", URL: "https://b.example", PublishedAt: ts}

	docs := stagedDocs([]models.NewsArticle{dup, dup, other})
	require.Len(t, docs, 3)

	for _, d := range docs {
		raw, err := bson.Marshal(d)
		require.NoError(t, err)
		var doc bson.M
		require.NoError(t, bson.Unmarshal(raw, &doc))
		_, hasID := doc["_id"]
		require.False(t, hasID, "staged documents need fresh ids")
	}
	require.Equal(t, "65f000000000000000000001", dup.ID)

	require.Empty(t, stagedDocs(nil))
}

func TestMalformedBlogIDIsNotFound(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	for _, id := range []string{"", "not-an-object-id", "65f00000000000000000000"} {
		_, err := s.FindBlog(ctx, id)
		require.ErrorIs(t, err, models.ErrNotFound, id)
		require.ErrorIs(t, s.DeleteBlog(ctx, id), models.ErrNotFound, id)
	}
}
