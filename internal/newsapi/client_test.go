package newsapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adarsh108-tech/glacier-server/internal/newsapi"
)

const gnewsPayload = `{
  "totalArticles": 2,
  "articles": [
    {
      "title": "Arctic ice sheet shrinks",
      "description": "Melt &amp; retreat",
      "url": "https://news.example/ice",
      "image": "https://img.example/ice.jpg",
      "publishedAt": "2024-05-01T10:00:00Z",
      "source": {"name": "Polar Times", "url": "https://news.example"}
    },
    {
      "title": "Local election results",
      "description": "",
      "url": "https://news.example/vote",
      "publishedAt": "not a date",
      "source": "Daily"
    }
  ]
}`

func TestBuildQuery(t *testing.T) {
	got := newsapi.BuildQuery([]string{"glacier", " ice sheet ", ""})
	require.Equal(t, `"glacier" OR "ice sheet"`, got)
}

func TestSearchURLPerProvider(t *testing.T) {
	gn, err := newsapi.New(newsapi.Config{APIKey: "k1", Phrases: []string{"glacier"}}, nil)
	require.NoError(t, err)
	raw, err := gn.SearchURL()
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "gnews.io", u.Host)
	require.Equal(t, `"glacier"`, u.Query().Get("q"))
	require.Equal(t, "en", u.Query().Get("lang"))
	require.Equal(t, "10", u.Query().Get("max"))
	require.Equal(t, "k1", u.Query().Get("apikey"))

	na, err := newsapi.New(newsapi.Config{Provider: "newsapi", APIKey: "k2", MaxResults: 30}, nil)
	require.NoError(t, err)
	raw, err = na.SearchURL()
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "newsapi.org", u.Host)
	require.Equal(t, "30", u.Query().Get("pageSize"))
	require.Equal(t, "k2", u.Query().Get("apiKey"))
	require.Contains(t, u.Query().Get("q"), `"climate change"`)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := newsapi.New(newsapi.Config{Provider: "bing", APIKey: "k"}, nil)
	require.Error(t, err)

	_, err = newsapi.New(newsapi.Config{}, nil)
	require.Error(t, err)
}

func TestFetchDecodesArticles(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(gnewsPayload))
	}))
	defer srv.Close()

	c, err := newsapi.New(newsapi.Config{BaseURL: srv.URL, APIKey: "secret"}, srv.Client())
	require.NoError(t, err)

	res, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "secret", gotKey)
	require.Len(t, res.Articles, 2)
	require.True(t, json.Valid(res.Raw))

	first := res.Articles[0].Normalize()
	require.Equal(t, "Arctic ice sheet shrinks", first.Title)
	require.Equal(t, "Melt & retreat", first.Description)
	require.Equal(t, "https://img.example/ice.jpg", first.ImageURL)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), first.PublishedAt)
	require.Equal(t, "Polar Times", first.Source.Name)
	require.Equal(t, "https://news.example", first.Source.URL)

	second := res.Articles[1].Normalize()
	require.Equal(t, "Daily", second.Source.Name)
	require.True(t, second.PublishedAt.IsZero())
}

func TestNormalizeNewsAPIShape(t *testing.T) {
	var a newsapi.RawArticle
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "Glacier collapse",
		"urlToImage": "https://img.example/g.png",
		"publishedAt": "2024-06-02T08:30:00Z",
		"source": {"id": null, "name": "Reuters"}
	}`), &a))

	got := a.Normalize()
	require.Equal(t, "https://img.example/g.png", got.ImageURL)
	require.Equal(t, "Reuters", got.Source.Name)
	require.Empty(t, got.Source.ID)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":["quota exceeded"]}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := newsapi.New(newsapi.Config{BaseURL: srv.URL, APIKey: "secret"}, srv.Client())
	require.NoError(t, err)

	_, err = c.Fetch(context.Background())
	var statusErr *newsapi.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusForbidden, statusErr.Code)
	require.Contains(t, statusErr.Body, "quota exceeded")
}

func TestFetchInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c, err := newsapi.New(newsapi.Config{BaseURL: srv.URL, APIKey: "secret"}, srv.Client())
	require.NoError(t, err)

	_, err = c.Fetch(context.Background())
	require.Error(t, err)
}
