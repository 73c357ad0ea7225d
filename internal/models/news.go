package models

import "time"

// Source describes where an article was published. Providers disagree on the
// shape, so every field is optional.
type Source struct {
	ID   string `json:"id,omitempty" bson:"id,omitempty"`
	Name string `json:"name" bson:"name"`
	URL  string `json:"url,omitempty" bson:"url,omitempty"`
}

// NewsArticle is the stored form of an upstream article in the news collection.
type NewsArticle struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	URL         string    `json:"url" bson:"url"`
	ImageURL    string    `json:"imageUrl" bson:"imageUrl"`
	PublishedAt time.Time `json:"publishedAt" bson:"publishedAt"`
	Source      Source    `json:"source" bson:"source"`
}
