package models

import (
	"strings"
	"time"
)

// MediaKind is the resource kind of an uploaded blog attachment.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaKindFromContentType maps a declared MIME type onto a MediaKind.
// Anything that is not video/* is treated as an image.
func MediaKindFromContentType(contentType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return MediaVideo
	}
	return MediaImage
}

// BlogPost is a record in the blogs collection.
type BlogPost struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	MediaURL    string    `json:"mediaUrl" bson:"mediaUrl"`
	MediaID     string    `json:"mediaId,omitempty" bson:"mediaId,omitempty"`
	MediaType   MediaKind `json:"mediaType" bson:"mediaType"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
