// Package queue defines message payloads exchanged over the message broker.
package queue

// ArticleEventsQueue is the durable queue article lifecycle events go to.
const ArticleEventsQueue = "article.events"

// Article event types.
const (
	ArticleCreated = "article.created"
	ArticleUpdated = "article.updated"
	ArticleDeleted = "article.deleted"
)

// ArticleEvent is published after an article is created, updated or deleted.
// It carries enough for downstream consumers to log, notify or index without
// querying the primary database.
type ArticleEvent struct {
	Type       string   `json:"type"`
	ArticleID  uint64   `json:"article_id"`
	AuthorID   uint64   `json:"author_id"`
	Title      string   `json:"title,omitempty"`
	Category   string   `json:"category,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}
