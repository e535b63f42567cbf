package model

import "time"

// Categories accepted for articles.
var Categories = []string{"Tech", "AI", "Backend", "Frontend", "DevOps"}

// Article is a row of `articles` joined with its author's public fields.
// AuthorID is fixed at creation; only that user may modify or delete the
// article.
type Article struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	AuthorID    uint64    `json:"author_id"`
	AuthorName  string    `json:"author_name,omitempty"`
	AuthorEmail string    `json:"author_email,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerID implements the ownership contract checked before mutation.
func (a *Article) OwnerID() uint64 { return a.AuthorID }

func (a *Article) ResourceName() string { return "article" }

// ArticleFilter narrows the public listing.
type ArticleFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// Pagination describes a page of the public listing.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalRecords int `json:"totalRecords"`
	Limit        int `json:"limit"`
}

// ArticlePage is the result of a filtered listing.
type ArticlePage struct {
	Articles   []Article  `json:"articles"`
	Pagination Pagination `json:"pagination"`
}
