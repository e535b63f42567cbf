package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/knowledgehub/internal/model"
)

// ArticleRepo encapsulates queries over articles, tags and article_tags.
type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) *ArticleRepo { return &ArticleRepo{db: db} }

// Create inserts an article and fills in its generated ID.
func (r *ArticleRepo) Create(ctx context.Context, a *model.Article) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO articles (title, content, summary, category, author_id) VALUES (?, ?, ?, ?, ?)",
		a.Title, a.Content, a.Summary, a.Category, a.AuthorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// Update rewrites the editable columns. author_id is never touched and
// updated_at is maintained by the database.
func (r *ArticleRepo) Update(ctx context.Context, a *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE articles SET title = ?, content = ?, summary = ?, category = ? WHERE id = ?",
		a.Title, a.Content, a.Summary, a.Category, a.ID)
	return err
}

// Delete removes an article; article_tags rows cascade.
func (r *ArticleRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	return err
}

// GetByID returns the article with its author's name and email, without tags.
func (r *ArticleRepo) GetByID(ctx context.Context, id uint64) (*model.Article, error) {
	const q = `SELECT a.id, a.title, a.content, a.summary, a.category, a.author_id,
			a.created_at, a.updated_at, u.username, u.email
		FROM articles a
		JOIN users u ON a.author_id = u.id
		WHERE a.id = ?`
	var (
		a       model.Article
		summary sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Title, &a.Content, &summary, &a.Category,
		&a.AuthorID, &a.CreatedAt, &a.UpdatedAt, &a.AuthorName, &a.AuthorEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Summary = summary.String
	return &a, nil
}

// TagsFor returns the tag names attached to an article.
func (r *ArticleRepo) TagsFor(ctx context.Context, articleID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT t.name FROM tags t JOIN article_tags at ON t.id = at.tag_id WHERE at.article_id = ? ORDER BY t.name",
		articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// List returns one page of articles matching the filter plus the total number
// of matching articles. Search matches title, content or any tag name.
func (r *ArticleRepo) List(ctx context.Context, f model.ArticleFilter) ([]model.Article, int, error) {
	where := []string{}
	args := []any{}

	if f.Search != "" {
		term := "%" + f.Search + "%"
		where = append(where, "(a.title LIKE ? OR a.content LIKE ? OR t.name LIKE ?)")
		args = append(args, term, term, term)
	}
	if f.Category != "" {
		where = append(where, "a.category = ?")
		args = append(args, f.Category)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	from := `FROM articles a
		JOIN users u ON a.author_id = u.id
		LEFT JOIN article_tags at ON a.id = at.article_id
		LEFT JOIN tags t ON at.tag_id = t.id
		WHERE ` + cond

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT a.id) "+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	dataSQL := `SELECT a.id, a.title, a.content, a.summary, a.category, a.author_id,
			a.created_at, a.updated_at, u.username, GROUP_CONCAT(DISTINCT t.name ORDER BY t.name) AS tags
		` + from + `
		GROUP BY a.id
		ORDER BY a.created_at DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	out := make([]model.Article, 0, f.Limit)
	for rows.Next() {
		var (
			a       model.Article
			summary sql.NullString
			tags    sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &summary, &a.Category, &a.AuthorID,
			&a.CreatedAt, &a.UpdatedAt, &a.AuthorName, &tags); err != nil {
			return nil, 0, err
		}
		a.Summary = summary.String
		a.Tags = splitTags(tags.String)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByAuthor returns all articles written by authorID, newest first.
func (r *ArticleRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, summary, category, author_id, created_at, updated_at
		FROM articles WHERE author_id = ? ORDER BY created_at DESC`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Article{}
	for rows.Next() {
		var (
			a       model.Article
			summary sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &summary, &a.Category, &a.AuthorID,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Summary = summary.String
		a.Tags = []string{}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReplaceTags detaches every tag from the article and attaches names,
// creating missing tags. It runs in one transaction.
func (r *ArticleRepo) ReplaceTags(ctx context.Context, articleID uint64, names []string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM article_tags WHERE article_id = ?", articleID); err != nil {
		return err
	}
	for _, name := range names {
		if _, err = tx.ExecContext(ctx, "INSERT IGNORE INTO tags (name) VALUES (?)", name); err != nil {
			return err
		}
		var tagID uint64
		if err = tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", name).Scan(&tagID); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			"INSERT IGNORE INTO article_tags (article_id, tag_id) VALUES (?, ?)", articleID, tagID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
