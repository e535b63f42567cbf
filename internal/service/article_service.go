package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/knowledgehub/internal/apperr"
	"github.com/iliyamo/knowledgehub/internal/enrich"
	"github.com/iliyamo/knowledgehub/internal/model"
	"github.com/iliyamo/knowledgehub/internal/queue"
	"github.com/iliyamo/knowledgehub/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	publishTimeout  = 3 * time.Second
)

// ArticleStore is implemented by repository.ArticleRepo.
type ArticleStore interface {
	Create(ctx context.Context, a *model.Article) error
	Update(ctx context.Context, a *model.Article) error
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (*model.Article, error)
	TagsFor(ctx context.Context, articleID uint64) ([]string, error)
	List(ctx context.Context, f model.ArticleFilter) ([]model.Article, int, error)
	ListByAuthor(ctx context.Context, authorID uint64) ([]model.Article, error)
	ReplaceTags(ctx context.Context, articleID uint64, names []string) error
}

// CacheInvalidator drops cached read responses after a write. It is
// implemented by middleware.ResponseCache.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// EventPublisher is implemented by queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ArticleEvent) error
}

// ArticleInput carries the editable fields. A nil Tags means the client sent
// none and tags are suggested from the content; an empty non-nil slice
// clears them.
type ArticleInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

type ArticleService struct {
	store  ArticleStore
	enrich enrich.Enricher
	events EventPublisher   // nil when events are disabled
	cache  CacheInvalidator // nil when nothing caches reads
	log    *slog.Logger
	now    func() time.Time
}

func NewArticleService(store ArticleStore, e enrich.Enricher, events EventPublisher, cache CacheInvalidator, log *slog.Logger) *ArticleService {
	return &ArticleService{store: store, enrich: e, events: events, cache: cache, log: log, now: time.Now}
}

// Create stores a new article owned by authorID with a generated summary.
func (s *ArticleService) Create(ctx context.Context, authorID uint64, in ArticleInput) (uint64, error) {
	summary, tags, err := s.derive(ctx, in)
	if err != nil {
		return 0, err
	}
	a := &model.Article{
		Title:    strings.TrimSpace(in.Title),
		Content:  strings.TrimSpace(in.Content),
		Summary:  summary,
		Category: in.Category,
		AuthorID: authorID,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return 0, apperr.Internal("create article", err)
	}
	if len(tags) > 0 {
		if err := s.store.ReplaceTags(ctx, a.ID, tags); err != nil {
			return 0, apperr.Internal("attach tags", err)
		}
	}
	a.Tags = tags
	s.invalidate(ctx)
	s.publish(ctx, queue.ArticleCreated, a)
	return a.ID, nil
}

// Update rewrites an article owned by actorID. The summary is regenerated and
// the tag set replaced.
func (s *ArticleService) Update(ctx context.Context, id, actorID uint64, in ArticleInput) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := AssertOwner(a, actorID, "edit"); err != nil {
		return err
	}

	summary, tags, err := s.derive(ctx, in)
	if err != nil {
		return err
	}
	a.Title = strings.TrimSpace(in.Title)
	a.Content = strings.TrimSpace(in.Content)
	a.Category = in.Category
	a.Summary = summary
	if err := s.store.Update(ctx, a); err != nil {
		return apperr.Internal("update article", err)
	}
	if err := s.store.ReplaceTags(ctx, a.ID, tags); err != nil {
		return apperr.Internal("replace tags", err)
	}
	a.Tags = tags
	s.invalidate(ctx)
	s.publish(ctx, queue.ArticleUpdated, a)
	return nil
}

// Delete removes an article owned by actorID.
func (s *ArticleService) Delete(ctx context.Context, id, actorID uint64) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := AssertOwner(a, actorID, "delete"); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Internal("delete article", err)
	}
	s.invalidate(ctx)
	s.publish(ctx, queue.ArticleDeleted, a)
	return nil
}

// Get returns the article with its tags.
func (s *ArticleService) Get(ctx context.Context, id uint64) (*model.Article, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := s.store.TagsFor(ctx, id)
	if err != nil {
		return nil, apperr.Internal("load tags", err)
	}
	a.Tags = tags
	return a, nil
}

// List returns one page of the public listing. Page defaults to 1 and limit
// to 10; limit is capped at 100.
func (s *ArticleService) List(ctx context.Context, f model.ArticleFilter) (model.ArticlePage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)

	articles, total, err := s.store.List(ctx, f)
	if err != nil {
		return model.ArticlePage{}, apperr.Internal("list articles", err)
	}
	return model.ArticlePage{
		Articles: articles,
		Pagination: model.Pagination{
			CurrentPage:  f.Page,
			TotalPages:   (total + f.Limit - 1) / f.Limit,
			TotalRecords: total,
			Limit:        f.Limit,
		},
	}, nil
}

// ListMine returns every article written by authorID.
func (s *ArticleService) ListMine(ctx context.Context, authorID uint64) ([]model.Article, error) {
	out, err := s.store.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, apperr.Internal("list own articles", err)
	}
	return out, nil
}

// Suggest runs all four enrichments concurrently.
func (s *ArticleService) Suggest(ctx context.Context, content string) (enrich.Suggestions, error) {
	var out enrich.Suggestions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Improved, err = s.enrich.ImproveContent(gctx, content)
		return err
	})
	g.Go(func() (err error) {
		out.Summary, err = s.enrich.GenerateSummary(gctx, content)
		return err
	})
	g.Go(func() (err error) {
		out.SuggestedTitle, err = s.enrich.SuggestTitle(gctx, content)
		return err
	})
	g.Go(func() (err error) {
		out.SuggestedTags, err = s.enrich.SuggestTags(gctx, content)
		return err
	})
	if err := g.Wait(); err != nil {
		return enrich.Suggestions{}, apperr.Internal("generate suggestions", err)
	}
	return out, nil
}

func (s *ArticleService) load(ctx context.Context, id uint64) (*model.Article, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Article not found")
		}
		return nil, apperr.Internal("load article", err)
	}
	return a, nil
}

// derive produces the summary and the final tag list for in.
func (s *ArticleService) derive(ctx context.Context, in ArticleInput) (string, []string, error) {
	summary, err := s.enrich.GenerateSummary(ctx, in.Content)
	if err != nil {
		return "", nil, apperr.Internal("generate summary", err)
	}
	if in.Tags != nil {
		return summary, normalizeTags(in.Tags), nil
	}
	tags, err := s.enrich.SuggestTags(ctx, in.Content)
	if err != nil {
		return "", nil, apperr.Internal("suggest tags", err)
	}
	return summary, normalizeTags(tags), nil
}

// invalidate runs after every committed write so public reads never serve a
// body older than the write. A Redis failure is logged; cached entries then
// live until their TTL.
func (s *ArticleService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.log.WarnContext(ctx, "invalidate response cache failed", "err", err)
	}
}

// publish is best effort; a broker outage never fails the write.
func (s *ArticleService) publish(ctx context.Context, typ string, a *model.Article) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := queue.ArticleEvent{
		Type:       typ,
		ArticleID:  a.ID,
		AuthorID:   a.AuthorID,
		Title:      a.Title,
		Category:   a.Category,
		Tags:       a.Tags,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "publish article event failed", "type", typ, "article_id", a.ID, "err", err)
	}
}

// normalizeTags trims, drops empties and removes duplicates, keeping order.
func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
