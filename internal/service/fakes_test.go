package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/knowledgehub/internal/model"
	"github.com/iliyamo/knowledgehub/internal/queue"
	"github.com/iliyamo/knowledgehub/internal/repository"
)

var errBoom = errors.New("boom")

type fakeUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User
	err    error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uint64]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, username, email, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email || u.Username == username {
			return 0, repository.ErrDuplicate
		}
	}
	f.nextID++
	f.byID[f.nextID] = model.User{ID: f.nextID, Username: username, Email: email, PasswordHash: hash}
	return f.nextID, nil
}

func (f *fakeUsers) find(match func(model.User) bool) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.User{}, f.err
	}
	for _, u := range f.byID {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	return f.find(func(u model.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	return f.find(func(u model.User) bool { return u.Username == username })
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	err     error
}

func newFakeRevocationStore() *fakeRevocationStore {
	return &fakeRevocationStore{entries: map[string]time.Time{}}
}

func (f *fakeRevocationStore) Revoke(_ context.Context, hash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[hash] = exp
	return nil
}

func (f *fakeRevocationStore) Exists(_ context.Context, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.entries[hash]
	return ok, nil
}

func (f *fakeRevocationStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for h, exp := range f.entries {
		if exp.Before(now) {
			delete(f.entries, h)
			n++
		}
	}
	return n, nil
}

type fakeRevocationCache struct {
	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func newFakeRevocationCache() *fakeRevocationCache {
	return &fakeRevocationCache{keys: map[string]time.Duration{}}
}

func (f *fakeRevocationCache) Mark(_ context.Context, hash string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys[hash] = ttl
	return nil
}

func (f *fakeRevocationCache) Has(_ context.Context, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.keys[hash]
	return ok, nil
}

type fakeArticles struct {
	mu       sync.Mutex
	nextID   uint64
	rows     map[uint64]model.Article
	tags     map[uint64][]string
	lastList model.ArticleFilter
	total    int
	err      error
}

func newFakeArticles() *fakeArticles {
	return &fakeArticles{rows: map[uint64]model.Article{}, tags: map[uint64][]string{}}
}

func (f *fakeArticles) Create(_ context.Context, a *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	a.ID = f.nextID
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeArticles) Update(_ context.Context, a *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeArticles) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	delete(f.tags, id)
	return nil
}

func (f *fakeArticles) GetByID(_ context.Context, id uint64) (*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (f *fakeArticles) TagsFor(_ context.Context, id uint64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string{}, f.tags[id]...)
	return out, nil
}

func (f *fakeArticles) List(_ context.Context, filter model.ArticleFilter) ([]model.Article, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	out := []model.Article{}
	for _, a := range f.rows {
		out = append(out, a)
	}
	total := f.total
	if total == 0 {
		total = len(out)
	}
	return out, total, nil
}

func (f *fakeArticles) ListByAuthor(_ context.Context, authorID uint64) ([]model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Article{}
	for _, a := range f.rows {
		if a.AuthorID == authorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeArticles) ReplaceTags(_ context.Context, id uint64, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags[id] = append([]string{}, names...)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.ArticleEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.ArticleEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeCache struct {
	calls int
	err   error
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.calls++
	return f.err
}
