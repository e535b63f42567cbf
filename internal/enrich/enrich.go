// Package enrich generates article summaries, titles and tags. The mock
// implementation is deterministic text processing (apart from title template
// choice); the "real" mode is a placeholder for a model-backed provider and
// currently falls back to the mock.
package enrich

import (
	"context"
	"log/slog"
	"strings"
)

// Enricher is the pluggable content-enrichment step used by the article
// service.
type Enricher interface {
	ImproveContent(ctx context.Context, content string) (string, error)
	GenerateSummary(ctx context.Context, content string) (string, error)
	SuggestTitle(ctx context.Context, content string) (string, error)
	SuggestTags(ctx context.Context, content string) ([]string, error)
}

// Suggestions bundles every enrichment for one piece of content.
type Suggestions struct {
	Improved       string   `json:"improved"`
	Summary        string   `json:"summary"`
	SuggestedTitle string   `json:"suggestedTitle"`
	SuggestedTags  []string `json:"suggestedTags"`
}

const (
	ModeMock = "mock"
	ModeReal = "real"
)

// New returns the enricher for mode. Unknown modes use the mock.
func New(mode string, log *slog.Logger) Enricher {
	m := NewMock()
	if strings.EqualFold(mode, ModeReal) {
		return &placeholder{fallback: m, log: log}
	}
	return m
}

// placeholder stands in for a hosted model until one is wired up.
type placeholder struct {
	fallback Enricher
	log      *slog.Logger
}

func (p *placeholder) note(ctx context.Context, op string) {
	p.log.InfoContext(ctx, "real enrichment not configured, using mock", "op", op)
}

func (p *placeholder) ImproveContent(ctx context.Context, content string) (string, error) {
	p.note(ctx, "improve_content")
	return p.fallback.ImproveContent(ctx, content)
}

func (p *placeholder) GenerateSummary(ctx context.Context, content string) (string, error) {
	p.note(ctx, "generate_summary")
	return p.fallback.GenerateSummary(ctx, content)
}

func (p *placeholder) SuggestTitle(ctx context.Context, content string) (string, error) {
	p.note(ctx, "suggest_title")
	return p.fallback.SuggestTitle(ctx, content)
}

func (p *placeholder) SuggestTags(ctx context.Context, content string) ([]string, error) {
	p.note(ctx, "suggest_tags")
	return p.fallback.SuggestTags(ctx, content)
}
