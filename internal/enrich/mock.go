package enrich

import (
	"context"
	"math/rand/v2"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const maxSummaryRunes = 200

var (
	htmlTag   = regexp.MustCompile(`<[^>]*>?`)
	spaces    = regexp.MustCompile(`\s+`)
	sentence  = regexp.MustCompile(`[^.!?]+[.!?]+`)
	nonWord   = regexp.MustCompile(`\W+`)
	fillers   = map[string]bool{"really": true, "should": true, "could": true, "would": true}
	stopWords = map[string]bool{"the": true, "and": true, "this": true, "that": true, "with": true,
		"from": true, "using": true, "about": true}
)

var titleTemplates = []string{
	"Understanding %s",
	"Mastering %s: A Guide",
	"The Future of %s",
	"Exploring the world of %s",
	"Why %s matters today",
	"%s Explained",
}

// Mock is the offline enricher.
type Mock struct {
	pick func(n int) int
}

// NewMock returns a Mock that picks title templates at random.
func NewMock() *Mock { return &Mock{pick: rand.IntN} }

// stripHTML turns markup into single-spaced plain text.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(spaces.ReplaceAllString(htmlTag.ReplaceAllString(s, " "), " "))
}

// ImproveContent marks the text so clients can see enrichment ran.
func (m *Mock) ImproveContent(_ context.Context, content string) (string, error) {
	if content == "" {
		return "", nil
	}
	if strings.Contains(content, "<p>") {
		return strings.Replace(content, "<p>", "<p>✨ ", 1), nil
	}
	return "✨ " + content, nil
}

// GenerateSummary keeps the first three sentences, capped at 200 runes.
func (m *Mock) GenerateSummary(_ context.Context, content string) (string, error) {
	if content == "" {
		return "", nil
	}
	plain := stripHTML(content)
	found := sentence.FindAllString(plain, -1)
	if len(found) == 0 {
		found = []string{plain}
	}
	if len(found) > 3 {
		found = found[:3]
	}
	for i := range found {
		found[i] = strings.TrimSpace(found[i])
	}
	summary := strings.Join(found, " ")
	if utf8.RuneCountInString(summary) > maxSummaryRunes {
		summary = string([]rune(summary)[:maxSummaryRunes-3]) + "..."
	}
	return summary, nil
}

// SuggestTitle uses short content as is; otherwise it builds a title from
// the first long keywords.
func (m *Mock) SuggestTitle(_ context.Context, content string) (string, error) {
	if content == "" {
		return "Untitled Article", nil
	}
	plain := stripHTML(content)
	if n := utf8.RuneCountInString(plain); n > 10 && n < 60 {
		return plain, nil
	}

	var words []string
	for _, w := range nonWord.Split(plain, -1) {
		if len(w) > 5 && !fillers[strings.ToLower(w)] {
			words = append(words, w)
			if len(words) == 3 {
				break
			}
		}
	}
	keywords := strings.Join(words, " ")
	if keywords == "" {
		keywords = "General Topic"
	}
	return strings.ReplaceAll(titleTemplates[m.pick(len(titleTemplates))], "%s", keywords), nil
}

// SuggestTags returns up to five of the most frequent words longer than four
// letters. Ties keep first-occurrence order.
func (m *Mock) SuggestTags(_ context.Context, content string) ([]string, error) {
	if content == "" {
		return []string{}, nil
	}
	freq := map[string]int{}
	var order []string
	for _, w := range nonWord.Split(strings.ToLower(stripHTML(content)), -1) {
		if len(w) <= 4 || stopWords[w] {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > 5 {
		order = order[:5]
	}
	if order == nil {
		order = []string{}
	}
	return order, nil
}
