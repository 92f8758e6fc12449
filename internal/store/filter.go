package store

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/shadownovel/catalog/internal/domain"
)

// NovelQuery selects novels. Zero-valued fields do not constrain the result.
type NovelQuery struct {
	Title    string             `json:"title,omitempty"`
	AuthorID string             `json:"authorId,omitempty"`
	Status   domain.NovelStatus `json:"status,omitempty"`
	Genre    domain.Genre       `json:"genre,omitempty"`
	Tags     []domain.Tag       `json:"tags,omitempty"`
}

// ChapterQuery selects the chapters of one novel, optionally narrowed to a volume.
type ChapterQuery struct {
	NID string `json:"nid"`
	VID string `json:"vid,omitempty"`
}

// Matches reports whether c is selected by q.
func (q ChapterQuery) Matches(c *domain.Chapter) bool {
	if c.NID != q.NID {
		return false
	}
	return q.VID == "" || c.VID == q.VID
}

// Predicate is one condition of a novel filter. It renders both to a SQL fragment over
// the novels table and to an in-memory matcher, and both renderings must agree.
type Predicate struct {
	Name  string
	SQL   string
	Args  []any
	Match func(*domain.Novel) bool
}

// NovelFilter is the conjunction of its predicates. The zero value matches everything.
type NovelFilter struct {
	Predicates []Predicate
}

// Matches reports whether n satisfies every predicate.
func (f NovelFilter) Matches(n *domain.Novel) bool {
	for _, p := range f.Predicates {
		if !p.Match(n) {
			return false
		}
	}
	return true
}

// Where renders the filter as a SQL WHERE clause, or "" when it has no predicates.
func (f NovelFilter) Where() (string, []any) {
	if len(f.Predicates) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(f.Predicates))
	var args []any
	for _, p := range f.Predicates {
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// NovelFilterBuilder folds optional conditions into a NovelFilter.
// Each method ignores its zero value, so callers can chain every field of a query.
type NovelFilterBuilder struct {
	preds []Predicate
}

// NewNovelFilter starts an empty filter.
func NewNovelFilter() *NovelFilterBuilder {
	return &NovelFilterBuilder{}
}

// FoldTitle returns the case-folded form of a title used for substring search.
func FoldTitle(s string) string {
	return cases.Fold().String(s)
}

// Title matches novels whose title contains s, ignoring case.
func (b *NovelFilterBuilder) Title(s string) *NovelFilterBuilder {
	if s == "" {
		return b
	}
	folded := FoldTitle(s)
	b.preds = append(b.preds, Predicate{
		Name: "title",
		SQL:  `title_fold LIKE ? ESCAPE '\'`,
		Args: []any{"%" + escapeLike(folded) + "%"},
		Match: func(n *domain.Novel) bool {
			return strings.Contains(FoldTitle(n.Title), folded)
		},
	})
	return b
}

// Author matches novels owned by the given uid.
func (b *NovelFilterBuilder) Author(uid string) *NovelFilterBuilder {
	if uid == "" {
		return b
	}
	b.preds = append(b.preds, Predicate{
		Name:  "authorId",
		SQL:   "author_id = ?",
		Args:  []any{uid},
		Match: func(n *domain.Novel) bool { return n.AuthorID == uid },
	})
	return b
}

// Status matches novels in the given state.
func (b *NovelFilterBuilder) Status(s domain.NovelStatus) *NovelFilterBuilder {
	if s == "" {
		return b
	}
	b.preds = append(b.preds, Predicate{
		Name:  "status",
		SQL:   "status = ?",
		Args:  []any{string(s)},
		Match: func(n *domain.Novel) bool { return n.Status == s },
	})
	return b
}

// Genre matches novels of the given genre.
func (b *NovelFilterBuilder) Genre(g domain.Genre) *NovelFilterBuilder {
	if g == "" {
		return b
	}
	b.preds = append(b.preds, Predicate{
		Name:  "genre",
		SQL:   "genre = ?",
		Args:  []any{string(g)},
		Match: func(n *domain.Novel) bool { return n.Genre == g },
	})
	return b
}

// Tags matches novels carrying every one of tags.
func (b *NovelFilterBuilder) Tags(tags []domain.Tag) *NovelFilterBuilder {
	want := dedupeTags(tags)
	if len(want) == 0 {
		return b
	}
	args := make([]any, 0, len(want)+1)
	for _, t := range want {
		args = append(args, string(t))
	}
	args = append(args, len(want))
	b.preds = append(b.preds, Predicate{
		Name: "tags",
		SQL: "nid IN (SELECT nid FROM novel_tags WHERE tag IN (" +
			placeholders(len(want)) + ") GROUP BY nid HAVING COUNT(DISTINCT tag) = ?)",
		Args:  args,
		Match: func(n *domain.Novel) bool { return domain.HasAllTags(n.Tags, want) },
	})
	return b
}

// Query applies every field of q.
func (b *NovelFilterBuilder) Query(q NovelQuery) *NovelFilterBuilder {
	return b.Title(q.Title).Author(q.AuthorID).Status(q.Status).Genre(q.Genre).Tags(q.Tags)
}

// Build returns the accumulated filter.
func (b *NovelFilterBuilder) Build() NovelFilter {
	return NovelFilter{Predicates: append([]Predicate(nil), b.preds...)}
}

func dedupeTags(tags []domain.Tag) []domain.Tag {
	seen := make(map[domain.Tag]struct{}, len(tags))
	out := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
