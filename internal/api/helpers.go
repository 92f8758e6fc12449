package api

import (
	"strings"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/normalize"
	"github.com/shadownovel/catalog/internal/store"
)

// ContentBlockBody is one styled block of text in a request.
type ContentBlockBody struct {
	Tag  string `json:"tag,omitempty" doc:"Block style (p or strong, default p)"`
	Text string `json:"text,omitempty" doc:"Block text"`
}

func toBlocks(in []ContentBlockBody) []domain.ContentBlock {
	if in == nil {
		return nil
	}
	out := make([]domain.ContentBlock, len(in))
	for i, b := range in {
		out[i] = domain.ContentBlock{Tag: domain.BlockTag(b.Tag), Text: b.Text}
	}
	return out
}

// toTags accepts tags in any casing or separator style, e.g. "martial arts".
func toTags(in []string) []domain.Tag {
	norm := normalize.Enums(in)
	if norm == nil {
		return nil
	}
	out := make([]domain.Tag, len(norm))
	for i, t := range norm {
		out[i] = domain.Tag(t)
	}
	return out
}

func toStatus(s string) domain.NovelStatus { return domain.NovelStatus(normalize.Enum(s)) }

func toGenre(s string) domain.Genre { return domain.Genre(normalize.Enum(s)) }

// fieldList drops blanks from a comma-separated projection list.
func fieldList(in []string) []string {
	var out []string
	for _, f := range in {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func pageRequest(offset, limit int, sortField, sortOrder string) store.PageRequest {
	return store.PageRequest{
		Offset:    offset,
		Limit:     limit,
		SortField: sortField,
		SortOrder: store.SortOrder(sortOrder),
	}
}
