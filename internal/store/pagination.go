package store

import "slices"

// Pagination defaults.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SortOrder is the direction of a sorted listing.
type SortOrder string

const (
	// SortAsc sorts ascending.
	SortAsc SortOrder = "asc"
	// SortDesc sorts descending.
	SortDesc SortOrder = "desc"
)

// Sortable fields.
const (
	SortCreatedAt    = "createdAt"
	SortTitle        = "title"
	SortViews        = "views"
	SortChapterCount = "chapterCount"
	SortIndex        = "index"
)

// NovelSortFields lists the fields novels can be sorted by.
var NovelSortFields = []string{SortCreatedAt, SortTitle, SortViews, SortChapterCount}

// ChapterSortFields lists the fields chapters can be sorted by.
var ChapterSortFields = []string{SortIndex}

// PageRequest is an offset/limit window over a sorted listing.
type PageRequest struct {
	Offset    int       `json:"offset"`
	Limit     int       `json:"limit"`
	SortField string    `json:"sortField,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

// Page holds one window of a listing plus the size of the whole listing.
// TotalCount comes from a separate count query and may disagree with Items under
// concurrent writes.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Offset     int   `json:"offset"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
}

// Normalize fills defaults and clamps the window.
// A non-positive defaultLimit or maxLimit falls back to the package defaults.
func (p *PageRequest) Normalize(defaultLimit, maxLimit int, defaultSort string) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.SortField == "" {
		p.SortField = defaultSort
	}
	if p.SortOrder == "" {
		p.SortOrder = SortAsc
	}
}

// ValidSort reports whether the sort field is one of allowed and the order is known.
func (p *PageRequest) ValidSort(allowed []string) bool {
	if p.SortOrder != SortAsc && p.SortOrder != SortDesc {
		return false
	}
	return slices.Contains(allowed, p.SortField)
}

// Window returns the [start, end) slice bounds of this page over n items.
func (p *PageRequest) Window(n int) (start, end int) {
	start = min(p.Offset, n)
	end = min(start+p.Limit, n)
	return start, end
}
