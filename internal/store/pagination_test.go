package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		input      PageRequest
		wantOffset int
		wantLimit  int
	}{
		{"zero limit uses default", PageRequest{}, 0, 20},
		{"negative values", PageRequest{Offset: -5, Limit: -1}, 0, 20},
		{"limit capped", PageRequest{Limit: 500}, 0, 100},
		{"limit kept", PageRequest{Offset: 40, Limit: 10}, 40, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.input
			p.Normalize(0, 0, SortCreatedAt)
			assert.Equal(t, tt.wantOffset, p.Offset)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, SortCreatedAt, p.SortField)
			assert.Equal(t, SortAsc, p.SortOrder)
		})
	}
}

func TestPageRequest_NormalizeCustomLimits(t *testing.T) {
	p := PageRequest{Limit: 60}
	p.Normalize(5, 50, SortIndex)
	assert.Equal(t, 50, p.Limit)

	p = PageRequest{}
	p.Normalize(5, 50, SortIndex)
	assert.Equal(t, 5, p.Limit)
}

func TestPageRequest_ValidSort(t *testing.T) {
	assert.True(t, (&PageRequest{SortField: SortViews, SortOrder: SortDesc}).ValidSort(NovelSortFields))
	assert.False(t, (&PageRequest{SortField: SortIndex, SortOrder: SortAsc}).ValidSort(NovelSortFields))
	assert.False(t, (&PageRequest{SortField: SortViews, SortOrder: "sideways"}).ValidSort(NovelSortFields))
	assert.True(t, (&PageRequest{SortField: SortIndex, SortOrder: SortAsc}).ValidSort(ChapterSortFields))
}

func TestPageRequest_Window(t *testing.T) {
	p := PageRequest{Offset: 3, Limit: 5}

	start, end := p.Window(10)
	assert.Equal(t, 3, start)
	assert.Equal(t, 8, end)

	start, end = p.Window(4)
	assert.Equal(t, 3, start)
	assert.Equal(t, 4, end)

	start, end = p.Window(2)
	assert.Equal(t, 2, start)
	assert.Equal(t, 2, end)
}
