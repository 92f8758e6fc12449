// Package storetest is a conformance suite for store.Store implementations.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/store"
)

// Factory opens a fresh, empty store for one subtest. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes every conformance test against stores produced by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"UserCreateAndGet", testUserCreateAndGet},
		{"UserUniqueUsername", testUserUniqueUsername},
		{"UserUpdate", testUserUpdate},
		{"UserLibraryOps", testUserLibraryOps},
		{"NovelCreateAndGet", testNovelCreateAndGet},
		{"NovelUpdateCombined", testNovelUpdateCombined},
		{"NovelVolumeOps", testNovelVolumeOps},
		{"NovelNotFound", testNovelNotFound},
		{"NovelDeleteKeepsChapters", testNovelDeleteKeepsChapters},
		{"NovelListAndCount", testNovelListAndCount},
		{"NovelListSortAndWindow", testNovelListSortAndWindow},
		{"Counters", testCounters},
		{"ChapterCreateAndGet", testChapterCreateAndGet},
		{"ChapterUniqueIndexes", testChapterUniqueIndexes},
		{"ChapterUpdateAndDelete", testChapterUpdateAndDelete},
		{"ChapterListAndCount", testChapterListAndCount},
		{"ChapterMaxIndex", testChapterMaxIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// NewTestUser returns a user record ready to insert.
func NewTestUser(uid, username string) *domain.User {
	return &domain.User{
		UID:          uid,
		Username:     username,
		FirstName:    "Leander",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Library:      []string{},
		CreatedAt:    baseTime,
	}
}

// NewTestNovel returns a novel record ready to insert.
func NewTestNovel(nid, authorID, title string) *domain.Novel {
	return &domain.Novel{
		NID:         nid,
		Title:       title,
		AuthorID:    authorID,
		Description: []domain.ContentBlock{{Tag: domain.BlockParagraph, Text: "A story."}},
		Status:      domain.StatusOngoing,
		Genre:       domain.GenreSciFi,
		Tags:        []domain.Tag{domain.TagAction},
		CreatedAt:   baseTime,
	}
}

// NewTestChapter returns a chapter record ready to insert.
func NewTestChapter(nid, vid, cid string, index int64) *domain.Chapter {
	return &domain.Chapter{
		NID:       nid,
		VID:       vid,
		CID:       cid,
		Index:     index,
		Title:     fmt.Sprintf("Chapter %d", index),
		Content:   []domain.ContentBlock{{Tag: domain.BlockParagraph, Text: "text"}, {Tag: domain.BlockStrong, Text: "bold"}},
		CreatedAt: baseTime.Add(time.Duration(index) * time.Minute),
	}
}

func ptr[T any](v T) *T { return &v }

func testUserCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewTestUser("usr-1", "leanderpaul")
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByUsername(ctx, "leanderpaul")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", got.UID)
	assert.Equal(t, "Leander", got.FirstName)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.Empty(t, got.Library)
	assert.True(t, baseTime.Equal(got.CreatedAt))

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUserUniqueUsername(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewTestUser("usr-1", "leanderpaul")))

	err := s.CreateUser(ctx, NewTestUser("usr-2", "leanderpaul"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.True(t, store.IsIndexConflict(err, store.IndexUsername), "got %v", err)

	err = s.CreateUser(ctx, NewTestUser("usr-1", "someoneelse"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.True(t, store.IsIndexConflict(err, store.IndexUserUID), "got %v", err)
}

func testUserUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewTestUser("usr-1", "leanderpaul")))

	err := s.UpdateUser(ctx, "leanderpaul", store.UserUpdate{
		LastName:     ptr("Paul"),
		PasswordHash: ptr("new-hash"),
	})
	require.NoError(t, err)

	got, err := s.GetUserByUsername(ctx, "leanderpaul")
	require.NoError(t, err)
	assert.Equal(t, "Leander", got.FirstName)
	assert.Equal(t, "Paul", got.LastName)
	assert.Equal(t, "new-hash", got.PasswordHash)

	// An empty update still reports existence.
	require.NoError(t, s.UpdateUser(ctx, "leanderpaul", store.UserUpdate{}))
	assert.ErrorIs(t, s.UpdateUser(ctx, "ghost", store.UserUpdate{FirstName: ptr("Ghost")}), store.ErrNotFound)
}

func testUserLibraryOps(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewTestUser("usr-1", "leanderpaul")))

	add := func(nid string) {
		require.NoError(t, s.UpdateUser(ctx, "leanderpaul", store.UserUpdate{
			Library: &domain.LibraryOp{Operation: domain.LibraryAdd, NID: nid},
		}))
	}
	add("123")
	add("456")
	add("123")

	got, err := s.GetUserByUsername(ctx, "leanderpaul")
	require.NoError(t, err)
	assert.Equal(t, []string{"123", "456", "123"}, got.Library)

	require.NoError(t, s.UpdateUser(ctx, "leanderpaul", store.UserUpdate{
		FirstName: ptr("Leo"),
		Library:   &domain.LibraryOp{Operation: domain.LibraryRemove, NID: "123"},
	}))

	got, err = s.GetUserByUsername(ctx, "leanderpaul")
	require.NoError(t, err)
	assert.Equal(t, []string{"456"}, got.Library)
	assert.Equal(t, "Leo", got.FirstName)
}

func testNovelCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()

	series := NewTestNovel("nvl-1", "usr-1", "A Test Novel")
	series.Tags = []domain.Tag{domain.TagAction, domain.TagFantasy}
	require.NoError(t, s.CreateNovel(ctx, series))

	book := NewTestNovel("nvl-2", "usr-1", "A Book")
	book.Volumes = []domain.Volume{{VID: "vol-1"}}
	require.NoError(t, s.CreateNovel(ctx, book))

	got, err := s.GetNovel(ctx, "nvl-1")
	require.NoError(t, err)
	assert.Equal(t, "A Test Novel", got.Title)
	assert.Equal(t, []domain.Tag{domain.TagAction, domain.TagFantasy}, got.Tags)
	assert.Equal(t, series.Description, got.Description)
	assert.False(t, got.IsPartitioned())
	assert.Zero(t, got.Views)
	assert.Zero(t, got.ChapterCount)

	got, err = s.GetNovel(ctx, "nvl-2")
	require.NoError(t, err)
	require.True(t, got.IsPartitioned())
	require.Len(t, got.Volumes, 1)
	assert.Equal(t, "vol-1", got.Volumes[0].VID)

	err = s.CreateNovel(ctx, NewTestNovel("nvl-1", "usr-2", "Dup"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testNovelUpdateCombined(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateNovel(ctx, NewTestNovel("nvl-1", "usr-1", "A Test Novel")))

	status := domain.StatusCompleted
	err := s.UpdateNovel(ctx, "nvl-1", store.NovelUpdate{
		Fields: domain.NovelUpdate{
			Title:  ptr("Renamed Novel"),
			Status: &status,
			Tags:   []domain.Tag{domain.TagRomance, domain.TagDrama},
		},
		IncrementViews: true,
		Volume:         &domain.VolumeOp{Operation: domain.VolumeAdd, VID: "vol-9", Name: "Prologue"},
	})
	require.NoError(t, err)

	got, err := s.GetNovel(ctx, "nvl-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Novel", got.Title)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, domain.GenreSciFi, got.Genre)
	assert.ElementsMatch(t, []domain.Tag{domain.TagRomance, domain.TagDrama}, got.Tags)
	assert.EqualValues(t, 1, got.Views)
	require.Len(t, got.Volumes, 1)
	assert.Equal(t, domain.Volume{VID: "vol-9", Name: "Prologue"}, got.Volumes[0])

	require.NoError(t, s.UpdateNovel(ctx, "nvl-1", store.NovelUpdate{IncrementViews: true}))
	got, err = s.GetNovel(ctx, "nvl-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Views)

	// Title search follows renames.
	count, err := s.CountNovels(ctx, store.NewNovelFilter().Title("renamed").Build())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func testNovelVolumeOps(t *testing.T, s store.Store) {
	ctx := context.Background()
	book := NewTestNovel("nvl-1", "usr-1", "A Book")
	book.Volumes = []domain.Volume{{VID: "vol-1"}}
	require.NoError(t, s.CreateNovel(ctx, book))

	require.NoError(t, s.UpdateNovel(ctx, "nvl-1", store.NovelUpdate{
		Volume: &domain.VolumeOp{Operation: domain.VolumeAdd, VID: "vol-2", Name: "Second Arc"},
	}))
	got, err := s.GetNovel(ctx, "nvl-1")
	require.NoError(t, err)
	require.Len(t, got.Volumes, 2)
	assert.Equal(t, "vol-1", got.Volumes[0].VID)
	assert.Equal(t, "vol-2", got.Volumes[1].VID)

	err = s.UpdateNovel(ctx, "nvl-1", store.NovelUpdate{
		Volume: &domain.VolumeOp{Operation: domain.VolumeAdd, VID: "vol-2"},
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.True(t, store.IsIndexConflict(err, store.IndexVolumeVID), "got %v", err)

	require.NoError(t, s.UpdateNovel(ctx, "nvl-1", store.NovelUpdate{
		Volume: &domain.VolumeOp{Operation: domain.VolumeRemove, VID: "vol-1"},
	}))
	require.NoError(t, s.UpdateNovel(ctx, "nvl-1", store.NovelUpdate{
		Volume: &domain.VolumeOp{Operation: domain.VolumeRemove, VID: "vol-2"},
	}))
	got, err = s.GetNovel(ctx, "nvl-1")
	require.NoError(t, err)
	assert.True(t, got.IsPartitioned())
	assert.Empty(t, got.Volumes)
}

func testNovelNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetNovel(ctx, "nvl-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateNovel(ctx, "nvl-missing", store.NovelUpdate{IncrementViews: true}), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateNovel(ctx, "nvl-missing", store.NovelUpdate{}), store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteNovel(ctx, "nvl-missing"), store.ErrNotFound)
}

func testNovelDeleteKeepsChapters(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateNovel(ctx, NewTestNovel("nvl-1", "usr-1", "A Test Novel")))
	require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-1", "", "chp-1", 1)))

	require.NoError(t, s.DeleteNovel(ctx, "nvl-1"))
	_, err := s.GetNovel(ctx, "nvl-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	c, err := s.GetChapter(ctx, "nvl-1", "chp-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.Index)
}

func seedNovels(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	novels := []struct {
		nid, author, title string
		genre              domain.Genre
		status             domain.NovelStatus
		tags               []domain.Tag
		views              int
	}{
		{"nvl-a", "usr-1", "Alpha Stars", domain.GenreSciFi, domain.StatusOngoing, []domain.Tag{domain.TagAction, domain.TagSciFi}, 5},
		{"nvl-b", "usr-1", "Beta Sword", domain.GenreXianxia, domain.StatusCompleted, []domain.Tag{domain.TagAction, domain.TagXianxia, domain.TagRomance}, 1},
		{"nvl-c", "usr-2", "Gamma Heart", domain.GenreContemporaryRomance, domain.StatusOngoing, []domain.Tag{domain.TagRomance}, 9},
		{"nvl-d", "usr-2", "Delta Stars", domain.GenreSciFi, domain.StatusOngoing, []domain.Tag{domain.TagAction, domain.TagRomance}, 3},
	}
	for i, n := range novels {
		novel := NewTestNovel(n.nid, n.author, n.title)
		novel.Genre = n.genre
		novel.Status = n.status
		novel.Tags = n.tags
		novel.CreatedAt = baseTime.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateNovel(ctx, novel))
		for range n.views {
			require.NoError(t, s.UpdateNovel(ctx, n.nid, store.NovelUpdate{IncrementViews: true}))
		}
	}
}

func nids(novels []*domain.Novel) []string {
	out := make([]string, len(novels))
	for i, n := range novels {
		out[i] = n.NID
	}
	return out
}

func testNovelListAndCount(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedNovels(t, s)

	page := store.PageRequest{Limit: 20, SortField: store.SortCreatedAt, SortOrder: store.SortAsc}

	tests := []struct {
		name  string
		query store.NovelQuery
		want  []string
	}{
		{"no filter", store.NovelQuery{}, []string{"nvl-a", "nvl-b", "nvl-c", "nvl-d"}},
		{"author", store.NovelQuery{AuthorID: "usr-2"}, []string{"nvl-c", "nvl-d"}},
		{"genre and status", store.NovelQuery{Genre: domain.GenreSciFi, Status: domain.StatusOngoing}, []string{"nvl-a", "nvl-d"}},
		{"title case-insensitive", store.NovelQuery{Title: "STARS"}, []string{"nvl-a", "nvl-d"}},
		{"tags all-of", store.NovelQuery{Tags: []domain.Tag{domain.TagAction, domain.TagRomance}}, []string{"nvl-b", "nvl-d"}},
		{"tags single", store.NovelQuery{Tags: []domain.Tag{domain.TagRomance}}, []string{"nvl-b", "nvl-c", "nvl-d"}},
		{"tags no match", store.NovelQuery{Tags: []domain.Tag{domain.TagSciFi, domain.TagRomance}}, []string{}},
		{"everything", store.NovelQuery{Title: "stars", AuthorID: "usr-2", Tags: []domain.Tag{domain.TagAction}}, []string{"nvl-d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := store.NewNovelFilter().Query(tt.query).Build()

			got, err := s.ListNovels(ctx, filter, page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nids(got))
			for _, n := range got {
				assert.True(t, filter.Matches(n), "in-memory matcher disagrees for %s", n.NID)
			}

			count, err := s.CountNovels(ctx, filter)
			require.NoError(t, err)
			assert.EqualValues(t, len(tt.want), count)
		})
	}
}

func testNovelListSortAndWindow(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedNovels(t, s)
	all := store.NovelFilter{}

	got, err := s.ListNovels(ctx, all, store.PageRequest{Limit: 10, SortField: store.SortViews, SortOrder: store.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"nvl-c", "nvl-a", "nvl-d", "nvl-b"}, nids(got))

	got, err = s.ListNovels(ctx, all, store.PageRequest{Limit: 10, SortField: store.SortTitle, SortOrder: store.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"nvl-a", "nvl-b", "nvl-d", "nvl-c"}, nids(got))

	got, err = s.ListNovels(ctx, all, store.PageRequest{Offset: 1, Limit: 2, SortField: store.SortCreatedAt, SortOrder: store.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"nvl-c", "nvl-b"}, nids(got))

	got, err = s.ListNovels(ctx, all, store.PageRequest{Offset: 10, Limit: 2, SortField: store.SortCreatedAt, SortOrder: store.SortAsc})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testCounters(t *testing.T, s store.Store) {
	ctx := context.Background()
	book := NewTestNovel("nvl-1", "usr-1", "A Book")
	book.Volumes = []domain.Volume{{VID: "vol-1"}, {VID: "vol-2"}}
	require.NoError(t, s.CreateNovel(ctx, book))

	require.NoError(t, s.IncrementNovelChapterCount(ctx, "nvl-1", 1))
	require.NoError(t, s.IncrementNovelChapterCount(ctx, "nvl-1", 1))
	require.NoError(t, s.IncrementVolumeChapterCount(ctx, "nvl-1", "vol-2", 1))
	require.NoError(t, s.IncrementNovelChapterCount(ctx, "nvl-1", -1))

	// A removed volume is skipped without error.
	require.NoError(t, s.IncrementVolumeChapterCount(ctx, "nvl-1", "vol-gone", 1))

	got, err := s.GetNovel(ctx, "nvl-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ChapterCount)
	assert.EqualValues(t, 0, got.Volumes[0].ChapterCount)
	assert.EqualValues(t, 1, got.Volumes[1].ChapterCount)

	assert.ErrorIs(t, s.IncrementNovelChapterCount(ctx, "nvl-missing", 1), store.ErrNotFound)
	assert.ErrorIs(t, s.IncrementVolumeChapterCount(ctx, "nvl-missing", "vol-1", 1), store.ErrNotFound)

	require.NoError(t, s.SetChapterCounts(ctx, "nvl-1", 7, map[string]int64{"vol-1": 4}))
	got, err = s.GetNovel(ctx, "nvl-1")
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.ChapterCount)
	assert.EqualValues(t, 4, got.Volumes[0].ChapterCount)
	assert.EqualValues(t, 0, got.Volumes[1].ChapterCount)

	assert.ErrorIs(t, s.SetChapterCounts(ctx, "nvl-missing", 0, nil), store.ErrNotFound)
}

func testChapterCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := NewTestChapter("nvl-1", "vol-1", "chp-1", 1)
	c.MatureContent = true
	require.NoError(t, s.CreateChapter(ctx, c))

	got, err := s.GetChapter(ctx, "nvl-1", "chp-1")
	require.NoError(t, err)
	assert.Equal(t, "vol-1", got.VID)
	assert.EqualValues(t, 1, got.Index)
	assert.Equal(t, c.Content, got.Content)
	assert.True(t, got.MatureContent)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	got, err = s.GetChapterByCID(ctx, "chp-1")
	require.NoError(t, err)
	assert.Equal(t, "nvl-1", got.NID)

	_, err = s.GetChapter(ctx, "nvl-2", "chp-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetChapterByCID(ctx, "chp-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testChapterUniqueIndexes(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-1", "", "chp-1", 1)))

	err := s.CreateChapter(ctx, NewTestChapter("nvl-1", "", "chp-2", 1))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.True(t, store.IsIndexConflict(err, store.IndexChapterOrdinal), "got %v", err)

	err = s.CreateChapter(ctx, NewTestChapter("nvl-2", "", "chp-1", 1))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.False(t, store.IsIndexConflict(err, store.IndexChapterOrdinal), "got %v", err)

	// Same index under another novel is fine.
	require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-2", "", "chp-3", 1)))
}

func testChapterUpdateAndDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-1", "vol-1", "chp-1", 1)))

	content := []domain.ContentBlock{{Tag: domain.BlockStrong, Text: "rewritten"}}
	require.NoError(t, s.UpdateChapter(ctx, "nvl-1", "chp-1", domain.ChapterUpdate{
		Title:   ptr("Revised Chapter"),
		Content: content,
	}))
	got, err := s.GetChapter(ctx, "nvl-1", "chp-1")
	require.NoError(t, err)
	assert.Equal(t, "Revised Chapter", got.Title)
	assert.Equal(t, content, got.Content)
	assert.EqualValues(t, 1, got.Index)

	require.NoError(t, s.UpdateChapter(ctx, "nvl-1", "chp-1", domain.ChapterUpdate{}))
	assert.ErrorIs(t, s.UpdateChapter(ctx, "nvl-1", "chp-missing", domain.ChapterUpdate{Title: ptr("Nope")}), store.ErrNotFound)

	deleted, err := s.DeleteChapter(ctx, "nvl-1", "chp-1")
	require.NoError(t, err)
	assert.Equal(t, "vol-1", deleted.VID)

	_, err = s.DeleteChapter(ctx, "nvl-1", "chp-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The freed index can be reused by a later insert.
	require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-1", "", "chp-2", 1)))
}

func testChapterMaxIndex(t *testing.T, s store.Store) {
	ctx := context.Background()

	idx, err := s.MaxChapterIndex(ctx, "nvl-1")
	require.NoError(t, err)
	assert.Zero(t, idx)

	for i := int64(1); i <= 12; i++ {
		require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-1", "", fmt.Sprintf("chp-%d", i), i)))
	}
	require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-2", "", "chp-x", 40)))
	for _, cid := range []string{"chp-1", "chp-2", "chp-3", "chp-12"} {
		_, err := s.DeleteChapter(ctx, "nvl-1", cid)
		require.NoError(t, err)
	}

	// 11 past 9 checks numeric order, not string order.
	idx, err = s.MaxChapterIndex(ctx, "nvl-1")
	require.NoError(t, err)
	assert.EqualValues(t, 11, idx)

	idx, err = s.MaxChapterIndex(ctx, "nvl-2")
	require.NoError(t, err)
	assert.EqualValues(t, 40, idx)
}

func testChapterListAndCount(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		vid := "vol-1"
		if i > 3 {
			vid = "vol-2"
		}
		require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-1", vid, fmt.Sprintf("chp-%d", i), i)))
	}
	require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-1", "", "chp-6", 6)))
	require.NoError(t, s.CreateChapter(ctx, NewTestChapter("nvl-2", "", "chp-x", 1)))

	indexes := func(chapters []*domain.Chapter) []int64 {
		out := make([]int64, len(chapters))
		for i, c := range chapters {
			out[i] = c.Index
		}
		return out
	}

	got, err := s.ListChapters(ctx, store.ChapterQuery{NID: "nvl-1"},
		store.PageRequest{Limit: 20, SortField: store.SortIndex, SortOrder: store.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, indexes(got))

	got, err = s.ListChapters(ctx, store.ChapterQuery{NID: "nvl-1"},
		store.PageRequest{Offset: 1, Limit: 2, SortField: store.SortIndex, SortOrder: store.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4}, indexes(got))

	got, err = s.ListChapters(ctx, store.ChapterQuery{NID: "nvl-1", VID: "vol-2"},
		store.PageRequest{Limit: 20, SortField: store.SortIndex, SortOrder: store.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, indexes(got))

	count, err := s.CountChapters(ctx, store.ChapterQuery{NID: "nvl-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 6, count)

	count, err = s.CountChapters(ctx, store.ChapterQuery{NID: "nvl-1", VID: "vol-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	byVolume, err := s.CountChaptersByVolume(ctx, "nvl-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"vol-1": 3, "vol-2": 2}, byVolume)
}
