package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadownovel/catalog/internal/domain"
	domainerrors "github.com/shadownovel/catalog/internal/errors"
	"github.com/shadownovel/catalog/internal/store"
)

func TestNovelService_CreateNovel(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()

		book, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "  A Test Novel  "), true)
		require.NoError(t, err)
		assert.Equal(t, "A Test Novel", book.Title)
		require.Len(t, book.Volumes, 1)
		assert.NotEmpty(t, book.Volumes[0].VID)
		assert.Zero(t, book.Volumes[0].ChapterCount)
		assert.Zero(t, book.ChapterCount)
		assert.Zero(t, book.Views)

		series, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Series"), false)
		require.NoError(t, err)
		assert.Nil(t, series.Volumes)
		assert.NotEqual(t, book.NID, series.NID)

		got, err := env.novels.FindByID(ctx, book.NID)
		require.NoError(t, err)
		assert.Equal(t, book.Volumes, got.Volumes)
		assert.Equal(t, domain.BlockParagraph, got.Description[0].Tag)
	})
}

func TestNovelService_CreateNovel_Validation(t *testing.T) {
	env := newTestEnv(backends[0].open(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.NewNovel)
		reason string
	}{
		{"short title", func(n *domain.NewNovel) { n.Title = " ab " }, "TITLE_TOO_SHORT"},
		{"missing author", func(n *domain.NewNovel) { n.AuthorID = "" }, "AUTHOR_ID_REQUIRED"},
		{"no description", func(n *domain.NewNovel) { n.Description = []domain.ContentBlock{} }, "DESCRIPTION_REQUIRED"},
		{"bad block tag", func(n *domain.NewNovel) { n.Description[0].Tag = "h1" }, "DESCRIPTION_TAG_INVALID"},
		{"bad genre", func(n *domain.NewNovel) { n.Genre = "WESTERN" }, "GENRE_INVALID"},
		{"bad status", func(n *domain.NewNovel) { n.Status = "PAUSED" }, "STATUS_INVALID"},
		{"no tags", func(n *domain.NewNovel) { n.Tags = nil }, "TAGS_REQUIRED"},
		{"bad tag", func(n *domain.NewNovel) { n.Tags = []domain.Tag{"SPACE_OPERA"} }, "TAGS_INVALID"},
		{"duplicate tags", func(n *domain.NewNovel) { n.Tags = []domain.Tag{domain.TagAction, domain.TagAction} }, "TAGS_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nn := testNewNovel("usr-1", "A Test Novel")
			tt.mutate(&nn)

			_, err := env.novels.CreateNovel(ctx, nn, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Equal(t, tt.reason, domainerrors.ReasonOf(err))
		})
	}
}

func TestNovelService_UpdateNovel_Combined(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)

		err = env.novels.UpdateNovel(ctx, novel.NID, domain.NovelUpdate{
			Title:  ptr("A Renamed Novel"),
			Status: ptr(domain.StatusCompleted),
		}, true, &domain.VolumeOp{Operation: domain.VolumeAdd, Name: "Book One"})
		require.NoError(t, err)

		got, err := env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.Equal(t, "A Renamed Novel", got.Title)
		assert.Equal(t, domain.StatusCompleted, got.Status)
		assert.Equal(t, int64(1), got.Views)
		require.Len(t, got.Volumes, 1, "adding a volume turns a series into a book")
		assert.Equal(t, "Book One", got.Volumes[0].Name)
		assert.NotEmpty(t, got.Volumes[0].VID)

		require.NoError(t, env.novels.UpdateNovel(ctx, novel.NID, domain.NovelUpdate{}, true, nil))
		got, err = env.novels.FindByID(ctx, novel.NID, "views")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Views)
		assert.Empty(t, got.Title)
	})
}

func TestNovelService_UpdateNovel_Errors(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)

		err = env.novels.UpdateNovel(ctx, "nvl-missing", domain.NovelUpdate{Title: ptr("Whatever Title")}, false, nil)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
		assert.Equal(t, domainerrors.ReasonNovelNotFound, domainerrors.ReasonOf(err))

		err = env.novels.UpdateNovel(ctx, novel.NID, domain.NovelUpdate{}, false,
			&domain.VolumeOp{Operation: domain.VolumeRemove})
		assert.Equal(t, "VID_REQUIRED", domainerrors.ReasonOf(err))

		err = env.novels.UpdateNovel(ctx, novel.NID, domain.NovelUpdate{}, false,
			&domain.VolumeOp{Operation: domain.VolumeAdd, Name: "Book 1"})
		assert.Equal(t, "NAME_INVALID", domainerrors.ReasonOf(err))

		err = env.novels.UpdateNovel(ctx, novel.NID, domain.NovelUpdate{Genre: ptr(domain.Genre("WESTERN"))}, true, nil)
		assert.Equal(t, "GENRE_INVALID", domainerrors.ReasonOf(err))

		got, err := env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.Zero(t, got.Views, "a rejected update applies nothing")
	})
}

func TestNovelService_RemoveVolume_OrphansChapters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), true)
		require.NoError(t, err)
		vid := novel.Volumes[0].VID

		chapter, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, vid, "Test Chapter"))
		require.NoError(t, err)

		require.NoError(t, env.novels.UpdateNovel(ctx, novel.NID, domain.NovelUpdate{}, false,
			&domain.VolumeOp{Operation: domain.VolumeRemove, VID: vid}))

		got, err := env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.NotNil(t, got.Volumes, "a book stays a book")
		assert.Empty(t, got.Volumes)
		assert.Equal(t, int64(1), got.ChapterCount)

		orphan, err := env.chapters.FindByID(ctx, novel.NID, chapter.CID)
		require.NoError(t, err)
		assert.Equal(t, vid, orphan.VID, "the chapter keeps the removed vid")
	})
}

func TestNovelService_DeleteNovel_KeepsChapters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)
		chapter, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "", "Test Chapter"))
		require.NoError(t, err)

		require.NoError(t, env.novels.DeleteNovel(ctx, novel.NID))

		_, err = env.novels.FindByID(ctx, novel.NID)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)

		_, err = env.chapters.FindByCID(ctx, chapter.CID)
		assert.NoError(t, err)

		err = env.novels.DeleteNovel(ctx, novel.NID)
		assert.Equal(t, domainerrors.ReasonNovelNotFound, domainerrors.ReasonOf(err))
	})
}

func TestNovelService_FindNovels(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()

		seed := []struct {
			author string
			title  string
			genre  domain.Genre
			tags   []domain.Tag
		}{
			{"usr-a", "The Iron Sky", domain.GenreSciFi, []domain.Tag{domain.TagAction, domain.TagMecha}},
			{"usr-a", "Skyward Blade", domain.GenreXianxia, []domain.Tag{domain.TagAction, domain.TagWuxia}},
			{"usr-b", "Quiet Harbor", domain.GenreContemporaryRomance, []domain.Tag{domain.TagRomance}},
			{"usr-b", "Sky Gardens", domain.GenreFantasy, []domain.Tag{domain.TagAction, domain.TagMecha, domain.TagRomance}},
		}
		for _, s := range seed {
			nn := testNewNovel(s.author, s.title)
			nn.Genre = s.genre
			nn.Tags = s.tags
			_, err := env.novels.CreateNovel(ctx, nn, false)
			require.NoError(t, err)
		}

		page, err := env.novels.FindNovels(ctx, store.NovelQuery{Title: "SKY"},
			store.PageRequest{SortField: store.SortTitle}, "title")
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.TotalCount)
		require.Len(t, page.Items, 3)
		assert.Equal(t, "Sky Gardens", page.Items[0].Title)
		assert.Equal(t, "Skyward Blade", page.Items[1].Title)
		assert.Equal(t, "The Iron Sky", page.Items[2].Title)
		assert.Empty(t, page.Items[0].NID, "projection drops unrequested fields")
		assert.Equal(t, 20, page.Limit)

		page, err = env.novels.FindNovels(ctx,
			store.NovelQuery{Tags: []domain.Tag{domain.TagAction, domain.TagMecha}}, store.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.TotalCount, "tags match all-of")

		page, err = env.novels.FindNovels(ctx, store.NovelQuery{AuthorID: "usr-b", Genre: domain.GenreFantasy}, store.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Sky Gardens", page.Items[0].Title)

		page, err = env.novels.FindNovels(ctx, store.NovelQuery{},
			store.PageRequest{Offset: 1, Limit: 2, SortField: store.SortTitle, SortOrder: store.SortDesc})
		require.NoError(t, err)
		assert.Equal(t, int64(4), page.TotalCount)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Skyward Blade", page.Items[0].Title)
		assert.Equal(t, "Sky Gardens", page.Items[1].Title)

		page, err = env.novels.FindNovels(ctx, store.NovelQuery{}, store.PageRequest{Limit: 1000})
		require.NoError(t, err)
		assert.Equal(t, 100, page.Limit)
	})
}

func TestNovelService_FindNovels_InvalidInput(t *testing.T) {
	env := newTestEnv(backends[0].open(t))
	ctx := context.Background()

	_, err := env.novels.FindNovels(ctx, store.NovelQuery{}, store.PageRequest{SortField: "author"})
	assert.Equal(t, "SORT_FIELD_INVALID", domainerrors.ReasonOf(err))

	_, err = env.novels.FindNovels(ctx, store.NovelQuery{}, store.PageRequest{SortOrder: "sideways"})
	assert.Equal(t, "SORT_ORDER_INVALID", domainerrors.ReasonOf(err))

	_, err = env.novels.FindNovels(ctx, store.NovelQuery{Genre: "WESTERN"}, store.PageRequest{})
	assert.Equal(t, "GENRE_INVALID", domainerrors.ReasonOf(err))

	_, err = env.novels.FindNovels(ctx, store.NovelQuery{}, store.PageRequest{}, "secret")
	assert.Equal(t, "FIELDS_INVALID", domainerrors.ReasonOf(err))
}

func TestNovelService_ReconcileCounters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), true)
		require.NoError(t, err)
		vid := novel.Volumes[0].VID

		for _, title := range []string{"Chapter One", "Chapter Two", "Chapter Three"} {
			_, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, vid, title))
			require.NoError(t, err)
		}

		// Simulate drift from lost counter writes.
		require.NoError(t, env.store.IncrementNovelChapterCount(ctx, novel.NID, 5))
		require.NoError(t, env.store.IncrementVolumeChapterCount(ctx, novel.NID, vid, -2))

		drift, err := env.novels.InspectCounters(ctx, novel.NID)
		require.NoError(t, err)
		assert.True(t, drift.Drifted())
		assert.Equal(t, int64(8), drift.Stored)
		assert.Equal(t, int64(3), drift.Actual)
		require.Len(t, drift.Volumes, 1)
		assert.Equal(t, int64(1), drift.Volumes[0].Stored)
		assert.Equal(t, int64(3), drift.Volumes[0].Actual)

		repaired, err := env.novels.ReconcileCounters(ctx, novel.NID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), repaired.ChapterCount)
		assert.Equal(t, int64(3), repaired.Volumes[0].ChapterCount)

		drift, err = env.novels.InspectCounters(ctx, novel.NID)
		require.NoError(t, err)
		assert.False(t, drift.Drifted())

		_, err = env.novels.ReconcileCounters(ctx, "nvl-missing")
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})
}
