package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadownovel/catalog/internal/domain"
	domainerrors "github.com/shadownovel/catalog/internal/errors"
	"github.com/shadownovel/catalog/internal/id"
	"github.com/shadownovel/catalog/internal/store"
)

func TestChapterService_Scenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()

		user, err := env.users.CreateUser(ctx, domain.NewUser{Username: "leanderpaul", Password: "Password@123"})
		require.NoError(t, err)

		novel, err := env.novels.CreateNovel(ctx, testNewNovel(user.UID, "A Test Novel"), true)
		require.NoError(t, err)
		require.Len(t, novel.Volumes, 1)
		vid := novel.Volumes[0].VID

		first, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, vid, "Test Chapter"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.Index)
		assert.False(t, first.MatureContent)

		got, err := env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ChapterCount)
		assert.Equal(t, int64(1), got.Volumes[0].ChapterCount)

		require.NoError(t, env.chapters.DeleteChapter(ctx, novel.NID, first.CID))
		got, err = env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.Zero(t, got.ChapterCount)
		assert.Zero(t, got.Volumes[0].ChapterCount)

		again, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, vid, "Test Chapter"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), again.Index)

		second, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, vid, "Second Chapter"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.Index)
		assert.NotEqual(t, again.CID, second.CID)
	})
}

func TestChapterService_CountersTrackCreatesAndDeletes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)

		var cids []string
		for i := range 6 {
			c, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "", "Chapter Title"))
			require.NoError(t, err)
			assert.Equal(t, int64(i+1), c.Index)
			cids = append(cids, c.CID)
		}
		for _, cid := range cids[4:] {
			require.NoError(t, env.chapters.DeleteChapter(ctx, novel.NID, cid))
		}

		got, err := env.novels.FindByID(ctx, novel.NID, "chapterCount")
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.ChapterCount)
	})
}

func TestChapterService_IndexesNeverRenumbered(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)

		var created []*domain.Chapter
		for range 3 {
			c, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "", "Chapter Title"))
			require.NoError(t, err)
			created = append(created, c)
		}

		require.NoError(t, env.chapters.DeleteChapter(ctx, novel.NID, created[0].CID))

		// count+1 collides with chapter 3; the retry moves past it.
		next, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "", "Chapter Title"))
		require.NoError(t, err)
		assert.Equal(t, int64(4), next.Index)

		page, err := env.chapters.FindChapters(ctx, store.ChapterQuery{NID: novel.NID}, store.PageRequest{}, "index")
		require.NoError(t, err)
		var indexes []int64
		for _, c := range page.Items {
			indexes = append(indexes, c.Index)
		}
		assert.Equal(t, []int64{2, 3, 4}, indexes)
	})
}

func TestChapterService_CreateChapter_Validation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), true)
		require.NoError(t, err)

		_, err = env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "", "Hi"))
		assert.Equal(t, "TITLE_TOO_SHORT", domainerrors.ReasonOf(err))

		bad := testNewChapter(novel.NID, "", "Test Chapter")
		bad.Content = []domain.ContentBlock{{Tag: "em", Text: "nope"}}
		_, err = env.chapters.CreateChapter(ctx, bad)
		assert.Equal(t, "CONTENT_TAG_INVALID", domainerrors.ReasonOf(err))

		untagged := testNewChapter(novel.NID, "", "Test Chapter")
		untagged.Content = []domain.ContentBlock{{Text: "defaults to a paragraph"}}
		c, err := env.chapters.CreateChapter(ctx, untagged)
		require.NoError(t, err)
		assert.Equal(t, domain.BlockParagraph, c.Content[0].Tag)

		_, err = env.chapters.CreateChapter(ctx, testNewChapter("nvl-missing", "", "Test Chapter"))
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
		assert.Equal(t, domainerrors.ReasonNovelNotFound, domainerrors.ReasonOf(err))

		_, err = env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "vol-unknown", "Test Chapter"))
		assert.Equal(t, "VID_INVALID", domainerrors.ReasonOf(err))

		count, err := env.store.CountChapters(ctx, store.ChapterQuery{NID: novel.NID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "rejected candidates are never stored")
	})
}

func TestChapterService_CreateAfterLeadingDeletes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)

		var cids []string
		for range 6 {
			c, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "", "Chapter Title"))
			require.NoError(t, err)
			cids = append(cids, c.CID)
		}
		for _, cid := range cids[:3] {
			require.NoError(t, env.chapters.DeleteChapter(ctx, novel.NID, cid))
		}

		// count+1 is 4, which is still taken. More gaps than retries must not exhaust.
		next, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "", "Chapter Title"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), next.Index)

		got, err := env.novels.FindByID(ctx, novel.NID, "chapterCount")
		require.NoError(t, err)
		assert.Equal(t, int64(4), got.ChapterCount)
	})
}

// racingStore lets a competing writer take the next index right before each insert.
type racingStore struct {
	store.Store
	races int
}

func (s *racingStore) CreateChapter(ctx context.Context, c *domain.Chapter) error {
	if s.races > 0 {
		s.races--
		rival := &domain.Chapter{
			NID:       c.NID,
			CID:       id.NewChapterID(),
			Index:     c.Index,
			Title:     "Rival Chapter",
			Content:   blocks("rival"),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Store.CreateChapter(ctx, rival); err != nil {
			return err
		}
	}
	return s.Store.CreateChapter(ctx, c)
}

func TestChapterService_IndexRaceRetries(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)

		racing := &racingStore{Store: env.store, races: 2}
		svc := newTestEnv(racing).chapters

		c, err := svc.CreateChapter(ctx, testNewChapter(novel.NID, "", "Test Chapter"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), c.Index, "lost two races, took the third index")
	})
}

func TestChapterService_IndexRaceExhausted(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)

		racing := &racingStore{Store: env.store, races: DefaultMaxCreateAttempts}
		svc := newTestEnv(racing).chapters

		_, err = svc.CreateChapter(ctx, testNewChapter(novel.NID, "", "Test Chapter"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrConflict)
		assert.Equal(t, domainerrors.ReasonIndexExhausted, domainerrors.ReasonOf(err))

		got, err := env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.Zero(t, got.ChapterCount, "no counter moves without an insert")
	})
}

func TestChapterService_ConcurrentCreates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), false)
		require.NoError(t, err)

		const writers = 3
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			indexes = map[int64]bool{}
			stored  int
		)
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, "", "Test Chapter"))
				if err != nil {
					assert.ErrorIs(t, err, domainerrors.ErrConflict)
					return
				}
				mu.Lock()
				defer mu.Unlock()
				assert.False(t, indexes[c.Index], "index %d assigned twice", c.Index)
				indexes[c.Index] = true
				stored++
			}()
		}
		wg.Wait()

		got, err := env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.Equal(t, int64(stored), got.ChapterCount)
	})
}

// failingCounterStore loses every novel counter write.
type failingCounterStore struct {
	store.Store
}

func (s *failingCounterStore) IncrementNovelChapterCount(context.Context, string, int64) error {
	return errors.New("write timed out")
}

func TestChapterService_CounterFailureKeepsChapter(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), true)
		require.NoError(t, err)
		vid := novel.Volumes[0].VID

		svc := newTestEnv(&failingCounterStore{Store: env.store}).chapters
		c, err := svc.CreateChapter(ctx, testNewChapter(novel.NID, vid, "Test Chapter"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrInternal)
		require.NotNil(t, c)

		_, err = env.chapters.FindByID(ctx, novel.NID, c.CID)
		require.NoError(t, err, "the chapter stays stored")

		got, err := env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.Zero(t, got.ChapterCount, "the novel counter drifted")
		assert.Equal(t, int64(1), got.Volumes[0].ChapterCount, "the volume counter still moved")

		repaired, err := env.novels.ReconcileCounters(ctx, novel.NID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), repaired.ChapterCount)
	})
}

func TestChapterService_FindAndUpdate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		novel, err := env.novels.CreateNovel(ctx, testNewNovel("usr-1", "A Test Novel"), true)
		require.NoError(t, err)
		vid := novel.Volumes[0].VID

		require.NoError(t, env.novels.UpdateNovel(ctx, novel.NID, domain.NovelUpdate{}, false,
			&domain.VolumeOp{Operation: domain.VolumeAdd, Name: "Second Volume"}))
		novel, err = env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		vid2 := novel.Volumes[1].VID

		for i := range 5 {
			v := vid
			if i%2 == 1 {
				v = vid2
			}
			_, err := env.chapters.CreateChapter(ctx, testNewChapter(novel.NID, v, "Chapter Title"))
			require.NoError(t, err)
		}

		page, err := env.chapters.FindChapters(ctx, store.ChapterQuery{NID: novel.NID},
			store.PageRequest{Limit: 2, SortOrder: store.SortDesc})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.TotalCount)
		require.Len(t, page.Items, 2)
		assert.Equal(t, int64(5), page.Items[0].Index)
		assert.Equal(t, int64(4), page.Items[1].Index)

		page, err = env.chapters.FindChapters(ctx, store.ChapterQuery{NID: novel.NID, VID: vid2}, store.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.TotalCount)

		novel, err = env.novels.FindByID(ctx, novel.NID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), novel.Volumes[0].ChapterCount)
		assert.Equal(t, int64(2), novel.Volumes[1].ChapterCount)

		_, err = env.chapters.FindChapters(ctx, store.ChapterQuery{}, store.PageRequest{})
		assert.Equal(t, "NID_REQUIRED", domainerrors.ReasonOf(err))

		_, err = env.chapters.FindChapters(ctx, store.ChapterQuery{NID: novel.NID}, store.PageRequest{SortField: store.SortTitle})
		assert.Equal(t, "SORT_FIELD_INVALID", domainerrors.ReasonOf(err))

		target := page.Items[0]
		require.NoError(t, env.chapters.UpdateChapter(ctx, novel.NID, target.CID, domain.ChapterUpdate{
			Title:         ptr("  Renamed Chapter "),
			MatureContent: ptr(true),
		}))

		got, err := env.chapters.FindByCID(ctx, target.CID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed Chapter", got.Title)
		assert.True(t, got.MatureContent)
		assert.Equal(t, target.Index, got.Index)

		err = env.chapters.UpdateChapter(ctx, novel.NID, "chp-missing", domain.ChapterUpdate{Title: ptr("Renamed Chapter")})
		assert.Equal(t, domainerrors.ReasonChapterNotFound, domainerrors.ReasonOf(err))

		err = env.chapters.UpdateChapter(ctx, novel.NID, target.CID, domain.ChapterUpdate{Content: []domain.ContentBlock{}})
		assert.Equal(t, "CONTENT_REQUIRED", domainerrors.ReasonOf(err))

		_, err = env.chapters.FindByID(ctx, "nvl-other", target.CID)
		assert.Equal(t, domainerrors.ReasonChapterNotFound, domainerrors.ReasonOf(err))

		err = env.chapters.DeleteChapter(ctx, novel.NID, "chp-missing")
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})
}

func TestChapterService_ContextCanceled(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := env.chapters.FindChapters(ctx, store.ChapterQuery{NID: "nvl-1"}, store.PageRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
