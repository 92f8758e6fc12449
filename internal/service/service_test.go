package service

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shadownovel/catalog/internal/auth"
	"github.com/shadownovel/catalog/internal/config"
	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/store"
	"github.com/shadownovel/catalog/internal/store/badgerstore"
	"github.com/shadownovel/catalog/internal/store/sqlite"
	"github.com/shadownovel/catalog/internal/validation"
)

// testEnv bundles the three services over one store.
type testEnv struct {
	store    store.Store
	users    *UserService
	novels   *NovelService
	chapters *ChapterService
}

type backend struct {
	name string
	open func(t *testing.T) store.Store
}

var backends = []backend{
	{"sqlite", func(t *testing.T) store.Store {
		s, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"), nil)
		require.NoError(t, err)
		return s
	}},
	{"badger", func(t *testing.T) store.Store {
		s, err := badgerstore.Open(t.TempDir(), nil)
		require.NoError(t, err)
		return s
	}},
}

// forEachBackend runs fn once per store backend with fresh services.
func forEachBackend(t *testing.T, fn func(t *testing.T, env *testEnv)) {
	t.Helper()
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, newTestEnv(s))
		})
	}
}

func newTestEnv(s store.Store) *testEnv {
	logger := slog.New(slog.DiscardHandler)
	v := validation.New()
	cfg := config.Default()
	hasher := auth.NewHasherWithParams(auth.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})

	return &testEnv{
		store:    s,
		users:    NewUserService(s, v, hasher, logger),
		novels:   NewNovelService(s, v, cfg.Paging, logger),
		chapters: NewChapterService(s, v, cfg.Paging, cfg.Chapters, logger),
	}
}

func ptr[T any](v T) *T { return &v }

func blocks(texts ...string) []domain.ContentBlock {
	out := make([]domain.ContentBlock, len(texts))
	for i, text := range texts {
		out[i] = domain.ContentBlock{Tag: domain.BlockParagraph, Text: text}
	}
	return out
}

func testNewNovel(authorID, title string) domain.NewNovel {
	return domain.NewNovel{
		Title:       title,
		AuthorID:    authorID,
		Description: blocks("A novel used by the service tests."),
		Status:      domain.StatusOngoing,
		Genre:       domain.GenreSciFi,
		Tags:        []domain.Tag{domain.TagAction},
	}
}

func testNewChapter(nid, vid, title string) domain.NewChapter {
	return domain.NewChapter{
		NID:     nid,
		VID:     vid,
		Title:   title,
		Content: blocks("It was a dark and stormy night."),
	}
}
