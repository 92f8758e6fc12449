// Package store defines the persistence contract for the catalog.
//
// Backends provide single-document atomic updates and unique-index enforcement.
// Nothing in the contract spans documents: multi-step sequences such as "insert a
// chapter, then bump its novel's counter" are composed by the services and can fail
// between steps.
package store

import (
	"context"

	"github.com/shadownovel/catalog/internal/domain"
)

// UserUpdate is one atomic update of a user document.
type UserUpdate struct {
	FirstName    *string
	LastName     *string
	PasswordHash *string
	Library      *domain.LibraryOp
}

// NovelUpdate is one atomic update of a novel document. Field sets, the view increment
// and the volume edit are applied together or not at all.
type NovelUpdate struct {
	Fields         domain.NovelUpdate
	IncrementViews bool
	Volume         *domain.VolumeOp
}

// IsEmpty reports whether the update changes nothing.
func (u NovelUpdate) IsEmpty() bool {
	return u.Fields.IsEmpty() && !u.IncrementViews && u.Volume == nil
}

// Store defines every persistence operation the catalog services need.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, username string, update UserUpdate) error

	// Novels
	CreateNovel(ctx context.Context, novel *domain.Novel) error
	GetNovel(ctx context.Context, nid string) (*domain.Novel, error)
	UpdateNovel(ctx context.Context, nid string, update NovelUpdate) error
	DeleteNovel(ctx context.Context, nid string) error
	ListNovels(ctx context.Context, filter NovelFilter, page PageRequest) ([]*domain.Novel, error)
	CountNovels(ctx context.Context, filter NovelFilter) (int64, error)

	// Counters. Each is a single atomic increment on one novel document.
	// IncrementVolumeChapterCount returns ErrNotFound when the novel is gone and is a
	// no-op when the novel no longer has the volume.
	IncrementNovelChapterCount(ctx context.Context, nid string, delta int64) error
	IncrementVolumeChapterCount(ctx context.Context, nid, vid string, delta int64) error
	SetChapterCounts(ctx context.Context, nid string, total int64, perVolume map[string]int64) error

	// Chapters
	CreateChapter(ctx context.Context, chapter *domain.Chapter) error
	GetChapter(ctx context.Context, nid, cid string) (*domain.Chapter, error)
	GetChapterByCID(ctx context.Context, cid string) (*domain.Chapter, error)
	UpdateChapter(ctx context.Context, nid, cid string, update domain.ChapterUpdate) error
	DeleteChapter(ctx context.Context, nid, cid string) (*domain.Chapter, error)
	ListChapters(ctx context.Context, query ChapterQuery, page PageRequest) ([]*domain.Chapter, error)
	CountChapters(ctx context.Context, query ChapterQuery) (int64, error)
	CountChaptersByVolume(ctx context.Context, nid string) (map[string]int64, error)
	// MaxChapterIndex returns the highest chapter index of a novel, or 0 when it has none.
	MaxChapterIndex(ctx context.Context, nid string) (int64, error)
}
