package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shadownovel/catalog/internal/config"
	"github.com/shadownovel/catalog/internal/domain"
	domainerrors "github.com/shadownovel/catalog/internal/errors"
	"github.com/shadownovel/catalog/internal/id"
	"github.com/shadownovel/catalog/internal/store"
	"github.com/shadownovel/catalog/internal/validation"
)

// DefaultMaxCreateAttempts bounds the index assignment retry loop when the
// configuration does not.
const DefaultMaxCreateAttempts = 3

// ChapterService manages chapters and keeps their novel's counters in step.
type ChapterService struct {
	store       store.Store
	validator   *validation.Validator
	paging      config.PagingConfig
	maxAttempts int
	logger      *slog.Logger
}

// NewChapterService creates a new chapter service.
func NewChapterService(
	store store.Store,
	validator *validation.Validator,
	paging config.PagingConfig,
	chapters config.ChaptersConfig,
	logger *slog.Logger,
) *ChapterService {
	attempts := chapters.MaxCreateAttempts
	if attempts < 1 {
		attempts = DefaultMaxCreateAttempts
	}
	return &ChapterService{
		store:       store,
		validator:   validator,
		paging:      paging,
		maxAttempts: attempts,
		logger:      logger,
	}
}

// CreateChapter stores the chapter at index chapter-count+1 and then bumps the novel's
// chapter count and, for a chapter in a volume, the volume's count.
//
// A concurrent writer can take the same index first. The insert then fails on the
// (nid, index) unique index and is retried with a fresh count, never reusing an index
// that already collided, up to the configured number of attempts.
//
// The counter increments are separate writes. When one fails the chapter stays stored:
// the returned chapter is non-nil together with the error.
func (s *ChapterService) CreateChapter(ctx context.Context, nc domain.NewChapter) (*domain.Chapter, error) {
	nc.Title = strings.TrimSpace(nc.Title)
	nc.Content = domain.NormalizeBlocks(nc.Content)

	if err := s.validator.Validate(nc); err != nil {
		return nil, err
	}

	novel, err := s.store.GetNovel(ctx, nc.NID)
	if err != nil {
		return nil, storeError(err, domainerrors.ReasonNovelNotFound, "novel "+nc.NID+" not found")
	}
	if nc.VID != "" {
		if _, ok := novel.Volume(nc.VID); !ok {
			return nil, domainerrors.Validation("vid", "VID_INVALID")
		}
	}

	chapter := &domain.Chapter{
		NID:           nc.NID,
		VID:           nc.VID,
		CID:           id.NewChapterID(),
		Title:         nc.Title,
		Content:       nc.Content,
		MatureContent: nc.MatureContent,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.insertWithNextIndex(ctx, chapter); err != nil {
		return nil, err
	}

	s.logger.Info("chapter created", "nid", chapter.NID, "cid", chapter.CID, "index", chapter.Index)

	if err := s.adjustCounters(ctx, chapter, 1); err != nil {
		return chapter, err
	}
	return chapter, nil
}

// insertWithNextIndex tries count+1 first. Deletions leave gaps, so after an ordinal
// conflict the next attempt goes just past the highest stored index instead.
func (s *ChapterService) insertWithNextIndex(ctx context.Context, chapter *domain.Chapter) error {
	next, err := s.store.CountChapters(ctx, store.ChapterQuery{NID: chapter.NID})
	if err != nil {
		return storeError(err, domainerrors.ReasonNovelNotFound, "count chapters")
	}
	next++

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		chapter.Index = next
		err := s.store.CreateChapter(ctx, chapter)
		switch {
		case err == nil:
			return nil
		case store.IsIndexConflict(err, store.IndexChapterOrdinal):
			s.logger.Debug("chapter index taken, retrying", "nid", chapter.NID, "index", chapter.Index, "attempt", attempt)
			highest, err := s.store.MaxChapterIndex(ctx, chapter.NID)
			if err != nil {
				return storeError(err, domainerrors.ReasonNovelNotFound, "max chapter index")
			}
			next = max(highest, chapter.Index) + 1
		case store.IsIndexConflict(err, store.IndexChapterCID), store.IsIndexConflict(err, store.IndexChapterNIDCID):
			return domainerrors.AlreadyExists(domainerrors.ReasonCIDExists, "chapter "+chapter.CID+" already exists").WithCause(err)
		default:
			return storeError(err, domainerrors.ReasonNovelNotFound, "create chapter")
		}
	}
	return domainerrors.Conflictf(domainerrors.ReasonIndexExhausted,
		"no free chapter index for novel %s after %d attempts", chapter.NID, s.maxAttempts)
}

// adjustCounters applies delta to the novel's and the chapter's volume's counters.
// Both writes are attempted even if the first fails.
func (s *ChapterService) adjustCounters(ctx context.Context, chapter *domain.Chapter, delta int64) error {
	var errs []error

	if err := s.store.IncrementNovelChapterCount(ctx, chapter.NID, delta); err != nil {
		s.logger.Error("novel chapter count not updated",
			"nid", chapter.NID, "cid", chapter.CID, "delta", delta, "error", err)
		errs = append(errs, storeError(err, domainerrors.ReasonNovelNotFound, "update novel "+chapter.NID+" chapter count"))
	}

	if chapter.VID != "" {
		if err := s.store.IncrementVolumeChapterCount(ctx, chapter.NID, chapter.VID, delta); err != nil {
			s.logger.Error("volume chapter count not updated",
				"nid", chapter.NID, "vid", chapter.VID, "cid", chapter.CID, "delta", delta, "error", err)
			errs = append(errs, storeError(err, domainerrors.ReasonNovelNotFound, "update volume "+chapter.VID+" chapter count"))
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// FindByID returns the chapter of novel nid with id cid, projected onto fields.
func (s *ChapterService) FindByID(ctx context.Context, nid, cid string, fields ...string) (*domain.Chapter, error) {
	if err := s.validator.Fields(domain.ChapterFields, fields); err != nil {
		return nil, err
	}

	chapter, err := s.store.GetChapter(ctx, nid, cid)
	if err != nil {
		return nil, storeError(err, domainerrors.ReasonChapterNotFound, "chapter "+cid+" not found")
	}
	return chapter.Project(fields...), nil
}

// FindByCID returns the chapter with id cid regardless of its novel.
func (s *ChapterService) FindByCID(ctx context.Context, cid string, fields ...string) (*domain.Chapter, error) {
	if err := s.validator.Fields(domain.ChapterFields, fields); err != nil {
		return nil, err
	}

	chapter, err := s.store.GetChapterByCID(ctx, cid)
	if err != nil {
		return nil, storeError(err, domainerrors.ReasonChapterNotFound, "chapter "+cid+" not found")
	}
	return chapter.Project(fields...), nil
}

// FindChapters returns one page of a novel's chapters ordered by index.
func (s *ChapterService) FindChapters(ctx context.Context, q store.ChapterQuery, page store.PageRequest, fields ...string) (*store.Page[*domain.Chapter], error) {
	if q.NID == "" {
		return nil, domainerrors.Validation("nid", "NID_REQUIRED")
	}
	if err := s.validator.Fields(domain.ChapterFields, fields); err != nil {
		return nil, err
	}

	page.Normalize(s.paging.DefaultLimit, s.paging.MaxLimit, store.SortIndex)
	if err := validateSort(&page, store.ChapterSortFields); err != nil {
		return nil, err
	}

	var (
		items []*domain.Chapter
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.ListChapters(gctx, q, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountChapters(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err, domainerrors.ReasonChapterNotFound, "find chapters")
	}

	for i, c := range items {
		items[i] = c.Project(fields...)
	}
	return &store.Page[*domain.Chapter]{
		Items:      items,
		Offset:     page.Offset,
		Limit:      page.Limit,
		TotalCount: total,
	}, nil
}

// UpdateChapter changes the title, content or mature flag of a chapter.
func (s *ChapterService) UpdateChapter(ctx context.Context, nid, cid string, update domain.ChapterUpdate) error {
	update.Title = trimPtr(update.Title)
	if update.Content != nil {
		update.Content = domain.NormalizeBlocks(update.Content)
	}

	if err := s.validator.Validate(update); err != nil {
		return err
	}

	if err := s.store.UpdateChapter(ctx, nid, cid, update); err != nil {
		return storeError(err, domainerrors.ReasonChapterNotFound, "chapter "+cid+" not found")
	}
	return nil
}

// DeleteChapter removes the chapter and then decrements its novel's counters. Indexes of
// the remaining chapters are not renumbered.
func (s *ChapterService) DeleteChapter(ctx context.Context, nid, cid string) error {
	deleted, err := s.store.DeleteChapter(ctx, nid, cid)
	if err != nil {
		return storeError(err, domainerrors.ReasonChapterNotFound, "chapter "+cid+" not found")
	}

	s.logger.Info("chapter deleted", "nid", nid, "cid", cid, "index", deleted.Index)
	return s.adjustCounters(ctx, deleted, -1)
}
