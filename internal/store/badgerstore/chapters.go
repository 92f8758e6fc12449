package badgerstore

import (
	"context"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/store"
)

// CreateChapter stores a chapter. The (nid, index) index rejects a taken ordinal.
func (s *Store) CreateChapter(ctx context.Context, c *domain.Chapter) error {
	if err := s.chapters.Create(ctx, c.CID, c); err != nil {
		return err
	}
	s.logger.Debug("chapter created", "nid", c.NID, "cid", c.CID, "index", c.Index)
	return nil
}

// GetChapter retrieves a chapter by novel and chapter id.
func (s *Store) GetChapter(ctx context.Context, nid, cid string) (*domain.Chapter, error) {
	return s.chapters.GetByIndex(ctx, store.IndexChapterNIDCID, nid+":"+cid)
}

// GetChapterByCID retrieves a chapter by its globally unique id.
func (s *Store) GetChapterByCID(ctx context.Context, cid string) (*domain.Chapter, error) {
	return s.chapters.Get(ctx, cid)
}

// UpdateChapter sets the mutable chapter fields atomically.
func (s *Store) UpdateChapter(ctx context.Context, nid, cid string, update domain.ChapterUpdate) error {
	return s.chapters.MutateByIndex(ctx, store.IndexChapterNIDCID, nid+":"+cid, func(c *domain.Chapter) error {
		update.ApplyTo(c)
		return nil
	})
}

// DeleteChapter removes a chapter and returns the deleted record.
func (s *Store) DeleteChapter(ctx context.Context, nid, cid string) (*domain.Chapter, error) {
	c, err := s.chapters.DeleteByIndex(ctx, store.IndexChapterNIDCID, nid+":"+cid)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("chapter deleted", "nid", nid, "cid", cid, "index", c.Index)
	return c, nil
}

// ListChapters returns one page of a novel's chapters ordered by index, walking the
// ordinal index so no sort is needed.
func (s *Store) ListChapters(ctx context.Context, q store.ChapterQuery, page store.PageRequest) ([]*domain.Chapter, error) {
	out := make([]*domain.Chapter, 0, page.Limit)
	skipped := 0
	for c, err := range s.chapters.ListByIndex(ctx, store.IndexChapterOrdinal, q.NID+":", page.SortOrder == store.SortDesc) {
		if err != nil {
			return nil, err
		}
		if !q.Matches(c) {
			continue
		}
		if skipped < page.Offset {
			skipped++
			continue
		}
		out = append(out, c)
		if len(out) == page.Limit {
			break
		}
	}
	return out, nil
}

// CountChapters counts chapters selected by q.
func (s *Store) CountChapters(ctx context.Context, q store.ChapterQuery) (int64, error) {
	var count int64
	for c, err := range s.chapters.ListByIndex(ctx, store.IndexChapterOrdinal, q.NID+":", false) {
		if err != nil {
			return 0, err
		}
		if q.Matches(c) {
			count++
		}
	}
	return count, nil
}

// MaxChapterIndex reads the last ordinal key of the novel. Ordinals are zero-padded, so
// key order is index order.
func (s *Store) MaxChapterIndex(ctx context.Context, nid string) (int64, error) {
	for c, err := range s.chapters.ListByIndex(ctx, store.IndexChapterOrdinal, nid+":", true) {
		if err != nil {
			return 0, err
		}
		return c.Index, nil
	}
	return 0, nil
}

// CountChaptersByVolume counts a novel's chapters per vid. Chapters without a vid are
// not included.
func (s *Store) CountChaptersByVolume(ctx context.Context, nid string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for c, err := range s.chapters.ListByIndex(ctx, store.IndexChapterOrdinal, nid+":", false) {
		if err != nil {
			return nil, err
		}
		if c.VID != "" {
			counts[c.VID]++
		}
	}
	return counts, nil
}
