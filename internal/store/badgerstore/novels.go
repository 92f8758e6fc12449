package badgerstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/store"
)

// CreateNovel stores a novel with its embedded volumes.
func (s *Store) CreateNovel(ctx context.Context, novel *domain.Novel) error {
	if err := s.novels.Create(ctx, novel.NID, novel); err != nil {
		return err
	}
	s.logger.Debug("novel created", "nid", novel.NID, "volumes", len(novel.Volumes))
	return nil
}

// GetNovel retrieves a novel by nid.
func (s *Store) GetNovel(ctx context.Context, nid string) (*domain.Novel, error) {
	return s.novels.Get(ctx, nid)
}

// UpdateNovel applies field sets, the view increment and the volume edit in one
// transaction.
func (s *Store) UpdateNovel(ctx context.Context, nid string, update store.NovelUpdate) error {
	err := s.novels.Mutate(ctx, nid, func(n *domain.Novel) error {
		update.Fields.ApplyTo(n)
		if update.IncrementViews {
			n.Views++
		}
		if op := update.Volume; op != nil {
			switch op.Operation {
			case domain.VolumeAdd:
				if _, exists := n.Volume(op.VID); exists {
					return store.Conflict(store.IndexVolumeVID, nid+":"+op.VID)
				}
			case domain.VolumeRemove:
			default:
				return fmt.Errorf("unknown volume operation %q", op.Operation)
			}
			op.ApplyTo(n)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("novel updated", "nid", nid, "views", update.IncrementViews, "volume_op", update.Volume != nil)
	return nil
}

// DeleteNovel removes the novel document. Chapters are untouched.
func (s *Store) DeleteNovel(ctx context.Context, nid string) error {
	if _, err := s.novels.Delete(ctx, nid); err != nil {
		return err
	}
	s.logger.Debug("novel deleted", "nid", nid)
	return nil
}

// matchingNovels scans every novel and keeps those accepted by filter.
func (s *Store) matchingNovels(ctx context.Context, filter store.NovelFilter) ([]*domain.Novel, error) {
	var out []*domain.Novel
	for n, err := range s.novels.List(ctx) {
		if err != nil {
			return nil, err
		}
		if filter.Matches(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// ListNovels returns one page of novels matching filter.
func (s *Store) ListNovels(ctx context.Context, filter store.NovelFilter, page store.PageRequest) ([]*domain.Novel, error) {
	novels, err := s.matchingNovels(ctx, filter)
	if err != nil {
		return nil, err
	}

	compare := novelComparator(page.SortField)
	slices.SortStableFunc(novels, func(a, b *domain.Novel) int {
		c := compare(a, b)
		if c == 0 {
			c = strings.Compare(a.NID, b.NID)
		}
		if page.SortOrder == store.SortDesc {
			return -c
		}
		return c
	})

	start, end := page.Window(len(novels))
	return novels[start:end], nil
}

func novelComparator(field string) func(a, b *domain.Novel) int {
	switch field {
	case store.SortTitle:
		return func(a, b *domain.Novel) int { return strings.Compare(a.Title, b.Title) }
	case store.SortViews:
		return func(a, b *domain.Novel) int { return cmp.Compare(a.Views, b.Views) }
	case store.SortChapterCount:
		return func(a, b *domain.Novel) int { return cmp.Compare(a.ChapterCount, b.ChapterCount) }
	default:
		return func(a, b *domain.Novel) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// CountNovels counts novels matching filter.
func (s *Store) CountNovels(ctx context.Context, filter store.NovelFilter) (int64, error) {
	novels, err := s.matchingNovels(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(novels)), nil
}

// IncrementNovelChapterCount atomically adds delta to the novel's chapter counter.
func (s *Store) IncrementNovelChapterCount(ctx context.Context, nid string, delta int64) error {
	return s.novels.Mutate(ctx, nid, func(n *domain.Novel) error {
		n.ChapterCount += delta
		return nil
	})
}

// IncrementVolumeChapterCount atomically adds delta to a volume's chapter counter.
// A volume that no longer exists is skipped.
func (s *Store) IncrementVolumeChapterCount(ctx context.Context, nid, vid string, delta int64) error {
	return s.novels.Mutate(ctx, nid, func(n *domain.Novel) error {
		v, ok := n.Volume(vid)
		if !ok {
			s.logger.Debug("volume counter skipped, volume removed", "nid", nid, "vid", vid)
			return nil
		}
		v.ChapterCount += delta
		return nil
	})
}

// SetChapterCounts overwrites the novel and volume counters atomically.
// Volumes missing from perVolume are set to zero.
func (s *Store) SetChapterCounts(ctx context.Context, nid string, total int64, perVolume map[string]int64) error {
	return s.novels.Mutate(ctx, nid, func(n *domain.Novel) error {
		n.ChapterCount = total
		for i := range n.Volumes {
			n.Volumes[i].ChapterCount = perVolume[n.Volumes[i].VID]
		}
		return nil
	})
}
