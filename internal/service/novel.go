package service

import (
	"context"
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

// NovelService manages novels and their embedded volumes.
type NovelService struct {
	store     store.Store
	validator *validation.Validator
	paging    config.PagingConfig
	logger    *slog.Logger
}

// NewNovelService creates a new novel service.
func NewNovelService(store store.Store, validator *validation.Validator, paging config.PagingConfig, logger *slog.Logger) *NovelService {
	return &NovelService{
		store:     store,
		validator: validator,
		paging:    paging,
		logger:    logger,
	}
}

// CreateNovel stores a new novel with zeroed counters. With withInitialVolume the novel
// starts as a book holding one unnamed volume; otherwise it is a series.
func (s *NovelService) CreateNovel(ctx context.Context, nn domain.NewNovel, withInitialVolume bool) (*domain.Novel, error) {
	nn.Title = strings.TrimSpace(nn.Title)
	nn.Description = domain.NormalizeBlocks(nn.Description)

	if err := s.validator.Validate(nn); err != nil {
		return nil, err
	}

	novel := &domain.Novel{
		NID:          id.NewNovelID(),
		Title:        nn.Title,
		Cover:        nn.Cover,
		AuthorID:     nn.AuthorID,
		Description:  nn.Description,
		Status:       nn.Status,
		Genre:        nn.Genre,
		Tags:         nn.Tags,
		Views:        0,
		ChapterCount: 0,
		CreatedAt:    time.Now().UTC(),
	}
	if withInitialVolume {
		novel.Volumes = []domain.Volume{{VID: id.NewVolumeID()}}
	}

	if err := s.store.CreateNovel(ctx, novel); err != nil {
		if store.IsIndexConflict(err, store.IndexNovelNID) || store.IsIndexConflict(err, store.IndexNovelAuthorNID) {
			return nil, domainerrors.AlreadyExists(domainerrors.ReasonNovelExists, "novel "+novel.NID+" already exists").WithCause(err)
		}
		return nil, storeError(err, domainerrors.ReasonNovelNotFound, "create novel")
	}

	s.logger.Info("novel created", "nid", novel.NID, "author_id", novel.AuthorID, "partitioned", withInitialVolume)
	return novel, nil
}

// FindByID returns the novel projected onto fields.
func (s *NovelService) FindByID(ctx context.Context, nid string, fields ...string) (*domain.Novel, error) {
	if err := s.validator.Fields(domain.NovelFields, fields); err != nil {
		return nil, err
	}

	novel, err := s.store.GetNovel(ctx, nid)
	if err != nil {
		return nil, storeError(err, domainerrors.ReasonNovelNotFound, "novel "+nid+" not found")
	}
	return novel.Project(fields...), nil
}

// FindNovels returns one page of the novels matching q. The page and the total count
// are read concurrently, so TotalCount can disagree with Items under concurrent writes.
func (s *NovelService) FindNovels(ctx context.Context, q store.NovelQuery, page store.PageRequest, fields ...string) (*store.Page[*domain.Novel], error) {
	if err := s.validator.Fields(domain.NovelFields, fields); err != nil {
		return nil, err
	}
	if err := validateNovelQuery(q); err != nil {
		return nil, err
	}

	page.Normalize(s.paging.DefaultLimit, s.paging.MaxLimit, store.SortCreatedAt)
	if err := validateSort(&page, store.NovelSortFields); err != nil {
		return nil, err
	}

	filter := store.NewNovelFilter().Query(q).Build()

	var (
		items []*domain.Novel
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.ListNovels(gctx, filter, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountNovels(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err, domainerrors.ReasonNovelNotFound, "find novels")
	}

	for i, n := range items {
		items[i] = n.Project(fields...)
	}
	return &store.Page[*domain.Novel]{
		Items:      items,
		Offset:     page.Offset,
		Limit:      page.Limit,
		TotalCount: total,
	}, nil
}

// UpdateNovel applies the field update, the optional view increment and the optional
// volume operation as one write on the novel document. Adding a volume assigns its vid.
// Removing a volume leaves the chapters that reference it untouched.
func (s *NovelService) UpdateNovel(ctx context.Context, nid string, update domain.NovelUpdate, incrementView bool, volume *domain.VolumeOp) error {
	update.Title = trimPtr(update.Title)
	if update.Description != nil {
		update.Description = domain.NormalizeBlocks(update.Description)
	}

	if err := s.validator.Validate(update); err != nil {
		return err
	}

	var op *domain.VolumeOp
	if volume != nil {
		v := *volume
		v.Name = strings.TrimSpace(v.Name)
		if err := s.validator.Validate(v); err != nil {
			return err
		}
		if v.Operation == domain.VolumeAdd {
			v.VID = id.NewVolumeID()
		}
		op = &v
	}

	err := s.store.UpdateNovel(ctx, nid, store.NovelUpdate{
		Fields:         update,
		IncrementViews: incrementView,
		Volume:         op,
	})
	if err != nil {
		if store.IsIndexConflict(err, store.IndexVolumeVID) {
			return domainerrors.Conflict("VID_ALREADY_EXISTS", "volume id collision on novel "+nid).WithCause(err)
		}
		return storeError(err, domainerrors.ReasonNovelNotFound, "novel "+nid+" not found")
	}

	if op != nil {
		s.logger.Debug("novel volumes updated", "nid", nid, "operation", op.Operation, "vid", op.VID)
	}
	return nil
}

// DeleteNovel removes the novel record only. Its chapters stay in the store.
func (s *NovelService) DeleteNovel(ctx context.Context, nid string) error {
	if err := s.store.DeleteNovel(ctx, nid); err != nil {
		return storeError(err, domainerrors.ReasonNovelNotFound, "novel "+nid+" not found")
	}
	s.logger.Info("novel deleted", "nid", nid)
	return nil
}

// VolumeDrift compares one volume's stored chapter count with the chapters on record.
type VolumeDrift struct {
	VID    string `json:"vid"`
	Stored int64  `json:"stored"`
	Actual int64  `json:"actual"`
}

// CounterDrift compares a novel's stored counters with the chapters on record.
type CounterDrift struct {
	NID     string        `json:"nid"`
	Stored  int64         `json:"stored"`
	Actual  int64         `json:"actual"`
	Volumes []VolumeDrift `json:"volumes,omitempty"`
}

// Drifted reports whether any stored counter disagrees with the recomputed one.
func (d *CounterDrift) Drifted() bool {
	if d.Stored != d.Actual {
		return true
	}
	for _, v := range d.Volumes {
		if v.Stored != v.Actual {
			return true
		}
	}
	return false
}

// InspectCounters recomputes the novel's counters from its chapters without writing.
func (s *NovelService) InspectCounters(ctx context.Context, nid string) (*CounterDrift, error) {
	novel, err := s.store.GetNovel(ctx, nid)
	if err != nil {
		return nil, storeError(err, domainerrors.ReasonNovelNotFound, "novel "+nid+" not found")
	}
	return s.inspect(ctx, novel)
}

func (s *NovelService) inspect(ctx context.Context, novel *domain.Novel) (*CounterDrift, error) {
	total, err := s.store.CountChapters(ctx, store.ChapterQuery{NID: novel.NID})
	if err != nil {
		return nil, storeError(err, domainerrors.ReasonNovelNotFound, "count chapters")
	}
	perVolume, err := s.store.CountChaptersByVolume(ctx, novel.NID)
	if err != nil {
		return nil, storeError(err, domainerrors.ReasonNovelNotFound, "count chapters by volume")
	}

	drift := &CounterDrift{NID: novel.NID, Stored: novel.ChapterCount, Actual: total}
	for _, v := range novel.Volumes {
		drift.Volumes = append(drift.Volumes, VolumeDrift{VID: v.VID, Stored: v.ChapterCount, Actual: perVolume[v.VID]})
	}
	return drift, nil
}

// ReconcileCounters overwrites the novel's chapter counters with counts recomputed from
// the chapter collection and returns the repaired novel.
func (s *NovelService) ReconcileCounters(ctx context.Context, nid string) (*domain.Novel, error) {
	drift, err := s.InspectCounters(ctx, nid)
	if err != nil {
		return nil, err
	}

	perVolume := make(map[string]int64, len(drift.Volumes))
	for _, v := range drift.Volumes {
		perVolume[v.VID] = v.Actual
	}
	if err := s.store.SetChapterCounts(ctx, nid, drift.Actual, perVolume); err != nil {
		return nil, storeError(err, domainerrors.ReasonNovelNotFound, "novel "+nid+" not found")
	}

	if drift.Drifted() {
		s.logger.Info("chapter counters reconciled", "nid", nid, "stored", drift.Stored, "actual", drift.Actual)
	}

	return s.FindByID(ctx, nid)
}

func validateNovelQuery(q store.NovelQuery) error {
	if q.Status != "" && !q.Status.Valid() {
		return domainerrors.Validation("status", "STATUS_INVALID")
	}
	if q.Genre != "" && !q.Genre.Valid() {
		return domainerrors.Validation("genre", "GENRE_INVALID")
	}
	for _, t := range q.Tags {
		if !t.Valid() {
			return domainerrors.Validation("tags", "TAGS_INVALID")
		}
	}
	return nil
}

func validateSort(page *store.PageRequest, allowed []string) error {
	if page.ValidSort(allowed) {
		return nil
	}
	if page.SortOrder != store.SortAsc && page.SortOrder != store.SortDesc {
		return domainerrors.Validation("sortOrder", "SORT_ORDER_INVALID")
	}
	return domainerrors.Validation("sortField", "SORT_FIELD_INVALID")
}
