package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/service"
	"github.com/shadownovel/catalog/internal/store"
)

func (s *Server) registerNovelRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createNovel",
		Method:        http.MethodPost,
		Path:          "/api/v1/novels",
		Summary:       "Create novel",
		Description:   "Creates a novel, optionally as a book with one initial volume",
		Tags:          []string{"Novels"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNovel)

	huma.Register(s.api, huma.Operation{
		OperationID: "listNovels",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels",
		Summary:     "List novels",
		Description: "Returns a filtered, sorted page of novels with the total match count",
		Tags:        []string{"Novels"},
	}, s.handleListNovels)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNovel",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{nid}",
		Summary:     "Get novel",
		Description: "Returns a novel with its volumes",
		Tags:        []string{"Novels"},
	}, s.handleGetNovel)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateNovel",
		Method:        http.MethodPatch,
		Path:          "/api/v1/novels/{nid}",
		Summary:       "Update novel",
		Description:   "Sets fields, counts a view and adds or removes a volume in one write",
		Tags:          []string{"Novels"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUpdateNovel)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteNovel",
		Method:        http.MethodDelete,
		Path:          "/api/v1/novels/{nid}",
		Summary:       "Delete novel",
		Description:   "Deletes the novel record. Its chapters are kept.",
		Tags:          []string{"Novels"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteNovel)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNovelCounters",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{nid}/counters",
		Summary:     "Inspect counters",
		Description: "Compares stored chapter counters with the chapters on record",
		Tags:        []string{"Novels"},
	}, s.handleGetCounters)

	huma.Register(s.api, huma.Operation{
		OperationID: "reconcileNovelCounters",
		Method:      http.MethodPost,
		Path:        "/api/v1/novels/{nid}/counters/reconcile",
		Summary:     "Reconcile counters",
		Description: "Overwrites stored chapter counters with recomputed values",
		Tags:        []string{"Novels"},
	}, s.handleReconcileCounters)
}

// === DTOs ===

// CreateNovelRequest is the request body for creating a novel.
type CreateNovelRequest struct {
	Title       string             `json:"title,omitempty" doc:"Title (3-128 characters)"`
	Cover       string             `json:"cover,omitempty" doc:"Cover image URL"`
	AuthorID    string             `json:"authorId,omitempty" doc:"UID of the author"`
	Description []ContentBlockBody `json:"description,omitempty" doc:"Description blocks"`
	Status      string             `json:"status,omitempty" doc:"ONGOING or COMPLETED"`
	Genre       string             `json:"genre,omitempty" doc:"Primary genre"`
	Tags        []string           `json:"tags,omitempty" doc:"Tags"`
}

// CreateNovelInput wraps the create novel request for Huma.
type CreateNovelInput struct {
	WithInitialVolume bool `query:"withInitialVolume" doc:"Create the novel as a book with one volume"`
	Body              CreateNovelRequest
}

// NovelOutput wraps a novel for Huma.
type NovelOutput struct {
	Body *domain.Novel
}

// GetNovelInput contains parameters for getting a novel.
type GetNovelInput struct {
	NID    string   `path:"nid" doc:"Novel ID"`
	Fields []string `query:"fields" doc:"Comma-separated fields to return"`
}

// ListNovelsInput contains filter and paging parameters for listing novels.
type ListNovelsInput struct {
	Title     string   `query:"title" doc:"Case-insensitive title substring"`
	AuthorID  string   `query:"authorId" doc:"Author UID"`
	Status    string   `query:"status" doc:"ONGOING or COMPLETED"`
	Genre     string   `query:"genre" doc:"Genre"`
	Tags      []string `query:"tags" doc:"Comma-separated tags; a novel must carry all of them"`
	Offset    int      `query:"offset" minimum:"0" doc:"Items to skip"`
	Limit     int      `query:"limit" minimum:"0" doc:"Page size (default 20, max 100)"`
	SortField string   `query:"sortField" doc:"createdAt, title, views or chapterCount"`
	SortOrder string   `query:"sortOrder" doc:"asc or desc"`
	Fields    []string `query:"fields" doc:"Comma-separated fields to return"`
}

// NovelPageOutput wraps a page of novels for Huma.
type NovelPageOutput struct {
	Body *store.Page[*domain.Novel]
}

// VolumeOpBody adds or removes one volume.
type VolumeOpBody struct {
	Operation string `json:"operation,omitempty" doc:"add or remove"`
	Name      string `json:"name,omitempty" doc:"Name of a new volume"`
	VID       string `json:"vid,omitempty" doc:"Volume to remove"`
}

// UpdateNovelRequest is the request body for updating a novel.
type UpdateNovelRequest struct {
	Title         *string            `json:"title,omitempty" doc:"New title"`
	Cover         *string            `json:"cover,omitempty" doc:"New cover URL"`
	Description   []ContentBlockBody `json:"description,omitempty" doc:"New description"`
	Status        *string            `json:"status,omitempty" doc:"New status"`
	Genre         *string            `json:"genre,omitempty" doc:"New genre"`
	Tags          []string           `json:"tags,omitempty" doc:"Replacement tags"`
	IncrementView bool               `json:"incrementView,omitempty" doc:"Count one view"`
	Volume        *VolumeOpBody      `json:"volume,omitempty" doc:"Volume edit"`
}

// UpdateNovelInput wraps the update novel request for Huma.
type UpdateNovelInput struct {
	NID  string `path:"nid" doc:"Novel ID"`
	Body UpdateNovelRequest
}

// NovelIDInput addresses one novel.
type NovelIDInput struct {
	NID string `path:"nid" doc:"Novel ID"`
}

// CountersOutput wraps a counter comparison for Huma.
type CountersOutput struct {
	Body *service.CounterDrift
}

// === Handlers ===

func (s *Server) handleCreateNovel(ctx context.Context, input *CreateNovelInput) (*NovelOutput, error) {
	b := input.Body
	novel, err := s.services.Novel.CreateNovel(ctx, domain.NewNovel{
		Title:       b.Title,
		Cover:       b.Cover,
		AuthorID:    b.AuthorID,
		Description: toBlocks(b.Description),
		Status:      toStatus(b.Status),
		Genre:       toGenre(b.Genre),
		Tags:        toTags(b.Tags),
	}, input.WithInitialVolume)
	if err != nil {
		return nil, s.fail(err)
	}
	return &NovelOutput{Body: novel}, nil
}

func (s *Server) handleGetNovel(ctx context.Context, input *GetNovelInput) (*NovelOutput, error) {
	novel, err := s.services.Novel.FindByID(ctx, input.NID, fieldList(input.Fields)...)
	if err != nil {
		return nil, s.fail(err)
	}
	return &NovelOutput{Body: novel}, nil
}

func (s *Server) handleListNovels(ctx context.Context, input *ListNovelsInput) (*NovelPageOutput, error) {
	q := store.NovelQuery{
		Title:    input.Title,
		AuthorID: input.AuthorID,
		Status:   toStatus(input.Status),
		Genre:    toGenre(input.Genre),
		Tags:     toTags(input.Tags),
	}
	page := pageRequest(input.Offset, input.Limit, input.SortField, input.SortOrder)

	result, err := s.services.Novel.FindNovels(ctx, q, page, fieldList(input.Fields)...)
	if err != nil {
		return nil, s.fail(err)
	}
	return &NovelPageOutput{Body: result}, nil
}

func (s *Server) handleUpdateNovel(ctx context.Context, input *UpdateNovelInput) (*struct{}, error) {
	b := input.Body
	update := domain.NovelUpdate{
		Title:       b.Title,
		Cover:       b.Cover,
		Description: toBlocks(b.Description),
		Tags:        toTags(b.Tags),
	}
	if b.Status != nil {
		status := toStatus(*b.Status)
		update.Status = &status
	}
	if b.Genre != nil {
		genre := toGenre(*b.Genre)
		update.Genre = &genre
	}

	var volume *domain.VolumeOp
	if b.Volume != nil {
		volume = &domain.VolumeOp{
			Operation: domain.VolumeOpKind(b.Volume.Operation),
			Name:      b.Volume.Name,
			VID:       b.Volume.VID,
		}
	}

	if err := s.services.Novel.UpdateNovel(ctx, input.NID, update, b.IncrementView, volume); err != nil {
		return nil, s.fail(err)
	}
	return nil, nil
}

func (s *Server) handleDeleteNovel(ctx context.Context, input *NovelIDInput) (*struct{}, error) {
	if err := s.services.Novel.DeleteNovel(ctx, input.NID); err != nil {
		return nil, s.fail(err)
	}
	return nil, nil
}

func (s *Server) handleGetCounters(ctx context.Context, input *NovelIDInput) (*CountersOutput, error) {
	drift, err := s.services.Novel.InspectCounters(ctx, input.NID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &CountersOutput{Body: drift}, nil
}

func (s *Server) handleReconcileCounters(ctx context.Context, input *NovelIDInput) (*NovelOutput, error) {
	novel, err := s.services.Novel.ReconcileCounters(ctx, input.NID)
	if err != nil {
		return nil, s.fail(err)
	}
	return &NovelOutput{Body: novel}, nil
}
