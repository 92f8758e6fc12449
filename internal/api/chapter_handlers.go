package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/store"
)

func (s *Server) registerChapterRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createChapter",
		Method:        http.MethodPost,
		Path:          "/api/v1/novels/{nid}/chapters",
		Summary:       "Create chapter",
		Description:   "Appends a chapter to the novel at the next index",
		Tags:          []string{"Chapters"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "listChapters",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{nid}/chapters",
		Summary:     "List chapters",
		Description: "Returns a page of the novel's chapters ordered by index",
		Tags:        []string{"Chapters"},
	}, s.handleListChapters)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChapter",
		Method:      http.MethodGet,
		Path:        "/api/v1/novels/{nid}/chapters/{cid}",
		Summary:     "Get chapter",
		Description: "Returns one chapter of the novel",
		Tags:        []string{"Chapters"},
	}, s.handleGetChapter)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateChapter",
		Method:        http.MethodPatch,
		Path:          "/api/v1/novels/{nid}/chapters/{cid}",
		Summary:       "Update chapter",
		Description:   "Changes the title, content or mature flag",
		Tags:          []string{"Chapters"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUpdateChapter)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteChapter",
		Method:        http.MethodDelete,
		Path:          "/api/v1/novels/{nid}/chapters/{cid}",
		Summary:       "Delete chapter",
		Description:   "Deletes the chapter and decrements the novel's counters",
		Tags:          []string{"Chapters"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChapterByCID",
		Method:      http.MethodGet,
		Path:        "/api/v1/chapters/{cid}",
		Summary:     "Get chapter by id",
		Description: "Returns a chapter by its globally unique id",
		Tags:        []string{"Chapters"},
	}, s.handleGetChapterByCID)
}

// === DTOs ===

// CreateChapterRequest is the request body for creating a chapter.
type CreateChapterRequest struct {
	VID           string             `json:"vid,omitempty" doc:"Volume of the novel holding the chapter"`
	Title         string             `json:"title,omitempty" doc:"Title (3-64 characters)"`
	Content       []ContentBlockBody `json:"content,omitempty" doc:"Chapter body"`
	MatureContent bool               `json:"matureContent,omitempty" doc:"Marks mature content"`
}

// CreateChapterInput wraps the create chapter request for Huma.
type CreateChapterInput struct {
	NID  string `path:"nid" doc:"Novel ID"`
	Body CreateChapterRequest
}

// ChapterOutput wraps a chapter for Huma.
type ChapterOutput struct {
	Body *domain.Chapter
}

// ListChaptersInput contains paging parameters for listing chapters.
type ListChaptersInput struct {
	NID       string   `path:"nid" doc:"Novel ID"`
	VID       string   `query:"vid" doc:"Only chapters of this volume"`
	Offset    int      `query:"offset" minimum:"0" doc:"Items to skip"`
	Limit     int      `query:"limit" minimum:"0" doc:"Page size (default 20, max 100)"`
	SortOrder string   `query:"sortOrder" doc:"asc or desc by index"`
	Fields    []string `query:"fields" doc:"Comma-separated fields to return"`
}

// ChapterPageOutput wraps a page of chapters for Huma.
type ChapterPageOutput struct {
	Body *store.Page[*domain.Chapter]
}

// GetChapterInput addresses one chapter of a novel.
type GetChapterInput struct {
	NID    string   `path:"nid" doc:"Novel ID"`
	CID    string   `path:"cid" doc:"Chapter ID"`
	Fields []string `query:"fields" doc:"Comma-separated fields to return"`
}

// GetChapterByCIDInput addresses a chapter by id alone.
type GetChapterByCIDInput struct {
	CID    string   `path:"cid" doc:"Chapter ID"`
	Fields []string `query:"fields" doc:"Comma-separated fields to return"`
}

// UpdateChapterRequest is the request body for updating a chapter.
type UpdateChapterRequest struct {
	Title         *string            `json:"title,omitempty" doc:"New title"`
	Content       []ContentBlockBody `json:"content,omitempty" doc:"New body"`
	MatureContent *bool              `json:"matureContent,omitempty" doc:"New mature flag"`
}

// UpdateChapterInput wraps the update chapter request for Huma.
type UpdateChapterInput struct {
	NID  string `path:"nid" doc:"Novel ID"`
	CID  string `path:"cid" doc:"Chapter ID"`
	Body UpdateChapterRequest
}

// DeleteChapterInput addresses the chapter to delete.
type DeleteChapterInput struct {
	NID string `path:"nid" doc:"Novel ID"`
	CID string `path:"cid" doc:"Chapter ID"`
}

// === Handlers ===

func (s *Server) handleCreateChapter(ctx context.Context, input *CreateChapterInput) (*ChapterOutput, error) {
	chapter, err := s.services.Chapter.CreateChapter(ctx, domain.NewChapter{
		NID:           input.NID,
		VID:           input.Body.VID,
		Title:         input.Body.Title,
		Content:       toBlocks(input.Body.Content),
		MatureContent: input.Body.MatureContent,
	})
	if err != nil {
		if chapter != nil {
			s.logger.Warn("chapter stored but counters not updated", "nid", chapter.NID, "cid", chapter.CID)
		}
		return nil, s.fail(err)
	}
	return &ChapterOutput{Body: chapter}, nil
}

func (s *Server) handleListChapters(ctx context.Context, input *ListChaptersInput) (*ChapterPageOutput, error) {
	q := store.ChapterQuery{NID: input.NID, VID: input.VID}
	page := pageRequest(input.Offset, input.Limit, "", input.SortOrder)

	result, err := s.services.Chapter.FindChapters(ctx, q, page, fieldList(input.Fields)...)
	if err != nil {
		return nil, s.fail(err)
	}
	return &ChapterPageOutput{Body: result}, nil
}

func (s *Server) handleGetChapter(ctx context.Context, input *GetChapterInput) (*ChapterOutput, error) {
	chapter, err := s.services.Chapter.FindByID(ctx, input.NID, input.CID, fieldList(input.Fields)...)
	if err != nil {
		return nil, s.fail(err)
	}
	return &ChapterOutput{Body: chapter}, nil
}

func (s *Server) handleGetChapterByCID(ctx context.Context, input *GetChapterByCIDInput) (*ChapterOutput, error) {
	chapter, err := s.services.Chapter.FindByCID(ctx, input.CID, fieldList(input.Fields)...)
	if err != nil {
		return nil, s.fail(err)
	}
	return &ChapterOutput{Body: chapter}, nil
}

func (s *Server) handleUpdateChapter(ctx context.Context, input *UpdateChapterInput) (*struct{}, error) {
	err := s.services.Chapter.UpdateChapter(ctx, input.NID, input.CID, domain.ChapterUpdate{
		Title:         input.Body.Title,
		Content:       toBlocks(input.Body.Content),
		MatureContent: input.Body.MatureContent,
	})
	if err != nil {
		return nil, s.fail(err)
	}
	return nil, nil
}

func (s *Server) handleDeleteChapter(ctx context.Context, input *DeleteChapterInput) (*struct{}, error) {
	if err := s.services.Chapter.DeleteChapter(ctx, input.NID, input.CID); err != nil {
		return nil, s.fail(err)
	}
	return nil, nil
}
