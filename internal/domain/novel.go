package domain

import (
	"slices"
	"time"
)

// Novel is the aggregate root of the catalog. Volumes are embedded and share the
// novel's lifetime.
//
// A nil Volumes slice marks a series that is not partitioned into volumes. A non-nil
// slice, even an empty one, marks a book.
type Novel struct {
	NID          string         `json:"nid"`
	Title        string         `json:"title"`
	Cover        string         `json:"cover,omitempty"`
	AuthorID     string         `json:"authorId"`
	Description  []ContentBlock `json:"description"`
	Status       NovelStatus    `json:"status"`
	Genre        Genre          `json:"genre"`
	Tags         []Tag          `json:"tags"`
	Volumes      []Volume       `json:"volumes"`
	Views        int64          `json:"views"`
	ChapterCount int64          `json:"chapterCount"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Volume is an embedded partition of a novel.
type Volume struct {
	VID          string `json:"vid"`
	Name         string `json:"name,omitempty"`
	ChapterCount int64  `json:"chapterCount"`
}

// IsPartitioned reports whether the novel is divided into volumes.
func (n *Novel) IsPartitioned() bool {
	return n.Volumes != nil
}

// Volume returns the embedded volume with the given vid.
func (n *Novel) Volume(vid string) (*Volume, bool) {
	i := slices.IndexFunc(n.Volumes, func(v Volume) bool { return v.VID == vid })
	if i < 0 {
		return nil, false
	}
	return &n.Volumes[i], true
}

// NewNovel is the candidate accepted by novel creation.
type NewNovel struct {
	Title       string         `json:"title" validate:"required,min=3,max=128"`
	Cover       string         `json:"cover,omitempty" validate:"omitempty,max=512"`
	AuthorID    string         `json:"authorId" validate:"required"`
	Description []ContentBlock `json:"description" validate:"required,min=1,dive"`
	Status      NovelStatus    `json:"status" validate:"required,novel_status"`
	Genre       Genre          `json:"genre" validate:"required,novel_genre"`
	Tags        []Tag          `json:"tags" validate:"required,min=1,unique,dive,novel_tag"`
}

// NovelUpdate carries the mutable novel fields. Nil fields are left unchanged.
type NovelUpdate struct {
	Title       *string        `json:"title,omitempty" validate:"omitempty,min=3,max=128"`
	Cover       *string        `json:"cover,omitempty" validate:"omitempty,max=512"`
	Description []ContentBlock `json:"description,omitempty" validate:"omitempty,min=1,dive"`
	Status      *NovelStatus   `json:"status,omitempty" validate:"omitempty,novel_status"`
	Genre       *Genre         `json:"genre,omitempty" validate:"omitempty,novel_genre"`
	Tags        []Tag          `json:"tags,omitempty" validate:"omitempty,min=1,unique,dive,novel_tag"`
}

// IsEmpty reports whether the update sets no field.
func (u NovelUpdate) IsEmpty() bool {
	return u.Title == nil && u.Cover == nil && u.Description == nil &&
		u.Status == nil && u.Genre == nil && u.Tags == nil
}

// ApplyTo writes the set fields onto n.
func (u NovelUpdate) ApplyTo(n *Novel) {
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Cover != nil {
		n.Cover = *u.Cover
	}
	if u.Description != nil {
		n.Description = u.Description
	}
	if u.Status != nil {
		n.Status = *u.Status
	}
	if u.Genre != nil {
		n.Genre = *u.Genre
	}
	if u.Tags != nil {
		n.Tags = u.Tags
	}
}

// VolumeOpKind selects how a volume operation edits the embedded volumes.
type VolumeOpKind string

const (
	// VolumeAdd appends a new volume with a fresh vid.
	VolumeAdd VolumeOpKind = "add"
	// VolumeRemove drops the volume with the given vid. Chapters referencing it are kept.
	VolumeRemove VolumeOpKind = "remove"
)

// Valid reports whether k is a known volume operation.
func (k VolumeOpKind) Valid() bool {
	return k == VolumeAdd || k == VolumeRemove
}

// VolumeOp edits a novel's volumes as part of an update.
// For VolumeAdd, VID is assigned by the novel service before the op reaches storage.
type VolumeOp struct {
	Operation VolumeOpKind `json:"operation" validate:"required,oneof=add remove"`
	Name      string       `json:"name,omitempty" validate:"omitempty,min=3,max=32,volumename"`
	VID       string       `json:"vid,omitempty" validate:"required_if=Operation remove"`
}

// ApplyTo edits n.Volumes in place.
func (op VolumeOp) ApplyTo(n *Novel) {
	switch op.Operation {
	case VolumeAdd:
		if n.Volumes == nil {
			n.Volumes = []Volume{}
		}
		n.Volumes = append(n.Volumes, Volume{VID: op.VID, Name: op.Name})
	case VolumeRemove:
		if n.Volumes != nil {
			n.Volumes = slices.DeleteFunc(n.Volumes, func(v Volume) bool { return v.VID == op.VID })
		}
	}
}

// Novel projection field names.
const (
	NovelFieldNID          = "nid"
	NovelFieldTitle        = "title"
	NovelFieldCover        = "cover"
	NovelFieldAuthorID     = "authorId"
	NovelFieldDescription  = "description"
	NovelFieldStatus       = "status"
	NovelFieldGenre        = "genre"
	NovelFieldTags         = "tags"
	NovelFieldVolumes      = "volumes"
	NovelFieldViews        = "views"
	NovelFieldChapterCount = "chapterCount"
	NovelFieldCreatedAt    = "createdAt"
)

// NovelFields lists the projectable novel fields.
var NovelFields = []string{
	NovelFieldNID, NovelFieldTitle, NovelFieldCover, NovelFieldAuthorID,
	NovelFieldDescription, NovelFieldStatus, NovelFieldGenre, NovelFieldTags,
	NovelFieldVolumes, NovelFieldViews, NovelFieldChapterCount, NovelFieldCreatedAt,
}

// Project returns a copy of n holding only the named fields.
// An empty field list returns the full record.
func (n *Novel) Project(fields ...string) *Novel {
	out := &Novel{}
	if len(fields) == 0 {
		*out = *n
		return out
	}
	for _, f := range fields {
		switch f {
		case NovelFieldNID:
			out.NID = n.NID
		case NovelFieldTitle:
			out.Title = n.Title
		case NovelFieldCover:
			out.Cover = n.Cover
		case NovelFieldAuthorID:
			out.AuthorID = n.AuthorID
		case NovelFieldDescription:
			out.Description = n.Description
		case NovelFieldStatus:
			out.Status = n.Status
		case NovelFieldGenre:
			out.Genre = n.Genre
		case NovelFieldTags:
			out.Tags = n.Tags
		case NovelFieldVolumes:
			out.Volumes = n.Volumes
		case NovelFieldViews:
			out.Views = n.Views
		case NovelFieldChapterCount:
			out.ChapterCount = n.ChapterCount
		case NovelFieldCreatedAt:
			out.CreatedAt = n.CreatedAt
		}
	}
	return out
}
