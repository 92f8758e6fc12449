package domain

import "time"

// Chapter is stored independently of its novel and references it by NID.
// Index is assigned once at creation and never renumbered, so deletions leave gaps.
type Chapter struct {
	NID           string         `json:"nid"`
	VID           string         `json:"vid,omitempty"`
	CID           string         `json:"cid"`
	Index         int64          `json:"index"`
	Title         string         `json:"title"`
	Content       []ContentBlock `json:"content"`
	MatureContent bool           `json:"matureContent"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// NewChapter is the candidate accepted by chapter creation.
type NewChapter struct {
	NID           string         `json:"nid" validate:"required"`
	VID           string         `json:"vid,omitempty"`
	Title         string         `json:"title" validate:"required,min=3,max=64"`
	Content       []ContentBlock `json:"content" validate:"required,min=1,dive"`
	MatureContent bool           `json:"matureContent"`
}

// ChapterUpdate carries the mutable chapter fields. NID, CID and Index are immutable.
type ChapterUpdate struct {
	Title         *string        `json:"title,omitempty" validate:"omitempty,min=3,max=64"`
	Content       []ContentBlock `json:"content,omitempty" validate:"omitempty,min=1,dive"`
	MatureContent *bool          `json:"matureContent,omitempty"`
}

// IsEmpty reports whether the update sets no field.
func (u ChapterUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.MatureContent == nil
}

// ApplyTo writes the set fields onto c.
func (u ChapterUpdate) ApplyTo(c *Chapter) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Content != nil {
		c.Content = u.Content
	}
	if u.MatureContent != nil {
		c.MatureContent = *u.MatureContent
	}
}

// Chapter projection field names.
const (
	ChapterFieldNID           = "nid"
	ChapterFieldVID           = "vid"
	ChapterFieldCID           = "cid"
	ChapterFieldIndex         = "index"
	ChapterFieldTitle         = "title"
	ChapterFieldContent       = "content"
	ChapterFieldMatureContent = "matureContent"
	ChapterFieldCreatedAt     = "createdAt"
)

// ChapterFields lists the projectable chapter fields.
var ChapterFields = []string{
	ChapterFieldNID, ChapterFieldVID, ChapterFieldCID, ChapterFieldIndex,
	ChapterFieldTitle, ChapterFieldContent, ChapterFieldMatureContent, ChapterFieldCreatedAt,
}

// Project returns a copy of c holding only the named fields.
func (c *Chapter) Project(fields ...string) *Chapter {
	out := &Chapter{}
	if len(fields) == 0 {
		*out = *c
		return out
	}
	for _, f := range fields {
		switch f {
		case ChapterFieldNID:
			out.NID = c.NID
		case ChapterFieldVID:
			out.VID = c.VID
		case ChapterFieldCID:
			out.CID = c.CID
		case ChapterFieldIndex:
			out.Index = c.Index
		case ChapterFieldTitle:
			out.Title = c.Title
		case ChapterFieldContent:
			out.Content = c.Content
		case ChapterFieldMatureContent:
			out.MatureContent = c.MatureContent
		case ChapterFieldCreatedAt:
			out.CreatedAt = c.CreatedAt
		}
	}
	return out
}
