package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by every backend.
var (
	// ErrNotFound is returned when no record matches the addressed id.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists is returned when a write would violate a unique index.
	// Backends return it wrapped in an *IndexError naming the index.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Unique index names. Backends report violations with these names so services can
// tell a duplicate username apart from a chapter ordinal collision.
const (
	IndexUserUID        = "users.uid"
	IndexUsername       = "users.username"
	IndexNovelNID       = "novels.nid"
	IndexNovelAuthorNID = "novels.authorId_nid"
	IndexVolumeVID      = "novels.nid_vid"
	IndexChapterCID     = "chapters.cid"
	IndexChapterNIDCID  = "chapters.nid_cid"
	IndexChapterOrdinal = "chapters.nid_index"
)

// IndexError reports a unique index violation.
type IndexError struct {
	Index string
	Key   string
}

func (e *IndexError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store: unique index %s violated", e.Index)
	}
	return fmt.Sprintf("store: unique index %s violated by %q", e.Index, e.Key)
}

// Is makes errors.Is(err, ErrAlreadyExists) true for every index violation.
func (e *IndexError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// Conflict returns an *IndexError for the named index.
func Conflict(index, key string) error {
	return &IndexError{Index: index, Key: key}
}

// ViolatedIndex returns the index named by an index violation anywhere in err's chain.
func ViolatedIndex(err error) (string, bool) {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Index, true
	}
	return "", false
}

// IsIndexConflict reports whether err is a violation of the named index.
func IsIndexConflict(err error, index string) bool {
	got, ok := ViolatedIndex(err)
	return ok && got == index
}
