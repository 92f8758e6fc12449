// Package id generates the opaque identifiers used for catalog records.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefixes for each record kind.
const (
	PrefixUser    = "usr"
	PrefixNovel   = "nvl"
	PrefixVolume  = "vol"
	PrefixChapter = "chp"
)

// Generate creates a prefixed, time-ordered unique ID.
// Format: prefix-uuidv7 without dashes (e.g., "nvl-0192f3a4c1e27b9c8d4f5a6b7c8d9e0f").
//
// UUIDv7 carries a millisecond timestamp in its high bits and the uuid package keeps a
// per-process sequence, so IDs produced by one process sort in generation order.
func Generate(prefix string) (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuidv7: %w", err)
	}
	return prefix + "-" + strings.ReplaceAll(u.String(), "-", ""), nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Generation only fails when the OS entropy source is unavailable.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewUserID returns a fresh user ID.
func NewUserID() string { return MustGenerate(PrefixUser) }

// NewNovelID returns a fresh novel ID.
func NewNovelID() string { return MustGenerate(PrefixNovel) }

// NewVolumeID returns a fresh volume ID.
func NewVolumeID() string { return MustGenerate(PrefixVolume) }

// NewChapterID returns a fresh chapter ID.
func NewChapterID() string { return MustGenerate(PrefixChapter) }
