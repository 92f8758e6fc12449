// Package service implements the catalog's aggregate rules on top of the store:
// user accounts, novels with their embedded volumes, and ordered chapters.
package service

import (
	"context"
	"errors"
	"strings"

	domainerrors "github.com/shadownovel/catalog/internal/errors"
	"github.com/shadownovel/catalog/internal/store"
)

// storeError translates a store failure into a domain error. Context errors pass through
// unchanged so callers can tell cancellation apart from store faults.
func storeError(err error, notFoundReason, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFoundReason, msg).WithCause(err)
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
