package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shadownovel/catalog/internal/auth"
	"github.com/shadownovel/catalog/internal/domain"
	domainerrors "github.com/shadownovel/catalog/internal/errors"
	"github.com/shadownovel/catalog/internal/id"
	"github.com/shadownovel/catalog/internal/store"
	"github.com/shadownovel/catalog/internal/validation"
)

// UserService manages user accounts and their libraries.
type UserService struct {
	store     store.Store
	validator *validation.Validator
	hasher    *auth.Hasher
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, validator *validation.Validator, hasher *auth.Hasher, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		validator: validator,
		hasher:    hasher,
		logger:    logger,
	}
}

// CreateUser validates the candidate, hashes its password and stores the account with an
// empty library. The returned user carries no password hash.
func (s *UserService) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	nu.FirstName = strings.TrimSpace(nu.FirstName)
	nu.LastName = strings.TrimSpace(nu.LastName)

	if err := s.validator.Validate(nu); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}

	user := &domain.User{
		UID:          id.NewUserID(),
		Username:     nu.Username,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		PasswordHash: hash,
		Library:      []string{},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if store.IsIndexConflict(err, store.IndexUsername) {
			return nil, domainerrors.AlreadyExists(domainerrors.ReasonUsernameTaken, "username "+nu.Username+" is taken").WithCause(err)
		}
		return nil, storeError(err, domainerrors.ReasonUserNotFound, "create user")
	}

	s.logger.Info("user created", "uid", user.UID, "username", user.Username)
	return user.Project(), nil
}

// FindByUsername returns the user projected onto fields. No fields means the whole
// record minus the password hash.
func (s *UserService) FindByUsername(ctx context.Context, username string, fields ...string) (*domain.User, error) {
	if err := s.validator.Fields(domain.UserFields, fields); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, storeError(err, domainerrors.ReasonUserNotFound, "user "+username+" not found")
	}
	return user.Project(fields...), nil
}

// UpdateUser applies the field update and the optional library operation as one write.
// A new password is hashed before it is stored.
func (s *UserService) UpdateUser(ctx context.Context, username string, update domain.UserUpdate, library *domain.LibraryOp) error {
	update.FirstName = trimPtr(update.FirstName)
	update.LastName = trimPtr(update.LastName)

	if err := s.validator.Validate(update); err != nil {
		return err
	}
	if library != nil {
		if err := s.validator.Validate(library); err != nil {
			return err
		}
	}

	su := store.UserUpdate{
		FirstName: update.FirstName,
		LastName:  update.LastName,
		Library:   library,
	}
	if update.Password != nil {
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
		}
		su.PasswordHash = &hash
	}

	if err := s.store.UpdateUser(ctx, username, su); err != nil {
		return storeError(err, domainerrors.ReasonUserNotFound, "user "+username+" not found")
	}

	s.logger.Debug("user updated", "username", username, "library_op", library != nil)
	return nil
}

// VerifyPassword reports whether password matches the stored hash for username.
func (s *UserService) VerifyPassword(ctx context.Context, username, password string) (bool, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return false, storeError(err, domainerrors.ReasonUserNotFound, "user "+username+" not found")
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return false, domainerrors.Wrap(err, domainerrors.CodeInternal, "verify password")
	}
	return ok, nil
}
