package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shadownovel/catalog/internal/domain"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Create user",
		Description:   "Creates a user account with an empty library",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}",
		Summary:     "Get user",
		Description: "Returns a user by username, optionally projected onto the requested fields",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateUser",
		Method:        http.MethodPatch,
		Path:          "/api/v1/users/{username}",
		Summary:       "Update user",
		Description:   "Updates names or password and optionally adds or removes one library entry",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUpdateUser)
}

// === DTOs ===

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Username  string `json:"username,omitempty" doc:"Unique username (3-32 of a-z, A-Z, 0-9, -, _, @)"`
	FirstName string `json:"firstName,omitempty" doc:"First name"`
	LastName  string `json:"lastName,omitempty" doc:"Last name"`
	Password  string `json:"password,omitempty" doc:"Password (8-32 characters)"`
}

// CreateUserInput wraps the create user request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

// GetUserInput contains parameters for getting a user.
type GetUserInput struct {
	Username string   `path:"username" doc:"Username"`
	Fields   []string `query:"fields" doc:"Comma-separated fields to return"`
}

// LibraryOpBody adds or removes one novel id in a user's library.
type LibraryOpBody struct {
	Operation string `json:"operation,omitempty" doc:"add appends, remove pulls every occurrence"`
	NID       string `json:"nid,omitempty" doc:"Novel ID"`
}

// UpdateUserRequest is the request body for updating a user.
type UpdateUserRequest struct {
	FirstName *string        `json:"firstName,omitempty" doc:"New first name"`
	LastName  *string        `json:"lastName,omitempty" doc:"New last name"`
	Password  *string        `json:"password,omitempty" doc:"New password"`
	Library   *LibraryOpBody `json:"library,omitempty" doc:"Library edit"`
}

// UpdateUserInput wraps the update user request for Huma.
type UpdateUserInput struct {
	Username string `path:"username" doc:"Username"`
	Body     UpdateUserRequest
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.User.CreateUser(ctx, domain.NewUser{
		Username:  input.Body.Username,
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
		Password:  input.Body.Password,
	})
	if err != nil {
		return nil, s.fail(err)
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *GetUserInput) (*UserOutput, error) {
	user, err := s.services.User.FindByUsername(ctx, input.Username, fieldList(input.Fields)...)
	if err != nil {
		return nil, s.fail(err)
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleUpdateUser(ctx context.Context, input *UpdateUserInput) (*struct{}, error) {
	var library *domain.LibraryOp
	if op := input.Body.Library; op != nil {
		library = &domain.LibraryOp{Operation: domain.LibraryOpKind(op.Operation), NID: op.NID}
	}

	err := s.services.User.UpdateUser(ctx, input.Username, domain.UserUpdate{
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
		Password:  input.Body.Password,
	}, library)
	if err != nil {
		return nil, s.fail(err)
	}
	return nil, nil
}
