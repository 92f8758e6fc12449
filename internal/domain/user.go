package domain

import (
	"slices"
	"time"
)

// User is a reader or author account. Username and UID are immutable after creation.
type User struct {
	UID          string    `json:"uid"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	PasswordHash string    `json:"-"` // never serialized to API responses
	Library      []string  `json:"library"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser is the candidate accepted by user creation. Password is plaintext and is
// hashed before it reaches storage.
type NewUser struct {
	Username  string `json:"username" validate:"required,min=3,max=32,username"`
	FirstName string `json:"firstName,omitempty" validate:"omitempty,min=3,max=32,personname"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,min=3,max=32,personname"`
	Password  string `json:"password" validate:"required,min=8,max=32,password"`
}

// UserUpdate carries the mutable user fields. Nil fields are left unchanged.
type UserUpdate struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=3,max=32,personname"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=3,max=32,personname"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8,max=32,password"`
}

// IsEmpty reports whether the update sets no field.
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Password == nil
}

// LibraryOpKind selects how a library operation edits the list.
type LibraryOpKind string

const (
	// LibraryAdd appends a novel id. Duplicates are kept.
	LibraryAdd LibraryOpKind = "add"
	// LibraryRemove pulls every occurrence of a novel id.
	LibraryRemove LibraryOpKind = "remove"
)

// Valid reports whether k is a known library operation.
func (k LibraryOpKind) Valid() bool {
	return k == LibraryAdd || k == LibraryRemove
}

// LibraryOp edits a user's library as part of an update.
type LibraryOp struct {
	Operation LibraryOpKind `json:"operation" validate:"required,oneof=add remove"`
	NID       string        `json:"nid" validate:"required"`
}

// Apply returns the library after applying op. The input slice is not modified.
func (op LibraryOp) Apply(library []string) []string {
	switch op.Operation {
	case LibraryAdd:
		out := make([]string, 0, len(library)+1)
		out = append(out, library...)
		return append(out, op.NID)
	case LibraryRemove:
		return slices.DeleteFunc(slices.Clone(library), func(nid string) bool { return nid == op.NID })
	}
	return library
}

// User projection field names.
const (
	UserFieldUID       = "uid"
	UserFieldUsername  = "username"
	UserFieldFirstName = "firstName"
	UserFieldLastName  = "lastName"
	UserFieldLibrary   = "library"
	UserFieldCreatedAt = "createdAt"
)

// UserFields lists the projectable user fields. The password hash is never projectable.
var UserFields = []string{
	UserFieldUID, UserFieldUsername, UserFieldFirstName,
	UserFieldLastName, UserFieldLibrary, UserFieldCreatedAt,
}

// Project returns a copy of u holding only the named fields.
// An empty field list returns the full record without the password hash.
func (u *User) Project(fields ...string) *User {
	out := &User{}
	if len(fields) == 0 {
		*out = *u
		out.PasswordHash = ""
		return out
	}
	for _, f := range fields {
		switch f {
		case UserFieldUID:
			out.UID = u.UID
		case UserFieldUsername:
			out.Username = u.Username
		case UserFieldFirstName:
			out.FirstName = u.FirstName
		case UserFieldLastName:
			out.LastName = u.LastName
		case UserFieldLibrary:
			out.Library = u.Library
		case UserFieldCreatedAt:
			out.CreatedAt = u.CreatedAt
		}
	}
	return out
}
