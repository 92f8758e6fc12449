package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shadownovel/catalog/internal/domain"
	"github.com/shadownovel/catalog/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `uid, username, first_name, last_name, password_hash, created_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		firstName sql.NullString
		lastName  sql.NullString
		createdAt string
	)

	err := scanner.Scan(&u.UID, &u.Username, &firstName, &lastName, &u.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}

	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user and its initial library.
// Returns a store.IndexError when the uid or username is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (uid, username, first_name, last_name, password_hash, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			user.UID,
			user.Username,
			nullString(user.FirstName),
			nullString(user.LastName),
			user.PasswordHash,
			formatTime(user.CreatedAt),
		)
		if err != nil {
			return mapUniqueErr(err, user.Username)
		}

		for _, nid := range user.Library {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_library (uid, nid) VALUES (?, ?)`, user.UID, nid); err != nil {
				return fmt.Errorf("insert library entry: %w", err)
			}
		}

		s.logger.Debug("user created", "uid", user.UID, "username", user.Username)
		return nil
	})
}

// GetUserByUsername retrieves a user and its library by exact username.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Library, err = s.loadLibrary(ctx, u.UID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) loadLibrary(ctx context.Context, uid string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT nid FROM user_library WHERE uid = ? ORDER BY id`, uid)
	if err != nil {
		return nil, fmt.Errorf("query library: %w", err)
	}
	defer rows.Close()

	library := []string{}
	for rows.Next() {
		var nid string
		if err := rows.Scan(&nid); err != nil {
			return nil, err
		}
		library = append(library, nid)
	}
	return library, rows.Err()
}

// UpdateUser applies field changes and an optional library edit in one transaction.
// Returns store.ErrNotFound if no user has the username.
func (s *Store) UpdateUser(ctx context.Context, username string, update store.UserUpdate) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var uid string
		err := tx.QueryRowContext(ctx, `SELECT uid FROM users WHERE username = ?`, username).Scan(&uid)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		var (
			sets []string
			args []any
		)
		if update.FirstName != nil {
			sets = append(sets, "first_name = ?")
			args = append(args, nullString(*update.FirstName))
		}
		if update.LastName != nil {
			sets = append(sets, "last_name = ?")
			args = append(args, nullString(*update.LastName))
		}
		if update.PasswordHash != nil {
			sets = append(sets, "password_hash = ?")
			args = append(args, *update.PasswordHash)
		}
		if len(sets) > 0 {
			args = append(args, uid)
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE uid = ?`, args...); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}

		if op := update.Library; op != nil {
			switch op.Operation {
			case domain.LibraryAdd:
				_, err = tx.ExecContext(ctx,
					`INSERT INTO user_library (uid, nid) VALUES (?, ?)`, uid, op.NID)
			case domain.LibraryRemove:
				_, err = tx.ExecContext(ctx,
					`DELETE FROM user_library WHERE uid = ? AND nid = ?`, uid, op.NID)
			default:
				err = fmt.Errorf("unknown library operation %q", op.Operation)
			}
			if err != nil {
				return fmt.Errorf("update library: %w", err)
			}
		}

		s.logger.Debug("user updated", "uid", uid, "fields", len(sets), "library_op", update.Library != nil)
		return nil
	})
}
