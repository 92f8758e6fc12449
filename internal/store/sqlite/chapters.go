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

// chapterColumns is the ordered list of columns selected in chapter queries.
// Must match the scan order in scanChapter.
const chapterColumns = `cid, nid, vid, idx, title, content, mature_content, created_at`

// scanChapter scans a sql.Row (or sql.Rows via its Scan method) into a domain.Chapter.
func scanChapter(scanner interface{ Scan(dest ...any) error }) (*domain.Chapter, error) {
	var (
		c         domain.Chapter
		vid       sql.NullString
		content   string
		mature    int
		createdAt string
	)

	err := scanner.Scan(&c.CID, &c.NID, &vid, &c.Index, &c.Title, &content, &mature, &createdAt)
	if err != nil {
		return nil, err
	}

	c.VID = vid.String
	c.MatureContent = mature != 0
	c.Content, err = decodeBlocks(content)
	if err != nil {
		return nil, err
	}
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateChapter inserts a chapter. A taken (nid, index) pair is reported as a
// store.IndexError on store.IndexChapterOrdinal.
func (s *Store) CreateChapter(ctx context.Context, c *domain.Chapter) error {
	content, err := encodeBlocks(c.Content)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chapters (cid, nid, vid, idx, title, content, mature_content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CID,
		c.NID,
		nullString(c.VID),
		c.Index,
		c.Title,
		content,
		boolToInt(c.MatureContent),
		formatTime(c.CreatedAt),
	)
	if err != nil {
		return mapUniqueErr(err, fmt.Sprintf("%s/%d", c.NID, c.Index))
	}

	s.logger.Debug("chapter created", "nid", c.NID, "cid", c.CID, "index", c.Index)
	return nil
}

// GetChapter retrieves a chapter by novel and chapter id.
func (s *Store) GetChapter(ctx context.Context, nid, cid string) (*domain.Chapter, error) {
	return s.getChapter(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE nid = ? AND cid = ?`, nid, cid)
}

// GetChapterByCID retrieves a chapter by its globally unique id.
func (s *Store) GetChapterByCID(ctx context.Context, cid string) (*domain.Chapter, error) {
	return s.getChapter(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE cid = ?`, cid)
}

func (s *Store) getChapter(ctx context.Context, query string, args ...any) (*domain.Chapter, error) {
	c, err := scanChapter(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateChapter sets the mutable chapter fields.
// Returns store.ErrNotFound if the chapter does not exist.
func (s *Store) UpdateChapter(ctx context.Context, nid, cid string, update domain.ChapterUpdate) error {
	sets := []string{"cid = cid"}
	var args []any
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Content != nil {
		content, err := encodeBlocks(update.Content)
		if err != nil {
			return err
		}
		sets = append(sets, "content = ?")
		args = append(args, content)
	}
	if update.MatureContent != nil {
		sets = append(sets, "mature_content = ?")
		args = append(args, boolToInt(*update.MatureContent))
	}
	args = append(args, nid, cid)

	res, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET `+strings.Join(sets, ", ")+` WHERE nid = ? AND cid = ?`, args...)
	if err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteChapter removes a chapter and returns the deleted record.
// Returns store.ErrNotFound if the chapter does not exist.
func (s *Store) DeleteChapter(ctx context.Context, nid, cid string) (*domain.Chapter, error) {
	c, err := scanChapter(s.db.QueryRowContext(ctx,
		`DELETE FROM chapters WHERE nid = ? AND cid = ? RETURNING `+chapterColumns, nid, cid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete chapter: %w", err)
	}

	s.logger.Debug("chapter deleted", "nid", nid, "cid", cid, "index", c.Index)
	return c, nil
}

func chapterWhere(q store.ChapterQuery) (string, []any) {
	if q.VID != "" {
		return ` WHERE nid = ? AND vid = ?`, []any{q.NID, q.VID}
	}
	return ` WHERE nid = ?`, []any{q.NID}
}

// ListChapters returns one page of a novel's chapters ordered by index.
func (s *Store) ListChapters(ctx context.Context, q store.ChapterQuery, page store.PageRequest) ([]*domain.Chapter, error) {
	where, args := chapterWhere(q)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chapterColumns+` FROM chapters`+where+
			` ORDER BY idx `+orderDirection(page.SortOrder)+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	chapters := make([]*domain.Chapter, 0, page.Limit)
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// CountChapters counts chapters selected by q.
func (s *Store) CountChapters(ctx context.Context, q store.ChapterQuery) (int64, error) {
	where, args := chapterWhere(q)
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chapters`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chapters: %w", err)
	}
	return count, nil
}

// MaxChapterIndex returns the highest idx of a novel's chapters, or 0 when it has none.
func (s *Store) MaxChapterIndex(ctx context.Context, nid string) (int64, error) {
	var idx int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(idx), 0) FROM chapters WHERE nid = ?`, nid).Scan(&idx); err != nil {
		return 0, fmt.Errorf("max chapter index: %w", err)
	}
	return idx, nil
}

// CountChaptersByVolume counts a novel's chapters per vid. Chapters without a vid are
// not included.
func (s *Store) CountChaptersByVolume(ctx context.Context, nid string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT vid, COUNT(*) FROM chapters WHERE nid = ? AND vid IS NOT NULL GROUP BY vid`, nid)
	if err != nil {
		return nil, fmt.Errorf("count chapters by volume: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			vid   string
			count int64
		)
		if err := rows.Scan(&vid, &count); err != nil {
			return nil, err
		}
		counts[vid] = count
	}
	return counts, rows.Err()
}
