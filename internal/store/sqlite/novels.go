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

// novelColumns is the ordered list of columns selected in novel queries.
// Must match the scan order in scanNovel.
const novelColumns = `nid, author_id, title, cover, description, status, genre,
	partitioned, views, chapter_count, created_at`

// novelSortColumns maps sortable fields to columns.
var novelSortColumns = map[string]string{
	store.SortCreatedAt:    "created_at",
	store.SortTitle:        "title",
	store.SortViews:        "views",
	store.SortChapterCount: "chapter_count",
}

// scanNovel scans the novel row. Tags and volumes are loaded separately.
func scanNovel(scanner interface{ Scan(dest ...any) error }) (*domain.Novel, error) {
	var (
		n           domain.Novel
		cover       sql.NullString
		description string
		status      string
		genre       string
		partitioned int
		createdAt   string
	)

	err := scanner.Scan(
		&n.NID,
		&n.AuthorID,
		&n.Title,
		&cover,
		&description,
		&status,
		&genre,
		&partitioned,
		&n.Views,
		&n.ChapterCount,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	n.Cover = cover.String
	n.Status = domain.NovelStatus(status)
	n.Genre = domain.Genre(genre)
	if partitioned != 0 {
		n.Volumes = []domain.Volume{}
	}

	n.Description, err = decodeBlocks(description)
	if err != nil {
		return nil, err
	}
	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNovel inserts a novel with its tags and volumes.
func (s *Store) CreateNovel(ctx context.Context, novel *domain.Novel) error {
	description, err := encodeBlocks(novel.Description)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO novels (
				nid, author_id, title, title_fold, cover, description, status, genre,
				partitioned, views, chapter_count, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			novel.NID,
			novel.AuthorID,
			novel.Title,
			store.FoldTitle(novel.Title),
			nullString(novel.Cover),
			description,
			string(novel.Status),
			string(novel.Genre),
			boolToInt(novel.IsPartitioned()),
			novel.Views,
			novel.ChapterCount,
			formatTime(novel.CreatedAt),
		)
		if err != nil {
			return mapUniqueErr(err, novel.NID)
		}

		if err := insertTags(ctx, tx, novel.NID, novel.Tags); err != nil {
			return err
		}
		for i, v := range novel.Volumes {
			if err := insertVolume(ctx, tx, novel.NID, v, i+1); err != nil {
				return err
			}
		}

		s.logger.Debug("novel created", "nid", novel.NID, "volumes", len(novel.Volumes))
		return nil
	})
}

func insertTags(ctx context.Context, tx *sql.Tx, nid string, tags []domain.Tag) error {
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO novel_tags (nid, tag) VALUES (?, ?)`, nid, string(tag)); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return nil
}

func insertVolume(ctx context.Context, tx *sql.Tx, nid string, v domain.Volume, position int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO volumes (nid, vid, position, name, chapter_count)
		VALUES (?, ?, ?, ?, ?)`,
		nid, v.VID, position, nullString(v.Name), v.ChapterCount)
	if err != nil {
		return mapUniqueErr(err, v.VID)
	}
	return nil
}

// GetNovel retrieves a novel with its tags and volumes.
// Returns store.ErrNotFound if the novel does not exist.
func (s *Store) GetNovel(ctx context.Context, nid string) (*domain.Novel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+novelColumns+` FROM novels WHERE nid = ?`, nid)

	n, err := scanNovel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachChildren(ctx, []*domain.Novel{n}); err != nil {
		return nil, err
	}
	return n, nil
}

// attachChildren loads tags and volumes for a batch of novels.
func (s *Store) attachChildren(ctx context.Context, novels []*domain.Novel) error {
	if len(novels) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Novel, len(novels))
	args := make([]any, 0, len(novels))
	for _, n := range novels {
		byID[n.NID] = n
		n.Tags = []domain.Tag{}
		args = append(args, n.NID)
	}
	in := placeholders(len(novels))

	tagRows, err := s.db.QueryContext(ctx,
		`SELECT nid, tag FROM novel_tags WHERE nid IN (`+in+`) ORDER BY nid, rowid`, args...)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var nid, tag string
		if err := tagRows.Scan(&nid, &tag); err != nil {
			return err
		}
		byID[nid].Tags = append(byID[nid].Tags, domain.Tag(tag))
	}
	if err := tagRows.Err(); err != nil {
		return err
	}

	volRows, err := s.db.QueryContext(ctx,
		`SELECT nid, vid, name, chapter_count FROM volumes WHERE nid IN (`+in+`) ORDER BY nid, position`, args...)
	if err != nil {
		return fmt.Errorf("query volumes: %w", err)
	}
	defer volRows.Close()
	for volRows.Next() {
		var (
			nid  string
			v    domain.Volume
			name sql.NullString
		)
		if err := volRows.Scan(&nid, &v.VID, &name, &v.ChapterCount); err != nil {
			return err
		}
		v.Name = name.String
		n := byID[nid]
		if n.Volumes == nil {
			n.Volumes = []domain.Volume{}
		}
		n.Volumes = append(n.Volumes, v)
	}
	return volRows.Err()
}

// UpdateNovel applies field sets, the view increment and the volume edit in one
// transaction. Returns store.ErrNotFound if the novel does not exist.
func (s *Store) UpdateNovel(ctx context.Context, nid string, update store.NovelUpdate) error {
	var description string
	if update.Fields.Description != nil {
		var err error
		if description, err = encodeBlocks(update.Fields.Description); err != nil {
			return err
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			sets []string
			args []any
		)
		f := update.Fields
		if f.Title != nil {
			sets = append(sets, "title = ?", "title_fold = ?")
			args = append(args, *f.Title, store.FoldTitle(*f.Title))
		}
		if f.Cover != nil {
			sets = append(sets, "cover = ?")
			args = append(args, nullString(*f.Cover))
		}
		if f.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, description)
		}
		if f.Status != nil {
			sets = append(sets, "status = ?")
			args = append(args, string(*f.Status))
		}
		if f.Genre != nil {
			sets = append(sets, "genre = ?")
			args = append(args, string(*f.Genre))
		}
		if update.IncrementViews {
			sets = append(sets, "views = views + 1")
		}
		if update.Volume != nil && update.Volume.Operation == domain.VolumeAdd {
			sets = append(sets, "partitioned = 1")
		}

		// A no-op SET still reports whether the row exists.
		if len(sets) == 0 {
			sets = append(sets, "nid = nid")
		}
		args = append(args, nid)

		res, err := tx.ExecContext(ctx, `UPDATE novels SET `+strings.Join(sets, ", ")+` WHERE nid = ?`, args...)
		if err != nil {
			return fmt.Errorf("update novel: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}

		if f.Tags != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM novel_tags WHERE nid = ?`, nid); err != nil {
				return fmt.Errorf("clear tags: %w", err)
			}
			if err := insertTags(ctx, tx, nid, f.Tags); err != nil {
				return err
			}
		}

		if op := update.Volume; op != nil {
			switch op.Operation {
			case domain.VolumeAdd:
				var next int
				if err := tx.QueryRowContext(ctx,
					`SELECT COALESCE(MAX(position), 0) + 1 FROM volumes WHERE nid = ?`, nid).Scan(&next); err != nil {
					return fmt.Errorf("next volume position: %w", err)
				}
				if err := insertVolume(ctx, tx, nid, domain.Volume{VID: op.VID, Name: op.Name}, next); err != nil {
					return err
				}
			case domain.VolumeRemove:
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM volumes WHERE nid = ? AND vid = ?`, nid, op.VID); err != nil {
					return fmt.Errorf("remove volume: %w", err)
				}
			default:
				return fmt.Errorf("unknown volume operation %q", op.Operation)
			}
		}

		s.logger.Debug("novel updated", "nid", nid, "views", update.IncrementViews, "volume_op", update.Volume != nil)
		return nil
	})
}

// DeleteNovel removes the novel and its embedded volumes. Chapters are untouched.
// Returns store.ErrNotFound if the novel does not exist.
func (s *Store) DeleteNovel(ctx context.Context, nid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM novels WHERE nid = ?`, nid)
	if err != nil {
		return fmt.Errorf("delete novel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	s.logger.Debug("novel deleted", "nid", nid)
	return nil
}

// ListNovels returns one page of novels matching filter.
func (s *Store) ListNovels(ctx context.Context, filter store.NovelFilter, page store.PageRequest) ([]*domain.Novel, error) {
	col, ok := novelSortColumns[page.SortField]
	if !ok {
		col = "created_at"
	}
	dir := orderDirection(page.SortOrder)

	where, args := filter.Where()
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+novelColumns+` FROM novels`+where+
			` ORDER BY `+col+` `+dir+`, nid `+dir+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list novels: %w", err)
	}
	defer rows.Close()

	novels := make([]*domain.Novel, 0, page.Limit)
	for rows.Next() {
		n, err := scanNovel(rows)
		if err != nil {
			return nil, err
		}
		novels = append(novels, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachChildren(ctx, novels); err != nil {
		return nil, err
	}
	return novels, nil
}

// CountNovels counts novels matching filter.
func (s *Store) CountNovels(ctx context.Context, filter store.NovelFilter) (int64, error) {
	where, args := filter.Where()
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM novels`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count novels: %w", err)
	}
	return count, nil
}

// IncrementNovelChapterCount atomically adds delta to the novel's chapter counter.
func (s *Store) IncrementNovelChapterCount(ctx context.Context, nid string, delta int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE novels SET chapter_count = chapter_count + ? WHERE nid = ?`, delta, nid)
	if err != nil {
		return fmt.Errorf("increment chapter count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementVolumeChapterCount atomically adds delta to a volume's chapter counter.
// A volume that no longer exists is skipped; a missing novel is store.ErrNotFound.
func (s *Store) IncrementVolumeChapterCount(ctx context.Context, nid, vid string, delta int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE volumes SET chapter_count = chapter_count + ? WHERE nid = ? AND vid = ?`, delta, nid, vid)
	if err != nil {
		return fmt.Errorf("increment volume chapter count: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM novels WHERE nid = ?`, nid).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	s.logger.Debug("volume counter skipped, volume removed", "nid", nid, "vid", vid)
	return nil
}

// SetChapterCounts overwrites the novel and volume counters in one transaction.
// Volumes missing from perVolume are set to zero.
func (s *Store) SetChapterCounts(ctx context.Context, nid string, total int64, perVolume map[string]int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE novels SET chapter_count = ? WHERE nid = ?`, total, nid)
		if err != nil {
			return fmt.Errorf("set chapter count: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `UPDATE volumes SET chapter_count = 0 WHERE nid = ?`, nid); err != nil {
			return fmt.Errorf("reset volume counts: %w", err)
		}
		for vid, count := range perVolume {
			if _, err := tx.ExecContext(ctx,
				`UPDATE volumes SET chapter_count = ? WHERE nid = ? AND vid = ?`, count, nid, vid); err != nil {
				return fmt.Errorf("set volume count: %w", err)
			}
		}
		return nil
	})
}
