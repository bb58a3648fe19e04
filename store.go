package diaryengine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/diaryengine/cms"
)

// Store keeps a local snapshot of every diary the reader has fetched. It backs
// the sitemap and RSS feed and serves as a fallback while the CMS is down.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a snapshot write is in progress; the
	// busy timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the connection for packages that keep their own tables in the
// snapshot database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS diaries (
    id INTEGER PRIMARY KEY,
    created_by TEXT,
    created_dt TEXT NOT NULL,
    status TEXT NOT NULL,
    content TEXT NOT NULL,
    meta_json TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_diaries_created ON diaries (created_dt DESC);
`)
	return err
}

// SaveDiaries upserts entries in one transaction. Entries that are not
// posted are skipped.
func (s *Store) SaveDiaries(ctx context.Context, diaries []cms.DiaryContent) error {
	if len(diaries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO diaries (id, created_by, created_dt, status, content, meta_json, fetched_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	fetchedAt := s.now().UTC().Format(time.RFC3339)
	for _, d := range diaries {
		if d.ID <= 0 || (d.Status != "" && d.Status != cms.StatusPosted) {
			continue
		}
		meta, err := json.Marshal(d.Meta)
		if err != nil {
			return fmt.Errorf("encode meta of diary %d: %w", d.ID, err)
		}
		status := d.Status
		if status == "" {
			status = cms.StatusPosted
		}
		if _, err := stmt.ExecContext(ctx, int64(d.ID), d.CreatedBy, d.CreatedDT, status, d.Content, string(meta), fetchedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const diaryColumns = `id, created_by, created_dt, status, content, meta_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiary(row rowScanner) (cms.DiaryContent, error) {
	var (
		d         cms.DiaryContent
		id        int64
		createdBy sql.NullString
		meta      string
	)
	if err := row.Scan(&id, &createdBy, &d.CreatedDT, &d.Status, &d.Content, &meta); err != nil {
		return cms.DiaryContent{}, err
	}
	d.ID = cms.EntryID(id)
	if createdBy.Valid {
		d.CreatedBy = &createdBy.String
	}
	if err := json.Unmarshal([]byte(meta), &d.Meta); err != nil {
		return cms.DiaryContent{}, fmt.Errorf("decode meta of diary %d: %w", id, err)
	}
	return d, nil
}

// GetDiary returns one snapshot entry, or an error wrapping cms.ErrNotFound.
func (s *Store) GetDiary(ctx context.Context, id int64) (cms.DiaryContent, error) {
	d, err := scanDiary(s.db.QueryRowContext(ctx, `SELECT `+diaryColumns+` FROM diaries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return cms.DiaryContent{}, fmt.Errorf("snapshot of diary %d: %w", id, cms.ErrNotFound)
	}
	return d, err
}

// ListDiaries returns snapshot entries newest first.
func (s *Store) ListDiaries(ctx context.Context, offset, limit int) ([]cms.DiaryContent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+diaryColumns+` FROM diaries ORDER BY created_dt DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diaries []cms.DiaryContent
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			return nil, err
		}
		diaries = append(diaries, d)
	}
	return diaries, rows.Err()
}

// CountDiaries returns the number of snapshot entries.
func (s *Store) CountDiaries(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM diaries`).Scan(&n)
	return n, err
}

// PruneBefore deletes entries last fetched before cutoff.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diaries WHERE fetched_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
