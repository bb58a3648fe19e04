package readership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store persists diary reads. It shares the database of the diary snapshot.
type Store struct {
	db *sql.DB
}

// NewStore prepares the readership tables on db.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure readership schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS reads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    diary_id INTEGER NOT NULL,
    visitor_id TEXT NOT NULL,
    browser TEXT NOT NULL,
    os TEXT NOT NULL,
    device TEXT NOT NULL,
    bot TEXT NOT NULL DEFAULT '',
    referrer TEXT NOT NULL DEFAULT '',
    read_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reads_read_at ON reads (read_at);
CREATE INDEX IF NOT EXISTS idx_reads_diary ON reads (diary_id);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	return err
}

// Setting returns the value stored under key, or "" when unset.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveRead stores one read.
func (s *Store) SaveRead(ctx context.Context, r Read) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reads (diary_id, visitor_id, browser, os, device, bot, referrer, read_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.DiaryID, r.VisitorID, r.Browser, r.OS, r.Device, r.Bot, r.Referrer, formatTime(r.At))
	return err
}

// DiaryStat is the readership of one diary.
type DiaryStat struct {
	DiaryID int64 `json:"diary_id"`
	Reads   int   `json:"reads"`
	Readers int   `json:"readers"`
}

// DimensionStat counts reads per value of one dimension (bot, referrer...).
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary aggregates reads since a point in time. Crawler reads are counted
// apart from human ones.
type Summary struct {
	Since     time.Time       `json:"since"`
	Reads     int             `json:"reads"`
	Readers   int             `json:"readers"`
	BotReads  int             `json:"bot_reads"`
	Top       []DiaryStat     `json:"top"`
	Devices   []DimensionStat `json:"devices"`
	Referrers []DimensionStat `json:"referrers"`
	Bots      []DimensionStat `json:"bots"`
}

// TopDiaries returns the most read diaries since the given time, human reads
// only, most read first.
func (s *Store) TopDiaries(ctx context.Context, since time.Time, limit int) ([]DiaryStat, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT diary_id, COUNT(*) AS n, COUNT(DISTINCT visitor_id)
FROM reads
WHERE bot = '' AND read_at >= ?
GROUP BY diary_id
ORDER BY n DESC, diary_id DESC
LIMIT ?`, formatTime(since), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []DiaryStat{}
	for rows.Next() {
		var st DiaryStat
		if err := rows.Scan(&st.DiaryID, &st.Reads, &st.Readers); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Summarize builds a Summary with the top limit diaries.
func (s *Store) Summarize(ctx context.Context, since time.Time, limit int) (Summary, error) {
	sum := Summary{Since: since.UTC()}
	from := formatTime(since)

	err := s.db.QueryRowContext(ctx, `
SELECT
    COALESCE(SUM(CASE WHEN bot = '' THEN 1 ELSE 0 END), 0),
    COUNT(DISTINCT CASE WHEN bot = '' THEN visitor_id END),
    COALESCE(SUM(CASE WHEN bot != '' THEN 1 ELSE 0 END), 0)
FROM reads WHERE read_at >= ?`, from).Scan(&sum.Reads, &sum.Readers, &sum.BotReads)
	if err != nil {
		return Summary{}, fmt.Errorf("count reads: %w", err)
	}

	if sum.Top, err = s.TopDiaries(ctx, since, limit); err != nil {
		return Summary{}, fmt.Errorf("top diaries: %w", err)
	}
	if sum.Devices, err = s.dimension(ctx, "device", "bot = ''", from); err != nil {
		return Summary{}, fmt.Errorf("devices: %w", err)
	}
	if sum.Referrers, err = s.dimension(ctx, "referrer", "bot = ''", from); err != nil {
		return Summary{}, fmt.Errorf("referrers: %w", err)
	}
	if sum.Bots, err = s.dimension(ctx, "bot", "bot != ''", from); err != nil {
		return Summary{}, fmt.Errorf("bots: %w", err)
	}
	return sum, nil
}

// dimension groups reads by column. column and filter are constants.
func (s *Store) dimension(ctx context.Context, column, filter, from string) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+column+`, COUNT(*) AS n FROM reads
WHERE `+filter+` AND read_at >= ?
GROUP BY `+column+`
ORDER BY n DESC, `+column+`
LIMIT 10`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []DimensionStat{}
	for rows.Next() {
		var st DimensionStat
		if err := rows.Scan(&st.Name, &st.Count); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// PruneBefore deletes reads older than cutoff.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reads WHERE read_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
