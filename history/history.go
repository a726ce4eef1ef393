package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one saved transcript.
type Entry struct {
	ID        int64
	Title     string
	Text      string
	Language  string
	Duration  time.Duration
	Online    bool
	CreatedAt time.Time
}

// Store keeps transcripts in a SQLite database.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// Open creates or opens the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS transcripts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    text TEXT NOT NULL,
    language TEXT,
    duration_ms INTEGER NOT NULL,
    is_online INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Title derives a short label from the transcript's first five words.
func Title(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "(empty)"
	}
	if len(words) > 5 {
		words = words[:5]
	}
	title := strings.Join(words, " ")
	if len(title) > 60 {
		title = title[:60]
	}
	return title
}

// Save stores one transcript and returns it with ID and CreatedAt set.
func (s *Store) Save(ctx context.Context, text, language string, duration time.Duration, online bool) (Entry, error) {
	e := Entry{
		Title:     Title(text),
		Text:      text,
		Language:  language,
		Duration:  duration,
		Online:    online,
		CreatedAt: s.clock().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (title, text, language, duration_ms, is_online, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Title, e.Text, e.Language, e.Duration.Milliseconds(), boolToInt(e.Online), e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert transcript: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("insert id: %w", err)
	}
	return e, nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, text, language, duration_ms, is_online, created_at
		 FROM transcripts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search returns entries whose text or title contains the query,
// newest first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, text, language, duration_ms, is_online, created_at
		 FROM transcripts
		 WHERE text LIKE ? OR title LIKE ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search transcripts: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Delete removes one entry.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transcript %d not found", id)
	}
	return nil
}

// DeleteAll clears the history.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcripts`); err != nil {
		return fmt.Errorf("clear transcripts: %w", err)
	}
	return nil
}

// Count reports how many transcripts are stored.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcripts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transcripts: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var online int
		if err := rows.Scan(&e.ID, &e.Title, &e.Text, &e.Language, &durationMs, &online, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.Online = online != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
