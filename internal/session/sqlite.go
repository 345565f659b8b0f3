package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"statescan/internal/model"
)

// Archive persists finished sessions to a local SQLite database so past
// surveys can be listed and re-opened across runs. Running sessions live
// only in the MemoryStore; they are archived once terminal.
type Archive struct {
	db *sql.DB
}

// ArchivedSession is the list row for a persisted session.
type ArchivedSession struct {
	ID           int64
	Query        string
	Status       model.Status
	StartedAt    time.Time
	CompletedAt  *time.Time
	SuccessCount int
	ErrorCount   int
}

// OpenArchive opens (creating if needed) the archive at path. ":memory:"
// is accepted for tests.
func OpenArchive(path string) (*Archive, error) {
	dsn := path
	if path != ":memory:" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve archive path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
		dsn = absPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// SQLite single-writer: cap pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Archive) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			success_count INTEGER NOT NULL DEFAULT 0,
			error_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			session_id INTEGER NOT NULL,
			state_code TEXT NOT NULL,
			ok INTEGER NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY(session_id, state_code),
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		)`,
	}
	for _, statement := range statements {
		if _, err := a.db.Exec(statement); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// SaveSession archives a terminal session and returns its archive id. The
// archive assigns its own id; the in-memory id is per-process only.
func (a *Archive) SaveSession(sess *model.Session) (int64, error) {
	if !sess.Status.Terminal() {
		return 0, fmt.Errorf("archive session: status %s is not terminal", sess.Status)
	}

	tx, err := a.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var completedAt any
	if sess.CompletedAt != nil {
		completedAt = sess.CompletedAt.UTC().Format(time.RFC3339)
	}

	res, err := tx.Exec(
		`INSERT INTO sessions(query, status, started_at, completed_at, success_count, error_count)
		 VALUES(?,?,?,?,?,?)`,
		sess.Query,
		string(sess.Status),
		sess.StartedAt.UTC().Format(time.RFC3339),
		completedAt,
		sess.SuccessCount,
		sess.ErrorCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}

	for code, entry := range sess.Results {
		var payload []byte
		ok := entry.OK()
		if ok {
			payload, err = json.Marshal(entry.Statute)
		} else {
			payload, err = json.Marshal(entry.Failure)
		}
		if err != nil {
			return 0, fmt.Errorf("encode result %s: %w", code, err)
		}
		if _, err = tx.Exec(
			`INSERT INTO results(session_id, state_code, ok, payload) VALUES(?,?,?,?)`,
			id, string(code), boolToInt(ok), string(payload),
		); err != nil {
			return 0, fmt.Errorf("insert result %s: %w", code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit archive tx: %w", err)
	}
	return id, nil
}

// UpdateResult overwrites one jurisdiction's archived entry, used when a
// past survey's failed state is retried. Counts and status are untouched.
func (a *Archive) UpdateResult(sessionID int64, code model.StateCode, entry model.ResultEntry) error {
	var (
		payload []byte
		err     error
	)
	ok := entry.OK()
	if ok {
		payload, err = json.Marshal(entry.Statute)
	} else {
		payload, err = json.Marshal(entry.Failure)
	}
	if err != nil {
		return fmt.Errorf("encode result %s: %w", code, err)
	}

	var exists int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		return fmt.Errorf("update result %s: %w", code, err)
	}
	if exists == 0 {
		return fmt.Errorf("archived session %d: %w", sessionID, ErrNotFound)
	}

	if _, err := a.db.Exec(
		`INSERT OR REPLACE INTO results(session_id, state_code, ok, payload) VALUES(?,?,?,?)`,
		sessionID, string(code), boolToInt(ok), string(payload),
	); err != nil {
		return fmt.Errorf("update result %s: %w", code, err)
	}
	return nil
}

// ListSessions returns archived sessions, newest first.
func (a *Archive) ListSessions(limit int) ([]ArchivedSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.Query(
		`SELECT id, query, status, started_at, completed_at, success_count, error_count
		 FROM sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []ArchivedSession
	for rows.Next() {
		var (
			row         ArchivedSession
			status      string
			startedAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.Query, &status, &startedAt, &completedAt, &row.SuccessCount, &row.ErrorCount); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		row.Status = model.Status(status)
		if row.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if completedAt.Valid && strings.TrimSpace(completedAt.String) != "" {
			t, err := time.Parse(time.RFC3339, completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse completed_at: %w", err)
			}
			row.CompletedAt = &t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LoadSession rebuilds a full session, results included, from the archive.
func (a *Archive) LoadSession(id int64) (*model.Session, error) {
	var (
		sess        model.Session
		status      string
		startedAt   string
		completedAt sql.NullString
	)
	err := a.db.QueryRow(
		`SELECT id, query, status, started_at, completed_at, success_count, error_count
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Query, &status, &startedAt, &completedAt, &sess.SuccessCount, &sess.ErrorCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("archived session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", id, err)
	}
	sess.Status = model.Status(status)
	if sess.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		sess.CompletedAt = &t
	}

	sess.Results = make(map[model.StateCode]model.ResultEntry)
	rows, err := a.db.Query(`SELECT state_code, ok, payload FROM results WHERE session_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code    string
			ok      int
			payload string
		)
		if err := rows.Scan(&code, &ok, &payload); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		var entry model.ResultEntry
		if ok == 1 {
			var st model.Statute
			if err := json.Unmarshal([]byte(payload), &st); err != nil {
				return nil, fmt.Errorf("decode statute %s: %w", code, err)
			}
			entry = model.OkEntry(&st)
		} else {
			var f model.FetchFailure
			if err := json.Unmarshal([]byte(payload), &f); err != nil {
				return nil, fmt.Errorf("decode failure %s: %w", code, err)
			}
			entry = model.ErrEntry(f.Message, f.Suggestions)
		}
		sess.Results[model.StateCode(code)] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sess, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
