// Package store persists completed campaign runs so the dashboard can list a
// user's history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maestroia/maestro-go/maestro"
)

// Run is one persisted campaign run.
type Run struct {
	ID        int64                  `json:"id"`
	UserKey   string                 `json:"user_key"`
	Objective string                 `json:"objective"`
	Audience  string                 `json:"target_audience"`
	Channels  []string               `json:"channels"`
	Budget    float64                `json:"budget"`
	Result    *maestro.CampaignState `json:"result"`
	CreatedAt time.Time              `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS campaign_runs (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  user_key   TEXT NOT NULL,
  objective  TEXT NOT NULL,
  audience   TEXT NOT NULL,
  channels   TEXT NOT NULL,
  budget     REAL NOT NULL,
  result     TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_campaign_runs_user ON campaign_runs(user_key);
`

// Store is a SQLite-backed campaign history.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	dsn := filepath.Clean(path) +
		"?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun records the final state of a pipeline run for userKey.
func (s *Store) SaveRun(ctx context.Context, userKey string, final *maestro.CampaignState) (int64, error) {
	if final == nil {
		return 0, fmt.Errorf("final state is required")
	}
	if userKey == "" {
		userKey = "anonymous"
	}

	result, err := json.Marshal(final)
	if err != nil {
		return 0, fmt.Errorf("marshal run result: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO campaign_runs (user_key, objective, audience, channels, budget, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userKey, final.Objective, final.TargetAudience, strings.Join(final.Channels, ","),
		final.Budget, string(result), time.Now().UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// CountRuns returns how many runs are recorded for userKey.
func (s *Store) CountRuns(ctx context.Context, userKey string) (int, error) {
	if userKey == "" {
		userKey = "anonymous"
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM campaign_runs WHERE user_key = ?`, userKey).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

// ListRuns returns userKey's runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, userKey string) ([]Run, error) {
	if userKey == "" {
		userKey = "anonymous"
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_key, objective, audience, channels, budget, result, created_at
		 FROM campaign_runs WHERE user_key = ? ORDER BY created_at DESC, id DESC`, userKey)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			channels  string
			result    string
			createdAt int64
		)
		if err := rows.Scan(&run.ID, &run.UserKey, &run.Objective, &run.Audience,
			&channels, &run.Budget, &result, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if channels != "" {
			run.Channels = strings.Split(channels, ",")
		}
		run.CreatedAt = time.UnixMilli(createdAt).UTC()
		run.Result = &maestro.CampaignState{}
		if err := json.Unmarshal([]byte(result), run.Result); err != nil {
			return nil, fmt.Errorf("unmarshal run %d result: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
