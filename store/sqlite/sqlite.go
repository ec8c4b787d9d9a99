// Package sqlite is a store.Repository on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seo-optimizer/content-engine/abtest"
	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/ranking"
	"github.com/seo-optimizer/content-engine/store"
)

// Fixed-width UTC timestamps sort correctly as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Store implements store.Repository using SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Repository = (*Store)(nil)

// Open opens a SQLite database with WAL mode enabled and creates the schema.
// now stamps tests created without a start date; nil means time.Now.
func Open(ctx context.Context, path string, now func() time.Time) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: now}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS rankings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL,
	search_volume INTEGER NOT NULL,
	estimated_traffic INTEGER NOT NULL,
	checked_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rankings_keyword ON rankings(keyword);

CREATE TABLE IF NOT EXISTS ab_tests (
	id TEXT PRIMARY KEY,
	start_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ab_variants (
	test_id TEXT NOT NULL,
	id TEXT NOT NULL,
	name TEXT NOT NULL,
	impressions INTEGER NOT NULL,
	clicks INTEGER NOT NULL,
	avg_time_on_page REAL,
	bounce_rate REAL,
	PRIMARY KEY(test_id, id),
	FOREIGN KEY(test_id) REFERENCES ab_tests(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	keyword TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	severity TEXT NOT NULL,
	period TEXT NOT NULL,
	message TEXT NOT NULL,
	current_position INTEGER NOT NULL,
	previous_position INTEGER NOT NULL,
	change INTEGER NOT NULL,
	search_volume INTEGER NOT NULL,
	estimated_traffic_loss INTEGER NOT NULL,
	action_items TEXT NOT NULL,
	triggered_at TEXT NOT NULL,
	acknowledged INTEGER NOT NULL DEFAULT 0,
	dismissed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_alerts_keyword ON alerts(keyword);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func formatTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func parseTime(s string) (time.Time, error) { return time.Parse(timeFormat, s) }

// AppendRanking inserts one position check.
func (s *Store) AppendRanking(ctx context.Context, r store.RankingRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO rankings (keyword, url, position, search_volume, estimated_traffic, checked_at)
VALUES (?, ?, ?, ?, ?, ?);
`, r.Keyword, r.URL, r.Position, r.SearchVolume, r.EstimatedTraffic, formatTime(r.CheckedAt))
	return err
}

// RankingHistory returns the keyword's checks in insertion order.
func (s *Store) RankingHistory(ctx context.Context, keyword string) (ranking.History, bool, error) {
	hs, err := s.histories(ctx, "WHERE keyword = ?", keyword)
	if err != nil || len(hs) == 0 {
		return ranking.History{}, false, err
	}
	return hs[0], true, nil
}

// RankingHistories returns every history, sorted by keyword.
func (s *Store) RankingHistories(ctx context.Context) ([]ranking.History, error) {
	return s.histories(ctx, "")
}

func (s *Store) histories(ctx context.Context, where string, args ...any) ([]ranking.History, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT keyword, url, position, search_volume, estimated_traffic, checked_at
FROM rankings `+where+`
ORDER BY keyword, id;
`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ranking.History{}
	for rows.Next() {
		var keyword, url, checkedAt string
		var e ranking.Entry
		if err := rows.Scan(&keyword, &url, &e.Position, &e.SearchVolume, &e.EstimatedTraffic, &checkedAt); err != nil {
			return nil, err
		}
		if e.CheckedAt, err = parseTime(checkedAt); err != nil {
			return nil, fmt.Errorf("ranking %q checked_at: %w", keyword, err)
		}
		if len(out) == 0 || out[len(out)-1].Keyword != keyword {
			out = append(out, ranking.History{Keyword: keyword})
		}
		h := &out[len(out)-1]
		if url != "" {
			h.URL = url
		}
		h.Entries = append(h.Entries, e)
	}
	return out, rows.Err()
}

// SaveVariant creates the test if needed and upserts the variant.
func (s *Store) SaveVariant(ctx context.Context, testID string, r store.VariantRecord) error {
	if err := store.ValidateTestID(testID); err != nil {
		return err
	}
	v, err := r.Variant()
	if err != nil {
		return err
	}
	start := s.now()
	if r.StartDate != nil {
		start = *r.StartDate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO ab_tests (id, start_date) VALUES (?, ?)
ON CONFLICT(id) DO NOTHING;
`, testID, formatTime(start)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO ab_variants (test_id, id, name, impressions, clicks, avg_time_on_page, bounce_rate)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(test_id, id) DO UPDATE SET
	name=excluded.name,
	impressions=excluded.impressions,
	clicks=excluded.clicks,
	avg_time_on_page=excluded.avg_time_on_page,
	bounce_rate=excluded.bounce_rate;
`, testID, v.ID, v.Name, v.Impressions, v.Clicks, v.AvgTimeOnPage, v.BounceRate); err != nil {
		return err
	}
	return tx.Commit()
}

// Variants returns the test with its variants in insertion order.
func (s *Store) Variants(ctx context.Context, testID string) (store.ABTest, bool, error) {
	var start string
	err := s.db.QueryRowContext(ctx, `SELECT start_date FROM ab_tests WHERE id = ?`, testID).Scan(&start)
	if err == sql.ErrNoRows {
		return store.ABTest{}, false, nil
	}
	if err != nil {
		return store.ABTest{}, false, err
	}
	t := store.ABTest{ID: testID, Variants: []abtest.Variant{}}
	if t.StartDate, err = parseTime(start); err != nil {
		return store.ABTest{}, false, fmt.Errorf("test %s start_date: %w", testID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, impressions, clicks, avg_time_on_page, bounce_rate
FROM ab_variants
WHERE test_id = ?
ORDER BY rowid;
`, testID)
	if err != nil {
		return store.ABTest{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var v abtest.Variant
		var timeOnPage, bounce sql.NullFloat64
		if err := rows.Scan(&v.ID, &v.Name, &v.Impressions, &v.Clicks, &timeOnPage, &bounce); err != nil {
			return store.ABTest{}, false, err
		}
		if timeOnPage.Valid {
			v.AvgTimeOnPage = &timeOnPage.Float64
		}
		if bounce.Valid {
			v.BounceRate = &bounce.Float64
		}
		t.Variants = append(t.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return store.ABTest{}, false, err
	}
	return t, true, nil
}

// SaveAlerts upserts alerts by id.
func (s *Store) SaveAlerts(ctx context.Context, as []alerts.Alert) error {
	if len(as) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO alerts (id, keyword, alert_type, severity, period, message, current_position,
	previous_position, change, search_volume, estimated_traffic_loss, action_items,
	triggered_at, acknowledged, dismissed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	severity=excluded.severity,
	message=excluded.message,
	current_position=excluded.current_position,
	previous_position=excluded.previous_position,
	change=excluded.change,
	search_volume=excluded.search_volume,
	estimated_traffic_loss=excluded.estimated_traffic_loss,
	action_items=excluded.action_items,
	acknowledged=excluded.acknowledged,
	dismissed=excluded.dismissed;
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range as {
		items, err := json.Marshal(a.ActionItems)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, a.ID, a.Keyword, string(a.Type), string(a.Severity), a.Period,
			a.Message, a.CurrentPosition, a.PreviousPosition, a.Change, a.SearchVolume,
			a.EstimatedTrafficLoss, string(items), formatTime(a.TriggeredAt), a.Acknowledged, a.Dismissed); err != nil {
			return fmt.Errorf("alert %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// Alerts lists matching alerts, oldest first.
func (s *Store) Alerts(ctx context.Context, f store.AlertFilter) ([]alerts.Alert, error) {
	query := `
SELECT id, keyword, alert_type, severity, period, message, current_position, previous_position,
	change, search_volume, estimated_traffic_loss, action_items, triggered_at, acknowledged, dismissed
FROM alerts
WHERE (? = '' OR keyword = ?) AND (? OR dismissed = 0)
ORDER BY triggered_at, rowid;
`
	rows, err := s.db.QueryContext(ctx, query, f.Keyword, f.Keyword, f.IncludeDismissed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []alerts.Alert{}
	for rows.Next() {
		var a alerts.Alert
		var alertType, severity, items, triggeredAt string
		if err := rows.Scan(&a.ID, &a.Keyword, &alertType, &severity, &a.Period, &a.Message,
			&a.CurrentPosition, &a.PreviousPosition, &a.Change, &a.SearchVolume,
			&a.EstimatedTrafficLoss, &items, &triggeredAt, &a.Acknowledged, &a.Dismissed); err != nil {
			return nil, err
		}
		a.Type, a.Severity = alerts.Type(alertType), alerts.Severity(severity)
		if err := json.Unmarshal([]byte(items), &a.ActionItems); err != nil {
			return nil, fmt.Errorf("alert %s action_items: %w", a.ID, err)
		}
		if a.TriggeredAt, err = parseTime(triggeredAt); err != nil {
			return nil, fmt.Errorf("alert %s triggered_at: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AcknowledgeAlert marks an alert as seen.
func (s *Store) AcknowledgeAlert(ctx context.Context, id string) error {
	return s.updateAlert(ctx, id, `UPDATE alerts SET acknowledged = 1 WHERE id = ?`)
}

// DismissAlert marks an alert as handled, which also acknowledges it.
func (s *Store) DismissAlert(ctx context.Context, id string) error {
	return s.updateAlert(ctx, id, `UPDATE alerts SET acknowledged = 1, dismissed = 1 WHERE id = ?`)
}

func (s *Store) updateAlert(ctx context.Context, id, query string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("alert %s: %w", id, engineerr.ErrNotFound)
	}
	return nil
}
