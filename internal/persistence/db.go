// Package persistence provides the run journal: an append-only SQLite record
// of events and daily reports, and a compressed per-tick trace. Neither is
// ever read back into a running simulation.
package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/homestead/internal/engine"
)

// DB wraps a SQLite connection for the journal.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		day INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		weather TEXT NOT NULL,
		sun INTEGER NOT NULL,
		rain INTEGER NOT NULL,
		population INTEGER NOT NULL,
		avg_hunger REAL NOT NULL,
		avg_fatigue REAL NOT NULL,
		food INTEGER NOT NULL,
		water INTEGER NOT NULL,
		meals INTEGER NOT NULL,
		harvests INTEGER NOT NULL,
		messages INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("INSERT INTO events (tick, date, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(e.Tick, e.Date, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// SaveDailyReport records one day's report, replacing any earlier report for
// the same day.
func (db *DB) SaveDailyReport(r engine.DailyReport) error {
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO daily_stats
		(day, date, weather, sun, rain, population, avg_hunger, avg_fatigue,
		 food, water, meals, harvests, messages)
		VALUES (:day, :date, :weather, :sun, :rain, :population, :avg_hunger, :avg_fatigue,
		 :food, :water, :meals, :harvests, :messages)`, r)
	if err != nil {
		return fmt.Errorf("insert daily report %d: %w", r.Day, err)
	}
	return nil
}

// DailyReports returns every recorded day in order.
func (db *DB) DailyReports() ([]engine.DailyReport, error) {
	var reports []engine.DailyReport
	err := db.conn.Select(&reports, "SELECT * FROM daily_stats ORDER BY day")
	return reports, err
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, date, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// EventCounts returns the number of recorded events per category.
func (db *DB) EventCounts() (map[string]int, error) {
	var rows []struct {
		Category string `db:"category"`
		N        int    `db:"n"`
	}
	if err := db.conn.Select(&rows, "SELECT category, COUNT(*) AS n FROM events GROUP BY category"); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.N
	}
	return counts, nil
}
