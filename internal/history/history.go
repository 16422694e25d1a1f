// Package history keeps a local record of analyzed documents so the bot
// can answer /status without touching Telegram or Postgres.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       INTEGER NOT NULL,
	file_name     TEXT NOT NULL,
	cert_count    INTEGER NOT NULL,
	expired_count INTEGER NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
`

func Open(dbPath string) (*DB, error) {
	// Enable Foreign Keys
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{db}, nil
}

// Record stores one analyzed document.
func (d *DB) Record(userID int64, fileName string, certCount, expiredCount int) error {
	_, err := d.Exec(
		"INSERT INTO reports (user_id, file_name, cert_count, expired_count, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, fileName, certCount, expiredCount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record report: %w", err)
	}
	return nil
}

type Totals struct {
	Reports      int
	Certificates int
	Expired      int
}

func (d *DB) Totals() (Totals, error) {
	var t Totals
	err := d.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(cert_count), 0), COALESCE(SUM(expired_count), 0) FROM reports",
	).Scan(&t.Reports, &t.Certificates, &t.Expired)
	if err != nil {
		return Totals{}, fmt.Errorf("query totals: %w", err)
	}
	return t, nil
}
