// Package storage handles database connections, schema migrations, and data operations using SQLite.
// It persists the publication state (last status message id) and the ban watermark ledger.
package storage

import (
	"database/sql"
	"time"

	"github.com/wardenhq/warden/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// State keys stored in the app_state table.
const (
	KeyLastMessageID = "last_message_id"
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// GetState returns the value stored under key, or an empty string when unset.
func (r *Repository) GetState(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return value, nil
}

// SetState writes the value under key, replacing any previous value.
func (r *Repository) SetState(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())

	return err
}

// LastMessageID returns the id of the previously published status message,
// empty if no message was ever published.
func (r *Repository) LastMessageID() (string, error) {
	return r.GetState(KeyLastMessageID)
}

// SetLastMessageID records the id of the freshly published status message.
func (r *Repository) SetLastMessageID(id string) error {
	return r.SetState(KeyLastMessageID, id)
}

// AddPostedBan appends a ban to the watermark ledger. Inserting an id that
// is already present is a no-op, keeping the ledger idempotent.
func (r *Repository) AddPostedBan(ban models.PostedBan) error {
	_, err := r.db.Exec(`
		INSERT INTO posted_bans (ban_id, player, reason, posted_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(ban_id) DO NOTHING`,
		ban.BanID, ban.Player, ban.Reason, ban.PostedAt)

	return err
}

// PostedBanIDs returns every ban id recorded in the watermark ledger.
func (r *Repository) PostedBanIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT ban_id FROM posted_bans`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// ListPostedBans retrieves the watermark ledger, most recent first.
func (r *Repository) ListPostedBans() ([]models.PostedBan, error) {
	rows, err := r.db.Query(`
		SELECT ban_id, player, reason, posted_at
		FROM posted_bans
		ORDER BY posted_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bans []models.PostedBan
	for rows.Next() {
		var b models.PostedBan
		if err := rows.Scan(&b.BanID, &b.Player, &b.Reason, &b.PostedAt); err != nil {
			continue
		}
		bans = append(bans, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bans, nil
}

// ClearPostedBans wipes the watermark ledger and returns the number of
// removed entries. Every feed ban becomes publishable again afterwards.
func (r *Repository) ClearPostedBans() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM posted_bans`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
