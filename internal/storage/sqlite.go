// Package storage persists the audit trail in SQLite.
package storage

import (
	"database/sql"
	"time"

	"github.com/woozymasta/playerhub/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
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

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
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

// InsertAudit appends one audit entry.
func (r *Repository) InsertAudit(e models.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO audit_log (created_at, region, source, country_code, message)
		VALUES (?, ?, ?, ?, ?)`,
		e.CreatedAt, e.Region, e.Source, e.CountryCode, e.Message,
	)

	return err
}

// RecentAudit returns up to limit entries, newest first. An empty region matches all regions.
func (r *Repository) RecentAudit(region string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, created_at, region, source, country_code, message
		FROM audit_log
		WHERE 1=1
	`
	var args []interface{}

	if region != "" {
		query += " AND region = ?"
		args = append(args, region)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Region, &e.Source, &e.CountryCode, &e.Message); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// PruneAudit deletes entries created before cutoff and returns how many were removed.
func (r *Repository) PruneAudit(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM audit_log WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
