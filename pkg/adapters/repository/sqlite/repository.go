package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

// timeLayout is fixed width so timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// deleteBatchSize keeps IN lists under the SQLite variable limit.
const deleteBatchSize = 500

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite" {
		// Local SQLite has a single writer; shared-cache memory databases also
		// fail fast with "table locked" when connections overlap.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS activity_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		details JSON,
		ip_address TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_user_id ON activity_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_action ON activity_logs(action);

	CREATE TABLE IF NOT EXISTS referrer_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id INTEGER NOT NULL,
		referrer_url TEXT,
		source_domain TEXT,
		source_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY(entry_id) REFERENCES activity_logs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_referrer_logs_entry_id ON referrer_logs(entry_id);

	CREATE TABLE IF NOT EXISTS owner_permissions (
		owner_id TEXT PRIMARY KEY,
		state TEXT NOT NULL DEFAULT 'none',
		updated_at TEXT NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

// Ping checks the store is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertEntry(ctx context.Context, ex execer, entry *domain.ActivityLogEntry) error {
	details := entry.Details
	if details == nil {
		details = domain.Details{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}

	res, err := ex.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, action, details, ip_address, timestamp) VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, string(entry.Action), string(detailsJSON), entry.IPAddress, formatTime(entry.Timestamp))
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

func (r *SQLiteRepository) Write(ctx context.Context, entry *domain.ActivityLogEntry) error {
	return insertEntry(ctx, r.db, entry)
}

func (r *SQLiteRepository) WriteReferrer(ctx context.Context, entry *domain.ActivityLogEntry, ref *domain.ReferrerLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertEntry(ctx, tx, entry); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO referrer_logs (entry_id, referrer_url, source_domain, source_type, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, ref.ReferrerURL, ref.SourceDomain, string(ref.SourceType), formatTime(entry.Timestamp))
	if err != nil {
		entry.ID = 0
		return err
	}

	if err := tx.Commit(); err != nil {
		entry.ID = 0
		return err
	}
	return nil
}

func whereClause(filter domain.LogFilter) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.HasAction() {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if filter.IPAddress != "" {
		query += " AND ip_address = ?"
		args = append(args, filter.IPAddress)
	}
	if filter.StartDate != nil {
		query += " AND timestamp >= ?"
		args = append(args, formatTime(*filter.StartDate))
	}
	if filter.EndDate != nil {
		query += " AND timestamp <= ?"
		args = append(args, formatTime(*filter.EndDate))
	}
	return query, args
}

// Query returns matching entries newest first. LIMIT applies only when PageSize is set.
func (r *SQLiteRepository) Query(ctx context.Context, filter domain.LogFilter) ([]domain.ActivityLogEntry, error) {
	where, args := whereClause(filter)
	query := `SELECT id, user_id, action, details, ip_address, timestamp FROM activity_logs` + where +
		" ORDER BY timestamp DESC, id DESC"
	if filter.PageSize > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.PageSize, filter.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.ActivityLogEntry{}
	for rows.Next() {
		var e domain.ActivityLogEntry
		var action, ts string
		var detailsJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &action, &detailsJSON, &e.IPAddress, &ts); err != nil {
			return nil, err
		}
		e.Action = domain.ActionKind(action)
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("entry %d: parse timestamp: %w", e.ID, err)
		}
		e.Details = domain.Details{}
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &e.Details); err != nil {
				return nil, fmt.Errorf("entry %d: decode details: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) Count(ctx context.Context, filter domain.LogFilter) (int64, error) {
	where, args := whereClause(filter)

	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_logs`+where, args...).Scan(&count)
	return count, err
}

// Delete removes the given entries and their referrer rows in one transaction.
func (r *SQLiteRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var deleted int64
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]interface{}, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM referrer_logs WHERE entry_id IN (`+placeholders+`)`, args...); err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM activity_logs WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

// ReferrerSummary counts stored referrer rows per source type.
func (r *SQLiteRepository) ReferrerSummary(ctx context.Context) (map[domain.SourceType]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT source_type, COUNT(*) FROM referrer_logs GROUP BY source_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make(map[domain.SourceType]int64)
	for rows.Next() {
		var sourceType string
		var count int64
		if err := rows.Scan(&sourceType, &count); err != nil {
			return nil, err
		}
		summary[domain.SourceType(sourceType)] = count
	}
	return summary, rows.Err()
}

// --- Permission Store Implementation ---

func (r *SQLiteRepository) Load(ctx context.Context, ownerID string) (domain.PermissionState, error) {
	var state string
	err := r.db.QueryRowContext(ctx, `SELECT state FROM owner_permissions WHERE owner_id = ?`, ownerID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PermissionNone, nil
	}
	if err != nil {
		return "", err
	}
	return domain.PermissionState(state), nil
}

// CompareAndSwap moves ownerID from -> to only if the stored state is still from.
// Owners without a row are in state none.
func (r *SQLiteRepository) CompareAndSwap(ctx context.Context, ownerID string, from, to domain.PermissionState) (bool, error) {
	if !knownState(from) || !knownState(to) {
		return false, fmt.Errorf("unknown permission state %q -> %q", from, to)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO owner_permissions (owner_id, state, updated_at) VALUES (?, ?, ?)`,
		ownerID, string(domain.PermissionNone), now); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE owner_permissions SET state = ?, updated_at = ? WHERE owner_id = ? AND state = ?`,
		string(to), now, ownerID, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n == 1, nil
}

func knownState(s domain.PermissionState) bool {
	switch s {
	case domain.PermissionNone, domain.PermissionDownload, domain.PermissionDelete:
		return true
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Ensure interface compliance
var (
	_ ports.ActivityRepository = (*SQLiteRepository)(nil)
	_ ports.PermissionStore    = (*SQLiteRepository)(nil)
)
