package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuchenak/connprops/internal/model"
)

// RecordUpdate stores one dispatched update. ID and CreatedAt are filled in
// when empty.
func (ss *SQLiteStorage) RecordUpdate(rec *model.UpdateRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := ss.db.Exec(`
		INSERT INTO updates (id, commit_id, service_id, section, property, payload, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.CommitID, rec.ServiceID, string(rec.Section), rec.Key, rec.Payload, rec.Status, rec.Error, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting update: %w", err)
	}
	return nil
}

// ListUpdates returns history rows, newest first
func (ss *SQLiteStorage) ListUpdates(filter *model.UpdateFilter) ([]model.UpdateRecord, error) {
	query := `SELECT id, commit_id, service_id, section, property, payload, status, error, created_at FROM updates`

	var (
		where []string
		args  []any
	)
	if filter != nil {
		if filter.ServiceID != "" {
			where = append(where, "service_id = ?")
			args = append(args, filter.ServiceID)
		}
		if filter.CommitID != "" {
			where = append(where, "commit_id = ?")
			args = append(args, filter.CommitID)
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying updates: %w", err)
	}
	defer rows.Close()

	records := []model.UpdateRecord{}
	for rows.Next() {
		var (
			rec     model.UpdateRecord
			section string
			errText sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.CommitID, &rec.ServiceID, &section, &rec.Key, &rec.Payload, &rec.Status, &errText, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning update: %w", err)
		}
		rec.Section = model.Section(section)
		rec.Error = errText.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
