// Package audit appends entries to the case activity log. The log is
// append-only; callers pass the transaction so an audit row commits or rolls
// back together with the change it describes.
package audit

import (
	"context"
	"database/sql"

	"caseline/internal/domain"
)

type Writer struct {
	DB *sql.DB
}

// Append records one entry inside the caller's transaction. performedAt is
// supplied by the caller so the audit row carries the same timestamp as the
// change it describes.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, casePin, entryType, description, performedBy, performedAt string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO case_activity_log(case_pin,activity_type,activity_description,performed_by,performed_at) VALUES (?,?,?,?,?)`,
		casePin, entryType, description, performedBy, performedAt)
	return err
}

// Tail returns the most recent entries for a case, newest first.
func (w Writer) Tail(ctx context.Context, casePin string, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := w.DB.QueryContext(ctx, `SELECT id,case_pin,activity_type,activity_description,performed_by,performed_at FROM case_activity_log WHERE case_pin=? ORDER BY id DESC LIMIT ?`, casePin, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.CasePin, &e.Type, &e.Description, &e.PerformedBy, &e.PerformedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
