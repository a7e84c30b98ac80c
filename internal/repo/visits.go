package repo

import (
	"context"
	"database/sql"

	"caseline/internal/domain"
)

func (r Repo) InsertVisitTx(ctx context.Context, tx *sql.Tx, v domain.Visit) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO ina_visits(id,case_pin,visit_date,visit_status,created_at) VALUES (?,?,?,?,?)`,
		v.ID, v.CasePin, v.VisitDate, v.Status, v.CreatedAt)
	return err
}

// CountVisitsOn counts scheduled visits for a calendar date. Dates are stored
// as YYYY-MM-DD strings so the match is exact.
func (r Repo) CountVisitsOn(ctx context.Context, date string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM ina_visits WHERE visit_date=? AND visit_status='scheduled'`, date).Scan(&n)
	return n, err
}

func (r Repo) ListVisitsByCase(ctx context.Context, casePin string) ([]domain.Visit, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,case_pin,visit_date,visit_status,created_at FROM ina_visits WHERE case_pin=? ORDER BY visit_date ASC`, casePin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Visit
	for rows.Next() {
		var v domain.Visit
		if err := rows.Scan(&v.ID, &v.CasePin, &v.VisitDate, &v.Status, &v.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func (r Repo) UpdateVisitStatusTx(ctx context.Context, tx *sql.Tx, visitID, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE ina_visits SET visit_status=? WHERE id=?`, status, visitID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
