package repo

import (
	"context"
	"database/sql"

	"caseline/internal/domain"
)

func scanReport(scan func(dest ...any) error) (domain.Report, error) {
	var rep domain.Report
	var first, second sql.NullString
	err := scan(&rep.ID, &rep.CasePin, &first, &second, &rep.PaymentStatus, &rep.CreatedAt)
	if err == sql.ErrNoRows {
		return rep, ErrNotFound
	}
	if err != nil {
		return rep, err
	}
	rep.FirstReaderPin = strPtr(first)
	rep.SecondReaderPin = strPtr(second)
	return rep, nil
}

func (r Repo) InsertReportTx(ctx context.Context, tx *sql.Tx, rep domain.Report) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO ina_reports(id,case_pin,first_reader_pin,second_reader_pin,payment_status,created_at) VALUES (?,?,?,?,?,?)`,
		rep.ID, rep.CasePin, ptrArg(rep.FirstReaderPin), ptrArg(rep.SecondReaderPin), rep.PaymentStatus, rep.CreatedAt)
	return err
}

func (r Repo) GetReportByCase(ctx context.Context, casePin string) (domain.Report, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,case_pin,first_reader_pin,second_reader_pin,payment_status,created_at FROM ina_reports WHERE case_pin=?`, casePin)
	return scanReport(row.Scan)
}

func (r Repo) AssignReaderTx(ctx context.Context, tx *sql.Tx, reportID, readerPin string, second bool) error {
	col := "first_reader_pin"
	if second {
		col = "second_reader_pin"
	}
	res, err := tx.ExecContext(ctx, `UPDATE ina_reports SET `+col+`=? WHERE id=?`, readerPin, reportID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateReportPaymentTx(ctx context.Context, tx *sql.Tx, reportID, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE ina_reports SET payment_status=? WHERE id=?`, status, reportID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
