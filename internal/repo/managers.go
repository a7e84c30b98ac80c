package repo

import (
	"context"
	"database/sql"

	"caseline/internal/domain"
)

func scanManager(scan func(dest ...any) error) (domain.CaseManager, error) {
	var m domain.CaseManager
	var signedAt, pdfPath, hash sql.NullString
	err := scan(&m.Pin, &m.Name, &m.Status, &m.ComplianceApproved, &m.NdaSigned, &signedAt, &pdfPath, &hash, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	m.NdaSignedAt = strPtr(signedAt)
	m.NdaPdfPath = strPtr(pdfPath)
	m.NdaContentHash = strPtr(hash)
	return m, nil
}

const managerColumns = `pin,name,status,compliance_approved,nda_signed,nda_signed_at,nda_pdf_path,nda_content_hash,created_at`

func (r Repo) InsertManager(ctx context.Context, m domain.CaseManager) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO case_managers(pin,name,status,compliance_approved,nda_signed,nda_signed_at,nda_pdf_path,nda_content_hash,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		m.Pin, m.Name, m.Status, m.ComplianceApproved, m.NdaSigned,
		ptrArg(m.NdaSignedAt), ptrArg(m.NdaPdfPath), ptrArg(m.NdaContentHash), m.CreatedAt)
	return err
}

func (r Repo) GetManager(ctx context.Context, pin string) (domain.CaseManager, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+managerColumns+` FROM case_managers WHERE pin=?`, pin)
	return scanManager(row.Scan)
}

func (r Repo) ListManagers(ctx context.Context, status string) ([]domain.CaseManager, error) {
	q := `SELECT ` + managerColumns + ` FROM case_managers ORDER BY pin ASC`
	var args []any
	if status != "" {
		q = `SELECT ` + managerColumns + ` FROM case_managers WHERE status=? ORDER BY pin ASC`
		args = append(args, status)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CaseManager
	for rows.Next() {
		m, err := scanManager(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// MarkNdaSigned records the signed artifact. The update is the last step of
// the signing workflow; everything before it is retryable.
func (r Repo) MarkNdaSigned(ctx context.Context, pin, signedAt, pdfPath, contentHash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE case_managers SET nda_signed=1, nda_signed_at=?, nda_pdf_path=?, nda_content_hash=? WHERE pin=?`,
		signedAt, pdfPath, contentHash, pin)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetComplianceApproved(ctx context.Context, pin string, approved bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE case_managers SET compliance_approved=? WHERE pin=?`, approved, pin)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
