package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"caseline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const caseColumns = `id,case_pin,lawyer_pin,lawyer_name,client_name,case_type,assigned_cm_pin,assigned_cm_name,assigned_at,case_status,workflow_stage,stage_updated_at,referral_data,consent_received_at,visit_date,created_at,updated_at`

func scanCase(scan func(dest ...any) error) (domain.Case, error) {
	var c domain.Case
	var cmPin, cmName, assignedAt, consentAt, visitDate sql.NullString
	err := scan(&c.ID, &c.CasePin, &c.LawyerPin, &c.LawyerName, &c.ClientName, &c.CaseType,
		&cmPin, &cmName, &assignedAt, &c.CaseStatus, &c.WorkflowStage, &c.StageUpdatedAt,
		&c.ReferralData, &consentAt, &visitDate, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	c.AssignedCmPin = strPtr(cmPin)
	c.AssignedCmName = strPtr(cmName)
	c.AssignedAt = strPtr(assignedAt)
	c.ConsentReceivedAt = strPtr(consentAt)
	c.VisitDate = strPtr(visitDate)
	return c, nil
}

func (r Repo) InsertCaseTx(ctx context.Context, tx *sql.Tx, c domain.Case) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO cases(case_pin,lawyer_pin,lawyer_name,client_name,case_type,assigned_cm_pin,assigned_cm_name,assigned_at,case_status,workflow_stage,stage_updated_at,referral_data,consent_received_at,visit_date,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.CasePin, c.LawyerPin, c.LawyerName, c.ClientName, c.CaseType,
		ptrArg(c.AssignedCmPin), ptrArg(c.AssignedCmName), ptrArg(c.AssignedAt),
		c.CaseStatus, c.WorkflowStage, c.StageUpdatedAt, c.ReferralData,
		ptrArg(c.ConsentReceivedAt), ptrArg(c.VisitDate), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetCase(ctx context.Context, casePin string) (domain.Case, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_pin=?`, casePin)
	return scanCase(row.Scan)
}

// CaseFilter narrows ListCases. Zero values mean no constraint.
type CaseFilter struct {
	AssignedCmPin string
	Status        string
	Stage         int
	// UrgentBefore keeps only cases whose stage_updated_at sorts before the
	// cutoff. RFC3339 UTC strings compare lexicographically, so this is a
	// plain string comparison in SQL.
	UrgentBefore string
	// VisitsOn keeps cases with a scheduled visit on the given YYYY-MM-DD date.
	VisitsOn        string
	Ready           bool
	PendingReview   bool
	IncludeTerminal bool
}

func (r Repo) ListCases(ctx context.Context, f CaseFilter) ([]domain.Case, error) {
	where := []string{"1=1"}
	var args []any
	if f.AssignedCmPin != "" {
		where = append(where, "assigned_cm_pin=?")
		args = append(args, f.AssignedCmPin)
	}
	if f.Status != "" {
		where = append(where, "case_status=?")
		args = append(args, f.Status)
	}
	if f.Stage != 0 {
		where = append(where, "workflow_stage=?")
		args = append(args, f.Stage)
	}
	if f.UrgentBefore != "" {
		where = append(where, "stage_updated_at < ?")
		args = append(args, f.UrgentBefore)
	}
	if f.VisitsOn != "" {
		where = append(where, "EXISTS (SELECT 1 FROM ina_visits v WHERE v.case_pin=cases.case_pin AND v.visit_date=? AND v.visit_status='scheduled')")
		args = append(args, f.VisitsOn)
	}
	if f.Ready {
		where = append(where, "case_status=? AND workflow_stage=4")
		args = append(args, domain.StatusConsentReceived)
	}
	if f.PendingReview {
		where = append(where, "workflow_stage=9 AND case_status=?")
		where = append(where, "EXISTS (SELECT 1 FROM ina_reports r WHERE r.case_pin=cases.case_pin AND r.first_reader_pin IS NULL)")
		args = append(args, domain.StatusInternalReviewComplete)
	}
	if !f.IncludeTerminal {
		where = append(where, "case_status NOT IN (?,?)")
		args = append(args, domain.StatusClosed, domain.StatusCancelled)
	}
	q := fmt.Sprintf(`SELECT %s FROM cases WHERE %s ORDER BY stage_updated_at ASC, id ASC`, caseColumns, strings.Join(where, " AND "))
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Case
	for rows.Next() {
		c, err := scanCase(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// CountActiveCasesTx counts non-terminal cases assigned to a manager, inside
// the caller's transaction so assignment reads its own writes.
func (r Repo) CountActiveCasesTx(ctx context.Context, tx *sql.Tx, cmPin string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases WHERE assigned_cm_pin=? AND case_status NOT IN (?,?)`,
		cmPin, domain.StatusClosed, domain.StatusCancelled).Scan(&n)
	return n, err
}

func (r Repo) CountUrgentCases(ctx context.Context, cutoff string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases WHERE stage_updated_at < ? AND case_status NOT IN (?,?)`,
		cutoff, domain.StatusClosed, domain.StatusCancelled).Scan(&n)
	return n, err
}

func (r Repo) CountReadyCases(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases WHERE case_status=? AND workflow_stage=4`,
		domain.StatusConsentReceived).Scan(&n)
	return n, err
}

// CountPendingReviewCases counts stage 9 cases whose internal review is done
// but whose report has no first reader yet.
func (r Repo) CountPendingReviewCases(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases c
		WHERE c.workflow_stage=9 AND c.case_status=?
		AND EXISTS (SELECT 1 FROM ina_reports r WHERE r.case_pin=c.case_pin AND r.first_reader_pin IS NULL)`,
		domain.StatusInternalReviewComplete).Scan(&n)
	return n, err
}

func (r Repo) CountApprovalQueue(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM ina_reports WHERE payment_status='pendingApproval')
		+ (SELECT COUNT(*) FROM cases WHERE case_status=?)`,
		domain.StatusAwaitingClosureApproval).Scan(&n)
	return n, err
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func ptrArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

