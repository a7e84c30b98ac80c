package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"caseline/internal/audit"
	"caseline/internal/config"
	"caseline/internal/domain"
	"caseline/internal/registry"
	"caseline/internal/repo"
	"caseline/internal/roster"
	"caseline/internal/workflow"
)

// Engine coordinates case intake, workload balancing, stage progression and
// the Action Center counters on top of the repo layer.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Audit    audit.Writer
	Roster   roster.Service
	Registry registry.Verifier
	Config   *config.Config
	Log      *zap.Logger
	Now      func() time.Time
}

func New(db *sql.DB, cfg *config.Config, log *zap.Logger) Engine {
	if log == nil {
		log = zap.NewNop()
	}
	r := repo.Repo{DB: db}
	activeStatus := "active"
	if cfg != nil && cfg.Roster.ActiveStatus != "" {
		activeStatus = cfg.Roster.ActiveStatus
	}
	return Engine{
		DB:     db,
		Repo:   r,
		Audit:  audit.Writer{DB: db},
		Roster: roster.DBRoster{Repo: r, ActiveStatus: activeStatus},
		Config: cfg,
		Log:    log,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

var validStatuses = map[string]bool{
	domain.StatusPendingContact:          true,
	domain.StatusConsentSent:             true,
	domain.StatusConsentReceived:         true,
	domain.StatusVisitScheduled:          true,
	domain.StatusReportInProgress:        true,
	domain.StatusInternalReviewComplete:  true,
	domain.StatusAwaitingClosureApproval: true,
	domain.StatusClosed:                  true,
	domain.StatusCancelled:               true,
}

// ReferralOptions are the parameters for submitting a new case referral.
type ReferralOptions struct {
	CasePin      string
	LawyerPin    string
	LawyerName   string
	ClientName   string
	CaseType     string
	ReferralData string
}

// AssignCase submits a referral and assigns it to the active manager with
// the fewest open cases. Counting workloads, inserting the case and writing
// the audit entry all happen inside one transaction, so the new case is
// visible to the next assignment's counts. The returned workload is the
// winner's count before this case was added.
func (e Engine) AssignCase(ctx context.Context, opts ReferralOptions) (domain.Case, domain.ManagerWorkload, error) {
	var none domain.ManagerWorkload
	if opts.CasePin == "" {
		return domain.Case{}, none, validationf("case_pin is required")
	}
	if opts.LawyerPin == "" {
		return domain.Case{}, none, validationf("lawyer_pin is required")
	}
	if opts.ClientName == "" {
		return domain.Case{}, none, validationf("client_name is required")
	}
	if opts.CaseType == "" {
		return domain.Case{}, none, validationf("case_type is required")
	}
	if opts.ReferralData == "" {
		opts.ReferralData = "{}"
	}
	if !json.Valid([]byte(opts.ReferralData)) {
		return domain.Case{}, none, validationf("referral_data must be valid JSON")
	}

	managers, err := e.Roster.ListActiveManagers(ctx)
	if err != nil {
		return domain.Case{}, none, &DependencyError{Msg: "roster unavailable", Err: err}
	}
	if len(managers) == 0 {
		return domain.Case{}, none, &NoAvailableManagerError{Msg: "no active case managers available"}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, none, &DependencyError{Msg: "begin assignment", Err: err}
	}
	defer tx.Rollback()

	// First minimum wins: ties resolve to the earliest roster entry.
	var chosen domain.ManagerWorkload
	chosen.ActiveCount = -1
	for _, m := range managers {
		n, err := e.Repo.CountActiveCasesTx(ctx, tx, m.Pin)
		if err != nil {
			return domain.Case{}, none, &DependencyError{Msg: fmt.Sprintf("count workload for %s", m.Pin), Err: err}
		}
		if chosen.ActiveCount < 0 || n < chosen.ActiveCount {
			chosen = domain.ManagerWorkload{ManagerRef: m, ActiveCount: n}
		}
	}

	nowStr := e.now().UTC().Format(time.RFC3339)
	c := domain.Case{
		CasePin:        opts.CasePin,
		LawyerPin:      opts.LawyerPin,
		LawyerName:     opts.LawyerName,
		ClientName:     opts.ClientName,
		CaseType:       opts.CaseType,
		AssignedCmPin:  &chosen.Pin,
		AssignedCmName: &chosen.Name,
		AssignedAt:     &nowStr,
		CaseStatus:     domain.StatusPendingContact,
		WorkflowStage:  1,
		StageUpdatedAt: nowStr,
		ReferralData:   opts.ReferralData,
		CreatedAt:      nowStr,
		UpdatedAt:      nowStr,
	}
	id, err := e.Repo.InsertCaseTx(ctx, tx, c)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.Case{}, none, &ConflictError{Msg: fmt.Sprintf("case %s already exists", opts.CasePin)}
		}
		return domain.Case{}, none, &DependencyError{Msg: "insert case", Err: err}
	}
	c.ID = id

	desc := fmt.Sprintf("Case automatically assigned to %s (lowest workload: %d cases)", chosen.Name, chosen.ActiveCount)
	if err := e.Audit.Append(ctx, tx, c.CasePin, "caseAssigned", desc, "system", nowStr); err != nil {
		return domain.Case{}, none, &DependencyError{Msg: "append audit entry", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.Case{}, none, &DependencyError{Msg: "commit assignment", Err: err}
	}
	e.Log.Info("case assigned",
		zap.String("case_pin", c.CasePin),
		zap.String("cm_pin", chosen.Pin),
		zap.Int("workload", chosen.ActiveCount))
	return c, chosen, nil
}

// CaseWithPriority decorates a case with its stage metadata and priority.
type CaseWithPriority struct {
	domain.Case
	Priority  workflow.Priority `json:"priority"`
	StageName string            `json:"stage_name"`
	Progress  int               `json:"progress_percent"`
}

// Action filters for the case worklist. The first four mirror the Action
// Center badges; attention and onTrack slice by priority tier.
const (
	ActionUrgent    = "urgent"
	ActionToday     = "today"
	ActionReady     = "ready"
	ActionPending   = "pending"
	ActionAttention = "attention"
	ActionOnTrack   = "onTrack"
)

var validActions = map[string]bool{
	ActionUrgent:    true,
	ActionToday:     true,
	ActionReady:     true,
	ActionPending:   true,
	ActionAttention: true,
	ActionOnTrack:   true,
}

// CaseListOptions filter the case list.
type CaseListOptions struct {
	AssignedCmPin   string
	Status          string
	Stage           int
	Action          string
	IncludeTerminal bool
}

// CaseList is the decorated result. Degraded means the query failed and the
// empty list is a fallback, not an answer.
type CaseList struct {
	Cases    []CaseWithPriority
	Degraded bool
}

// ListCasesWithPriority returns cases decorated with priority and stage
// metadata. Database failure degrades to an empty list instead of an error
// so dashboards keep rendering.
func (e Engine) ListCasesWithPriority(ctx context.Context, opts CaseListOptions) (CaseList, error) {
	if opts.Status != "" && !validStatuses[opts.Status] {
		return CaseList{}, validationf("unknown case status %q", opts.Status)
	}
	if opts.Action != "" && !validActions[opts.Action] {
		return CaseList{}, validationf("unknown action filter %q", opts.Action)
	}
	now := e.now().UTC()
	f := repo.CaseFilter{
		AssignedCmPin:   opts.AssignedCmPin,
		Status:          opts.Status,
		Stage:           opts.Stage,
		IncludeTerminal: opts.IncludeTerminal,
	}
	switch opts.Action {
	case ActionUrgent:
		f.UrgentBefore = urgentCutoff(now)
	case ActionToday:
		f.VisitsOn = now.Format("2006-01-02")
	case ActionReady:
		f.Ready = true
	case ActionPending:
		f.PendingReview = true
	}
	cases, err := e.Repo.ListCases(ctx, f)
	if err != nil {
		e.Log.Warn("case list degraded", zap.Error(err))
		return CaseList{Cases: []CaseWithPriority{}, Degraded: true}, nil
	}
	res := make([]CaseWithPriority, 0, len(cases))
	for _, c := range cases {
		updated, err := time.Parse(time.RFC3339, c.StageUpdatedAt)
		if err != nil {
			updated = now
		}
		// The urgent action already filtered in SQL; a case between five and
		// six floor-days still counts there even though its tier shows
		// attention, matching the badge query.
		p := workflow.Classify(updated, now)
		switch opts.Action {
		case ActionAttention, ActionOnTrack:
			if p.Level != opts.Action {
				continue
			}
		}
		res = append(res, CaseWithPriority{
			Case:      c,
			Priority:  p,
			StageName: workflow.StageName(c.WorkflowStage),
			Progress:  workflow.StagePercent(c.WorkflowStage),
		})
	}
	return CaseList{Cases: res}, nil
}

// urgentCutoff is the stage_updated_at threshold below which a case counts
// as urgent.
func urgentCutoff(now time.Time) string {
	return now.AddDate(0, 0, -5).UTC().Format(time.RFC3339)
}

// BadgeCounts computes the five Action Center counters. Any query failure
// degrades the whole set to zeroes with Degraded set; the dashboard must
// never error on badge load.
func (e Engine) BadgeCounts(ctx context.Context) domain.BadgeCounts {
	now := e.now().UTC()
	degraded := func(err error) domain.BadgeCounts {
		e.Log.Warn("badge counts degraded", zap.Error(err))
		return domain.BadgeCounts{Degraded: true}
	}
	urgent, err := e.Repo.CountUrgentCases(ctx, urgentCutoff(now))
	if err != nil {
		return degraded(err)
	}
	today, err := e.Repo.CountVisitsOn(ctx, now.Format("2006-01-02"))
	if err != nil {
		return degraded(err)
	}
	ready, err := e.Repo.CountReadyCases(ctx)
	if err != nil {
		return degraded(err)
	}
	pending, err := e.Repo.CountPendingReviewCases(ctx)
	if err != nil {
		return degraded(err)
	}
	approval, err := e.Repo.CountApprovalQueue(ctx)
	if err != nil {
		return degraded(err)
	}
	return domain.BadgeCounts{
		Urgent:        urgent,
		Today:         today,
		Ready:         ready,
		Pending:       pending,
		ApprovalQueue: approval,
	}
}

// AdvanceStage moves a case forward in the workflow. Stages only ever
// increase; moving a case backward requires operator intervention outside
// the system.
func (e Engine) AdvanceStage(ctx context.Context, casePin string, stage int, actorID string) (domain.Case, error) {
	if !workflow.ValidStage(stage) {
		return domain.Case{}, validationf("workflow stage must be between 1 and %d", workflow.StageCount)
	}
	c, err := e.Repo.GetCase(ctx, casePin)
	if err == repo.ErrNotFound {
		return domain.Case{}, notFoundf("case %s not found", casePin)
	}
	if err != nil {
		return domain.Case{}, err
	}
	if domain.TerminalStatus(c.CaseStatus) {
		return domain.Case{}, validationf("case %s is %s", casePin, c.CaseStatus)
	}
	if stage <= c.WorkflowStage {
		return domain.Case{}, validationf("case %s is already at stage %d", casePin, c.WorkflowStage)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, err
	}
	defer tx.Rollback()

	nowStr := e.now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `UPDATE cases SET workflow_stage=?, stage_updated_at=?, updated_at=? WHERE case_pin=?`,
		stage, nowStr, nowStr, casePin); err != nil {
		return domain.Case{}, fmt.Errorf("update stage: %w", err)
	}
	desc := fmt.Sprintf("Workflow advanced to %s", workflow.StageName(stage))
	if err := e.Audit.Append(ctx, tx, casePin, "stageAdvanced", desc, actorID, nowStr); err != nil {
		return domain.Case{}, fmt.Errorf("append audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Case{}, err
	}
	c.WorkflowStage = stage
	c.StageUpdatedAt = nowStr
	c.UpdatedAt = nowStr
	return c, nil
}

// UpdateCaseStatus sets the case status and logs the change. Terminal cases
// are frozen.
func (e Engine) UpdateCaseStatus(ctx context.Context, casePin, status, actorID string) (domain.Case, error) {
	if !validStatuses[status] {
		return domain.Case{}, validationf("unknown case status %q", status)
	}
	c, err := e.Repo.GetCase(ctx, casePin)
	if err == repo.ErrNotFound {
		return domain.Case{}, notFoundf("case %s not found", casePin)
	}
	if err != nil {
		return domain.Case{}, err
	}
	if domain.TerminalStatus(c.CaseStatus) {
		return domain.Case{}, validationf("case %s is %s", casePin, c.CaseStatus)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, err
	}
	defer tx.Rollback()

	nowStr := e.now().UTC().Format(time.RFC3339)
	set := `case_status=?, updated_at=?`
	args := []any{status, nowStr}
	if status == domain.StatusConsentReceived && c.ConsentReceivedAt == nil {
		set += `, consent_received_at=?`
		args = append(args, nowStr)
	}
	args = append(args, casePin)
	if _, err := tx.ExecContext(ctx, `UPDATE cases SET `+set+` WHERE case_pin=?`, args...); err != nil {
		return domain.Case{}, fmt.Errorf("update status: %w", err)
	}
	desc := fmt.Sprintf("Case status changed from %s to %s", c.CaseStatus, status)
	if err := e.Audit.Append(ctx, tx, casePin, "statusChanged", desc, actorID, nowStr); err != nil {
		return domain.Case{}, fmt.Errorf("append audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Case{}, err
	}
	c.CaseStatus = status
	c.UpdatedAt = nowStr
	return c, nil
}

// ScheduleVisit books an INA visit on a calendar date and moves the case to
// visitScheduled.
func (e Engine) ScheduleVisit(ctx context.Context, casePin, date, actorID string) (domain.Visit, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.Visit{}, validationf("visit date must be YYYY-MM-DD")
	}
	c, err := e.Repo.GetCase(ctx, casePin)
	if err == repo.ErrNotFound {
		return domain.Visit{}, notFoundf("case %s not found", casePin)
	}
	if err != nil {
		return domain.Visit{}, err
	}
	if domain.TerminalStatus(c.CaseStatus) {
		return domain.Visit{}, validationf("case %s is %s", casePin, c.CaseStatus)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Visit{}, err
	}
	defer tx.Rollback()

	nowStr := e.now().UTC().Format(time.RFC3339)
	v := domain.Visit{
		ID:        uuid.NewString(),
		CasePin:   casePin,
		VisitDate: date,
		Status:    "scheduled",
		CreatedAt: nowStr,
	}
	if err := e.Repo.InsertVisitTx(ctx, tx, v); err != nil {
		return domain.Visit{}, fmt.Errorf("insert visit: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cases SET visit_date=?, case_status=?, updated_at=? WHERE case_pin=?`,
		date, domain.StatusVisitScheduled, nowStr, casePin); err != nil {
		return domain.Visit{}, fmt.Errorf("update case visit: %w", err)
	}
	desc := fmt.Sprintf("INA visit scheduled for %s", date)
	if err := e.Audit.Append(ctx, tx, casePin, "visitScheduled", desc, actorID, nowStr); err != nil {
		return domain.Visit{}, fmt.Errorf("append audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Visit{}, err
	}
	return v, nil
}

// CreateReport opens an INA report for a case.
func (e Engine) CreateReport(ctx context.Context, casePin, actorID string) (domain.Report, error) {
	if _, err := e.Repo.GetCase(ctx, casePin); err != nil {
		if err == repo.ErrNotFound {
			return domain.Report{}, notFoundf("case %s not found", casePin)
		}
		return domain.Report{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, err
	}
	defer tx.Rollback()

	rep := domain.Report{
		ID:            uuid.NewString(),
		CasePin:       casePin,
		PaymentStatus: "pending",
		CreatedAt:     e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertReportTx(ctx, tx, rep); err != nil {
		return domain.Report{}, fmt.Errorf("insert report: %w", err)
	}
	if err := e.Audit.Append(ctx, tx, casePin, "reportCreated", "INA report opened", actorID, rep.CreatedAt); err != nil {
		return domain.Report{}, fmt.Errorf("append audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}

// CompleteVisit marks a scheduled INA visit as done.
func (e Engine) CompleteVisit(ctx context.Context, casePin, visitID, actorID string) error {
	c, err := e.Repo.GetCase(ctx, casePin)
	if err == repo.ErrNotFound {
		return notFoundf("case %s not found", casePin)
	}
	if err != nil {
		return err
	}
	if domain.TerminalStatus(c.CaseStatus) {
		return validationf("case %s is %s", casePin, c.CaseStatus)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateVisitStatusTx(ctx, tx, visitID, "completed"); err != nil {
		if err == repo.ErrNotFound {
			return notFoundf("visit %s not found", visitID)
		}
		return fmt.Errorf("update visit: %w", err)
	}
	nowStr := e.now().UTC().Format(time.RFC3339)
	if err := e.Audit.Append(ctx, tx, casePin, "visitCompleted", "INA visit completed", actorID, nowStr); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return tx.Commit()
}

var validPaymentStatuses = map[string]bool{
	"pending":         true,
	"pendingApproval": true,
	"approved":        true,
	"paid":            true,
}

// AssignReader mints a reader pin and attaches it to the case's INA report.
// Each reader slot is assigned once.
func (e Engine) AssignReader(ctx context.Context, casePin string, second bool, actorID string) (domain.Report, error) {
	rep, err := e.Repo.GetReportByCase(ctx, casePin)
	if err == repo.ErrNotFound {
		return domain.Report{}, notFoundf("no INA report for case %s", casePin)
	}
	if err != nil {
		return domain.Report{}, err
	}
	slot := "First"
	if second {
		slot = "Second"
		if rep.SecondReaderPin != nil {
			return domain.Report{}, validationf("second reader already assigned to case %s", casePin)
		}
	} else if rep.FirstReaderPin != nil {
		return domain.Report{}, validationf("first reader already assigned to case %s", casePin)
	}
	readerPin, err := GenerateReaderPin()
	if err != nil {
		return domain.Report{}, fmt.Errorf("generate reader pin: %w", err)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.AssignReaderTx(ctx, tx, rep.ID, readerPin, second); err != nil {
		return domain.Report{}, fmt.Errorf("assign reader: %w", err)
	}
	desc := fmt.Sprintf("%s reader %s assigned to INA report", slot, readerPin)
	nowStr := e.now().UTC().Format(time.RFC3339)
	if err := e.Audit.Append(ctx, tx, casePin, "readerAssigned", desc, actorID, nowStr); err != nil {
		return domain.Report{}, fmt.Errorf("append audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Report{}, err
	}
	if second {
		rep.SecondReaderPin = &readerPin
	} else {
		rep.FirstReaderPin = &readerPin
	}
	return rep, nil
}

// UpdateReportPayment moves the report through the payment pipeline.
func (e Engine) UpdateReportPayment(ctx context.Context, casePin, status, actorID string) (domain.Report, error) {
	if !validPaymentStatuses[status] {
		return domain.Report{}, validationf("unknown payment status %q", status)
	}
	rep, err := e.Repo.GetReportByCase(ctx, casePin)
	if err == repo.ErrNotFound {
		return domain.Report{}, notFoundf("no INA report for case %s", casePin)
	}
	if err != nil {
		return domain.Report{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateReportPaymentTx(ctx, tx, rep.ID, status); err != nil {
		return domain.Report{}, fmt.Errorf("update payment status: %w", err)
	}
	desc := fmt.Sprintf("Report payment status changed from %s to %s", rep.PaymentStatus, status)
	nowStr := e.now().UTC().Format(time.RFC3339)
	if err := e.Audit.Append(ctx, tx, casePin, "paymentStatusChanged", desc, actorID, nowStr); err != nil {
		return domain.Report{}, fmt.Errorf("append audit entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Report{}, err
	}
	rep.PaymentStatus = status
	return rep, nil
}

// WorkspaceFeatures derives the feature flags for a manager from the
// compliance gate.
func (e Engine) WorkspaceFeatures(ctx context.Context, pin string) (domain.WorkspaceFeatures, error) {
	m, err := e.Repo.GetManager(ctx, pin)
	if err == repo.ErrNotFound {
		return domain.WorkspaceFeatures{}, notFoundf("case manager %s not found", pin)
	}
	if err != nil {
		return domain.WorkspaceFeatures{}, err
	}
	return domain.FeaturesFor(m.ComplianceApproved), nil
}

// OnboardManager registers a case manager, checking the medical registry
// first when a verifier is configured.
func (e Engine) OnboardManager(ctx context.Context, pin, name string) (domain.CaseManager, error) {
	if pin == "" || name == "" {
		return domain.CaseManager{}, validationf("pin and name are required")
	}
	if e.Registry != nil {
		reg, err := e.Registry.Verify(ctx, pin)
		if err != nil {
			return domain.CaseManager{}, &DependencyError{Msg: "medical registry unavailable", Err: err}
		}
		if !reg.Registered {
			return domain.CaseManager{}, validationf("pin %s has no current medical registration", pin)
		}
	}
	m := domain.CaseManager{
		Pin:       pin,
		Name:      name,
		Status:    "active",
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertManager(ctx, m); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.CaseManager{}, &ConflictError{Msg: fmt.Sprintf("case manager %s already exists", pin)}
		}
		return domain.CaseManager{}, fmt.Errorf("insert manager: %w", err)
	}
	return m, nil
}

// GenerateReaderPin mints a reader identifier of the form RD-XXXXXX.
func GenerateReaderPin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RD-%06d", n.Int64()), nil
}
