package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"caseline/internal/db"
	"caseline/internal/domain"
	"caseline/internal/engine"
	"caseline/internal/migrate"
	"caseline/internal/registry"
	"caseline/internal/roster"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, nil, zap.NewNop())
	eng.Now = func() time.Time { return fixedNow }
	ctx := context.Background()
	for _, m := range roster.DemoManagers() {
		cm := domain.CaseManager{Pin: m.Pin, Name: m.Name, Status: "active", CreatedAt: fixedNow.Format(time.RFC3339)}
		if err := eng.Repo.InsertManager(ctx, cm); err != nil {
			t.Fatalf("seed manager %s: %v", m.Pin, err)
		}
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func TestAssignCasePicksLowestWorkload(t *testing.T) {
	env := newTestEnv(t)

	// Pre-load workloads: CM-002691 gets 2 cases, CM-002693 gets 5;
	// CM-002692 stays empty and must win.
	seed := 0
	for _, load := range []struct {
		pin string
		n   int
	}{{"CM-002691", 2}, {"CM-002693", 5}} {
		for i := 0; i < load.n; i++ {
			seed++
			env.Engine.Roster = roster.StaticRoster{Managers: []domain.ManagerRef{{Pin: load.pin, Name: load.pin}}}
			if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{
				CasePin:    caseN(seed),
				LawyerPin:  "LW-0001",
				ClientName: "Client",
				CaseType:   "personal-injury",
			}); err != nil {
				t.Fatalf("seed case: %v", err)
			}
		}
	}
	env.Engine.Roster = roster.StaticRoster{Managers: roster.DemoManagers()}

	c, chosen, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{
		CasePin:    "CASE-100",
		LawyerPin:  "LW-0001",
		ClientName: "J. Doe",
		CaseType:   "personal-injury",
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if chosen.Pin != "CM-002692" {
		t.Fatalf("chose %s, want CM-002692", chosen.Pin)
	}
	if chosen.ActiveCount != 0 {
		t.Fatalf("winner workload before assignment = %d, want 0", chosen.ActiveCount)
	}
	if c.AssignedCmPin == nil || *c.AssignedCmPin != "CM-002692" {
		t.Fatalf("case assigned_cm_pin = %v", c.AssignedCmPin)
	}
	if c.CaseStatus != domain.StatusPendingContact || c.WorkflowStage != 1 {
		t.Fatalf("new case status/stage = %s/%d", c.CaseStatus, c.WorkflowStage)
	}

	entries, err := env.Engine.Audit.Tail(env.Ctx, "CASE-100", 5)
	if err != nil {
		t.Fatalf("audit tail: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != "caseAssigned" || e.PerformedBy != "system" {
		t.Fatalf("audit entry %+v", e)
	}
	want := "Case automatically assigned to David Park (lowest workload: 0 cases)"
	if e.Description != want {
		t.Fatalf("audit description = %q, want %q", e.Description, want)
	}
	// The audit row carries the same clock reading as the case it describes.
	if e.PerformedAt != fixedNow.Format(time.RFC3339) {
		t.Fatalf("audit performed_at = %q, want %q", e.PerformedAt, fixedNow.Format(time.RFC3339))
	}
}

func TestAssignCaseTieBreaksOnRosterOrder(t *testing.T) {
	env := newTestEnv(t)

	// A carries 3, B and C are tied at 1 each; B appears first in the
	// roster, so B wins.
	env.Engine.Roster = roster.StaticRoster{Managers: []domain.ManagerRef{{Pin: "CM-002691", Name: "A"}}}
	for i := 0; i < 3; i++ {
		if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: caseN(100 + i), LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, pin := range []string{"CM-002692", "CM-002693"} {
		env.Engine.Roster = roster.StaticRoster{Managers: []domain.ManagerRef{{Pin: pin, Name: pin}}}
		if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-" + pin, LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
			t.Fatal(err)
		}
	}
	env.Engine.Roster = roster.StaticRoster{Managers: roster.DemoManagers()}
	_, chosen, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-TIE", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"})
	if err != nil {
		t.Fatal(err)
	}
	if chosen.Pin != "CM-002692" {
		t.Fatalf("tie broke to %s, want CM-002692", chosen.Pin)
	}
}

func TestAssignCaseDuplicatePin(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-1", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	_, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-1", LawyerPin: "LW-2", ClientName: "Client", CaseType: "personal-injury"})
	var conflict *engine.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("duplicate pin error = %v, want ConflictError", err)
	}

	// The rejected submission must leave no trace.
	var n int
	if err := env.Engine.DB.QueryRow(`SELECT COUNT(*) FROM cases WHERE case_pin='CASE-1'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("rows for CASE-1 = %d, want 1", n)
	}
	var logs int
	if err := env.Engine.DB.QueryRow(`SELECT COUNT(*) FROM case_activity_log WHERE case_pin='CASE-1'`).Scan(&logs); err != nil {
		t.Fatal(err)
	}
	if logs != 1 {
		t.Fatalf("audit rows for CASE-1 = %d, want 1", logs)
	}
}

func TestAssignCaseValidation(t *testing.T) {
	env := newTestEnv(t)
	var verr *engine.ValidationError
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); !errors.As(err, &verr) {
		t.Fatalf("missing case_pin: %v", err)
	}
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "C-1"}); !errors.As(err, &verr) {
		t.Fatalf("missing lawyer_pin: %v", err)
	}
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "C-1", LawyerPin: "LW-1", CaseType: "personal-injury"}); !errors.As(err, &verr) {
		t.Fatalf("missing client_name: %v", err)
	}
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "C-1", LawyerPin: "LW-1", ClientName: "Client"}); !errors.As(err, &verr) {
		t.Fatalf("missing case_type: %v", err)
	}
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "C-1", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury", ReferralData: "{broken"}); !errors.As(err, &verr) {
		t.Fatalf("invalid referral_data: %v", err)
	}
}

func TestAssignCaseEmptyRoster(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Roster = roster.StaticRoster{Managers: nil}
	_, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "C-1", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"})
	var na *engine.NoAvailableManagerError
	if !errors.As(err, &na) {
		t.Fatalf("empty roster error = %v, want NoAvailableManagerError", err)
	}
	// Not an input problem, so it must not read as a validation failure.
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("empty roster surfaced as ValidationError: %v", err)
	}
}

func TestAssignCaseStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.DB.Exec(`DROP TABLE cases`); err != nil {
		t.Fatal(err)
	}
	_, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "C-1", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"})
	var dep *engine.DependencyError
	if !errors.As(err, &dep) {
		t.Fatalf("store failure error = %v, want DependencyError", err)
	}
}

func TestListCasesWithPriorityUrgentFilter(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-OLD", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-NEW", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	old := fixedNow.AddDate(0, 0, -6).Format(time.RFC3339)
	if _, err := env.Engine.DB.Exec(`UPDATE cases SET stage_updated_at=? WHERE case_pin='CASE-OLD'`, old); err != nil {
		t.Fatal(err)
	}

	list, err := env.Engine.ListCasesWithPriority(env.Ctx, engine.CaseListOptions{Action: engine.ActionUrgent})
	if err != nil {
		t.Fatal(err)
	}
	if list.Degraded {
		t.Fatal("unexpected degraded list")
	}
	if len(list.Cases) != 1 || list.Cases[0].CasePin != "CASE-OLD" {
		t.Fatalf("urgent list = %+v", list.Cases)
	}
	got := list.Cases[0]
	if got.Priority.Level != "urgent" || got.Priority.DaysInStage != 6 {
		t.Fatalf("priority = %+v", got.Priority)
	}
	if got.StageName != "Stage 1: Case Opened" || got.Progress != 7 {
		t.Fatalf("stage decoration = %q %d", got.StageName, got.Progress)
	}

	all, err := env.Engine.ListCasesWithPriority(env.Ctx, engine.CaseListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Cases) != 2 {
		t.Fatalf("full list = %d cases", len(all.Cases))
	}
}

func TestListCasesDegradesOnQueryFailure(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.DB.Exec(`DROP TABLE cases`); err != nil {
		t.Fatal(err)
	}
	list, err := env.Engine.ListCasesWithPriority(env.Ctx, engine.CaseListOptions{})
	if err != nil {
		t.Fatalf("degraded list returned error: %v", err)
	}
	if !list.Degraded || len(list.Cases) != 0 {
		t.Fatalf("list = %+v", list)
	}
}

func TestBadgeCounts(t *testing.T) {
	env := newTestEnv(t)

	// Urgent: one case six days in stage.
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-U", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	old := fixedNow.AddDate(0, 0, -6).Format(time.RFC3339)
	if _, err := env.Engine.DB.Exec(`UPDATE cases SET stage_updated_at=? WHERE case_pin='CASE-U'`, old); err != nil {
		t.Fatal(err)
	}

	// Today: a visit on the fixed date.
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-V", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ScheduleVisit(env.Ctx, "CASE-V", fixedNow.Format("2006-01-02"), "tester"); err != nil {
		t.Fatal(err)
	}

	// Ready: consent received at stage 4.
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-R", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AdvanceStage(env.Ctx, "CASE-R", 4, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.UpdateCaseStatus(env.Ctx, "CASE-R", domain.StatusConsentReceived, "tester"); err != nil {
		t.Fatal(err)
	}

	// Pending: internal review complete at stage 9 with an unread report.
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-P", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AdvanceStage(env.Ctx, "CASE-P", 9, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.UpdateCaseStatus(env.Ctx, "CASE-P", domain.StatusInternalReviewComplete, "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CreateReport(env.Ctx, "CASE-P", "tester"); err != nil {
		t.Fatal(err)
	}

	// Approval queue: one case awaiting closure approval.
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-A", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.UpdateCaseStatus(env.Ctx, "CASE-A", domain.StatusAwaitingClosureApproval, "tester"); err != nil {
		t.Fatal(err)
	}

	badges := env.Engine.BadgeCounts(env.Ctx)
	if badges.Degraded {
		t.Fatal("unexpected degraded badges")
	}
	want := domain.BadgeCounts{Urgent: 1, Today: 1, Ready: 1, Pending: 1, ApprovalQueue: 1}
	if badges != want {
		t.Fatalf("badges = %+v, want %+v", badges, want)
	}

	// Each action filter selects exactly the case that fed its badge.
	for action, wantPin := range map[string]string{
		engine.ActionUrgent:  "CASE-U",
		engine.ActionToday:   "CASE-V",
		engine.ActionReady:   "CASE-R",
		engine.ActionPending: "CASE-P",
	} {
		list, err := env.Engine.ListCasesWithPriority(env.Ctx, engine.CaseListOptions{Action: action})
		if err != nil {
			t.Fatalf("action %s: %v", action, err)
		}
		if len(list.Cases) != 1 || list.Cases[0].CasePin != wantPin {
			t.Fatalf("action %s = %+v, want %s", action, list.Cases, wantPin)
		}
	}
}

func TestBadgeCountsDegradeToZero(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.DB.Exec(`DROP TABLE cases`); err != nil {
		t.Fatal(err)
	}
	badges := env.Engine.BadgeCounts(env.Ctx)
	if !badges.Degraded {
		t.Fatal("expected degraded badges")
	}
	if badges.Urgent != 0 || badges.Today != 0 || badges.Ready != 0 || badges.Pending != 0 || badges.ApprovalQueue != 0 {
		t.Fatalf("degraded badges not zero: %+v", badges)
	}
}

func TestAdvanceStageMonotonic(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-1", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	c, err := env.Engine.AdvanceStage(env.Ctx, "CASE-1", 3, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if c.WorkflowStage != 3 {
		t.Fatalf("stage = %d", c.WorkflowStage)
	}
	var verr *engine.ValidationError
	if _, err := env.Engine.AdvanceStage(env.Ctx, "CASE-1", 2, "tester"); !errors.As(err, &verr) {
		t.Fatalf("backward move: %v", err)
	}
	if _, err := env.Engine.AdvanceStage(env.Ctx, "CASE-1", 3, "tester"); !errors.As(err, &verr) {
		t.Fatalf("same stage: %v", err)
	}
	if _, err := env.Engine.AdvanceStage(env.Ctx, "CASE-1", 15, "tester"); !errors.As(err, &verr) {
		t.Fatalf("out of range stage: %v", err)
	}
	var nferr *engine.NotFoundError
	if _, err := env.Engine.AdvanceStage(env.Ctx, "CASE-MISSING", 2, "tester"); !errors.As(err, &nferr) {
		t.Fatalf("missing case: %v", err)
	}
}

func TestUpdateCaseStatusTerminalFreeze(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-1", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.UpdateCaseStatus(env.Ctx, "CASE-1", domain.StatusClosed, "tester"); err != nil {
		t.Fatal(err)
	}
	var verr *engine.ValidationError
	if _, err := env.Engine.UpdateCaseStatus(env.Ctx, "CASE-1", domain.StatusPendingContact, "tester"); !errors.As(err, &verr) {
		t.Fatalf("reopen closed case: %v", err)
	}
	if _, err := env.Engine.AdvanceStage(env.Ctx, "CASE-1", 5, "tester"); !errors.As(err, &verr) {
		t.Fatalf("advance closed case: %v", err)
	}
}

func TestWorkspaceFeaturesComplianceGate(t *testing.T) {
	env := newTestEnv(t)
	feats, err := env.Engine.WorkspaceFeatures(env.Ctx, "CM-002691")
	if err != nil {
		t.Fatal(err)
	}
	if !feats.CanViewCases {
		t.Fatal("CanViewCases must always be true")
	}
	if feats.CanCreateCases || feats.CanViewFinances || feats.CanAccessSettings {
		t.Fatalf("unapproved manager has gated features: %+v", feats)
	}
	if err := env.Engine.Repo.SetComplianceApproved(env.Ctx, "CM-002691", true); err != nil {
		t.Fatal(err)
	}
	feats, err = env.Engine.WorkspaceFeatures(env.Ctx, "CM-002691")
	if err != nil {
		t.Fatal(err)
	}
	if !feats.CanCreateCases || !feats.CanEditCases || !feats.CanViewReports ||
		!feats.CanGenerateReports || !feats.CanAssignReaders || !feats.CanViewFinances || !feats.CanAccessSettings {
		t.Fatalf("approved manager missing features: %+v", feats)
	}
	var nferr *engine.NotFoundError
	if _, err := env.Engine.WorkspaceFeatures(env.Ctx, "CM-404"); !errors.As(err, &nferr) {
		t.Fatalf("missing manager: %v", err)
	}
}

func TestOnboardManagerRegistryGate(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Registry = registry.StaticVerifier{Registrations: map[string]registry.Registration{
		"CM-900001": {Pin: "CM-900001", Registered: true},
	}}
	m, err := env.Engine.OnboardManager(env.Ctx, "CM-900001", "Priya Shah")
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != "active" || m.ComplianceApproved {
		t.Fatalf("onboarded manager = %+v", m)
	}
	var verr *engine.ValidationError
	if _, err := env.Engine.OnboardManager(env.Ctx, "CM-900002", "No Registration"); !errors.As(err, &verr) {
		t.Fatalf("unregistered pin: %v", err)
	}
	env.Engine.Registry = registry.StaticVerifier{Err: errors.New("registry down")}
	var derr *engine.DependencyError
	if _, err := env.Engine.OnboardManager(env.Ctx, "CM-900003", "X"); !errors.As(err, &derr) {
		t.Fatalf("registry failure: %v", err)
	}
}

func TestAssignReaderAndPayment(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-1", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}

	var nferr *engine.NotFoundError
	if _, err := env.Engine.AssignReader(env.Ctx, "CASE-1", false, "tester"); !errors.As(err, &nferr) {
		t.Fatalf("reader before report: %v", err)
	}

	if _, err := env.Engine.CreateReport(env.Ctx, "CASE-1", "tester"); err != nil {
		t.Fatal(err)
	}
	rep, err := env.Engine.AssignReader(env.Ctx, "CASE-1", false, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if rep.FirstReaderPin == nil || len(*rep.FirstReaderPin) != 9 {
		t.Fatalf("first reader = %v", rep.FirstReaderPin)
	}
	var verr *engine.ValidationError
	if _, err := env.Engine.AssignReader(env.Ctx, "CASE-1", false, "tester"); !errors.As(err, &verr) {
		t.Fatalf("double first reader: %v", err)
	}
	rep, err = env.Engine.AssignReader(env.Ctx, "CASE-1", true, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if rep.SecondReaderPin == nil {
		t.Fatal("second reader not set")
	}

	rep, err = env.Engine.UpdateReportPayment(env.Ctx, "CASE-1", "pendingApproval", "tester")
	if err != nil {
		t.Fatal(err)
	}
	if rep.PaymentStatus != "pendingApproval" {
		t.Fatalf("payment status = %s", rep.PaymentStatus)
	}
	if _, err := env.Engine.UpdateReportPayment(env.Ctx, "CASE-1", "cash", "tester"); !errors.As(err, &verr) {
		t.Fatalf("bad payment status: %v", err)
	}

	stored, err := env.Engine.Repo.GetReportByCase(env.Ctx, "CASE-1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.FirstReaderPin == nil || stored.SecondReaderPin == nil || stored.PaymentStatus != "pendingApproval" {
		t.Fatalf("stored report = %+v", stored)
	}

	entries, err := env.Engine.Audit.Tail(env.Ctx, "CASE-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	types := map[string]int{}
	for _, entry := range entries {
		types[entry.Type]++
	}
	if types["readerAssigned"] != 2 || types["paymentStatusChanged"] != 1 {
		t.Fatalf("audit types = %+v", types)
	}
}

func TestCompleteVisit(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.Engine.AssignCase(env.Ctx, engine.ReferralOptions{CasePin: "CASE-1", LawyerPin: "LW-1", ClientName: "Client", CaseType: "personal-injury"}); err != nil {
		t.Fatal(err)
	}
	v, err := env.Engine.ScheduleVisit(env.Ctx, "CASE-1", fixedNow.Format("2006-01-02"), "tester")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.CompleteVisit(env.Ctx, "CASE-1", v.ID, "tester"); err != nil {
		t.Fatal(err)
	}
	visits, err := env.Engine.Repo.ListVisitsByCase(env.Ctx, "CASE-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 1 || visits[0].Status != "completed" {
		t.Fatalf("visits = %+v", visits)
	}
	// Completed visits leave the today badge.
	if n, err := env.Engine.Repo.CountVisitsOn(env.Ctx, fixedNow.Format("2006-01-02")); err != nil || n != 0 {
		t.Fatalf("scheduled count = %d, err %v", n, err)
	}
	var nferr *engine.NotFoundError
	if err := env.Engine.CompleteVisit(env.Ctx, "CASE-1", "missing-visit", "tester"); !errors.As(err, &nferr) {
		t.Fatalf("missing visit: %v", err)
	}
}

func TestGenerateReaderPinFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		pin, err := engine.GenerateReaderPin()
		if err != nil {
			t.Fatal(err)
		}
		if len(pin) != 9 || pin[:3] != "RD-" {
			t.Fatalf("reader pin %q", pin)
		}
		for _, ch := range pin[3:] {
			if ch < '0' || ch > '9' {
				t.Fatalf("reader pin %q has non-digit", pin)
			}
		}
	}
}

func caseN(n int) string {
	return fmt.Sprintf("CASE-SEED-%03d", n)
}
