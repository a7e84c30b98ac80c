package domain

// Case statuses. Closed and cancelled are terminal; cases are never deleted,
// only moved to a terminal status.
const (
	StatusPendingContact          = "pendingContact"
	StatusConsentSent             = "consentSent"
	StatusConsentReceived         = "consentReceived"
	StatusVisitScheduled          = "visitScheduled"
	StatusReportInProgress        = "reportInProgress"
	StatusInternalReviewComplete  = "internalReviewComplete"
	StatusAwaitingClosureApproval = "awaitingClosureApproval"
	StatusClosed                  = "closed"
	StatusCancelled               = "cancelled"
)

// TerminalStatus reports whether a status ends the case lifecycle.
func TerminalStatus(status string) bool {
	return status == StatusClosed || status == StatusCancelled
}

type Case struct {
	ID                int64   `json:"id"`
	CasePin           string  `json:"case_pin"`
	LawyerPin         string  `json:"lawyer_pin"`
	LawyerName        string  `json:"lawyer_name"`
	ClientName        string  `json:"client_name"`
	CaseType          string  `json:"case_type"`
	AssignedCmPin     *string `json:"assigned_cm_pin,omitempty"`
	AssignedCmName    *string `json:"assigned_cm_name,omitempty"`
	AssignedAt        *string `json:"assigned_at,omitempty" format:"date-time"`
	CaseStatus        string  `json:"case_status" enum:"pendingContact,consentSent,consentReceived,visitScheduled,reportInProgress,internalReviewComplete,awaitingClosureApproval,closed,cancelled"`
	WorkflowStage     int     `json:"workflow_stage" minimum:"1" maximum:"14"`
	StageUpdatedAt    string  `json:"stage_updated_at" format:"date-time"`
	ReferralData      string  `json:"referral_data,omitempty"`
	ConsentReceivedAt *string `json:"consent_received_at,omitempty" format:"date-time"`
	VisitDate         *string `json:"visit_date,omitempty" format:"date"`
	CreatedAt         string  `json:"created_at" format:"date-time"`
	UpdatedAt         string  `json:"updated_at" format:"date-time"`
}

type CaseManager struct {
	Pin                string  `json:"pin"`
	Name               string  `json:"name"`
	Status             string  `json:"status"`
	ComplianceApproved bool    `json:"compliance_approved"`
	NdaSigned          bool    `json:"nda_signed"`
	NdaSignedAt        *string `json:"nda_signed_at,omitempty" format:"date-time"`
	NdaPdfPath         *string `json:"nda_pdf_path,omitempty"`
	NdaContentHash     *string `json:"nda_content_hash,omitempty"`
	CreatedAt          string  `json:"created_at" format:"date-time"`
}

// ManagerRef is the roster-service view of a case manager: just enough
// identity to assign work against.
type ManagerRef struct {
	Pin  string `json:"pin"`
	Name string `json:"name"`
}

// ManagerWorkload pairs a roster entry with its active case count.
type ManagerWorkload struct {
	ManagerRef
	ActiveCount int `json:"active_count"`
}

// ActivityEntry is an append-only audit record. The engine only ever writes
// these; reading them back is a reporting concern.
type ActivityEntry struct {
	ID          int64  `json:"id"`
	CasePin     string `json:"case_pin"`
	Type        string `json:"activity_type"`
	Description string `json:"activity_description"`
	PerformedBy string `json:"performed_by"`
	PerformedAt string `json:"performed_at" format:"date-time"`
}

type Report struct {
	ID              string  `json:"id"`
	CasePin         string  `json:"case_pin"`
	FirstReaderPin  *string `json:"first_reader_pin,omitempty"`
	SecondReaderPin *string `json:"second_reader_pin,omitempty"`
	PaymentStatus   string  `json:"payment_status"`
	CreatedAt       string  `json:"created_at" format:"date-time"`
}

type Visit struct {
	ID        string `json:"id"`
	CasePin   string `json:"case_pin"`
	VisitDate string `json:"visit_date" format:"date"`
	Status    string `json:"visit_status"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// APIKey authenticates non-interactive clients as a case manager.
type APIKey struct {
	ID        string `json:"id"`
	Pin       string `json:"pin"`
	KeyHash   string `json:"-"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// BadgeCounts holds the five Action Center counters. Degraded is set when the
// underlying queries failed and the zeroes are a fallback, not a fact.
type BadgeCounts struct {
	Urgent        int  `json:"urgent"`
	Today         int  `json:"today"`
	Ready         int  `json:"ready"`
	Pending       int  `json:"pending"`
	ApprovalQueue int  `json:"approval_queue"`
	Degraded      bool `json:"degraded,omitempty"`
}

// WorkspaceFeatures is the binary compliance gate: everything except viewing
// cases requires an approved compliance review.
type WorkspaceFeatures struct {
	CanViewCases       bool `json:"can_view_cases"`
	CanCreateCases     bool `json:"can_create_cases"`
	CanEditCases       bool `json:"can_edit_cases"`
	CanViewReports     bool `json:"can_view_reports"`
	CanGenerateReports bool `json:"can_generate_reports"`
	CanAssignReaders   bool `json:"can_assign_readers"`
	CanViewFinances    bool `json:"can_view_finances"`
	CanAccessSettings  bool `json:"can_access_settings"`
}

// FeaturesFor derives the feature set from the compliance flag.
func FeaturesFor(complianceApproved bool) WorkspaceFeatures {
	return WorkspaceFeatures{
		CanViewCases:       true,
		CanCreateCases:     complianceApproved,
		CanEditCases:       complianceApproved,
		CanViewReports:     complianceApproved,
		CanGenerateReports: complianceApproved,
		CanAssignReaders:   complianceApproved,
		CanViewFinances:    complianceApproved,
		CanAccessSettings:  complianceApproved,
	}
}
