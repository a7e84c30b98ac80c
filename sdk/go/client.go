package caselinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Caseline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Case represents the API case model (partial).
type Case struct {
	CasePin        string `json:"case_pin"`
	ClientName     string `json:"client_name"`
	CaseStatus     string `json:"case_status"`
	WorkflowStage  int    `json:"workflow_stage"`
	StageUpdatedAt string `json:"stage_updated_at"`
	StageName      string `json:"stage_name,omitempty"`
	Progress       int    `json:"progress_percent,omitempty"`
	Priority       *struct {
		Level       string `json:"level"`
		DaysInStage int    `json:"days_in_stage"`
		Label       string `json:"label"`
	} `json:"priority,omitempty"`
}

// ManagerRef identifies an assigned case manager.
type ManagerRef struct {
	Pin  string `json:"pin"`
	Name string `json:"name"`
}

// ManagerWorkload reports the chosen manager along with the number of active
// cases they carried before this assignment.
type ManagerWorkload struct {
	ManagerRef
	ActiveCount int `json:"active_count"`
}

// AssignResult is the response to a referral submission.
type AssignResult struct {
	Case     Case            `json:"case"`
	Assigned ManagerWorkload `json:"assigned_to"`
}

// BadgeCounts mirrors the Action Center counters.
type BadgeCounts struct {
	Urgent        int  `json:"urgent"`
	Today         int  `json:"today"`
	Ready         int  `json:"ready"`
	Pending       int  `json:"pending"`
	ApprovalQueue int  `json:"approval_queue"`
	Degraded      bool `json:"degraded,omitempty"`
}

// Features mirrors the workspace feature gate.
type Features struct {
	CanViewCases       bool `json:"can_view_cases"`
	CanCreateCases     bool `json:"can_create_cases"`
	CanEditCases       bool `json:"can_edit_cases"`
	CanViewReports     bool `json:"can_view_reports"`
	CanGenerateReports bool `json:"can_generate_reports"`
	CanAssignReaders   bool `json:"can_assign_readers"`
	CanViewFinances    bool `json:"can_view_finances"`
	CanAccessSettings  bool `json:"can_access_settings"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// SubmitReferral posts a new referral for automatic assignment.
func (c *Client) SubmitReferral(ctx context.Context, casePin, lawyerPin, clientName, caseType, referralData string) (AssignResult, error) {
	body := map[string]any{
		"case_pin":    casePin,
		"lawyer_pin":  lawyerPin,
		"client_name": clientName,
		"case_type":   caseType,
	}
	if referralData != "" {
		body["referral_data"] = referralData
	}
	var resp AssignResult
	err := c.do(ctx, http.MethodPost, "v0/cases/assign", body, &resp)
	return resp, err
}

// ListCases fetches cases, optionally narrowed to one worklist action
// (urgent, today, ready, pending, attention or onTrack).
func (c *Client) ListCases(ctx context.Context, action string) ([]Case, error) {
	endpoint := "v0/cases"
	if action != "" {
		endpoint += "?action=" + url.QueryEscape(action)
	}
	var resp struct {
		Cases []Case `json:"cases"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Cases, err
}

// GetCase fetches one case by pin.
func (c *Client) GetCase(ctx context.Context, casePin string) (Case, error) {
	var resp Case
	err := c.do(ctx, http.MethodGet, "v0/cases/"+url.PathEscape(casePin), nil, &resp)
	return resp, err
}

// AdvanceStage moves a case to a later workflow stage.
func (c *Client) AdvanceStage(ctx context.Context, casePin string, stage int) (Case, error) {
	var resp Case
	endpoint := "v0/cases/" + url.PathEscape(casePin) + "/stage"
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"stage": stage}, &resp)
	return resp, err
}

// Badges fetches the Action Center counters.
func (c *Client) Badges(ctx context.Context) (BadgeCounts, error) {
	var resp BadgeCounts
	err := c.do(ctx, http.MethodGet, "v0/badges", nil, &resp)
	return resp, err
}

// WorkspaceFeatures fetches the authenticated manager's feature flags.
func (c *Client) WorkspaceFeatures(ctx context.Context) (Features, error) {
	var resp struct {
		Pin      string   `json:"pin"`
		Features Features `json:"features"`
	}
	err := c.do(ctx, http.MethodGet, "v0/workspace/features", nil, &resp)
	return resp.Features, err
}

// ScheduleVisit books an INA visit on a calendar date (YYYY-MM-DD).
func (c *Client) ScheduleVisit(ctx context.Context, casePin, date string) error {
	endpoint := "v0/cases/" + url.PathEscape(casePin) + "/visits"
	return c.do(ctx, http.MethodPost, endpoint, map[string]any{"visit_date": date}, nil)
}

// CaseActivity fetches recent audit entries for a case.
func (c *Client) CaseActivity(ctx context.Context, casePin string, limit int) ([]map[string]any, error) {
	endpoint := "v0/cases/" + url.PathEscape(casePin) + "/activity"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Entries []map[string]any `json:"entries"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Entries, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
