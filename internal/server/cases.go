package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"caseline/internal/domain"
	"caseline/internal/engine"
)

func registerCases(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "assign-case",
		Method:        http.MethodPost,
		Path:          "/cases/assign",
		Summary:       "Submit a referral and auto-assign it",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body struct {
			CasePin      string `json:"case_pin" minLength:"1"`
			LawyerPin    string `json:"lawyer_pin" minLength:"1"`
			LawyerName   string `json:"lawyer_name,omitempty"`
			ClientName   string `json:"client_name" minLength:"1"`
			CaseType     string `json:"case_type" minLength:"1"`
			ReferralData string `json:"referral_data,omitempty"`
		}
	}) (*struct {
		Body assignResponse `json:"body"`
	}, error) {
		c, chosen, err := e.AssignCase(ctx, engine.ReferralOptions{
			CasePin:      input.Body.CasePin,
			LawyerPin:    input.Body.LawyerPin,
			LawyerName:   input.Body.LawyerName,
			ClientName:   input.Body.ClientName,
			CaseType:     input.Body.CaseType,
			ReferralData: input.Body.ReferralData,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body assignResponse `json:"body"`
		}{Body: assignResponse{Case: c, Assigned: chosen}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-cases",
		Method:      http.MethodGet,
		Path:        "/cases",
		Summary:     "List cases with priority and stage metadata",
	}, func(ctx context.Context, input *struct {
		CmPin           string `query:"cm_pin"`
		Status          string `query:"status"`
		Stage           int    `query:"stage" minimum:"0" maximum:"14"`
		Action          string `query:"action" enum:",urgent,today,ready,pending,attention,onTrack"`
		IncludeTerminal bool   `query:"include_terminal"`
	}) (*struct {
		Body caseListResponse `json:"body"`
	}, error) {
		list, err := e.ListCasesWithPriority(ctx, engine.CaseListOptions{
			AssignedCmPin:   input.CmPin,
			Status:          input.Status,
			Stage:           input.Stage,
			Action:          input.Action,
			IncludeTerminal: input.IncludeTerminal,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body caseListResponse `json:"body"`
		}{Body: caseListResponse{Cases: list.Cases, Degraded: list.Degraded}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-case",
		Method:      http.MethodGet,
		Path:        "/cases/{case_pin}",
		Summary:     "Fetch one case",
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		c, err := e.Repo.GetCase(ctx, input.CasePin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "advance-stage",
		Method:      http.MethodPost,
		Path:        "/cases/{case_pin}/stage",
		Summary:     "Advance the workflow stage",
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
		Body    struct {
			Stage int `json:"stage" minimum:"1" maximum:"14"`
		}
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.AdvanceStage(ctx, input.CasePin, input.Body.Stage, pin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-status",
		Method:      http.MethodPost,
		Path:        "/cases/{case_pin}/status",
		Summary:     "Update the case status",
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
		Body    struct {
			Status string `json:"status" minLength:"1"`
		}
	}) (*struct {
		Body domain.Case `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.UpdateCaseStatus(ctx, input.CasePin, input.Body.Status, pin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Case `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "schedule-visit",
		Method:        http.MethodPost,
		Path:          "/cases/{case_pin}/visits",
		Summary:       "Schedule an INA visit",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
		Body    struct {
			VisitDate string `json:"visit_date" format:"date"`
		}
	}) (*struct {
		Body domain.Visit `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		v, err := e.ScheduleVisit(ctx, input.CasePin, input.Body.VisitDate, pin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Visit `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-report",
		Method:        http.MethodPost,
		Path:          "/cases/{case_pin}/reports",
		Summary:       "Open an INA report",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
	}) (*struct {
		Body domain.Report `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rep, err := e.CreateReport(ctx, input.CasePin, pin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Report `json:"body"`
		}{Body: rep}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-visits",
		Method:      http.MethodGet,
		Path:        "/cases/{case_pin}/visits",
		Summary:     "List INA visits for a case",
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
	}) (*struct {
		Body visitListResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetCase(ctx, input.CasePin); err != nil {
			return nil, handleError(err)
		}
		visits, err := e.Repo.ListVisitsByCase(ctx, input.CasePin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body visitListResponse `json:"body"`
		}{Body: visitListResponse{Visits: visits}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "complete-visit",
		Method:        http.MethodPost,
		Path:          "/cases/{case_pin}/visits/{visit_id}/complete",
		Summary:       "Mark an INA visit as completed",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
		VisitID string `path:"visit_id"`
	}) (*struct{}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.CompleteVisit(ctx, input.CasePin, input.VisitID, pin); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report",
		Method:      http.MethodGet,
		Path:        "/cases/{case_pin}/reports",
		Summary:     "Fetch the INA report for a case",
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
	}) (*struct {
		Body domain.Report `json:"body"`
	}, error) {
		rep, err := e.Repo.GetReportByCase(ctx, input.CasePin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Report `json:"body"`
		}{Body: rep}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-reader",
		Method:      http.MethodPost,
		Path:        "/cases/{case_pin}/reports/reader",
		Summary:     "Assign a reader to the INA report",
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
		Body    struct {
			Second bool `json:"second,omitempty"`
		}
	}) (*struct {
		Body domain.Report `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rep, err := e.AssignReader(ctx, input.CasePin, input.Body.Second, pin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Report `json:"body"`
		}{Body: rep}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-payment",
		Method:      http.MethodPost,
		Path:        "/cases/{case_pin}/reports/payment",
		Summary:     "Update the report payment status",
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
		Body    struct {
			Status string `json:"status" enum:"pending,pendingApproval,approved,paid"`
		}
	}) (*struct {
		Body domain.Report `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rep, err := e.UpdateReportPayment(ctx, input.CasePin, input.Body.Status, pin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Report `json:"body"`
		}{Body: rep}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "case-activity",
		Method:      http.MethodGet,
		Path:        "/cases/{case_pin}/activity",
		Summary:     "Recent activity log entries for a case",
	}, func(ctx context.Context, input *struct {
		CasePin string `path:"case_pin"`
		Limit   int    `query:"limit" minimum:"0" maximum:"200"`
	}) (*struct {
		Body activityResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetCase(ctx, input.CasePin); err != nil {
			return nil, handleError(err)
		}
		entries, err := e.Audit.Tail(ctx, input.CasePin, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body activityResponse `json:"body"`
		}{Body: activityResponse{Entries: entries}}, nil
	})
}

func registerManagers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-managers",
		Method:      http.MethodGet,
		Path:        "/managers",
		Summary:     "List case managers",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
	}) (*struct {
		Body managerListResponse `json:"body"`
	}, error) {
		managers, err := e.Repo.ListManagers(ctx, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body managerListResponse `json:"body"`
		}{Body: managerListResponse{Managers: managers}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "manager-features",
		Method:      http.MethodGet,
		Path:        "/managers/{pin}/features",
		Summary:     "Feature flags for a case manager",
	}, func(ctx context.Context, input *struct {
		Pin string `path:"pin"`
	}) (*struct {
		Body featuresResponse `json:"body"`
	}, error) {
		feats, err := e.WorkspaceFeatures(ctx, input.Pin)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body featuresResponse `json:"body"`
		}{Body: featuresResponse{Pin: input.Pin, Features: feats}}, nil
	})
}
