package server

import (
	"caseline/internal/domain"
	"caseline/internal/engine"
)

type badgesResponse struct {
	domain.BadgeCounts
}

type featuresResponse struct {
	Pin      string                   `json:"pin"`
	Features domain.WorkspaceFeatures `json:"features"`
}

type assignResponse struct {
	Case     domain.Case       `json:"case"`
	Assigned domain.ManagerWorkload `json:"assigned_to"`
}

type caseListResponse struct {
	Cases    []engine.CaseWithPriority `json:"cases"`
	Degraded bool                      `json:"degraded,omitempty"`
}

type visitListResponse struct {
	Visits []domain.Visit `json:"visits"`
}

type activityResponse struct {
	Entries []domain.ActivityEntry `json:"entries"`
}

type managerListResponse struct {
	Managers []domain.CaseManager `json:"managers"`
}
