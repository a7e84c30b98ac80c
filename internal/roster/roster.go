// Package roster resolves which case managers are eligible for assignment.
// The production implementation reads the case_managers table; tests and
// demos can swap in a static roster.
package roster

import (
	"context"
	"fmt"

	"caseline/internal/domain"
	"caseline/internal/repo"
)

// Service lists the managers the workload balancer may choose from.
type Service interface {
	ListActiveManagers(ctx context.Context) ([]domain.ManagerRef, error)
}

// DBRoster serves the roster from the case_managers table. Order is fixed by
// pin so the first-minimum tie-break is deterministic.
type DBRoster struct {
	Repo         repo.Repo
	ActiveStatus string
}

func (r DBRoster) ListActiveManagers(ctx context.Context) ([]domain.ManagerRef, error) {
	status := r.ActiveStatus
	if status == "" {
		status = "active"
	}
	managers, err := r.Repo.ListManagers(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list active managers: %w", err)
	}
	refs := make([]domain.ManagerRef, 0, len(managers))
	for _, m := range managers {
		refs = append(refs, domain.ManagerRef{Pin: m.Pin, Name: m.Name})
	}
	return refs, nil
}

// StaticRoster returns a fixed list, useful for tests and workspace demos.
type StaticRoster struct {
	Managers []domain.ManagerRef
	Err      error
}

func (r StaticRoster) ListActiveManagers(ctx context.Context) ([]domain.ManagerRef, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Managers, nil
}

// DemoManagers is the roster seeded into fresh workspaces.
func DemoManagers() []domain.ManagerRef {
	return []domain.ManagerRef{
		{Pin: "CM-002691", Name: "Emma Thompson"},
		{Pin: "CM-002692", Name: "David Park"},
		{Pin: "CM-002693", Name: "Rachel Green"},
	}
}
