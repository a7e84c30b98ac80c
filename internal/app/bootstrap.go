// Package app wires the workspace together: database, migrations, config
// and the demo roster for fresh workspaces.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"caseline/internal/config"
	"caseline/internal/db"
	"caseline/internal/domain"
	"caseline/internal/migrate"
	"caseline/internal/repo"
	"caseline/internal/roster"
)

// Open opens the workspace database and brings the schema up to date.
func Open(workspace string) (*sql.DB, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

// LoadConfig resolves the workspace config, falling back to defaults when no
// caseline.yml exists yet.
func LoadConfig(workspace, projectID string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		if projectID == "" {
			projectID = "caseline"
		}
		cfg = config.Default(projectID)
	}
	return cfg, nil
}

// InitWorkspace writes a default caseline.yml and seeds the demo roster. It
// refuses to overwrite an existing config.
func InitWorkspace(ctx context.Context, workspace, projectID string, conn *sql.DB) error {
	path := config.Path(workspace)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	if projectID == "" {
		projectID = "caseline"
	}
	if err := os.WriteFile(path, []byte(config.GenerateDefault(projectID)), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return SeedDemoRoster(ctx, repo.Repo{DB: conn})
}

// SeedDemoRoster inserts the demo managers, skipping any that already exist.
func SeedDemoRoster(ctx context.Context, r repo.Repo) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, m := range roster.DemoManagers() {
		_, err := r.GetManager(ctx, m.Pin)
		if err == nil {
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		cm := domain.CaseManager{
			Pin:       m.Pin,
			Name:      m.Name,
			Status:    "active",
			CreatedAt: now,
		}
		if err := r.InsertManager(ctx, cm); err != nil {
			return fmt.Errorf("seed manager %s: %w", m.Pin, err)
		}
	}
	return nil
}
