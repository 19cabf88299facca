package sqlite

import (
	"context"
	"fmt"

	"go.klb.dev/clipkeep/internal/ignore"
)

var _ ignore.Persistence = (*DB)(nil)

// LoadIgnoreList returns the custom ignore list ordered by identifier.
func (db *DB) LoadIgnoreList(ctx context.Context) ([]ignore.App, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT application_id, display_name FROM ignored_apps ORDER BY application_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying ignored apps: %w", err)
	}
	defer rows.Close()

	var apps []ignore.App
	for rows.Next() {
		var a ignore.App
		if err := rows.Scan(&a.ApplicationID, &a.DisplayName); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ignored app: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ignored apps: %w", err)
	}
	return apps, nil
}

// SaveIgnoreList replaces the stored list with apps.
func (db *DB) SaveIgnoreList(ctx context.Context, apps []ignore.App) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM ignored_apps`); err != nil {
		return fmt.Errorf("sqlite: clearing ignored apps: %w", err)
	}
	for _, a := range apps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ignored_apps (application_id, display_name) VALUES (?, ?)`,
			a.ApplicationID, a.DisplayName,
		); err != nil {
			return fmt.Errorf("sqlite: inserting ignored app %s: %w", a.ApplicationID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
