package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tobilg/widget-studio/internal/api"
)

const versionColumns = `id, dashboard_id, version_number, is_active, name, description, created_by, created_at`

// PublishDraft snapshots the draft's placements into a new active version
// of its dashboard. It returns nil, nil when the draft does not exist.
//
// Allocation, insert, deactivation of the other versions, placement copy
// and the dashboard's published flag all commit in one transaction. A
// repair pass runs afterwards so that a dashboard ends with exactly one
// active version even if rows were written by another process.
func (s *Store) PublishDraft(ctx context.Context, req *api.PublishRequest) (*api.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.getDraftLocked(ctx, s.db, req.DraftID)
	if err != nil || draft == nil {
		return nil, err
	}

	v, err := s.publishLocked(ctx, draft.DashboardID, draftPlacements, draft.ID, versionMeta{
		author:      req.Author,
		name:        req.Name,
		description: req.Description,
		baseVersion: req.BaseVersion,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// RestoreVersion publishes a new version whose placements are copied from
// an existing one. It returns nil, nil when the source version does not exist.
func (s *Store) RestoreVersion(ctx context.Context, versionID, author string) (*api.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, err := s.getVersionLocked(ctx, s.db, versionID)
	if err != nil || source == nil {
		return nil, err
	}

	return s.publishLocked(ctx, source.DashboardID, publishedPlacements, source.ID, versionMeta{
		author:      author,
		name:        source.Name,
		description: fmt.Sprintf("Restored from version %d", source.VersionNumber),
	})
}

type versionMeta struct {
	author      string
	name        string
	description string
	baseVersion int
}

func (s *Store) publishLocked(ctx context.Context, dashboardID string, src placementTable, srcID string, meta versionMeta) (*api.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var latest int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version_number), 0) FROM dashboard_versions WHERE dashboard_id = ?",
		dashboardID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("querying latest version number: %w", err)
	}
	if meta.baseVersion > 0 && meta.baseVersion != latest {
		return nil, api.NewConflictError("dashboard "+dashboardID, meta.baseVersion, latest)
	}

	now := time.Now()
	v := &api.Version{
		ID:            uuid.New().String(),
		DashboardID:   dashboardID,
		VersionNumber: latest + 1,
		IsActive:      true,
		Name:          meta.name,
		Description:   meta.description,
		CreatedBy:     meta.author,
		CreatedAt:     now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dashboard_versions (`+versionColumns+`)
		VALUES (?, ?, ?, TRUE, ?, ?, ?, ?)
	`, v.ID, v.DashboardID, v.VersionNumber, nullString(v.Name), nullString(v.Description), v.CreatedBy, now)
	if err != nil {
		return nil, fmt.Errorf("inserting version: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE dashboard_versions SET is_active = FALSE WHERE dashboard_id = ? AND id <> ? AND is_active = TRUE",
		dashboardID, v.ID); err != nil {
		return nil, fmt.Errorf("deactivating previous versions: %w", err)
	}

	placements, err := queryPlacements(ctx, tx, src, srcID)
	if err != nil {
		return nil, err
	}
	for i := range placements {
		placements[i].ID = uuid.New().String()
		placements[i].DraftID = ""
		placements[i].VersionID = v.ID
		placements[i].CreatedAt = now
	}
	if err := insertPlacements(ctx, tx, publishedPlacements, v.ID, placements); err != nil {
		return nil, fmt.Errorf("copying placements: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE dashboards SET is_published = TRUE, updated_at = ? WHERE id = ?", now, dashboardID); err != nil {
		return nil, fmt.Errorf("marking dashboard published: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing publish: %w", err)
	}

	if _, err := s.repairLocked(ctx, dashboardID); err != nil {
		return nil, fmt.Errorf("repairing active version: %w", err)
	}

	return v, nil
}

// RepairActiveVersion leaves exactly one active version on a dashboard that
// has any versions: the highest-numbered active one, or the highest-numbered
// version if none is active. It returns how many rows were changed.
func (s *Store) RepairActiveVersion(ctx context.Context, dashboardID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repairLocked(ctx, dashboardID)
}

func (s *Store) repairLocked(ctx context.Context, dashboardID string) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, is_active FROM dashboard_versions
		WHERE dashboard_id = ?
		ORDER BY version_number DESC
	`, dashboardID)
	if err != nil {
		return 0, fmt.Errorf("querying versions: %w", err)
	}

	type state struct {
		id     string
		active bool
	}
	var versions []state
	for rows.Next() {
		var st state
		if err := rows.Scan(&st.id, &st.active); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating versions: %w", err)
	}
	if len(versions) == 0 {
		return 0, nil
	}

	keep := versions[0].id
	for _, v := range versions {
		if v.active {
			keep = v.id
			break
		}
	}

	changed := 0
	for _, v := range versions {
		want := v.id == keep
		if v.active == want {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			"UPDATE dashboard_versions SET is_active = ? WHERE id = ?", want, v.id); err != nil {
			return changed, fmt.Errorf("updating version %s: %w", v.id, err)
		}
		changed++
	}
	return changed, nil
}

// GetActiveVersion returns the dashboard's active version, or nil if it was
// never published.
func (s *Store) GetActiveVersion(ctx context.Context, dashboardID string) (*api.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+` FROM dashboard_versions
		WHERE dashboard_id = ? AND is_active = TRUE
		ORDER BY version_number DESC
		LIMIT 1
	`, dashboardID)
	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active version: %w", err)
	}
	return v, nil
}

func (s *Store) GetVersion(ctx context.Context, id string) (*api.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getVersionLocked(ctx, s.db, id)
}

func (s *Store) getVersionLocked(ctx context.Context, q querier, id string) (*api.Version, error) {
	row := q.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM dashboard_versions WHERE id = ?`, id)
	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying version: %w", err)
	}
	return v, nil
}

// ListVersions returns a dashboard's versions, newest first.
func (s *Store) ListVersions(ctx context.Context, dashboardID string) ([]api.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listVersionsLocked(ctx, dashboardID)
}

func (s *Store) listVersionsLocked(ctx context.Context, dashboardID string) ([]api.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+` FROM dashboard_versions
		WHERE dashboard_id = ?
		ORDER BY version_number DESC
	`, dashboardID)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	versions := []api.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}
	return versions, nil
}

// CountActiveVersions returns how many versions of the dashboard are active.
func (s *Store) CountActiveVersions(ctx context.Context, dashboardID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM dashboard_versions WHERE dashboard_id = ? AND is_active = TRUE",
		dashboardID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting active versions: %w", err)
	}
	return n, nil
}

// DashboardIDsWithVersions lists every dashboard that has been published at
// least once.
func (s *Store) DashboardIDsWithVersions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT dashboard_id FROM dashboard_versions ORDER BY dashboard_id")
	if err != nil {
		return nil, fmt.Errorf("querying published dashboards: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning dashboard id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanVersion(row rowScanner) (*api.Version, error) {
	var v api.Version
	var name, desc sql.NullString
	if err := row.Scan(&v.ID, &v.DashboardID, &v.VersionNumber, &v.IsActive, &name, &desc,
		&v.CreatedBy, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.Name = name.String
	v.Description = desc.String
	return &v, nil
}
