package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tobilg/widget-studio/internal/api"
)

// Dashboard operations

func (s *Store) CreateDashboard(ctx context.Context, req *api.CreateDashboardRequest) (*api.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	now := time.Now()

	roles := req.AccessRoles
	if roles == nil {
		roles = []string{}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return nil, fmt.Errorf("marshaling access roles: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dashboards (id, name, description, access_roles, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, FALSE, ?, ?)
	`, id, req.Name, nullString(req.Description), string(rolesJSON), now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting dashboard: %w", err)
	}

	return &api.Dashboard{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		AccessRoles: roles,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Store) GetDashboards(ctx context.Context) ([]api.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, access_roles, is_published, created_at, updated_at
		FROM dashboards
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying dashboards: %w", err)
	}
	defer rows.Close()

	var dashboards []api.Dashboard
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dashboard: %w", err)
		}
		dashboards = append(dashboards, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dashboards: %w", err)
	}

	return dashboards, nil
}

func (s *Store) GetDashboard(ctx context.Context, id string) (*api.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getDashboardLocked(ctx, s.db, id)
}

func (s *Store) getDashboardLocked(ctx context.Context, q querier, id string) (*api.Dashboard, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, description, access_roles, is_published, created_at, updated_at
		FROM dashboards WHERE id = ?
	`, id)
	d, err := scanDashboard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying dashboard: %w", err)
	}
	return d, nil
}

// GetDashboardWithVersions returns a dashboard with its latest draft and
// all versions, newest first.
func (s *Store) GetDashboardWithVersions(ctx context.Context, id string) (*api.DashboardWithVersions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.getDashboardLocked(ctx, s.db, id)
	if err != nil || d == nil {
		return nil, err
	}

	draft, err := s.latestDraftLocked(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	versions, err := s.listVersionsLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	return &api.DashboardWithVersions{
		Dashboard: *d,
		Draft:     draft,
		Versions:  versions,
	}, nil
}

// Draft operations

// GetOrCreateDraft returns the dashboard's latest draft, creating an empty
// one if none exists. The bool reports whether a draft was created.
func (s *Store) GetOrCreateDraft(ctx context.Context, dashboardID string) (*api.Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.latestDraftLocked(ctx, s.db, dashboardID)
	if err != nil {
		return nil, false, err
	}
	if draft != nil {
		return draft, false, nil
	}

	now := time.Now()
	draft = &api.Draft{
		ID:          uuid.New().String(),
		DashboardID: dashboardID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dashboard_drafts (id, dashboard_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, draft.ID, draft.DashboardID, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("inserting draft: %w", err)
	}
	return draft, true, nil
}

func (s *Store) GetDraft(ctx context.Context, id string) (*api.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getDraftLocked(ctx, s.db, id)
}

func (s *Store) getDraftLocked(ctx context.Context, q querier, id string) (*api.Draft, error) {
	var d api.Draft
	err := q.QueryRowContext(ctx, `
		SELECT id, dashboard_id, created_at, updated_at
		FROM dashboard_drafts WHERE id = ?
	`, id).Scan(&d.ID, &d.DashboardID, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying draft: %w", err)
	}
	return &d, nil
}

func (s *Store) latestDraftLocked(ctx context.Context, q querier, dashboardID string) (*api.Draft, error) {
	var d api.Draft
	err := q.QueryRowContext(ctx, `
		SELECT id, dashboard_id, created_at, updated_at
		FROM dashboard_drafts
		WHERE dashboard_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, dashboardID).Scan(&d.ID, &d.DashboardID, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest draft: %w", err)
	}
	return &d, nil
}

// Placement operations

func (s *Store) GetDraftPlacements(ctx context.Context, draftID string) ([]api.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPlacements(ctx, s.db, draftPlacements, draftID)
}

func (s *Store) GetVersionPlacements(ctx context.Context, versionID string) ([]api.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryPlacements(ctx, s.db, publishedPlacements, versionID)
}

// ReplaceDraftPlacements deletes every placement of the draft and inserts
// the given set inside one transaction. Each stored placement gets a fresh
// id. If anything fails after the delete was issued the error is a
// PartialReplaceError; the transaction is rolled back, but callers must
// still re-read the draft before trusting local state.
func (s *Store) ReplaceDraftPlacements(ctx context.Context, draftID string, placements []api.PlacementInput) ([]api.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM draft_placements WHERE draft_id = ?", draftID); err != nil {
		return nil, fmt.Errorf("deleting draft placements: %w", err)
	}

	now := time.Now()
	stored := make([]api.Placement, 0, len(placements))
	for _, in := range placements {
		p := api.Placement{
			ID:         uuid.New().String(),
			DraftID:    draftID,
			WidgetID:   in.WidgetID,
			PositionX:  in.PositionX,
			PositionY:  in.PositionY,
			Width:      in.Width,
			Height:     in.Height,
			LayoutType: in.LayoutType,
			CreatedAt:  now,
		}
		if p.LayoutType == "" {
			p.LayoutType = api.DefaultLayoutType
		}
		stored = append(stored, p)
	}

	if err := insertPlacements(ctx, tx, draftPlacements, draftID, stored); err != nil {
		return nil, api.NewPartialReplaceError(draftID, err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE dashboard_drafts SET updated_at = ? WHERE id = ?", now, draftID); err != nil {
		return nil, api.NewPartialReplaceError(draftID, fmt.Errorf("touching draft: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, api.NewPartialReplaceError(draftID, fmt.Errorf("committing: %w", err))
	}

	sort.SliceStable(stored, func(i, j int) bool { return placementLess(stored[i], stored[j]) })
	return stored, nil
}

// CopyVersionToDraft replaces the draft's placements with a copy of the
// version's published placements.
func (s *Store) CopyVersionToDraft(ctx context.Context, versionID, draftID string) ([]api.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	source, err := queryPlacements(ctx, tx, publishedPlacements, versionID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM draft_placements WHERE draft_id = ?", draftID); err != nil {
		return nil, fmt.Errorf("deleting draft placements: %w", err)
	}

	now := time.Now()
	copied := make([]api.Placement, len(source))
	for i, p := range source {
		p.ID = uuid.New().String()
		p.VersionID = ""
		p.DraftID = draftID
		p.CreatedAt = now
		copied[i] = p
	}

	if err := insertPlacements(ctx, tx, draftPlacements, draftID, copied); err != nil {
		return nil, api.NewPartialReplaceError(draftID, err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE dashboard_drafts SET updated_at = ? WHERE id = ?", now, draftID); err != nil {
		return nil, api.NewPartialReplaceError(draftID, fmt.Errorf("touching draft: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, api.NewPartialReplaceError(draftID, fmt.Errorf("committing: %w", err))
	}

	return copied, nil
}

// placementTable names a placement table and the column holding its owner.
type placementTable struct {
	name     string
	ownerCol string
}

var (
	draftPlacements     = placementTable{name: "draft_placements", ownerCol: "draft_id"}
	publishedPlacements = placementTable{name: "published_placements", ownerCol: "version_id"}
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func queryPlacements(ctx context.Context, q querier, table placementTable, ownerID string) ([]api.Placement, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, `+table.ownerCol+`, widget_id, position_x, position_y, width, height, layout_type, created_at
		FROM `+table.name+`
		WHERE `+table.ownerCol+` = ?
		ORDER BY position_y, position_x, created_at, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying placements: %w", err)
	}
	defer rows.Close()

	placements := []api.Placement{}
	for rows.Next() {
		var p api.Placement
		var owner string
		if err := rows.Scan(&p.ID, &owner, &p.WidgetID, &p.PositionX, &p.PositionY,
			&p.Width, &p.Height, &p.LayoutType, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning placement: %w", err)
		}
		if table == draftPlacements {
			p.DraftID = owner
		} else {
			p.VersionID = owner
		}
		placements = append(placements, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating placements: %w", err)
	}
	return placements, nil
}

func insertPlacements(ctx context.Context, q querier, table placementTable, ownerID string, placements []api.Placement) error {
	for _, p := range placements {
		_, err := q.ExecContext(ctx, `
			INSERT INTO `+table.name+` (id, `+table.ownerCol+`, widget_id, position_x, position_y, width, height, layout_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, ownerID, p.WidgetID, p.PositionX, p.PositionY, p.Width, p.Height, p.LayoutType, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting placement for widget %s: %w", p.WidgetID, err)
		}
	}
	return nil
}

// placementLess orders placements by (y, x), matching queryPlacements.
func placementLess(a, b api.Placement) bool {
	if a.PositionY != b.PositionY {
		return a.PositionY < b.PositionY
	}
	return a.PositionX < b.PositionX
}

func scanDashboard(row rowScanner) (*api.Dashboard, error) {
	var d api.Dashboard
	var desc sql.NullString
	var roles interface{}
	if err := row.Scan(&d.ID, &d.Name, &desc, &roles, &d.IsPublished, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Description = desc.String
	if err := scanJSON(roles, &d.AccessRoles); err != nil {
		return nil, fmt.Errorf("decoding access roles: %w", err)
	}
	if d.AccessRoles == nil {
		d.AccessRoles = []string{}
	}
	return &d, nil
}
