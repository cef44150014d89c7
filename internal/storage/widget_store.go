package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/widget"
)

const widgetColumns = `id, name, description, widget_type, shape, size_ratio, category_id, thumbnail_url,
	is_public, is_active, is_published, created_at, updated_at`

// Widget operations

func (s *Store) CreateWidget(ctx context.Context, w *api.Widget) (*api.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *w
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.IsActive = true
	if created.Shape == "" {
		created.Shape = widget.ShapeRectangle
	}
	if created.SizeRatio == "" {
		created.SizeRatio = widget.Ratio1x1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO widgets (`+widgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, created.ID, created.Name, nullString(created.Description), string(created.WidgetType),
		string(created.Shape), string(created.SizeRatio), nullString(created.CategoryID),
		nullString(created.ThumbnailURL), created.IsPublic, created.IsActive, created.IsPublished,
		now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting widget: %w", err)
	}

	return &created, nil
}

func (s *Store) GetWidget(ctx context.Context, id string) (*api.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getWidgetLocked(ctx, id)
}

func (s *Store) getWidgetLocked(ctx context.Context, id string) (*api.Widget, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+widgetColumns+` FROM widgets WHERE id = ?`, id)
	w, err := scanWidget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying widget: %w", err)
	}
	return w, nil
}

// ListWidgets returns widgets matching filter ordered by name.
func (s *Store) ListWidgets(ctx context.Context, filter api.WidgetFilter) ([]api.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []interface{}

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "widget_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.IsPublic != nil {
		where = append(where, "is_public = ?")
		args = append(args, *filter.IsPublic)
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}

	query := `SELECT ` + widgetColumns + ` FROM widgets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying widgets: %w", err)
	}
	defer rows.Close()

	var widgets []api.Widget
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning widget: %w", err)
		}
		widgets = append(widgets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating widgets: %w", err)
	}

	return widgets, nil
}

func (s *Store) UpdateWidget(ctx context.Context, id string, req *api.UpdateWidgetRequest) (*api.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getWidgetLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	updated := *current
	if req.Name != "" {
		updated.Name = req.Name
	}
	if req.Description != "" {
		updated.Description = req.Description
	}
	if req.Shape != "" {
		updated.Shape = widget.Shape(req.Shape)
	}
	if req.SizeRatio != "" {
		updated.SizeRatio = widget.SizeRatio(req.SizeRatio)
	}
	if req.CategoryID != "" {
		updated.CategoryID = req.CategoryID
	}
	if req.ThumbnailURL != "" {
		updated.ThumbnailURL = req.ThumbnailURL
	}
	if req.IsPublic != nil {
		updated.IsPublic = *req.IsPublic
	}
	if req.IsPublished != nil {
		updated.IsPublished = *req.IsPublished
	}
	updated.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx, `
		UPDATE widgets
		SET name = ?, description = ?, shape = ?, size_ratio = ?, category_id = ?,
		    thumbnail_url = ?, is_public = ?, is_published = ?, updated_at = ?
		WHERE id = ?
	`, updated.Name, nullString(updated.Description), string(updated.Shape), string(updated.SizeRatio),
		nullString(updated.CategoryID), nullString(updated.ThumbnailURL), updated.IsPublic,
		updated.IsPublished, updated.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("updating widget: %w", err)
	}

	return &updated, nil
}

// DeactivateWidget soft-deletes a widget. Rows are kept so published
// placements never point at a missing widget.
func (s *Store) DeactivateWidget(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE widgets SET is_active = FALSE, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("deactivating widget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivating widget: %w", err)
	}
	return n > 0, nil
}

// WidgetReferenced reports whether any published placement uses the widget.
func (s *Store) WidgetReferenced(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM published_placements WHERE widget_id = ?", id).Scan(&count); err != nil {
		return false, fmt.Errorf("counting widget references: %w", err)
	}
	return count > 0, nil
}

// Configuration operations

// GetConfiguration returns the latest configuration of a widget, or nil.
func (s *Store) GetConfiguration(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c api.WidgetConfiguration
	var configData interface{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, widget_id, name, config, created_at, updated_at
		FROM widget_configurations
		WHERE widget_id = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, widgetID).Scan(&c.ID, &c.WidgetID, &c.Name, &configData, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying configuration: %w", err)
	}
	if err := scanJSON(configData, &c.Config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return &c, nil
}

// SaveConfiguration replaces the widget's configuration document wholesale.
func (s *Store) SaveConfiguration(ctx context.Context, widgetID string, req *api.SaveConfigurationRequest) (*api.WidgetConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(req.Config)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}

	now := time.Now()
	var existingID string
	var createdAt time.Time
	err = s.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM widget_configurations WHERE widget_id = ? ORDER BY updated_at DESC LIMIT 1",
		widgetID).Scan(&existingID, &createdAt)
	switch {
	case err == sql.ErrNoRows:
		existingID = uuid.New().String()
		createdAt = now
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO widget_configurations (id, widget_id, name, config, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, existingID, widgetID, req.Name, string(configJSON), now, now)
		if err != nil {
			return nil, fmt.Errorf("inserting configuration: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("querying configuration: %w", err)
	default:
		_, err = s.db.ExecContext(ctx,
			"UPDATE widget_configurations SET name = ?, config = ?, updated_at = ? WHERE id = ?",
			req.Name, string(configJSON), now, existingID)
		if err != nil {
			return nil, fmt.Errorf("updating configuration: %w", err)
		}
	}

	return &api.WidgetConfiguration{
		ID:        existingID,
		WidgetID:  widgetID,
		Name:      req.Name,
		Config:    req.Config,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWidget(row rowScanner) (*api.Widget, error) {
	var w api.Widget
	var desc, category, thumb sql.NullString
	var widgetType, shape, ratio string
	if err := row.Scan(&w.ID, &w.Name, &desc, &widgetType, &shape, &ratio, &category, &thumb,
		&w.IsPublic, &w.IsActive, &w.IsPublished, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Description = desc.String
	w.CategoryID = category.String
	w.ThumbnailURL = thumb.String
	w.WidgetType = widget.Type(widgetType)
	w.Shape = widget.Shape(shape)
	w.SizeRatio = widget.SizeRatio(ratio)
	return &w, nil
}
