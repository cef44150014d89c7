package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tobilg/widget-studio/internal/api"
)

// RecordInteraction appends one interaction event.
func (s *Store) RecordInteraction(ctx context.Context, in api.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO widget_interactions (widget_id, user_id, session_id, action, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, in.WidgetID, nullString(in.UserID), nullString(in.SessionID), string(in.Action), createdAt)
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// InteractionCounts returns per-action event counts for a widget.
func (s *Store) InteractionCounts(ctx context.Context, widgetID string) (map[api.InteractionAction]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT action, COUNT(*) FROM widget_interactions
		WHERE widget_id = ?
		GROUP BY action
	`, widgetID)
	if err != nil {
		return nil, fmt.Errorf("querying interaction counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[api.InteractionAction]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scanning interaction count: %w", err)
		}
		counts[api.InteractionAction(action)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interaction counts: %w", err)
	}
	return counts, nil
}
