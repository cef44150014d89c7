package publish

import (
	"context"
	"strings"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/events"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/websocket"
)

// Publish snapshots a draft into a new active version of its dashboard.
//
// With req.BaseVersion unset, concurrent publishers race and the last one to
// commit becomes active. With BaseVersion set, publishing fails with a
// ConflictError when another version was published after it.
func (s *Service) Publish(ctx context.Context, req api.PublishRequest) (*api.Version, error) {
	req.Author = strings.TrimSpace(req.Author)
	if req.Author == "" {
		return nil, api.NewValidationError("author", "is required")
	}
	if req.BaseVersion < 0 {
		return nil, api.NewValidationError("baseVersion", "must be non-negative")
	}

	v, err := s.store.PublishDraft(ctx, &req)
	if err != nil {
		if api.IsConflictError(err) {
			logger.Warn("Publish rejected, draft based on stale version",
				"draft_id", req.DraftID,
				"error", err,
			)
			return nil, err
		}
		return nil, api.NewStorageError("publish", err)
	}
	if v == nil {
		return nil, api.NewNotFoundError("draft", req.DraftID)
	}

	logger.Info("Version published",
		"dashboard_id", v.DashboardID,
		"version_id", v.ID,
		"version_number", v.VersionNumber,
		"author", v.CreatedBy,
	)
	s.announce(ctx, v)
	return v, nil
}

// Restore publishes a new version whose placements are copied from an older
// one. The older version is left untouched.
func (s *Service) Restore(ctx context.Context, versionID, author string) (*api.Version, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return nil, api.NewValidationError("author", "is required")
	}

	v, err := s.store.RestoreVersion(ctx, versionID, author)
	if err != nil {
		return nil, api.NewStorageError("restore version", err)
	}
	if v == nil {
		return nil, api.NewNotFoundError("version", versionID)
	}

	logger.Info("Version restored",
		"dashboard_id", v.DashboardID,
		"source_version_id", versionID,
		"version_number", v.VersionNumber,
	)
	s.announce(ctx, v)
	return v, nil
}

// GetActiveVersion returns the live version with its placements, or nil if
// the dashboard was never published.
func (s *Service) GetActiveVersion(ctx context.Context, dashboardID string) (*api.VersionWithPlacements, error) {
	d, err := s.store.GetDashboard(ctx, dashboardID)
	if err != nil {
		return nil, api.NewStorageError("get dashboard", err)
	}
	if d == nil {
		return nil, api.NewNotFoundError("dashboard", dashboardID)
	}

	v, err := s.store.GetActiveVersion(ctx, dashboardID)
	if err != nil {
		return nil, api.NewStorageError("get active version", err)
	}
	if v == nil {
		return nil, nil
	}

	placements, err := s.store.GetVersionPlacements(ctx, v.ID)
	if err != nil {
		return nil, api.NewStorageError("get version placements", err)
	}
	return &api.VersionWithPlacements{Version: *v, Placements: placements}, nil
}

// ListVersions returns the dashboard's versions, newest first.
func (s *Service) ListVersions(ctx context.Context, dashboardID string) ([]api.Version, error) {
	d, err := s.store.GetDashboard(ctx, dashboardID)
	if err != nil {
		return nil, api.NewStorageError("get dashboard", err)
	}
	if d == nil {
		return nil, api.NewNotFoundError("dashboard", dashboardID)
	}

	versions, err := s.store.ListVersions(ctx, dashboardID)
	if err != nil {
		return nil, api.NewStorageError("list versions", err)
	}
	return versions, nil
}

// RepairActiveVersions re-asserts a single active version on one dashboard.
func (s *Service) RepairActiveVersions(ctx context.Context, dashboardID string) (int, error) {
	changed, err := s.store.RepairActiveVersion(ctx, dashboardID)
	if err != nil {
		return 0, api.NewStorageError("repair active version", err)
	}
	if changed > 0 {
		logger.Warn("Repaired active version flags", "dashboard_id", dashboardID, "rows_changed", changed)
	}
	return changed, nil
}

// RepairAll runs the repair pass over every published dashboard and returns
// how many dashboards needed a fix.
func (s *Service) RepairAll(ctx context.Context) (int, error) {
	ids, err := s.store.DashboardIDsWithVersions(ctx)
	if err != nil {
		return 0, api.NewStorageError("list published dashboards", err)
	}

	repaired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		changed, err := s.RepairActiveVersions(ctx, id)
		if err != nil {
			return repaired, err
		}
		if changed > 0 {
			repaired++
		}
	}
	return repaired, nil
}

// Forward relays version.published and draft.saved events from other
// instances to local viewers until ctx is done.
func (s *Service) Forward(ctx context.Context) error {
	if s.bus == nil {
		return nil
	}
	return s.bus.Subscribe(ctx, func(ev events.Event) {
		if ev.Origin == s.origin {
			return
		}
		switch ev.Type {
		case events.VersionPublished:
			s.broadcast(websocket.NewVersionPublishedMessage(ev.DashboardID, websocket.VersionPublishedPayload{
				VersionID:     ev.VersionID,
				VersionNumber: ev.VersionNumber,
			}))
		case events.DraftSaved:
			s.broadcast(websocket.NewDraftSavedMessage(ev.DashboardID, websocket.DraftSavedPayload{
				DraftID:    ev.DraftID,
				Placements: ev.Placements,
			}))
		}
	})
}

func (s *Service) announce(ctx context.Context, v *api.Version) {
	s.broadcast(websocket.NewVersionPublishedMessage(v.DashboardID, websocket.VersionPublishedPayload{
		VersionID:     v.ID,
		VersionNumber: v.VersionNumber,
		Author:        v.CreatedBy,
	}))
	s.emit(ctx, events.Event{
		Type:          events.VersionPublished,
		DashboardID:   v.DashboardID,
		VersionID:     v.ID,
		VersionNumber: v.VersionNumber,
	})
}

// emit publishes ev on the bus, if any, tagged with this instance's origin.
func (s *Service) emit(ctx context.Context, ev events.Event) {
	if s.bus == nil {
		return
	}
	ev.Origin = s.origin
	if err := s.bus.Publish(ctx, ev); err != nil {
		logger.Warn("Failed to publish event",
			"type", ev.Type,
			"dashboard_id", ev.DashboardID,
			"error", err,
		)
	}
}

func (s *Service) broadcast(msg websocket.Message) {
	if s.hub != nil {
		s.hub.Broadcast(msg)
	}
}
