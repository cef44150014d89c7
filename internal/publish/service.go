// Package publish manages drafts, their placements and the promotion of a
// draft into a numbered, active dashboard version.
package publish

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/events"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/websocket"
)

// Store is the persistence the service needs. Lookups return nil, nil when
// the row does not exist.
type Store interface {
	GetDashboard(ctx context.Context, id string) (*api.Dashboard, error)
	GetWidget(ctx context.Context, id string) (*api.Widget, error)

	GetOrCreateDraft(ctx context.Context, dashboardID string) (*api.Draft, bool, error)
	GetDraft(ctx context.Context, id string) (*api.Draft, error)
	GetDraftPlacements(ctx context.Context, draftID string) ([]api.Placement, error)
	ReplaceDraftPlacements(ctx context.Context, draftID string, placements []api.PlacementInput) ([]api.Placement, error)
	CopyVersionToDraft(ctx context.Context, versionID, draftID string) ([]api.Placement, error)

	PublishDraft(ctx context.Context, req *api.PublishRequest) (*api.Version, error)
	RestoreVersion(ctx context.Context, versionID, author string) (*api.Version, error)
	GetVersion(ctx context.Context, id string) (*api.Version, error)
	GetVersionPlacements(ctx context.Context, versionID string) ([]api.Placement, error)
	GetActiveVersion(ctx context.Context, dashboardID string) (*api.Version, error)
	ListVersions(ctx context.Context, dashboardID string) ([]api.Version, error)
	RepairActiveVersion(ctx context.Context, dashboardID string) (int, error)
	DashboardIDsWithVersions(ctx context.Context) ([]string, error)
}

// Broadcaster pushes messages to connected viewers.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// Service implements the draft and publish operations.
type Service struct {
	store  Store
	hub    Broadcaster
	bus    events.Bus
	origin string
}

// Option customizes a Service.
type Option func(*Service)

// WithBroadcaster pushes publish and save notifications to local viewers.
func WithBroadcaster(hub Broadcaster) Option {
	return func(s *Service) { s.hub = hub }
}

// WithBus announces publishes to other instances.
func WithBus(bus events.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithOrigin sets the instance id stamped on outgoing events.
func WithOrigin(origin string) Option {
	return func(s *Service) {
		if origin != "" {
			s.origin = origin
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		origin: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Origin returns the instance id stamped on events this service publishes.
func (s *Service) Origin() string {
	return s.origin
}

// CreateDraft returns the dashboard's latest draft, creating an empty one if
// it has none. Concurrent first calls may each create a draft; the newest wins.
func (s *Service) CreateDraft(ctx context.Context, dashboardID string) (*api.Draft, error) {
	d, err := s.store.GetDashboard(ctx, dashboardID)
	if err != nil {
		return nil, api.NewStorageError("get dashboard", err)
	}
	if d == nil {
		return nil, api.NewNotFoundError("dashboard", dashboardID)
	}

	draft, created, err := s.store.GetOrCreateDraft(ctx, dashboardID)
	if err != nil {
		return nil, api.NewStorageError("create draft", err)
	}
	if created {
		logger.Info("Draft created", "dashboard_id", dashboardID, "draft_id", draft.ID)
	}
	return draft, nil
}

// ReplacePlacements validates placements and replaces the draft's stored set
// with them. Stored placements get fresh ids. On a PartialReplaceError the
// caller must re-read the draft instead of trusting local state.
func (s *Service) ReplacePlacements(ctx context.Context, draftID string, placements []api.PlacementInput) ([]api.Placement, error) {
	draft, err := s.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, api.NewStorageError("get draft", err)
	}
	if draft == nil {
		return nil, api.NewNotFoundError("draft", draftID)
	}

	if err := s.validatePlacements(ctx, placements); err != nil {
		return nil, err
	}

	stored, err := s.store.ReplaceDraftPlacements(ctx, draftID, placements)
	if err != nil {
		if api.IsPartialReplaceError(err) {
			logger.Error("Placement replace failed after delete",
				"draft_id", draftID,
				"error", err,
			)
			return nil, err
		}
		return nil, api.NewStorageError("replace placements", err)
	}

	s.broadcast(websocket.NewDraftSavedMessage(draft.DashboardID, websocket.DraftSavedPayload{
		DraftID:    draftID,
		Placements: len(stored),
	}))
	s.emit(ctx, events.Event{
		Type:        events.DraftSaved,
		DashboardID: draft.DashboardID,
		DraftID:     draftID,
		Placements:  len(stored),
	})
	return stored, nil
}

func (s *Service) validatePlacements(ctx context.Context, placements []api.PlacementInput) error {
	known := make(map[string]bool)
	for i, p := range placements {
		field := fmt.Sprintf("placements[%d]", i)
		if p.WidgetID == "" {
			return api.NewValidationError(field+".widgetId", "is required")
		}
		if p.PositionX < 0 || p.PositionY < 0 {
			return api.NewValidationError(field+".position", "must be non-negative")
		}
		if p.Width < 1 || p.Height < 1 {
			return api.NewValidationError(field+".size", "width and height must be at least 1")
		}
		if known[p.WidgetID] {
			continue
		}
		w, err := s.store.GetWidget(ctx, p.WidgetID)
		if err != nil {
			return api.NewStorageError("get widget", err)
		}
		if w == nil {
			return api.NewValidationError(field+".widgetId", "unknown widget "+p.WidgetID)
		}
		known[p.WidgetID] = true
	}
	return nil
}

// GetPlacements returns the placements of a draft (isDraft) or a version,
// ordered by (y, x).
func (s *Service) GetPlacements(ctx context.Context, containerID string, isDraft bool) ([]api.Placement, error) {
	if isDraft {
		draft, err := s.store.GetDraft(ctx, containerID)
		if err != nil {
			return nil, api.NewStorageError("get draft", err)
		}
		if draft == nil {
			return nil, api.NewNotFoundError("draft", containerID)
		}
		placements, err := s.store.GetDraftPlacements(ctx, containerID)
		if err != nil {
			return nil, api.NewStorageError("get draft placements", err)
		}
		return placements, nil
	}

	v, err := s.store.GetVersion(ctx, containerID)
	if err != nil {
		return nil, api.NewStorageError("get version", err)
	}
	if v == nil {
		return nil, api.NewNotFoundError("version", containerID)
	}
	placements, err := s.store.GetVersionPlacements(ctx, containerID)
	if err != nil {
		return nil, api.NewStorageError("get version placements", err)
	}
	return placements, nil
}

// ResetDraftFromVersion replaces the draft's placements with a copy of a
// version of the same dashboard.
func (s *Service) ResetDraftFromVersion(ctx context.Context, draftID, versionID string) ([]api.Placement, error) {
	draft, err := s.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, api.NewStorageError("get draft", err)
	}
	if draft == nil {
		return nil, api.NewNotFoundError("draft", draftID)
	}
	v, err := s.store.GetVersion(ctx, versionID)
	if err != nil {
		return nil, api.NewStorageError("get version", err)
	}
	if v == nil {
		return nil, api.NewNotFoundError("version", versionID)
	}
	if v.DashboardID != draft.DashboardID {
		return nil, api.NewValidationError("versionId", "version belongs to another dashboard")
	}

	placements, err := s.store.CopyVersionToDraft(ctx, versionID, draftID)
	if err != nil {
		if api.IsPartialReplaceError(err) {
			return nil, err
		}
		return nil, api.NewStorageError("reset draft", err)
	}

	s.broadcast(websocket.NewDraftSavedMessage(draft.DashboardID, websocket.DraftSavedPayload{
		DraftID:    draftID,
		Placements: len(placements),
	}))
	return placements, nil
}
