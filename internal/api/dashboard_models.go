package api

import "time"

// Dashboard is a named container of drafts and published versions
type Dashboard struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AccessRoles []string  `json:"accessRoles"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Draft is the mutable staging area of a dashboard
type Draft struct {
	ID          string    `json:"id"`
	DashboardID string    `json:"dashboardId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Version is an immutable numbered snapshot of a draft
type Version struct {
	ID            string    `json:"id"`
	DashboardID   string    `json:"dashboardId"`
	VersionNumber int       `json:"versionNumber"`
	IsActive      bool      `json:"isActive"`
	Name          string    `json:"name,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Placement binds a widget to a position within a draft or a version.
// Exactly one of DraftID and VersionID is set.
type Placement struct {
	ID         string    `json:"id"`
	DraftID    string    `json:"draftId,omitempty"`
	VersionID  string    `json:"versionId,omitempty"`
	WidgetID   string    `json:"widgetId"`
	PositionX  int       `json:"positionX"`
	PositionY  int       `json:"positionY"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	LayoutType string    `json:"layoutType"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DefaultLayoutType is used when a placement does not name one
const DefaultLayoutType = "desktop"

// VersionWithPlacements is a version together with its published placements
type VersionWithPlacements struct {
	Version
	Placements []Placement `json:"placements"`
}

// DashboardWithVersions represents a full dashboard with its draft and versions
type DashboardWithVersions struct {
	Dashboard
	Draft    *Draft    `json:"draft,omitempty"`
	Versions []Version `json:"versions"`
}

// Request/Response types

type CreateDashboardRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	AccessRoles []string `json:"accessRoles,omitempty"`
}

type PlacementInput struct {
	ID         string `json:"id,omitempty"`
	WidgetID   string `json:"widgetId"`
	PositionX  int    `json:"positionX"`
	PositionY  int    `json:"positionY"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	LayoutType string `json:"layoutType,omitempty"`
}

type ReplacePlacementsRequest struct {
	Placements []PlacementInput `json:"placements"`
}

type PublishRequest struct {
	DraftID     string `json:"-"`
	Author      string `json:"author"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	// BaseVersion is the version number the author edited against. When set,
	// publishing fails with a ConflictError if another version was published since.
	BaseVersion int `json:"baseVersion,omitempty"`
}

type RestoreVersionRequest struct {
	Author string `json:"author"`
}

type ResetDraftRequest struct {
	VersionID string `json:"versionId"`
}

type DashboardsResponse struct {
	Dashboards []Dashboard `json:"dashboards"`
}

type VersionsResponse struct {
	Versions []Version `json:"versions"`
}

type PlacementsResponse struct {
	Placements []Placement `json:"placements"`
}
