package storage

// The DDL below is accepted by both DuckDB and SQLite.

const schemaWidgets = `
CREATE TABLE IF NOT EXISTS widgets (
    id              VARCHAR PRIMARY KEY,
    name            VARCHAR NOT NULL,
    description     VARCHAR,
    widget_type     VARCHAR NOT NULL,
    shape           VARCHAR NOT NULL DEFAULT 'rectangle',
    size_ratio      VARCHAR NOT NULL DEFAULT '1:1',
    category_id     VARCHAR,
    thumbnail_url   VARCHAR,
    is_public       BOOLEAN DEFAULT FALSE,
    is_active       BOOLEAN DEFAULT TRUE,
    is_published    BOOLEAN DEFAULT FALSE,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const schemaWidgetConfigurations = `
CREATE TABLE IF NOT EXISTS widget_configurations (
    id              VARCHAR PRIMARY KEY,
    widget_id       VARCHAR NOT NULL,
    name            VARCHAR NOT NULL,
    config          JSON,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const schemaDashboards = `
CREATE TABLE IF NOT EXISTS dashboards (
    id              VARCHAR PRIMARY KEY,
    name            VARCHAR NOT NULL,
    description     VARCHAR,
    access_roles    JSON,
    is_published    BOOLEAN DEFAULT FALSE,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const schemaDashboardDrafts = `
CREATE TABLE IF NOT EXISTS dashboard_drafts (
    id              VARCHAR PRIMARY KEY,
    dashboard_id    VARCHAR NOT NULL,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const schemaDraftPlacements = `
CREATE TABLE IF NOT EXISTS draft_placements (
    id              VARCHAR PRIMARY KEY,
    draft_id        VARCHAR NOT NULL,
    widget_id       VARCHAR NOT NULL,
    position_x      INTEGER NOT NULL,
    position_y      INTEGER NOT NULL,
    width           INTEGER NOT NULL,
    height          INTEGER NOT NULL,
    layout_type     VARCHAR NOT NULL,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const schemaDashboardVersions = `
CREATE TABLE IF NOT EXISTS dashboard_versions (
    id              VARCHAR PRIMARY KEY,
    dashboard_id    VARCHAR NOT NULL,
    version_number  INTEGER NOT NULL,
    is_active       BOOLEAN DEFAULT FALSE,
    name            VARCHAR,
    description     VARCHAR,
    created_by      VARCHAR NOT NULL,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const schemaPublishedPlacements = `
CREATE TABLE IF NOT EXISTS published_placements (
    id              VARCHAR PRIMARY KEY,
    version_id      VARCHAR NOT NULL,
    widget_id       VARCHAR NOT NULL,
    position_x      INTEGER NOT NULL,
    position_y      INTEGER NOT NULL,
    width           INTEGER NOT NULL,
    height          INTEGER NOT NULL,
    layout_type     VARCHAR NOT NULL,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const schemaWidgetInteractions = `
CREATE TABLE IF NOT EXISTS widget_interactions (
    widget_id       VARCHAR NOT NULL,
    user_id         VARCHAR,
    session_id      VARCHAR,
    action          VARCHAR NOT NULL,
    created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const indexWidgets = `
CREATE INDEX IF NOT EXISTS idx_widgets_type ON widgets(widget_type);
CREATE INDEX IF NOT EXISTS idx_widgets_category ON widgets(category_id);
CREATE INDEX IF NOT EXISTS idx_widget_configurations_widget_id ON widget_configurations(widget_id);
`

const indexDashboards = `
CREATE INDEX IF NOT EXISTS idx_dashboard_drafts_dashboard_id ON dashboard_drafts(dashboard_id);
CREATE INDEX IF NOT EXISTS idx_dashboard_versions_dashboard_id ON dashboard_versions(dashboard_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_dashboard_versions_number ON dashboard_versions(dashboard_id, version_number);
`

const indexPlacements = `
CREATE INDEX IF NOT EXISTS idx_draft_placements_draft_id ON draft_placements(draft_id);
CREATE INDEX IF NOT EXISTS idx_published_placements_version_id ON published_placements(version_id);
`

const indexInteractions = `
CREATE INDEX IF NOT EXISTS idx_widget_interactions_widget_id ON widget_interactions(widget_id);
`
