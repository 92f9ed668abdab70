package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// schema is written once with placeholders that differ per dialect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stages (
		id         {{id}},
		tenant_id  BIGINT NOT NULL,
		name       TEXT NOT NULL,
		color      TEXT NOT NULL DEFAULT '#6B7280',
		position   INTEGER NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stages_tenant_position ON stages (tenant_id, position, id)`,
	`CREATE TABLE IF NOT EXISTS stage_bootstraps (
		tenant_id       BIGINT PRIMARY KEY,
		bootstrapped_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS deals (
		id                  {{id}},
		tenant_id           BIGINT NOT NULL,
		client_id           BIGINT NOT NULL,
		product_id          BIGINT,
		title               TEXT NOT NULL,
		negotiated_value    {{money}},
		expected_close_date {{ts}},
		status              TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'won', 'lost')),
		current_stage_id    BIGINT REFERENCES stages (id),
		lost_reason         TEXT,
		notes               TEXT,
		created_at          {{ts}} NOT NULL,
		updated_at          {{ts}} NOT NULL,
		closed_at           {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_tenant_created ON deals (tenant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_tenant_stage ON deals (tenant_id, current_stage_id)`,
	`CREATE TABLE IF NOT EXISTS deal_transitions (
		id            {{id}},
		deal_id       BIGINT NOT NULL REFERENCES deals (id),
		tenant_id     BIGINT NOT NULL,
		from_stage_id BIGINT,
		to_stage_id   BIGINT NOT NULL,
		moved_at      {{ts}} NOT NULL,
		moved_by      BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transitions_deal ON deal_transitions (tenant_id, deal_id, moved_at)`,
	`CREATE TABLE IF NOT EXISTS activity_log (
		id          {{id}},
		tenant_id   BIGINT NOT NULL,
		user_id     BIGINT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   BIGINT NOT NULL,
		action      TEXT NOT NULL,
		details     TEXT,
		created_at  {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_tenant_created ON activity_log (tenant_id, created_at)`,
}

var dialectTypes = map[string]*strings.Replacer{
	DialectPostgres: strings.NewReplacer(
		"{{id}}", "BIGSERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ",
		"{{money}}", "NUMERIC(14,2)",
	),
	// DATETIME makes the sqlite driver hand back time.Time; money stays TEXT
	// so no value ever passes through a float.
	DialectSQLite: strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "DATETIME",
		"{{money}}", "TEXT",
	),
}

// Migrate creates every table and index that is missing.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	r, ok := dialectTypes[dialect]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", dialect)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
