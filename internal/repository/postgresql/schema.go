package postgresql

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema tạo các bảng nếu chưa có. DDL idempotent nên gọi mỗi lần
// khởi động là an toàn.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
	id          SERIAL PRIMARY KEY,
	username    TEXT NOT NULL UNIQUE,
	password    TEXT NOT NULL,
	role        TEXT NOT NULL DEFAULT 'operator',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS spots (
	id          SERIAL PRIMARY KEY,
	level       INT NOT NULL,
	section     TEXT NOT NULL,
	sequence    INT NOT NULL,
	spot_class  TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'available',
	active      BOOLEAN NOT NULL DEFAULT TRUE,
	features    TEXT[] NOT NULL DEFAULT '{}',
	last_status_update_source TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (level, section, sequence)
);
CREATE INDEX IF NOT EXISTS idx_spots_availability
	ON spots (spot_class, status, level, section, sequence);

CREATE TABLE IF NOT EXISTS vehicles (
	plate            TEXT PRIMARY KEY,
	vehicle_class    TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'active',
	assigned_spot_id INT REFERENCES spots(id),
	rate_type        TEXT NOT NULL DEFAULT 'hourly',
	base_rate        DOUBLE PRECISION NOT NULL DEFAULT 5.0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS parking_sessions (
	id               SERIAL PRIMARY KEY,
	vehicle_plate    TEXT NOT NULL,
	spot_id          INT NOT NULL REFERENCES spots(id),
	start_time       TIMESTAMPTZ NOT NULL,
	end_time         TIMESTAMPTZ,
	duration_minutes BIGINT,
	total_amount     DOUBLE PRECISION,
	status           TEXT NOT NULL DEFAULT 'active',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
-- Mỗi xe và mỗi chỗ đỗ chỉ được có một phiên active tại một thời điểm.
CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_session_per_plate
	ON parking_sessions (vehicle_plate) WHERE status = 'active';
CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_session_per_spot
	ON parking_sessions (spot_id) WHERE status = 'active';
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("lỗi khởi tạo schema: %w", err)
	}
	return nil
}
