package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []struct {
	name string
	sql  string
}{
	{"btree_gist extension", `CREATE EXTENSION IF NOT EXISTS btree_gist`},
	{"resources table", `
CREATE TABLE IF NOT EXISTS public.resources (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name        TEXT NOT NULL CHECK (btrim(name) <> ''),
	description TEXT NOT NULL DEFAULT '',
	capacity    INTEGER NOT NULL CHECK (capacity > 0),
	available   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	// resource_id is deliberately not a foreign key: deleting a resource
	// leaves its bookings in place.
	{"bookings table", `
CREATE TABLE IF NOT EXISTS public.bookings (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	resource_id    UUID NOT NULL,
	customer_name  TEXT NOT NULL,
	customer_email TEXT NOT NULL,
	start_time     TIMESTAMPTZ NOT NULL,
	end_time       TIMESTAMPTZ NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending'
	               CHECK (status IN ('pending', 'confirmed', 'cancelled')),
	notes          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT bookings_time_range_check CHECK (end_time > start_time),
	CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
		resource_id WITH =,
		tstzrange(start_time, end_time, '[)') WITH &&
	) WHERE (status <> 'cancelled')
)`},
	{"bookings resource index", `CREATE INDEX IF NOT EXISTS bookings_resource_id_idx ON public.bookings (resource_id, start_time)`},
	{"bookings email index", `CREATE INDEX IF NOT EXISTS bookings_customer_email_idx ON public.bookings (customer_email)`},
	{"notifications table", `
CREATE TABLE IF NOT EXISTS public.notifications (
	id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	booking_id        UUID NOT NULL,
	title             TEXT NOT NULL,
	type              TEXT NOT NULL,
	start_at          TIMESTAMPTZ NOT NULL,
	end_at            TIMESTAMPTZ NOT NULL,
	resource_id       UUID NOT NULL,
	resource_snapshot JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"notifications booking index", `CREATE INDEX IF NOT EXISTS notifications_booking_id_idx ON public.notifications (booking_id)`},
}

// EnsureSchema creates the tables used by the service if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
