package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/resource-booking-backend/internal/db"
	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id ID) (*Booking, error)
	Exists(ctx context.Context, id ID) (bool, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id ID) error

	// FindOverlapping returns bookings of the resource whose status is in
	// statuses and whose interval overlaps [start, end).
	FindOverlapping(ctx context.Context, resourceID resource.ID, start, end time.Time, statuses []Status) ([]*Booking, error)

	// WithResourceLock runs fn while holding the write lock of resourceID.
	// Writes made through the Repository passed to fn are committed together.
	WithResourceLock(ctx context.Context, resourceID resource.ID, fn func(ctx context.Context, repo Repository) error) error
}

var bookingColumns = []string{
	"id", "resource_id", "customer_name", "customer_email",
	"start_time", "end_time", "status", "notes", "created_at", "updated_at",
}

var sortColumns = map[string]string{
	"start_time": "start_time",
	"end_time":   "end_time",
	"created_at": "created_at",
	"status":     "status",
}

type pgxRepository struct {
	pool *pgxpool.Pool
	conn db.DBTX
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool, conn: pool}
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("resource_id", "customer_name", "customer_email", "start_time", "end_time", "status", "notes").
		Values(string(b.ResourceID), b.CustomerName, b.CustomerEmail, b.StartTime, b.EndTime, b.Status.String(), b.Notes).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	var id string
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&id, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return mapWriteError(err, "create booking failed")
	}
	b.ID = ID(id)
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id ID) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": string(id)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) Exists(ctx context.Context, id ID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM public.bookings WHERE id = $1)", string(id)).Scan(&exists)
	if err != nil {
		if isInvalidUUID(err) {
			return false, nil
		}
		return false, fmt.Errorf("check booking existence failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(bookingColumns, "count(*) OVER() as total_count")...).
		From("public.bookings")

	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"resource_id": string(filter.ResourceID)})
	}
	if filter.Status != 0 {
		query = query.Where(squirrel.Eq{"status": filter.Status.String()})
	}
	if filter.CustomerEmail != "" {
		query = query.Where(squirrel.Eq{"customer_email": filter.CustomerEmail})
	}
	// Range filtering uses the same half-open overlap as conflict detection.
	if filter.From != nil {
		query = query.Where(squirrel.Gt{"end_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"start_time": *filter.To})
	}

	// Sorting
	orderBy := "start_time"
	if col, ok := sortColumns[filter.SortBy]; ok {
		orderBy = col
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "id")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) FindOverlapping(ctx context.Context, resourceID resource.ID, start, end time.Time, statuses []Status) ([]*Booking, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}

	// Half-open overlap: existing.start < end AND existing.end > start
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"resource_id": string(resourceID)}).
		Where(squirrel.Eq{"status": names}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find overlapping query failed: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find overlapping bookings failed: %w", err)
	}
	defer rows.Close()

	var result []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlapping bookings failed: %w", err)
	}
	return result, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("resource_id", string(b.ResourceID)).
		Set("customer_name", b.CustomerName).
		Set("customer_email", b.CustomerEmail).
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("status", b.Status.String()).
		Set("notes", b.Notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": string(b.ID)}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError(err, "update booking failed")
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id ID) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": string(id)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WithResourceLock serialises writers of one resource with a transaction-scoped
// advisory lock. Readers are not blocked.
func (r *pgxRepository) WithResourceLock(ctx context.Context, resourceID resource.ID, fn func(ctx context.Context, repo Repository) error) error {
	if _, inTx := r.conn.(pgx.Tx); inTx {
		return fn(ctx, r)
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := db.AdvisoryXactLock(ctx, tx, "booking:resource:"+string(resourceID)); err != nil {
			return err
		}
		return fn(ctx, &pgxRepository{pool: r.pool, conn: tx})
	})
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	var id, resourceID, status string

	dest := []any{
		&id, &resourceID, &b.CustomerName, &b.CustomerEmail,
		&b.StartTime, &b.EndTime, &status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	st, err := ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("unknown status %q stored for booking %s", status, id)
	}

	b.ID = ID(id)
	b.ResourceID = resource.ID(resourceID)
	b.Status = st
	return &b, nil
}

// mapWriteError converts constraint violations raised by the bookings table
// into domain errors.
func mapWriteError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return ErrTimeConflict
		case pgerrcode.CheckViolation:
			if pgErr.ConstraintName == "bookings_time_range_check" {
				return ErrInvalidTimeRange
			}
			return ErrInvalidStatus
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}
