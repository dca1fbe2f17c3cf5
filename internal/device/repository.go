package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect names the SQL flavour a SQLRepository speaks.
// The values match the database/sql driver names.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// timestampLayout is the fixed-width UTC layout used for TEXT timestamps in
// SQLite. Fixed width keeps lexical order equal to chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

const deviceColumns = "id, name, brand, state, created_at"

// SQLRepository implements Store on top of database/sql.
//
// Queries are written with "?" placeholders and rebound to "$n" for
// PostgreSQL. Both dialects use RETURNING to read back stored rows.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLRepository creates a repository for the given dialect.
//
// Parameters:
//   - db: Open connection with the devices table migrated
//   - dialect: DialectSQLite or DialectPostgres
//
// Returns:
//   - *SQLRepository: Repository ready for use
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// NewSQLiteRepository creates a SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return NewSQLRepository(db, DialectSQLite)
}

// Save inserts or updates a device.
func (r *SQLRepository) Save(ctx context.Context, d *Device) (*Device, error) {
	if d == nil {
		return nil, fmt.Errorf("saving device: nil device")
	}
	if d.IsPersisted() {
		return r.update(ctx, d)
	}
	return r.insert(ctx, d)
}

func (r *SQLRepository) insert(ctx context.Context, d *Device) (*Device, error) {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO devices (name, brand, state, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING ` + deviceColumns

	row := r.db.QueryRowContext(ctx, r.rebind(query),
		d.Name, d.Brand, string(d.State), r.timeArg(createdAt))
	saved, err := scanDevice(row)
	if err != nil {
		return nil, fmt.Errorf("inserting device: %w", err)
	}
	return saved, nil
}

func (r *SQLRepository) update(ctx context.Context, d *Device) (*Device, error) {
	query := `
		UPDATE devices
		SET name = ?, brand = ?, state = ?
		WHERE id = ?
		RETURNING ` + deviceColumns

	row := r.db.QueryRowContext(ctx, r.rebind(query), d.Name, d.Brand, string(d.State), d.ID)
	saved, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating device: %w", err)
	}
	return saved, nil
}

// FindByID retrieves a device by its identifier.
func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*Device, error) {
	query := "SELECT " + deviceColumns + " FROM devices WHERE id = ?"

	d, err := scanDevice(r.db.QueryRowContext(ctx, r.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// DeleteByID removes a device. History rows go with it via ON DELETE CASCADE.
func (r *SQLRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM devices WHERE id = ?"), id); err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return nil
}

// ExistsByID reports whether a device exists.
func (r *SQLRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.rebind("SELECT COUNT(*) FROM devices WHERE id = ?"), id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking device existence: %w", err)
	}
	return count > 0, nil
}

// FindAll lists every device, newest first.
func (r *SQLRepository) FindAll(ctx context.Context, page PageRequest) ([]Device, error) {
	return r.queryDevices(ctx, "", page)
}

// CountAll counts every device.
func (r *SQLRepository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, "")
}

// FindByBrand lists devices with an exact brand match, newest first.
func (r *SQLRepository) FindByBrand(ctx context.Context, brand string, page PageRequest) ([]Device, error) {
	return r.queryDevices(ctx, "WHERE brand = ?", page, brand)
}

// CountByBrand counts devices with an exact brand match.
func (r *SQLRepository) CountByBrand(ctx context.Context, brand string) (int64, error) {
	return r.count(ctx, "WHERE brand = ?", brand)
}

// FindByState lists devices in a state, newest first.
func (r *SQLRepository) FindByState(ctx context.Context, state DeviceState, page PageRequest) ([]Device, error) {
	return r.queryDevices(ctx, "WHERE state = ?", page, string(state))
}

// CountByState counts devices in a state.
func (r *SQLRepository) CountByState(ctx context.Context, state DeviceState) (int64, error) {
	return r.count(ctx, "WHERE state = ?", string(state))
}

// queryDevices runs a listing with the shared ordering and optional window.
func (r *SQLRepository) queryDevices(ctx context.Context, where string, page PageRequest, args ...any) ([]Device, error) {
	query := "SELECT " + deviceColumns + " FROM devices " + where + " ORDER BY created_at DESC, id DESC"
	if page.IsPaged() {
		query += " LIMIT ? OFFSET ?"
		args = append(args, page.Size, page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := make([]Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

func (r *SQLRepository) count(ctx context.Context, where string, args ...any) (int64, error) {
	var total int64
	query := "SELECT COUNT(*) FROM devices " + where
	if err := r.db.QueryRowContext(ctx, r.rebind(query), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting devices: %w", err)
	}
	return total, nil
}

// rebind rewrites "?" placeholders to "$1", "$2"... for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	return rebind(r.dialect, query)
}

// timeArg converts a timestamp to the column representation of the dialect.
func (r *SQLRepository) timeArg(t time.Time) any {
	return timeArg(r.dialect, t)
}

func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func timeArg(dialect Dialect, t time.Time) any {
	t = t.UTC()
	if dialect == DialectPostgres {
		return t
	}
	return t.Format(timestampLayout)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(scanner rowScanner) (*Device, error) {
	var (
		d         Device
		state     string
		createdAt timestamp
	)
	if err := scanner.Scan(&d.ID, &d.Name, &d.Brand, &state, &createdAt); err != nil {
		return nil, err
	}
	d.State = DeviceState(state)
	d.CreatedAt = createdAt.Time
	return &d, nil
}

// timestamp scans TEXT timestamps (SQLite) and native timestamps (PostgreSQL)
// into a UTC time.Time.
type timestamp struct {
	time.Time
}

// Scan implements sql.Scanner.
func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		ts.Time = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		return fmt.Errorf("created_at is null")
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts *timestamp) parse(value string) error {
	if value == "" {
		return fmt.Errorf("created_at is empty")
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	ts.Time = parsed.UTC()
	return nil
}
