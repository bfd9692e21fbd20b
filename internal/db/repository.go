package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"netinventory/internal/models"
)

const deviceColumns = "id, name, ip_address, location, status, detected_at, latitude, longitude"

// InsertDevice adds a new device and returns its id.
// A colliding ip_address yields ErrDuplicateIP; the existing row is untouched.
func (s *Store) InsertDevice(ctx context.Context, d models.Device) (int64, error) {
	query := s.rebind(`INSERT INTO devices (name, ip_address, location, status, detected_at, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		nullString(d.Name), nullString(d.IPAddress), d.Location, d.Status,
		d.DetectedAt, d.Latitude, d.Longitude,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert device %s: %w", d.IPAddress, ErrDuplicateIP)
		}
		return 0, fmt.Errorf("insert device %s: %w", d.IPAddress, err)
	}
	return id, nil
}

// ListDevices retrieves all devices ordered by id
func (s *Store) ListDevices(ctx context.Context) ([]models.Device, error) {
	return s.queryDevices(ctx, "SELECT "+deviceColumns+" FROM devices ORDER BY id")
}

// SearchDevices returns devices whose name, ip_address, location or status
// contains keyword, compared case-insensitively. An empty keyword lists everything.
func (s *Store) SearchDevices(ctx context.Context, keyword string) ([]models.Device, error) {
	keyword = strings.ToLower(keyword)
	if keyword == "" {
		return s.ListDevices(ctx)
	}

	// SQLite's lower() folds ASCII only, so non-ASCII text is matched here.
	if s.driver == DriverSQLite {
		all, err := s.ListDevices(ctx)
		if err != nil {
			return nil, err
		}
		matched := []models.Device{}
		for _, d := range all {
			if matchesKeyword(d, keyword) {
				matched = append(matched, d)
			}
		}
		return matched, nil
	}

	pattern := "%" + escapeLike(keyword) + "%"
	query := `SELECT ` + deviceColumns + ` FROM devices
		WHERE lower(name) LIKE ? ESCAPE '\'
		   OR lower(ip_address) LIKE ? ESCAPE '\'
		   OR lower(location) LIKE ? ESCAPE '\'
		   OR lower(status) LIKE ? ESCAPE '\'
		ORDER BY id`
	return s.queryDevices(ctx, query, pattern, pattern, pattern, pattern)
}

// GetDevice retrieves a single device by ID
func (s *Store) GetDevice(ctx context.Context, id int64) (models.Device, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+deviceColumns+" FROM devices WHERE id = ?"), id)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("device %d: %w", id, ErrNotFound)
	}
	return d, err
}

// matchesKeyword reports whether lowered keyword occurs in any searchable field.
func matchesKeyword(d models.Device, keyword string) bool {
	fields := []string{d.Name, d.IPAddress, models.StringOr(d.Location, ""), models.StringOr(d.Status, "")}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), keyword) {
			return true
		}
	}
	return false
}

// CountDevices returns the number of stored devices.
func (s *Store) CountDevices(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices").Scan(&n)
	return n, err
}

func (s *Store) queryDevices(ctx context.Context, query string, args ...any) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := []models.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(row scanner) (models.Device, error) {
	var (
		d                   models.Device
		location, status    sql.NullString
		detectedAt          sql.NullString
		latitude, longitude sql.NullFloat64
	)
	if err := row.Scan(&d.ID, &d.Name, &d.IPAddress, &location, &status, &detectedAt, &latitude, &longitude); err != nil {
		return d, err
	}
	if location.Valid {
		d.Location = &location.String
	}
	if status.Valid {
		d.Status = &status.String
	}
	d.DetectedAt = detectedAt.String
	if latitude.Valid {
		d.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		d.Longitude = &longitude.Float64
	}
	return d, nil
}

// nullString stores an empty required field as NULL so the NOT NULL
// constraint rejects it instead of persisting "".
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
