package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"netinventory/internal/models"
)

// Fixed width so lexical order in a TEXT column matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// DefaultActivityLimit is the number of entries returned when no cursor is given.
const DefaultActivityLimit = 10

// AddActivity records an entry in the activity feed.
func (s *Store) AddActivity(ctx context.Context, level, message string) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO activity_logs (level, message, created_at) VALUES (?, ?, ?)"),
		level, message, time.Now().UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivity returns entries newest first. With a non-zero since, only
// entries created after it are returned and limit is ignored.
func (s *Store) ListActivity(ctx context.Context, since time.Time, limit int) ([]models.ActivityLog, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if !since.IsZero() {
		rows, err = s.db.QueryContext(ctx,
			s.rebind("SELECT id, level, message, created_at FROM activity_logs WHERE created_at > ? ORDER BY created_at DESC, id DESC"),
			since.UTC().Format(timestampLayout))
	} else {
		if limit <= 0 {
			limit = DefaultActivityLimit
		}
		rows, err = s.db.QueryContext(ctx,
			s.rebind("SELECT id, level, message, created_at FROM activity_logs ORDER BY created_at DESC, id DESC LIMIT ?"),
			limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.ActivityLog{}
	for rows.Next() {
		var (
			l       models.ActivityLog
			created string
		)
		if err := rows.Scan(&l.ID, &l.Level, &l.Message, &created); err != nil {
			return nil, err
		}
		l.CreatedAt, err = time.Parse(timestampLayout, created)
		if err != nil {
			return nil, fmt.Errorf("activity %d: bad created_at %q: %w", l.ID, created, err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// AddThreat lists an IP address as hostile. Re-adding an IP returns ErrDuplicateIP.
func (s *Store) AddThreat(ctx context.Context, t models.Threat) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO threat_intelligence (ip_address, threat_type, created_at) VALUES (?, ?, ?)"),
		t.IPAddress, t.ThreatType, t.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("add threat %s: %w", t.IPAddress, ErrDuplicateIP)
		}
		return fmt.Errorf("add threat %s: %w", t.IPAddress, err)
	}
	return nil
}

// LookupThreat returns the threat entry for ip, or ErrNotFound.
func (s *Store) LookupThreat(ctx context.Context, ip string) (models.Threat, error) {
	var (
		t       models.Threat
		created string
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT ip_address, threat_type, created_at FROM threat_intelligence WHERE ip_address = ?"), ip).
		Scan(&t.IPAddress, &t.ThreatType, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("threat %s: %w", ip, ErrNotFound)
	}
	if err != nil {
		return t, err
	}
	t.CreatedAt, _ = time.Parse(timestampLayout, created)
	return t, nil
}

// ListThreats returns all threat entries ordered by IP.
func (s *Store) ListThreats(ctx context.Context) ([]models.Threat, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT ip_address, threat_type, created_at FROM threat_intelligence ORDER BY ip_address")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	threats := []models.Threat{}
	for rows.Next() {
		var (
			t       models.Threat
			created string
		)
		if err := rows.Scan(&t.IPAddress, &t.ThreatType, &created); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(timestampLayout, created)
		threats = append(threats, t)
	}
	return threats, rows.Err()
}
