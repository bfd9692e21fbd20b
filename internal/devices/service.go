// Package devices implements single-device operations on the inventory.
package devices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"netinventory/internal/db"
	"netinventory/internal/events"
	"netinventory/internal/metrics"
	"netinventory/internal/models"
)

// ErrInvalidDevice is returned when a device lacks a name or IP address.
var ErrInvalidDevice = errors.New("invalid device")

// Store is the storage used by Service.
type Store interface {
	InsertDevice(ctx context.Context, d models.Device) (int64, error)
	GetDevice(ctx context.Context, id int64) (models.Device, error)
	SearchDevices(ctx context.Context, keyword string) ([]models.Device, error)
	LookupThreat(ctx context.Context, ip string) (models.Threat, error)
	AddActivity(ctx context.Context, level, message string) error
}

// Service creates and looks up devices.
type Service struct {
	store     Store
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService wires a Service. publisher and m may be nil.
func NewService(store Store, logger *slog.Logger, publisher events.Publisher, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{store: store, logger: logger, publisher: publisher, metrics: m, now: time.Now}
}

// Search returns devices matching keyword; see db.Store.SearchDevices.
func (s *Service) Search(ctx context.Context, keyword string) ([]models.Device, error) {
	return s.store.SearchDevices(ctx, keyword)
}

// Get returns the device with id or db.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (models.Device, error) {
	return s.store.GetDevice(ctx, id)
}

// Create stores a single device. detected_at is always set here. When the
// IP is on the threat list the status is forced to Blocked.
func (s *Service) Create(ctx context.Context, d models.Device, source string) (models.Device, error) {
	if d.Name == "" || d.IPAddress == "" {
		return d, fmt.Errorf("%w: name and ip_address are required", ErrInvalidDevice)
	}

	threat, err := s.store.LookupThreat(ctx, d.IPAddress)
	switch {
	case err == nil:
		blocked := models.StatusBlocked
		d.Status = &blocked
		s.logger.Warn("device blocked by threat list", "ip_address", d.IPAddress, "threat_type", threat.ThreatType)
		s.activity(ctx, models.LevelWarning, fmt.Sprintf("Device %q (%s) blocked automatically. Reason: %s.", d.Name, d.IPAddress, threat.ThreatType))
	case errors.Is(err, db.ErrNotFound):
	default:
		return d, fmt.Errorf("check threat list: %w", err)
	}

	d.ID = 0
	d.DetectedAt = s.now().Format(models.DetectedAtLayout)
	id, err := s.store.InsertDevice(ctx, d)
	if err != nil {
		if !errors.Is(err, db.ErrDuplicateIP) {
			s.activity(ctx, models.LevelCritical, fmt.Sprintf("Failed to add device %q.", d.Name))
		}
		return d, err
	}
	d.ID = id

	s.metrics.DeviceCreated(source)
	s.activity(ctx, models.LevelInfo, fmt.Sprintf("New device %q added.", d.Name))
	if err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeDeviceCreated,
		Source:     source,
		Device:     d,
		OccurredAt: s.now(),
	}); err != nil {
		s.logger.Warn("publish device event", "ip_address", d.IPAddress, "error", err)
	}
	return d, nil
}

func (s *Service) activity(ctx context.Context, level, msg string) {
	if err := s.store.AddActivity(ctx, level, msg); err != nil {
		s.logger.Warn("record activity", "error", err)
	}
}
