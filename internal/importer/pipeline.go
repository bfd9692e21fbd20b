// Package importer ingests spreadsheet device lists into the inventory.
//
// An import runs four stages and stops at the first failing one:
//  1. acceptance: a file must be present and named *.xlsx
//  2. decode: the workbook is parsed into rows keyed by header
//  3. schema: name, ip_address, location and status must be headers
//  4. ingest: rows are inserted one at a time in sheet order
//
// During ingest a duplicate ip_address is skipped and counted; any other
// row failure aborts the batch. Rows written before the failure remain
// stored, there is no rollback.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"netinventory/internal/db"
	"netinventory/internal/events"
	"netinventory/internal/metrics"
	"netinventory/internal/models"
	"netinventory/internal/tabular"
)

// Spreadsheet column names.
const (
	ColName      = "name"
	ColIPAddress = "ip_address"
	ColLocation  = "location"
	ColStatus    = "status"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{ColName, ColIPAddress, ColLocation, ColStatus}

// Store is the storage the pipeline writes to.
type Store interface {
	InsertDevice(ctx context.Context, d models.Device) (int64, error)
	AddActivity(ctx context.Context, level, message string) error
}

// Result summarizes a completed import.
type Result struct {
	BatchID    string   `json:"batch_id"`
	Imported   int      `json:"imported"`
	Skipped    int      `json:"skipped"`
	SkippedIPs []string `json:"skipped_ips,omitempty"`
}

// Message renders the human-readable summary returned to uploaders.
func (r Result) Message() string {
	msg := fmt.Sprintf("%d records imported.", r.Imported)
	if r.Skipped > 0 {
		msg += fmt.Sprintf(" %d records skipped as duplicate.", r.Skipped)
	}
	return msg
}

// Pipeline imports spreadsheets into a Store. It is safe for concurrent
// use; concurrent imports race only at the storage uniqueness constraint.
type Pipeline struct {
	store     Store
	decoder   tabular.Decoder
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	extension string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithDecoder replaces the default XLSX decoder.
func WithDecoder(d tabular.Decoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

// WithPublisher sends a device.created event for every stored row.
func WithPublisher(pub events.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithMetrics records row and request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock sets the source of detected_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline writing to store.
func New(store Store, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     store,
		decoder:   tabular.XLSXDecoder{},
		logger:    logger,
		publisher: events.Nop{},
		now:       time.Now,
		extension: tabular.XLSXExtension,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Import runs the pipeline over one uploaded file.
func (p *Pipeline) Import(ctx context.Context, filename string, r io.Reader) (Result, error) {
	start := time.Now()
	res := Result{BatchID: uuid.NewString()}
	logger := p.logger.With("batch_id", res.BatchID, "filename", filename)

	err := p.run(ctx, logger, filename, r, &res)
	p.metrics.ObserveImport(outcome(err), time.Since(start))
	if err != nil {
		logger.Error("import failed", "error", err, "imported", res.Imported, "skipped", res.Skipped)
		if errors.Is(err, ErrUnexpected) || errors.Is(err, ErrDecode) {
			p.activity(ctx, logger, models.LevelCritical, fmt.Sprintf("Import of %s failed after %d records: %v", filename, res.Imported, err))
		}
		return res, err
	}

	logger.Info(res.Message(), "imported", res.Imported, "skipped", res.Skipped)
	p.activity(ctx, logger, models.LevelInfo, fmt.Sprintf("Import of %s: %s", filename, res.Message()))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, filename string, r io.Reader, res *Result) error {
	if r == nil || filename == "" {
		return fmt.Errorf("%w: no file uploaded", ErrInvalidRequest)
	}
	if !strings.HasSuffix(filename, p.extension) {
		return fmt.Errorf("%w: invalid file format, please upload a %s file", ErrInvalidRequest, p.extension)
	}

	table, err := p.decoder.Decode(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if err := validateColumns(table); err != nil {
		return err
	}
	hasLat := table.HasColumn(ColLatitude)
	hasLng := table.HasColumn(ColLongitude)

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return &RowError{Row: i + 2, Err: err}
		}

		device, err := buildDevice(row, hasLat, hasLng)
		if err != nil {
			return &RowError{Row: i + 2, IP: device.IPAddress, Err: err}
		}
		device.DetectedAt = p.now().Format(models.DetectedAtLayout)

		id, err := p.store.InsertDevice(ctx, device)
		if errors.Is(err, db.ErrDuplicateIP) {
			res.Skipped++
			res.SkippedIPs = append(res.SkippedIPs, device.IPAddress)
			p.metrics.ObserveRow(metrics.RowSkipped)
			logger.Warn("duplicate ip skipped", "row", i+2, "ip_address", device.IPAddress)
			p.activity(ctx, logger, models.LevelWarning, fmt.Sprintf("Duplicate IP %s skipped during import of %s.", device.IPAddress, filename))
			continue
		}
		if err != nil {
			return &RowError{Row: i + 2, IP: device.IPAddress, Err: err}
		}

		device.ID = id
		res.Imported++
		p.metrics.ObserveRow(metrics.RowImported)
		p.metrics.DeviceCreated(events.SourceImport)
		p.publish(ctx, logger, res.BatchID, device)
	}
	return nil
}

// validateColumns checks the header against RequiredColumns before any row is read.
func validateColumns(t *tabular.Table) error {
	var missing []string
	for _, col := range RequiredColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Required: RequiredColumns, Missing: missing}
	}
	return nil
}

// buildDevice maps a row onto a Device. Text cells are copied verbatim;
// empty cells become null. Coordinates must parse as floats when present.
func buildDevice(row tabular.Row, hasLat, hasLng bool) (models.Device, error) {
	var d models.Device
	if c, _ := row.Get(ColName); c.Valid {
		d.Name = c.Value
	}
	if c, _ := row.Get(ColIPAddress); c.Valid {
		d.IPAddress = c.Value
	}
	d.Location = optionalText(row, ColLocation)
	d.Status = optionalText(row, ColStatus)

	var err error
	if hasLat {
		if d.Latitude, err = optionalFloat(row, ColLatitude); err != nil {
			return d, err
		}
	}
	if hasLng {
		if d.Longitude, err = optionalFloat(row, ColLongitude); err != nil {
			return d, err
		}
	}
	return d, nil
}

func optionalText(row tabular.Row, col string) *string {
	c, ok := row.Get(col)
	if !ok || !c.Valid {
		return nil
	}
	v := c.Value
	return &v
}

func optionalFloat(row tabular.Row, col string) (*float64, error) {
	c, ok := row.Get(col)
	if !ok || !c.Valid {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: not a number", col, c.Value)
	}
	return &f, nil
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, batchID string, d models.Device) {
	err := p.publisher.Publish(ctx, events.Event{
		Type:       events.TypeDeviceCreated,
		Source:     events.SourceImport,
		BatchID:    batchID,
		Device:     d,
		OccurredAt: p.now(),
	})
	if err != nil {
		logger.Warn("publish device event", "ip_address", d.IPAddress, "error", err)
	}
}

// activity failures are logged only; the feed is not part of the import result.
func (p *Pipeline) activity(ctx context.Context, logger *slog.Logger, level, msg string) {
	if err := p.store.AddActivity(ctx, level, msg); err != nil {
		logger.Warn("record activity", "error", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrSchema):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
