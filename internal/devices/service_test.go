package devices_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"netinventory/internal/db"
	"netinventory/internal/devices"
	"netinventory/internal/events"
	"netinventory/internal/logging"
	"netinventory/internal/metrics"
	"netinventory/internal/models"
)

func strPtr(s string) *string { return &s }

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		store    *db.Store
		recorder *events.Recorder
		m        *metrics.Metrics
		svc      *devices.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = db.Open(ctx, db.Options{Driver: db.DriverSQLite, DSN: ":memory:"})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		recorder = &events.Recorder{}
		m = metrics.New()
		svc = devices.NewService(store, logging.Discard(), recorder, m)
	})

	Describe("Create", func() {
		It("should store the device with a server-assigned timestamp", func() {
			before := time.Now().Add(-time.Second)
			d, err := svc.Create(ctx, models.Device{
				ID:         42,
				Name:       "Switch A",
				IPAddress:  "10.0.0.10",
				Status:     strPtr("Allowed"),
				DetectedAt: "1999-01-01 00:00:00",
			}, events.SourceAPI)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.ID).NotTo(Equal(int64(42)))

			detected, err := time.ParseInLocation(models.DetectedAtLayout, d.DetectedAt, time.Local)
			Expect(err).NotTo(HaveOccurred())
			Expect(detected).To(BeTemporally(">=", before.Truncate(time.Second)))

			stored, err := svc.Get(ctx, d.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Name).To(Equal("Switch A"))
			Expect(*stored.Status).To(Equal("Allowed"))
		})

		It("should publish an event and count the device", func() {
			d, err := svc.Create(ctx, models.Device{Name: "AP", IPAddress: "10.0.0.11"}, events.SourceAPI)
			Expect(err).NotTo(HaveOccurred())

			Expect(recorder.Events()).To(HaveLen(1))
			Expect(recorder.Events()[0].Device.ID).To(Equal(d.ID))
			Expect(recorder.Events()[0].Source).To(Equal(events.SourceAPI))
			Expect(testutil.ToFloat64(m.DevicesCreated.WithLabelValues(events.SourceAPI))).To(Equal(1.0))
		})

		It("should block an ip on the threat list", func() {
			Expect(store.AddThreat(ctx, models.Threat{IPAddress: "6.6.6.6", ThreatType: "botnet"})).To(Succeed())

			d, err := svc.Create(ctx, models.Device{Name: "Unknown", IPAddress: "6.6.6.6", Status: strPtr("Allowed")}, events.SourceAPI)
			Expect(err).NotTo(HaveOccurred())
			Expect(*d.Status).To(Equal(models.StatusBlocked))

			logs, err := store.ListActivity(ctx, time.Time{}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(ContainElement(And(
				HaveField("Level", models.LevelWarning),
				HaveField("Message", ContainSubstring("botnet")),
			)))
		})

		It("should reject a device without name or ip", func() {
			_, err := svc.Create(ctx, models.Device{Name: "", IPAddress: "10.0.0.1"}, events.SourceAPI)
			Expect(err).To(MatchError(devices.ErrInvalidDevice))

			_, err = svc.Create(ctx, models.Device{Name: "x"}, events.SourceAPI)
			Expect(err).To(MatchError(devices.ErrInvalidDevice))
			Expect(recorder.Events()).To(BeEmpty())
		})

		It("should return ErrDuplicateIP for a stored ip", func() {
			_, err := svc.Create(ctx, models.Device{Name: "first", IPAddress: "10.0.0.1"}, events.SourceAPI)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Create(ctx, models.Device{Name: "second", IPAddress: "10.0.0.1"}, events.SourceAPI)
			Expect(err).To(MatchError(db.ErrDuplicateIP))
			Expect(recorder.Events()).To(HaveLen(1))
		})
	})

	Describe("Search", func() {
		It("should delegate to the store", func() {
			_, err := svc.Create(ctx, models.Device{Name: "Printer", IPAddress: "10.0.0.5", Location: strPtr("HR Office")}, events.SourceSeed)
			Expect(err).NotTo(HaveOccurred())

			list, err := svc.Search(ctx, "hr office")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})
	})

	Describe("Get", func() {
		It("should return ErrNotFound", func() {
			_, err := svc.Get(ctx, 5)
			Expect(err).To(MatchError(db.ErrNotFound))
		})
	})
})
