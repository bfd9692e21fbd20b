package db_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"netinventory/internal/db"
	"netinventory/internal/models"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func newMemoryStore(ctx context.Context) *db.Store {
	store, err := db.Open(ctx, db.Options{Driver: db.DriverSQLite, DSN: ":memory:"})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(store.Close)
	return store
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *db.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemoryStore(ctx)
	})

	Describe("Open", func() {
		It("should default to sqlite", func() {
			s, err := db.Open(ctx, db.Options{DSN: ":memory:"})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()
			Expect(s.Driver()).To(Equal(db.DriverSQLite))
		})

		It("should reject an unknown driver", func() {
			_, err := db.Open(ctx, db.Options{Driver: "mysql", DSN: "x"})
			Expect(err).To(MatchError(ContainSubstring("unsupported database driver")))
		})

		It("should be idempotent on an existing file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "inv.db")
			first, err := db.Open(ctx, db.Options{Driver: db.DriverSQLite, DSN: path})
			Expect(err).NotTo(HaveOccurred())
			_, err = first.InsertDevice(ctx, models.Device{Name: "R1", IPAddress: "10.0.0.1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Close()).To(Succeed())

			second, err := db.Open(ctx, db.Options{Driver: db.DriverSQLite, DSN: path})
			Expect(err).NotTo(HaveOccurred())
			defer second.Close()
			Expect(second.CountDevices(ctx)).To(Equal(1))
		})

		It("should answer Ping", func() {
			Expect(store.Ping(ctx)).To(Succeed())
		})
	})

	Describe("InsertDevice", func() {
		It("should store every field and assign ids in order", func() {
			id1, err := store.InsertDevice(ctx, models.Device{
				Name:       "R1",
				IPAddress:  "10.0.0.1",
				Location:   strPtr("HQ"),
				Status:     strPtr("Allowed"),
				DetectedAt: "2024-05-01 10:00:00",
				Latitude:   floatPtr(-6.2),
				Longitude:  floatPtr(106.8),
			})
			Expect(err).NotTo(HaveOccurred())
			id2, err := store.InsertDevice(ctx, models.Device{Name: "R2", IPAddress: "10.0.0.2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(id2).To(BeNumerically(">", id1))

			d, err := store.GetDevice(ctx, id1)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Name).To(Equal("R1"))
			Expect(d.IPAddress).To(Equal("10.0.0.1"))
			Expect(*d.Location).To(Equal("HQ"))
			Expect(*d.Status).To(Equal("Allowed"))
			Expect(d.DetectedAt).To(Equal("2024-05-01 10:00:00"))
			Expect(*d.Latitude).To(BeNumerically("~", -6.2, 1e-9))
			Expect(*d.Longitude).To(BeNumerically("~", 106.8, 1e-9))
		})

		It("should keep absent optional fields null", func() {
			id, err := store.InsertDevice(ctx, models.Device{Name: "AP", IPAddress: "10.0.0.9"})
			Expect(err).NotTo(HaveOccurred())

			d, err := store.GetDevice(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Location).To(BeNil())
			Expect(d.Status).To(BeNil())
			Expect(d.Latitude).To(BeNil())
			Expect(d.Longitude).To(BeNil())
		})

		It("should return ErrDuplicateIP and keep the existing row", func() {
			_, err := store.InsertDevice(ctx, models.Device{Name: "first", IPAddress: "10.0.0.1"})
			Expect(err).NotTo(HaveOccurred())

			_, err = store.InsertDevice(ctx, models.Device{Name: "second", IPAddress: "10.0.0.1"})
			Expect(err).To(MatchError(db.ErrDuplicateIP))

			list, err := store.ListDevices(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].Name).To(Equal("first"))
		})

		It("should reject an empty name or ip address", func() {
			_, err := store.InsertDevice(ctx, models.Device{Name: "", IPAddress: "10.0.0.1"})
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(db.ErrDuplicateIP))

			_, err = store.InsertDevice(ctx, models.Device{Name: "x", IPAddress: ""})
			Expect(err).To(HaveOccurred())
			Expect(store.CountDevices(ctx)).To(Equal(0))
		})
	})

	Describe("SearchDevices", func() {
		BeforeEach(func() {
			seed := []models.Device{
				{Name: "Router Core", IPAddress: "192.168.1.1", Location: strPtr("Data Center"), Status: strPtr("Allowed")},
				{Name: "CCTV Lobby", IPAddress: "192.168.1.20", Location: strPtr("Lobby"), Status: strPtr("Blocked")},
				{Name: "Printer_HR", IPAddress: "10.1.0.5", Location: strPtr("HR Office"), Status: strPtr("Maintenance")},
				{Name: "Bare", IPAddress: "10.1.0.6"},
			}
			for _, d := range seed {
				_, err := store.InsertDevice(ctx, d)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		names := func(list []models.Device) []string {
			out := make([]string, 0, len(list))
			for _, d := range list {
				out = append(out, d.Name)
			}
			return out
		}

		It("should return everything for an empty keyword", func() {
			list, err := store.SearchDevices(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(names(list)).To(Equal([]string{"Router Core", "CCTV Lobby", "Printer_HR", "Bare"}))
		})

		It("should match case-insensitively across columns", func() {
			list, err := store.SearchDevices(ctx, "LOBBY")
			Expect(err).NotTo(HaveOccurred())
			Expect(names(list)).To(Equal([]string{"CCTV Lobby"}))

			list, err = store.SearchDevices(ctx, "blocked")
			Expect(err).NotTo(HaveOccurred())
			Expect(names(list)).To(Equal([]string{"CCTV Lobby"}))

			list, err = store.SearchDevices(ctx, "192.168")
			Expect(err).NotTo(HaveOccurred())
			Expect(names(list)).To(Equal([]string{"Router Core", "CCTV Lobby"}))
		})

		It("should fold non-ASCII letters", func() {
			_, err := store.InsertDevice(ctx, models.Device{Name: "AP Nord", IPAddress: "10.2.0.1", Location: strPtr("ÉCOLE Nord")})
			Expect(err).NotTo(HaveOccurred())

			list, err := store.SearchDevices(ctx, "école")
			Expect(err).NotTo(HaveOccurred())
			Expect(names(list)).To(Equal([]string{"AP Nord"}))

			list, err = store.SearchDevices(ctx, "ÉCOLE")
			Expect(err).NotTo(HaveOccurred())
			Expect(names(list)).To(Equal([]string{"AP Nord"}))
		})

		It("should treat LIKE wildcards literally", func() {
			list, err := store.SearchDevices(ctx, "_")
			Expect(err).NotTo(HaveOccurred())
			Expect(names(list)).To(Equal([]string{"Printer_HR"}))

			list, err = store.SearchDevices(ctx, "%")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})

		It("should return an empty slice when nothing matches", func() {
			list, err := store.SearchDevices(ctx, "nothing-here")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).NotTo(BeNil())
			Expect(list).To(BeEmpty())
		})
	})

	Describe("GetDevice", func() {
		It("should return ErrNotFound for an unknown id", func() {
			_, err := store.GetDevice(ctx, 999)
			Expect(err).To(MatchError(db.ErrNotFound))
		})
	})

	Describe("activity log", func() {
		It("should list entries newest first with the default limit", func() {
			for i := 0; i < db.DefaultActivityLimit+3; i++ {
				Expect(store.AddActivity(ctx, models.LevelInfo, "entry")).To(Succeed())
			}
			Expect(store.AddActivity(ctx, models.LevelWarning, "latest")).To(Succeed())

			logs, err := store.ListActivity(ctx, time.Time{}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(db.DefaultActivityLimit))
			Expect(logs[0].Message).To(Equal("latest"))
			Expect(logs[0].Level).To(Equal(models.LevelWarning))
			Expect(logs[0].ID).To(BeNumerically(">", logs[1].ID))
		})

		It("should return only entries after the cursor", func() {
			Expect(store.AddActivity(ctx, models.LevelInfo, "old")).To(Succeed())
			cursor := time.Now().UTC()
			time.Sleep(2 * time.Millisecond)
			Expect(store.AddActivity(ctx, models.LevelCritical, "new")).To(Succeed())

			logs, err := store.ListActivity(ctx, cursor, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Message).To(Equal("new"))
			Expect(logs[0].CreatedAt).To(BeTemporally(">", cursor))
		})
	})

	Describe("threat intelligence", func() {
		It("should add, look up and list threats", func() {
			Expect(store.AddThreat(ctx, models.Threat{IPAddress: "6.6.6.6", ThreatType: "botnet"})).To(Succeed())
			Expect(store.AddThreat(ctx, models.Threat{IPAddress: "1.2.3.4", ThreatType: "scanner"})).To(Succeed())

			t, err := store.LookupThreat(ctx, "6.6.6.6")
			Expect(err).NotTo(HaveOccurred())
			Expect(t.ThreatType).To(Equal("botnet"))
			Expect(t.CreatedAt).NotTo(BeZero())

			list, err := store.ListThreats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].IPAddress).To(Equal("1.2.3.4"))
		})

		It("should report unknown and duplicate ips", func() {
			_, err := store.LookupThreat(ctx, "8.8.8.8")
			Expect(err).To(MatchError(db.ErrNotFound))

			Expect(store.AddThreat(ctx, models.Threat{IPAddress: "6.6.6.6", ThreatType: "botnet"})).To(Succeed())
			err = store.AddThreat(ctx, models.Threat{IPAddress: "6.6.6.6", ThreatType: "spam"})
			Expect(err).To(MatchError(db.ErrDuplicateIP))
		})
	})

	Describe("Backup", func() {
		It("should write a snapshot that can be opened", func() {
			_, err := store.InsertDevice(ctx, models.Device{Name: "R1", IPAddress: "10.0.0.1"})
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(GinkgoT().TempDir(), "it's-a-backup.db")
			Expect(store.Backup(ctx, path)).To(Succeed())
			Expect(path).To(BeAnExistingFile())

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Size()).To(BeNumerically(">", 0))

			restored, err := db.Open(ctx, db.Options{Driver: db.DriverSQLite, DSN: path})
			Expect(err).NotTo(HaveOccurred())
			defer restored.Close()
			Expect(restored.CountDevices(ctx)).To(Equal(1))
		})
	})
})
