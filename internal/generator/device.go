// Package generator produces realistic fake devices for seeding and tests.
package generator

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"netinventory/internal/models"
)

var (
	kinds     = []string{"Router", "Switch", "AP", "CCTV", "Printer", "PC", "Firewall", "NAS"}
	statuses  = []string{"Allowed", "Blocked", "Maintenance"}
	locations = []string{"Data Center", "Lobby", "Warehouse", "HR Office", "Floor 1", "Floor 2", "Main Entrance"}
)

// Generator wraps a seeded faker so output is reproducible.
type Generator struct {
	faker *gofakeit.Faker
}

// New returns a Generator. seed 0 picks a random seed.
func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Device returns one fake device. ID and DetectedAt are left for storage.
func (g *Generator) Device() models.Device {
	kind := g.faker.RandomString(kinds)
	location := g.faker.RandomString(locations)
	status := g.faker.RandomString(statuses)
	lat := g.faker.Latitude()
	lng := g.faker.Longitude()

	return models.Device{
		Name:      fmt.Sprintf("%s %s", kind, g.faker.LastName()),
		IPAddress: g.faker.IPv4Address(),
		Location:  &location,
		Status:    &status,
		Latitude:  &lat,
		Longitude: &lng,
	}
}

// Devices returns n devices with distinct IP addresses.
func (g *Generator) Devices(n int) []models.Device {
	out := make([]models.Device, 0, n)
	seen := make(map[string]bool, n)
	for len(out) < n {
		d := g.Device()
		if seen[d.IPAddress] {
			continue
		}
		seen[d.IPAddress] = true
		out = append(out, d)
	}
	return out
}
