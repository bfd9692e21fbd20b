package generator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"netinventory/internal/generator"
)

var _ = Describe("Generator", func() {
	It("should fill every device field except id and timestamp", func() {
		d := generator.New(7).Device()
		Expect(d.ID).To(BeZero())
		Expect(d.DetectedAt).To(BeEmpty())
		Expect(d.Name).NotTo(BeEmpty())
		Expect(d.IPAddress).To(MatchRegexp(`^\d+\.\d+\.\d+\.\d+$`))
		Expect(d.Location).NotTo(BeNil())
		Expect(d.Status).NotTo(BeNil())
		Expect(*d.Latitude).To(BeNumerically(">=", -90))
		Expect(*d.Latitude).To(BeNumerically("<=", 90))
	})

	It("should be reproducible for a fixed seed", func() {
		Expect(generator.New(42).Devices(5)).To(Equal(generator.New(42).Devices(5)))
	})

	It("should produce distinct ip addresses", func() {
		list := generator.New(1).Devices(200)
		Expect(list).To(HaveLen(200))
		seen := map[string]bool{}
		for _, d := range list {
			Expect(seen).NotTo(HaveKey(d.IPAddress))
			seen[d.IPAddress] = true
		}
	})
})
