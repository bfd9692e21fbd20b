package discovery_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"netinventory/internal/discovery"
	"netinventory/internal/logging"
)

var _ = Describe("SanitizeInstance", func() {
	It("should replace characters DNS-SD labels cannot carry", func() {
		Expect(discovery.SanitizeInstance("inv.host_1\nlab")).To(Equal("inv host 1 lab"))
	})

	It("should fall back to a default name", func() {
		Expect(discovery.SanitizeInstance("   ")).To(Equal("Network Inventory"))
	})

	It("should truncate to 63 runes", func() {
		Expect([]rune(discovery.SanitizeInstance(strings.Repeat("é", 80)))).To(HaveLen(63))
	})
})

var _ = Describe("Start", func() {
	It("should reject an address without a port", func() {
		_, err := discovery.Start("inv", "localhost", logging.Discard())
		Expect(err).To(MatchError(ContainSubstring("parse listen address")))
	})

	It("should reject port zero", func() {
		_, err := discovery.Start("inv", ":0", logging.Discard())
		Expect(err).To(MatchError(ContainSubstring("invalid port")))
	})

	It("should tolerate Stop on a nil advertiser", func() {
		var a *discovery.Advertiser
		Expect(a.Stop).NotTo(Panic())
	})
})
