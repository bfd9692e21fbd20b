package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"netinventory/internal/logging"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("should write JSON when asked", func() {
			var buf bytes.Buffer
			log := logging.New("info", "json", &buf)
			log.Info("hello", "key", "value")

			var entry map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
			Expect(entry).To(HaveKeyWithValue("msg", "hello"))
			Expect(entry).To(HaveKeyWithValue("key", "value"))
		})

		It("should write text by default", func() {
			var buf bytes.Buffer
			logging.New("info", "", &buf).Info("hello")
			Expect(buf.String()).To(ContainSubstring("msg=hello"))
		})

		It("should filter below the configured level", func() {
			var buf bytes.Buffer
			log := logging.New("warn", "text", &buf)
			log.Info("hidden")
			log.Warn("shown")
			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring("shown"))
		})
	})

	Describe("ParseLevel", func() {
		DescribeTable("level names",
			func(in string, want slog.Level) {
				Expect(logging.ParseLevel(in)).To(Equal(want))
			},
			Entry("debug", "debug", slog.LevelDebug),
			Entry("upper case", "WARN", slog.LevelWarn),
			Entry("warning alias", "warning", slog.LevelWarn),
			Entry("error", "error", slog.LevelError),
			Entry("unknown falls back to info", "chatty", slog.LevelInfo),
		)
	})

	Describe("FromContext", func() {
		It("should attach the chi request id", func() {
			var buf bytes.Buffer
			base := logging.New("info", "json", &buf)

			var ctx context.Context
			h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				ctx = r.Context()
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			logging.FromContext(ctx, base).Info("request")
			Expect(buf.String()).To(ContainSubstring(`"request_id":`))
		})

		It("should return base when no request id is present", func() {
			base := logging.Discard()
			Expect(logging.FromContext(context.Background(), base)).To(BeIdenticalTo(base))
		})
	})
})
