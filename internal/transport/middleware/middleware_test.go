package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/metrics"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport/middleware"
)

var _ = Describe("Middleware", func() {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	Describe("CORS", func() {
		preflight := func(origin string) *http.Request {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/admin/accounts", nil)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
			return req
		}

		It("short-circuits preflight requests", func() {
			called := false
			h := middleware.CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, preflight("https://app.example"))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(called).To(BeFalse())
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(w.Header().Get("Access-Control-Allow-Methods")).To(Equal(http.MethodPost))
			Expect(strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))).To(ContainSubstring("authorization"))
		})

		It("refuses a preflight asking for a method outside the list", func() {
			req := preflight("https://app.example")
			req.Header.Set("Access-Control-Request-Method", "TRACE")
			w := httptest.NewRecorder()
			middleware.CORS([]string{"*"})(ok).ServeHTTP(w, req)
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})

		It("echoes only listed origins and exposes the trace header", func() {
			h := middleware.CORS([]string{"https://a.example", "https://b.example"})(ok)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", "https://b.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://b.example"))
			Expect(strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))).To(Equal("x-trace-id"))

			req.Header.Set("Origin", "https://evil.example")
			w = httptest.NewRecorder()
			h.ServeHTTP(w, req)
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})

	Describe("RequestID", func() {
		It("keeps an incoming trace id and exposes it in the context", func() {
			var seen string
			h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = internal.TraceIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Trace-ID", "trace-1")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Expect(seen).To(Equal("trace-1"))
			Expect(w.Header().Get("X-Trace-ID")).To(Equal("trace-1"))
		})

		It("mints one when absent", func() {
			w := httptest.NewRecorder()
			middleware.RequestID(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(w.Header().Get("X-Trace-ID")).To(HaveLen(36))
		})
	})

	Describe("LoggingMiddleware", func() {
		It("masks credentials in headers and bodies and keeps the body readable", func() {
			var buf bytes.Buffer
			lg := slog.New(slog.NewJSONHandler(&buf, nil))

			var received string
			h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				received = string(b)
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"access_token":"abc","id":1}`))
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c","password":"hunter22"}`))
			req.Header.Set("Authorization", "Bearer xyz")
			h.ServeHTTP(httptest.NewRecorder(), req)

			Expect(received).To(ContainSubstring("hunter22"))
			logs := buf.String()
			Expect(logs).NotTo(ContainSubstring("hunter22"))
			Expect(logs).NotTo(ContainSubstring("Bearer xyz"))
			Expect(logs).NotTo(ContainSubstring(`\"abc\"`))
			Expect(logs).To(ContainSubstring("a@b.c"))
			Expect(logs).To(ContainSubstring(`"status_code":201`))
		})
	})

	Describe("RecoveryMiddleware", func() {
		It("answers a panic with the error envelope", func() {
			lg := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))
			h := middleware.RecoveryMiddleware(lg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("boom")
			}))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			var body map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body["error"]).To(Equal("Internal server error"))
		})
	})

	Describe("Metrics", func() {
		It("labels requests by route pattern", func() {
			r := chi.NewRouter()
			r.Use(middleware.Metrics)
			r.Get("/timesheets/{id}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			})

			counter := metrics.HTTPRequestsTotal.WithLabelValues("/timesheets/{id}", http.MethodGet, "404")
			before := testutil.ToFloat64(counter)
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/timesheets/41", nil))
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/timesheets/42", nil))
			Expect(testutil.ToFloat64(counter) - before).To(Equal(2.0))
		})
	})
})
