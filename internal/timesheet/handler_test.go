package timesheet_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport"
)

var _ = Describe("Timesheet Handler", func() {
	var (
		f       *fixture
		router  chi.Router
		session *auth.Session
	)

	BeforeEach(func() {
		f = newFixture(internal.ApprovalConfig{})
		handler := timesheet.NewHandler(transport.NewBaseHandler(testLogger()), f.service)

		session = f.alice
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), session)))
			})
		})
		router.Get("/timesheets", handler.List)
		router.Post("/timesheets", handler.CreateEntry)
		router.Post("/timesheets/weeks", handler.SubmitWeek)
		router.Get("/timesheets/drafts/{weekStart}", handler.GetDraft)
		router.Put("/timesheets/drafts/{weekStart}", handler.SaveDraft)
		router.Get("/timesheets/{id}", handler.Get)
		router.Patch("/timesheets/{id}", handler.Update)
		router.Delete("/timesheets/{id}", handler.Delete)
		router.Post("/timesheets/{id}/approve", handler.Approve)
		router.Post("/timesheets/{id}/reopen", handler.Reopen)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorOf := func(w *httptest.ResponseRecorder) string {
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		msg, _ := body["error"].(string)
		return msg
	}

	It("creates, approves and blocks hour edits", func() {
		w := do(http.MethodPost, "/timesheets", `{"project":"Alpha","hours":8,"start_date":"2024-01-08","end_date":"2024-01-08"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var e timesheet.Entry
		Expect(json.NewDecoder(w.Body).Decode(&e)).To(Succeed())
		Expect(e.Status).To(Equal(timesheet.StatusPending))

		session = f.head
		w = do(http.MethodPost, fmt.Sprintf("/timesheets/%d/approve", e.ID), "")
		Expect(w.Code).To(Equal(http.StatusOK))

		session = f.alice
		w = do(http.MethodPatch, fmt.Sprintf("/timesheets/%d", e.ID), `{"hours":4}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorOf(w)).To(Equal("Hours cannot be changed after review"))

		w = do(http.MethodPost, fmt.Sprintf("/timesheets/%d/reopen", e.ID), "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("reports validation failures as 400 with a message", func() {
		w := do(http.MethodPost, "/timesheets", `{"project":"Alpha","hours":30,"start_date":"2024-01-08"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorOf(w)).To(ContainSubstring("must not exceed 24"))

		w = do(http.MethodPost, "/timesheets", `not json`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("forbids regular callers from approving", func() {
		w := do(http.MethodPost, "/timesheets", `{"project":"Alpha","hours":1,"start_date":"2024-01-08"}`)
		var e timesheet.Entry
		Expect(json.NewDecoder(w.Body).Decode(&e)).To(Succeed())

		w = do(http.MethodPost, fmt.Sprintf("/timesheets/%d/approve", e.ID), `{"notes":"self"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("round-trips drafts and submits a week", func() {
		draft := `[{"project":"Alpha","description":"x","hours":{"2024-01-08":3,"2024-01-09":5}}]`
		w := do(http.MethodPut, "/timesheets/drafts/2024-01-08", draft)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, "/timesheets/drafts/2024-01-08", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var rows []timesheet.DraftRow
		Expect(json.NewDecoder(w.Body).Decode(&rows)).To(Succeed())
		Expect(rows).To(HaveLen(1))

		w = do(http.MethodPost, "/timesheets/weeks", `{"week_start":"2024-01-08","rows":`+draft+`}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp timesheet.WeekSubmissionResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Entries).To(HaveLen(2))

		w = do(http.MethodGet, "/timesheets?status=pending&from=2024-01-09", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var list timesheet.EntriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Entries).To(HaveLen(1))
		Expect(list.Entries[0].Hours).To(Equal(5.0))
	})

	It("rejects an owner filter that is not an account id", func() {
		session = f.admin
		w := do(http.MethodGet, "/timesheets?owner_id=alice'--", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("owner_id must be a valid id"))
	})

	It("returns 404 for entries the caller cannot see", func() {
		session = f.bob
		w := do(http.MethodPost, "/timesheets", `{"project":"Beta","hours":1,"start_date":"2024-01-08"}`)
		var e timesheet.Entry
		Expect(json.NewDecoder(w.Body).Decode(&e)).To(Succeed())

		session = f.alice
		w = do(http.MethodGet, fmt.Sprintf("/timesheets/%d", e.ID), "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		w = do(http.MethodDelete, fmt.Sprintf("/timesheets/%d", e.ID), "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
