package timesheet_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
)

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

var _ = Describe("Timesheet Service", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		f = newFixture(internal.ApprovalConfig{})
		ctx = context.Background()
	})

	submit := func(hours float64) *timesheet.Entry {
		e, err := f.service.CreateEntry(ctx, f.alice, timesheet.CreateEntryDTO{
			Project:   "Alpha",
			Hours:     hours,
			StartDate: "2024-01-08",
			EndDate:   "2024-01-08",
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("CreateEntry", func() {
		It("creates a pending entry with owner and project snapshots", func() {
			e := submit(8)
			Expect(e.Status).To(Equal(timesheet.StatusPending))
			Expect(e.OwnerID).To(Equal("alice"))
			Expect(e.OwnerName).To(Equal("Alice"))
			Expect(e.OwnerEmployeeID).To(HaveValue(Equal("EMP1")))
			Expect(e.ProjectID).To(Equal(f.alphaID))
			Expect(e.Project).To(Equal("Alpha"))
			Expect(e.StartDate).To(Equal("2024-01-08"))
			Expect(e.EndDate).To(Equal("2024-01-08"))
		})

		It("defaults end_date to start_date", func() {
			e, err := f.service.CreateEntry(ctx, f.alice, timesheet.CreateEntryDTO{Project: "Alpha", Hours: 2, StartDate: "2024-01-09"})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.EndDate).To(Equal("2024-01-09"))
		})

		DescribeTable("rejects out-of-range input",
			func(dto timesheet.CreateEntryDTO) {
				_, err := f.service.CreateEntry(ctx, f.alice, dto)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(400))
			},
			Entry("zero hours", timesheet.CreateEntryDTO{Project: "Alpha", Hours: 0, StartDate: "2024-01-08"}),
			Entry("negative hours", timesheet.CreateEntryDTO{Project: "Alpha", Hours: -1, StartDate: "2024-01-08"}),
			Entry("more than 24 hours", timesheet.CreateEntryDTO{Project: "Alpha", Hours: 24.5, StartDate: "2024-01-08"}),
			Entry("below a hundredth", timesheet.CreateEntryDTO{Project: "Alpha", Hours: 0.001, StartDate: "2024-01-08"}),
			Entry("half a hundredth", timesheet.CreateEntryDTO{Project: "Alpha", Hours: 0.005, StartDate: "2024-01-08"}),
			Entry("end before start", timesheet.CreateEntryDTO{Project: "Alpha", Hours: 1, StartDate: "2024-01-08", EndDate: "2024-01-07"}),
			Entry("malformed date", timesheet.CreateEntryDTO{Project: "Alpha", Hours: 1, StartDate: "08/01/2024"}),
			Entry("missing project", timesheet.CreateEntryDTO{Hours: 1, StartDate: "2024-01-08"}),
		)

		It("accepts exactly 24 hours", func() {
			Expect(submit(24).Hours).To(Equal(24.0))
		})

		It("requires an assignment for regular callers", func() {
			_, err := f.service.CreateEntry(ctx, f.alice, timesheet.CreateEntryDTO{Project: "Beta", Hours: 1, StartDate: "2024-01-08"})
			Expect(errors.Is(err, project.ErrProjectNotAssigned)).To(BeTrue())
		})

		It("rejects inactive projects even for admins", func() {
			_, err := f.service.CreateEntry(ctx, f.admin, timesheet.CreateEntryDTO{Project: "Closed", Hours: 1, StartDate: "2024-01-08"})
			Expect(errors.Is(err, project.ErrProjectInactive)).To(BeTrue())
		})

		It("lets heads log against the project they head", func() {
			_, err := f.service.CreateEntry(ctx, f.head, timesheet.CreateEntryDTO{Project: "Alpha", Hours: 1, StartDate: "2024-01-08"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unauthenticated callers", func() {
			_, err := f.service.CreateEntry(ctx, nil, timesheet.CreateEntryDTO{Project: "Alpha", Hours: 1, StartDate: "2024-01-08"})
			Expect(errors.Is(err, internal.ErrAccessDenied)).To(BeTrue())
		})
	})

	Describe("visibility", func() {
		BeforeEach(func() {
			submit(8)
			_, err := f.service.CreateEntry(ctx, f.bob, timesheet.CreateEntryDTO{Project: "Beta", Hours: 3, StartDate: "2024-01-08"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("limits regular callers to their own entries", func() {
			entries, err := f.service.List(ctx, f.alice, timesheet.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].OwnerID).To(Equal("alice"))
		})

		It("shows heads entries of their projects only", func() {
			entries, err := f.service.List(ctx, f.head, timesheet.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ProjectID).To(Equal(f.alphaID))
		})

		It("shows admins everything and applies filters", func() {
			entries, err := f.service.List(ctx, f.admin, timesheet.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))

			entries, err = f.service.List(ctx, f.admin, timesheet.ListFilter{ProjectID: f.betaID})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].OwnerID).To(Equal("bob"))

			from := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
			entries, err = f.service.List(ctx, f.admin, timesheet.ListFilter{From: &from})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("rejects an unknown status filter", func() {
			_, err := f.service.List(ctx, f.admin, timesheet.ListFilter{Status: "done"})
			Expect(err).To(HaveOccurred())
		})

		It("hides other accounts' entries as not found", func() {
			entries, err := f.service.List(ctx, f.bob, timesheet.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Get(ctx, f.alice, entries[0].ID)
			Expect(errors.Is(err, timesheet.ErrEntryNotFound)).To(BeTrue())
		})

		It("lists reviewable entries for heads and nothing for regular callers", func() {
			entries, err := f.service.ListReviewable(ctx, f.head, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))

			entries, err = f.service.ListReviewable(ctx, f.alice, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("review", func() {
		var entry *timesheet.Entry

		BeforeEach(func() {
			entry = submit(8)
		})

		It("lets a head approve, stamps the reviewer and notifies the owner once", func() {
			approved, err := f.service.Approve(ctx, f.head, entry.ID, timesheet.ReviewDTO{Notes: "ok"})
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(timesheet.StatusApproved))
			Expect(approved.ReviewedBy).To(HaveValue(Equal("head")))
			Expect(approved.ReviewedAt).NotTo(BeNil())
			Expect(approved.ReviewNotes).To(HaveValue(Equal("ok")))

			items, _, err := f.notifications.List(ctx, f.alice, false, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Type).To(Equal(notification.TypeTimesheetApproved))
			Expect(items[0].Message).To(ContainSubstring("Alpha"))
		})

		It("lets an admin reject", func() {
			rejected, err := f.service.Reject(ctx, f.admin, entry.ID, timesheet.ReviewDTO{Notes: "wrong week"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(timesheet.StatusRejected))

			items, _, err := f.notifications.List(ctx, f.alice, false, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Type).To(Equal(notification.TypeTimesheetRejected))
		})

		It("refuses the owner and other regular callers", func() {
			_, err := f.service.Approve(ctx, f.alice, entry.ID, timesheet.ReviewDTO{})
			Expect(errors.Is(err, timesheet.ErrReviewDenied)).To(BeTrue())

			_, err = f.service.Approve(ctx, f.bob, entry.ID, timesheet.ReviewDTO{})
			Expect(errors.Is(err, timesheet.ErrEntryNotFound)).To(BeTrue())
		})

		It("is one-way", func() {
			_, err := f.service.Approve(ctx, f.head, entry.ID, timesheet.ReviewDTO{})
			Expect(err).NotTo(HaveOccurred())

			_, err = f.service.Reject(ctx, f.admin, entry.ID, timesheet.ReviewDTO{})
			Expect(errors.Is(err, timesheet.ErrInvalidEntryStatus)).To(BeTrue())

			_, err = f.service.Reopen(ctx, f.admin, entry.ID)
			Expect(errors.Is(err, timesheet.ErrReopenDisabled)).To(BeTrue())

			got, err := f.service.Get(ctx, f.alice, entry.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(timesheet.StatusApproved))

			items, _, err := f.notifications.List(ctx, f.alice, false, 50, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
		})
	})

	Describe("Reopen with allow_reopen", func() {
		BeforeEach(func() {
			f = newFixture(internal.ApprovalConfig{AllowReopen: true})
		})

		It("moves a reviewed entry back to pending and clears the stamps", func() {
			e := submit(4)
			_, err := f.service.Reject(ctx, f.head, e.ID, timesheet.ReviewDTO{Notes: "fix"})
			Expect(err).NotTo(HaveOccurred())

			reopened, err := f.service.Reopen(ctx, f.head, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reopened.Status).To(Equal(timesheet.StatusPending))
			Expect(reopened.ReviewedBy).To(BeNil())
			Expect(reopened.ReviewNotes).To(BeNil())

			_, err = f.service.Reopen(ctx, f.head, e.ID)
			Expect(errors.Is(err, timesheet.ErrNotReviewed)).To(BeTrue())
		})

		It("still refuses the owner", func() {
			e := submit(4)
			_, err := f.service.Approve(ctx, f.admin, e.ID, timesheet.ReviewDTO{})
			Expect(err).NotTo(HaveOccurred())
			_, err = f.service.Reopen(ctx, f.alice, e.ID)
			Expect(errors.Is(err, timesheet.ErrReviewDenied)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var entry *timesheet.Entry

		BeforeEach(func() {
			entry = submit(8)
		})

		It("lets the owner change hours and description while pending", func() {
			updated, err := f.service.Update(ctx, f.alice, entry.ID, timesheet.UpdateEntryDTO{Hours: floatPtr(6), Description: strPtr("docs")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Hours).To(Equal(6.0))
			Expect(updated.Description).To(Equal("docs"))
		})

		It("validates hours", func() {
			_, err := f.service.Update(ctx, f.alice, entry.ID, timesheet.UpdateEntryDTO{Hours: floatPtr(25)})
			Expect(err).To(HaveOccurred())
		})

		It("keeps hours of an entry approved between load and write", func() {
			_, err := f.withRacingReviewer().Update(ctx, f.alice, entry.ID, timesheet.UpdateEntryDTO{Hours: floatPtr(1)})
			Expect(errors.Is(err, timesheet.ErrHoursLocked)).To(BeTrue())

			stored, err := f.service.Get(ctx, f.admin, entry.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(timesheet.StatusApproved))
			Expect(stored.Hours).To(Equal(8.0))
		})

		It("keeps the description of an entry approved under the owner", func() {
			_, err := f.withRacingReviewer().Update(ctx, f.alice, entry.ID, timesheet.UpdateEntryDTO{Description: strPtr("late edit")})
			Expect(errors.Is(err, timesheet.ErrCannotModifyEntry)).To(BeTrue())

			stored, err := f.service.Get(ctx, f.admin, entry.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Description).To(BeEmpty())
		})

		Context("after review", func() {
			BeforeEach(func() {
				_, err := f.service.Approve(ctx, f.head, entry.ID, timesheet.ReviewDTO{})
				Expect(err).NotTo(HaveOccurred())
			})

			It("locks hours for everyone", func() {
				_, err := f.service.Update(ctx, f.admin, entry.ID, timesheet.UpdateEntryDTO{Hours: floatPtr(1)})
				Expect(errors.Is(err, timesheet.ErrHoursLocked)).To(BeTrue())
				_, err = f.service.Update(ctx, f.head, entry.ID, timesheet.UpdateEntryDTO{Hours: floatPtr(1)})
				Expect(errors.Is(err, timesheet.ErrHoursLocked)).To(BeTrue())
				_, err = f.service.Update(ctx, f.alice, entry.ID, timesheet.UpdateEntryDTO{Hours: floatPtr(1)})
				Expect(errors.Is(err, timesheet.ErrHoursLocked)).To(BeTrue())
			})

			It("lets heads and admins edit the description", func() {
				updated, err := f.service.Update(ctx, f.head, entry.ID, timesheet.UpdateEntryDTO{Description: strPtr("clarified")})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Description).To(Equal("clarified"))
				Expect(updated.Status).To(Equal(timesheet.StatusApproved))
				Expect(updated.Hours).To(Equal(8.0))
			})

			It("stops the owner from editing", func() {
				_, err := f.service.Update(ctx, f.alice, entry.ID, timesheet.UpdateEntryDTO{Description: strPtr("mine")})
				Expect(errors.Is(err, timesheet.ErrCannotModifyEntry)).To(BeTrue())
			})
		})
	})

	Describe("Delete", func() {
		It("lets the owner delete a pending entry", func() {
			e := submit(1)
			Expect(f.service.Delete(ctx, f.alice, e.ID)).To(Succeed())
			_, err := f.service.Get(ctx, f.alice, e.ID)
			Expect(errors.Is(err, timesheet.ErrEntryNotFound)).To(BeTrue())
		})

		It("refuses heads", func() {
			e := submit(1)
			err := f.service.Delete(ctx, f.head, e.ID)
			Expect(errors.Is(err, timesheet.ErrDeleteDenied)).To(BeTrue())
		})

		It("keeps an entry approved between load and delete", func() {
			e := submit(1)
			err := f.withRacingReviewer().Delete(ctx, f.alice, e.ID)
			Expect(errors.Is(err, timesheet.ErrCannotModifyEntry)).To(BeTrue())

			stored, err := f.service.Get(ctx, f.admin, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(timesheet.StatusApproved))
		})

		It("refuses the owner after review but lets the admin delete", func() {
			e := submit(1)
			_, err := f.service.Approve(ctx, f.admin, e.ID, timesheet.ReviewDTO{})
			Expect(err).NotTo(HaveOccurred())

			err = f.service.Delete(ctx, f.alice, e.ID)
			Expect(errors.Is(err, timesheet.ErrCannotModifyEntry)).To(BeTrue())
			Expect(f.service.Delete(ctx, f.admin, e.ID)).To(Succeed())
		})
	})

	Describe("SubmitWeek", func() {
		It("creates one pending entry per non-zero cell and clears the draft", func() {
			rows := []timesheet.DraftRow{
				{Project: "Alpha", Description: "build", Hours: map[string]float64{"2024-01-08": 8, "2024-01-09": 0, "2024-01-10": 4}},
				{Project: "Alpha", Description: "review", Hours: map[string]float64{"2024-01-08": 2}},
			}
			Expect(f.service.SaveDraft(ctx, f.alice, "2024-01-08", rows)).To(Succeed())

			entries, err := f.service.SubmitWeek(ctx, f.alice, timesheet.WeekSubmissionDTO{WeekStart: "2024-01-08", Rows: rows})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			for _, e := range entries {
				Expect(e.Status).To(Equal(timesheet.StatusPending))
				Expect(e.StartDate).To(Equal(e.EndDate))
				Expect(e.Project).To(Equal("Alpha"))
			}

			draft, err := f.service.GetDraft(ctx, f.alice, "2024-01-08")
			Expect(err).NotTo(HaveOccurred())
			Expect(draft).To(BeEmpty())
		})

		It("rejects a day total over 24 hours and writes nothing", func() {
			rows := []timesheet.DraftRow{
				{Project: "Alpha", Hours: map[string]float64{"2024-01-08": 20}},
				{Project: "Alpha", Hours: map[string]float64{"2024-01-08": 5}},
			}
			_, err := f.service.SubmitWeek(ctx, f.alice, timesheet.WeekSubmissionDTO{WeekStart: "2024-01-08", Rows: rows})
			Expect(err).To(MatchError(ContainSubstring("exceed 24")))

			entries, err := f.service.List(ctx, f.alice, timesheet.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("accepts a day of exactly 24 hours split into fractions", func() {
			rows := []timesheet.DraftRow{
				{Project: "Alpha", Description: "a", Hours: map[string]float64{"2024-01-08": 23.7}},
				{Project: "Alpha", Description: "b", Hours: map[string]float64{"2024-01-08": 0.2}},
				{Project: "Alpha", Description: "c", Hours: map[string]float64{"2024-01-08": 0.1}},
			}
			entries, err := f.service.SubmitWeek(ctx, f.alice, timesheet.WeekSubmissionDTO{WeekStart: "2024-01-08", Rows: rows})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
		})

		It("rejects cells finer than a hundredth of an hour", func() {
			rows := []timesheet.DraftRow{{Project: "Alpha", Hours: map[string]float64{"2024-01-08": 1.125}}}
			_, err := f.service.SubmitWeek(ctx, f.alice, timesheet.WeekSubmissionDTO{WeekStart: "2024-01-08", Rows: rows})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("rejects dates outside the week and non-Monday starts", func() {
			_, err := f.service.SubmitWeek(ctx, f.alice, timesheet.WeekSubmissionDTO{
				WeekStart: "2024-01-08",
				Rows:      []timesheet.DraftRow{{Project: "Alpha", Hours: map[string]float64{"2024-01-15": 1}}},
			})
			Expect(err).To(MatchError(ContainSubstring("outside the week")))

			_, err = f.service.SubmitWeek(ctx, f.alice, timesheet.WeekSubmissionDTO{
				WeekStart: "2024-01-09",
				Rows:      []timesheet.DraftRow{{Project: "Alpha", Hours: map[string]float64{"2024-01-09": 1}}},
			})
			Expect(err).To(MatchError(ContainSubstring("Monday")))
		})

		It("fails atomically when any project is not loggable", func() {
			rows := []timesheet.DraftRow{
				{Project: "Alpha", Hours: map[string]float64{"2024-01-08": 1}},
				{Project: "Beta", Hours: map[string]float64{"2024-01-09": 1}},
			}
			_, err := f.service.SubmitWeek(ctx, f.alice, timesheet.WeekSubmissionDTO{WeekStart: "2024-01-08", Rows: rows})
			Expect(errors.Is(err, project.ErrProjectNotAssigned)).To(BeTrue())

			entries, err := f.service.List(ctx, f.alice, timesheet.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("drafts", func() {
		It("keeps the last write per account and week", func() {
			first := []timesheet.DraftRow{{Project: "Alpha", Hours: map[string]float64{"2024-01-08": 1}}}
			second := []timesheet.DraftRow{{Project: "Beta", Hours: map[string]float64{"2024-01-09": 2}}}
			Expect(f.service.SaveDraft(ctx, f.alice, "2024-01-08", first)).To(Succeed())
			Expect(f.service.SaveDraft(ctx, f.alice, "2024-01-08", second)).To(Succeed())

			got, err := f.service.GetDraft(ctx, f.alice, "2024-01-08")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(second))

			other, err := f.service.GetDraft(ctx, f.bob, "2024-01-08")
			Expect(err).NotTo(HaveOccurred())
			Expect(other).To(BeEmpty())

			Expect(f.service.DeleteDraft(ctx, f.alice, "2024-01-08")).To(Succeed())
			got, err = f.service.GetDraft(ctx, f.alice, "2024-01-08")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("requires a Monday key", func() {
			Expect(f.service.SaveDraft(ctx, f.alice, "2024-01-10", nil)).NotTo(Succeed())
		})
	})
})
