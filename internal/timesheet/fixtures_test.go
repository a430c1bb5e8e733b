package timesheet_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel"
	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	projectdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/project"
	timesheetdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/timesheet"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/events"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification"
	notificationPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project"
	projectPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
	timesheetPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet/postgres"
)

// fixture wires the timesheet service to SQLite with the real project
// resolver and notification subscribers.
type fixture struct {
	db            *gorm.DB
	service       *timesheet.Service
	drafts        *timesheet.MemoryDraftStore
	notifications *notification.Service
	projects      *project.Service
	bus           *events.EventBus
	alphaID       int64
	betaID        int64
	closedID      int64

	alice *auth.Session
	bob   *auth.Session
	head  *auth.Session
	admin *auth.Session
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	Expect(db.AutoMigrate(datamodel.All()...)).To(Succeed())
	return db
}

func newFixture(approval internal.ApprovalConfig) *fixture {
	f := &fixture{db: openDB()}
	lg := testLogger()

	employeeID := "EMP1"
	for _, p := range []accountdm.Profile{
		{ID: "alice", Email: "alice@x.com", DisplayName: "Alice", EmployeeID: &employeeID},
		{ID: "bob", Email: "bob@x.com", DisplayName: "Bob"},
		{ID: "head", Email: "head@x.com", DisplayName: "Head"},
		{ID: "admin", Email: "admin@x.com", DisplayName: "Admin"},
	} {
		p := p
		Expect(f.db.Create(&p).Error).To(Succeed())
	}

	alpha := &projectdm.Project{Name: "Alpha", IsActive: true}
	beta := &projectdm.Project{Name: "Beta", IsActive: true}
	closed := &projectdm.Project{Name: "Closed", IsActive: false}
	Expect(f.db.Create(alpha).Error).To(Succeed())
	Expect(f.db.Create(beta).Error).To(Succeed())
	Expect(f.db.Create(closed).Error).To(Succeed())
	f.alphaID, f.betaID, f.closedID = alpha.ID, beta.ID, closed.ID

	Expect(f.db.Create(&projectdm.ProjectAssignment{ProjectID: alpha.ID, AccountID: "alice"}).Error).To(Succeed())
	Expect(f.db.Create(&projectdm.ProjectAssignment{ProjectID: alpha.ID, AccountID: "bob"}).Error).To(Succeed())
	Expect(f.db.Create(&projectdm.ProjectAssignment{ProjectID: beta.ID, AccountID: "bob"}).Error).To(Succeed())
	Expect(f.db.Create(&projectdm.DepartmentHead{ProjectID: alpha.ID, AccountID: "head"}).Error).To(Succeed())

	f.alice = &auth.Session{AccountID: "alice", Role: auth.RoleRegular}
	f.bob = &auth.Session{AccountID: "bob", Role: auth.RoleRegular}
	f.head = &auth.Session{AccountID: "head", Role: auth.RoleDepartmentHead, HeadProjectIDs: []int64{alpha.ID}}
	f.admin = &auth.Session{AccountID: "admin", Role: auth.RoleAdmin}

	bus := events.NewEventBus(lg)
	f.notifications = notification.NewService(notificationPostgres.NewNotificationRepository(f.db), lg)
	notification.NewEventHandler(f.notifications, lg).RegisterEventHandlers(bus)

	f.bus = bus
	f.projects = project.NewService(projectPostgres.NewProjectRepository(f.db), bus, lg)
	f.drafts = timesheet.NewMemoryDraftStore()
	f.service = timesheet.NewService(timesheetPostgres.NewTimesheetRepository(f.db), f.projects, f.drafts, bus, approval, lg)
	return f
}

// reviewedAfterLoad approves the entry in the database right after the
// service loads it, as a reviewer acting between the read and the write would.
type reviewedAfterLoad struct {
	*timesheetPostgres.TimesheetRepository
	db *gorm.DB
}

func (r *reviewedAfterLoad) GetByID(ctx context.Context, id int64) (*timesheetdm.Entry, error) {
	row, err := r.TimesheetRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = r.db.Model(&timesheetdm.Entry{}).Where("id = ?", id).Update("status", string(timesheet.StatusApproved)).Error
	return row, err
}

// withRacingReviewer returns a service whose loads race against an approval.
func (f *fixture) withRacingReviewer() *timesheet.Service {
	repo := &reviewedAfterLoad{TimesheetRepository: timesheetPostgres.NewTimesheetRepository(f.db), db: f.db}
	return timesheet.NewService(repo, f.projects, f.drafts, f.bus, internal.ApprovalConfig{}, testLogger())
}
