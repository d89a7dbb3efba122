package service

import (
	"context"
	"testing"
	"time"

	"dailyreport/internal/database"
	"dailyreport/internal/logger"
	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testDate is inside the editing window at testNow.
const testDate = "2025-09-01"

var testNow = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

type recordedEvent struct {
	topic string
	event interface{}
}

type capturePublisher struct {
	events []recordedEvent
}

func (p *capturePublisher) Publish(topic string, event interface{}) {
	p.events = append(p.events, recordedEvent{topic: topic, event: event})
}

func (p *capturePublisher) types() []string {
	var out []string
	for _, e := range p.events {
		if re, ok := e.event.(ReportEvent); ok {
			out = append(out, re.Type)
		}
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	gate      *EditingGate
	scales    *RatingScales
	events    *capturePublisher
	directory repository.DirectoryRepository

	reports  *reportService
	comments *commentService
	records  *recordService
	backfill BackfillService

	employee   model.User
	supervisor model.User
	second     model.User
	stranger   model.User
	projectA   model.Project
	projectB   model.Project
	inactive   model.Project
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), database.GormConfig(logger.Discard()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := logger.Discard()
	ctx := context.Background()

	scales, err := ParseRatingScales("1970-01-01:3,2025-08-15:5")
	require.NoError(t, err)

	f := &fixture{
		db:     db,
		gate:   NewEditingGate(time.UTC, 9*time.Hour),
		scales: scales,
		events: &capturePublisher{},
	}

	users := repository.NewUserRepository(db)
	mkUser := func(no, name, role string) model.User {
		u := model.User{EmployeeNo: no, Name: name, Email: no + "@example.com", Password: "x", Role: role, IsActive: true}
		require.NoError(t, users.Create(ctx, &u))
		return u
	}
	f.employee = mkUser("E1", "Employee", model.RoleEmployee)
	f.supervisor = mkUser("S1", "First Supervisor", model.RoleSupervisor)
	f.second = mkUser("S2", "Second Supervisor", model.RoleSupervisor)
	f.stranger = mkUser("X1", "Stranger", model.RoleEmployee)

	projects := repository.NewProjectRepository(db)
	mkProject := func(code, name string, active bool) model.Project {
		p := model.Project{Code: code, Name: name, IsActive: active}
		require.NoError(t, projects.Upsert(ctx, &p))
		return p
	}
	f.projectA = mkProject("A", "Alpha", true)
	f.projectB = mkProject("B", "Beta", true)
	f.inactive = mkProject("OLD", "Retired", false)

	f.directory = repository.NewDirectoryRepository(db)
	require.NoError(t, f.directory.Link(ctx, f.supervisor.ID, f.employee.ID))
	require.NoError(t, f.directory.Link(ctx, f.second.ID, f.employee.ID))

	tx := repository.NewTransactionManager(db)
	reportRepo := repository.NewReportRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	f.reports = NewReportService(tx, reportRepo, approvalRepo, commentRepo, projects, f.directory, auditRepo, f.gate, scales, f.events, log).(*reportService)
	f.reports.now = func() time.Time { return testNow }
	f.comments = NewCommentService(tx, reportRepo, commentRepo, approvalRepo, f.directory, auditRepo, f.events, log).(*commentService)
	f.comments.now = func() time.Time { return testNow }
	f.records = NewRecordService(tx, recordRepo, reportRepo, projects, auditRepo, f.gate, log).(*recordService)
	f.records.now = func() time.Time { return testNow }
	f.backfill = NewBackfillService(tx, reportRepo, approvalRepo, commentRepo, f.directory, auditRepo, log)
	return f
}

// submit sends one aggregate per project for testDate.
func (f *fixture) submit(t *testing.T, projects ...model.Project) *ReportResponse {
	t.Helper()
	req := SubmitReportRequest{Date: testDate}
	for _, p := range projects {
		req.Reports = append(req.Reports, SubmitProjectDTO{
			ProjectID:   p.ID.String(),
			Content:     "worked on " + p.Name,
			RecordCount: 1,
		})
	}
	res, err := f.reports.Submit(context.Background(), f.employee.ID, req)
	require.NoError(t, err)
	return res
}

func approvalOf(res *ReportResponse, supervisor model.User) *ApprovalResponse {
	for i := range res.Approvals {
		if res.Approvals[i].SupervisorID == supervisor.ID.String() {
			return &res.Approvals[i]
		}
	}
	return nil
}
