package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Reports"

var exportHeader = []interface{}{
	"Employee No", "Employee", "Date", "Status", "Project", "Content",
	"AI Content", "Records", "Minutes", "Average Rating", "My Rating", "My Feedback",
}

// ExportService renders a supervisor's view of one date as a spreadsheet.
type ExportService interface {
	ExportDate(ctx context.Context, supervisorID uuid.UUID, date string) ([]byte, error)
}

type exportService struct {
	reports ReportService
}

func NewExportService(reports ReportService) ExportService {
	return &exportService{reports: reports}
}

// ExportDate writes one row per submitted project aggregate.
func (s *exportService) ExportDate(ctx context.Context, supervisorID uuid.UUID, date string) ([]byte, error) {
	reports, err := s.reports.ListForSupervisor(ctx, supervisorID, date)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(exportSheet, 1, 1, style)
	}
	_ = f.SetColWidth(exportSheet, "A", "E", 16)
	_ = f.SetColWidth(exportSheet, "F", "G", 60)

	row := 2
	sid := supervisorID.String()
	for _, r := range reports {
		var avg interface{} = ""
		if r.AverageRating != nil {
			avg = *r.AverageRating
		}
		var myRating interface{} = ""
		myFeedback := ""
		for _, a := range r.Approvals {
			if a.SupervisorID == sid && a.Rating != nil {
				myRating = *a.Rating
				myFeedback = a.Feedback
			}
		}

		for _, p := range r.Projects {
			var minutes interface{} = ""
			if p.TotalExecutionMinutes != nil {
				minutes = *p.TotalExecutionMinutes
			}
			aiContent := ""
			if p.AIContent != nil {
				aiContent = *p.AIContent
			}
			values := []interface{}{
				r.EmployeeNo, r.EmployeeName, r.Date, r.Status, p.ProjectName, p.Content,
				aiContent, p.RecordCount, minutes, avg, myRating, myFeedback,
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}
