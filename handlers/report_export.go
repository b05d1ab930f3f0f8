package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"p9e.in/fieldreport/models"
	"p9e.in/fieldreport/pkg/apperr"
	"p9e.in/fieldreport/utils"
)

const (
	defaultExportDays = 14
	maxExportDays     = 93
	overtimeAfter     = 8.0
)

// Export godoc
// @Summary      Download a project's time cards as xlsx
// @Tags         timecards
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id    path   string  true   "project id"
// @Param        from  query  string  false  "first work date (YYYY-MM-DD)"
// @Param        to    query  string  false  "last work date (YYYY-MM-DD)"
// @Router       /api/v1/projects/{id}/timecards/export [get]
func (h *TimeCardHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	from, to, err := exportRange(r, h.now())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	ctx := r.Context()
	project, err := requireProject(h.db.WithContext(ctx), s.OrgID, projectID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	var cards []models.TimeCard
	err = activeChildren(h.db.WithContext(ctx), "Workers").
		Preload("Workers.Employee").
		Where("org_id = ? AND project_id = ? AND work_date BETWEEN ? AND ?", s.OrgID, projectID, from, to).
		Order("work_date, submitted_at").
		Find(&cards).Error
	if err != nil {
		writeAppError(w, r, apperr.FromDB(err, "time cards"))
		return
	}

	f, err := timeCardWorkbook(project, from, to, cards)
	if err != nil {
		h.log.Error("build workbook", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}
	defer f.Close()
	buffer, err := f.WriteToBuffer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to write Excel file")
		return
	}

	filename := fmt.Sprintf("timecards_%s_%s_%s.xlsx", exportName(project.Name), from, to)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// exportRange reads from/to, defaulting to the last two weeks
func exportRange(r *http.Request, now time.Time) (models.Date, models.Date, error) {
	q := r.URL.Query()
	to := models.NewDate(now)
	if v := q.Get("to"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return models.Date{}, models.Date{}, apperr.Validation("invalid to date")
		}
		to = d
	}
	from := models.NewDate(to.Time().AddDate(0, 0, -(defaultExportDays - 1)))
	if v := q.Get("from"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return models.Date{}, models.Date{}, apperr.Validation("invalid from date")
		}
		from = d
	}
	if from.Time().After(to.Time()) {
		return models.Date{}, models.Date{}, apperr.Validation("from is after to")
	}
	if to.Time().Sub(from.Time()) > maxExportDays*24*time.Hour {
		return models.Date{}, models.Date{}, apperr.Validation("range is limited to %d days", maxExportDays)
	}
	return from, to, nil
}

func timeCardWorkbook(project models.Project, from, to models.Date, cards []models.TimeCard) (*excelize.File, error) {
	f := excelize.NewFile()
	const detail, summary = "Time Cards", "Summary"
	if err := f.SetSheetName("Sheet1", detail); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summary); err != nil {
		return nil, err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	hoursStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 2})

	f.SetCellValue(detail, "A1", fmt.Sprintf("%s: time cards", project.Name))
	f.SetCellStyle(detail, "A1", "A1", titleStyle)
	f.SetRowHeight(detail, 1, 30)
	f.SetCellValue(detail, "A2", fmt.Sprintf("%s to %s, generated %s", from, to, time.Now().Format("2006-01-02 15:04")))

	headers := []string{"Work Date", "Employee", "Hours", "Cost Code", "Revision", "Submitted At"}
	for i, label := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(detail, cell, label)
		f.SetCellStyle(detail, cell, cell, headerStyle)
	}
	f.SetColWidth(detail, "A", "F", 18)
	f.SetColWidth(detail, "B", "B", 28)

	var entries []utils.HoursEntry
	row := 5
	for _, card := range cards {
		for _, wk := range card.Workers {
			name := wk.EmployeeID.String()
			if wk.Employee != nil {
				name = wk.Employee.FullName()
			}
			f.SetSheetRow(detail, fmt.Sprintf("A%d", row), &[]any{
				card.WorkDate.String(),
				name,
				wk.Hours,
				wk.CostCode,
				card.Revision,
				card.SubmittedAt.Time().Format("2006-01-02 15:04"),
			})
			f.SetCellStyle(detail, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), hoursStyle)
			entries = append(entries, utils.HoursEntry{
				EmployeeID: wk.EmployeeID.String(),
				Name:       name,
				Date:       card.WorkDate.Time(),
				Hours:      wk.Hours,
			})
			row++
		}
	}
	if row > 5 {
		f.AutoFilter(detail, fmt.Sprintf("A4:F%d", row-1), nil)
	}

	f.SetCellValue(summary, "A1", "Hours by employee")
	f.SetCellStyle(summary, "A1", "A1", titleStyle)
	for i, label := range []string{"Employee", "Days", "Hours", "Overtime"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(summary, cell, label)
		f.SetCellStyle(summary, cell, cell, headerStyle)
	}
	f.SetColWidth(summary, "A", "A", 28)
	row = 4
	for _, t := range utils.TotalsByEmployee(entries, overtimeAfter) {
		f.SetSheetRow(summary, fmt.Sprintf("A%d", row), &[]any{t.Name, t.Days, t.Hours, t.Overtime})
		row++
	}

	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.Hours)
	}
	stats := utils.CalculateStatistics(values)
	row++
	for _, kv := range []struct {
		label string
		value any
	}{
		{"Entries", stats.Count},
		{"Total hours", stats.Sum},
		{"Mean hours per entry", stats.Mean},
		{"Median", stats.Median},
		{"Longest day", stats.Max},
	} {
		f.SetSheetRow(summary, fmt.Sprintf("A%d", row), &[]any{kv.label, kv.value})
		row++
	}
	return f, nil
}

func exportName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "project"
	}
	return name
}
