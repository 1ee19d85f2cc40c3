package service

import (
	"context"
	"fmt"
	"io"

	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	progressSheet = "Progress"
	summarySheet  = "Summary"
)

// ReportService はメンター向けの進捗レポートを出力します
type ReportService interface {
	// ExportProgress は配下の学生全員の進捗を xlsx で w に書き出す
	ExportProgress(ctx context.Context, mentorID uuid.UUID, w io.Writer) error
}

type reportService struct {
	db           *gorm.DB
	progressRepo repository.ProgressRepository
}

func NewReportService(db *gorm.DB, progressRepo repository.ProgressRepository) ReportService {
	return &reportService{db: db, progressRepo: progressRepo}
}

func (s *reportService) ExportProgress(ctx context.Context, mentorID uuid.UUID, w io.Writer) error {
	logger := middleware.GetLogger(ctx)

	rows, err := s.progressRepo.ListRowsByMentor(ctx, s.db, mentorID)
	if err != nil {
		return model.NewInternalError("", err)
	}

	f, err := buildProgressWorkbook(rows)
	if err != nil {
		logger.Error("Failed to build progress workbook", "error", err)
		return model.NewInternalError("Failed to build the report.", err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		logger.Error("Failed to write progress workbook", "error", err)
		return model.NewInternalError("Failed to write the report.", err)
	}
	logger.Info("Progress report exported", "mentor_id", mentorID, "rows", len(rows))
	return nil
}

type studentSummary struct {
	username  string
	topics    int
	completed int
	tests     int
	scoreSum  float64
}

func buildProgressWorkbook(rows []model.StudentProgressRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", progressSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	write := func(sheet string, row int, values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	progressHeader := []interface{}{"Student", "Subject", "Unit", "Topic", "Completed", "Test taken", "Score", "Difficulty", "Updated at"}
	if err := write(progressSheet, 1, progressHeader); err != nil {
		f.Close()
		return nil, err
	}

	summaries := map[uuid.UUID]*studentSummary{}
	var order []uuid.UUID
	for i, r := range rows {
		var score, difficulty interface{} = "", ""
		if r.TestScore != nil {
			score = *r.TestScore
		}
		if r.Difficulty != nil {
			difficulty = *r.Difficulty
		}
		values := []interface{}{r.Username, r.SubjectName, r.Unit, r.TopicName, yesNo(r.Completed), yesNo(r.TestTaken), score, difficulty, r.UpdatedAt}
		if err := write(progressSheet, i+2, values); err != nil {
			f.Close()
			return nil, err
		}

		sum, ok := summaries[r.StudentID]
		if !ok {
			sum = &studentSummary{username: r.Username}
			summaries[r.StudentID] = sum
			order = append(order, r.StudentID)
		}
		sum.topics++
		if r.Completed {
			sum.completed++
		}
		if r.TestTaken && r.TestScore != nil {
			sum.tests++
			sum.scoreSum += *r.TestScore
		}
	}

	if err := write(summarySheet, 1, []interface{}{"Student", "Topics tracked", "Completed", "Tests taken", "Average score"}); err != nil {
		f.Close()
		return nil, err
	}
	for i, id := range order {
		sum := summaries[id]
		var avg interface{} = ""
		if sum.tests > 0 {
			avg = sum.scoreSum / float64(sum.tests)
		}
		if err := write(summarySheet, i+2, []interface{}{sum.username, sum.topics, sum.completed, sum.tests, avg}); err != nil {
			f.Close()
			return nil, err
		}
	}

	for sheet, lastCol := range map[string]string{progressSheet: "I", summarySheet: "E"} {
		if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s1", lastCol), header); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
