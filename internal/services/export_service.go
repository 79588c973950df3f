package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportSubjectGrades renders every submission in the subject as an xlsx
// sheet. Only the owning faculty (or an admin) may export.
func (s *exportService) ExportSubjectGrades(ctx context.Context, faculty *models.Account, subjectID uint) ([]byte, string, error) {
	subject, err := s.repo.Subject().GetByID(ctx, nil, subjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to fetch subject: %w", err)
	}
	if subject.OwnerID != faculty.ID && faculty.Role != models.RoleAdmin {
		return nil, "", ErrNotOwner
	}

	submissions, err := s.repo.Submission().ListBySubject(ctx, nil, subjectID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list submissions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Grades"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Student", "Email", "Title", "Status", "Submitted At",
		"Innovation", "Functionality", "Documentation", "Presentation",
		"Total Marks", "Feedback", "Evaluated At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, sub := range submissions {
		values := []interface{}{
			sub.Student.Username,
			sub.Student.Email,
			sub.Title,
			string(sub.Status),
			sub.SubmittedAt.Format(time.RFC3339),
		}
		if sub.Rubric != nil {
			values = append(values,
				sub.Rubric.Innovation, sub.Rubric.Functionality,
				sub.Rubric.Documentation, sub.Rubric.Presentation)
		} else {
			values = append(values, "", "", "", "")
		}
		if sub.Mark != nil {
			values = append(values, *sub.Mark)
		} else {
			values = append(values, "")
		}
		if sub.Feedback != nil {
			values = append(values, *sub.Feedback)
		} else {
			values = append(values, "")
		}
		if sub.EvaluatedAt != nil {
			values = append(values, sub.EvaluatedAt.Format(time.RFC3339))
		} else {
			values = append(values, "")
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render grade sheet: %w", err)
	}

	filename := fmt.Sprintf("grades_%s_%s.xlsx", subject.SubjectCode, time.Now().Format("2006-01-02"))

	s.logger.Info("Grade sheet exported",
		"subject_id", subjectID, "rows", len(submissions), "by", faculty.ID)

	return buf.Bytes(), filename, nil
}
