package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create inserts the submission. The (subject_id, student_id) unique index is
// the race-safe uniqueness check: a concurrent duplicate insert loses with
// ErrDuplicateKey rather than producing a second row.
func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	if err := s.getDB(tx).WithContext(ctx).Create(submission).Error; err != nil {
		return repositories.TranslateError(err)
	}
	return nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Subject").
		First(&submission, id).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &submission, nil
}

// Update overwrites the evaluation fields. Submissions are append-only except
// for evaluation, so only those columns are written.
func (s *SubmissionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	updates := map[string]interface{}{
		"status":       submission.Status,
		"mark":         submission.Mark,
		"feedback":     submission.Feedback,
		"evaluator_id": submission.EvaluatorID,
		"evaluated_at": submission.EvaluatedAt,
		"updated_at":   submission.UpdatedAt,
	}
	if submission.Rubric != nil {
		updates["rubric_innovation"] = submission.Rubric.Innovation
		updates["rubric_functionality"] = submission.Rubric.Functionality
		updates["rubric_documentation"] = submission.Rubric.Documentation
		updates["rubric_presentation"] = submission.Rubric.Presentation
	}

	res := s.getDB(tx).WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", submission.ID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update submission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *SubmissionPostgreSQL) ListBySubject(ctx context.Context, tx *gorm.DB, subjectID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Student").
		Where("subject_id = ?", subjectID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions by subject: %w", err)
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Subject").
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions by student: %w", err)
	}
	return submissions, nil
}

// ListByFacultySubjects returns every submission across subjects owned by the
// given faculty account, newest first.
func (s *SubmissionPostgreSQL) ListByFacultySubjects(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Subject").
		Preload("Student").
		Joins("JOIN subjects ON subjects.id = submissions.subject_id").
		Where("subjects.owner_id = ?", ownerID).
		Order("submissions.submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions by faculty: %w", err)
	}
	return submissions, nil
}
