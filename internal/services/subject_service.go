package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
	"github.com/UMS-P-2025/coursework-service/internal/validator"
)

const (
	defaultCredits     = 3
	defaultMaxStudents = 50
)

type subjectService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher EventPublisher
}

func NewSubjectService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher EventPublisher) SubjectService {
	return &subjectService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Create registers a subject under the owning faculty account. The owner's
// approval status is re-read by the caller's auth layer on every request, so
// a rejected faculty cannot reach this path with a stale token.
func (s *subjectService) Create(ctx context.Context, owner *models.Account, req *CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if !owner.IsApprovedFaculty() {
		return nil, ErrNotApprovedFaculty
	}

	code := strings.ToUpper(strings.TrimSpace(req.SubjectCode))

	// Friendly pre-check; the unique index still backstops a racing create.
	if _, err := s.repo.Subject().GetByCode(ctx, nil, code); err == nil {
		return nil, ErrDuplicateCode
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check subject code: %w", err)
	}

	credits := req.Credits
	if credits == 0 {
		credits = defaultCredits
	}
	maxStudents := req.MaxStudents
	if maxStudents == 0 {
		maxStudents = defaultMaxStudents
	}
	department := req.Department
	if department == "" {
		department = owner.Department
	}

	subject := &models.Subject{
		SubjectCode:  code,
		SubjectName:  req.SubjectName,
		Description:  req.Description,
		Department:   department,
		Credits:      credits,
		MaxStudents:  maxStudents,
		OwnerID:      owner.ID,
		FacultyName:  owner.Username,
		IsActive:     true,
		AcademicYear: defaultAcademicYear,
	}

	if err := s.repo.Subject().Create(ctx, nil, subject); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}

	s.logger.Info("Subject created",
		"subject_id", subject.ID, "subject_code", subject.SubjectCode, "owner_id", owner.ID)

	return subject, nil
}

// Enroll grants the student a seat. The atomicity lives in the storage layer;
// this level translates errors and does the post-commit bookkeeping.
func (s *subjectService) Enroll(ctx context.Context, student *models.Account, subjectID uint) (*models.Subject, error) {
	if student.Role != models.RoleStudent {
		return nil, ErrForbidden
	}

	subject, err := s.repo.Subject().Enroll(ctx, nil, subjectID, student.ID)
	if err != nil {
		switch {
		case repositories.IsNotFoundError(err):
			return nil, ErrNotFound
		case errors.Is(err, repositories.ErrSubjectInactive):
			return nil, ErrSubjectInactive
		case errors.Is(err, repositories.ErrAlreadyEnrolled):
			return nil, ErrAlreadyEnrolled
		case errors.Is(err, repositories.ErrCapacityExceeded):
			// Re-read the seat state for the caller's message; the failed
			// enrollment itself changed nothing.
			if full, getErr := s.repo.Subject().GetByID(ctx, nil, subjectID); getErr == nil {
				return nil, &CapacityError{
					SubjectID:     subjectID,
					EnrolledCount: full.EnrolledCount,
					MaxStudents:   full.MaxStudents,
				}
			}
			return nil, ErrCapacityExceeded
		}
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	// Mirror the code onto the student profile. The enrollment is already
	// committed; a mirror failure is logged, not surfaced.
	if err := s.repo.Account().AddEnrolledSubjectCode(ctx, nil, student.ID, subject.SubjectCode); err != nil {
		s.logger.Warn("Failed to mirror enrolled subject code",
			"student_id", student.ID, "subject_code", subject.SubjectCode, "error", err)
	}

	s.logger.Info("Student enrolled",
		"subject_id", subject.ID, "subject_code", subject.SubjectCode,
		"student_id", student.ID, "enrolled_count", subject.EnrolledCount)

	s.publisher.PublishEnrollment(ctx, EnrollmentEvent{
		SubjectID:   subject.ID,
		SubjectCode: subject.SubjectCode,
		StudentID:   student.ID,
		EnrolledAt:  time.Now(),
	})

	return subject, nil
}

// Deactivate closes a subject to new enrollments. Existing seats and
// submissions are untouched.
func (s *subjectService) Deactivate(ctx context.Context, owner *models.Account, subjectID uint) (*models.Subject, error) {
	subject, err := s.repo.Subject().GetByID(ctx, nil, subjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch subject: %w", err)
	}
	if subject.OwnerID != owner.ID && owner.Role != models.RoleAdmin {
		return nil, ErrNotOwner
	}

	if err := s.repo.Subject().SetActive(ctx, nil, subjectID, false); err != nil {
		return nil, fmt.Errorf("failed to deactivate subject: %w", err)
	}
	subject.IsActive = false

	s.logger.Info("Subject deactivated", "subject_id", subjectID, "by", owner.ID)

	return subject, nil
}

func (s *subjectService) ListAvailable(ctx context.Context) ([]*models.Subject, error) {
	subjects, err := s.repo.Subject().ListActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list available subjects: %w", err)
	}
	return subjects, nil
}

func (s *subjectService) ListByFaculty(ctx context.Context, facultyID uint) ([]*models.Subject, error) {
	subjects, err := s.repo.Subject().ListByOwner(ctx, nil, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list faculty subjects: %w", err)
	}
	return subjects, nil
}

func (s *subjectService) ListByStudent(ctx context.Context, studentID uint) ([]*models.Subject, error) {
	subjects, err := s.repo.Subject().ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student subjects: %w", err)
	}
	return subjects, nil
}
