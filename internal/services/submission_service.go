package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
	"github.com/UMS-P-2025/coursework-service/internal/validator"
)

type submissionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher EventPublisher
}

func NewSubmissionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher EventPublisher) SubmissionService {
	return &submissionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Submit records a student's project. The file is already in the blob store
// when this runs, so every failure is reported as an OrphanedFileError
// carrying the reference for the caller to clean up. Uniqueness per
// (subject, student) is enforced by the storage layer, not checked here.
func (s *submissionService) Submit(ctx context.Context, student *models.Account, req *SubmitProjectRequest, file FileInfo) (*models.Submission, error) {
	if file.Ref == "" {
		return nil, ErrFileRequired
	}
	orphan := func(err error) error {
		return &OrphanedFileError{FileRef: file.Ref, Err: err}
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, orphan(fmt.Errorf("%w: %v", ErrValidationFailed, err))
	}
	if student.Role != models.RoleStudent {
		return nil, orphan(ErrForbidden)
	}

	subject, err := s.repo.Subject().GetByID(ctx, nil, req.SubjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, orphan(ErrNotFound)
		}
		return nil, orphan(fmt.Errorf("failed to fetch subject: %w", err))
	}
	if !subject.IsEnrolled(student.ID) {
		return nil, orphan(ErrNotEnrolled)
	}

	submission := &models.Submission{
		SubjectID:   subject.ID,
		StudentID:   student.ID,
		Title:       req.Title,
		Description: req.Description,
		FileRef:     file.Ref,
		FileName:    file.Name,
		FileSize:    file.Size,
		FileType:    file.Type,
		Status:      models.SubmissionSubmitted,
		SubmittedAt: time.Now(),
	}

	if err := s.repo.Submission().Create(ctx, nil, submission); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, orphan(ErrDuplicateSubmission)
		}
		return nil, orphan(fmt.Errorf("failed to create submission: %w", err))
	}

	s.logger.Info("Project submitted",
		"submission_id", submission.ID, "subject_id", subject.ID,
		"student_id", student.ID, "file_ref", file.Ref)

	s.publisher.PublishSubmission(ctx, SubmissionEvent{
		SubmissionID: submission.ID,
		SubjectID:    subject.ID,
		StudentID:    student.ID,
		SubmittedAt:  submission.SubmittedAt,
	})

	return submission, nil
}

// Evaluate grades a submission. The persisted mark is always the rubric sum;
// any marks figure sent by the client is ignored. Re-evaluating an already
// evaluated submission overwrites the previous grade.
func (s *submissionService) Evaluate(ctx context.Context, faculty *models.Account, submissionID uint, req *EvaluateRequest) (*models.Submission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if err := s.validator.ValidateRubric(&req.Rubric); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRubric, err)
	}

	submission, err := s.ownedSubmission(ctx, faculty, submissionID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateSubmissionTransition(submission.Status, models.SubmissionEvaluated); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	rubric := models.Rubric{
		Innovation:    req.Rubric.Innovation,
		Functionality: req.Rubric.Functionality,
		Documentation: req.Rubric.Documentation,
		Presentation:  req.Rubric.Presentation,
	}
	mark := rubric.Total()
	now := time.Now()

	submission.Status = models.SubmissionEvaluated
	submission.Rubric = &rubric
	submission.Mark = &mark
	submission.Feedback = req.Feedback
	submission.EvaluatorID = &faculty.ID
	submission.EvaluatedAt = &now
	submission.UpdatedAt = now

	if err := s.repo.Submission().Update(ctx, nil, submission); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}

	s.logger.Info("Submission evaluated",
		"submission_id", submission.ID, "evaluator_id", faculty.ID, "mark", mark)

	s.publisher.PublishEvaluation(ctx, EvaluationEvent{
		SubmissionID: submission.ID,
		SubjectID:    submission.SubjectID,
		EvaluatorID:  faculty.ID,
		Mark:         mark,
		EvaluatedAt:  now,
	})

	return submission, nil
}

// MarkUnderReview is an advisory step faculty can set while grading; it is
// never entered automatically.
func (s *submissionService) MarkUnderReview(ctx context.Context, faculty *models.Account, submissionID uint) (*models.Submission, error) {
	submission, err := s.ownedSubmission(ctx, faculty, submissionID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateSubmissionTransition(submission.Status, models.SubmissionUnderReview); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	submission.Status = models.SubmissionUnderReview
	submission.UpdatedAt = time.Now()

	if err := s.repo.Submission().Update(ctx, nil, submission); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update submission status: %w", err)
	}

	s.logger.Info("Submission marked under review",
		"submission_id", submission.ID, "faculty_id", faculty.ID)

	return submission, nil
}

func (s *submissionService) ListByFaculty(ctx context.Context, facultyID uint) ([]*models.Submission, error) {
	submissions, err := s.repo.Submission().ListByFacultySubjects(ctx, nil, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list faculty submissions: %w", err)
	}
	return submissions, nil
}

func (s *submissionService) ListByStudent(ctx context.Context, studentID uint) ([]*models.Submission, error) {
	submissions, err := s.repo.Submission().ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student submissions: %w", err)
	}
	return submissions, nil
}

// ListBySubject returns every submission in a subject the faculty owns.
func (s *submissionService) ListBySubject(ctx context.Context, faculty *models.Account, subjectID uint) ([]*models.Submission, error) {
	subject, err := s.repo.Subject().GetByID(ctx, nil, subjectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch subject: %w", err)
	}
	if subject.OwnerID != faculty.ID && faculty.Role != models.RoleAdmin {
		return nil, ErrNotOwner
	}

	submissions, err := s.repo.Submission().ListBySubject(ctx, nil, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// ownedSubmission loads the submission and verifies the caller owns its
// parent subject. Admins may also act.
func (s *submissionService) ownedSubmission(ctx context.Context, faculty *models.Account, submissionID uint) (*models.Submission, error) {
	if !faculty.IsApprovedFaculty() && faculty.Role != models.RoleAdmin {
		return nil, ErrNotApprovedFaculty
	}

	submission, err := s.repo.Submission().GetByID(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}

	if submission.Subject.OwnerID != faculty.ID && faculty.Role != models.RoleAdmin {
		return nil, ErrNotOwner
	}
	return submission, nil
}
