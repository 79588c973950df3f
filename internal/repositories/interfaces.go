package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/UMS-P-2025/coursework-service/internal/models"
)

// AccountRepository owns the identity records and the uniqueness of
// username/email. The tx parameter, when non-nil, scopes the call to an
// enclosing transaction.
type AccountRepository interface {
	Create(ctx context.Context, tx *gorm.DB, account *models.Account) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Account, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Account, error)

	// ListPendingFaculty returns pending faculty accounts oldest first.
	ListPendingFaculty(ctx context.Context, tx *gorm.DB) ([]*models.Account, error)

	// SetStatusIfPending transitions a pending faculty account in one
	// conditional write. It returns false when no pending faculty row
	// matched; callers classify the miss via GetByID.
	SetStatusIfPending(ctx context.Context, tx *gorm.DB, id uint, status models.ApprovalStatus) (bool, error)

	// AddEnrolledSubjectCode appends a subject code to a student account's
	// mirror list. Best-effort bookkeeping after a committed enrollment.
	AddEnrolledSubjectCode(ctx context.Context, tx *gorm.DB, studentID uint, code string) error
}

// SubjectRepository owns subjects and seats.
type SubjectRepository interface {
	Create(ctx context.Context, tx *gorm.DB, subject *models.Subject) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Subject, error)

	// Enroll performs the check-and-append as a single atomic step with
	// respect to concurrent enrollments on the same subject: duplicate
	// check first, then capacity, then insert, all under a row lock.
	Enroll(ctx context.Context, tx *gorm.DB, subjectID, studentID uint) (*models.Subject, error)

	ListActive(ctx context.Context, tx *gorm.DB) ([]*models.Subject, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Subject, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Subject, error)

	SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error
}

// SubmissionRepository owns project submissions. Create relies on the
// composite (subject_id, student_id) unique index for race-safe uniqueness.
type SubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error

	ListBySubject(ctx context.Context, tx *gorm.DB, subjectID uint) ([]*models.Submission, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Submission, error)
	ListByFacultySubjects(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Submission, error)
}
