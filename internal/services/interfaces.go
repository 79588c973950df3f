package services

import (
	"context"
	"time"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Request shapes live with the validator so struct tags stay in one place.
type RegisterStudentRequest = validator.RegisterStudentRequest
type RegisterFacultyRequest = validator.RegisterFacultyRequest
type LoginRequest = validator.LoginRequest
type CreateSubjectRequest = validator.CreateSubjectRequest
type SubmitProjectRequest = validator.SubmitProjectRequest
type EvaluateRequest = validator.EvaluateRequest
type RubricRequest = validator.RubricRequest

// AuthResponse pairs an account with a freshly issued bearer token.
type AuthResponse struct {
	Account *models.Account `json:"account"`
	Token   string          `json:"token,omitempty"`
}

// FileInfo describes a blob already stored by the upload boundary. Only the
// reference and metadata reach the submission lifecycle.
type FileInfo struct {
	Ref  string
	Name string
	Size int64
	Type string
}

// ===== SERVICES =====

// AuthService is the credential gate plus the identity registration surface.
type AuthService interface {
	RegisterStudent(ctx context.Context, req *RegisterStudentRequest) (*AuthResponse, error)
	RegisterFaculty(ctx context.Context, req *RegisterFacultyRequest) (*models.Account, error)

	// Login fails identically for unknown email and wrong password, and
	// with ErrPendingApproval for correct credentials on un-approved
	// faculty. No token is ever issued to un-approved faculty.
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)

	// Authenticate verifies the token then re-fetches the account so a
	// status or role change takes effect on the next request.
	Authenticate(ctx context.Context, token string) (*models.Account, error)

	// Authorize is a pure role membership check.
	Authorize(account *models.Account, roles ...models.AccountRole) error

	// EnsureAdmin provisions the admin account at startup. Idempotent:
	// when the email already belongs to an admin, that account is
	// returned untouched.
	EnsureAdmin(ctx context.Context, username, email, password string) (*models.Account, error)
}

// ApprovalService transitions faculty accounts through the admin decision
// state machine; approved and rejected are absorbing.
type ApprovalService interface {
	ListPending(ctx context.Context) ([]*models.Account, error)
	Approve(ctx context.Context, accountID uint) (*models.Account, error)
	Reject(ctx context.Context, accountID uint) (*models.Account, error)
}

// SubjectService creates subjects and manages capacity-bounded enrollment.
type SubjectService interface {
	Create(ctx context.Context, owner *models.Account, req *CreateSubjectRequest) (*models.Subject, error)
	Enroll(ctx context.Context, student *models.Account, subjectID uint) (*models.Subject, error)
	Deactivate(ctx context.Context, owner *models.Account, subjectID uint) (*models.Subject, error)

	ListAvailable(ctx context.Context) ([]*models.Subject, error)
	ListByFaculty(ctx context.Context, facultyID uint) ([]*models.Subject, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.Subject, error)
}

// SubmissionService owns the project submission and evaluation lifecycle.
type SubmissionService interface {
	Submit(ctx context.Context, student *models.Account, req *SubmitProjectRequest, file FileInfo) (*models.Submission, error)
	Evaluate(ctx context.Context, faculty *models.Account, submissionID uint, req *EvaluateRequest) (*models.Submission, error)
	MarkUnderReview(ctx context.Context, faculty *models.Account, submissionID uint) (*models.Submission, error)

	ListByFaculty(ctx context.Context, facultyID uint) ([]*models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.Submission, error)
	ListBySubject(ctx context.Context, faculty *models.Account, subjectID uint) ([]*models.Submission, error)
}

// ExportService renders faculty-facing grade sheets.
type ExportService interface {
	// ExportSubjectGrades returns an xlsx document of every submission in
	// the subject; only the owning faculty may export.
	ExportSubjectGrades(ctx context.Context, faculty *models.Account, subjectID uint) ([]byte, string, error)
}

// ===== DOMAIN EVENTS =====

// Event topics published after committed mutations. Delivery is best-effort;
// a publish failure never rolls back the mutation it describes.
const (
	TopicEnrollments      = "coursework.enrollments"
	TopicSubmissions      = "coursework.submissions"
	TopicEvaluations      = "coursework.evaluations"
	TopicFacultyDecisions = "coursework.faculty-decisions"
)

type EnrollmentEvent struct {
	SubjectID   uint      `json:"subject_id"`
	SubjectCode string    `json:"subject_code"`
	StudentID   uint      `json:"student_id"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

type SubmissionEvent struct {
	SubmissionID uint      `json:"submission_id"`
	SubjectID    uint      `json:"subject_id"`
	StudentID    uint      `json:"student_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type EvaluationEvent struct {
	SubmissionID uint      `json:"submission_id"`
	SubjectID    uint      `json:"subject_id"`
	EvaluatorID  uint      `json:"evaluator_id"`
	Mark         int       `json:"mark"`
	EvaluatedAt  time.Time `json:"evaluated_at"`
}

type FacultyDecisionEvent struct {
	AccountID uint                  `json:"account_id"`
	Username  string                `json:"username"`
	Decision  models.ApprovalStatus `json:"decision"`
	DecidedAt time.Time             `json:"decided_at"`
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishEnrollment(ctx context.Context, event EnrollmentEvent)
	PublishSubmission(ctx context.Context, event SubmissionEvent)
	PublishEvaluation(ctx context.Context, event EvaluationEvent)
	PublishFacultyDecision(ctx context.Context, event FacultyDecisionEvent)
	Close() error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	Approval() ApprovalService
	Subject() SubjectService
	Submission() SubmissionService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
