package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/repositories"
)

// fakeRepository is an in-memory Repository with the same atomicity
// guarantees as the Postgres implementation: enroll and submission create are
// single critical sections, so the concurrency behavior under test is real.
type fakeRepository struct {
	mu sync.Mutex

	accounts    map[uint]*models.Account
	subjects    map[uint]*models.Subject
	enrollments []models.Enrollment
	submissions map[uint]*models.Submission

	nextAccountID    uint
	nextSubjectID    uint
	nextEnrollmentID uint
	nextSubmissionID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		accounts:    make(map[uint]*models.Account),
		subjects:    make(map[uint]*models.Subject),
		submissions: make(map[uint]*models.Submission),
	}
}

func (f *fakeRepository) Account() repositories.AccountRepository       { return (*fakeAccounts)(f) }
func (f *fakeRepository) Subject() repositories.SubjectRepository       { return (*fakeSubjects)(f) }
func (f *fakeRepository) Submission() repositories.SubmissionRepository { return (*fakeSubmissions)(f) }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ----- accounts -----

type fakeAccounts fakeRepository

func (f *fakeAccounts) Create(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return repositories.ErrDuplicateKey
		}
	}
	f.nextAccountID++
	account.ID = f.nextAccountID
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	cp := *account
	f.accounts[account.ID] = &cp
	return nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Email == email {
			cp := *account
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAccounts) ListPendingFaculty(ctx context.Context, tx *gorm.DB) ([]*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Account
	for _, account := range f.accounts {
		if account.Role == models.RoleFaculty && account.Status == models.ApprovalPending {
			cp := *account
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAccounts) SetStatusIfPending(ctx context.Context, tx *gorm.DB, id uint, status models.ApprovalStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok || account.Role != models.RoleFaculty || account.Status != models.ApprovalPending {
		return false, nil
	}
	account.Status = status
	return true, nil
}

func (f *fakeAccounts) AddEnrolledSubjectCode(ctx context.Context, tx *gorm.DB, studentID uint, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[studentID]
	if !ok {
		return repositories.ErrNotFound
	}
	var codes []string
	if len(account.EnrolledSubjectCodes) > 0 {
		if err := json.Unmarshal(account.EnrolledSubjectCodes, &codes); err != nil {
			return err
		}
	}
	for _, c := range codes {
		if c == code {
			return nil
		}
	}
	codes = append(codes, code)
	raw, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	account.EnrolledSubjectCodes = raw
	return nil
}

// ----- subjects -----

type fakeSubjects fakeRepository

func (f *fakeSubjects) Create(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.subjects {
		if existing.SubjectCode == subject.SubjectCode {
			return repositories.ErrDuplicateKey
		}
	}
	f.nextSubjectID++
	subject.ID = f.nextSubjectID
	cp := *subject
	f.subjects[subject.ID] = &cp
	return nil
}

func (f *fakeSubjects) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getLocked(id)
}

func (f *fakeSubjects) getLocked(id uint) (*models.Subject, error) {
	subject, ok := f.subjects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *subject
	for _, e := range f.enrollments {
		if e.SubjectID == id {
			cp.Enrollments = append(cp.Enrollments, e)
		}
	}
	cp.EnrolledCount = len(cp.Enrollments)
	return &cp, nil
}

func (f *fakeSubjects) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, subject := range f.subjects {
		if subject.SubjectCode == code {
			return f.getLocked(id)
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSubjects) Enroll(ctx context.Context, tx *gorm.DB, subjectID, studentID uint) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subject, ok := f.subjects[subjectID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !subject.IsActive {
		return nil, repositories.ErrSubjectInactive
	}

	count := 0
	for _, e := range f.enrollments {
		if e.SubjectID == subjectID {
			if e.StudentID == studentID {
				return nil, repositories.ErrAlreadyEnrolled
			}
			count++
		}
	}
	if count >= subject.MaxStudents {
		return nil, repositories.ErrCapacityExceeded
	}

	f.nextEnrollmentID++
	f.enrollments = append(f.enrollments, models.Enrollment{
		ID:         f.nextEnrollmentID,
		SubjectID:  subjectID,
		StudentID:  studentID,
		EnrolledAt: time.Now(),
	})

	cp := *subject
	cp.EnrolledCount = count + 1
	return &cp, nil
}

func (f *fakeSubjects) ListActive(ctx context.Context, tx *gorm.DB) ([]*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Subject
	for id, subject := range f.subjects {
		if subject.IsActive {
			cp, _ := f.getLocked(id)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectCode < out[j].SubjectCode })
	return out, nil
}

func (f *fakeSubjects) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Subject
	for id, subject := range f.subjects {
		if subject.OwnerID == ownerID {
			cp, _ := f.getLocked(id)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectCode < out[j].SubjectCode })
	return out, nil
}

func (f *fakeSubjects) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Subject
	for _, e := range f.enrollments {
		if e.StudentID == studentID {
			if subject, ok := f.subjects[e.SubjectID]; ok {
				cp := *subject
				out = append(out, &cp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectCode < out[j].SubjectCode })
	return out, nil
}

func (f *fakeSubjects) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	subject, ok := f.subjects[id]
	if !ok {
		return repositories.ErrNotFound
	}
	subject.IsActive = active
	return nil
}

// ----- submissions -----

type fakeSubmissions fakeRepository

func (f *fakeSubmissions) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.submissions {
		if existing.SubjectID == submission.SubjectID && existing.StudentID == submission.StudentID {
			return repositories.ErrDuplicateKey
		}
	}
	f.nextSubmissionID++
	submission.ID = f.nextSubmissionID
	cp := *submission
	f.submissions[submission.ID] = &cp
	return nil
}

func (f *fakeSubmissions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	submission, ok := f.submissions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *submission
	if subject, ok := f.subjects[submission.SubjectID]; ok {
		cp.Subject = *subject
	}
	return &cp, nil
}

func (f *fakeSubmissions) Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.submissions[submission.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	existing.Status = submission.Status
	existing.Rubric = submission.Rubric
	existing.Mark = submission.Mark
	existing.Feedback = submission.Feedback
	existing.EvaluatorID = submission.EvaluatorID
	existing.EvaluatedAt = submission.EvaluatedAt
	existing.UpdatedAt = submission.UpdatedAt
	return nil
}

func (f *fakeSubmissions) ListBySubject(ctx context.Context, tx *gorm.DB, subjectID uint) ([]*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Submission
	for _, submission := range f.submissions {
		if submission.SubjectID == subjectID {
			cp := *submission
			if student, ok := f.accounts[submission.StudentID]; ok {
				cp.Student = *student
			}
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSubmissions) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Submission
	for _, submission := range f.submissions {
		if submission.StudentID == studentID {
			cp := *submission
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSubmissions) ListByFacultySubjects(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Submission
	for _, submission := range f.submissions {
		if subject, ok := f.subjects[submission.SubjectID]; ok && subject.OwnerID == ownerID {
			cp := *submission
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ----- publisher -----

type recordingPublisher struct {
	mu          sync.Mutex
	enrollments []EnrollmentEvent
	submissions []SubmissionEvent
	evaluations []EvaluationEvent
	decisions   []FacultyDecisionEvent
}

func (p *recordingPublisher) PublishEnrollment(_ context.Context, e EnrollmentEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enrollments = append(p.enrollments, e)
}

func (p *recordingPublisher) PublishSubmission(_ context.Context, e SubmissionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submissions = append(p.submissions, e)
}

func (p *recordingPublisher) PublishEvaluation(_ context.Context, e EvaluationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluations = append(p.evaluations, e)
}

func (p *recordingPublisher) PublishFacultyDecision(_ context.Context, e FacultyDecisionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decisions = append(p.decisions, e)
}

func (p *recordingPublisher) Close() error { return nil }
