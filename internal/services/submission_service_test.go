package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/validator"
)

func newTestSubmissionService(repo *fakeRepository, pub EventPublisher) SubmissionService {
	if pub == nil {
		pub = NewNoopPublisher()
	}
	return NewSubmissionService(repo, testLogger(), validator.New(), pub)
}

func testFile(ref string) FileInfo {
	return FileInfo{
		Ref:  ref,
		Name: "project.zip",
		Size: 1024,
		Type: "application/zip",
	}
}

func submitRequest(subjectID uint) *SubmitProjectRequest {
	return &SubmitProjectRequest{
		SubjectID:   subjectID,
		Title:       "Final Project",
		Description: "A project about distributed systems",
	}
}

// enrolledFixture seeds a faculty, a subject and one enrolled student.
func enrolledFixture(t *testing.T, repo *fakeRepository) (*models.Account, *models.Subject, *models.Account) {
	t.Helper()
	faculty := seedApprovedFaculty(t, repo, "prof")
	subject := seedSubject(t, repo, faculty, "CS101", 30)
	student := seedStudent(t, repo, "alice")
	if _, err := repo.Subject().Enroll(context.Background(), nil, subject.ID, student.ID); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
	return faculty, subject, student
}

func TestSubmit(t *testing.T) {
	repo := newFakeRepository()
	pub := &recordingPublisher{}
	svc := newTestSubmissionService(repo, pub)
	ctx := context.Background()

	_, subject, student := enrolledFixture(t, repo)

	submission, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submission.Status != models.SubmissionSubmitted {
		t.Errorf("status = %s, want submitted", submission.Status)
	}
	if submission.FileRef != "blob-1" {
		t.Errorf("file ref = %s, want blob-1", submission.FileRef)
	}
	if submission.Mark != nil {
		t.Error("new submission must not carry a mark")
	}
	if len(pub.submissions) != 1 {
		t.Errorf("submission events = %d, want 1", len(pub.submissions))
	}
}

func TestSubmitFailuresReportOrphanedFile(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)
	ctx := context.Background()

	_, subject, student := enrolledFixture(t, repo)
	outsider := seedStudent(t, repo, "bob")

	tests := []struct {
		name    string
		student *models.Account
		req     *SubmitProjectRequest
		want    error
	}{
		{"not enrolled", outsider, submitRequest(subject.ID), ErrNotEnrolled},
		{"unknown subject", student, submitRequest(999), ErrNotFound},
		{"missing title", student, &SubmitProjectRequest{SubjectID: subject.ID, Description: "d"}, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.student, tt.req, testFile("blob-x"))
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var orphan *OrphanedFileError
			if !errors.As(err, &orphan) {
				t.Fatal("failure after the blob is stored must be an OrphanedFileError")
			}
			if orphan.FileRef != "blob-x" {
				t.Errorf("orphan ref = %s, want blob-x", orphan.FileRef)
			}
		})
	}
}

func TestSubmitWithoutFile(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)

	_, subject, student := enrolledFixture(t, repo)

	_, err := svc.Submit(context.Background(), student, submitRequest(subject.ID), FileInfo{})
	if !errors.Is(err, ErrFileRequired) {
		t.Errorf("error = %v, want ErrFileRequired", err)
	}
	var orphan *OrphanedFileError
	if errors.As(err, &orphan) {
		t.Error("no blob was stored, so no orphan should be reported")
	}
}

func TestSubmitDuplicate(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)
	ctx := context.Background()

	_, subject, student := enrolledFixture(t, repo)

	if _, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1")); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	_, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-2"))
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Errorf("error = %v, want ErrDuplicateSubmission", err)
	}
}

// One student firing parallel submits for the same subject: exactly one row.
func TestConcurrentDuplicateSubmission(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)
	ctx := context.Background()

	_, subject, student := enrolledFixture(t, repo)

	const attempts = 20
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, student, submitRequest(subject.ID), testFile(fmt.Sprintf("blob-%d", i)))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrDuplicateSubmission):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("accepted submissions = %d, want exactly 1", wins)
	}

	rows, err := repo.Submission().ListBySubject(ctx, nil, subject.ID)
	if err != nil {
		t.Fatalf("ListBySubject: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("stored submissions = %d, want 1", len(rows))
	}
}

func TestEvaluate(t *testing.T) {
	repo := newFakeRepository()
	pub := &recordingPublisher{}
	svc := newTestSubmissionService(repo, pub)
	ctx := context.Background()

	faculty, subject, student := enrolledFixture(t, repo)
	submission, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// The client-sent marks figure is display-only; the stored mark is the
	// rubric sum.
	bogus := 100
	evaluated, err := svc.Evaluate(ctx, faculty, submission.ID, &EvaluateRequest{
		Rubric: RubricRequest{Innovation: 20, Functionality: 15, Documentation: 10, Presentation: 20},
		Marks:  &bogus,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if evaluated.Status != models.SubmissionEvaluated {
		t.Errorf("status = %s, want evaluated", evaluated.Status)
	}
	if evaluated.Mark == nil || *evaluated.Mark != 65 {
		t.Errorf("mark = %v, want 65 (rubric sum)", evaluated.Mark)
	}
	if evaluated.EvaluatorID == nil || *evaluated.EvaluatorID != faculty.ID {
		t.Errorf("evaluator = %v, want %d", evaluated.EvaluatorID, faculty.ID)
	}
	if len(pub.evaluations) != 1 || pub.evaluations[0].Mark != 65 {
		t.Errorf("evaluation events = %+v, want one with mark 65", pub.evaluations)
	}
}

func TestEvaluateRubricBounds(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)
	ctx := context.Background()

	faculty, subject, student := enrolledFixture(t, repo)
	submission, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = svc.Evaluate(ctx, faculty, submission.ID, &EvaluateRequest{
		Rubric: RubricRequest{Innovation: 26, Functionality: 0, Documentation: 0, Presentation: 0},
	})
	if !errors.Is(err, ErrValidationFailed) && !errors.Is(err, ErrInvalidRubric) {
		t.Errorf("error = %v, want a rubric validation failure", err)
	}
}

func TestEvaluateOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)
	ctx := context.Background()

	_, subject, student := enrolledFixture(t, repo)
	submission, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	other := seedApprovedFaculty(t, repo, "other")
	req := &EvaluateRequest{Rubric: RubricRequest{Innovation: 10}}

	if _, err := svc.Evaluate(ctx, other, submission.ID, req); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner error = %v, want ErrNotOwner", err)
	}

	pending := seedFaculty(t, repo, "pending-prof")
	if _, err := svc.Evaluate(ctx, pending, submission.ID, req); !errors.Is(err, ErrNotApprovedFaculty) {
		t.Errorf("pending faculty error = %v, want ErrNotApprovedFaculty", err)
	}
}

func TestReEvaluateOverwrites(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)
	ctx := context.Background()

	faculty, subject, student := enrolledFixture(t, repo)
	submission, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.Evaluate(ctx, faculty, submission.ID, &EvaluateRequest{
		Rubric: RubricRequest{Innovation: 25, Functionality: 25, Documentation: 25, Presentation: 25},
	}); err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}

	corrected, err := svc.Evaluate(ctx, faculty, submission.ID, &EvaluateRequest{
		Rubric: RubricRequest{Innovation: 10, Functionality: 10, Documentation: 10, Presentation: 10},
	})
	if err != nil {
		t.Fatalf("re-Evaluate: %v", err)
	}
	if corrected.Mark == nil || *corrected.Mark != 40 {
		t.Errorf("corrected mark = %v, want 40", corrected.Mark)
	}
}

func TestMarkUnderReview(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)
	ctx := context.Background()

	faculty, subject, student := enrolledFixture(t, repo)
	submission, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	reviewed, err := svc.MarkUnderReview(ctx, faculty, submission.ID)
	if err != nil {
		t.Fatalf("MarkUnderReview: %v", err)
	}
	if reviewed.Status != models.SubmissionUnderReview {
		t.Errorf("status = %s, want under_review", reviewed.Status)
	}

	// Evaluation still works from under_review, but a graded submission
	// cannot drop back to under_review.
	if _, err := svc.Evaluate(ctx, faculty, submission.ID, &EvaluateRequest{
		Rubric: RubricRequest{Innovation: 10},
	}); err != nil {
		t.Fatalf("Evaluate from under_review: %v", err)
	}
	if _, err := svc.MarkUnderReview(ctx, faculty, submission.ID); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("review after evaluate error = %v, want ErrValidationFailed", err)
	}
}

func TestListBySubjectOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestSubmissionService(repo, nil)
	ctx := context.Background()

	faculty, subject, student := enrolledFixture(t, repo)
	if _, err := svc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rows, err := svc.ListBySubject(ctx, faculty, subject.ID)
	if err != nil {
		t.Fatalf("ListBySubject: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want 1", len(rows))
	}

	other := seedApprovedFaculty(t, repo, "other")
	if _, err := svc.ListBySubject(ctx, other, subject.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner error = %v, want ErrNotOwner", err)
	}
}
