package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportSubjectGrades(t *testing.T) {
	repo := newFakeRepository()
	subSvc := newTestSubmissionService(repo, nil)
	svc := NewExportService(repo, testLogger())
	ctx := context.Background()

	faculty, subject, student := enrolledFixture(t, repo)
	submission, err := subSvc.Submit(ctx, student, submitRequest(subject.ID), testFile("blob-1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := subSvc.Evaluate(ctx, faculty, submission.ID, &EvaluateRequest{
		Rubric: RubricRequest{Innovation: 20, Functionality: 15, Documentation: 10, Presentation: 20},
	}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	data, filename, err := svc.ExportSubjectGrades(ctx, faculty, subject.ID)
	if err != nil {
		t.Fatalf("ExportSubjectGrades: %v", err)
	}
	if !strings.HasPrefix(filename, "grades_CS101_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("filename = %s, want grades_CS101_<date>.xlsx", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open exported sheet: %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue("Grades", "A1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if header != "Student" {
		t.Errorf("A1 = %q, want Student", header)
	}

	name, _ := f.GetCellValue("Grades", "A2")
	if name != "alice" {
		t.Errorf("A2 = %q, want alice", name)
	}
	total, _ := f.GetCellValue("Grades", "J2")
	if total != "65" {
		t.Errorf("J2 = %q, want 65", total)
	}
}

func TestExportSubjectGradesOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc := NewExportService(repo, testLogger())
	ctx := context.Background()

	_, subject, _ := enrolledFixture(t, repo)
	other := seedApprovedFaculty(t, repo, "other")

	if _, _, err := svc.ExportSubjectGrades(ctx, other, subject.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("error = %v, want ErrNotOwner", err)
	}
	if _, _, err := svc.ExportSubjectGrades(ctx, other, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
