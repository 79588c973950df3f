package services

import (
	"errors"
	"fmt"
)

// Service-level sentinel errors. Handlers map these onto status codes and
// stable reason strings; internal detail never leaks past this boundary.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")

	// Identity
	ErrDuplicateIdentity = errors.New("username or email already registered")

	// Credential gate. Invalid credentials never distinguishes unknown
	// email from wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPendingApproval    = errors.New("faculty account is not approved")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")

	// Approval workflow
	ErrNotFaculty     = errors.New("account is not a faculty account")
	ErrAlreadyDecided = errors.New("approval already decided")

	// Enrollment
	ErrNotApprovedFaculty = errors.New("faculty account is not approved for this action")
	ErrDuplicateCode      = errors.New("subject code already exists")
	ErrSubjectInactive    = errors.New("subject is not active")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this subject")
	ErrCapacityExceeded   = errors.New("subject has reached maximum capacity")

	// Submission lifecycle
	ErrNotEnrolled         = errors.New("student is not enrolled in this subject")
	ErrDuplicateSubmission = errors.New("project already submitted for this subject")
	ErrFileRequired        = errors.New("project file is required")
	ErrNotOwner            = errors.New("account does not own the parent subject")
	ErrInvalidRubric       = errors.New("invalid rubric")
)

// CapacityError decorates ErrCapacityExceeded with the current seat state so
// the caller can decide whether a retry is worthwhile.
type CapacityError struct {
	SubjectID     uint
	EnrolledCount int
	MaxStudents   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("subject %d has reached maximum capacity (%d/%d)",
		e.SubjectID, e.EnrolledCount, e.MaxStudents)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// OrphanedFileError flags a submit failure that left a stored blob behind.
// Blob cleanup is the caller's responsibility; the engine only signals it.
type OrphanedFileError struct {
	FileRef string
	Err     error
}

func (e *OrphanedFileError) Error() string {
	return fmt.Sprintf("submission failed with orphaned file %s: %v", e.FileRef, e.Err)
}

func (e *OrphanedFileError) Unwrap() error { return e.Err }
