package models

import (
	"time"

	"gorm.io/datatypes"
)

// AccountRole partitions the identity space. Roles are fixed at registration.
type AccountRole string

const (
	RoleStudent AccountRole = "student"
	RoleFaculty AccountRole = "faculty"
	RoleAdmin   AccountRole = "admin"
)

// ApprovalStatus is the faculty admission state machine. Students and admins
// are created approved; faculty start pending and an admin decision moves
// them to approved or rejected, both absorbing.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Account is a registered identity: student, faculty or admin.
type Account struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Username     string         `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Email        string         `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	Role         AccountRole    `json:"role" gorm:"size:20;not null;index"`
	Status       ApprovalStatus `json:"status" gorm:"size:20;not null;default:'pending';index"`
	Department   string         `json:"department" gorm:"size:100"`

	// Faculty only.
	FacultyID *string `json:"faculty_id,omitempty" gorm:"size:50"`

	// Student only. EnrolledSubjectCodes mirrors the enrollments table for
	// cheap profile reads; the table stays the source of truth.
	AcademicYear         string         `json:"academic_year,omitempty" gorm:"size:20"`
	EnrolledSubjectCodes datatypes.JSON `json:"enrolled_subject_codes,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// IsApprovedFaculty reports whether the account may own subjects and grade.
func (a *Account) IsApprovedFaculty() bool {
	return a.Role == RoleFaculty && a.Status == ApprovalApproved
}

// Decided reports whether an admin has already ruled on the account.
func (a *Account) Decided() bool {
	return a.Status == ApprovalApproved || a.Status == ApprovalRejected
}
