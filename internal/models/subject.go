package models

import "time"

// Subject is a course offering owned by one approved faculty account.
type Subject struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	SubjectCode string  `json:"subject_code" gorm:"size:20;not null;uniqueIndex"`
	SubjectName string  `json:"subject_name" gorm:"size:200;not null"`
	Description *string `json:"description,omitempty" gorm:"size:1000"`
	Department  string  `json:"department" gorm:"size:100"`
	Credits     int     `json:"credits" gorm:"not null;default:3"`
	MaxStudents int     `json:"max_students" gorm:"not null"`

	OwnerID     uint    `json:"owner_id" gorm:"not null;index"`
	Owner       Account `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	FacultyName string  `json:"faculty_name" gorm:"size:100"`

	IsActive     bool   `json:"is_active" gorm:"not null;default:true;index"`
	AcademicYear string `json:"academic_year" gorm:"size:20"`

	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:SubjectID"`

	// EnrolledCount is derived from the enrollments table; never persisted.
	EnrolledCount int `json:"enrolled_count" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subject) TableName() string {
	return "subjects"
}

// HasSeats reports whether the derived count leaves room. Advisory only; the
// storage layer re-checks under a row lock.
func (s *Subject) HasSeats() bool {
	return s.EnrolledCount < s.MaxStudents
}

// IsEnrolled scans the preloaded enrollments for the given student.
func (s *Subject) IsEnrolled(studentID uint) bool {
	for _, e := range s.Enrollments {
		if e.StudentID == studentID {
			return true
		}
	}
	return false
}

// Enrollment is one granted seat. The composite unique index makes a seat
// grant idempotent under concurrency.
type Enrollment struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	SubjectID uint    `json:"subject_id" gorm:"not null;uniqueIndex:idx_subject_student"`
	StudentID uint    `json:"student_id" gorm:"not null;uniqueIndex:idx_subject_student"`
	Student   Account `json:"student,omitempty" gorm:"foreignKey:StudentID"`

	EnrolledAt time.Time `json:"enrolled_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
