package models

import "time"

// SubmissionStatus is the evaluation lifecycle. A submission is created
// submitted, may pass through under_review, and ends evaluated. Evaluated is
// re-enterable so faculty can correct a grade.
type SubmissionStatus string

const (
	SubmissionSubmitted   SubmissionStatus = "submitted"
	SubmissionUnderReview SubmissionStatus = "under_review"
	SubmissionEvaluated   SubmissionStatus = "evaluated"
)

// RubricMax bounds each rubric sub-score; four criteria cap the total at 100.
const RubricMax = 25

// Rubric holds the four grading criteria. The persisted mark is always the
// sum of these, never a client-supplied figure.
type Rubric struct {
	Innovation    int `json:"innovation" gorm:"column:rubric_innovation"`
	Functionality int `json:"functionality" gorm:"column:rubric_functionality"`
	Documentation int `json:"documentation" gorm:"column:rubric_documentation"`
	Presentation  int `json:"presentation" gorm:"column:rubric_presentation"`
}

func (r Rubric) Total() int {
	return r.Innovation + r.Functionality + r.Documentation + r.Presentation
}

// Submission is one student's project for one subject. The composite unique
// index enforces one submission per (subject, student) pair at the storage
// level, which is what makes the constraint hold under concurrent submits.
type Submission struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	SubjectID uint    `json:"subject_id" gorm:"not null;uniqueIndex:idx_submission_subject_student"`
	Subject   Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	StudentID uint    `json:"student_id" gorm:"not null;uniqueIndex:idx_submission_subject_student"`
	Student   Account `json:"student,omitempty" gorm:"foreignKey:StudentID"`

	Title       string `json:"title" gorm:"size:200;not null"`
	Description string `json:"description" gorm:"size:2000"`

	// Blob store reference plus upload metadata; the engine never touches
	// file bytes.
	FileRef  string `json:"file_ref" gorm:"size:255;not null"`
	FileName string `json:"file_name" gorm:"size:255"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type" gorm:"size:100"`

	Status SubmissionStatus `json:"status" gorm:"size:20;not null;default:'submitted';index"`

	// Evaluation fields, nil until graded.
	Rubric      *Rubric    `json:"rubric,omitempty" gorm:"embedded"`
	Mark        *int       `json:"mark,omitempty"`
	Feedback    *string    `json:"feedback,omitempty" gorm:"size:2000"`
	EvaluatorID *uint      `json:"evaluator_id,omitempty"`
	EvaluatedAt *time.Time `json:"evaluated_at,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

// Evaluated reports whether a grade has been recorded.
func (s *Submission) IsEvaluated() bool {
	return s.Status == SubmissionEvaluated
}
