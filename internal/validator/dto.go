package validator

// RegisterStudentRequest registers a student account; students are active
// immediately after registration.
type RegisterStudentRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	Department   string `json:"department" validate:"required,max=100"`
	AcademicYear string `json:"academic_year" validate:"omitempty,max=20"`
}

// RegisterFacultyRequest registers a faculty account; the account stays
// pending until an admin decides.
type RegisterFacultyRequest struct {
	Username   string  `json:"username" validate:"required,min=3,max=100"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=8,max=128"`
	Department string  `json:"department" validate:"required,max=100"`
	FacultyID  *string `json:"faculty_id" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateSubjectRequest struct {
	SubjectCode string  `json:"subject_code" validate:"required,min=2,max=20"`
	SubjectName string  `json:"subject_name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Department  string  `json:"department" validate:"omitempty,max=100"`
	Credits     int     `json:"credits" validate:"omitempty,min=1,max=10"`
	MaxStudents int     `json:"max_students" validate:"omitempty,min=1,max=500"`
}

// SubmitProjectRequest accompanies the multipart upload; the file itself is
// handled by the blob store and only its reference reaches the service.
type SubmitProjectRequest struct {
	SubjectID   uint   `form:"subject_id" json:"subject_id" validate:"required"`
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Description string `form:"description" json:"description" validate:"required,max=2000"`
}

// RubricRequest carries the four sub-scores; each is bounded [0,25].
type RubricRequest struct {
	Innovation    int `json:"innovation" validate:"min=0,max=25"`
	Functionality int `json:"functionality" validate:"min=0,max=25"`
	Documentation int `json:"documentation" validate:"min=0,max=25"`
	Presentation  int `json:"presentation" validate:"min=0,max=25"`
}

// EvaluateRequest grades a submission. Marks, when supplied by a client, is
// display-only: the persisted total is always recomputed from the rubric.
type EvaluateRequest struct {
	Rubric   RubricRequest `json:"rubric" validate:"required"`
	Marks    *int          `json:"marks" validate:"omitempty,min=0,max=100"`
	Feedback *string       `json:"feedback" validate:"omitempty,max=2000"`
}
