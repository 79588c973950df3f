package validator

import (
	"github.com/UMS-P-2025/coursework-service/internal/models"
)

// ValidateRubric checks the rubric bounds beyond the struct tags. Kept as a
// pure pass separate from persistence so race-sensitive constraints stay in
// the storage layer.
func (v *Validator) ValidateRubric(req *RubricRequest) error {
	var errs ValidationErrors

	check := func(field string, score int) {
		if score < 0 || score > models.RubricMax {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "sub-score must be between 0 and 25",
				Value:   score,
				Rule:    "rubric_bounds",
			})
		}
	}

	check("innovation", req.Innovation)
	check("functionality", req.Functionality)
	check("documentation", req.Documentation)
	check("presentation", req.Presentation)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateSubmissionTransition enforces the submission state machine:
// evaluated is re-enterable (grading corrections), submitted is never
// re-entered, under_review is a faculty-set advisory step.
func (v *Validator) ValidateSubmissionTransition(current, next models.SubmissionStatus) error {
	allowed := map[models.SubmissionStatus][]models.SubmissionStatus{
		models.SubmissionSubmitted:   {models.SubmissionUnderReview, models.SubmissionEvaluated},
		models.SubmissionUnderReview: {models.SubmissionEvaluated},
		models.SubmissionEvaluated:   {models.SubmissionEvaluated},
	}

	for _, s := range allowed[current] {
		if s == next {
			return nil
		}
	}
	return ValidationErrors{{
		Field:   "status",
		Message: "invalid status transition",
		Value:   string(current) + " -> " + string(next),
		Rule:    "status_transition",
	}}
}
