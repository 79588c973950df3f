package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UMS-P-2025/coursework-service/internal/services"
	"github.com/UMS-P-2025/coursework-service/internal/utils"
)

type SubjectHandler struct {
	BaseHandler
	subjectService services.SubjectService
	exportService  services.ExportService
}

func NewSubjectHandler(subjectService services.SubjectService, exportService services.ExportService, logger utils.Logger) *SubjectHandler {
	return &SubjectHandler{
		BaseHandler:    NewBaseHandler(logger),
		subjectService: subjectService,
		exportService:  exportService,
	}
}

// CreateSubject registers a subject under the authenticated faculty account.
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req services.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	subject, err := h.subjectService.Create(c.Request.Context(), CurrentAccount(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Subject created",
		Data:    subject,
	})
}

// ListSubjects is the public catalog of active subjects.
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.subjectService.ListAvailable(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: subjects})
}

// Enroll grants the authenticated student a seat.
func (h *SubjectHandler) Enroll(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	subject, err := h.subjectService.Enroll(c.Request.Context(), CurrentAccount(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Enrolled successfully",
		Data:    subject,
	})
}

// Deactivate closes a subject to new enrollments.
func (h *SubjectHandler) Deactivate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	subject, err := h.subjectService.Deactivate(c.Request.Context(), CurrentAccount(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Subject deactivated",
		Data:    subject,
	})
}

// MyFacultySubjects lists subjects owned by the authenticated faculty,
// including enrollment rosters.
func (h *SubjectHandler) MyFacultySubjects(c *gin.Context) {
	account := CurrentAccount(c)
	subjects, err := h.subjectService.ListByFaculty(c.Request.Context(), account.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: subjects})
}

// MyStudentSubjects lists subjects the authenticated student is enrolled in.
func (h *SubjectHandler) MyStudentSubjects(c *gin.Context) {
	account := CurrentAccount(c)
	subjects, err := h.subjectService.ListByStudent(c.Request.Context(), account.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: subjects})
}

// ExportGrades streams the subject grade sheet as an xlsx download.
func (h *SubjectHandler) ExportGrades(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	data, filename, err := h.exportService.ExportSubjectGrades(c.Request.Context(), CurrentAccount(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
