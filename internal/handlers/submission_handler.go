package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UMS-P-2025/coursework-service/internal/services"
	"github.com/UMS-P-2025/coursework-service/internal/storage"
	"github.com/UMS-P-2025/coursework-service/internal/utils"
)

// maxUploadSize bounds project uploads at 32 MiB.
const maxUploadSize = 32 << 20

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	fileStore         storage.FileStore
}

func NewSubmissionHandler(submissionService services.SubmissionService, fileStore storage.FileStore, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		fileStore:         fileStore,
	}
}

// Upload accepts the multipart project submission: form fields plus a single
// "file" part. The blob is stored first; if the submission is then refused,
// the blob is removed again.
func (h *SubmissionHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	var req services.SubmitProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Project file is required",
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer src.Close()

	ref, err := h.fileStore.Save(c.Request.Context(), fileHeader.Filename, src)
	if err != nil {
		utils.FromContext(c.Request.Context(), h.logger).Error("Failed to store upload", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to store uploaded file",
		})
		return
	}

	file := services.FileInfo{
		Ref:  ref,
		Name: fileHeader.Filename,
		Size: fileHeader.Size,
		Type: fileHeader.Header.Get("Content-Type"),
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), CurrentAccount(c), &req, file)
	if err != nil {
		var orphan *services.OrphanedFileError
		if errors.As(err, &orphan) {
			if delErr := h.fileStore.Delete(c.Request.Context(), orphan.FileRef); delErr != nil {
				utils.FromContext(c.Request.Context(), h.logger).Warn("Failed to clean up orphaned blob",
					"file_ref", orphan.FileRef, "error", delErr)
			}
			h.handleServiceError(c, orphan.Err)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Project submitted",
		Data:    submission,
	})
}

// Evaluate grades a submission from the rubric.
func (h *SubmissionHandler) Evaluate(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	submission, err := h.submissionService.Evaluate(c.Request.Context(), CurrentAccount(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Submission evaluated",
		Data:    submission,
	})
}

// MarkUnderReview flags a submission the faculty has started grading.
func (h *SubmissionHandler) MarkUnderReview(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	submission, err := h.submissionService.MarkUnderReview(c.Request.Context(), CurrentAccount(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Submission marked under review",
		Data:    submission,
	})
}

// ListForFaculty returns every submission across the faculty's subjects.
func (h *SubmissionHandler) ListForFaculty(c *gin.Context) {
	account := CurrentAccount(c)
	submissions, err := h.submissionService.ListByFaculty(c.Request.Context(), account.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: submissions})
}

// ListForStudent returns the authenticated student's own submissions.
func (h *SubmissionHandler) ListForStudent(c *gin.Context) {
	account := CurrentAccount(c)
	submissions, err := h.submissionService.ListByStudent(c.Request.Context(), account.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: submissions})
}

// ListBySubject returns every submission in one subject the faculty owns.
func (h *SubmissionHandler) ListBySubject(c *gin.Context) {
	id := h.parseIDParam(c, "subjectId")
	if id == 0 {
		return
	}

	submissions, err := h.submissionService.ListBySubject(c.Request.Context(), CurrentAccount(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: submissions})
}
