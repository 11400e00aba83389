package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resummate/resummate-backend/internal/http/response"
	"github.com/resummate/resummate-backend/internal/platform/apierr"
	"github.com/resummate/resummate-backend/internal/platform/logger"
	"github.com/resummate/resummate-backend/internal/services"
)

type JobDescriptionHandler struct {
	log  *logger.Logger
	docs services.DocumentService
}

func NewJobDescriptionHandler(log *logger.Logger, docs services.DocumentService) *JobDescriptionHandler {
	return &JobDescriptionHandler{
		log:  log.With("handler", "JobDescriptionHandler"),
		docs: docs,
	}
}

// POST /api/job-description/upload
func (h *JobDescriptionHandler) Upload(c *gin.Context) {
	filename, mimeType, data, err := readUpload(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}

	threadID, err := h.docs.UploadJobDescription(c.Request.Context(), c.PostForm("uuid"), filename, mimeType, data)
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Job description uploaded successfully!", "uuid": threadID})
}

// GET /api/job-description/:thread_id
func (h *JobDescriptionHandler) Get(c *gin.Context) {
	jd, err := h.docs.GetJobDescription(c.Request.Context(), c.Param("thread_id"))
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			response.RespondError(c, http.StatusNotFound, "job_description_not_found", errors.New("job description not found"))
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "job_description_lookup_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"name": jd.FileName, "contentType": jd.MimeType})
}

// DELETE /api/job-description/:thread_id
func (h *JobDescriptionHandler) Delete(c *gin.Context) {
	if err := h.docs.DeleteJobDescription(c.Request.Context(), c.Param("thread_id")); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Job description deleted successfully!"})
}
