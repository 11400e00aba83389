package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resummate/resummate-backend/internal/http/response"
	"github.com/resummate/resummate-backend/internal/platform/apierr"
	"github.com/resummate/resummate-backend/internal/platform/logger"
	"github.com/resummate/resummate-backend/internal/services"
)

type ResumeHandler struct {
	log  *logger.Logger
	docs services.DocumentService
}

func NewResumeHandler(log *logger.Logger, docs services.DocumentService) *ResumeHandler {
	return &ResumeHandler{
		log:  log.With("handler", "ResumeHandler"),
		docs: docs,
	}
}

// readUpload pulls the "file" part out of a multipart form. mimeType comes
// from the part header and may be empty.
func readUpload(c *gin.Context) (filename, mimeType string, data []byte, err error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", "", nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return "", "", nil, err
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		return "", "", nil, err
	}
	return fh.Filename, fh.Header.Get("Content-Type"), data, nil
}

// POST /api/resume/upload
func (h *ResumeHandler) Upload(c *gin.Context) {
	filename, mimeType, data, err := readUpload(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}

	threadID, err := h.docs.UploadResume(c.Request.Context(), c.PostForm("uuid"), filename, mimeType, data)
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			response.RespondError(c, ae.Status, ae.Code, ae.Err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Resume uploaded successfully!", "uuid": threadID})
}

// GET /api/resume/:thread_id
func (h *ResumeHandler) Get(c *gin.Context) {
	resume, err := h.docs.GetResume(c.Request.Context(), c.Param("thread_id"))
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			response.RespondError(c, http.StatusNotFound, "resume_not_found", errors.New("resume not found"))
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "resume_lookup_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"name": resume.FileName, "contentType": resume.MimeType})
}

// DELETE /api/resume/:thread_id
func (h *ResumeHandler) Delete(c *gin.Context) {
	if err := h.docs.DeleteResume(c.Request.Context(), c.Param("thread_id")); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Resume deleted successfully!"})
}
