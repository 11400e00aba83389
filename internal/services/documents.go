package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/resummate/resummate-backend/internal/clients/redis"
	"github.com/resummate/resummate-backend/internal/platform/apierr"
	"github.com/resummate/resummate-backend/internal/data/repos"
	types "github.com/resummate/resummate-backend/internal/domain"
	"github.com/resummate/resummate-backend/internal/platform/dbctx"
	"github.com/resummate/resummate-backend/internal/platform/gemini"
	"github.com/resummate/resummate-backend/internal/platform/logger"
	pkgerrors "github.com/resummate/resummate-backend/internal/pkg/errors"
)

// ErrDocumentNotFound is surfaced when a thread has no record of the
// requested document kind.
var ErrDocumentNotFound = pkgerrors.ErrNotFound

const (
	docKindResume         = "resume"
	docKindJobDescription = "job_description"
)

// DocumentService owns the upload/lookup/delete lifecycle for per-thread
// resume and job description records. The remote file store holds the
// content; rows here cache its metadata.
type DocumentService interface {
	UploadResume(ctx context.Context, threadID, filename, mimeType string, data []byte) (string, error)
	GetResume(ctx context.Context, threadID string) (*types.Resume, error)
	DeleteResume(ctx context.Context, threadID string) error

	UploadJobDescription(ctx context.Context, threadID, filename, mimeType string, data []byte) (string, error)
	GetJobDescription(ctx context.Context, threadID string) (*types.JobDescription, error)
	DeleteJobDescription(ctx context.Context, threadID string) error
}

type documentService struct {
	db      *gorm.DB
	log     *logger.Logger
	resumes repos.ResumeRepo
	jobDesc repos.JobDescriptionRepo
	ai      gemini.Client
	cache   redisclient.DocCache
}

// NewDocumentService wires the document lifecycle. cache may be nil; lookups
// then always hit the store.
func NewDocumentService(
	db *gorm.DB,
	log *logger.Logger,
	resumes repos.ResumeRepo,
	jobDesc repos.JobDescriptionRepo,
	ai gemini.Client,
	cache redisclient.DocCache,
) DocumentService {
	return &documentService{
		db:      db,
		log:     log.With("service", "DocumentService"),
		resumes: resumes,
		jobDesc: jobDesc,
		ai:      ai,
		cache:   cache,
	}
}

// uploadError attaches the HTTP status handlers should surface for a failed
// remote upload.
func uploadError(err error) error {
	if errors.Is(err, gemini.ErrFileTooLarge) {
		return apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", err)
	}
	return apierr.New(http.StatusInternalServerError, "upload_failed", err)
}

func fileMetadata(filename string, file *gemini.File) types.FileMetadata {
	raw, err := json.Marshal(file)
	if err != nil {
		raw = []byte("{}")
	}
	return types.FileMetadata{
		FileName:       filename,
		RemoteName:     file.Name,
		MimeType:       file.MimeType,
		SizeBytes:      file.Size(),
		CreateTime:     file.CreateTime,
		ExpirationTime: file.ExpirationTime,
		UpdateTime:     file.UpdateTime,
		ContentHash:    file.SHA256Hash,
		URI:            file.URI,
		State:          file.State,
		Source:         file.Source,
		Metadata:       raw,
	}
}

func (s *documentService) UploadResume(ctx context.Context, threadID, filename, mimeType string, data []byte) (string, error) {
	if strings.TrimSpace(threadID) == "" {
		threadID = uuid.NewString()
	}
	if strings.TrimSpace(filename) == "" {
		filename = "resume.pdf"
	}

	file, err := s.ai.UploadFile(ctx, data, filename, mimeType)
	if err != nil {
		return "", uploadError(err)
	}

	row := &types.Resume{ThreadID: threadID, FileMetadata: fileMetadata(filename, file)}
	if _, err := s.resumes.Save(dbctx.Context{Ctx: ctx}, row); err != nil {
		return "", fmt.Errorf("save resume: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, docKindResume, threadID)
	}
	s.log.Info("resume uploaded", "thread_id", threadID, "remote_name", file.Name)
	return threadID, nil
}

func (s *documentService) GetResume(ctx context.Context, threadID string) (*types.Resume, error) {
	if s.cache != nil {
		var cached types.Resume
		if s.cache.Get(ctx, docKindResume, threadID, &cached) {
			return &cached, nil
		}
	}
	row, err := s.resumes.GetByThread(dbctx.Context{Ctx: ctx}, threadID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, docKindResume, threadID, row)
	}
	return row, nil
}

func (s *documentService) DeleteResume(ctx context.Context, threadID string) error {
	err := s.resumes.DeleteByThread(dbctx.Context{Ctx: ctx}, threadID)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, docKindResume, threadID)
	}
	return nil
}

func (s *documentService) UploadJobDescription(ctx context.Context, threadID, filename, mimeType string, data []byte) (string, error) {
	if strings.TrimSpace(threadID) == "" {
		threadID = uuid.NewString()
	}
	if strings.TrimSpace(filename) == "" {
		filename = "job_description.pdf"
	}

	file, err := s.ai.UploadFile(ctx, data, filename, mimeType)
	if err != nil {
		return "", uploadError(err)
	}

	row := &types.JobDescription{ThreadID: threadID, FileMetadata: fileMetadata(filename, file)}
	if _, err := s.jobDesc.Save(dbctx.Context{Ctx: ctx}, row); err != nil {
		return "", fmt.Errorf("save job description: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, docKindJobDescription, threadID)
	}
	s.log.Info("job description uploaded", "thread_id", threadID, "remote_name", file.Name)
	return threadID, nil
}

func (s *documentService) GetJobDescription(ctx context.Context, threadID string) (*types.JobDescription, error) {
	if s.cache != nil {
		var cached types.JobDescription
		if s.cache.Get(ctx, docKindJobDescription, threadID, &cached) {
			return &cached, nil
		}
	}
	row, err := s.jobDesc.GetByThread(dbctx.Context{Ctx: ctx}, threadID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, docKindJobDescription, threadID, row)
	}
	return row, nil
}

func (s *documentService) DeleteJobDescription(ctx context.Context, threadID string) error {
	err := s.jobDesc.DeleteByThread(dbctx.Context{Ctx: ctx}, threadID)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, docKindJobDescription, threadID)
	}
	return nil
}
