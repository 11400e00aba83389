package repos

import (
	"github.com/resummate/resummate-backend/internal/data/repos/chat"
	"github.com/resummate/resummate-backend/internal/data/repos/documents"
	"github.com/resummate/resummate-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type MessageRepo = chat.MessageRepo
type ResumeRepo = documents.ResumeRepo
type JobDescriptionRepo = documents.JobDescriptionRepo

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return chat.NewMessageRepo(db, log)
}

func NewResumeRepo(db *gorm.DB, log *logger.Logger) ResumeRepo {
	return documents.NewResumeRepo(db, log)
}

func NewJobDescriptionRepo(db *gorm.DB, log *logger.Logger) JobDescriptionRepo {
	return documents.NewJobDescriptionRepo(db, log)
}
