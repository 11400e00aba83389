package app

import (
	"gorm.io/gorm"

	"github.com/resummate/resummate-backend/internal/data/repos"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

type Repos struct {
	Messages        repos.MessageRepo
	Resumes         repos.ResumeRepo
	JobDescriptions repos.JobDescriptionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Messages:        repos.NewMessageRepo(db, log),
		Resumes:         repos.NewResumeRepo(db, log),
		JobDescriptions: repos.NewJobDescriptionRepo(db, log),
	}
}
