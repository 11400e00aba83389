package app

import (
	"gorm.io/gorm"

	"github.com/resummate/resummate-backend/internal/platform/logger"
	"github.com/resummate/resummate-backend/internal/services"
)

type Services struct {
	Documents services.DocumentService
	Chat      services.ChatService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")
	documents := services.NewDocumentService(db, log, reposet.Resumes, reposet.JobDescriptions, clients.AI, clients.DocCache)
	chat := services.NewChatService(db, log, reposet.Messages, documents, clients.AI)
	return Services{
		Documents: documents,
		Chat:      chat,
	}
}
