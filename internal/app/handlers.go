package app

import (
	"github.com/gin-gonic/gin"

	"github.com/resummate/resummate-backend/internal/http"
	httpH "github.com/resummate/resummate-backend/internal/http/handlers"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

type Handlers struct {
	Health         *httpH.HealthHandler
	Chat           *httpH.ChatHandler
	Resume         *httpH.ResumeHandler
	JobDescription *httpH.JobDescriptionHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(),
		Chat:           httpH.NewChatHandler(log, serviceset.Chat),
		Resume:         httpH.NewResumeHandler(log, serviceset.Documents),
		JobDescription: httpH.NewJobDescriptionHandler(log, serviceset.Documents),
	}
}

func wireRouter(cfg Config, handlerset Handlers) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		HealthHandler:         handlerset.Health,
		ChatHandler:           handlerset.Chat,
		ResumeHandler:         handlerset.Resume,
		JobDescriptionHandler: handlerset.JobDescription,
		ServiceName:           cfg.ServiceName,
	})
}
