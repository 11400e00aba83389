package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/resummate/resummate-backend/internal/http/handlers"
	httpMW "github.com/resummate/resummate-backend/internal/http/middleware"
	"github.com/resummate/resummate-backend/internal/platform/envutil"
)

type RouterConfig struct {
	ChatHandler           *httpH.ChatHandler
	ResumeHandler         *httpH.ResumeHandler
	JobDescriptionHandler *httpH.JobDescriptionHandler
	HealthHandler         *httpH.HealthHandler

	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())
	if envutil.Bool("OTEL_ENABLED", false) {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.HealthCheck)
		}

		if cfg.ChatHandler != nil {
			api.POST("/chat", cfg.ChatHandler.SendMessage)
			api.GET("/chat/history/:thread_id", cfg.ChatHandler.GetHistory)
			api.POST("/generate", cfg.ChatHandler.Generate)
		}

		if cfg.ResumeHandler != nil {
			api.POST("/resume/upload", cfg.ResumeHandler.Upload)
			api.GET("/resume/:thread_id", cfg.ResumeHandler.Get)
			api.DELETE("/resume/:thread_id", cfg.ResumeHandler.Delete)
		}

		if cfg.JobDescriptionHandler != nil {
			api.POST("/job-description/upload", cfg.JobDescriptionHandler.Upload)
			api.GET("/job-description/:thread_id", cfg.JobDescriptionHandler.Get)
			api.DELETE("/job-description/:thread_id", cfg.JobDescriptionHandler.Delete)
		}
	}

	return r
}
