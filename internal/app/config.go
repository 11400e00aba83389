package app

import (
	"github.com/resummate/resummate-backend/internal/platform/envutil"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	HTTPAddr        string
	ShutdownTimeout int
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName:     envutil.String("SERVICE_NAME", "resummate-backend"),
		Environment:     envutil.String("APP_ENV", "development"),
		Version:         envutil.String("APP_VERSION", "dev"),
		HTTPAddr:        envutil.String("HTTP_ADDR", ":8080"),
		ShutdownTimeout: envutil.Int("SHUTDOWN_TIMEOUT_SECONDS", 10),
	}
	log.Info("config loaded", "service", cfg.ServiceName, "env", cfg.Environment, "addr", cfg.HTTPAddr)
	return cfg
}
