package app

import (
	"fmt"

	redisclient "github.com/resummate/resummate-backend/internal/clients/redis"
	"github.com/resummate/resummate-backend/internal/platform/gemini"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

type Clients struct {
	AI       gemini.Client
	DocCache redisclient.DocCache
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := gemini.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	}

	// Cache is best-effort; lookups fall through to the store without it.
	cache, err := redisclient.NewDocCache(log)
	if err != nil {
		log.Warn("doc cache unavailable, continuing without it", "error", err)
		cache = nil
	}

	return Clients{AI: ai, DocCache: cache}, nil
}
