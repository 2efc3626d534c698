package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/imiranda/rebrota/internal/adapters/postgres"
	"github.com/imiranda/rebrota/internal/core/ports"
	"github.com/imiranda/rebrota/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Detections *usecases.DetectionService
	Chat       *usecases.ChatService
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      ports.CacheService

	// ChatMaxDuration bounds a single chat generation. Zero selects
	// the 30 second default.
	ChatMaxDuration time.Duration
}
