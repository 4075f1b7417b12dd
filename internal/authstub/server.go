package authstub

import (
	"github.com/gorilla/mux"

	"loginprobe/internal/middleware"
	"loginprobe/pkg/config"
	"loginprobe/pkg/logger"
	"loginprobe/pkg/validator"
)

// NewRouter seeds a MemoryStore from cfg and returns the full stub router.
// limiter may be nil, in which case login attempts are not rate limited.
func NewRouter(cfg *config.Config, limiter *middleware.RateLimiter, log logger.Logger) (*mux.Router, error) {
	store := NewMemoryStore()
	if _, err := store.Add(cfg.Seed.Email, cfg.Seed.Password, cfg.Seed.Name, cfg.Seed.Role); err != nil {
		return nil, err
	}

	service := NewService(store, cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	handler := NewHandler(service, validator.New(), log, cfg.IsProduction())
	if limiter != nil {
		handler.WithLoginGuard(limiter.Limit)
	}

	r := mux.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery(log))

	handler.Register(r)
	return r, nil
}
