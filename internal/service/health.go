package service

import (
	"context"

	"github.com/smartcity/gateway/internal/cache"
	"github.com/smartcity/gateway/internal/domain"
)

// Version is the reported service version
const Version = "1.0.0"

// HealthReporter aggregates model availability and cache reachability
// into one status payload. Reporting itself cannot fail.
type HealthReporter struct {
	cache    cache.ResultCache
	registry ModelRegistry
}

// NewHealthReporter creates a health reporter
func NewHealthReporter(rc cache.ResultCache, registry ModelRegistry) *HealthReporter {
	return &HealthReporter{cache: rc, registry: registry}
}

// Report returns the current health status. The service is degraded when
// the cache store is unreachable or any domain model is absent; it still
// answers every prediction either way.
func (h *HealthReporter) Report(ctx context.Context) domain.HealthStatus {
	models := domain.ModelsLoaded{
		Personalization: h.registry.IsLoaded(domain.DomainPersonalization),
		RouteModel:      h.registry.IsLoaded(domain.DomainRoute),
		OutageETA:       h.registry.IsLoaded(domain.DomainOutageETA),
		ImageTriage:     h.registry.IsLoaded(domain.DomainImageTriage),
	}

	cacheUp := h.cache.Reachable(ctx)
	redisStatus := "unreachable"
	if cacheUp {
		redisStatus = "connected"
	}

	status := "ok"
	if !cacheUp || !models.Personalization || !models.RouteModel || !models.OutageETA || !models.ImageTriage {
		status = "degraded"
	}

	return domain.HealthStatus{
		Status:       status,
		Version:      Version,
		RedisStatus:  redisStatus,
		ModelsLoaded: models,
	}
}
