package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/smartcity/gateway/internal/cache"
	"github.com/smartcity/gateway/internal/domain"
)

// Gateway answers the four per-domain prediction questions. Every answer
// resolves the same way: normalize, check the cache, try the model if one
// is loaded, fall back to the heuristic on absence or failure, cache, and
// return. Callers never see a dependency failure, only a degraded answer;
// the only error that escapes is a RequestError for invalid input.
type Gateway struct {
	cache    cache.ResultCache
	registry ModelRegistry
}

// NewGateway creates a prediction gateway. Both collaborators are
// injected so tests can substitute doubles.
func NewGateway(rc cache.ResultCache, registry ModelRegistry) *Gateway {
	return &Gateway{cache: rc, registry: registry}
}

// PredictPersonalization answers whether to send an air-quality alert
func (g *Gateway) PredictPersonalization(ctx context.Context, req domain.PersonalizationRequest) (domain.PersonalizationResponse, error) {
	n := req.Normalize()
	fp := domain.Fingerprint(n)

	var resp domain.PersonalizationResponse
	if g.cached(ctx, domain.DomainPersonalization, fp, &resp) {
		return resp, nil
	}
	ok := g.modelAnswer(ctx, domain.DomainPersonalization, n, &resp, func() bool {
		return resp.Severity != "" && resp.Reason != ""
	})
	if !ok {
		resp = ScorePersonalization(n)
	}
	g.store(ctx, domain.DomainPersonalization, fp, resp)
	return resp, nil
}

// PredictRoute recommends a route from the pre-supplied options
func (g *Gateway) PredictRoute(ctx context.Context, req domain.RouteRequest) (domain.RouteResponse, error) {
	n := req.Normalize()
	fp := domain.Fingerprint(n)

	var resp domain.RouteResponse
	if g.cached(ctx, domain.DomainRoute, fp, &resp) {
		return resp, nil
	}
	ok := g.modelAnswer(ctx, domain.DomainRoute, n, &resp, func() bool {
		return len(resp.RecommendedRoute) > 0 && resp.ETAMinutes > 0 && resp.Reason != ""
	})
	if !ok {
		resp = ScoreRoute(n)
	}
	g.store(ctx, domain.DomainRoute, fp, resp)
	return resp, nil
}

// PredictOutageETA estimates time to restoration for a utility outage
func (g *Gateway) PredictOutageETA(ctx context.Context, req domain.OutageRequest) (domain.OutageResponse, error) {
	n := req.Normalize()
	fp := domain.Fingerprint(n)

	var resp domain.OutageResponse
	if g.cached(ctx, domain.DomainOutageETA, fp, &resp) {
		return resp, nil
	}
	ok := g.modelAnswer(ctx, domain.DomainOutageETA, n, &resp, func() bool {
		return resp.ETAMinutes > 0 && resp.Confidence > 0 && resp.Reason != ""
	})
	if !ok {
		resp = ScoreOutageETA(n)
	}
	g.store(ctx, domain.DomainOutageETA, fp, resp)
	return resp, nil
}

// PredictImageTriage labels a street-condition photo. A missing or
// undecodable blob is a request error, not a fallback case.
func (g *Gateway) PredictImageTriage(ctx context.Context, req domain.ImageTriageRequest) (domain.ImageTriageResponse, error) {
	blob, err := req.Blob()
	if err != nil {
		return domain.ImageTriageResponse{}, err
	}
	stats, err := ComputeImageStats(blob)
	if err != nil {
		return domain.ImageTriageResponse{}, err
	}
	n := domain.NormalizeImageTriage(blob, stats)
	fp := domain.Fingerprint(n)

	var resp domain.ImageTriageResponse
	if g.cached(ctx, domain.DomainImageTriage, fp, &resp) {
		return resp, nil
	}
	ok := g.modelAnswer(ctx, domain.DomainImageTriage, n, &resp, func() bool {
		return resp.Label != "" && resp.Priority != "" && resp.Reason != ""
	})
	if !ok {
		resp = ClassifyImageTriage(n.Stats)
	}
	g.store(ctx, domain.DomainImageTriage, fp, resp)
	return resp, nil
}

// cached loads a cache hit into out. A corrupt entry counts as a miss.
func (g *Gateway) cached(ctx context.Context, d domain.Domain, fp string, out any) bool {
	data, ok := g.cache.Get(ctx, d, fp)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("gateway: corrupt cache entry for %s, recomputing: %v", d, err)
		return false
	}
	return true
}

// modelAnswer attempts model inference and reports whether a usable,
// fully populated response was produced. Any failure here is recovered
// by the heuristic path; nothing propagates to the caller.
func (g *Gateway) modelAnswer(ctx context.Context, d domain.Domain, normalized, out any, populated func() bool) bool {
	if !g.registry.IsLoaded(d) {
		return false
	}
	data, err := g.registry.Infer(ctx, d, normalized)
	if err != nil {
		log.Printf("gateway: %s model inference failed, falling back to heuristic: %v", d, err)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("gateway: %s model response undecodable, falling back to heuristic: %v", d, err)
		return false
	}
	if !populated() {
		log.Printf("gateway: %s model response incomplete, falling back to heuristic", d)
		return false
	}
	return true
}

func (g *Gateway) store(ctx context.Context, d domain.Domain, fp string, resp any) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	g.cache.Put(ctx, d, fp, payload)
}
