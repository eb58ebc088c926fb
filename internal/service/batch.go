package service

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/smartcity/gateway/internal/domain"
)

// BatchOrchestrator fans one request out to several independent
// per-domain predictions and fans the results back in. Items are fully
// isolated: one domain's request error never affects another's result.
type BatchOrchestrator struct {
	gateway *Gateway
}

// NewBatchOrchestrator creates a batch orchestrator over the gateway
func NewBatchOrchestrator(gateway *Gateway) *BatchOrchestrator {
	return &BatchOrchestrator{gateway: gateway}
}

// PredictBatch runs every selected domain concurrently. Each entry in the
// result is either that domain's response or its own error marker; domains
// absent from the request are absent from the result.
func (o *BatchOrchestrator) PredictBatch(ctx context.Context, req domain.BatchRequest) domain.BatchResponse {
	batchID := uuid.NewString()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(domain.BatchResponse)
	)

	record := func(d domain.Domain, resp any, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Printf("batch %s: %s failed: %v", batchID, d, err)
			results[d] = domain.BatchItemError{Error: true, Detail: err.Error()}
			return
		}
		results[d] = resp
	}

	if req.Personalization != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := o.gateway.PredictPersonalization(ctx, *req.Personalization)
			record(domain.DomainPersonalization, resp, err)
		}()
	}
	if req.Route != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := o.gateway.PredictRoute(ctx, *req.Route)
			record(domain.DomainRoute, resp, err)
		}()
	}
	if req.OutageETA != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := o.gateway.PredictOutageETA(ctx, *req.OutageETA)
			record(domain.DomainOutageETA, resp, err)
		}()
	}
	if req.ImageTriage != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := o.gateway.PredictImageTriage(ctx, *req.ImageTriage)
			record(domain.DomainImageTriage, resp, err)
		}()
	}

	wg.Wait()
	return results
}
