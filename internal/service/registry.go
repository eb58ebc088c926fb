package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/smartcity/gateway/internal/domain"
)

// ModelRegistry tracks which trained models are loaded and runs inference
// against them. IsLoaded answers are fixed at startup for the process
// lifetime; hot reload is out of scope. Infer errors are recovered by the
// gateway, never propagated to callers.
type ModelRegistry interface {
	IsLoaded(d domain.Domain) bool
	Infer(ctx context.Context, d domain.Domain, normalized any) ([]byte, error)
	Descriptors() map[string]string
}

// ModelClient is a ModelRegistry backed by a remote model-serving process.
// It probes the server once at construction to learn which domains have a
// model loaded; inference is a bounded HTTP call with no retry.
type ModelClient struct {
	serviceURL  string
	httpClient  *http.Client
	loaded      map[domain.Domain]bool
	descriptors map[string]string
}

// NewModelClient builds the registry and probes the model server. An empty
// URL or a failed probe leaves every domain unloaded; the gateway then
// serves heuristics only.
func NewModelClient(serviceURL string, timeout time.Duration) *ModelClient {
	c := &ModelClient{
		serviceURL:  serviceURL,
		httpClient:  &http.Client{Timeout: timeout},
		loaded:      make(map[domain.Domain]bool),
		descriptors: make(map[string]string),
	}
	for _, d := range domain.Domains {
		c.descriptors[modelName(d)] = ""
	}
	if serviceURL == "" {
		return c
	}
	if err := c.probe(); err != nil {
		log.Printf("registry: model server probe failed, serving heuristics only: %v", err)
	}
	return c
}

// modelName maps a domain to its wire name in health/models payloads
func modelName(d domain.Domain) string {
	if d == domain.DomainRoute {
		return "route_model"
	}
	return string(d)
}

func (c *ModelClient) probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serviceURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("registry: failed to create probe request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry: probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry: probe returned status %d", resp.StatusCode)
	}

	var payload struct {
		Models map[string]*string `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("registry: failed to decode probe response: %w", err)
	}

	for _, d := range domain.Domains {
		if desc := payload.Models[modelName(d)]; desc != nil && *desc != "" {
			c.loaded[d] = true
			c.descriptors[modelName(d)] = *desc
		}
	}
	return nil
}

// IsLoaded reports whether a trained model is available for the domain
func (c *ModelClient) IsLoaded(d domain.Domain) bool {
	return c.loaded[d]
}

// Descriptors returns the per-model type descriptors, empty when absent
func (c *ModelClient) Descriptors() map[string]string {
	out := make(map[string]string, len(c.descriptors))
	for k, v := range c.descriptors {
		out[k] = v
	}
	return out
}

// Infer posts the normalized request to the model server and returns the
// raw response body. Any transport error, timeout or non-200 status is an
// inference failure; the caller falls back to the heuristic path.
func (c *ModelClient) Infer(ctx context.Context, d domain.Domain, normalized any) ([]byte, error) {
	body, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/infer/%s", c.serviceURL, d)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("registry: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry: inference call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry: inference returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to read inference response: %w", err)
	}
	return data, nil
}
