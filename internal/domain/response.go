package domain

// Severity buckets for personalization alerts
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Triage labels and priorities for street-condition photos
const (
	LabelPothole  = "pothole"
	LabelTreeFall = "tree_fall"
	LabelGarbage  = "garbage"
	LabelUnknown  = "unknown"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PersonalizationResponse answers whether to send an air-quality alert
type PersonalizationResponse struct {
	SendAlert bool   `json:"send_alert"`
	Severity  string `json:"severity"`
	Reason    string `json:"reason"`
}

// RouteResponse recommends a route given traffic and incidents
type RouteResponse struct {
	RecommendedRoute []string `json:"recommended_route"`
	ETAMinutes       int      `json:"eta_minutes"`
	Reason           string   `json:"reason"`
}

// OutageResponse estimates time to restoration for a utility outage
type OutageResponse struct {
	ETAMinutes int     `json:"eta_minutes"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// ImageTriageResponse labels a street-condition photo with a priority
type ImageTriageResponse struct {
	Label    string `json:"label"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// BatchRequest selects any subset of the four domains for one call.
// A nil field means that domain was not requested.
type BatchRequest struct {
	Personalization *PersonalizationRequest `json:"personalization,omitempty"`
	Route           *RouteRequest           `json:"route,omitempty"`
	OutageETA       *OutageRequest          `json:"outage_eta,omitempty"`
	ImageTriage     *ImageTriageRequest     `json:"image_triage,omitempty"`
}

// BatchItemError marks a single failed batch item; other items are unaffected
type BatchItemError struct {
	Error  bool   `json:"error"`
	Detail string `json:"detail"`
}

// BatchResponse maps each requested domain to its response or its error
// marker. Domains absent from the request are absent here.
type BatchResponse map[Domain]any

// HealthStatus is the aggregated service health payload
type HealthStatus struct {
	Status       string       `json:"status"`
	Version      string       `json:"version"`
	RedisStatus  string       `json:"redis_status"`
	ModelsLoaded ModelsLoaded `json:"models_loaded"`
}

// ModelsLoaded reports per-domain model availability
type ModelsLoaded struct {
	Personalization bool `json:"personalization"`
	RouteModel      bool `json:"route_model"`
	OutageETA       bool `json:"outage_eta"`
	ImageTriage     bool `json:"image_triage"`
}
