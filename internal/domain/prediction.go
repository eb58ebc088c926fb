package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// Domain identifies one of the four prediction domains served by the gateway
type Domain string

const (
	DomainPersonalization Domain = "personalization"
	DomainRoute           Domain = "route"
	DomainOutageETA       Domain = "outage_eta"
	DomainImageTriage     Domain = "image_triage"
)

// Domains lists every prediction domain in a fixed order
var Domains = []Domain{DomainPersonalization, DomainRoute, DomainOutageETA, DomainImageTriage}

// Normalization defaults applied to missing optional fields
const (
	DefaultAge          = 40
	DefaultSensitivity  = 1.0
	DefaultTrafficLevel = 0.5
	DefaultGridLoad     = 0.5
)

// PersonalizationRequest is the wire shape for air-quality alert requests.
// Optional fields are pointers so "absent" and "zero" stay distinguishable.
type PersonalizationRequest struct {
	UserID            *string  `json:"user_id,omitempty"`
	Age               *int     `json:"age,omitempty"`
	AQI               float64  `json:"aqi"`
	Sensitivity       *float64 `json:"sensitivity,omitempty"`
	ChronicConditions []string `json:"chronic_conditions,omitempty"`
}

// Personalization is a normalized personalization request with all defaults applied
type Personalization struct {
	UserID            string   `json:"user_id"`
	Age               int      `json:"age"`
	AQI               float64  `json:"aqi"`
	Sensitivity       float64  `json:"sensitivity"`
	ChronicConditions []string `json:"chronic_conditions"`
}

// Normalize applies field defaults. chronic_conditions is a set: it is
// deduplicated and sorted so equal sets produce equal fingerprints.
func (r PersonalizationRequest) Normalize() Personalization {
	n := Personalization{
		Age:               DefaultAge,
		AQI:               r.AQI,
		Sensitivity:       DefaultSensitivity,
		ChronicConditions: []string{},
	}
	if r.UserID != nil {
		n.UserID = *r.UserID
	}
	if r.Age != nil {
		n.Age = *r.Age
	}
	if r.Sensitivity != nil {
		n.Sensitivity = *r.Sensitivity
	}
	seen := make(map[string]bool, len(r.ChronicConditions))
	for _, c := range r.ChronicConditions {
		if c != "" && !seen[c] {
			seen[c] = true
			n.ChronicConditions = append(n.ChronicConditions, c)
		}
	}
	sort.Strings(n.ChronicConditions)
	return n
}

// RoutePrefs are user routing preferences
type RoutePrefs struct {
	AvoidHighways  bool `json:"avoid_highways"`
	PreferBusLanes bool `json:"prefer_bus_lanes"`
}

// RouteIncident is a reported road event on a candidate path
type RouteIncident struct {
	Type     string `json:"type"`
	Location string `json:"location"`
}

// RouteRequest is the wire shape for route recommendation requests
type RouteRequest struct {
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	TrafficLevel *float64        `json:"traffic_level,omitempty"`
	UserPrefs    *RoutePrefs     `json:"user_prefs,omitempty"`
	Incidents    []RouteIncident `json:"incidents,omitempty"`
}

// Route is a normalized route request with all defaults applied
type Route struct {
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	TrafficLevel float64         `json:"traffic_level"`
	UserPrefs    RoutePrefs      `json:"user_prefs"`
	Incidents    []RouteIncident `json:"incidents"`
}

// Normalize applies field defaults. Incident order is preserved.
func (r RouteRequest) Normalize() Route {
	n := Route{
		Origin:       r.Origin,
		Destination:  r.Destination,
		TrafficLevel: DefaultTrafficLevel,
		Incidents:    []RouteIncident{},
	}
	if r.TrafficLevel != nil {
		n.TrafficLevel = *r.TrafficLevel
	}
	if r.UserPrefs != nil {
		n.UserPrefs = *r.UserPrefs
	}
	n.Incidents = append(n.Incidents, r.Incidents...)
	return n
}

// OutageRequest is the wire shape for outage restoration estimates
type OutageRequest struct {
	OutageStart       *time.Time `json:"outage_start,omitempty"`
	AffectedCustomers int        `json:"affected_customers"`
	WeatherSeverity   *float64   `json:"weather_severity,omitempty"`
	GridLoad          *float64   `json:"grid_load,omitempty"`
}

// Outage is a normalized outage request with all defaults applied
type Outage struct {
	OutageStart       *time.Time `json:"outage_start"`
	AffectedCustomers int        `json:"affected_customers"`
	WeatherSeverity   float64    `json:"weather_severity"`
	GridLoad          float64    `json:"grid_load"`
}

// Normalize applies field defaults
func (r OutageRequest) Normalize() Outage {
	n := Outage{
		OutageStart:       r.OutageStart,
		AffectedCustomers: r.AffectedCustomers,
		WeatherSeverity:   0.0,
		GridLoad:          DefaultGridLoad,
	}
	if r.WeatherSeverity != nil {
		n.WeatherSeverity = *r.WeatherSeverity
	}
	if r.GridLoad != nil {
		n.GridLoad = *r.GridLoad
	}
	return n
}

// ImageTriageRequest carries the uploaded image. The blob arrives as a
// multipart file on the single-domain endpoint or base64 in a batch body.
type ImageTriageRequest struct {
	Image    []byte `json:"-"`
	ImageB64 string `json:"image_b64,omitempty"`
}

// Blob returns the raw image bytes. A missing blob is a request error,
// not a fallback case.
func (r ImageTriageRequest) Blob() ([]byte, error) {
	if len(r.Image) > 0 {
		return r.Image, nil
	}
	if r.ImageB64 != "" {
		b, err := base64.StdEncoding.DecodeString(r.ImageB64)
		if err != nil {
			return nil, NewRequestError("image_b64 is not valid base64")
		}
		return b, nil
	}
	return nil, NewRequestError("image blob is required")
}

// ImageStats are the basic statistics the triage heuristic works from
type ImageStats struct {
	MeanBrightness float64 `json:"mean_brightness"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// ImageTriage is the normalized form of an image triage request: a digest
// of the blob plus its statistics, enough to fingerprint and to classify
type ImageTriage struct {
	ContentDigest string     `json:"content_digest"`
	Stats         ImageStats `json:"stats"`
}

// NormalizeImageTriage builds the normalized form from the raw blob and
// its precomputed statistics
func NormalizeImageTriage(blob []byte, stats ImageStats) ImageTriage {
	sum := sha256.Sum256(blob)
	return ImageTriage{
		ContentDigest: hex.EncodeToString(sum[:]),
		Stats:         stats,
	}
}

// Fingerprint hashes a normalized request into a deterministic cache key
// component. Struct field order makes the JSON encoding canonical.
func Fingerprint(normalized any) string {
	b, err := json.Marshal(normalized)
	if err != nil {
		// Normalized requests are plain data; this cannot happen for them.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
