package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/smartcity/gateway/internal/domain"
	"github.com/smartcity/gateway/pkg/utils"
)

// Heuristic tuning constants. These are part of the observable contract:
// reason strings report the concrete values used, and tests assert on them.
const (
	// Personalization
	BaseAlertThreshold  = 150.0
	MinSensitivity      = 0.1
	SeniorAge           = 65
	SeniorThresholdDrop = 25.0
	ThresholdFloor      = 50.0
	ThresholdCeil       = 300.0
	HighSeverityExcess  = 50.0

	// Route
	RouteBaseETA     = 10
	TrafficETAWeight = 60.0
	IncidentPenalty  = 10
	HighTrafficLevel = 0.65

	// Outage
	OutageBaseETA       = 30
	CustomersPerUnit    = 100
	CustomerUnitMinutes = 10
	WeatherETAWeight    = 60.0
	LoadETAWeight       = 30.0
	BaseConfidence      = 0.9
	WeatherConfPenalty  = 0.35
	LoadConfPenalty     = 0.2
	MinConfidence       = 0.2
	MaxConfidence       = 0.95

	// Image triage
	BrightImageMean = 160.0
	DarkImageMean   = 80.0
	TallAspectRatio = 1.2
)

// Candidate routes. The gateway only ranks pre-supplied options; it does
// not compute paths.
var (
	RouteBaseline   = []string{"main_street"}
	RouteLocalRoads = []string{"local_roads_via_X"}
	RouteBusLanes   = []string{"bus_lane_friendly_route"}
)

// ScorePersonalization decides whether to send an air-quality alert.
// The effective AQI threshold is the base threshold divided by the user's
// sensitivity, lowered further for seniors. Any chronic condition forces
// an alert regardless of AQI. Pure function: same input, same answer.
func ScorePersonalization(req domain.Personalization) domain.PersonalizationResponse {
	sensitivity := math.Max(req.Sensitivity, MinSensitivity)
	ageDrop := 0.0
	if req.Age >= SeniorAge {
		ageDrop = SeniorThresholdDrop
	}
	adjusted := utils.Clamp(BaseAlertThreshold/sensitivity-ageDrop, ThresholdFloor, ThresholdCeil)

	chronic := len(req.ChronicConditions)
	send := req.AQI >= adjusted || chronic > 0

	severity := domain.SeverityLow
	switch {
	case req.AQI >= adjusted+HighSeverityExcess:
		severity = domain.SeverityHigh
	case req.AQI >= adjusted:
		severity = domain.SeverityMedium
	}

	parts := []string{fmt.Sprintf("heuristic: aqi %.1f vs adjusted threshold %.1f (base %.0f, sensitivity %.2f, age modifier %.0f)",
		req.AQI, adjusted, BaseAlertThreshold, sensitivity, ageDrop)}
	if req.Age >= SeniorAge {
		parts = append(parts, fmt.Sprintf("age %d >= %d lowers threshold", req.Age, SeniorAge))
	}
	if chronic > 0 {
		parts = append(parts, fmt.Sprintf("%d chronic conditions force alert", chronic))
	}

	return domain.PersonalizationResponse{
		SendAlert: send,
		Severity:  severity,
		Reason:    strings.Join(parts, "; "),
	}
}

// ScoreRoute ranks the pre-supplied route options. The avoid_highways
// preference forces the local-roads alternative; heavy traffic or any
// incident recommends it; otherwise the bus-lane preference may apply.
// ETA grows monotonically with traffic level and incident count.
func ScoreRoute(req domain.Route) domain.RouteResponse {
	eta := RouteBaseETA + int(math.Round(req.TrafficLevel*TrafficETAWeight)) + IncidentPenalty*len(req.Incidents)

	parts := []string{fmt.Sprintf("heuristic: traffic level %.2f", req.TrafficLevel)}
	if len(req.Incidents) > 0 {
		details := make([]string, 0, len(req.Incidents))
		for _, inc := range req.Incidents {
			details = append(details, inc.Type+" at "+inc.Location)
		}
		parts = append(parts, fmt.Sprintf("incidents (+%d min each): %s", IncidentPenalty, strings.Join(details, ", ")))
	}

	route := RouteBaseline
	switch {
	case req.UserPrefs.AvoidHighways:
		route = RouteLocalRoads
		parts = append(parts, "avoid_highways preference forces local roads")
	case req.TrafficLevel > HighTrafficLevel:
		route = RouteLocalRoads
		parts = append(parts, fmt.Sprintf("traffic above %.2f threshold, recommending local roads", HighTrafficLevel))
	case len(req.Incidents) > 0:
		route = RouteLocalRoads
		parts = append(parts, "incidents on likely path, recommending local roads")
	case req.UserPrefs.PreferBusLanes:
		route = RouteBusLanes
		parts = append(parts, "prefer_bus_lanes preference applied")
	}

	return domain.RouteResponse{
		RecommendedRoute: route,
		ETAMinutes:       eta,
		Reason:           strings.Join(parts, "; "),
	}
}

// ScoreOutageETA estimates minutes to restoration as a base plus three
// monotonically increasing factors, one per input. Confidence drops as
// weather severity and grid load rise: volatile conditions predict badly.
func ScoreOutageETA(req domain.Outage) domain.OutageResponse {
	customersFactor := req.AffectedCustomers / CustomersPerUnit * CustomerUnitMinutes
	weatherFactor := int(math.Round(req.WeatherSeverity * WeatherETAWeight))
	loadFactor := int(math.Round(req.GridLoad * LoadETAWeight))
	eta := OutageBaseETA + customersFactor + weatherFactor + loadFactor

	confidence := utils.RoundTo(utils.Clamp(
		BaseConfidence-WeatherConfPenalty*req.WeatherSeverity-LoadConfPenalty*req.GridLoad,
		MinConfidence, MaxConfidence), 2)

	reason := fmt.Sprintf(
		"heuristic: base %d + customers factor %d (%d affected) + weather factor %d (severity %.2f) + load factor %d (grid load %.2f)",
		OutageBaseETA, customersFactor, req.AffectedCustomers,
		weatherFactor, req.WeatherSeverity, loadFactor, req.GridLoad)

	return domain.OutageResponse{
		ETAMinutes: eta,
		Confidence: confidence,
		Reason:     reason,
	}
}

// ClassifyImageTriage maps basic image statistics to a coarse label via
// fixed brightness and aspect-ratio bands. This is a weak stand-in for a
// real classifier and says so in its reason text.
func ClassifyImageTriage(stats domain.ImageStats) domain.ImageTriageResponse {
	var label, band string
	switch {
	case stats.MeanBrightness > BrightImageMean:
		label = domain.LabelGarbage
		band = fmt.Sprintf("brightness above %.0f", BrightImageMean)
	case float64(stats.Height) > TallAspectRatio*float64(stats.Width):
		label = domain.LabelTreeFall
		band = fmt.Sprintf("height over %.1fx width", TallAspectRatio)
	case stats.MeanBrightness < DarkImageMean:
		label = domain.LabelPothole
		band = fmt.Sprintf("brightness below %.0f", DarkImageMean)
	default:
		label = domain.LabelUnknown
		band = "no band matched"
	}

	priority := domain.PriorityMedium
	switch label {
	case domain.LabelPothole, domain.LabelTreeFall:
		priority = domain.PriorityHigh
	case domain.LabelGarbage:
		priority = domain.PriorityLow
	}

	reason := fmt.Sprintf("weak brightness/aspect heuristic, not a trained classifier: mean_brightness=%.1f, size=%dx%d, %s",
		stats.MeanBrightness, stats.Width, stats.Height, band)

	return domain.ImageTriageResponse{
		Label:    label,
		Priority: priority,
		Reason:   reason,
	}
}
