package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/gateway/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestScorePersonalizationAtThreshold(t *testing.T) {
	// AQI 150 with default sensitivity sits exactly on the base threshold.
	n := domain.PersonalizationRequest{
		AQI: 150, Age: intPtr(45), Sensitivity: floatPtr(1.0),
	}.Normalize()

	resp := ScorePersonalization(n)

	assert.True(t, resp.SendAlert)
	assert.Equal(t, domain.SeverityMedium, resp.Severity)
	assert.Contains(t, resp.Reason, "aqi 150.0")
	assert.Contains(t, resp.Reason, "adjusted threshold 150.0")
	assert.Contains(t, resp.Reason, "heuristic:")
}

func TestScorePersonalizationSeverityBuckets(t *testing.T) {
	tests := []struct {
		name     string
		aqi      float64
		alert    bool
		severity string
	}{
		{"below threshold", 100, false, domain.SeverityLow},
		{"just over threshold", 160, true, domain.SeverityMedium},
		{"far over threshold", 210, true, domain.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ScorePersonalization(domain.PersonalizationRequest{AQI: tt.aqi}.Normalize())
			assert.Equal(t, tt.alert, resp.SendAlert)
			assert.Equal(t, tt.severity, resp.Severity)
		})
	}
}

func TestScorePersonalizationSeniorLowersThreshold(t *testing.T) {
	// AQI 130 is below the base threshold but above the senior-adjusted one.
	younger := ScorePersonalization(domain.PersonalizationRequest{AQI: 130, Age: intPtr(50)}.Normalize())
	senior := ScorePersonalization(domain.PersonalizationRequest{AQI: 130, Age: intPtr(70)}.Normalize())

	assert.False(t, younger.SendAlert)
	assert.True(t, senior.SendAlert)
	assert.Contains(t, senior.Reason, "age 70 >= 65")
}

func TestScorePersonalizationChronicForcesAlert(t *testing.T) {
	resp := ScorePersonalization(domain.PersonalizationRequest{
		AQI:               40,
		ChronicConditions: []string{"asthma"},
	}.Normalize())

	assert.True(t, resp.SendAlert)
	assert.Equal(t, domain.SeverityLow, resp.Severity)
	assert.Contains(t, resp.Reason, "1 chronic conditions force alert")
}

func TestScorePersonalizationSensitivityScalesThreshold(t *testing.T) {
	// Higher sensitivity divides the threshold: 150/2.0 = 75.
	resp := ScorePersonalization(domain.PersonalizationRequest{
		AQI: 80, Sensitivity: floatPtr(2.0),
	}.Normalize())

	assert.True(t, resp.SendAlert)
	assert.Contains(t, resp.Reason, "adjusted threshold 75.0")
}

func TestScorePersonalizationOutOfRangeInputs(t *testing.T) {
	// Out-of-range values are used as-is, not rejected.
	high := ScorePersonalization(domain.PersonalizationRequest{AQI: 900}.Normalize())
	assert.True(t, high.SendAlert)
	assert.Equal(t, domain.SeverityHigh, high.Severity)

	negative := ScorePersonalization(domain.PersonalizationRequest{AQI: -10}.Normalize())
	assert.False(t, negative.SendAlert)
	assert.Equal(t, domain.SeverityLow, negative.Severity)

	// Zero sensitivity is floored rather than dividing by zero.
	zero := ScorePersonalization(domain.PersonalizationRequest{AQI: 100, Sensitivity: floatPtr(0)}.Normalize())
	assert.NotEmpty(t, zero.Reason)
}

func TestScoreRouteAvoidHighwaysWithIncident(t *testing.T) {
	n := domain.RouteRequest{
		Origin:       "downtown",
		Destination:  "airport",
		TrafficLevel: floatPtr(0.7),
		UserPrefs:    &domain.RoutePrefs{AvoidHighways: true},
		Incidents:    []domain.RouteIncident{{Type: "accident", Location: "Highway 101"}},
	}.Normalize()

	resp := ScoreRoute(n)

	assert.Equal(t, RouteLocalRoads, resp.RecommendedRoute)
	// base 10 + round(0.7*60)=42 + one incident penalty 10
	assert.Equal(t, 62, resp.ETAMinutes)
	assert.Contains(t, resp.Reason, "traffic level 0.70")
	assert.Contains(t, resp.Reason, "accident at Highway 101")
	assert.Contains(t, resp.Reason, "avoid_highways preference forces local roads")
}

func TestScoreRouteBaseline(t *testing.T) {
	resp := ScoreRoute(domain.RouteRequest{Origin: "a", Destination: "b"}.Normalize())

	assert.Equal(t, RouteBaseline, resp.RecommendedRoute)
	assert.Equal(t, 40, resp.ETAMinutes) // base 10 + round(0.5*60)
}

func TestScoreRouteHeavyTrafficDiverts(t *testing.T) {
	resp := ScoreRoute(domain.RouteRequest{TrafficLevel: floatPtr(0.9)}.Normalize())

	assert.Equal(t, RouteLocalRoads, resp.RecommendedRoute)
	assert.Contains(t, resp.Reason, "traffic above 0.65 threshold")
}

func TestScoreRouteIncidentDiverts(t *testing.T) {
	resp := ScoreRoute(domain.RouteRequest{
		TrafficLevel: floatPtr(0.2),
		Incidents:    []domain.RouteIncident{{Type: "roadwork", Location: "5th Ave"}},
	}.Normalize())

	assert.Equal(t, RouteLocalRoads, resp.RecommendedRoute)
	assert.Contains(t, resp.Reason, "incidents on likely path")
}

func TestScoreRouteBusLanePreference(t *testing.T) {
	resp := ScoreRoute(domain.RouteRequest{
		TrafficLevel: floatPtr(0.3),
		UserPrefs:    &domain.RoutePrefs{PreferBusLanes: true},
	}.Normalize())

	assert.Equal(t, RouteBusLanes, resp.RecommendedRoute)
}

func TestScoreRouteETAMonotone(t *testing.T) {
	eta := func(traffic float64, incidents int) int {
		incs := make([]domain.RouteIncident, incidents)
		for i := range incs {
			incs[i] = domain.RouteIncident{Type: "accident", Location: fmt.Sprintf("site %d", i)}
		}
		return ScoreRoute(domain.RouteRequest{TrafficLevel: &traffic, Incidents: incs}.Normalize()).ETAMinutes
	}

	assert.Less(t, eta(0.1, 0), eta(0.9, 0))
	assert.Less(t, eta(0.5, 0), eta(0.5, 3))
}

func TestScoreOutageETAFactors(t *testing.T) {
	n := domain.OutageRequest{
		AffectedCustomers: 500,
		WeatherSeverity:   floatPtr(0.8),
		GridLoad:          floatPtr(0.6),
	}.Normalize()

	resp := ScoreOutageETA(n)

	// base 30 + customers 500/100*10=50 + weather round(0.8*60)=48 + load round(0.6*30)=18
	assert.Equal(t, 146, resp.ETAMinutes)
	// confidence 0.9 - 0.35*0.8 - 0.2*0.6 = 0.5
	assert.InDelta(t, 0.5, resp.Confidence, 1e-9)
	assert.Contains(t, resp.Reason, "base 30")
	assert.Contains(t, resp.Reason, "customers factor 50")
	assert.Contains(t, resp.Reason, "weather factor 48")
	assert.Contains(t, resp.Reason, "load factor 18")
}

func TestScoreOutageETAMonotone(t *testing.T) {
	eta := func(customers int, weather, load float64) int {
		return ScoreOutageETA(domain.OutageRequest{
			AffectedCustomers: customers,
			WeatherSeverity:   &weather,
			GridLoad:          &load,
		}.Normalize()).ETAMinutes
	}

	assert.LessOrEqual(t, eta(100, 0.2, 0.2), eta(1000, 0.2, 0.2))
	assert.LessOrEqual(t, eta(100, 0.2, 0.2), eta(100, 0.9, 0.2))
	assert.LessOrEqual(t, eta(100, 0.2, 0.2), eta(100, 0.2, 0.9))
}

func TestScoreOutageConfidenceDropsWithVolatility(t *testing.T) {
	calm := ScoreOutageETA(domain.OutageRequest{
		AffectedCustomers: 100, WeatherSeverity: floatPtr(0.1), GridLoad: floatPtr(0.1),
	}.Normalize())
	volatile := ScoreOutageETA(domain.OutageRequest{
		AffectedCustomers: 100, WeatherSeverity: floatPtr(0.9), GridLoad: floatPtr(0.9),
	}.Normalize())

	assert.Greater(t, calm.Confidence, volatile.Confidence)
	assert.GreaterOrEqual(t, volatile.Confidence, MinConfidence)
	assert.LessOrEqual(t, calm.Confidence, MaxConfidence)
}

func TestClassifyImageTriageBands(t *testing.T) {
	tests := []struct {
		name     string
		stats    domain.ImageStats
		label    string
		priority string
	}{
		{"bright is garbage", domain.ImageStats{MeanBrightness: 200, Width: 100, Height: 100}, domain.LabelGarbage, domain.PriorityLow},
		{"tall is tree fall", domain.ImageStats{MeanBrightness: 120, Width: 100, Height: 150}, domain.LabelTreeFall, domain.PriorityHigh},
		{"dark is pothole", domain.ImageStats{MeanBrightness: 50, Width: 100, Height: 100}, domain.LabelPothole, domain.PriorityHigh},
		{"mid square is unknown", domain.ImageStats{MeanBrightness: 120, Width: 100, Height: 100}, domain.LabelUnknown, domain.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ClassifyImageTriage(tt.stats)
			assert.Equal(t, tt.label, resp.Label)
			assert.Equal(t, tt.priority, resp.Priority)
			assert.Contains(t, resp.Reason, "not a trained classifier")
			assert.Contains(t, resp.Reason, fmt.Sprintf("mean_brightness=%.1f", tt.stats.MeanBrightness))
		})
	}
}

// All four scorers are pure: identical input yields identical output.
func TestHeuristicsDeterministic(t *testing.T) {
	p := domain.PersonalizationRequest{AQI: 163, Age: intPtr(71), ChronicConditions: []string{"copd"}}.Normalize()
	assert.Equal(t, ScorePersonalization(p), ScorePersonalization(p))

	r := domain.RouteRequest{TrafficLevel: floatPtr(0.77), Incidents: []domain.RouteIncident{{Type: "accident", Location: "x"}}}.Normalize()
	assert.Equal(t, ScoreRoute(r), ScoreRoute(r))

	o := domain.OutageRequest{AffectedCustomers: 742, WeatherSeverity: floatPtr(0.33)}.Normalize()
	assert.Equal(t, ScoreOutageETA(o), ScoreOutageETA(o))

	s := domain.ImageStats{MeanBrightness: 91.5, Width: 640, Height: 480}
	assert.Equal(t, ClassifyImageTriage(s), ClassifyImageTriage(s))
}

// Every response is fully populated for any valid normalized input.
func TestHeuristicsFullyPopulated(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		p := ScorePersonalization(domain.Personalization{
			Age:               rng.Intn(100),
			AQI:               rng.Float64()*600 - 50,
			Sensitivity:       rng.Float64() * 3,
			ChronicConditions: []string{},
		})
		require.NotEmpty(t, p.Severity)
		require.NotEmpty(t, p.Reason)

		r := ScoreRoute(domain.Route{
			TrafficLevel: rng.Float64()*1.5 - 0.2,
			Incidents:    make([]domain.RouteIncident, rng.Intn(4)),
		})
		require.NotEmpty(t, r.RecommendedRoute)
		require.NotEmpty(t, r.Reason)

		o := ScoreOutageETA(domain.Outage{
			AffectedCustomers: rng.Intn(5000),
			WeatherSeverity:   rng.Float64(),
			GridLoad:          rng.Float64(),
		})
		require.Greater(t, o.ETAMinutes, 0)
		require.Greater(t, o.Confidence, 0.0)
		require.NotEmpty(t, o.Reason)

		img := ClassifyImageTriage(domain.ImageStats{
			MeanBrightness: rng.Float64() * 255,
			Width:          1 + rng.Intn(1000),
			Height:         1 + rng.Intn(1000),
		})
		require.NotEmpty(t, img.Label)
		require.NotEmpty(t, img.Priority)
		require.NotEmpty(t, img.Reason)
	}
}
