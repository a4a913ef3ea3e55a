package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Observation is the unified record every connector produces: one reading from
// one data source at one place and time.
type Observation struct {
	Source    string         `json:"source"`
	Timestamp string         `json:"timestamp"`
	Lat       float64        `json:"lat"`
	Lon       float64        `json:"lon"`
	Data      map[string]any `json:"data"`

	// ObservedAt is Timestamp parsed to an instant. Set by FuseStreams.
	ObservedAt time.Time `json:"-"`
}

// Severity is the three-level scale shared by detections and alerts.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	default:
		return 0
	}
}

// Detection types emitted by the per-source detectors.
const (
	DetectionVisual  = "visual_detection"
	DetectionThermal = "thermal_anomaly"
	DetectionSensor  = "sensor_alert"
)

// AlertTypeWildfire is the type of every correlated alert.
const AlertTypeWildfire = "wildfire_detection"

// Detection is a single-modality judgment that an observation indicates fire activity.
type Detection struct {
	Type       string         `json:"type"`
	Source     string         `json:"source"`
	Class      string         `json:"class,omitempty"`
	Confidence float64        `json:"confidence"`
	Severity   Severity       `json:"severity"`
	Timestamp  string         `json:"timestamp"`
	Lat        float64        `json:"lat"`
	Lon        float64        `json:"lon"`
	Details    map[string]any `json:"details"`

	ObservedAt time.Time `json:"-"`
}

// Weather is the snapshot used for spread prediction and attached to alerts.
type Weather struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection string  `json:"wind_direction"`
}

// Place is reverse-geocoded context for an alert cell.
type Place struct {
	Name             string  `json:"name,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
}

// AlertDetails carries the traceability payload of an alert.
type AlertDetails struct {
	DetectionTypes   []string    `json:"detection_types"`
	DetectionSources []string    `json:"detection_sources"`
	DetectionCount   int         `json:"detection_count"`
	Detections       []Detection `json:"detections"`
	Weather          *Weather    `json:"weather,omitempty"`
}

// Alert is one correlated wildfire event: the aggregation of every detection in a grid cell.
type Alert struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Severity   Severity     `json:"severity"`
	Confidence float64      `json:"confidence"`
	Timestamp  string       `json:"timestamp"`
	Lat        float64      `json:"lat"`
	Lon        float64      `json:"lon"`
	Details    AlertDetails `json:"details"`
	Place      *Place       `json:"place,omitempty"`
}

// Point is a WGS-84 latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HorizonPrediction is the projected perimeter at one time horizon.
type HorizonPrediction struct {
	Hours      int     `json:"hours"`
	Timestamp  string  `json:"timestamp"`
	Perimeter  []Point `json:"perimeter"`
	SpreadKm   float64 `json:"spread_km"`
	Confidence float64 `json:"confidence"`
}

// SpreadPrediction is the multi-horizon spread projection from one ignition point.
type SpreadPrediction struct {
	IgnitionPoint Point               `json:"ignition_point"`
	Predictions   []HorizonPrediction `json:"predictions"`
	Factors       Weather             `json:"factors"`
}

// FirePrediction ties a spread prediction back to the alert it was computed for.
type FirePrediction struct {
	AlertID       string              `json:"alert_id"`
	IgnitionPoint Point               `json:"ignition_point"`
	Predictions   []HorizonPrediction `json:"predictions"`
	Factors       Weather             `json:"factors"`
}

// ResourcePool is an inventory of suppression assets.
type ResourcePool struct {
	Firefighters int `json:"firefighters" yaml:"firefighters"`
	Engines      int `json:"engines" yaml:"engines"`
	Aircraft     int `json:"aircraft" yaml:"aircraft"`
	WaterTankers int `json:"water_tankers" yaml:"water_tankers"`
}

// Allocation is the asset count committed to one fire.
type Allocation struct {
	Engines             int     `json:"engines"`
	Firefighters        int     `json:"firefighters"`
	Aircraft            int     `json:"aircraft"`
	WaterRequiredLiters float64 `json:"water_required_liters"`
}

// DeployedUnits describes what is stationed at a deployment location.
type DeployedUnits struct {
	Engines      int    `json:"engines,omitempty"`
	Firefighters int    `json:"firefighters,omitempty"`
	Aircraft     int    `json:"aircraft,omitempty"`
	Type         string `json:"type"` // "ground" or "aerial"
}

// DeploymentLocation is a position where units are stationed.
type DeploymentLocation struct {
	Lat       float64       `json:"lat"`
	Lon       float64       `json:"lon"`
	Resources DeployedUnits `json:"resources"`
}

// ResourceAllocation is the optimizer output for one fire.
type ResourceAllocation struct {
	Allocation                    Allocation           `json:"allocation"`
	Effectiveness                 float64              `json:"effectiveness"`
	DeploymentLocations           []DeploymentLocation `json:"deployment_locations"`
	EstimatedContainmentTimeHours int                  `json:"estimated_containment_time_hours"`
}

// FireAllocation is one entry of a multi-fire plan. Exactly one of Allocation
// and Error is set.
type FireAllocation struct {
	FireID     string              `json:"fire_id"`
	Location   Point               `json:"location"`
	Allocation *ResourceAllocation `json:"allocation,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// ResourcePlan is the sequential allocation across all fires in a run.
type ResourcePlan struct {
	Allocations        []FireAllocation `json:"allocations"`
	RemainingResources ResourcePool     `json:"remaining_resources"`
}

// AnalysisResult is the complete output of one analysis run.
type AnalysisResult struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Alerts      []Alert          `json:"alerts"`
	Predictions []FirePrediction `json:"predictions"`
	Resources   ResourcePlan     `json:"resources"`
}
