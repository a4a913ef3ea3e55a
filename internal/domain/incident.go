package domain

import (
	"fmt"
	"math"
	"strconv"
)

const (
	acresPerKm2          = 247.105
	urbanStructuresKm2   = 150
	ruralStructuresKm2   = 10
	defaultThreatRadius  = 1.0
	reportHorizonHours   = 6
	incidentPreparedBy   = "FireSight Detection Service"
	unknownWeatherReport = "Unknown"
)

// IncidentReport is an ICS-209 style summary of one alert.
type IncidentReport struct {
	IncidentName      string            `json:"incident_name"`
	IncidentNumber    string            `json:"incident_number"`
	ReportVersion     int               `json:"report_version"`
	ReportDate        string            `json:"report_date"`
	ReportTime        string            `json:"report_time"`
	IncidentType      string            `json:"incident_type"`
	IncidentLocation  IncidentLocation  `json:"incident_location"`
	IncidentSize      IncidentSize      `json:"incident_size"`
	SignificantEvents []string          `json:"significant_events"`
	ThreatSummary     ThreatSummary     `json:"threat_summary"`
	Weather           IncidentWeather   `json:"weather"`
	ResourcesAssigned ResourcesAssigned `json:"resources_assigned"`
	PreparedBy        string            `json:"prepared_by"`
}

type IncidentLocation struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Description string  `json:"description"`
}

type IncidentSize struct {
	Acres            int `json:"acres"`
	PercentContained int `json:"percent_contained"`
}

type ThreatSummary struct {
	StructuresThreatened   int              `json:"structures_threatened"`
	EvacuationsInPlace     bool             `json:"evacuations_in_place"`
	CriticalInfrastructure []Infrastructure `json:"critical_infrastructure"`
}

// Infrastructure is a piece of critical infrastructure near an incident.
type Infrastructure struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// IncidentWeather renders the alert weather; wind fields read "Unknown" when the
// alert carried no weather.
type IncidentWeather struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     string  `json:"wind_speed"`
	WindDirection string  `json:"wind_direction"`
}

type ResourcesAssigned struct {
	Engines        int `json:"engines"`
	Helicopters    int `json:"helicopters"`
	Dozers         int `json:"dozers"`
	Crews          int `json:"crews"`
	PersonnelCount int `json:"personnel_count"`
}

// BuildIncidentReports produces one report per alert, in alert order. Predictions
// and allocations are matched to alerts by alert ID.
func BuildIncidentReports(alerts []Alert, predictions []FirePrediction, plan ResourcePlan) []IncidentReport {
	byAlert := make(map[string]FirePrediction, len(predictions))
	for _, p := range predictions {
		byAlert[p.AlertID] = p
	}
	allocByFire := make(map[string]*ResourceAllocation, len(plan.Allocations))
	for _, a := range plan.Allocations {
		if a.Allocation != nil {
			allocByFire[a.FireID] = a.Allocation
		}
	}

	reports := make([]IncidentReport, 0, len(alerts))
	for i, alert := range alerts {
		radius, acres := defaultThreatRadius, 0
		if p, ok := byAlert[alert.ID]; ok {
			for _, h := range p.Predictions {
				if h.Hours == reportHorizonHours {
					radius = h.SpreadKm
					acres = int(circleAreaKm2(radius) * acresPerKm2)
					break
				}
			}
		}

		reported, err := ParseTimestamp(alert.Timestamp)
		if err != nil {
			reported = clock.Now().UTC()
		}

		reports = append(reports, IncidentReport{
			IncidentName:   fmt.Sprintf("Wildfire #%d", i+1),
			IncidentNumber: fmt.Sprintf("FS-%s-%d", reported.Format("20060102"), i+1),
			ReportVersion:  1,
			ReportDate:     reported.Format("2006-01-02"),
			ReportTime:     reported.Format("15:04"),
			IncidentType:   "Wildfire",
			IncidentLocation: IncidentLocation{
				Lat:         alert.Lat,
				Lon:         alert.Lon,
				Description: fmt.Sprintf("Lat: %.6f, Lon: %.6f", alert.Lat, alert.Lon),
			},
			IncidentSize: IncidentSize{Acres: acres},
			SignificantEvents: []string{
				fmt.Sprintf("Wildfire detected at %s with %.0f%% confidence", reported.Format("15:04"), alert.Confidence*100),
			},
			ThreatSummary: ThreatSummary{
				StructuresThreatened:   StructuresThreatened(alert.Lat, alert.Lon, radius),
				EvacuationsInPlace:     alert.Severity == SeverityHigh,
				CriticalInfrastructure: CriticalInfrastructure(alert.Lat, alert.Lon, radius),
			},
			Weather:           incidentWeather(alert.Details.Weather),
			ResourcesAssigned: resourcesAssigned(allocByFire[alert.ID]),
			PreparedBy:        incidentPreparedBy,
		})
	}
	return reports
}

func circleAreaKm2(radiusKm float64) float64 {
	return math.Pi * radiusKm * radiusKm
}

func isUrban(lat, lon float64) bool {
	return math.Abs(lat) < 50 && ((lon > -125 && lon < -65) || (lon > 100 && lon < 150))
}

// StructuresThreatened estimates structures within radiusKm from a coarse
// urban/rural density split.
func StructuresThreatened(lat, lon, radiusKm float64) int {
	density := float64(ruralStructuresKm2)
	if isUrban(lat, lon) {
		density = urbanStructuresKm2
	}
	return int(circleAreaKm2(radiusKm) * density)
}

// CriticalInfrastructure lists infrastructure likely within radiusKm of a point.
// Positions are approximated from coordinate bands until GIS data is wired in.
func CriticalInfrastructure(lat, lon, radiusKm float64) []Infrastructure {
	out := []Infrastructure{}
	if math.Abs(math.Mod(math.Abs(lat), 0.5)-0.25) < 0.05 {
		out = append(out, Infrastructure{Type: "Power Lines", Name: "High Voltage Transmission", Status: "Threatened"})
	}
	if math.Abs(math.Mod(math.Abs(lon), 1.0)-0.5) < 0.1 {
		out = append(out, Infrastructure{Type: "Water Resource", Name: "Reservoir", Status: "Potentially Threatened"})
	}
	if math.Abs(math.Mod(math.Abs(lat+lon), 1.0)-0.5) < 0.1 {
		out = append(out, Infrastructure{Type: "Transportation", Name: "Highway", Status: "Monitor"})
	}
	if radiusKm > 1.0 {
		out = append(out, Infrastructure{Type: "Communications", Name: "Cell Tower", Status: "Threatened"})
	}
	return out
}

func incidentWeather(w *Weather) IncidentWeather {
	if w == nil {
		return IncidentWeather{WindSpeed: unknownWeatherReport, WindDirection: unknownWeatherReport}
	}
	return IncidentWeather{
		Temperature:   w.Temperature,
		Humidity:      w.Humidity,
		WindSpeed:     strconv.FormatFloat(w.WindSpeed, 'f', -1, 64) + " mph",
		WindDirection: w.WindDirection,
	}
}

func resourcesAssigned(alloc *ResourceAllocation) ResourcesAssigned {
	if alloc == nil {
		return ResourcesAssigned{}
	}
	return ResourcesAssigned{
		Engines:        alloc.Allocation.Engines,
		Helicopters:    alloc.Allocation.Aircraft,
		Crews:          alloc.Allocation.Firefighters / teamSize,
		PersonnelCount: alloc.Allocation.Firefighters,
	}
}
