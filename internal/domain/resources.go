package domain

import (
	"errors"
	"log/slog"
	"math"
)

var (
	// ErrNoPredictions is returned when a spread prediction has no horizons.
	ErrNoPredictions = errors.New("no fire predictions provided")
	// ErrNoImmediateHorizon is returned when a spread prediction lacks the one-hour horizon.
	ErrNoImmediateHorizon = errors.New("no one-hour prediction")
)

const (
	immediateHorizonHours = 1
	teamSize              = 5

	engineCoverageKm   = 0.5
	teamCoverageKm     = 0.2
	aircraftCoverageKm = 1.0
	litersPerKm        = 10000

	engineWeight   = 0.4
	teamWeight     = 0.4
	aircraftWeight = 0.2

	containmentBaseHours     = 6
	containmentFallbackHours = 24
)

func immediateHorizon(predictions []HorizonPrediction) (HorizonPrediction, error) {
	if len(predictions) == 0 {
		return HorizonPrediction{}, ErrNoPredictions
	}
	for _, p := range predictions {
		if p.Hours == immediateHorizonHours {
			return p, nil
		}
	}
	return HorizonPrediction{}, ErrNoImmediateHorizon
}

// requiredUnits truncates coverage to whole units, with at least one.
func requiredUnits(perimeterKm, coverageKm float64) int {
	return max(1, int(perimeterKm/coverageKm))
}

func ratio(allocated, required int) float64 {
	if required == 0 {
		return 1
	}
	return float64(allocated) / float64(required)
}

// OptimizeResources sizes the response to one fire from its one-hour perimeter
// and assigns what the pool can supply. A shortfall is not an error: it shows
// up as effectiveness below 1 and a longer containment estimate.
func OptimizeResources(pred SpreadPrediction, pool ResourcePool) (ResourceAllocation, error) {
	immediate, err := immediateHorizon(pred.Predictions)
	if err != nil {
		return ResourceAllocation{}, err
	}

	perimeterKm := immediate.SpreadKm * 2 * math.Pi

	reqEngines := requiredUnits(perimeterKm, engineCoverageKm)
	reqTeams := requiredUnits(perimeterKm, teamCoverageKm)
	reqAircraft := requiredUnits(perimeterKm, aircraftCoverageKm)

	engines := min(reqEngines, max(0, pool.Engines))
	teams := min(reqTeams, max(0, pool.Firefighters/teamSize))
	aircraft := min(reqAircraft, max(0, pool.Aircraft))

	effectiveness := ratio(engines, reqEngines)*engineWeight +
		ratio(teams, reqTeams)*teamWeight +
		ratio(aircraft, reqAircraft)*aircraftWeight

	containment := containmentFallbackHours
	if effectiveness > 0 {
		containment = max(1, int(math.Round(containmentBaseHours/effectiveness)))
	}

	return ResourceAllocation{
		Allocation: Allocation{
			Engines:             engines,
			Firefighters:        teams * teamSize,
			Aircraft:            aircraft,
			WaterRequiredLiters: perimeterKm * litersPerKm,
		},
		Effectiveness:                 effectiveness,
		DeploymentLocations:           deploy(pred.IgnitionPoint, immediate.Perimeter, engines, teams, aircraft),
		EstimatedContainmentTimeHours: containment,
	}, nil
}

// deploy stations one ground unit per perimeter point, engines first, wrapping
// around the perimeter when units outnumber points. Aircraft share a single
// aerial position at the ignition point.
func deploy(ignition Point, perimeter []Point, engines, teams, aircraft int) []DeploymentLocation {
	ground := engines + teams
	locations := make([]DeploymentLocation, 0, ground+1)
	for i := range ground {
		at := ignition
		if len(perimeter) > 0 {
			at = perimeter[i%len(perimeter)]
		}
		units := DeployedUnits{Type: "ground"}
		if i < engines {
			units.Engines = 1
		} else {
			units.Firefighters = teamSize
		}
		locations = append(locations, DeploymentLocation{Lat: at.Lat, Lon: at.Lon, Resources: units})
	}
	if aircraft > 0 {
		locations = append(locations, DeploymentLocation{
			Lat:       ignition.Lat,
			Lon:       ignition.Lon,
			Resources: DeployedUnits{Aircraft: aircraft, Type: "aerial"},
		})
	}
	return locations
}

// PlanResources allocates across fires first-come-first-served, depleting the
// shared pool after each fire. A fire that cannot be planned is reported with
// an error entry and does not consume resources.
func PlanResources(logger *slog.Logger, fires []FirePrediction, pool ResourcePool) ResourcePlan {
	remaining := pool
	allocations := make([]FireAllocation, 0, len(fires))

	for _, fire := range fires {
		entry := FireAllocation{FireID: fire.AlertID, Location: fire.IgnitionPoint}
		alloc, err := OptimizeResources(SpreadPrediction{
			IgnitionPoint: fire.IgnitionPoint,
			Predictions:   fire.Predictions,
			Factors:       fire.Factors,
		}, remaining)
		if err != nil {
			logger.Warn("resource allocation failed", "fire_id", fire.AlertID, "error", err)
			entry.Error = err.Error()
			allocations = append(allocations, entry)
			continue
		}

		remaining = ResourcePool{
			Firefighters: max(0, remaining.Firefighters-alloc.Allocation.Firefighters),
			Engines:      max(0, remaining.Engines-alloc.Allocation.Engines),
			Aircraft:     max(0, remaining.Aircraft-alloc.Allocation.Aircraft),
			WaterTankers: max(0, remaining.WaterTankers),
		}
		entry.Allocation = &alloc
		allocations = append(allocations, entry)
	}

	return ResourcePlan{Allocations: allocations, RemainingResources: remaining}
}
