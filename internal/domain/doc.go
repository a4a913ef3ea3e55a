// Package domain is the wildfire detection correlation and decision core.
//
// # Pipeline
//
// Every stage is a synchronous, pure transformation:
//
//	FuseStreams → Detect → Correlate → PredictSpread (eligible alerts) → PlanResources
//
// No stage performs I/O. Connectors, geocoding, archiving and publishing live in
// the adapter and pipeline packages.
//
// # Observations
//
// Connectors deliver a unified record: source tag, ISO-8601 timestamp, WGS-84
// coordinates and a free-form data map. Source tags route records to detectors:
//
//	visual:  camera, rtsp_camera
//	thermal: satellite, nasa_firms, goes_hotspot, viirs_snpp
//	sensor:  sensor, iot_sensor
//	weather: weather_api, hrrr_forecast, noaa_hrrr
//
// Data fields are read defensively. A missing field takes a value that makes
// its rule evaluate false (temperature 0, humidity 50, co2 0, smoke false), so
// absent data never triggers a detection on its own.
//
// # Correlation
//
// Detections are snapped to a fixed grid (default 0.01°, ≈1.1 km at the equator)
// by rounding lat/lon to the nearest cell multiple, half to even. Every
// detection in a cell joins one alert; there is no temporal window, so a stale
// thermal reading combines with a fresh sensor alert in the same cell.
//
//	severity   = max(low < medium < high)
//	confidence = max(member confidence), then when more than one detection type
//	             is present: min(0.95, confidence + min(0.15, 0.05 × types))
//	timestamp  = latest member timestamp
//	lat/lon    = grid cell, not the member centroid
//
// The most recent weather observation of the batch is attached to every alert.
// Alerts are ordered by (lat, lon) so downstream resource allocation is reproducible.
//
// # Spread
//
// Spread rate (km/h) = 0.4·T/40 + 0.3·(100−RH)/100 + 0.3·wind/30, clamped to
// [0.1, 2.0]. For each horizon the perimeter is sampled every 10°. The angular
// offset from the wind bearing, measured clockwise in [0, 360), selects the
// anisotropy factor: ≤90° → 1.0, ≥270° → 0.2, otherwise 0.6. Offsets are
// converted with 1 km ≈ 0.009° and longitude scaled by 1/cos(lat).
//
// # Resources
//
// The one-hour perimeter is treated as a circle of radius spread_km:
//
//	engines = max(1, ⌊P/0.5⌋)   teams = max(1, ⌊P/0.2⌋)   aircraft = max(1, ⌊P/1.0⌋)
//	water   = P × 10000 L
//
// Fires are served first-come-first-served from a shared pool that is depleted
// (and clamped at zero) after each fire.
package domain
