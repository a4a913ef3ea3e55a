package domain

import (
	"context"
	"log/slog"
)

// EnrichAlertWithGeocoding attaches the named place of the alert's grid cell.
// If geocoder is nil, the lookup fails, or no place is found, the alert is
// returned unchanged (graceful degradation).
func EnrichAlertWithGeocoding(ctx context.Context, alert Alert, geocoder Geocoder, logger *slog.Logger) Alert {
	if geocoder == nil {
		return alert
	}

	result, err := geocoder.ReverseGeocode(ctx, alert.Lat, alert.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"alert_id", alert.ID,
			"lat", alert.Lat,
			"lon", alert.Lon,
			"error", err,
		)
		return alert
	}
	if result.FormattedAddress == "" && result.PlaceName == "" {
		return alert
	}

	alert.Place = &Place{
		Name:             result.PlaceName,
		FormattedAddress: result.FormattedAddress,
		Confidence:       result.Confidence,
	}
	return alert
}
