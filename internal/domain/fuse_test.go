package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsAt(source, ts string, lat, lon float64, data map[string]any) Observation {
	if data == nil {
		data = map[string]any{}
	}
	return Observation{Source: source, Timestamp: ts, Lat: lat, Lon: lon, Data: data}
}

func TestParseObservation(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		raw := RawEvent{Value: []byte(`{"source":"satellite","timestamp":"2024-06-01T12:00:00Z","lat":34.05,"lon":-118.25,"data":{"thermal":75}}`)}

		obs, err := ParseObservation(raw)

		require.NoError(t, err)
		assert.Equal(t, "satellite", obs.Source)
		assert.Equal(t, "2024-06-01T12:00:00Z", obs.Timestamp)
		assert.Equal(t, 34.05, obs.Lat)
		assert.Equal(t, -118.25, obs.Lon)
		assert.Equal(t, 75.0, obs.Data["thermal"])
	})

	t.Run("missing data becomes empty map", func(t *testing.T) {
		raw := RawEvent{Value: []byte(`{"source":" sensor ","timestamp":"2024-06-01T12:00:00Z","lat":1,"lon":2}`)}

		obs, err := ParseObservation(raw)

		require.NoError(t, err)
		assert.Equal(t, "sensor", obs.Source)
		assert.NotNil(t, obs.Data)
		assert.Empty(t, obs.Data)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := ParseObservation(RawEvent{Value: []byte(`{"timestamp":"2024-06-01T12:00:00Z"}`)})
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseObservation(RawEvent{Value: []byte(`{not json`)})
		assert.Error(t, err)
	})
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"zulu", "2024-06-01T12:00:00Z", want},
		{"explicit utc offset", "2024-06-01T12:00:00+00:00", want},
		{"positive offset", "2024-06-01T14:00:00+02:00", want},
		{"fractional seconds", "2024-06-01T12:00:00.250Z", want.Add(250 * time.Millisecond)},
		{"no zone read as utc", "2024-06-01T12:00:00", want},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, bad := range []string{"", "yesterday", "2024-13-01T00:00:00Z", "06/01/2024 12:00"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseTimestamp(bad)
			assert.ErrorIs(t, err, ErrInvalidTimestamp)
		})
	}
}

func TestFuseStreams_OrdersByInstant(t *testing.T) {
	cameras := []Observation{
		obsAt("camera", "2024-06-01T12:05:00Z", 34.05, -118.25, nil),
		obsAt("camera", "2024-06-01T12:01:00Z", 34.05, -118.25, nil),
	}
	satellites := []Observation{
		// Same instant as 12:03Z written with an offset; lexicographic order would misplace it.
		obsAt("satellite", "2024-06-01T14:03:00+02:00", 34.05, -118.25, nil),
	}
	sensors := []Observation{
		obsAt("sensor", "2024-06-01T12:02:00Z", 34.05, -118.25, nil),
	}

	fused, dropped := FuseStreams(discardLogger(), cameras, satellites, sensors)

	require.Len(t, fused, 4)
	assert.Zero(t, dropped)
	var got []string
	for _, o := range fused {
		got = append(got, o.Source+"@"+o.ObservedAt.Format("15:04"))
	}
	assert.Equal(t, []string{"camera@12:01", "sensor@12:02", "satellite@12:03", "camera@12:05"}, got)

	for i := 1; i < len(fused); i++ {
		assert.False(t, fused[i].ObservedAt.Before(fused[i-1].ObservedAt))
	}
}

func TestFuseStreams_StableForEqualInstants(t *testing.T) {
	ts := "2024-06-01T12:00:00Z"
	first := []Observation{obsAt("camera", ts, 1, 1, map[string]any{"n": 1}), obsAt("camera", ts, 1, 1, map[string]any{"n": 2})}
	second := []Observation{obsAt("sensor", "2024-06-01T12:00:00+00:00", 1, 1, map[string]any{"n": 3})}
	third := []Observation{obsAt("satellite", ts, 1, 1, map[string]any{"n": 4})}

	fused, _ := FuseStreams(discardLogger(), first, second, third)

	require.Len(t, fused, 4)
	for i, o := range fused {
		assert.Equal(t, i+1, o.Data["n"])
	}
}

func TestFuseStreams_DropsInvalidRecords(t *testing.T) {
	stream := []Observation{
		obsAt("sensor", "not-a-time", 34, -118, nil),
		obsAt("sensor", "2024-06-01T12:00:00Z", 95, -118, nil),
		obsAt("sensor", "2024-06-01T12:00:00Z", 34, -181, nil),
		obsAt("sensor", "2024-06-01T12:00:00Z", 34, -118, nil),
	}

	fused, dropped := FuseStreams(discardLogger(), stream)

	assert.Equal(t, 3, dropped)
	require.Len(t, fused, 1)
	assert.Equal(t, 34.0, fused[0].Lat)
}

func TestFuseStreams_NoDeduplication(t *testing.T) {
	o := obsAt("camera", "2024-06-01T12:00:00Z", 1, 1, nil)

	fused, _ := FuseStreams(discardLogger(), []Observation{o, o}, []Observation{o})

	assert.Len(t, fused, 3)
}

func TestFuseStreams_Empty(t *testing.T) {
	fused, dropped := FuseStreams(discardLogger())

	assert.Empty(t, fused)
	assert.Zero(t, dropped)
}
