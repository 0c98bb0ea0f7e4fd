package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, delta            float64
	}{
		{"same point", 37.7749, -122.4194, 37.7749, -122.4194, 0, 0.001},
		{"one degree latitude", 0, 0, 1, 0, 111195, 5},
		{"san francisco to los angeles", 37.7749, -122.4194, 34.0522, -118.2437, 559120, 1000},
		{"ten meters north", 37.7749, -122.4194, 37.77499, -122.4194, 10, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestHaversineMetersSymmetric(t *testing.T) {
	a := HaversineMeters(40.7128, -74.0060, 51.5074, -0.1278)
	b := HaversineMeters(51.5074, -0.1278, 40.7128, -74.0060)
	assert.InDelta(t, a, b, 1e-6)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, ClampFloat(0, 1, 50000))
	assert.Equal(t, 50000.0, ClampFloat(90000, 1, 50000))
	assert.Equal(t, 60, ClampInt(100, 1, 60))
	assert.Equal(t, 1, ClampInt(-3, 1, 60))
	assert.Equal(t, 20, ClampInt(20, 1, 60))
}
