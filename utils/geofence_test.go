package utils

import (
	"math"
	"testing"
)

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{"origin", Coordinate{0, 0}, false},
		{"seattle", Coordinate{47.6062, -122.3321}, false},
		{"lat too high", Coordinate{91, 0}, true},
		{"lng too low", Coordinate{0, -181}, true},
		{"nan", Coordinate{math.NaN(), 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateCoordinate(tt.c); (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinate(%+v) = %v, wantErr %v", tt.c, err, tt.wantErr)
			}
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	// one degree of latitude is about 111 km
	d := DistanceMeters(Coordinate{0, 0}, Coordinate{1, 0})
	if d < 110_000 || d > 112_000 {
		t.Errorf("distance = %.0f m, expected about 111 km", d)
	}
	if DistanceMeters(Coordinate{10, 10}, Coordinate{10, 10}) != 0 {
		t.Error("distance to self should be 0")
	}
}

func TestSiteFenceCheck(t *testing.T) {
	fence := SiteFence{Center: Coordinate{47.6062, -122.3321}, RadiusM: 200}

	d, inside := fence.Check(Coordinate{47.6063, -122.3321})
	if !inside || d > 20 {
		t.Errorf("nearby fix: d=%.2f inside=%v", d, inside)
	}

	d, inside = fence.Check(Coordinate{47.6162, -122.3321})
	if inside || d < 1000 {
		t.Errorf("fix ~1.1 km away: d=%.2f inside=%v", d, inside)
	}

	open := SiteFence{Center: fence.Center}
	if _, inside := open.Check(Coordinate{0, 0}); !inside {
		t.Error("zero radius should accept every fix")
	}
}
