package utils

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Coordinate is a GPS fix in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// ValidateCoordinate rejects out-of-range or NaN values
func ValidateCoordinate(c Coordinate) error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", c.Lat)
	}
	if math.IsNaN(c.Lng) || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", c.Lng)
	}
	return nil
}

// DistanceMeters is the great-circle distance between two fixes
func DistanceMeters(a, b Coordinate) float64 {
	return geo.Distance(a.point(), b.point())
}

// SiteFence is a circular fence around a project's site center
type SiteFence struct {
	Center  Coordinate
	RadiusM float64
}

// Check returns the distance from the fence center, rounded to centimeters,
// and whether the fix lies inside. A zero radius means every fix is inside.
func (f SiteFence) Check(c Coordinate) (distanceM float64, inside bool) {
	d := math.Round(DistanceMeters(f.Center, c)*100) / 100
	return d, f.RadiusM <= 0 || d <= f.RadiusM
}
