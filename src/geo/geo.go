// Package geo defines the geographic privacy capability consumed by post
// creation, and the distance helpers used to display posts.
package geo

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Privacy modes.
const (
	// ModeRandom moves the point in a random direction by a random distance
	// between MinDistance and MaxDistance.
	ModeRandom = "random"
	// ModeGrid snaps the point to the center of a grid cell MaxDistance wide.
	ModeGrid = "grid"
)

// Distance units.
const (
	Kilometers = "km"
	Miles      = "mi"
)

const (
	earthRadiusKm = 6371.0
	kmPerMile     = 1.609344
	metersPerDeg  = 111320.0
)

// PrivacyConfig constrains how far published coordinates may be from the real
// ones. Distances are in meters.
type PrivacyConfig struct {
	Mode        string  `mapstructure:"skew-mode" json:"mode"`
	MinDistance float64 `mapstructure:"skew-min" json:"minDistance"`
	MaxDistance float64 `mapstructure:"skew-max" json:"maxDistance"`
}

// DefaultPrivacyConfig moves points by 200 to 1000 meters.
func DefaultPrivacyConfig() PrivacyConfig {
	return PrivacyConfig{
		Mode:        ModeRandom,
		MinDistance: 200,
		MaxDistance: 1000,
	}
}

// Validate ...
func (c PrivacyConfig) Validate() error {
	if c.Mode != ModeRandom && c.Mode != ModeGrid {
		return fmt.Errorf("unknown privacy mode %q", c.Mode)
	}
	if c.MinDistance < 0 || c.MaxDistance <= 0 || c.MinDistance > c.MaxDistance {
		return fmt.Errorf("invalid privacy distances [%v, %v]", c.MinDistance, c.MaxDistance)
	}
	return nil
}

// LocalityHints carries what the caller knows about the surroundings of a
// point. Skewers may use it to avoid landing in obviously wrong places.
type LocalityHints struct {
	Locality string
	Region   string
	Country  string
}

// Skewer perturbs coordinates before they are published.
type Skewer interface {
	Skew(lat, lon float64, hints LocalityHints, privacy PrivacyConfig) (float64, float64, error)
}

// SkewFunc adapts a function to the Skewer interface.
type SkewFunc func(lat, lon float64, hints LocalityHints, privacy PrivacyConfig) (float64, float64, error)

// Skew implements Skewer.
func (f SkewFunc) Skew(lat, lon float64, hints LocalityHints, privacy PrivacyConfig) (float64, float64, error) {
	return f(lat, lon, hints, privacy)
}

// GridSkewer implements both privacy modes. It ignores locality hints.
type GridSkewer struct {
	l   sync.Mutex
	rnd *rand.Rand
}

// NewGridSkewer ...
func NewGridSkewer() *GridSkewer {
	return &GridSkewer{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Skew implements Skewer.
func (g *GridSkewer) Skew(lat, lon float64, _ LocalityHints, privacy PrivacyConfig) (float64, float64, error) {
	if err := privacy.Validate(); err != nil {
		return 0, 0, err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range: %v,%v", lat, lon)
	}

	if privacy.Mode == ModeGrid {
		return snap(lat, lon, privacy.MaxDistance)
	}

	g.l.Lock()
	distance := privacy.MinDistance + g.rnd.Float64()*(privacy.MaxDistance-privacy.MinDistance)
	bearing := g.rnd.Float64() * 2 * math.Pi
	g.l.Unlock()

	return offset(lat, lon, distance, bearing)
}

func snap(lat, lon, cell float64) (float64, float64, error) {
	latStep := cell / metersPerDeg
	slat := (math.Floor(lat/latStep) + 0.5) * latStep

	lonStep := cell / (metersPerDeg * math.Max(math.Cos(slat*math.Pi/180), 1e-6))
	slon := (math.Floor(lon/lonStep) + 0.5) * lonStep

	return clamp(slat, slon)
}

func offset(lat, lon, meters, bearing float64) (float64, float64, error) {
	dlat := meters * math.Cos(bearing) / metersPerDeg
	dlon := meters * math.Sin(bearing) / (metersPerDeg * math.Max(math.Cos(lat*math.Pi/180), 1e-6))
	return clamp(lat+dlat, lon+dlon)
}

func clamp(lat, lon float64) (float64, float64, error) {
	lat = math.Max(-90, math.Min(90, lat))
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lat, lon, nil
}

// Distance returns the great-circle distance between two points in the given
// unit. Unknown units fall back to kilometers.
func Distance(lat1, lon1, lat2, lon2 float64, unit string) float64 {
	rad := math.Pi / 180
	dlat := (lat2 - lat1) * rad
	dlon := (lon2 - lon1) * rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	km := 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	if unit == Miles {
		return km / kmPerMile
	}
	return km
}
