package proximity

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

const (
	EarthRadiusKm   = 6371.0
	DefaultRadiusKm = 50.0
)

// Candidate is an agent with a known location.
type Candidate struct {
	ID         uuid.UUID
	Name       string
	AgencyName string
	Rating     float64
	Latitude   float64
	Longitude  float64
}

type Match struct {
	ID         uuid.UUID
	Name       string
	AgencyName string
	Rating     float64
	// Distance is in kilometres, rounded to one decimal place.
	Distance float64
}

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	rLat1 := toRadians(lat1)
	rLat2 := toRadians(lat2)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(rLat1)*math.Cos(rLat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Rank keeps candidates within radiusKm of (lat, lon) and orders them
// nearest first. The radius test uses the unrounded distance.
func Rank(lat, lon, radiusKm float64, candidates []Candidate) []Match {
	type scored struct {
		c    Candidate
		dist float64
	}

	in := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		d := Haversine(lat, lon, c.Latitude, c.Longitude)
		if math.IsNaN(d) || d > radiusKm {
			continue
		}
		in = append(in, scored{c: c, dist: d})
	}

	sort.SliceStable(in, func(i, j int) bool { return in[i].dist < in[j].dist })

	out := make([]Match, 0, len(in))
	for _, s := range in {
		out = append(out, Match{
			ID:         s.c.ID,
			Name:       s.c.Name,
			AgencyName: s.c.AgencyName,
			Rating:     s.c.Rating,
			Distance:   roundTo(s.dist, 1),
		})
	}
	return out
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
