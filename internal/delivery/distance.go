package delivery

import (
	"fmt"
	"math"

	pkgerrors "github.com/angelmondragon/quickbite-backend/pkg/errors"
)

// MaxDistanceKm is the hard ceiling on drop-off distance regardless of zone.
const MaxDistanceKm = 10.0

const earthRadiusKm = 6371.0

type Point struct {
	Lat float64
	Lng float64
}

// DistanceKm is the great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// FarthestKm returns the largest distance from any origin to dest, rounded to meters.
func FarthestKm(origins []Point, dest Point) float64 {
	farthest := 0.0
	for _, o := range origins {
		if d := DistanceKm(o, dest); d > farthest {
			farthest = d
		}
	}
	return math.Round(farthest*1000) / 1000
}

// CheckDistance fails when km exceeds the zone limit or the global ceiling.
func (z Zone) CheckDistance(km float64) error {
	limit := MaxDistanceKm
	if z.MaxDistanceKm > 0 && z.MaxDistanceKm < limit {
		limit = z.MaxDistanceKm
	}
	if km > limit {
		msg := fmt.Sprintf("delivery distance %.2f km exceeds %.2f km for zone %d", km, limit, z.Number)
		return pkgerrors.New(pkgerrors.CodeValidation, msg).
			WithDetails(map[string]any{"errors": []string{msg}})
	}
	return nil
}
