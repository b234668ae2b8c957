package utils

import "math"

// EarthRadiusMeters is the mean earth radius used for great-circle distances,
// both here and in the SQL distance expression of the postgres store.
const EarthRadiusMeters = 6371008.8

// Haversine returns the great-circle distance in meters between two lon/lat points.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// ValidCoordinates reports whether lon/lat are finite and inside the WGS84 ranges.
func ValidCoordinates(lon, lat float64) bool {
	for _, v := range []float64{lon, lat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}
