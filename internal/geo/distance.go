// Package geo computes great-circle distances between coordinates.
package geo

import "math"

const EarthRadiusKm = 6371.0

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the spherical law of cosines distance in kilometres.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	deltaLambda := radians(lng2 - lng1)

	cosine := math.Cos(phi1)*math.Cos(phi2)*math.Cos(deltaLambda) + math.Sin(phi1)*math.Sin(phi2)

	// Rounding can push identical points just past 1.
	if cosine > 1 {
		cosine = 1
	} else if cosine < -1 {
		cosine = -1
	}

	return EarthRadiusKm * math.Acos(cosine)
}

func Within(lat1, lng1, lat2, lng2, radiusKm float64) (float64, bool) {
	d := Distance(lat1, lng1, lat2, lng2)
	return d, d <= radiusKm
}
