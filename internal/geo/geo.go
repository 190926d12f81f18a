// Package geo resolves district coordinates and answers distance, bearing,
// and nearest-neighbor queries over the static district registry.
package geo

import "math"

// EarthRadiusKM is the mean Earth radius used by Haversine.
const EarthRadiusKM = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// WGS-84 points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push the haversine term past 1 for antipodal points.
	a = math.Min(1, a)
	return EarthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// InitialBearing returns the forward azimuth from point 1 to point 2 in
// degrees clockwise from true north, in [0, 360).
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	p1, p2 := radians(lat1), radians(lat2)
	dLon := radians(lon2 - lon1)
	y := math.Sin(dLon) * math.Cos(p2)
	x := math.Cos(p1)*math.Sin(p2) - math.Sin(p1)*math.Cos(p2)*math.Cos(dLon)
	return NormalizeDegrees(math.Atan2(y, x) * 180 / math.Pi)
}

// AngularDifference returns the smallest absolute angle between two bearings, in [0, 180].
func AngularDifference(a, b float64) float64 {
	d := math.Abs(NormalizeDegrees(a) - NormalizeDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// NormalizeDegrees maps any finite angle into [0, 360).
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

func radians(d float64) float64 {
	return d * math.Pi / 180
}
