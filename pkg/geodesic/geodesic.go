// Package geodesic computes distance and initial bearing between two
// coordinates, either precisely on the WGS-84 ellipsoid or approximately on a
// sphere.
//
// The package functions are pure. A Solver adds a single-entry cache for
// callers that ask for distance and bearing of the same pair separately.
package geodesic

import (
	"fmt"
	"math"
	"strings"
)

// WGS-84 ellipsoid
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1 / 298.257223563
	SemiMinorAxis = (1 - Flattening) * SemiMajorAxis

	// MeanEarthRadius is the IUGG mean radius
	MeanEarthRadius = 6371000.0

	// FastRadius is the sphere radius used by Fast. It is the equatorial
	// radius, not MeanEarthRadius, so Fast agrees with Precise to within a
	// meter for one degree along the equator. Pass WithRadius(MeanEarthRadius)
	// for the mean-sphere distance.
	FastRadius = SemiMajorAxis

	maxIterations = 20
	convergence   = 1e-12
)

// Result is a distance in meters and an initial bearing in degrees. The bearing
// is the raw atan2 angle in (-180, 180]; use NormalizeBearing for [0, 360).
type Result struct {
	Distance float64
	Bearing  float64
}

// Mode selects the algorithm used by a Solver
type Mode int

const (
	ModePrecise Mode = iota
	ModeFast
)

func (m Mode) String() string {
	switch m {
	case ModePrecise:
		return "precise"
	case ModeFast:
		return "fast"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "precise" or "fast"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "precise":
		return ModePrecise, nil
	case "fast":
		return ModeFast, nil
	default:
		return 0, fmt.Errorf("unknown geodesic mode %q", s)
	}
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// Precise solves the inverse geodesic problem on the WGS-84 ellipsoid with
// Vincenty's iteration. Results near antipodal points may be meaningless.
func Precise(lat1, lon1, lat2, lon2 float64) Result {
	const a, b, f = SemiMajorAxis, SemiMinorAxis, Flattening

	L := toRadians(lon2 - lon1)
	U1 := math.Atan((1 - f) * math.Tan(toRadians(lat1)))
	U2 := math.Atan((1 - f) * math.Tan(toRadians(lat2)))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	var sinLambda, cosLambda, sinSigma, cosSigma, sigma, cosSqAlpha, cos2SM float64
	lambda := L
	for i := 0; i < maxIterations; i++ {
		lambdaPrev := lambda
		sinLambda, cosLambda = math.Sincos(lambda)

		t1 := cosU2 * sinLambda
		t2 := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSigma = math.Sqrt(t1*t1 + t2*t2)
		if sinSigma == 0 {
			// coincident points
			return Result{}
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha == 0 {
			// equatorial line
			cos2SM = 0
		} else {
			cos2SM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}

		C := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
		lambda = L + (1-C)*f*sinAlpha*
			(sigma+C*sinSigma*(cos2SM+C*cosSigma*(-1+2*cos2SM*cos2SM)))

		if math.Abs(lambda-lambdaPrev) <= convergence*math.Abs(lambda) {
			break
		}
	}

	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SM + B/4*(cosSigma*(-1+2*cos2SM*cos2SM)-
		B/6*cos2SM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SM*cos2SM)))

	return Result{
		Distance: b * A * (sigma - deltaSigma),
		Bearing:  toDegrees(math.Atan2(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)),
	}
}

// Fast approximates the geodesic on a sphere of radius FastRadius
func Fast(lat1, lon1, lat2, lon2 float64) Result {
	return HaversineRadius(lat1, lon1, lat2, lon2, FastRadius)
}

// HaversineRadius approximates the geodesic on a sphere of the given radius
func HaversineRadius(lat1, lon1, lat2, lon2, radius float64) Result {
	phi1, phi2 := toRadians(lat1), toRadians(lat2)
	dPhi := phi2 - phi1
	dLambda := toRadians(lon2 - lon1)

	sinDPhi := math.Sin(dPhi / 2)
	sinDLambda := math.Sin(dLambda / 2)
	h := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	if h > 1 {
		h = 1
	}

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	return Result{
		Distance: 2 * radius * math.Asin(math.Sqrt(h)),
		Bearing:  toDegrees(math.Atan2(y, x)),
	}
}

// NormalizeBearing maps an angle in degrees into [0, 360)
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
