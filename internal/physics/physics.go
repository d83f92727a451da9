package physics

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"

	"github.com/yegors/ground-atc/pkg/types"
)

const (
	FeetToMetres      = 0.3048
	MetresPerDegLat   = 111320.0 // Mean length of one degree of latitude
	NauticalMileInM   = 1852.0
	KnotsToMetresPerS = 0.514444
)

// HeadingToVector converts a compass heading (degrees) and magnitude to east/north components
func HeadingToVector(headingDeg float64, magnitude float64) types.Vec2 {
	rad := (90 - headingDeg) * math.Pi / 180 // compass heading to math angle
	return types.Vec2{
		X: magnitude * math.Cos(rad),
		Y: magnitude * math.Sin(rad),
	}
}

// CalculateMagneticVariation calculates the magnetic declination for a given position and time.
// Returns degrees (+East, -West); 0 when the model cannot be evaluated.
func CalculateMagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, altFt*FeetToMetres)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}

	return mag.D()
}

// TrueToMagnetic converts a true heading to a magnetic heading given the declination
func TrueToMagnetic(trueHeading, declination float64) float64 {
	return types.NormalizeHeading(trueHeading - declination)
}

// RunwayNumber returns the painted runway number for a magnetic heading, 1..36.
func RunwayNumber(magneticHeading float64) int {
	n := int(math.Round(types.NormalizeHeading(magneticHeading) / 10))
	if n == 0 {
		n = 36
	}
	return n
}

// LocalToGeodetic projects a point on the airport plane (metres east/north of the
// reference) to latitude and longitude using an equirectangular approximation.
func LocalToGeodetic(refLat, refLon float64, p types.Vec2) (float64, float64) {
	lat := refLat + p.Y/MetresPerDegLat
	lon := refLon + p.X/(MetresPerDegLat*math.Cos(refLat*math.Pi/180))
	return lat, lon
}
