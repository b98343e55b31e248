package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// AzimuthalEquidistant is a spherical azimuthal equidistant projection
// centered on a reference point. Distances measured from the center are
// true, so buffering a nearby geometry in projected meters matches buffering
// it on the ground.
type AzimuthalEquidistant struct {
	lon0    float64
	sinLat0 float64
	cosLat0 float64
}

// NewAzimuthalEquidistant returns a projection centered on c (lon, lat).
func NewAzimuthalEquidistant(c orb.Point) *AzimuthalEquidistant {
	lat0 := toRad(c.Lat())
	return &AzimuthalEquidistant{
		lon0:    toRad(c.Lon()),
		sinLat0: math.Sin(lat0),
		cosLat0: math.Cos(lat0),
	}
}

// Forward maps a lon/lat point to planar meters.
func (p *AzimuthalEquidistant) Forward(pt orb.Point) orb.Point {
	lat := toRad(pt.Lat())
	dLon := toRad(pt.Lon()) - p.lon0
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	cosDLon := math.Cos(dLon)

	cosC := p.sinLat0*sinLat + p.cosLat0*cosLat*cosDLon
	cosC = math.Max(-1, math.Min(1, cosC))
	c := math.Acos(cosC)

	k := 1.0
	if c != 0 {
		k = c / math.Sin(c)
	}

	x := EarthRadius * k * cosLat * math.Sin(dLon)
	y := EarthRadius * k * (p.cosLat0*sinLat - p.sinLat0*cosLat*cosDLon)
	return orb.Point{x, y}
}

// Inverse maps planar meters back to lon/lat.
func (p *AzimuthalEquidistant) Inverse(pt orb.Point) orb.Point {
	x, y := pt[0], pt[1]
	rho := math.Hypot(x, y)
	if rho == 0 {
		return orb.Point{toDeg(p.lon0), toDeg(math.Asin(p.sinLat0))}
	}

	c := rho / EarthRadius
	sinC, cosC := math.Sin(c), math.Cos(c)

	lat := math.Asin(cosC*p.sinLat0 + y*sinC*p.cosLat0/rho)
	lon := p.lon0 + math.Atan2(x*sinC, rho*p.cosLat0*cosC-y*p.sinLat0*sinC)
	return orb.Point{toDeg(lon), toDeg(lat)}
}

// ToPlane returns a projected copy of g. The input is not modified.
func (p *AzimuthalEquidistant) ToPlane(g orb.Geometry) orb.Geometry {
	return project.Geometry(orb.Clone(g), p.Forward)
}

// ToSphere returns an unprojected copy of g. The input is not modified.
func (p *AzimuthalEquidistant) ToSphere(g orb.Geometry) orb.Geometry {
	return project.Geometry(orb.Clone(g), p.Inverse)
}
