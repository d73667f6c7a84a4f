package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/Veraticus/precinct-atlas/internal/common"
)

// WGS84 is the EPSG code of geographic longitude/latitude output.
const WGS84 = 4326

// Projection converts between projected coordinates and longitude/latitude
// in degrees.
type Projection interface {
	EPSG() int
	Forward(lon, lat float64) (x, y float64)
	Inverse(x, y float64) (lon, lat float64)
}

// Identity is the projection of data already in longitude/latitude.
type Identity struct{}

func (Identity) EPSG() int { return WGS84 }

func (Identity) Forward(lon, lat float64) (float64, float64) { return lon, lat }

func (Identity) Inverse(x, y float64) (float64, float64) { return x, y }

// usSurveyFoot is the length of one US survey foot in meters.
const usSurveyFoot = 1200.0 / 3937.0

// LambertConformalConic is a two-standard-parallel Lambert conformal conic
// projection on an ellipsoid.
type LambertConformalConic struct {
	epsg      int
	a, e      float64
	lon0      float64
	n, f      float64
	rho0      float64
	falseE    float64
	falseN    float64
	unitToM   float64
	southPole bool
}

// NewLambertConformalConic builds a projection. Angles are in degrees, false
// easting and northing in meters; unit is the size of one output unit in
// meters.
func NewLambertConformalConic(epsg int, a, invFlattening, lat1, lat2, lat0, lon0, falseEasting, falseNorthing, unit float64) *LambertConformalConic {
	flattening := 1 / invFlattening
	e := math.Sqrt(2*flattening - flattening*flattening)

	p := &LambertConformalConic{
		epsg:    epsg,
		a:       a,
		e:       e,
		lon0:    radians(lon0),
		falseE:  falseEasting,
		falseN:  falseNorthing,
		unitToM: unit,
	}

	phi1, phi2, phi0 := radians(lat1), radians(lat2), radians(lat0)
	m1, m2 := p.m(phi1), p.m(phi2)
	t1, t2, t0 := p.t(phi1), p.t(phi2), p.t(phi0)

	if math.Abs(phi1-phi2) < 1e-10 {
		p.n = math.Sin(phi1)
	} else {
		p.n = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	}
	p.f = m1 / (p.n * math.Pow(t1, p.n))
	p.rho0 = a * p.f * math.Pow(t0, p.n)
	p.southPole = p.n < 0
	return p
}

// EPSG2263 returns NAD83 / New York Long Island (ftUS).
func EPSG2263() *LambertConformalConic {
	return NewLambertConformalConic(2263,
		6378137, 298.257222101, // GRS 1980
		41+2.0/60, 40+40.0/60, 40+10.0/60, -74,
		300000, 0,
		usSurveyFoot,
	)
}

func (p *LambertConformalConic) EPSG() int { return p.epsg }

func (p *LambertConformalConic) m(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-p.e*p.e*s*s)
}

func (p *LambertConformalConic) t(phi float64) float64 {
	s := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-p.e*s)/(1+p.e*s), p.e/2)
}

// Forward projects longitude/latitude into projected units.
func (p *LambertConformalConic) Forward(lon, lat float64) (float64, float64) {
	rho := p.a * p.f * math.Pow(p.t(radians(lat)), p.n)
	theta := p.n * (radians(lon) - p.lon0)
	x := p.falseE + rho*math.Sin(theta)
	y := p.falseN + p.rho0 - rho*math.Cos(theta)
	return x / p.unitToM, y / p.unitToM
}

// Inverse converts projected units to longitude/latitude.
func (p *LambertConformalConic) Inverse(x, y float64) (float64, float64) {
	dx := x*p.unitToM - p.falseE
	dy := p.rho0 - (y*p.unitToM - p.falseN)
	if p.southPole {
		dx, dy = -dx, -dy
	}

	rho := math.Hypot(dx, dy)
	if p.southPole {
		rho = -rho
	}
	theta := math.Atan2(dx, dy)

	ts := math.Pow(rho/(p.a*p.f), 1/p.n)
	phi := math.Pi/2 - 2*math.Atan(ts)
	for range 15 {
		s := math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(ts*math.Pow((1-p.e*s)/(1+p.e*s), p.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	return degrees(theta/p.n + p.lon0), degrees(phi)
}

// ProjectionFor resolves a supported source EPSG code.
func ProjectionFor(epsg int) (Projection, error) {
	switch epsg {
	case 2263:
		return EPSG2263(), nil
	case WGS84, 0:
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported boundary projection EPSG:%d", common.ErrInvalidConfig, epsg)
	}
}

// Reproject returns a copy of c in longitude/latitude using proj's inverse.
func Reproject(c *Collection, proj Projection) (*Collection, error) {
	out := make([]Boundary, 0, len(c.Boundaries))
	for _, b := range c.Boundaries {
		g, err := reprojectGeometry(b.Geometry, proj)
		if err != nil {
			return nil, common.NewStageError("boundaries", "geometry", fmt.Errorf("district %s: %w", b.ElectDist, err))
		}
		out = append(out, Boundary{ElectDist: b.ElectDist, Geometry: g})
	}
	return &Collection{Boundaries: out, SRID: WGS84}, nil
}

func reprojectGeometry(g geom.T, proj Projection) (geom.T, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		flat := inverseFlat(t.FlatCoords(), t.Stride(), proj)
		return geom.NewPolygonFlat(t.Layout(), flat, t.Ends()).SetSRID(WGS84), nil
	case *geom.MultiPolygon:
		flat := inverseFlat(t.FlatCoords(), t.Stride(), proj)
		return geom.NewMultiPolygonFlat(t.Layout(), flat, t.Endss()).SetSRID(WGS84), nil
	default:
		return nil, fmt.Errorf("%w: unsupported geometry %T", common.ErrFormat, g)
	}
}

func inverseFlat(coords []float64, stride int, proj Projection) []float64 {
	out := make([]float64, len(coords))
	copy(out, coords)
	for i := 0; i+1 < len(out); i += stride {
		out[i], out[i+1] = proj.Inverse(out[i], out[i+1])
	}
	return out
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
