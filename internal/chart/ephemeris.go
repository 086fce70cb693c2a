package chart

import (
	"math"
	"time"
)

const (
	jdJ2000         = 2451545.0
	daysPerCentury  = 36525.0
	jdUnixEpoch     = 2440587.5
	secondsPerDay   = 86400.0
	precessionPerCy = 1.396971 // general precession in longitude, degrees per Julian century
)

// orbit holds J2000 mean Keplerian elements and their rates per century.
// Angles in degrees, semi-major axis in AU.
type orbit struct {
	a, e, i, l, peri, node                   float64
	aDot, eDot, iDot, lDot, periDot, nodeDot float64
}

// Mean elements valid 1800-2050 (JPL approximate positions of the planets).
var (
	orbitMercury = orbit{0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593,
		0.00000037, 0.00001906, -0.00594749, 149472.67411175, 0.16047689, -0.12534081}
	orbitVenus = orbit{0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255,
		0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418}
	orbitEarth = orbit{1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0.0,
		0.00000562, -0.00004392, -0.01294668, 35999.37244981, 0.32327364, 0.0}
	orbitMars = orbit{1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891,
		0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343}
	orbitJupiter = orbit{5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909,
		-0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106}
	orbitSaturn = orbit{9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448,
		-0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794}
	orbitUranus = orbit{19.18916464, 0.04725744, 0.77263783, 313.23810451, 170.95427630, 74.01692503,
		-0.00196176, -0.00004397, -0.00242939, 428.48202785, 0.40805281, 0.04240589}
	orbitNeptune = orbit{30.06992276, 0.00859048, 1.77004347, -55.12002969, 44.96476227, 131.78422574,
		0.00026291, 0.00005105, 0.00035372, 218.45945325, -0.32241464, -0.00508664}
	orbitPluto = orbit{39.48211675, 0.24882730, 17.14001206, 238.92903833, 224.06891629, 110.30393684,
		-0.00031596, 0.00005170, 0.00004818, 145.20780515, -0.04062942, -0.01183482}
)

var planetOrbits = map[Body]orbit{
	Mercury: orbitMercury,
	Venus:   orbitVenus,
	Mars:    orbitMars,
	Jupiter: orbitJupiter,
	Saturn:  orbitSaturn,
	Uranus:  orbitUranus,
	Neptune: orbitNeptune,
	Pluto:   orbitPluto,
}

// julianDay converts a UTC instant to a Julian day number.
func julianDay(t time.Time) float64 {
	return jdUnixEpoch + float64(t.Unix())/secondsPerDay
}

// longitudes returns the tropical ecliptic longitude (degrees, ecliptic of
// date) of every body for Julian day jd seen from lat/lng.
func longitudes(jd, lat, lng float64) map[Body]float64 {
	t := (jd - jdJ2000) / daysPerCentury
	precession := precessionPerCy * t

	ex, ey := orbitEarth.heliocentric(t)

	out := make(map[Body]float64, len(Bodies))
	out[Sun] = normDeg(deg(math.Atan2(-ey, -ex)) + precession)
	for b, o := range planetOrbits {
		x, y := o.heliocentric(t)
		out[b] = normDeg(deg(math.Atan2(y-ey, x-ex)) + precession)
	}
	out[Moon] = moonLongitude(t)
	out[Rising] = ascendant(localSiderealTime(jd, lng), obliquity(t), lat)
	return out
}

// heliocentric returns J2000 ecliptic x and y in AU. Latitude is not needed
// for longitudes, so z is dropped.
func (o orbit) heliocentric(t float64) (x, y float64) {
	a := o.a + o.aDot*t
	e := o.e + o.eDot*t
	inc := rad(o.i + o.iDot*t)
	l := o.l + o.lDot*t
	peri := o.peri + o.periDot*t
	node := o.node + o.nodeDot*t

	w := rad(peri - node)
	m := rad(normDeg(l - peri))
	n := rad(node)

	ea := solveKepler(m, e)
	xp := a * (math.Cos(ea) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ea)

	cw, sw := math.Cos(w), math.Sin(w)
	cn, sn := math.Cos(n), math.Sin(n)
	ci := math.Cos(inc)

	x = (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp
	y = (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp
	return x, y
}

// solveKepler solves M = E - e sin E by Newton iteration (radians).
func solveKepler(m, e float64) float64 {
	ea := m + e*math.Sin(m)
	for i := 0; i < 30; i++ {
		delta := (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
		ea -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return ea
}

// moonLongitude uses the principal periodic terms of the lunar theory.
// Result is referred to the ecliptic of date.
func moonLongitude(t float64) float64 {
	lp := 218.3164477 + 481267.88123421*t
	d := rad(297.8501921 + 445267.1114034*t)
	m := rad(357.5291092 + 35999.0502909*t)
	mp := rad(134.9633964 + 477198.8675055*t)
	f := rad(93.2720950 + 483202.0175233*t)

	lon := lp +
		6.288774*math.Sin(mp) +
		1.274027*math.Sin(2*d-mp) +
		0.658314*math.Sin(2*d) +
		0.213618*math.Sin(2*mp) -
		0.185116*math.Sin(m) -
		0.114332*math.Sin(2*f) +
		0.058793*math.Sin(2*d-2*mp) +
		0.057066*math.Sin(2*d-m-mp) +
		0.053322*math.Sin(2*d+mp) +
		0.045758*math.Sin(2*d-m) -
		0.040923*math.Sin(m-mp) -
		0.034720*math.Sin(d) -
		0.030383*math.Sin(m+mp)
	return normDeg(lon)
}

// obliquity returns the mean obliquity of the ecliptic in degrees.
func obliquity(t float64) float64 {
	return 23.439291 - 0.0130042*t
}

// localSiderealTime returns the local mean sidereal time in degrees for an
// east-positive longitude.
func localSiderealTime(jd, lng float64) float64 {
	t := (jd - jdJ2000) / daysPerCentury
	gmst := 280.46061837 + 360.98564736629*(jd-jdJ2000) + 0.000387933*t*t - t*t*t/38710000
	return normDeg(gmst + lng)
}

// ascendant returns the ecliptic longitude rising on the eastern horizon
// for a local sidereal time, obliquity and geographic latitude (degrees).
func ascendant(lst, eps, lat float64) float64 {
	theta := rad(lst)
	e := rad(eps)
	phi := rad(lat)
	y := math.Cos(theta)
	x := -(math.Sin(theta)*math.Cos(e) + math.Tan(phi)*math.Sin(e))
	return normDeg(deg(math.Atan2(y, x)))
}

func normDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }
