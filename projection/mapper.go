package projection

import (
	stdmath "math"

	"pano-engine/math"
)

// edgeEps absorbs float32 quantization: a direction constructed exactly
// on the coverage edge can round-trip to an angle a few ulps past it.
const edgeEps = 1e-6

// DirectionToERPPixel maps a viewing direction to a source pixel under
// the equirectangular convention. hfov/vfov are the configured source
// coverage in radians. ok is false when the direction falls outside the
// coverage or the resulting pixel lands outside [0,width) x [0,height).
func DirectionToERPPixel(dir math.Vec3, hfov, vfov float64, width, height int) (u, v float64, ok bool) {
	d := dir.Normalize()
	lon := stdmath.Atan2(float64(d.X), float64(d.Z))
	lat := stdmath.Asin(clamp(float64(d.Y), -1, 1))

	// Strictly greater: the coverage edge itself is still valid.
	if stdmath.Abs(lon) > hfov/2+edgeEps || stdmath.Abs(lat) > vfov/2+edgeEps {
		return 0, 0, false
	}
	lon = clamp(lon, -hfov/2, hfov/2)
	lat = clamp(lat, -vfov/2, vfov/2)

	u = (lon/hfov + 0.5) * float64(width-1)
	v = (0.5 - lat/vfov) * float64(height-1)
	if u < 0 || u >= float64(width) || v < 0 || v >= float64(height) {
		return 0, 0, false
	}
	return u, v, true
}

// ERPPixelToDirection is the algebraic inverse of DirectionToERPPixel.
// It returns a unit direction in source space; tooling that needs the
// world-space direction applies the forward rotation R afterwards (not
// its inverse, since R maps source space back into viewing space).
func ERPPixelToDirection(u, v, hfov, vfov float64, width, height int) math.Vec3 {
	lon := (u/float64(width-1) - 0.5) * hfov
	lat := (0.5 - v/float64(height-1)) * vfov
	cosLat := stdmath.Cos(lat)
	return math.Vec3{
		X: float32(cosLat * stdmath.Sin(lon)),
		Y: float32(stdmath.Sin(lat)),
		Z: float32(cosLat * stdmath.Cos(lon)),
	}
}

// DirectionToFisheyePixel maps a viewing direction to a source pixel
// under the equidistant fisheye model r = f*theta. fov is the lens field
// of view in radians. The back hemisphere (dir.z <= 0) has no coverage.
func DirectionToFisheyePixel(dir math.Vec3, fov float64, width, height int) (u, v float64, ok bool) {
	d := dir.Normalize()
	if d.Z <= 0 {
		return 0, 0, false
	}
	theta := stdmath.Acos(clamp(float64(d.Z), -1, 1))
	if theta > fov/2+edgeEps {
		return 0, 0, false
	}
	theta = stdmath.Min(theta, fov/2)

	focal := fisheyeFocal(fov, width, height)
	r := focal * theta
	angle := stdmath.Atan2(float64(d.X), float64(-d.Y))

	u = float64(width)/2 + r*stdmath.Sin(angle)
	v = float64(height)/2 + r*stdmath.Cos(angle)
	if u < 0 || u >= float64(width) || v < 0 || v >= float64(height) {
		return 0, 0, false
	}
	return u, v, true
}

// FisheyePixelToDirection inverts DirectionToFisheyePixel. ok is false
// when the pixel lies beyond the lens field of view.
func FisheyePixelToDirection(u, v, fov float64, width, height int) (math.Vec3, bool) {
	du := u - float64(width)/2
	dv := v - float64(height)/2
	focal := fisheyeFocal(fov, width, height)
	theta := stdmath.Hypot(du, dv) / focal
	if theta > fov/2 {
		return math.Vec3{}, false
	}

	angle := stdmath.Atan2(du, dv)
	sinTheta := stdmath.Sin(theta)
	return math.Vec3{
		X: float32(sinTheta * stdmath.Sin(angle)),
		Y: float32(-sinTheta * stdmath.Cos(angle)),
		Z: float32(stdmath.Cos(theta)),
	}, true
}

// fisheyeFocal is the equidistant focal length in pixels: the image circle
// radius min(w,h)/2 covers half the field of view.
func fisheyeFocal(fov float64, width, height int) float64 {
	side := width
	if height < side {
		side = height
	}
	return float64(side) / 2 / (fov / 2)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
