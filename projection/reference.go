package projection

import (
	"image"
	stdmath "math"

	"pano-engine/math"
)

// Correct renders the corrected equirectangular panorama on the CPU,
// pixel for pixel the same mapping the correction fragment shader runs on
// the GPU: output pixel -> corrected-sphere (lon, lat) -> world direction
// -> inverse rotation -> source sample. Output pixels outside the source
// coverage are transparent black.
//
// The GPU path samples with linear filtering; this reference uses nearest
// sampling, which is exact on the constant-color inputs the tests feed it.
func Correct(src *image.RGBA, p CorrectionParams, outW, outH int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	srcW := src.Rect.Dx()
	srcH := src.Rect.Dy()
	inv := p.Rotation().Transpose()

	hfov := Radians(p.HFov)
	vfov := Radians(p.VFov)
	ffov := Radians(p.FisheyeFov)

	for y := 0; y < outH; y++ {
		lat := (0.5 - (float64(y)+0.5)/float64(outH)) * stdmath.Pi
		for x := 0; x < outW; x++ {
			lon := ((float64(x)+0.5)/float64(outW) - 0.5) * 2 * stdmath.Pi

			sdir := inv.MulVec3(DirectionFromLonLat(lon, lat))

			var u, v float64
			var ok bool
			if p.Mode == ModeFisheye {
				u, v, ok = DirectionToFisheyePixel(sdir, ffov, srcW, srcH)
			} else {
				u, v, ok = DirectionToERPPixel(sdir, hfov, vfov, srcW, srcH)
			}
			if !ok {
				continue // zero value is already transparent black
			}

			// The ERP mapper yields pixel indices (centers at integers);
			// the fisheye mapper yields continuous image-plane coordinates
			// (centers at half-integers). Nearest sample rounds the first
			// and floors the second, matching the GPU texture lookups.
			var sx, sy int
			if p.Mode == ModeFisheye {
				sx = int(u)
				sy = int(v)
			} else {
				sx = int(u + 0.5)
				sy = int(v + 0.5)
			}
			if sx >= srcW {
				sx = srcW - 1
			}
			if sy >= srcH {
				sy = srcH - 1
			}
			out.SetRGBA(x, y, src.RGBAAt(src.Rect.Min.X+sx, src.Rect.Min.Y+sy))
		}
	}
	return out
}

// DirectionFromLonLat converts a (lon, lat) pair in radians into a unit
// viewing direction, the sphere convention every mapper here shares:
// lon = atan2(x, z), lat = asin(y).
func DirectionFromLonLat(lon, lat float64) math.Vec3 {
	cosLat := stdmath.Cos(lat)
	return math.Vec3{
		X: float32(cosLat * stdmath.Sin(lon)),
		Y: float32(stdmath.Sin(lat)),
		Z: float32(cosLat * stdmath.Cos(lon)),
	}
}
