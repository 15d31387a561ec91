package projection

import (
	"image"
	"image/color"
	stdmath "math"
	"testing"
)

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Correcting a solid red source must produce pure red everywhere the
// mapping has coverage and transparent black everywhere it does not.
func TestCorrectSolidRedCoverage(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	src := solidRGBA(2, 2, red)

	p := DefaultParams()
	p.HFov = 180
	p.VFov = 90
	p.Yaw = 15
	p.Pitch = -5

	outW, outH := 64, 32
	out := Correct(src, p, outW, outH)

	hfov := Radians(p.HFov)
	vfov := Radians(p.VFov)
	inv := p.Rotation().Transpose()

	covered, empty := 0, 0
	for y := 0; y < outH; y++ {
		lat := (0.5 - (float64(y)+0.5)/float64(outH)) * stdmath.Pi
		for x := 0; x < outW; x++ {
			lon := ((float64(x)+0.5)/float64(outW) - 0.5) * 2 * stdmath.Pi
			sdir := inv.MulVec3(DirectionFromLonLat(lon, lat))
			_, _, ok := DirectionToERPPixel(sdir, hfov, vfov, 2, 2)

			got := out.RGBAAt(x, y)
			if ok {
				covered++
				if got != red {
					t.Fatalf("pixel (%d,%d) inside coverage: got %v, want pure red", x, y, got)
				}
			} else {
				empty++
				if got != (color.RGBA{}) {
					t.Fatalf("pixel (%d,%d) outside coverage: got %v, want transparent black", x, y, got)
				}
			}
		}
	}
	if covered == 0 || empty == 0 {
		t.Fatalf("degenerate scenario: covered=%d empty=%d", covered, empty)
	}
}

// A full-sphere ERP source with identity rotation corrects to itself:
// every output pixel has coverage.
func TestCorrectFullSphereFullCoverage(t *testing.T) {
	c := color.RGBA{10, 200, 30, 255}
	src := solidRGBA(8, 4, c)
	out := Correct(src, DefaultParams(), 32, 16)

	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			if out.RGBAAt(x, y) != c {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, out.RGBAAt(x, y), c)
			}
		}
	}
}

// Fisheye pixel coordinates are continuous with centers at half-integers,
// so the nearest sample floors instead of rounding. A 4x4 source with
// distinct columns catches a half-pixel shift that solid colors hide: the
// chosen output pixel maps to u = 2.81, inside column 2.
func TestCorrectFisheyeSamplingConvention(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	green := color.RGBA{0, 255, 0, 255}
	src := solidRGBA(4, 4, color.RGBA{0, 0, 255, 255})
	for y := 0; y < 4; y++ {
		src.SetRGBA(2, y, red)
		src.SetRGBA(3, y, green)
	}

	p := DefaultParams()
	p.Mode = ModeFisheye
	p.FisheyeFov = 180

	out := Correct(src, p, 64, 31)

	if got := out.RGBAAt(38, 15); got != red {
		t.Errorf("pixel (38,15): got %v, want %v from source column 2", got, red)
	}
}

func TestCorrectFisheyeCenter(t *testing.T) {
	c := color.RGBA{0, 0, 255, 255}
	src := solidRGBA(4, 4, c)

	p := DefaultParams()
	p.Mode = ModeFisheye
	p.FisheyeFov = 180

	out := Correct(src, p, 32, 16)

	// The forward direction is well inside the fisheye coverage.
	if got := out.RGBAAt(16, 8); got != c {
		t.Errorf("forward direction: got %v, want %v", got, c)
	}
	// Straight behind has none.
	if got := out.RGBAAt(0, 8); got != (color.RGBA{}) {
		t.Errorf("backward direction: got %v, want transparent black", got)
	}
}
