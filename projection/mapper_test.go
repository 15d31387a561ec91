package projection

import (
	stdmath "math"
	"testing"

	"pano-engine/math"
)

// Straight ahead on a full 180x90 ERP source must land on the exact image
// center: ((width-1)/2, (height-1)/2).
func TestDirectionToERPPixelCenter(t *testing.T) {
	u, v, ok := DirectionToERPPixel(math.Vec3Front, Radians(180), Radians(90), 4096, 2048)
	if !ok {
		t.Fatal("center direction reported outside coverage")
	}
	if stdmath.Abs(u-2047.5) > 0.01 || stdmath.Abs(v-1023.5) > 0.01 {
		t.Errorf("center: expected (2047.5, 1023.5), got (%v, %v)", u, v)
	}
}

func TestDirectionToERPPixelCoverage(t *testing.T) {
	hfov := Radians(180)
	vfov := Radians(90)
	cases := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"inside", 0.3, 0.2, true},
		{"on lon edge", hfov / 2, 0, true}, // strictly greater rejects, edge stays valid
		{"on negative lon edge", -hfov / 2, 0, true},
		{"past lon edge", hfov/2 + 1e-3, 0, false},
		{"on lat edge", 0, vfov / 2, true},
		{"on negative lat edge", 0, -vfov / 2, true},
		{"past lat edge", 0, vfov/2 + 1e-3, false},
		{"behind", stdmath.Pi - 0.1, 0, false},
	}
	for _, tc := range cases {
		dir := DirectionFromLonLat(tc.lon, tc.lat)
		_, _, ok := DirectionToERPPixel(dir, hfov, vfov, 1920, 960)
		if ok != tc.want {
			t.Errorf("%s: lon=%v lat=%v: valid=%v, want %v", tc.name, tc.lon, tc.lat, ok, tc.want)
		}
	}
}

// Pixel -> direction -> pixel recovers the original direction everywhere
// inside coverage, away from the lon = +-pi seam.
func TestERPRoundTrip(t *testing.T) {
	hfov := Radians(320)
	vfov := Radians(160)
	w, h := 2048, 1024

	for _, lon := range []float64{-1.5, -0.7, 0, 0.4, 1.2} {
		for _, lat := range []float64{-1.2, -0.4, 0, 0.5, 1.1} {
			dir := DirectionFromLonLat(lon, lat)
			u, v, ok := DirectionToERPPixel(dir, hfov, vfov, w, h)
			if !ok {
				t.Fatalf("lon=%v lat=%v unexpectedly outside coverage", lon, lat)
			}
			back := ERPPixelToDirection(u, v, hfov, vfov, w, h)
			if back.Sub(dir).Length() > 1e-3 {
				t.Errorf("round trip lon=%v lat=%v: %v -> %v", lon, lat, dir, back)
			}
		}
	}
}

func TestFisheyeRadiusMonotonic(t *testing.T) {
	fov := Radians(170)
	w, h := 2160, 2160
	centerU := float64(w) / 2
	centerV := float64(h) / 2

	// r(0) = 0: the optical axis hits the image center.
	u, v, ok := DirectionToFisheyePixel(math.Vec3Front, fov, w, h)
	if !ok || stdmath.Abs(u-centerU) > 1e-6 || stdmath.Abs(v-centerV) > 1e-6 {
		t.Fatalf("optical axis: expected image center, got (%v, %v) ok=%v", u, v, ok)
	}

	prev := -1.0
	for i := 1; i < 40; i++ { // stop short of fov/2, where the pixel hits the excluded image edge
		theta := float64(i) / 40 * fov / 2
		// Direction at angle theta from the axis, in the x/z plane.
		dir := math.Vec3{X: float32(stdmath.Sin(theta)), Z: float32(stdmath.Cos(theta))}
		u, v, ok := DirectionToFisheyePixel(dir, fov, w, h)
		if !ok {
			t.Fatalf("theta=%v within fov/2 reported invalid", theta)
		}
		r := stdmath.Hypot(u-centerU, v-centerV)
		if r <= prev {
			t.Fatalf("r(theta) not monotonic at theta=%v: r=%v, prev=%v", theta, r, prev)
		}
		prev = r
	}
}

func TestFisheyeBackHemisphereInvalid(t *testing.T) {
	if _, _, ok := DirectionToFisheyePixel(math.Vec3Back, Radians(180), 1000, 1000); ok {
		t.Error("back hemisphere must have no coverage")
	}
	if _, _, ok := DirectionToFisheyePixel(math.Vec3{X: 1, Z: -0.01}, Radians(180), 1000, 1000); ok {
		t.Error("dir.z <= 0 must have no coverage")
	}
}

// A direction at exactly theta = fov/2 sits on the lens edge and is
// still covered; just past it is not.
func TestFisheyeLensEdge(t *testing.T) {
	fov := Radians(170)
	w, h := 1000, 1000

	edgeDir := func(theta float64) math.Vec3 {
		sinT := stdmath.Sin(theta)
		diag := stdmath.Sqrt2 / 2 // angle pi/4, away from the excluded image edges
		return math.Vec3{
			X: float32(sinT * diag),
			Y: float32(-sinT * diag),
			Z: float32(stdmath.Cos(theta)),
		}
	}

	if _, _, ok := DirectionToFisheyePixel(edgeDir(fov/2), fov, w, h); !ok {
		t.Error("direction on the lens edge reported outside coverage")
	}
	if _, _, ok := DirectionToFisheyePixel(edgeDir(fov/2+1e-3), fov, w, h); ok {
		t.Error("direction past the lens edge reported covered")
	}
}

func TestFisheyeRoundTrip(t *testing.T) {
	fov := Radians(190)
	w, h := 1440, 1080

	for _, theta := range []float64{0.1, 0.5, 0.9, 1.3} {
		for _, angle := range []float64{-2.5, -1.0, 0, 0.8, 2.9} {
			sinT := stdmath.Sin(theta)
			dir := math.Vec3{
				X: float32(sinT * stdmath.Sin(angle)),
				Y: float32(-sinT * stdmath.Cos(angle)),
				Z: float32(stdmath.Cos(theta)),
			}
			u, v, ok := DirectionToFisheyePixel(dir, fov, w, h)
			if !ok {
				continue // fell off the short image edge, nothing to invert
			}
			back, ok := FisheyePixelToDirection(u, v, fov, w, h)
			if !ok {
				t.Fatalf("inverse rejected a pixel the forward mapping produced (theta=%v)", theta)
			}
			if back.Sub(dir).Length() > 1e-3 {
				t.Errorf("round trip theta=%v angle=%v: %v -> %v", theta, angle, dir, back)
			}
		}
	}
}

// The inverse rotation used by the samplers undoes the forward rotation:
// mapping through R then sampling with Rt recovers the unrotated pixel.
func TestRotationForwardInverseConsistency(t *testing.T) {
	p := DefaultParams()
	p.Yaw = 35
	p.Pitch = -20
	p.Roll = 10

	r := p.Rotation()
	inv := r.Transpose()

	src := DirectionFromLonLat(0.4, -0.3)
	world := r.MulVec3(src)
	back := inv.MulVec3(world)
	if back.Sub(src).Length() > 1e-5 {
		t.Errorf("Rt(R d) != d: %v -> %v", src, back)
	}
}
