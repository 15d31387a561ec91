// Package projection holds the wide-angle correction math shared by the
// CPU side (offscreen pass setup, the reference corrector, tooling) and
// the GPU side (the GLSL in package pano mirrors these functions). The
// two must stay numerically identical or the offscreen and realtime
// strategies diverge visually.
package projection

import (
	"fmt"
	stdmath "math"

	"pano-engine/math"
)

// Mode selects the source image convention. The numeric values are the
// wire contract with the uMode shader uniform.
type Mode int

const (
	ModeERP     Mode = 0 // equirectangular: position linear in lon/lat
	ModeFisheye Mode = 1 // equidistant fisheye: radius linear in theta
)

func (m Mode) String() string {
	switch m {
	case ModeERP:
		return "erp"
	case ModeFisheye:
		return "fisheye"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps the external configuration strings "erp" and "fisheye".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "erp":
		return ModeERP, nil
	case "fisheye":
		return ModeFisheye, nil
	}
	return ModeERP, fmt.Errorf("unknown projection mode %q (want \"erp\" or \"fisheye\")", s)
}

// CorrectionParams describes one correction invocation. All angles are in
// degrees. HFov/VFov apply to ERP sources, FisheyeFov to fisheye sources.
// Immutable per invocation; the realtime projection holds its own live
// copy and mutates it through patches.
type CorrectionParams struct {
	Mode       Mode
	Yaw        float64
	Pitch      float64
	Roll       float64
	HFov       float64
	VFov       float64
	FisheyeFov float64
}

// DefaultParams covers a full-sphere ERP source with no rotation.
func DefaultParams() CorrectionParams {
	return CorrectionParams{
		Mode:       ModeERP,
		HFov:       360,
		VFov:       180,
		FisheyeFov: 180,
	}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * stdmath.Pi / 180
}

// RotationYPR returns the (yaw, pitch, roll) rotation vector in radians
// with yaw and pitch negated, exactly the value carried by the uRotYPR
// uniform. The sign flip makes the user-facing convention match the
// intuitive drag direction.
func (p CorrectionParams) RotationYPR() math.Vec3 {
	return math.Vec3{
		X: float32(-Radians(p.Yaw)),
		Y: float32(-Radians(p.Pitch)),
		Z: float32(Radians(p.Roll)),
	}
}

// Rotation builds the forward rotation matrix R from the negated-angle
// vector. Source-space directions rotate into viewing space through R;
// the correction samplers apply its transpose.
func (p CorrectionParams) Rotation() math.Mat3 {
	r := p.RotationYPR()
	return math.Mat3RotationYPR(r.X, r.Y, r.Z)
}
