package pano

import (
	"pano-engine/core"
	"pano-engine/scene"
)

const (
	sphereRadius   = 10
	sphereSegments = 64
	sphereRings    = 32
)

// panoGeometry picks the display surface: an inward-facing sphere for
// immersive viewing, or a flat plane sized to the corrected field of
// view's aspect ratio.
func panoGeometry(opts Options) core.MeshData {
	if opts.FlatProjection {
		h := float32(2.0)
		aspect := float32(1.0)
		if opts.Params.VFov > 0 {
			aspect = float32(opts.Params.HFov / opts.Params.VFov)
		}
		return scene.PanoramaPlane(h*aspect, h, 1)
	}
	return scene.PanoramaSphere(sphereRadius, sphereSegments, sphereRings)
}
