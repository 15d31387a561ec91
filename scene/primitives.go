package scene

import (
	stdmath "math"

	"pano-engine/core"
	"pano-engine/math"
)

// PanoramaSphere generates a UV sphere meant to be viewed from inside:
// normals point inward and triangles wind so the inner faces are the
// front faces. UVs are equirectangular: u linear in longitude, v linear
// in latitude with v=0 at the top, matching the corrected panorama
// layout the projection shaders produce.
func PanoramaSphere(radius float32, segments, rings int) core.MeshData {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	var vertices []core.Vertex
	var indices []uint32

	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * stdmath.Pi / float64(rings)
		sinPhi := float32(stdmath.Sin(phi))
		cosPhi := float32(stdmath.Cos(phi))

		for seg := 0; seg <= segments; seg++ {
			// Chosen so the vertex direction equals the (lon, lat) the
			// projection shaders derive from its UV: u=0.5 faces +Z,
			// increasing u sweeps east (+X).
			theta := (0.75 - float64(seg)/float64(segments)) * 2.0 * stdmath.Pi
			sinTheta := float32(stdmath.Sin(theta))
			cosTheta := float32(stdmath.Cos(theta))

			outward := math.Vec3{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			vertices = append(vertices, core.Vertex{
				Position: outward.Mul(radius),
				Normal:   outward.Negate(),
				UV:       math.Vec2{X: float32(seg) / float32(segments), Y: float32(ring) / float32(rings)},
			})
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)

			// Reversed winding relative to an outside-viewed sphere.
			indices = append(indices, current, current+1, next)
			indices = append(indices, current+1, next+1, next)
		}
	}

	return core.MeshData{Vertices: vertices, Indices: indices}
}

// PanoramaPlane generates a flat, camera-facing quad grid in the XY
// plane for flat projection mode. UVs run u left-to-right, v top-down,
// the same texture convention as the sphere.
func PanoramaPlane(width, height float32, subdivisions int) core.MeshData {
	if subdivisions < 1 {
		subdivisions = 1
	}

	var vertices []core.Vertex
	var indices []uint32

	halfW := width / 2.0
	halfH := height / 2.0

	for row := 0; row <= subdivisions; row++ {
		for col := 0; col <= subdivisions; col++ {
			u := float32(col) / float32(subdivisions)
			v := float32(row) / float32(subdivisions)

			vertices = append(vertices, core.Vertex{
				Position: math.Vec3{
					X: -halfW + u*width,
					Y: halfH - v*height,
					Z: 0,
				},
				Normal: math.Vec3Back,
				UV:     math.Vec2{X: u, Y: v},
			})
		}
	}

	for row := 0; row < subdivisions; row++ {
		for col := 0; col < subdivisions; col++ {
			topLeft := uint32(row*(subdivisions+1) + col)
			topRight := topLeft + 1
			bottomLeft := topLeft + uint32(subdivisions+1)
			bottomRight := bottomLeft + 1

			indices = append(indices, topLeft, bottomLeft, topRight)
			indices = append(indices, topRight, bottomLeft, bottomRight)
		}
	}

	return core.MeshData{Vertices: vertices, Indices: indices}
}
