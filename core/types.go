package core

import (
	"pano-engine/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorRed   = Color{1, 0, 0, 1}
)

// RGBA8 converts the color to one tightly packed RGBA8 pixel.
func (c Color) RGBA8() []byte {
	conv := func(v float32) byte {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return byte(v*255 + 0.5)
	}
	return []byte{conv(c.R), conv(c.G), conv(c.B), conv(c.A)}
}

// Vertex is the interleaved vertex layout shared by every panorama mesh.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
}

// MeshData holds CPU-side geometry before GPU upload.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}
