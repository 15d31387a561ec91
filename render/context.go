// Package render defines the GPU-call surface the panorama projections
// are written against. The real implementation lives in internal/opengl;
// tests run against the resource-tracking fake in rendertest.
package render

import (
	"pano-engine/core"
	"pano-engine/math"
)

// Opaque GPU object handles minted by a Context implementation. A zero
// handle is never a live object.
type (
	ProgramID       uint32
	TextureID       uint32
	FramebufferID   uint32
	GeometryID      uint32
	UniformLocation int32
)

// FramebufferDefault is the visible surface.
const FramebufferDefault FramebufferID = 0

// Context is the rendering context collaborator: it owns GPU object
// allocation and the small set of state changes the projections need.
// All calls must happen on the thread driving the render loop.
type Context interface {
	// MaxTextureSize is the device limit for any texture dimension.
	// Input and output dimensions are validated against it before any
	// allocation.
	MaxTextureSize() int

	CompileProgram(vertexSrc, fragmentSrc string) (ProgramID, error)
	UseProgram(ProgramID)
	// BoundProgram reports the program currently in use, so offscreen
	// passes running mid-draw can restore the caller's program.
	BoundProgram() ProgramID
	DeleteProgram(ProgramID)
	UniformLocation(program ProgramID, name string) UniformLocation

	SetUniformInt(UniformLocation, int32)
	SetUniformFloat(UniformLocation, float32)
	SetUniformVec2(loc UniformLocation, x, y float32)
	SetUniformVec3(UniformLocation, math.Vec3)
	SetUniformMat4(UniformLocation, math.Mat4)

	// CreateTexture allocates a plain (non-immutable) RGBA8 2D texture.
	// pixels is tightly packed row-major top-to-bottom and is uploaded as
	// given, without any vertical flip; nil leaves the texture
	// uninitialized.
	CreateTexture(width, height int, pixels []byte) (TextureID, error)
	// UploadTexture replaces the texture contents, reallocating storage
	// when the dimensions changed since the previous upload.
	UploadTexture(id TextureID, width, height int, pixels []byte) error
	BindTexture(unit int, id TextureID)
	DeleteTexture(TextureID)

	// CreateRenderTarget allocates a framebuffer with a fresh RGBA8 color
	// attachment. Deleting the framebuffer also deletes the attachment.
	CreateRenderTarget(width, height int) (FramebufferID, TextureID, error)
	BindFramebuffer(FramebufferID)
	DeleteFramebuffer(FramebufferID)
	// BoundFramebuffer and ViewportRect report current state so offscreen
	// passes can restore what they found.
	BoundFramebuffer() FramebufferID
	ViewportRect() (x, y, width, height int)
	Viewport(x, y, width, height int)
	ClearColor(core.Color)
	Clear()

	UploadGeometry(data core.MeshData) (GeometryID, error)
	DrawGeometry(GeometryID)
	DeleteGeometry(GeometryID)
}
