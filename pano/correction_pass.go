package pano

import (
	"fmt"

	"pano-engine/core"
	"pano-engine/math"
	"pano-engine/projection"
	"pano-engine/render"
)

// CorrectionPass owns one framebuffer with a persistent corrected render
// target, the correction shader, and a static fullscreen quad. All
// allocation happens at construction; Render only mutates the target in
// place, and Destroy releases everything exactly once.
type CorrectionPass struct {
	fbo     render.FramebufferID
	target  render.TextureID
	program render.ProgramID
	quad    render.GeometryID

	outW, outH int

	locTexture    render.UniformLocation
	locMode       render.UniformLocation
	locRotYPR     render.UniformLocation
	locHFov       render.UniformLocation
	locVFov       render.UniformLocation
	locFisheyeFov render.UniformLocation
	locImgSize    render.UniformLocation

	destroyed bool
}

// fullscreenQuad covers clip space with two triangles; UVs span the
// output 0..1 with v=0 on the first texture row.
func fullscreenQuad() core.MeshData {
	return core.MeshData{
		Vertices: []core.Vertex{
			{Position: math.Vec3{X: -1, Y: -1}, UV: math.Vec2{X: 0, Y: 0}},
			{Position: math.Vec3{X: 1, Y: -1}, UV: math.Vec2{X: 1, Y: 0}},
			{Position: math.Vec3{X: 1, Y: 1}, UV: math.Vec2{X: 1, Y: 1}},
			{Position: math.Vec3{X: -1, Y: 1}, UV: math.Vec2{X: 0, Y: 1}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// NewCorrectionPass allocates the pass's GPU objects. On failure nothing
// leaks: objects created earlier in the call are freed before the error
// returns.
func NewCorrectionPass(ctx render.Context, outW, outH int) (*CorrectionPass, error) {
	program, err := ctx.CompileProgram(correctionVertSrc, correctionFragSrc)
	if err != nil {
		return nil, fmt.Errorf("correction shader: %w", err)
	}

	quad, err := ctx.UploadGeometry(fullscreenQuad())
	if err != nil {
		ctx.DeleteProgram(program)
		return nil, fmt.Errorf("%w: correction quad: %v", ErrResourceAllocation, err)
	}

	fbo, target, err := ctx.CreateRenderTarget(outW, outH)
	if err != nil {
		ctx.DeleteGeometry(quad)
		ctx.DeleteProgram(program)
		return nil, fmt.Errorf("%w: %dx%d render target: %v", ErrResourceAllocation, outW, outH, err)
	}

	return &CorrectionPass{
		fbo:     fbo,
		target:  target,
		program: program,
		quad:    quad,
		outW:    outW,
		outH:    outH,

		locTexture:    ctx.UniformLocation(program, "uTexture"),
		locMode:       ctx.UniformLocation(program, "uMode"),
		locRotYPR:     ctx.UniformLocation(program, "uRotYPR"),
		locHFov:       ctx.UniformLocation(program, "uHFov"),
		locVFov:       ctx.UniformLocation(program, "uVFov"),
		locFisheyeFov: ctx.UniformLocation(program, "uFisheyeFov"),
		locImgSize:    ctx.UniformLocation(program, "uImgSize"),
	}, nil
}

// Target is the corrected texture. Owned by the pass; it stays valid
// until Destroy.
func (p *CorrectionPass) Target() render.TextureID { return p.target }

// OutputSize reports the fixed render target dimensions.
func (p *CorrectionPass) OutputSize() (w, h int) { return p.outW, p.outH }

// Render re-corrects input into the owned target: one fullscreen draw
// running the direction mapping per output pixel. The previously bound
// framebuffer, viewport and program are restored before returning, so a
// mesh draw that triggers this mid-frame continues with the state it set
// up and its later uniform writes land on its own program.
func (p *CorrectionPass) Render(ctx render.Context, input render.TextureID, inW, inH int, params projection.CorrectionParams) error {
	if p.destroyed {
		return fmt.Errorf("correction pass: render after destroy")
	}

	prevFB := ctx.BoundFramebuffer()
	prevProgram := ctx.BoundProgram()
	px, py, pw, ph := ctx.ViewportRect()

	ctx.BindFramebuffer(p.fbo)
	ctx.Viewport(0, 0, p.outW, p.outH)
	ctx.ClearColor(core.ColorBlack)
	ctx.Clear()

	ctx.UseProgram(p.program)
	ctx.SetUniformInt(p.locTexture, 0)
	ctx.SetUniformInt(p.locMode, int32(params.Mode))
	ctx.SetUniformVec3(p.locRotYPR, params.RotationYPR())
	ctx.SetUniformFloat(p.locHFov, float32(projection.Radians(params.HFov)))
	ctx.SetUniformFloat(p.locVFov, float32(projection.Radians(params.VFov)))
	ctx.SetUniformFloat(p.locFisheyeFov, float32(projection.Radians(params.FisheyeFov)))
	ctx.SetUniformVec2(p.locImgSize, float32(inW), float32(inH))

	ctx.BindTexture(0, input)
	ctx.DrawGeometry(p.quad)

	ctx.BindFramebuffer(prevFB)
	ctx.Viewport(px, py, pw, ph)
	ctx.UseProgram(prevProgram)
	return nil
}

// Destroy deletes the quad, the shader program and the framebuffer with
// its target texture. Idempotent; Render fails after this.
func (p *CorrectionPass) Destroy(ctx render.Context) {
	if p.destroyed {
		return
	}
	p.destroyed = true
	ctx.DeleteGeometry(p.quad)
	ctx.DeleteProgram(p.program)
	ctx.DeleteFramebuffer(p.fbo)
}
