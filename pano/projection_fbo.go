package pano

import (
	"fmt"

	"pano-engine/projection"
	"pano-engine/render"
	"pano-engine/scene"
)

// Options configures a projection instance. Correction parameters are
// fixed for the FBO-backed projections (changing them means rebuilding
// the mesh); the realtime projection treats Params as its initial state.
type Options struct {
	Params projection.CorrectionParams

	// FlatProjection renders onto a flat plane instead of a sphere.
	FlatProjection bool

	// Output dimensions of the corrected render target (FBO strategy
	// only). Zero values fall back to 4096x2048.
	OutputWidth  int
	OutputHeight int
}

// DefaultOptions is a full-sphere ERP correction into a 4096x2048 target.
func DefaultOptions() Options {
	return Options{
		Params:       projection.DefaultParams(),
		OutputWidth:  4096,
		OutputHeight: 2048,
	}
}

func (o Options) outputSize() (w, h int) {
	w, h = o.OutputWidth, o.OutputHeight
	if w <= 0 {
		w = 4096
	}
	if h <= 0 {
		h = 2048
	}
	return w, h
}

// CorrectionProjection is the offscreen strategy for static images: the
// source is corrected exactly once into a persistent render target, and
// the mesh samples only the target. Video sources are rejected; use
// VideoCorrectionProjection for those.
type CorrectionProjection struct {
	opts Options
}

func NewCorrectionProjection(opts Options) *CorrectionProjection {
	return &CorrectionProjection{opts: opts}
}

// CreateMesh validates the source, runs the one-shot correction and
// returns a sphere (or plane) mesh sampling the corrected target.
// Destroying the mesh destroys the correction pass exactly once.
func (cp *CorrectionProjection) CreateMesh(ctx render.Context, tex *scene.Texture) (*render.Mesh, error) {
	switch tex.Kind {
	case scene.KindCube:
		return nil, fmt.Errorf("%w: cube textures cannot be wide-angle corrected", ErrUnsupportedSource)
	case scene.KindVideo:
		return nil, fmt.Errorf("%w: video source passed to the static-image projection", ErrUnsupportedSource)
	}
	if err := validateCorrectionDims(ctx, tex.Width, tex.Height, cp.opts); err != nil {
		return nil, err
	}

	outW, outH := cp.opts.outputSize()
	pass, err := NewCorrectionPass(ctx, outW, outH)
	if err != nil {
		return nil, err
	}

	// Plain 2D texture, uploaded unflipped: the correction shader's
	// coordinate convention assumes the source as stored.
	input, err := ctx.CreateTexture(tex.Width, tex.Height, tex.Pixels)
	if err != nil {
		pass.Destroy(ctx)
		return nil, fmt.Errorf("%w: %dx%d input texture: %v", ErrResourceAllocation, tex.Width, tex.Height, err)
	}

	if err := pass.Render(ctx, input, tex.Width, tex.Height, cp.opts.Params); err != nil {
		ctx.DeleteTexture(input)
		pass.Destroy(ctx)
		return nil, err
	}

	// One-shot: the source lives on only inside the corrected target.
	ctx.DeleteTexture(input)

	guard := render.NewReleaseGuard(func(c render.Context) { pass.Destroy(c) })
	return buildCorrectedMesh(ctx, pass, nil, guard, cp.opts)
}

// VideoCorrectionProjection is the offscreen strategy for video (and,
// degenerately, images): every frame the current video image is uploaded
// into an owned input texture and re-corrected into the render target
// before the main draw samples it.
type VideoCorrectionProjection struct {
	opts Options
}

func NewVideoCorrectionProjection(opts Options) *VideoCorrectionProjection {
	return &VideoCorrectionProjection{opts: opts}
}

// videoCorrector is the refresh strategy injected into the mesh's render
// target uniform. It owns the input texture the frames are uploaded to.
type videoCorrector struct {
	pass   *CorrectionPass
	video  scene.VideoSource
	params projection.CorrectionParams

	input       render.TextureID
	inW, inH    int
	initialized bool
}

// refresh implements the per-frame protocol: not ready keeps the last
// corrected contents; paused-and-initialized skips the redundant
// re-correction; anything else re-uploads at the video's current
// dimensions and re-renders the pass.
func (vc *videoCorrector) refresh(ctx render.Context) error {
	if !vc.video.Ready() {
		return nil
	}
	if vc.initialized && vc.video.Paused() {
		return nil
	}

	w, h := vc.video.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	if limit := ctx.MaxTextureSize(); w > limit || h > limit {
		return fmt.Errorf("%w: video frame %dx%d exceeds max texture size %d",
			ErrDimensionExceedsLimit, w, h, limit)
	}

	frame := vc.video.Frame()
	if vc.input == 0 {
		input, err := ctx.CreateTexture(w, h, frame)
		if err != nil {
			return fmt.Errorf("%w: video input texture: %v", ErrResourceAllocation, err)
		}
		vc.input = input
	} else {
		// Dimensions may change between frames (adaptive video);
		// UploadTexture reallocates when they do.
		if err := ctx.UploadTexture(vc.input, w, h, frame); err != nil {
			return err
		}
	}
	vc.inW, vc.inH = w, h

	if err := vc.pass.Render(ctx, vc.input, w, h, vc.params); err != nil {
		return err
	}
	vc.initialized = true
	return nil
}

// release frees in teardown order: input texture first, then the pass.
func (vc *videoCorrector) release(ctx render.Context) {
	if vc.input != 0 {
		ctx.DeleteTexture(vc.input)
		vc.input = 0
	}
	vc.pass.Destroy(ctx)
}

// CreateMesh wires a live render-target uniform whose update call drives
// the video correction protocol.
func (vp *VideoCorrectionProjection) CreateMesh(ctx render.Context, tex *scene.Texture) (*render.Mesh, error) {
	if tex.Kind == scene.KindCube {
		return nil, fmt.Errorf("%w: cube textures cannot be wide-angle corrected", ErrUnsupportedSource)
	}
	if tex.Kind != scene.KindVideo {
		// Static sources take the one-shot path.
		return NewCorrectionProjection(vp.opts).CreateMesh(ctx, tex)
	}
	if tex.Video == nil {
		return nil, fmt.Errorf("%w: video texture %q has no source", ErrUnsupportedSource, tex.Name)
	}
	// Input dimensions are validated per frame (they may change);
	// output dimensions are fixed and checked now.
	if err := validateCorrectionDims(ctx, 0, 0, vp.opts); err != nil {
		return nil, err
	}

	outW, outH := vp.opts.outputSize()
	pass, err := NewCorrectionPass(ctx, outW, outH)
	if err != nil {
		return nil, err
	}

	vc := &videoCorrector{pass: pass, video: tex.Video, params: vp.opts.Params}
	guard := render.NewReleaseGuard(vc.release)
	return buildCorrectedMesh(ctx, pass, vc.refresh, guard, vp.opts)
}

// validateCorrectionDims checks input (when known up front) and output
// dimensions against the device limit before any allocation.
func validateCorrectionDims(ctx render.Context, inW, inH int, opts Options) error {
	limit := ctx.MaxTextureSize()
	if err := checkDimension("input width", inW, limit); err != nil {
		return err
	}
	if err := checkDimension("input height", inH, limit); err != nil {
		return err
	}
	outW, outH := opts.outputSize()
	if err := checkDimension("output width", outW, limit); err != nil {
		return err
	}
	return checkDimension("output height", outH, limit)
}

// buildCorrectedMesh assembles the sphere/plane mesh that samples the
// pass's render target. The mesh's render-target uniform holds the
// pass's release guard, so mesh teardown releases the pass exactly once
// even if several uniforms end up referencing it.
func buildCorrectedMesh(ctx render.Context, pass *CorrectionPass, refresh render.RenderTargetRefresh, guard *render.ReleaseGuard, opts Options) (*render.Mesh, error) {
	program, err := ctx.CompileProgram(meshVertSrc, correctedFragSrc)
	if err != nil {
		guard.Release(ctx)
		return nil, fmt.Errorf("corrected mesh shader: %w", err)
	}

	geometry, err := ctx.UploadGeometry(panoGeometry(opts))
	if err != nil {
		ctx.DeleteProgram(program)
		guard.Release(ctx)
		return nil, fmt.Errorf("%w: mesh geometry: %v", ErrResourceAllocation, err)
	}

	texLoc := ctx.UniformLocation(program, "uTexture")
	return &render.Mesh{
		Geometry: geometry,
		Program:  program,
		Uniforms: []render.Uniform{
			render.NewRenderTargetUniform(0, texLoc, pass.Target(), refresh, guard),
		},
		MVPLoc: ctx.UniformLocation(program, "uMVP"),
	}, nil
}
