package pano

import (
	"fmt"

	"pano-engine/core"
	"pano-engine/projection"
	"pano-engine/render"
	"pano-engine/scene"
)

// ParamUpdate is a partial change to a realtime projection's correction
// parameters. Nil fields are left untouched, so a caller can patch a
// single angle without knowing the rest of the state.
type ParamUpdate struct {
	Mode       *projection.Mode
	Yaw        *float64
	Pitch      *float64
	Roll       *float64
	HFov       *float64
	VFov       *float64
	FisheyeFov *float64
}

// RealtimeProjection corrects inside the mesh's own fragment shader on
// every draw, so parameter changes take effect on the next frame without
// re-rendering an offscreen target. Costs shader work per frame; the FBO
// strategies pay once instead.
type RealtimeProjection struct {
	opts   Options
	params projection.CorrectionParams

	mode       *render.IntUniform
	rotation   *render.VectorUniform
	hfov       *render.ScalarUniform
	vfov       *render.ScalarUniform
	fisheyeFov *render.ScalarUniform
	imgSize    *render.VectorUniform
}

func NewRealtimeProjection(opts Options) *RealtimeProjection {
	return &RealtimeProjection{opts: opts, params: opts.Params}
}

// Params returns the current correction parameters.
func (rp *RealtimeProjection) Params() projection.CorrectionParams { return rp.params }

// Apply merges the patch into the current parameters and marks the
// affected uniforms dirty. Safe to call before CreateMesh; the mesh then
// starts from the merged state.
func (rp *RealtimeProjection) Apply(u ParamUpdate) {
	if u.Mode != nil {
		rp.params.Mode = *u.Mode
		if rp.mode != nil {
			rp.mode.Set(int32(*u.Mode))
		}
	}
	if u.Yaw != nil {
		rp.params.Yaw = *u.Yaw
	}
	if u.Pitch != nil {
		rp.params.Pitch = *u.Pitch
	}
	if u.Roll != nil {
		rp.params.Roll = *u.Roll
	}
	if (u.Yaw != nil || u.Pitch != nil || u.Roll != nil) && rp.rotation != nil {
		rp.rotation.Set3(rp.params.RotationYPR())
	}
	if u.HFov != nil {
		rp.params.HFov = *u.HFov
		if rp.hfov != nil {
			rp.hfov.Set(float32(projection.Radians(*u.HFov)))
		}
	}
	if u.VFov != nil {
		rp.params.VFov = *u.VFov
		if rp.vfov != nil {
			rp.vfov.Set(float32(projection.Radians(*u.VFov)))
		}
	}
	if u.FisheyeFov != nil {
		rp.params.FisheyeFov = *u.FisheyeFov
		if rp.fisheyeFov != nil {
			rp.fisheyeFov.Set(float32(projection.Radians(*u.FisheyeFov)))
		}
	}
}

func (rp *RealtimeProjection) SetMode(m projection.Mode) { rp.Apply(ParamUpdate{Mode: &m}) }
func (rp *RealtimeProjection) SetYaw(deg float64)        { rp.Apply(ParamUpdate{Yaw: &deg}) }
func (rp *RealtimeProjection) SetPitch(deg float64)      { rp.Apply(ParamUpdate{Pitch: &deg}) }
func (rp *RealtimeProjection) SetRoll(deg float64)       { rp.Apply(ParamUpdate{Roll: &deg}) }
func (rp *RealtimeProjection) SetHFov(deg float64)       { rp.Apply(ParamUpdate{HFov: &deg}) }
func (rp *RealtimeProjection) SetVFov(deg float64)       { rp.Apply(ParamUpdate{VFov: &deg}) }
func (rp *RealtimeProjection) SetFisheyeFov(deg float64) { rp.Apply(ParamUpdate{FisheyeFov: &deg}) }

// CreateMesh builds the sphere/plane mesh whose fragment shader performs
// the correction. Static images upload once; video sources start from a
// 1x1 placeholder and go live when the first frame arrives.
func (rp *RealtimeProjection) CreateMesh(ctx render.Context, tex *scene.Texture) (*render.Mesh, error) {
	if tex.Kind == scene.KindCube {
		return nil, fmt.Errorf("%w: cube textures cannot be wide-angle corrected", ErrUnsupportedSource)
	}

	var source *render.TextureUniform
	var imgW, imgH float32

	program, err := ctx.CompileProgram(meshVertSrc, realtimeFragSrc)
	if err != nil {
		return nil, fmt.Errorf("realtime correction shader: %w", err)
	}

	texLoc := ctx.UniformLocation(program, "uTexture")
	switch tex.Kind {
	case scene.KindVideo:
		if tex.Video == nil {
			ctx.DeleteProgram(program)
			return nil, fmt.Errorf("%w: video texture %q has no source", ErrUnsupportedSource, tex.Name)
		}
		// Opaque black placeholder until the first frame; keeps the
		// mesh drawable immediately.
		placeholder, err := ctx.CreateTexture(1, 1, core.ColorBlack.RGBA8())
		if err != nil {
			ctx.DeleteProgram(program)
			return nil, fmt.Errorf("%w: video placeholder texture: %v", ErrResourceAllocation, err)
		}
		imgW, imgH = 1, 1
		source = render.NewLiveTextureUniform(0, texLoc, placeholder, rp.videoRefresh(tex.Video))
	default:
		if err := checkDimension("input width", tex.Width, ctx.MaxTextureSize()); err != nil {
			ctx.DeleteProgram(program)
			return nil, err
		}
		if err := checkDimension("input height", tex.Height, ctx.MaxTextureSize()); err != nil {
			ctx.DeleteProgram(program)
			return nil, err
		}
		input, err := ctx.CreateTexture(tex.Width, tex.Height, tex.Pixels)
		if err != nil {
			ctx.DeleteProgram(program)
			return nil, fmt.Errorf("%w: %dx%d input texture: %v", ErrResourceAllocation, tex.Width, tex.Height, err)
		}
		imgW, imgH = float32(tex.Width), float32(tex.Height)
		source = render.NewTextureUniform(0, texLoc, input, true)
	}

	geometry, err := ctx.UploadGeometry(panoGeometry(rp.opts))
	if err != nil {
		source.Destroy(ctx)
		ctx.DeleteProgram(program)
		return nil, fmt.Errorf("%w: mesh geometry: %v", ErrResourceAllocation, err)
	}

	rp.mode = render.NewIntUniform(ctx.UniformLocation(program, "uMode"), int32(rp.params.Mode))
	rp.rotation = render.NewVec3Uniform(ctx.UniformLocation(program, "uRotYPR"), rp.params.RotationYPR())
	rp.hfov = render.NewScalarUniform(ctx.UniformLocation(program, "uHFov"), float32(projection.Radians(rp.params.HFov)))
	rp.vfov = render.NewScalarUniform(ctx.UniformLocation(program, "uVFov"), float32(projection.Radians(rp.params.VFov)))
	rp.fisheyeFov = render.NewScalarUniform(ctx.UniformLocation(program, "uFisheyeFov"), float32(projection.Radians(rp.params.FisheyeFov)))
	rp.imgSize = render.NewVec2Uniform(ctx.UniformLocation(program, "uImgSize"), imgW, imgH)

	return &render.Mesh{
		Geometry: geometry,
		Program:  program,
		Uniforms: []render.Uniform{
			source, rp.mode, rp.rotation, rp.hfov, rp.vfov, rp.fisheyeFov, rp.imgSize,
		},
		MVPLoc: ctx.UniformLocation(program, "uMVP"),
	}, nil
}

// videoRefresh builds the per-frame upload strategy for a video-backed
// realtime mesh. Once the source is ready every update re-uploads the
// current frame, paused or not; uImgSize tracks the real dimensions.
func (rp *RealtimeProjection) videoRefresh(video scene.VideoSource) render.TextureRefresh {
	return func(ctx render.Context, u *render.TextureUniform) error {
		if !video.Ready() {
			return nil
		}
		w, h := video.Size()
		if w <= 0 || h <= 0 {
			return nil
		}
		if limit := ctx.MaxTextureSize(); w > limit || h > limit {
			return fmt.Errorf("%w: video frame %dx%d exceeds max texture size %d",
				ErrDimensionExceedsLimit, w, h, limit)
		}
		if err := ctx.UploadTexture(u.Texture(), w, h, video.Frame()); err != nil {
			return err
		}
		if rp.imgSize != nil {
			cur := rp.imgSize.Value()
			if cur.X != float32(w) || cur.Y != float32(h) {
				rp.imgSize.Set2(float32(w), float32(h))
			}
		}
		return nil
	}
}
