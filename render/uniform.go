package render

import "pano-engine/math"

// Uniform is a GPU-bound value with a dirty flag and an explicit release
// operation. Scalar and vector uniforms go clean after a successful
// update; render-target uniforms stay permanently dirty so the render
// loop keeps reaching them and mesh teardown is guaranteed to see their
// Destroy.
type Uniform interface {
	NeedsUpdate() bool
	Update(ctx Context) error
	Destroy(ctx Context)
}

// ── Scalar / vector values ───────────────────────────────────────────────────

type IntUniform struct {
	loc   UniformLocation
	value int32
	dirty bool
}

func NewIntUniform(loc UniformLocation, value int32) *IntUniform {
	return &IntUniform{loc: loc, value: value, dirty: true}
}

func (u *IntUniform) Set(value int32) {
	u.value = value
	u.dirty = true
}

func (u *IntUniform) NeedsUpdate() bool { return u.dirty }

func (u *IntUniform) Update(ctx Context) error {
	ctx.SetUniformInt(u.loc, u.value)
	u.dirty = false
	return nil
}

func (u *IntUniform) Destroy(Context) {}

type ScalarUniform struct {
	loc   UniformLocation
	value float32
	dirty bool
}

func NewScalarUniform(loc UniformLocation, value float32) *ScalarUniform {
	return &ScalarUniform{loc: loc, value: value, dirty: true}
}

func (u *ScalarUniform) Set(value float32) {
	u.value = value
	u.dirty = true
}

func (u *ScalarUniform) NeedsUpdate() bool { return u.dirty }

func (u *ScalarUniform) Update(ctx Context) error {
	ctx.SetUniformFloat(u.loc, u.value)
	u.dirty = false
	return nil
}

func (u *ScalarUniform) Destroy(Context) {}

// VectorUniform holds a vec2 or vec3 value; the size is fixed at
// construction.
type VectorUniform struct {
	loc   UniformLocation
	value math.Vec3
	size  int // 2 or 3
	dirty bool
}

func NewVec2Uniform(loc UniformLocation, x, y float32) *VectorUniform {
	return &VectorUniform{loc: loc, value: math.Vec3{X: x, Y: y}, size: 2, dirty: true}
}

func NewVec3Uniform(loc UniformLocation, v math.Vec3) *VectorUniform {
	return &VectorUniform{loc: loc, value: v, size: 3, dirty: true}
}

func (u *VectorUniform) Set2(x, y float32) {
	u.value = math.Vec3{X: x, Y: y}
	u.dirty = true
}

func (u *VectorUniform) Set3(v math.Vec3) {
	u.value = v
	u.dirty = true
}

// Value returns the current CPU-side value, whether or not it has been
// written to the GPU yet.
func (u *VectorUniform) Value() math.Vec3 { return u.value }

func (u *VectorUniform) NeedsUpdate() bool { return u.dirty }

func (u *VectorUniform) Update(ctx Context) error {
	if u.size == 2 {
		ctx.SetUniformVec2(u.loc, u.value.X, u.value.Y)
	} else {
		ctx.SetUniformVec3(u.loc, u.value)
	}
	u.dirty = false
	return nil
}

func (u *VectorUniform) Destroy(Context) {}

// ── Textures ─────────────────────────────────────────────────────────────────

// TextureRefresh runs before a texture uniform binds, giving video-backed
// textures a chance to upload the current frame. Injected as a strategy;
// nil means the texture contents never change after creation.
type TextureRefresh func(ctx Context, u *TextureUniform) error

// TextureUniform binds a 2D texture to a fixed unit. When owned, Destroy
// deletes the texture. alwaysDirty keeps the uniform on the update path
// every frame (video sources are always dirty).
type TextureUniform struct {
	unit        int
	loc         UniformLocation
	texture     TextureID
	owned       bool
	alwaysDirty bool
	refresh     TextureRefresh
	dirty       bool
}

func NewTextureUniform(unit int, loc UniformLocation, tex TextureID, owned bool) *TextureUniform {
	return &TextureUniform{unit: unit, loc: loc, texture: tex, owned: owned, dirty: true}
}

// NewLiveTextureUniform builds a permanently dirty texture uniform whose
// refresh strategy runs on every update.
func NewLiveTextureUniform(unit int, loc UniformLocation, tex TextureID, refresh TextureRefresh) *TextureUniform {
	return &TextureUniform{
		unit:        unit,
		loc:         loc,
		texture:     tex,
		owned:       true,
		alwaysDirty: true,
		refresh:     refresh,
		dirty:       true,
	}
}

// Texture returns the bound texture object.
func (u *TextureUniform) Texture() TextureID { return u.texture }

func (u *TextureUniform) NeedsUpdate() bool { return u.dirty || u.alwaysDirty }

func (u *TextureUniform) Update(ctx Context) error {
	if u.refresh != nil {
		if err := u.refresh(ctx, u); err != nil {
			return err
		}
	}
	ctx.BindTexture(u.unit, u.texture)
	ctx.SetUniformInt(u.loc, int32(u.unit))
	u.dirty = false
	return nil
}

func (u *TextureUniform) Destroy(ctx Context) {
	if u.owned && u.texture != 0 {
		ctx.DeleteTexture(u.texture)
		u.texture = 0
	}
}

// RenderTargetRefresh re-renders an offscreen target before it is
// sampled; the FBO video path injects its re-correction step here.
type RenderTargetRefresh func(ctx Context) error

// RenderTargetUniform samples a correction pass's render target. It does
// not own the target; Destroy forwards to the shared ReleaseGuard, which
// releases the owning pass when the last reference drops. NeedsUpdate is
// permanently true: the guarantee that Destroy eventually runs relies on
// the uniform never falling off the update path.
type RenderTargetUniform struct {
	unit    int
	loc     UniformLocation
	target  TextureID
	refresh RenderTargetRefresh
	guard   *ReleaseGuard
}

func NewRenderTargetUniform(unit int, loc UniformLocation, target TextureID, refresh RenderTargetRefresh, guard *ReleaseGuard) *RenderTargetUniform {
	return &RenderTargetUniform{unit: unit, loc: loc, target: target, refresh: refresh, guard: guard}
}

func (u *RenderTargetUniform) NeedsUpdate() bool { return true }

func (u *RenderTargetUniform) Update(ctx Context) error {
	if u.refresh != nil {
		if err := u.refresh(ctx); err != nil {
			return err
		}
	}
	ctx.BindTexture(u.unit, u.target)
	ctx.SetUniformInt(u.loc, int32(u.unit))
	return nil
}

func (u *RenderTargetUniform) Destroy(ctx Context) {
	u.guard.Release(ctx)
}

// ── Shared release ───────────────────────────────────────────────────────────

// ReleaseGuard gives a GPU resource a single authoritative owner with a
// reference count. The release function fires exactly once, when the last
// reference drops; further Release calls are no-ops. This replaces the
// pattern of handing each holder a mutable callback and nulling it after
// first use.
type ReleaseGuard struct {
	refs    int
	release func(Context)
}

func NewReleaseGuard(release func(Context)) *ReleaseGuard {
	return &ReleaseGuard{refs: 1, release: release}
}

// Retain adds a reference. Must not be called after the guard released.
func (g *ReleaseGuard) Retain() {
	if g.release == nil {
		panic("render: Retain on released ReleaseGuard")
	}
	g.refs++
}

func (g *ReleaseGuard) Release(ctx Context) {
	if g.release == nil {
		return
	}
	g.refs--
	if g.refs > 0 {
		return
	}
	release := g.release
	g.release = nil
	release(ctx)
}

// Released reports whether the resource has been freed.
func (g *ReleaseGuard) Released() bool { return g.release == nil }
