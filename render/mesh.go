package render

import "pano-engine/math"

// Mesh owns its geometry, shader program and uniform set. Destroying it
// cascades to every owned uniform, so offscreen render targets wired in
// through a RenderTargetUniform are released with the mesh.
type Mesh struct {
	Geometry GeometryID
	Program  ProgramID
	Uniforms []Uniform

	// MVPLoc is the uMVP location in Program, set per frame by the
	// caller through SetMVP.
	MVPLoc UniformLocation

	destroyed bool
}

// UpdateUniforms runs the update step of every dirty uniform. The program
// must be in use; texture uniforms bind their units here.
func (m *Mesh) UpdateUniforms(ctx Context) error {
	for _, u := range m.Uniforms {
		if !u.NeedsUpdate() {
			continue
		}
		if err := u.Update(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SetMVP writes the model-view-projection matrix. Caller is the render
// loop; the projections themselves never touch camera state.
func (m *Mesh) SetMVP(ctx Context, mvp math.Mat4) {
	ctx.SetUniformMat4(m.MVPLoc, mvp)
}

// Draw performs one frame: program, uniform updates, geometry.
func (m *Mesh) Draw(ctx Context, mvp math.Mat4) error {
	ctx.UseProgram(m.Program)
	m.SetMVP(ctx, mvp)
	if err := m.UpdateUniforms(ctx); err != nil {
		return err
	}
	ctx.DrawGeometry(m.Geometry)
	return nil
}

// Destroy releases every GPU resource the mesh owns: each uniform's
// Destroy, then the program, then the geometry. Safe to call once;
// further calls are no-ops.
func (m *Mesh) Destroy(ctx Context) {
	if m.destroyed {
		return
	}
	m.destroyed = true
	for _, u := range m.Uniforms {
		u.Destroy(ctx)
	}
	if m.Program != 0 {
		ctx.DeleteProgram(m.Program)
	}
	if m.Geometry != 0 {
		ctx.DeleteGeometry(m.Geometry)
	}
}
