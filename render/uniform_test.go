package render_test

import (
	"testing"

	"pano-engine/math"
	"pano-engine/render"
	"pano-engine/render/rendertest"
)

func TestValueUniformsGoCleanAfterUpdate(t *testing.T) {
	ctx := rendertest.New()
	prog, _ := ctx.CompileProgram("v", "f")

	scalar := render.NewScalarUniform(ctx.UniformLocation(prog, "uHFov"), 1.5)
	vec := render.NewVec3Uniform(ctx.UniformLocation(prog, "uRot"), math.Vec3{X: 1})

	for _, u := range []render.Uniform{scalar, vec} {
		if !u.NeedsUpdate() {
			t.Fatal("fresh uniform must start dirty")
		}
		if err := u.Update(ctx); err != nil {
			t.Fatal(err)
		}
		if u.NeedsUpdate() {
			t.Fatal("uniform still dirty after update")
		}
	}

	scalar.Set(2.0)
	if !scalar.NeedsUpdate() {
		t.Fatal("Set must dirty the uniform")
	}
	vec.Set3(math.Vec3{Y: 1})
	if !vec.NeedsUpdate() {
		t.Fatal("Set3 must dirty the uniform")
	}
}

func TestTextureUniformOwnership(t *testing.T) {
	ctx := rendertest.New()
	prog, _ := ctx.CompileProgram("v", "f")
	loc := ctx.UniformLocation(prog, "uTexture")

	tex, _ := ctx.CreateTexture(2, 2, make([]byte, 16))
	owned := render.NewTextureUniform(1, loc, tex, true)
	if err := owned.Update(ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.BoundUnits[1] != tex {
		t.Fatalf("texture not bound to unit 1: %v", ctx.BoundUnits)
	}
	if got := ctx.Uniform("uTexture"); got != int32(1) {
		t.Fatalf("sampler uniform = %v, want unit index 1", got)
	}
	owned.Destroy(ctx)
	owned.Destroy(ctx)
	if ctx.TextureDeletes[tex] != 1 {
		t.Fatalf("owned texture deletes = %d, want exactly 1", ctx.TextureDeletes[tex])
	}

	shared, _ := ctx.CreateTexture(2, 2, nil)
	borrowed := render.NewTextureUniform(0, loc, shared, false)
	borrowed.Destroy(ctx)
	if ctx.TextureDeletes[shared] != 0 {
		t.Fatal("borrowed texture must survive uniform destruction")
	}
}

func TestLiveTextureUniformStaysDirty(t *testing.T) {
	ctx := rendertest.New()
	prog, _ := ctx.CompileProgram("v", "f")
	tex, _ := ctx.CreateTexture(1, 1, nil)

	refreshes := 0
	u := render.NewLiveTextureUniform(0, ctx.UniformLocation(prog, "uTexture"), tex,
		func(render.Context, *render.TextureUniform) error {
			refreshes++
			return nil
		})

	for i := 0; i < 3; i++ {
		if !u.NeedsUpdate() {
			t.Fatal("live uniform must stay dirty")
		}
		if err := u.Update(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if refreshes != 3 {
		t.Fatalf("refresh strategy ran %d times, want 3", refreshes)
	}
}

func TestReleaseGuardFiresExactlyOnce(t *testing.T) {
	releases := 0
	g := render.NewReleaseGuard(func(render.Context) { releases++ })
	g.Retain()
	g.Retain()

	ctx := rendertest.New()
	g.Release(ctx)
	g.Release(ctx)
	if releases != 0 || g.Released() {
		t.Fatal("released before the last reference dropped")
	}
	g.Release(ctx)
	if releases != 1 || !g.Released() {
		t.Fatalf("releases = %d after last reference, want 1", releases)
	}
	g.Release(ctx)
	if releases != 1 {
		t.Fatalf("release fired again: %d", releases)
	}
}

func TestReleaseGuardRetainAfterReleasePanics(t *testing.T) {
	g := render.NewReleaseGuard(func(render.Context) {})
	g.Release(rendertest.New())
	defer func() {
		if recover() == nil {
			t.Fatal("Retain after release must panic")
		}
	}()
	g.Retain()
}
