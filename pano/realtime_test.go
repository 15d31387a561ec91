package pano

import (
	"errors"
	"testing"

	"pano-engine/math"
	"pano-engine/projection"
	"pano-engine/render/rendertest"
	"pano-engine/scene"
)

func TestRealtimeProjectionStaticImage(t *testing.T) {
	ctx := rendertest.New()
	opts := DefaultOptions()
	opts.Params.Mode = projection.ModeFisheye
	opts.Params.FisheyeFov = 190

	rp := NewRealtimeProjection(opts)
	mesh, err := rp.CreateMesh(ctx, &scene.Texture{
		Name: "fish", Width: 32, Height: 32, Pixels: rgbaFrame(32, 32),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mesh.Draw(ctx, math.Mat4Identity()); err != nil {
		t.Fatal(err)
	}

	if got := ctx.Uniform("uMode"); got != int32(projection.ModeFisheye) {
		t.Fatalf("uMode = %v, want %d", got, projection.ModeFisheye)
	}
	wantFov := float32(projection.Radians(190))
	if got := ctx.Uniform("uFisheyeFov"); got != wantFov {
		t.Fatalf("uFisheyeFov = %v, want %v", got, wantFov)
	}
	if got := ctx.Uniform("uImgSize"); got != [2]float32{32, 32} {
		t.Fatalf("uImgSize = %v, want [32 32]", got)
	}

	// No offscreen pass exists in the realtime strategy.
	if n := offscreenDraws(ctx); n != 0 {
		t.Fatalf("offscreen draws = %d, want 0", n)
	}
	if ctx.TotalFramebufferDeletes() != 0 && len(ctx.Framebuffers) != 0 {
		t.Fatal("realtime strategy must not allocate framebuffers")
	}

	mesh.Destroy(ctx)
	if ctx.LiveTextures() != 0 || ctx.LivePrograms() != 0 {
		t.Fatalf("teardown leaked: %d textures, %d programs live",
			ctx.LiveTextures(), ctx.LivePrograms())
	}
}

func TestRealtimeProjectionParamUpdates(t *testing.T) {
	ctx := rendertest.New()
	rp := NewRealtimeProjection(DefaultOptions())
	mesh, err := rp.CreateMesh(ctx, &scene.Texture{
		Name: "pano", Width: 16, Height: 8, Pixels: rgbaFrame(16, 8),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mesh.Draw(ctx, math.Mat4Identity()); err != nil {
		t.Fatal(err)
	}

	// After the first draw everything is clean; a yaw change must dirty
	// the rotation vector and nothing else among the parameter uniforms.
	clear(ctx.UniformValues)
	rp.SetYaw(45)
	if err := mesh.Draw(ctx, math.Mat4Identity()); err != nil {
		t.Fatal(err)
	}
	if _, ok := ctx.Uniform("uRotYPR").(math.Vec3); !ok {
		t.Fatal("yaw change must rewrite uRotYPR")
	}
	if ctx.Uniform("uHFov") != nil || ctx.Uniform("uMode") != nil || ctx.Uniform("uImgSize") != nil {
		t.Fatalf("yaw change rewrote unrelated uniforms: %v", ctx.UniformValues)
	}
	want := rp.Params().RotationYPR()
	if got := ctx.Uniform("uRotYPR").(math.Vec3); got != want {
		t.Fatalf("uRotYPR = %v, want %v", got, want)
	}

	// A batched patch lands atomically on the next draw.
	mode := projection.ModeFisheye
	fov := 170.0
	clear(ctx.UniformValues)
	rp.Apply(ParamUpdate{Mode: &mode, FisheyeFov: &fov})
	if err := mesh.Draw(ctx, math.Mat4Identity()); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Uniform("uMode"); got != int32(projection.ModeFisheye) {
		t.Fatalf("uMode = %v after patch", got)
	}
	if got := ctx.Uniform("uFisheyeFov"); got != float32(projection.Radians(170)) {
		t.Fatalf("uFisheyeFov = %v after patch", got)
	}
	if p := rp.Params(); p.Mode != projection.ModeFisheye || p.FisheyeFov != 170 {
		t.Fatalf("params not merged: %+v", p)
	}

	mesh.Destroy(ctx)
}

func TestRealtimeProjectionVideoPlaceholder(t *testing.T) {
	ctx := rendertest.New()
	video := &fakeVideo{w: 24, h: 12, frame: rgbaFrame(24, 12)}
	rp := NewRealtimeProjection(DefaultOptions())

	mesh, err := rp.CreateMesh(ctx, scene.NewVideoTexture("cam", video))
	if err != nil {
		t.Fatal(err)
	}

	// Before the first frame the mesh draws a 1x1 opaque black
	// placeholder and reports its size honestly.
	if err := mesh.Draw(ctx, math.Mat4Identity()); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Uniform("uImgSize"); got != [2]float32{1, 1} {
		t.Fatalf("uImgSize before first frame = %v, want [1 1]", got)
	}
	var placeholder *rendertest.Texture
	for _, tex := range ctx.Textures {
		placeholder = tex
	}
	if placeholder == nil || placeholder.Width != 1 || placeholder.Height != 1 {
		t.Fatalf("placeholder texture = %+v, want 1x1", placeholder)
	}
	if string(placeholder.Pixels) != string([]byte{0, 0, 0, 255}) {
		t.Fatalf("placeholder pixels = %v, want opaque black", placeholder.Pixels)
	}

	// First frame replaces the placeholder contents in the same texture
	// object and updates uImgSize.
	video.ready = true
	if err := mesh.Draw(ctx, math.Mat4Identity()); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Uniform("uImgSize"); got != [2]float32{24, 12} {
		t.Fatalf("uImgSize after first frame = %v, want [24 12]", got)
	}
	if placeholder.Width != 24 || placeholder.Height != 12 {
		t.Fatalf("frame upload went to a new texture; placeholder still %dx%d",
			placeholder.Width, placeholder.Height)
	}
	uploadsAfterFirst := placeholder.Uploads

	// The source stays live once ready: pausing does not stop the
	// per-draw upload, the held frame just repeats.
	video.paused = true
	if err := mesh.Draw(ctx, math.Mat4Identity()); err != nil {
		t.Fatal(err)
	}
	if placeholder.Uploads != uploadsAfterFirst+1 {
		t.Fatalf("uploads while paused = %d, want %d (one per draw)",
			placeholder.Uploads, uploadsAfterFirst+1)
	}

	mesh.Destroy(ctx)
	if ctx.LiveTextures() != 0 {
		t.Fatalf("teardown leaked %d textures", ctx.LiveTextures())
	}
}

func TestRealtimeProjectionRejectsCube(t *testing.T) {
	ctx := rendertest.New()
	rp := NewRealtimeProjection(DefaultOptions())
	_, err := rp.CreateMesh(ctx, &scene.Texture{Name: "env", Kind: scene.KindCube})
	if !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("got %v, want ErrUnsupportedSource", err)
	}
	if ctx.LivePrograms() != 0 || ctx.LiveTextures() != 0 {
		t.Fatal("rejected source must not allocate")
	}
}
