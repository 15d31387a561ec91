// panoview displays a wide-angle panorama source (image or video) on an
// immersive sphere, re-projected through the configured yaw/pitch/roll
// and field-of-view correction.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	stdmath "math"
	"os"
	"strings"
	"time"

	"pano-engine/core"
	"pano-engine/internal/opengl"
	"pano-engine/math"
	"pano-engine/pano"
	"pano-engine/projection"
	"pano-engine/render"
	"pano-engine/scene"
	"pano-engine/video"
)

type projectionStrategy interface {
	CreateMesh(ctx render.Context, tex *scene.Texture) (*render.Mesh, error)
}

// planeDistance puts the 2-unit-tall flat plane fully inside a 75 degree
// vertical view.
const planeDistance = 2.5

func main() {
	src := flag.String("src", "", "panorama source: image path or video URI (file://, rtsp://, http://)")
	mode := flag.String("mode", "erp", "source projection: erp or fisheye")
	strategy := flag.String("strategy", "fbo", "correction strategy: fbo or realtime")
	yaw := flag.Float64("yaw", 0, "yaw correction in degrees")
	pitch := flag.Float64("pitch", 0, "pitch correction in degrees")
	roll := flag.Float64("roll", 0, "roll correction in degrees")
	hfov := flag.Float64("hfov", 360, "horizontal field of view of the source in degrees")
	vfov := flag.Float64("vfov", 180, "vertical field of view of the source in degrees")
	fisheyeFov := flag.Float64("fisheye-fov", 180, "fisheye field of view in degrees")
	flat := flag.Bool("flat", false, "project onto a flat plane instead of a sphere")
	outW := flag.Int("out-width", 4096, "corrected render target width (fbo strategy)")
	outH := flag.Int("out-height", 2048, "corrected render target height (fbo strategy)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *src == "" {
		fmt.Fprintln(os.Stderr, "panoview: -src is required")
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*src, *mode, *strategy, pano.Options{
		Params: projection.CorrectionParams{
			Yaw: *yaw, Pitch: *pitch, Roll: *roll,
			HFov: *hfov, VFov: *vfov, FisheyeFov: *fisheyeFov,
		},
		FlatProjection: *flat,
		OutputWidth:    *outW,
		OutputHeight:   *outH,
	}); err != nil {
		slog.Error("panoview failed", "error", err)
		os.Exit(1)
	}
}

func run(src, mode, strategy string, opts pano.Options) error {
	m, err := projection.ParseMode(mode)
	if err != nil {
		return err
	}
	opts.Params.Mode = m

	window, err := core.NewWindow(core.DefaultWindowConfig())
	if err != nil {
		return err
	}
	defer window.Destroy()

	ctx, err := opengl.NewContext()
	if err != nil {
		return err
	}
	slog.Info("opengl ready", "version", ctx.Version(), "max_texture_size", ctx.MaxTextureSize())

	tex, closeSource, err := openSource(src)
	if err != nil {
		return err
	}
	defer closeSource()

	var realtime *pano.RealtimeProjection
	var proj projectionStrategy
	switch strategy {
	case "fbo":
		proj = pano.NewVideoCorrectionProjection(opts)
	case "realtime":
		realtime = pano.NewRealtimeProjection(opts)
		proj = realtime
	default:
		return fmt.Errorf("unknown strategy %q (want fbo or realtime)", strategy)
	}

	mesh, err := proj.CreateMesh(ctx, tex)
	if err != nil {
		return err
	}
	defer mesh.Destroy(ctx)

	slog.Info("panorama ready",
		"source", src, "mode", m.String(), "strategy", strategy,
		"hfov", opts.Params.HFov, "vfov", opts.Params.VFov)

	var camYaw, camPitch float32
	last := time.Now()
	for !window.ShouldClose() {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		window.PollEvents()
		if window.IsKeyPressed(core.KeyEscape) {
			return nil
		}
		handleLook(window, &camYaw, &camPitch, dt)
		if realtime != nil {
			handleParamKeys(window, realtime, dt)
		}

		w, h := window.GetFramebufferSize()
		ctx.BindFramebuffer(render.FramebufferDefault)
		ctx.Viewport(0, 0, w, h)
		ctx.ClearColor(core.ColorBlack)
		ctx.Clear()

		mvp := viewProjection(camYaw, camPitch, w, h)
		if opts.FlatProjection {
			// The plane sits ahead of the viewer instead of around them.
			mvp = math.Mat4Translation(math.Vec3{Z: planeDistance}).Mul(mvp)
		}
		if err := mesh.Draw(ctx, mvp); err != nil {
			slog.Warn("draw failed", "error", err)
		}

		window.SwapBuffers()
	}
	return nil
}

// openSource decides image vs video from the source string. URIs with a
// scheme and common video extensions go through GStreamer; everything
// else is decoded as a still image.
func openSource(src string) (*scene.Texture, func(), error) {
	if isVideoSource(src) {
		uri := src
		if !strings.Contains(uri, "://") {
			abs, err := os.Getwd()
			if err == nil && !strings.HasPrefix(uri, "/") {
				uri = abs + "/" + uri
			}
			uri = "file://" + uri
		}
		vs, err := video.Open(uri)
		if err != nil {
			return nil, nil, err
		}
		return scene.NewVideoTexture(src, vs), func() { vs.Close() }, nil
	}
	tex, err := scene.LoadTexture(src)
	if err != nil {
		return nil, nil, err
	}
	return tex, func() {}, nil
}

func isVideoSource(src string) bool {
	for _, scheme := range []string{"rtsp://", "http://", "https://", "file://"} {
		if strings.HasPrefix(src, scheme) {
			return true
		}
	}
	for _, ext := range []string{".mp4", ".mkv", ".mov", ".avi", ".webm", ".ts"} {
		if strings.HasSuffix(strings.ToLower(src), ext) {
			return true
		}
	}
	return false
}

// handleLook rotates the camera with the arrow keys.
func handleLook(window *core.Window, camYaw, camPitch *float32, dt float32) {
	const lookSpeed = 60.0 // degrees per second
	if window.IsKeyPressed(core.KeyLeft) {
		*camYaw -= lookSpeed * dt
	}
	if window.IsKeyPressed(core.KeyRight) {
		*camYaw += lookSpeed * dt
	}
	if window.IsKeyPressed(core.KeyUp) {
		*camPitch += lookSpeed * dt
	}
	if window.IsKeyPressed(core.KeyDown) {
		*camPitch -= lookSpeed * dt
	}
	if *camPitch > 89 {
		*camPitch = 89
	}
	if *camPitch < -89 {
		*camPitch = -89
	}
}

// handleParamKeys adjusts the correction yaw live with A/D, pitch with
// W/S. Only meaningful with the realtime strategy.
func handleParamKeys(window *core.Window, rp *pano.RealtimeProjection, dt float32) {
	const speed = 45.0 // degrees per second
	p := rp.Params()
	if window.IsKeyPressed(int('A')) {
		rp.SetYaw(p.Yaw - float64(speed*dt))
	}
	if window.IsKeyPressed(int('D')) {
		rp.SetYaw(p.Yaw + float64(speed*dt))
	}
	if window.IsKeyPressed(int('W')) {
		rp.SetPitch(p.Pitch + float64(speed*dt))
	}
	if window.IsKeyPressed(int('S')) {
		rp.SetPitch(p.Pitch - float64(speed*dt))
	}
}

// viewProjection builds the camera MVP for a viewer standing at the
// sphere's center.
func viewProjection(camYaw, camPitch float32, w, h int) math.Mat4 {
	yawRad := float64(camYaw) * stdmath.Pi / 180
	pitchRad := float64(camPitch) * stdmath.Pi / 180
	dir := math.Vec3{
		X: float32(stdmath.Cos(pitchRad) * stdmath.Sin(yawRad)),
		Y: float32(stdmath.Sin(pitchRad)),
		Z: float32(stdmath.Cos(pitchRad) * stdmath.Cos(yawRad)),
	}
	eye := math.Vec3{}
	view := math.Mat4LookAt(eye, dir, math.Vec3{Y: 1})
	aspect := float32(1)
	if h > 0 {
		aspect = float32(w) / float32(h)
	}
	proj := math.Mat4Perspective(75*stdmath.Pi/180, aspect, 0.1, 100)
	return view.Mul(proj)
}
