// Package opengl implements render.Context on OpenGL 4.1 core.
// A GL context must be current on the calling goroutine; all methods are
// single-threaded like the underlying API.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"pano-engine/core"
	"pano-engine/math"
	"pano-engine/render"
)

type geometry struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	hasIndices bool
	vertCount  int32
}

// Context is the OpenGL backend.
type Context struct {
	maxTexSize int32

	geometries  map[render.GeometryID]*geometry
	framebufTex map[render.FramebufferID]render.TextureID

	nextGeometry uint32
}

// NewContext initialises OpenGL. Must be called after the GLFW window
// context is made current.
func NewContext() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	c := &Context{
		geometries:  make(map[render.GeometryID]*geometry),
		framebufTex: make(map[render.FramebufferID]render.TextureID),
	}
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &c.maxTexSize)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return c, nil
}

// Version returns the GL version string, for startup logging.
func (c *Context) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (c *Context) MaxTextureSize() int { return int(c.maxTexSize) }

// ── Programs ─────────────────────────────────────────────────────────────────

func (c *Context) CompileProgram(vertexSrc, fragmentSrc string) (render.ProgramID, error) {
	prog, err := newProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return 0, err
	}
	return render.ProgramID(prog), nil
}

func (c *Context) UseProgram(id render.ProgramID) {
	gl.UseProgram(uint32(id))
}

func (c *Context) BoundProgram() render.ProgramID {
	var prog int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &prog)
	return render.ProgramID(prog)
}

func (c *Context) DeleteProgram(id render.ProgramID) {
	gl.DeleteProgram(uint32(id))
}

func (c *Context) UniformLocation(program render.ProgramID, name string) render.UniformLocation {
	loc := gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00"))
	return render.UniformLocation(loc)
}

func (c *Context) SetUniformInt(loc render.UniformLocation, v int32) {
	gl.Uniform1i(int32(loc), v)
}

func (c *Context) SetUniformFloat(loc render.UniformLocation, v float32) {
	gl.Uniform1f(int32(loc), v)
}

func (c *Context) SetUniformVec2(loc render.UniformLocation, x, y float32) {
	gl.Uniform2f(int32(loc), x, y)
}

func (c *Context) SetUniformVec3(loc render.UniformLocation, v math.Vec3) {
	gl.Uniform3f(int32(loc), v.X, v.Y, v.Z)
}

func (c *Context) SetUniformMat4(loc render.UniformLocation, m math.Mat4) {
	gl.UniformMatrix4fv(int32(loc), 1, false, (*float32)(unsafe.Pointer(&m[0][0])))
}

// ── Textures ─────────────────────────────────────────────────────────────────

func (c *Context) CreateTexture(width, height int, pixels []byte) (render.TextureID, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	var ptr unsafe.Pointer
	if pixels != nil {
		ptr = gl.Ptr(pixels)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height),
		0, gl.RGBA, gl.UNSIGNED_BYTE, ptr)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if glErr := gl.GetError(); glErr != gl.NO_ERROR {
		gl.DeleteTextures(1, &tex)
		return 0, fmt.Errorf("texture %dx%d: GL error 0x%04x", width, height, glErr)
	}
	return render.TextureID(tex), nil
}

// UploadTexture replaces the texture contents. Dimensions may differ from
// the previous upload; TexImage2D reallocates the storage in that case.
func (c *Context) UploadTexture(id render.TextureID, width, height int, pixels []byte) error {
	gl.BindTexture(gl.TEXTURE_2D, uint32(id))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height),
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if glErr := gl.GetError(); glErr != gl.NO_ERROR {
		return fmt.Errorf("texture upload %dx%d: GL error 0x%04x", width, height, glErr)
	}
	return nil
}

func (c *Context) BindTexture(unit int, id render.TextureID) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(id))
}

func (c *Context) DeleteTexture(id render.TextureID) {
	tex := uint32(id)
	gl.DeleteTextures(1, &tex)
}

// ── Framebuffers ─────────────────────────────────────────────────────────────

func (c *Context) CreateRenderTarget(width, height int) (render.FramebufferID, render.TextureID, error) {
	tex, err := c.CreateTexture(width, height, nil)
	if err != nil {
		return 0, 0, err
	}

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
		gl.TEXTURE_2D, uint32(tex), 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		c.DeleteTexture(tex)
		return 0, 0, fmt.Errorf("render target %dx%d incomplete: 0x%04x", width, height, status)
	}

	id := render.FramebufferID(fbo)
	c.framebufTex[id] = tex
	return id, tex, nil
}

func (c *Context) BindFramebuffer(fb render.FramebufferID) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
}

// DeleteFramebuffer frees the framebuffer and its colour attachment.
func (c *Context) DeleteFramebuffer(fb render.FramebufferID) {
	fbo := uint32(fb)
	gl.DeleteFramebuffers(1, &fbo)
	if tex, ok := c.framebufTex[fb]; ok {
		c.DeleteTexture(tex)
		delete(c.framebufTex, fb)
	}
}

func (c *Context) BoundFramebuffer() render.FramebufferID {
	var fb int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &fb)
	return render.FramebufferID(fb)
}

func (c *Context) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (c *Context) ViewportRect() (x, y, width, height int) {
	var vp [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &vp[0])
	return int(vp[0]), int(vp[1]), int(vp[2]), int(vp[3])
}

func (c *Context) ClearColor(col core.Color) {
	gl.ClearColor(col.R, col.G, col.B, col.A)
}

func (c *Context) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ── Geometry ─────────────────────────────────────────────────────────────────

func (c *Context) UploadGeometry(data core.MeshData) (render.GeometryID, error) {
	if len(data.Vertices) == 0 {
		return 0, fmt.Errorf("empty geometry")
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))
	g := &geometry{
		indexCount: int32(len(data.Indices)),
		hasIndices: len(data.Indices) > 0,
		vertCount:  int32(len(data.Vertices)),
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.GenBuffers(1, &g.vbo)
	gl.BindVertexArray(g.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(data.Vertices)*int(stride),
		gl.Ptr(data.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	posOff := int(unsafe.Offsetof(v.Position))
	normOff := int(unsafe.Offsetof(v.Normal))
	uvOff := int(unsafe.Offsetof(v.UV))

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(posOff))

	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(normOff))

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(uvOff))

	if g.hasIndices {
		gl.GenBuffers(1, &g.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(data.Indices)*4,
			gl.Ptr(data.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	c.nextGeometry++
	id := render.GeometryID(c.nextGeometry)
	c.geometries[id] = g
	return id, nil
}

func (c *Context) DrawGeometry(id render.GeometryID) {
	g, ok := c.geometries[id]
	if !ok {
		return
	}
	gl.BindVertexArray(g.vao)
	if g.hasIndices {
		gl.DrawElements(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, g.vertCount)
	}
	gl.BindVertexArray(0)
}

func (c *Context) DeleteGeometry(id render.GeometryID) {
	g, ok := c.geometries[id]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	if g.hasIndices {
		gl.DeleteBuffers(1, &g.ebo)
	}
	delete(c.geometries, id)
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %v", log)
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
