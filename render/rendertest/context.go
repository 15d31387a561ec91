// Package rendertest provides a resource-tracking fake render.Context.
// It mints handles, remembers every allocation and deletion, and records
// uniform writes by name, so tests can assert call counts and lifecycle
// ordering without a GPU.
package rendertest

import (
	"fmt"

	"pano-engine/core"
	"pano-engine/math"
	"pano-engine/render"
)

// Texture is the fake's record of one texture object.
type Texture struct {
	Width  int
	Height int
	Pixels []byte
	// Uploads counts content uploads, the creation included when pixel
	// data was supplied.
	Uploads int
}

// Context implements render.Context entirely in memory.
type Context struct {
	// MaxSize is returned by MaxTextureSize. Defaults to 8192.
	MaxSize int

	// FailTextureCreate makes the next CreateTexture call fail, for
	// exercising allocation-failure cleanup paths.
	FailTextureCreate bool

	// FailTextureCreateAt makes the Nth CreateTexture call (1-based,
	// counted over the context's lifetime) fail. Zero disables it.
	FailTextureCreateAt int

	textureCreates int

	nextID uint32

	Programs        map[render.ProgramID]string // vertex+fragment source
	ProgramDeletes  map[render.ProgramID]int
	ActiveProgram   render.ProgramID
	Textures        map[render.TextureID]*Texture
	TextureDeletes  map[render.TextureID]int
	Framebuffers    map[render.FramebufferID]render.TextureID
	FBDeletes       map[render.FramebufferID]int
	Geometries      map[render.GeometryID]core.MeshData
	GeometryDeletes map[render.GeometryID]int

	boundFB    render.FramebufferID
	viewport   [4]int
	BoundUnits map[int]render.TextureID

	// LastClearColor is the color most recently passed to ClearColor.
	LastClearColor core.Color

	// UniformValues records the last value written per uniform name.
	UniformValues map[string]any
	// DrawCalls records every DrawGeometry in order, with the
	// framebuffer that was bound at the time.
	DrawCalls []DrawCall
	Clears    int

	locations map[render.UniformLocation]string
	nextLoc   render.UniformLocation
}

type DrawCall struct {
	Geometry    render.GeometryID
	Framebuffer render.FramebufferID
	Program     render.ProgramID
}

func New() *Context {
	return &Context{
		MaxSize:         8192,
		Programs:        map[render.ProgramID]string{},
		ProgramDeletes:  map[render.ProgramID]int{},
		Textures:        map[render.TextureID]*Texture{},
		TextureDeletes:  map[render.TextureID]int{},
		Framebuffers:    map[render.FramebufferID]render.TextureID{},
		FBDeletes:       map[render.FramebufferID]int{},
		Geometries:      map[render.GeometryID]core.MeshData{},
		GeometryDeletes: map[render.GeometryID]int{},
		BoundUnits:      map[int]render.TextureID{},
		UniformValues:   map[string]any{},
		locations:       map[render.UniformLocation]string{},
		nextLoc:         1,
	}
}

func (c *Context) MaxTextureSize() int { return c.MaxSize }

// ── Programs ─────────────────────────────────────────────────────────────────

func (c *Context) CompileProgram(vertexSrc, fragmentSrc string) (render.ProgramID, error) {
	c.nextID++
	id := render.ProgramID(c.nextID)
	c.Programs[id] = vertexSrc + "\n" + fragmentSrc
	return id, nil
}

func (c *Context) UseProgram(id render.ProgramID) { c.ActiveProgram = id }

func (c *Context) BoundProgram() render.ProgramID { return c.ActiveProgram }

func (c *Context) DeleteProgram(id render.ProgramID) {
	c.ProgramDeletes[id]++
	delete(c.Programs, id)
}

func (c *Context) UniformLocation(program render.ProgramID, name string) render.UniformLocation {
	loc := c.nextLoc
	c.nextLoc++
	c.locations[loc] = name
	return loc
}

func (c *Context) name(loc render.UniformLocation) string {
	if n, ok := c.locations[loc]; ok {
		return n
	}
	return fmt.Sprintf("loc%d", loc)
}

func (c *Context) SetUniformInt(loc render.UniformLocation, v int32) {
	c.UniformValues[c.name(loc)] = v
}

func (c *Context) SetUniformFloat(loc render.UniformLocation, v float32) {
	c.UniformValues[c.name(loc)] = v
}

func (c *Context) SetUniformVec2(loc render.UniformLocation, x, y float32) {
	c.UniformValues[c.name(loc)] = [2]float32{x, y}
}

func (c *Context) SetUniformVec3(loc render.UniformLocation, v math.Vec3) {
	c.UniformValues[c.name(loc)] = v
}

func (c *Context) SetUniformMat4(loc render.UniformLocation, m math.Mat4) {
	c.UniformValues[c.name(loc)] = m
}

// Uniform returns the last value written to the named uniform, or nil.
func (c *Context) Uniform(name string) any { return c.UniformValues[name] }

// ── Textures ─────────────────────────────────────────────────────────────────

func (c *Context) CreateTexture(width, height int, pixels []byte) (render.TextureID, error) {
	c.textureCreates++
	if c.FailTextureCreate || c.textureCreates == c.FailTextureCreateAt {
		c.FailTextureCreate = false
		return 0, fmt.Errorf("rendertest: texture creation failed")
	}
	c.nextID++
	id := render.TextureID(c.nextID)
	t := &Texture{Width: width, Height: height}
	if pixels != nil {
		t.Pixels = append([]byte(nil), pixels...)
		t.Uploads = 1
	}
	c.Textures[id] = t
	return id, nil
}

func (c *Context) UploadTexture(id render.TextureID, width, height int, pixels []byte) error {
	t, ok := c.Textures[id]
	if !ok {
		return fmt.Errorf("rendertest: upload to unknown texture %d", id)
	}
	t.Width = width
	t.Height = height
	t.Pixels = append([]byte(nil), pixels...)
	t.Uploads++
	return nil
}

func (c *Context) BindTexture(unit int, id render.TextureID) {
	c.BoundUnits[unit] = id
}

func (c *Context) DeleteTexture(id render.TextureID) {
	c.TextureDeletes[id]++
	delete(c.Textures, id)
}

// ── Framebuffers ─────────────────────────────────────────────────────────────

func (c *Context) CreateRenderTarget(width, height int) (render.FramebufferID, render.TextureID, error) {
	tex, err := c.CreateTexture(width, height, nil)
	if err != nil {
		return 0, 0, err
	}
	c.nextID++
	fb := render.FramebufferID(c.nextID)
	c.Framebuffers[fb] = tex
	return fb, tex, nil
}

func (c *Context) BindFramebuffer(fb render.FramebufferID) { c.boundFB = fb }

func (c *Context) DeleteFramebuffer(fb render.FramebufferID) {
	c.FBDeletes[fb]++
	if tex, ok := c.Framebuffers[fb]; ok {
		c.DeleteTexture(tex)
		delete(c.Framebuffers, fb)
	}
}

func (c *Context) BoundFramebuffer() render.FramebufferID { return c.boundFB }

func (c *Context) Viewport(x, y, width, height int) {
	c.viewport = [4]int{x, y, width, height}
}

func (c *Context) ViewportRect() (x, y, width, height int) {
	return c.viewport[0], c.viewport[1], c.viewport[2], c.viewport[3]
}

func (c *Context) ClearColor(col core.Color) { c.LastClearColor = col }

func (c *Context) Clear() { c.Clears++ }

// ── Geometry ─────────────────────────────────────────────────────────────────

func (c *Context) UploadGeometry(data core.MeshData) (render.GeometryID, error) {
	c.nextID++
	id := render.GeometryID(c.nextID)
	c.Geometries[id] = data
	return id, nil
}

func (c *Context) DrawGeometry(id render.GeometryID) {
	c.DrawCalls = append(c.DrawCalls, DrawCall{
		Geometry:    id,
		Framebuffer: c.boundFB,
		Program:     c.ActiveProgram,
	})
}

func (c *Context) DeleteGeometry(id render.GeometryID) {
	c.GeometryDeletes[id]++
	delete(c.Geometries, id)
}

// ── Assertions helpers ───────────────────────────────────────────────────────

// LiveTextures counts textures that have been created and not deleted.
func (c *Context) LiveTextures() int { return len(c.Textures) }

// LivePrograms counts programs that have been created and not deleted.
func (c *Context) LivePrograms() int { return len(c.Programs) }

// TotalDeletes sums the per-framebuffer delete counters.
func (c *Context) TotalFramebufferDeletes() int {
	n := 0
	for _, v := range c.FBDeletes {
		n += v
	}
	return n
}
