package scene

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pano-engine/core"
)

// Kind distinguishes the source flavors a projection can be fed.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
	KindCube // unsupported by the wide-angle projections, rejected at mesh build
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindCube:
		return "cube"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// VideoSource supplies decoded video frames. Readiness is polled each
// frame by the render loop; none of these calls may block.
type VideoSource interface {
	// Ready reports whether the decoder holds a current frame.
	Ready() bool
	// Paused reports playback state. The offscreen correction strategy
	// skips re-correcting a paused, already-corrected video.
	Paused() bool
	// Size is the current frame size. It may legitimately change
	// mid-stream, e.g. on an adaptive bitrate switch.
	Size() (width, height int)
	// Frame returns the current frame as tightly packed RGBA, valid only
	// while Ready.
	Frame() []byte
}

// Texture holds CPU-side source data for a panorama texture.
type Texture struct {
	Name   string
	Width  int
	Height int
	// Pixels in RGBA8 format (4 bytes per pixel, row-major,
	// top-to-bottom). Empty for video sources.
	Pixels []byte
	Kind   Kind
	// Video backs KindVideo textures.
	Video VideoSource
}

// LoadTexture reads an image file from disk and returns a CPU-side
// Texture. PNG, JPEG, WebP, TIFF, BMP and TGA are decoded; the image is
// converted to RGBA8.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
		}
	}

	return &Texture{
		Name:   path,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
		Kind:   KindImage,
	}, nil
}

// NewImageTexture wraps an already-decoded RGBA image.
func NewImageTexture(name string, img *image.RGBA) *Texture {
	return &Texture{
		Name:   name,
		Width:  img.Rect.Dx(),
		Height: img.Rect.Dy(),
		Pixels: img.Pix,
		Kind:   KindImage,
	}
}

// NewSolidTexture creates a 1x1 texture of the given color.
func NewSolidTexture(name string, c core.Color) *Texture {
	return &Texture{
		Name:   name,
		Width:  1,
		Height: 1,
		Pixels: c.RGBA8(),
		Kind:   KindImage,
	}
}

// NewVideoTexture wraps a video source. Width and height stay zero until
// frames arrive; the projections read the live size from the source.
func NewVideoTexture(name string, src VideoSource) *Texture {
	return &Texture{
		Name:  name,
		Kind:  KindVideo,
		Video: src,
	}
}
