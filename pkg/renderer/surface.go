package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// Surface is the kernel's output image: one linear RGBA value per pixel
type Surface struct {
	Width  int
	Height int
	Pix    []core.Vec4 // Row-major, Pix[y*Width+x]
}

// NewSurface allocates a black, transparent surface
func NewSurface(width, height int) *Surface {
	return &Surface{
		Width:  width,
		Height: height,
		Pix:    make([]core.Vec4, width*height),
	}
}

// Bounds returns the pixel rectangle covered by the surface
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Set writes a pixel. Writes outside the surface are dropped.
func (s *Surface) Set(x, y int, c core.Vec4) bool {
	if x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return false
	}
	s.Pix[y*s.Width+x] = c
	return true
}

// At returns the pixel at (x, y)
func (s *Surface) At(x, y int) core.Vec4 {
	return s.Pix[y*s.Width+x]
}

// ToImage converts the surface to 8-bit RGBA with the given gamma
func (s *Surface) ToImage(gamma float32) *image.RGBA {
	img := image.NewRGBA(s.Bounds())
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			img.SetRGBA(x, y, vec3ToColor(s.At(x, y).Vec3(), gamma))
		}
	}
	return img
}

// vec3ToColor converts a linear color to RGBA with gamma correction and clamping.
// A gamma of 1 stores the values unchanged, as a storage texture would.
func vec3ToColor(colorVec core.Vec3, gamma float32) color.RGBA {
	if gamma <= 0 {
		gamma = 1
	}
	colorVec = core.GammaCorrect(colorVec, gamma)
	colorVec = core.Clamp(colorVec, 0.0, 1.0)

	return color.RGBA{
		R: uint8(255 * colorVec.X()),
		G: uint8(255 * colorVec.Y()),
		B: uint8(255 * colorVec.Z()),
		A: 255,
	}
}
