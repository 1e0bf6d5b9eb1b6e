package scene

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float32) core.Vec3 {
	hRad := h * math32.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math32.Cos(hRad)
	b := c * math32.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.Clamp(core.NewVec3(r, g, blue), 0, 1)
}

// sphereGridSize is the side of the grid; together with the ground it must fit in MaxSpheres
const sphereGridSize = 11

// NewSphereGridScene creates a scene with a grid of rainbow-colored metallic spheres
func NewSphereGridScene(cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	defaultCameraConfig := geometry.CameraConfig{
		LookFrom: core.NewVec3(4.5, 6, 18),
		LookAt:   core.NewVec3(4.5, 0.8, 4.5),
		VFov:     40,
		Width:    640,
		Height:   360,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s, err := NewScene(cameraConfig, SamplingConfig{SamplesPerPixel: 8, MaxDepth: 12})
	if err != nil {
		return nil, err
	}

	// Ground (gray lambertian) as a huge sphere touching y = 0
	ground := geometry.NewSphere(core.NewVec3(4.5, -1000, 4.5), 1000)
	if err := s.AddSphere(ground, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))); err != nil {
		return nil, err
	}

	// Fit the grid into a 9x9 area
	targetArea := float32(9.0)
	spacing := targetArea / float32(sphereGridSize-1)
	sphereRadius := max(0.02, min(0.35, spacing*0.35))

	baseLightness := float32(0.65)
	minChroma := float32(0.05)
	maxChroma := float32(0.25)

	for i := 0; i < sphereGridSize; i++ {
		for j := 0; j < sphereGridSize; j++ {
			x := float32(i)*spacing - targetArea/2.0 + 4.5
			z := float32(j)*spacing - targetArea/2.0 + 4.5
			position := core.NewVec3(x, sphereRadius, z)

			// Hue varies across X, chroma across Z
			hue := float32(i) / float32(sphereGridSize-1) * 360.0
			chroma := minChroma + float32(j)/float32(sphereGridSize-1)*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math32.Sin(float32(i+j)*0.5)

			color := oklchToRGB(lightness, chroma, hue)
			roughness := 0.05 + 0.1*float32((i+j)%3)/2.0

			sphere := geometry.NewSphere(position, sphereRadius)
			if err := s.AddSphere(sphere, material.NewMetal(color, roughness)); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}
