package renderer

import (
	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/integrator"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
)

// ShadePixel runs one kernel invocation: SamplesPerPixel jittered paths through
// pixel (x, y), averaged into an opaque color. The seed is derived once from the
// pixel and frame and advanced through every sample, so the result is a pure
// function of (pixel, frame, scene).
func ShadePixel(s *scene.Scene, integ integrator.Integrator, x, y uint32) core.Vec4 {
	spp := s.Params.SamplesPerPixel
	if spp == 0 {
		return core.Vec4{0, 0, 0, 1}
	}

	seed := core.NewSeed(x, y, s.Params.Width, s.Params.Frame)
	var colorAccum core.Vec3
	for sample := uint32(0); sample < spp; sample++ {
		ray := s.Camera.GetRay(x, y, &seed)
		colorAccum = colorAccum.Add(integ.RayColor(ray, s, &seed))
	}

	return colorAccum.Mul(1 / float32(spp)).Vec4(1)
}
