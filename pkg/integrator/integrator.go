package integrator

import (
	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the color carried back along ray. All randomness is
	// drawn from seed, which the caller owns exclusively.
	RayColor(ray core.Ray, s *scene.Scene, seed *core.Seed) core.Vec3
}
