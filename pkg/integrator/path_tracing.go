package integrator

import (
	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
)

// MinHitDistance is the lower ray bound for the scene scan, avoiding self-intersection
const MinHitDistance float32 = 0.01

var (
	skyBottom = core.NewVec3(1.0, 1.0, 1.0)
	skyTop    = core.NewVec3(0.5, 0.7, 1.0)
)

// Config controls integrator behaviour
type Config struct {
	// DiffuseOnly scatters every surface as Lambertian, ignoring the material kind
	DiffuseOnly bool
}

// PathTracingIntegrator implements depth-limited unidirectional path tracing
// with a gradient sky as the only light source.
type PathTracingIntegrator struct {
	config Config
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config Config) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		config: config,
	}
}

// RayColor traces ray through the scene for at most MaxDepth bounces.
// Paths that are still bouncing when the depth runs out contribute black.
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, s *scene.Scene, seed *core.Seed) core.Vec3 {
	throughput := core.NewVec3(1, 1, 1)
	var resolved core.Vec3

	for depth := uint32(0); depth < s.Params.MaxDepth; depth++ {
		hit, isHit := NearestHit(s, ray, MinHitDistance, geometry.Unbounded)
		if !isHit {
			resolved = SkyColor(ray.Direction)
			break
		}

		mat := hit.Material
		if pt.config.DiffuseOnly {
			mat = mat.AsLambertian()
		}

		scatter, didScatter := mat.Scatter(ray, hit, seed)
		if !didScatter {
			return core.Vec3{}
		}

		ray = scatter.Scattered
		throughput = core.MultiplyVec(throughput, scatter.Attenuation)
	}

	return core.MultiplyVec(throughput, resolved)
}

// NearestHit scans every valid sphere and returns the hit with the smallest t.
// The returned record carries a copy of the sphere's material.
func NearestHit(s *scene.Scene, ray core.Ray, tMin, tMax float32) (material.HitRecord, bool) {
	var closest material.HitRecord
	hitAnything := false
	closestSoFar := tMax

	count := min(s.SphereCount, scene.MaxSpheres)
	for i := uint32(0); i < count; i++ {
		hit, isHit := s.Spheres[i].Hit(ray, tMin, closestSoFar)
		if !isHit {
			continue
		}
		hit.Material = s.Materials[i]
		closest = hit
		closestSoFar = hit.T
		hitAnything = true
	}

	return closest, hitAnything
}

// SkyColor is the vertical white-to-blue gradient seen by escaping rays
func SkyColor(direction core.Vec3) core.Vec3 {
	y := float32(0)
	if core.LengthSquared(direction) > 0 {
		y = direction.Normalize().Y()
	}
	a := 0.5 * (y + 1.0)
	return core.Lerp(skyBottom, skyTop, a)
}
