package material

import (
	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// degenerateLengthSq is the squared length below which a scatter direction is treated as zero
const degenerateLengthSq = 1e-16

// NewLambertian creates a diffuse material with an opaque color
func NewLambertian(albedo core.Vec3) Material {
	return Material{Color: albedo.Vec4(1), Kind: KindLambertian}
}

func (m Material) scatterLambertian(hit HitRecord, seed *core.Seed) (ScatterResult, bool) {
	direction := diffuseDirection(hit.Normal, core.SampleUnitBall(seed))
	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: m.Albedo(),
	}, true
}

// diffuseDirection offsets the normal by a ball sample, falling back to the
// normal when the two cancel out.
func diffuseDirection(normal, sample core.Vec3) core.Vec3 {
	direction := normal.Add(sample)
	if core.LengthSquared(direction) < degenerateLengthSq {
		return normal
	}
	return direction
}
