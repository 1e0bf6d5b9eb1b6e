package material

import (
	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// NewMetal creates a new metal material
func NewMetal(albedo core.Vec3, fuzz float32) Material {
	// Clamp fuzz to valid range
	fuzz = max(0, min(1, fuzz))
	return Material{Color: albedo.Vec4(1), Kind: KindMetallic, Fuzz: fuzz}
}

func (m Material) scatterMetal(rayIn core.Ray, hit HitRecord, seed *core.Seed) (ScatterResult, bool) {
	reflected := reflect(rayIn.Direction.Normalize(), hit.Normal)

	// Drawn unconditionally: fuzz 0 still consumes two values from the stream
	perturbation := core.RandomUnitVector(seed).Mul(m.Fuzz)
	direction := reflected.Add(perturbation)

	// Reflections that end up below the surface are absorbed
	if direction.Dot(hit.Normal) <= 0 {
		return ScatterResult{}, false
	}

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: m.Albedo(),
	}, true
}

// reflect calculates the reflection of a vector v off a surface with normal n
func reflect(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Sub(n.Mul(2 * v.Dot(n)))
}
