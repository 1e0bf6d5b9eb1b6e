package material

import (
	"fmt"
	"strings"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// Kind selects the scattering model. The numeric values are shared with the GPU kernel.
type Kind uint32

const (
	KindLambertian Kind = 0
	KindMetallic   Kind = 1
)

// String returns the scene-file name of the kind
func (k Kind) String() string {
	switch k {
	case KindLambertian:
		return "lambertian"
	case KindMetallic:
		return "metallic"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// ParseKind parses a scene-file material name
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "", "lambertian", "diffuse":
		return KindLambertian, nil
	case "metallic", "metal":
		return KindMetallic, nil
	default:
		return 0, fmt.Errorf("unknown material kind %q", name)
	}
}

// Material is a plain value so it can be copied into hit records and uploaded as-is
type Material struct {
	Color core.Vec4 // RGBA base color; alpha is carried but unused
	Kind  Kind
	Fuzz  float32 // Metallic only: 0 = mirror, 1 = very rough
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // Color attenuation
}

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Unit normal facing against the incoming ray
	T         float32   // Parameter t along the ray
	FrontFace bool      // Whether ray hit the front face
	Material  Material  // Copy of the hit sphere's material
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Mul(-1)
	}
}

// Scatter produces the outgoing ray for a hit. It returns false when the path is absorbed.
func (m Material) Scatter(rayIn core.Ray, hit HitRecord, seed *core.Seed) (ScatterResult, bool) {
	switch m.Kind {
	case KindMetallic:
		return m.scatterMetal(rayIn, hit, seed)
	default:
		return m.scatterLambertian(hit, seed)
	}
}

// AsLambertian returns the material with its kind forced to Lambertian
func (m Material) AsLambertian() Material {
	m.Kind = KindLambertian
	m.Fuzz = 0
	return m
}

// Albedo returns the RGB part of the base color
func (m Material) Albedo() core.Vec3 {
	return m.Color.Vec3()
}
