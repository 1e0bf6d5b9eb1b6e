package geometry

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
)

// Unbounded disables the tMin or tMax bound of a hit query
const Unbounded float32 = -1

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3 `json:"center"`
	Radius float32   `json:"radius"`
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float32) Sphere {
	return Sphere{Center: center, Radius: radius}
}

// inRange reports whether t lies in the open interval (tMin, tMax)
func inRange(t, tMin, tMax float32) bool {
	return (tMin == Unbounded || t > tMin) && (tMax == Unbounded || t < tMax)
}

// Hit tests if a ray intersects with the sphere. The ray direction does not need
// to be normalized. The returned record has no material; the caller owns that lookup.
func (s Sphere) Hit(ray core.Ray, tMin, tMax float32) (material.HitRecord, bool) {
	// Vector from ray origin to sphere center
	oc := s.Center.Sub(ray.Origin)

	a := ray.Direction.Dot(ray.Direction)
	if a == 0 {
		// Zero-length direction never hits anything
		return material.HitRecord{}, false
	}
	h := ray.Direction.Dot(oc)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := h*h - a*c
	if discriminant < 0 {
		return material.HitRecord{}, false
	}
	sqrtD := math32.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (h - sqrtD) / a
	if !inRange(root, tMin, tMax) {
		root = (h + sqrtD) / a
		if !inRange(root, tMin, tMax) {
			return material.HitRecord{}, false
		}
	}

	point := ray.At(root)
	hit := material.HitRecord{
		T:     root,
		Point: point,
	}
	hit.SetFaceNormal(ray, point.Sub(s.Center).Normalize())
	return hit, true
}
