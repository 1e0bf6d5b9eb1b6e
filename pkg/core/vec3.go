package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a float32 3D vector, laid out like a WGSL vec3<f32>
type Vec3 = mgl32.Vec3

// Vec4 is a float32 4D vector, used for colours with alpha and for padded buffer fields
type Vec4 = mgl32.Vec4

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

// MultiplyVec returns the component-wise product of two vectors
func MultiplyVec(a, b Vec3) Vec3 {
	return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// LengthSquared returns the squared magnitude of the vector
func LengthSquared(v Vec3) float32 {
	return v.Dot(v)
}

// Lerp blends from a to b by t
func Lerp(a, b Vec3, t float32) Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// Luminance returns the perceptual luminance of an RGB color
func Luminance(c Vec3) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

// Clamp returns a vector with components clamped to [minVal, maxVal]
func Clamp(v Vec3, minVal, maxVal float32) Vec3 {
	return Vec3{
		max(minVal, min(maxVal, v[0])),
		max(minVal, min(maxVal, v[1])),
		max(minVal, min(maxVal, v[2])),
	}
}

// GammaCorrect applies gamma correction to color values
func GammaCorrect(v Vec3, gamma float32) Vec3 {
	if gamma == 1 {
		return v
	}
	invGamma := 1 / gamma
	return Vec3{
		math32.Pow(v[0], invGamma),
		math32.Pow(v[1], invGamma),
		math32.Pow(v[2], invGamma),
	}
}
