package core

import "github.com/chewxy/math32"

// SampleUnitBall draws a point in the unit ball with a fixed number of draws.
// The radius is r = U^(1/3) and the polar component is cos(theta) without the
// radius factor, matching the kernel's sampler exactly.
func SampleUnitBall(seed *Seed) Vec3 {
	r := math32.Pow(seed.Range(0, 1), 1.0/3.0)
	cosTheta := 1 - 2*seed.Range(0, 1)
	sinTheta := math32.Sqrt(max(0, 1-cosTheta*cosTheta))
	phi := 2 * math32.Pi * seed.Range(0, 1)
	return Vec3{
		r * sinTheta * math32.Cos(phi),
		r * sinTheta * math32.Sin(phi),
		cosTheta,
	}
}

// RandomUnitVector draws a direction uniformly on the unit sphere
func RandomUnitVector(seed *Seed) Vec3 {
	cosTheta := 1 - 2*seed.Range(0, 1)
	sinTheta := math32.Sqrt(max(0, 1-cosTheta*cosTheta))
	phi := 2 * math32.Pi * seed.Range(0, 1)
	return Vec3{
		sinTheta * math32.Cos(phi),
		sinTheta * math32.Sin(phi),
		cosTheta,
	}
}
