package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0)
	ray := core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0))

	hit, isHit := sphere.Hit(ray, 0.01, Unbounded)
	if isHit {
		t.Errorf("Expected miss, but got hit at t=%f", hit.T)
	}
}

func TestSphere_Hit_FrontAndBackFace(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0)

	tests := []struct {
		name           string
		rayOrigin      core.Vec3
		rayDirection   core.Vec3
		expectedT      float32
		expectedFront  bool
		expectedNormal core.Vec3
	}{
		{
			name:           "front face hit",
			rayOrigin:      core.NewVec3(0, 0, 2),
			rayDirection:   core.NewVec3(0, 0, -1),
			expectedT:      1.0,
			expectedFront:  true,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			name:           "back face hit",
			rayOrigin:      core.NewVec3(0, 0, 0),
			rayDirection:   core.NewVec3(0, 0, 1),
			expectedT:      1.0,
			expectedFront:  false,
			expectedNormal: core.NewVec3(0, 0, -1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDirection)
			hit, isHit := sphere.Hit(ray, 0.01, Unbounded)

			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}

			if math.Abs(float64(hit.T-tt.expectedT)) > 1e-5 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}

			if hit.FrontFace != tt.expectedFront {
				t.Errorf("Expected front face %t, got %t", tt.expectedFront, hit.FrontFace)
			}

			if !hit.Normal.ApproxEqualThreshold(tt.expectedNormal, 1e-5) {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, hit.Normal)
			}
		})
	}
}

func TestSphere_Hit_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		center    core.Vec3
		radius    float32
		origin    core.Vec3
		direction core.Vec3
		expectedT float32
	}{
		{"unit direction", core.NewVec3(0, 0, -5), 1, core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1), 4},
		{"scaled direction", core.NewVec3(0, 0, -5), 1, core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -4), 1},
		{"tiny direction", core.NewVec3(0, 0, -5), 1, core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -0.001), 4000},
		{"offset sphere", core.NewVec3(3, 2, 1), 2, core.NewVec3(3, 2, 10), core.NewVec3(0, 0, -1), 7},
		{"diagonal", core.NewVec3(1, 1, 1), 0.5, core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), 1 - 0.5/float32(math.Sqrt(3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sphere := NewSphere(tt.center, tt.radius)
			ray := core.NewRay(tt.origin, tt.direction)

			hit, isHit := sphere.Hit(ray, 0.01, Unbounded)
			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}

			tolerance := 1e-4 * math.Max(1, float64(tt.expectedT))
			if math.Abs(float64(hit.T-tt.expectedT)) > tolerance {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}

			expectedPoint := ray.At(tt.expectedT)
			if d := hit.Point.Sub(expectedPoint).Len(); d > 1e-4 {
				t.Errorf("Expected point %v, got %v (distance %f)", expectedPoint, hit.Point, d)
			}

			if math.Abs(float64(hit.Normal.Len())-1) > 1e-5 {
				t.Errorf("Expected unit normal, got length %f", hit.Normal.Len())
			}
		})
	}
}

func TestSphere_Hit_Bounds(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, -3), 1)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	tests := []struct {
		name       string
		tMin, tMax float32
		expectHit  bool
		expectedT  float32
	}{
		{"both unbounded", Unbounded, Unbounded, true, 2},
		{"near root", 0.01, Unbounded, true, 2},
		{"skip near root", 2.5, Unbounded, true, 4},
		{"past both roots", 4.5, Unbounded, false, 0},
		{"max before sphere", 0.01, 1.5, false, 0},
		{"max between roots", 0.01, 3, true, 2},
		{"bounds are exclusive", 2, 4, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := sphere.Hit(ray, tt.tMin, tt.tMax)
			if isHit != tt.expectHit {
				t.Fatalf("Expected hit=%t, got %t", tt.expectHit, isHit)
			}
			if isHit && math.Abs(float64(hit.T-tt.expectedT)) > 1e-5 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}
		})
	}
}

func TestSphere_Hit_ZeroDirection(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0))

	if _, isHit := sphere.Hit(ray, Unbounded, Unbounded); isHit {
		t.Error("Expected a zero-length direction to miss")
	}
}
