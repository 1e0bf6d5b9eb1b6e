package geometry

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

func testCameraConfig(width, height uint32) CameraConfig {
	return CameraConfig{
		LookFrom: core.NewVec3(0, 0, 0),
		LookAt:   core.NewVec3(0, 0, -1),
		VFov:     90,
		Width:    width,
		Height:   height,
	}
}

func vecNear(a, b core.Vec3, tolerance float32) bool {
	return a.Sub(b).Len() <= tolerance
}

func TestNewCamera_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*CameraConfig)
	}{
		{"zero width", func(c *CameraConfig) { c.Width = 0 }},
		{"zero height", func(c *CameraConfig) { c.Height = 0 }},
		{"zero fov", func(c *CameraConfig) { c.VFov = 0 }},
		{"fov 180", func(c *CameraConfig) { c.VFov = 180 }},
		{"lookFrom equals lookAt", func(c *CameraConfig) { c.LookAt = c.LookFrom }},
		{"looking straight down", func(c *CameraConfig) { c.LookAt = core.NewVec3(0, -1, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testCameraConfig(4, 4)
			tt.modify(&config)
			if _, err := NewCamera(config); !errors.Is(err, ErrInvalidCamera) {
				t.Errorf("Expected ErrInvalidCamera, got %v", err)
			}
		})
	}
}

func TestCamera_Basis(t *testing.T) {
	camera, err := NewCamera(testCameraConfig(4, 2))
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}

	const tolerance = 1e-6
	if !vecNear(camera.U, core.NewVec3(1, 0, 0), tolerance) {
		t.Errorf("Expected U=(1,0,0), got %v", camera.U)
	}
	if !vecNear(camera.V, core.NewVec3(0, 1, 0), tolerance) {
		t.Errorf("Expected V=(0,1,0), got %v", camera.V)
	}
	if !vecNear(camera.W, core.NewVec3(0, 0, 1), tolerance) {
		t.Errorf("Expected W=(0,0,1), got %v", camera.W)
	}

	// vfov 90 at focal length 1 gives a 2-unit tall viewport; 4x2 pixels are one unit each
	if !vecNear(camera.PixelDeltaX, core.NewVec3(1, 0, 0), tolerance) {
		t.Errorf("Expected PixelDeltaX=(1,0,0), got %v", camera.PixelDeltaX)
	}
	if !vecNear(camera.PixelDeltaY, core.NewVec3(0, -1, 0), tolerance) {
		t.Errorf("Expected PixelDeltaY=(0,-1,0), got %v", camera.PixelDeltaY)
	}
	if !vecNear(camera.PixelOrigin, core.NewVec3(-1.5, 0.5, -1), tolerance) {
		t.Errorf("Expected PixelOrigin=(-1.5,0.5,-1), got %v", camera.PixelOrigin)
	}
}

func TestCamera_GetCenterRay(t *testing.T) {
	camera, err := NewCamera(testCameraConfig(3, 3))
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}

	tests := []struct {
		name      string
		x, y      uint32
		direction core.Vec3
	}{
		{"centre pixel looks at lookAt", 1, 1, core.NewVec3(0, 0, -1)},
		{"top left", 0, 0, core.NewVec3(-2.0/3, 2.0/3, -1)},
		{"bottom right", 2, 2, core.NewVec3(2.0/3, -2.0/3, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetCenterRay(tt.x, tt.y)
			if ray.Origin != camera.LookFrom {
				t.Errorf("Expected origin at LookFrom, got %v", ray.Origin)
			}
			if !vecNear(ray.Direction, tt.direction, 1e-5) {
				t.Errorf("Expected direction %v, got %v", tt.direction, ray.Direction)
			}
		})
	}
}

func TestCamera_GetRayJitterStaysInPixel(t *testing.T) {
	camera, err := NewCamera(testCameraConfig(8, 8))
	if err != nil {
		t.Fatalf("NewCamera failed: %v", err)
	}

	seed := core.NewSeed(3, 5, 8, 0)
	centre := camera.GetCenterRay(3, 5).Direction
	halfPixel := camera.PixelDeltaX.Len() / 2

	for i := 0; i < 256; i++ {
		before := seed
		ray := camera.GetRay(3, 5, &seed)

		// Directions end on the image plane at z=-1, so offsets are in plane units
		offset := ray.Direction.Sub(centre)
		if math32.Abs(offset.X()) > halfPixel+1e-5 || math32.Abs(offset.Y()) > halfPixel+1e-5 || math32.Abs(offset.Z()) > 1e-5 {
			t.Fatalf("Sample %d left the pixel footprint: offset %v", i, offset)
		}

		// Two draws per ray
		before.Next()
		before.Next()
		if before != seed {
			t.Fatalf("Expected GetRay to consume exactly two draws")
		}
	}
}

func TestMergeCameraConfig(t *testing.T) {
	base := testCameraConfig(400, 225)

	merged := MergeCameraConfig(base, CameraConfig{Width: 64})
	if merged.Width != 64 || merged.Height != 225 || merged.VFov != 90 {
		t.Errorf("Expected only width to change, got %+v", merged)
	}

	merged = MergeCameraConfig(base, CameraConfig{LookFrom: core.NewVec3(1, 2, 3), VFov: 40})
	if merged.LookFrom != core.NewVec3(1, 2, 3) || merged.VFov != 40 || merged.LookAt != base.LookAt {
		t.Errorf("Unexpected merge result %+v", merged)
	}

	if MergeCameraConfig(base, CameraConfig{}) != base {
		t.Error("Empty override should leave the config unchanged")
	}
}
