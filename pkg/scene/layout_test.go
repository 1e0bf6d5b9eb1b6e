package scene

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
)

func TestBufferSize(t *testing.T) {
	if BufferSize != 6304 {
		t.Errorf("Expected buffer size 6304, got %d", BufferSize)
	}
	if offsetSpheres != 160 || offsetMaterials != 2208 {
		t.Errorf("Unexpected offsets: spheres %d, materials %d", offsetSpheres, offsetMaterials)
	}
}

func TestMarshalBinary_FieldOffsets(t *testing.T) {
	s, err := NewDefaultScene()
	if err != nil {
		t.Fatalf("NewDefaultScene() error: %v", err)
	}
	s.NextFrame()
	s.AddSphere(geometry.NewSphere(core.NewVec3(2, 3, 4), 0.25), material.NewMetal(core.NewVec3(0.5, 0.25, 1), 0.75))

	buf, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}
	if len(buf) != BufferSize {
		t.Fatalf("Expected %d bytes, got %d", BufferSize, len(buf))
	}

	le := binary.LittleEndian
	u32 := func(offset int) uint32 { return le.Uint32(buf[offset:]) }
	f32 := func(offset int) float32 { return math.Float32frombits(le.Uint32(buf[offset:])) }

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"width", float64(u32(0)), 400},
		{"height", float64(u32(4)), 225},
		{"samples per pixel", float64(u32(8)), 10},
		{"max depth", float64(u32(12)), 5},
		{"frame", float64(u32(16)), 1},
		{"frames since change", float64(u32(20)), 1},
		{"vfov", float64(f32(24)), 90},
		{"sphere count", float64(u32(28)), 5},
		{"lookAt z", float64(f32(32 + 16 + 8)), -1},
		{"sphere 4 center x", float64(f32(160 + 4*16)), 2},
		{"sphere 4 radius", float64(f32(160 + 4*16 + 12)), 0.25},
		{"ground radius", float64(f32(160 + 12)), 100},
		{"material 4 red", float64(f32(2208 + 4*32)), 0.5},
		{"material 4 alpha", float64(f32(2208 + 4*32 + 12)), 1},
		{"material 4 kind", float64(u32(2208 + 4*32 + 16)), 1},
		{"material 4 fuzz", float64(f32(2208 + 4*32 + 20)), 0.75},
		{"material 4 padding", float64(u32(2208 + 4*32 + 24)), 0},
		{"material 0 kind", float64(u32(2208 + 16)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}

	// Camera vectors are padded with w = 0
	for i := 0; i < 8; i++ {
		if w := f32(32 + i*16 + 12); w != 0 {
			t.Errorf("Camera vector %d: expected w = 0, got %f", i, w)
		}
	}
}

func TestMarshalUnmarshal_PreservesScene(t *testing.T) {
	original, err := NewSphereGridScene()
	if err != nil {
		t.Fatalf("NewSphereGridScene() error: %v", err)
	}
	original.NextFrame()
	original.NextFrame()
	original.MarkChanged()

	buf, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}

	var decoded Scene
	if err := decoded.UnmarshalBinary(buf); err != nil {
		t.Fatalf("UnmarshalBinary() error: %v", err)
	}

	if decoded.Params != original.Params {
		t.Errorf("Params: expected %+v, got %+v", original.Params, decoded.Params)
	}
	if decoded.Camera != original.Camera {
		t.Errorf("Camera: expected %+v, got %+v", original.Camera, decoded.Camera)
	}
	if decoded.SphereCount != original.SphereCount {
		t.Fatalf("Expected %d spheres, got %d", original.SphereCount, decoded.SphereCount)
	}
	if decoded.Spheres != original.Spheres {
		t.Error("Sphere arrays differ after decoding")
	}
	if decoded.Materials != original.Materials {
		t.Error("Material arrays differ after decoding")
	}
}

func TestUnmarshalBinary_Rejects(t *testing.T) {
	var s Scene
	if err := s.UnmarshalBinary(make([]byte, BufferSize-1)); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("Expected ErrInvalidBuffer for short buffer, got %v", err)
	}

	buf := make([]byte, BufferSize)
	binary.LittleEndian.PutUint32(buf[offsetSphereCount:], MaxSpheres+1)
	if err := s.UnmarshalBinary(buf); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("Expected ErrInvalidBuffer for oversized sphere count, got %v", err)
	}
}

func TestMarshalBinary_RejectsInvalidScene(t *testing.T) {
	var s Scene
	if _, err := s.MarshalBinary(); err == nil {
		t.Error("Expected error marshalling a scene without an image size")
	}
}
