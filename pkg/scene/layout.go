package scene

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
)

// Byte offsets of the uniform buffer shared with the compute kernel.
// Every vec3 is stored as a vec4 with w = 0.
const (
	offsetWidth             = 0
	offsetHeight            = 4
	offsetSamplesPerPixel   = 8
	offsetMaxDepth          = 12
	offsetFrame             = 16
	offsetFramesSinceChange = 20
	offsetVFov              = 24
	offsetSphereCount       = 28
	offsetCamera            = 32
	offsetSpheres           = offsetCamera + 8*vec4Size
	offsetMaterials         = offsetSpheres + MaxSpheres*vec4Size

	vec4Size     = 16
	materialSize = 32

	// BufferSize is the exact size of the uploaded scene buffer
	BufferSize = offsetMaterials + MaxSpheres*materialSize
)

// ErrInvalidBuffer is returned when a scene buffer cannot be decoded
var ErrInvalidBuffer = errors.New("invalid scene buffer")

// MarshalBinary serializes the scene into the fixed-size buffer layout read by the kernel
func (s *Scene) MarshalBinary() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, BufferSize)
	s.encode(buf)
	return buf, nil
}

func (s *Scene) encode(buf []byte) {
	le := binary.LittleEndian
	le.PutUint32(buf[offsetWidth:], s.Params.Width)
	le.PutUint32(buf[offsetHeight:], s.Params.Height)
	le.PutUint32(buf[offsetSamplesPerPixel:], s.Params.SamplesPerPixel)
	le.PutUint32(buf[offsetMaxDepth:], s.Params.MaxDepth)
	le.PutUint32(buf[offsetFrame:], s.Params.Frame)
	le.PutUint32(buf[offsetFramesSinceChange:], s.Params.FramesSinceChange)
	le.PutUint32(buf[offsetVFov:], math.Float32bits(s.Camera.VFov))
	le.PutUint32(buf[offsetSphereCount:], s.SphereCount)

	cameraVectors := s.cameraVectors()
	for i, v := range cameraVectors {
		putVec4(buf[offsetCamera+i*vec4Size:], v.Vec4(0))
	}

	for i := 0; i < MaxSpheres; i++ {
		sphere := s.Spheres[i]
		putVec4(buf[offsetSpheres+i*vec4Size:], sphere.Center.Vec4(sphere.Radius))
	}

	for i := 0; i < MaxSpheres; i++ {
		m := s.Materials[i]
		base := offsetMaterials + i*materialSize
		putVec4(buf[base:], m.Color)
		le.PutUint32(buf[base+16:], uint32(m.Kind))
		le.PutUint32(buf[base+20:], math.Float32bits(m.Fuzz))
		// bytes 24..32 are padding and stay zero
	}
}

// UnmarshalBinary decodes a buffer produced by MarshalBinary
func (s *Scene) UnmarshalBinary(buf []byte) error {
	if len(buf) < BufferSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidBuffer, len(buf), BufferSize)
	}

	le := binary.LittleEndian
	sphereCount := le.Uint32(buf[offsetSphereCount:])
	if sphereCount > MaxSpheres {
		return fmt.Errorf("%w: sphere count %d exceeds %d", ErrInvalidBuffer, sphereCount, MaxSpheres)
	}

	s.Params = RenderParams{
		Width:             le.Uint32(buf[offsetWidth:]),
		Height:            le.Uint32(buf[offsetHeight:]),
		SamplesPerPixel:   le.Uint32(buf[offsetSamplesPerPixel:]),
		MaxDepth:          le.Uint32(buf[offsetMaxDepth:]),
		Frame:             le.Uint32(buf[offsetFrame:]),
		FramesSinceChange: le.Uint32(buf[offsetFramesSinceChange:]),
	}
	s.SphereCount = sphereCount

	var v [8]core.Vec3
	for i := range v {
		v[i] = getVec4(buf[offsetCamera+i*vec4Size:]).Vec3()
	}
	s.Camera = geometry.Camera{
		LookFrom:    v[0],
		LookAt:      v[1],
		U:           v[2],
		V:           v[3],
		W:           v[4],
		PixelDeltaX: v[5],
		PixelDeltaY: v[6],
		PixelOrigin: v[7],
		VFov:        math.Float32frombits(le.Uint32(buf[offsetVFov:])),
	}

	for i := 0; i < MaxSpheres; i++ {
		packed := getVec4(buf[offsetSpheres+i*vec4Size:])
		s.Spheres[i] = geometry.NewSphere(packed.Vec3(), packed.W())
	}

	for i := 0; i < MaxSpheres; i++ {
		base := offsetMaterials + i*materialSize
		s.Materials[i] = material.Material{
			Color: getVec4(buf[base:]),
			Kind:  material.Kind(le.Uint32(buf[base+16:])),
			Fuzz:  math.Float32frombits(le.Uint32(buf[base+20:])),
		}
	}
	return nil
}

// cameraVectors lists the camera block in buffer order
func (s *Scene) cameraVectors() [8]core.Vec3 {
	c := s.Camera
	return [8]core.Vec3{c.LookFrom, c.LookAt, c.U, c.V, c.W, c.PixelDeltaX, c.PixelDeltaY, c.PixelOrigin}
}

func putVec4(buf []byte, v core.Vec4) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}

func getVec4(buf []byte) core.Vec4 {
	var v core.Vec4
	for i := 0; i < 4; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
