package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
)

// MaxSpheres is the fixed capacity of the sphere and material arrays
const MaxSpheres = 128

// ErrSceneFull is returned when adding a sphere beyond MaxSpheres
var ErrSceneFull = errors.New("scene is full")

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel uint32 `json:"samplesPerPixel"` // Number of rays per pixel per frame
	MaxDepth        uint32 `json:"maxDepth"`        // Maximum ray bounce depth
}

// RenderParams is the scalar block read by every pixel invocation
type RenderParams struct {
	Width             uint32
	Height            uint32
	SamplesPerPixel   uint32
	MaxDepth          uint32
	Frame             uint32 // Increases by one every dispatched frame
	FramesSinceChange uint32 // Zero on the first frame after the scene was modified
}

// SceneChanged reports whether this is the first frame since the scene was modified
func (p RenderParams) SceneChanged() bool {
	return p.FramesSinceChange == 0
}

// Scene is the read-only world a frame is rendered from. Spheres and materials
// are parallel fixed-capacity arrays; only the first SphereCount entries are valid.
type Scene struct {
	Params      RenderParams
	Camera      geometry.Camera
	SphereCount uint32
	Spheres     [MaxSpheres]geometry.Sphere
	Materials   [MaxSpheres]material.Material
}

// NewScene creates an empty scene with a camera built for the configured image size
func NewScene(cameraConfig geometry.CameraConfig, sampling SamplingConfig) (*Scene, error) {
	camera, err := geometry.NewCamera(cameraConfig)
	if err != nil {
		return nil, err
	}
	return &Scene{
		Params: RenderParams{
			Width:           cameraConfig.Width,
			Height:          cameraConfig.Height,
			SamplesPerPixel: sampling.SamplesPerPixel,
			MaxDepth:        sampling.MaxDepth,
		},
		Camera: camera,
	}, nil
}

// AddSphere appends a sphere and its material
func (s *Scene) AddSphere(sphere geometry.Sphere, mat material.Material) error {
	if s.SphereCount >= MaxSpheres {
		return fmt.Errorf("%w: capacity is %d spheres", ErrSceneFull, MaxSpheres)
	}
	s.Spheres[s.SphereCount] = sphere
	s.Materials[s.SphereCount] = mat
	s.SphereCount++
	return nil
}

// NextFrame advances the frame counters after a dispatch
func (s *Scene) NextFrame() {
	s.Params.Frame++
	s.Params.FramesSinceChange++
}

// MarkChanged flags the scene as modified so accumulated frames are discarded
func (s *Scene) MarkChanged() {
	s.Params.FramesSinceChange = 0
}

// CameraConfig returns the configuration the current camera was built from
func (s *Scene) CameraConfig() geometry.CameraConfig {
	return geometry.CameraConfig{
		LookFrom: s.Camera.LookFrom,
		LookAt:   s.Camera.LookAt,
		VFov:     s.Camera.VFov,
		Width:    s.Params.Width,
		Height:   s.Params.Height,
	}
}

// SamplingConfig returns the per-frame sampling settings
func (s *Scene) SamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: s.Params.SamplesPerPixel,
		MaxDepth:        s.Params.MaxDepth,
	}
}

// SetCamera rebuilds the camera from config, keeping spheres, materials and the frame counter
func (s *Scene) SetCamera(config geometry.CameraConfig) error {
	camera, err := geometry.NewCamera(config)
	if err != nil {
		return err
	}
	s.Camera = camera
	s.Params.Width = config.Width
	s.Params.Height = config.Height
	s.MarkChanged()
	return nil
}

// Resize rebuilds the camera for a new image size
func (s *Scene) Resize(width, height uint32) error {
	config := s.CameraConfig()
	config.Width = width
	config.Height = height
	return s.SetCamera(config)
}

// SetSampling updates samples per pixel and maximum depth
func (s *Scene) SetSampling(sampling SamplingConfig) {
	if sampling.SamplesPerPixel != 0 {
		s.Params.SamplesPerPixel = sampling.SamplesPerPixel
	}
	if sampling.MaxDepth != 0 {
		s.Params.MaxDepth = sampling.MaxDepth
	}
	s.MarkChanged()
}

// Validate checks the invariants a dispatch relies on
func (s *Scene) Validate() error {
	if s.SphereCount > MaxSpheres {
		return fmt.Errorf("%w: sphere count %d exceeds %d", ErrSceneFull, s.SphereCount, MaxSpheres)
	}
	if s.Params.Width == 0 || s.Params.Height == 0 {
		return fmt.Errorf("%w: image size %dx%d", geometry.ErrInvalidCamera, s.Params.Width, s.Params.Height)
	}
	return nil
}

// GetPrimitiveCount returns the number of spheres in the scene
func (s *Scene) GetPrimitiveCount() int {
	return int(s.SphereCount)
}
