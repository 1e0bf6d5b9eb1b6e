package scene

import (
	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
)

// NewDefaultScene creates the three-sphere scene resting on a large ground sphere
func NewDefaultScene(cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	defaultCameraConfig := geometry.CameraConfig{
		LookFrom: core.NewVec3(0, 0, 0),
		LookAt:   core.NewVec3(0, 0, -1),
		VFov:     90,
		Width:    400,
		Height:   225,
	}

	// Apply any overrides using the reusable merge function
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	samplingConfig := SamplingConfig{
		SamplesPerPixel: 10,
		MaxDepth:        5,
	}

	s, err := NewScene(cameraConfig, samplingConfig)
	if err != nil {
		return nil, err
	}

	spheres := []struct {
		sphere geometry.Sphere
		mat    material.Material
	}{
		{geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100), material.NewLambertian(core.NewVec3(0.2, 0.8, 0.4))},
		{geometry.NewSphere(core.NewVec3(0, 0, -1.2), 0.5), material.NewLambertian(core.NewVec3(0, 1, 0))},
		{geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5), material.NewLambertian(core.NewVec3(1, 0, 0))},
		{geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5), material.NewLambertian(core.NewVec3(0, 1, 0))},
	}
	for _, entry := range spheres {
		if err := s.AddSphere(entry.sphere, entry.mat); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// NewSingleSphereScene creates one white diffuse sphere lit only by the sky
func NewSingleSphereScene(cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	defaultCameraConfig := geometry.CameraConfig{
		LookFrom: core.NewVec3(0, 0, 0),
		LookAt:   core.NewVec3(0, 0, -1),
		VFov:     90,
		Width:    200,
		Height:   200,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s, err := NewScene(cameraConfig, SamplingConfig{SamplesPerPixel: 16, MaxDepth: 8})
	if err != nil {
		return nil, err
	}

	white := material.NewLambertian(core.NewVec3(1, 1, 1))
	if err := s.AddSphere(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5), white); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMetalScene creates the default layout with the outer spheres turned to metal
func NewMetalScene(cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	defaultCameraConfig := geometry.CameraConfig{
		LookFrom: core.NewVec3(0, 0.3, 1),
		LookAt:   core.NewVec3(0, 0, -1),
		VFov:     60,
		Width:    400,
		Height:   225,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s, err := NewScene(cameraConfig, SamplingConfig{SamplesPerPixel: 10, MaxDepth: 20})
	if err != nil {
		return nil, err
	}

	groundColor := core.NewVec3(0.8, 0.8, 0.0)
	centerColor := core.NewVec3(0.1, 0.2, 0.5)
	silver := core.NewVec3(0.8, 0.8, 0.8)
	gold := core.NewVec3(0.8, 0.6, 0.2)

	spheres := []struct {
		sphere geometry.Sphere
		mat    material.Material
	}{
		{geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100), material.NewLambertian(groundColor)},
		{geometry.NewSphere(core.NewVec3(0, 0, -1.2), 0.5), material.NewLambertian(centerColor)},
		{geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5), material.NewMetal(silver, 0.0)},
		{geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5), material.NewMetal(gold, 0.3)},
	}
	for _, entry := range spheres {
		if err := s.AddSphere(entry.sphere, entry.mat); err != nil {
			return nil, err
		}
	}

	return s, nil
}
