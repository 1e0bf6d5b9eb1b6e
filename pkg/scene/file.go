package scene

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
)

// File is the on-disk description of a scene. YAML and JSON share the same field names.
type File struct {
	Name        string                `json:"name,omitempty"`
	Description string                `json:"description,omitempty"`
	Group       string                `json:"group,omitempty"`
	Camera      geometry.CameraConfig `json:"camera"`
	Sampling    SamplingConfig        `json:"sampling"`
	Spheres     []SphereEntry         `json:"spheres"`
}

// SphereEntry is one sphere together with its material
type SphereEntry struct {
	Center   core.Vec3     `json:"center"`
	Radius   float32       `json:"radius"`
	Material MaterialEntry `json:"material"`
}

// MaterialEntry is the file form of a material; Color takes 3 or 4 components
type MaterialEntry struct {
	Kind  string    `json:"kind,omitempty"`
	Color []float32 `json:"color"`
	Fuzz  float32   `json:"fuzz,omitempty"`
}

// toMaterial validates the entry and converts it to a kernel material
func (m MaterialEntry) toMaterial() (material.Material, error) {
	kind, err := material.ParseKind(m.Kind)
	if err != nil {
		return material.Material{}, err
	}

	var color core.Vec4
	switch len(m.Color) {
	case 3:
		color = core.Vec4{m.Color[0], m.Color[1], m.Color[2], 1}
	case 4:
		color = core.Vec4{m.Color[0], m.Color[1], m.Color[2], m.Color[3]}
	default:
		return material.Material{}, fmt.Errorf("color needs 3 or 4 components, got %d", len(m.Color))
	}

	if kind == material.KindMetallic {
		mat := material.NewMetal(color.Vec3(), m.Fuzz)
		mat.Color = color
		return mat, nil
	}
	mat := material.NewLambertian(color.Vec3())
	mat.Color = color
	return mat, nil
}

// Parse builds a scene from YAML or JSON data
func Parse(data []byte) (*Scene, *File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse scene file: %w", err)
	}

	s, err := f.Build()
	if err != nil {
		return nil, nil, err
	}
	return s, &f, nil
}

// Build creates the scene described by the file
func (f *File) Build() (*Scene, error) {
	if len(f.Spheres) > MaxSpheres {
		return nil, fmt.Errorf("%w: file lists %d spheres, capacity is %d", ErrSceneFull, len(f.Spheres), MaxSpheres)
	}

	s, err := NewScene(f.Camera, f.Sampling)
	if err != nil {
		return nil, fmt.Errorf("failed to build camera: %w", err)
	}

	for i, entry := range f.Spheres {
		if entry.Radius <= 0 {
			return nil, fmt.Errorf("sphere %d: radius must be positive, got %f", i, entry.Radius)
		}
		mat, err := entry.Material.toMaterial()
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		if err := s.AddSphere(geometry.NewSphere(entry.Center, entry.Radius), mat); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load reads a scene file from disk
func Load(path string) (*Scene, *File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	s, f, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, f, nil
}

// ToFile captures the scene in its file form
func ToFile(s *Scene) *File {
	f := &File{
		Camera:   s.CameraConfig(),
		Sampling: s.SamplingConfig(),
		Spheres:  make([]SphereEntry, 0, s.SphereCount),
	}
	for i := uint32(0); i < s.SphereCount; i++ {
		sphere := s.Spheres[i]
		mat := s.Materials[i]
		f.Spheres = append(f.Spheres, SphereEntry{
			Center: sphere.Center,
			Radius: sphere.Radius,
			Material: MaterialEntry{
				Kind:  mat.Kind.String(),
				Color: mat.Color[:],
				Fuzz:  mat.Fuzz,
			},
		})
	}
	return f
}

// Save writes the scene as YAML
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode scene file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scene file: %w", err)
	}
	return nil
}
