package renderer

import (
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
)

// testLogger implements core.Logger for testing by discarding all output
type testLogger struct{}

func (tl *testLogger) Printf(format string, args ...interface{}) {}

// newTestScene returns the default scene at a small size
func newTestScene(t *testing.T, width, height, spp, depth uint32) *scene.Scene {
	t.Helper()
	s, err := scene.NewDefaultScene(geometry.CameraConfig{Width: width, Height: height})
	if err != nil {
		t.Fatalf("NewDefaultScene() error: %v", err)
	}
	s.SetSampling(scene.SamplingConfig{SamplesPerPixel: spp, MaxDepth: depth})
	return s
}
