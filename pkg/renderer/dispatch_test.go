package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/integrator"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
)

func marshalScene(t *testing.T, s *scene.Scene) []byte {
	t.Helper()
	buf, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}
	return buf
}

func TestNewDispatcher_RoundsTileSize(t *testing.T) {
	tests := []struct {
		tileSize int
		expected int
	}{
		{64, 64},
		{10, 16},
		{1, 8},
		{0, 64},
	}

	for _, tt := range tests {
		d := NewDispatcher(nil, tt.tileSize, 1)
		if d.GetTileSize() != tt.expected {
			t.Errorf("Tile size %d: expected %d, got %d", tt.tileSize, tt.expected, d.GetTileSize())
		}
	}
}

func TestDispatch_CoversImage(t *testing.T) {
	s := newTestScene(t, 10, 10, 1, 3)
	d := NewDispatcher(integrator.NewPathTracingIntegrator(integrator.Config{}), 8, 2)
	surface := NewSurface(10, 10)

	tilesSeen := 0
	stats, err := d.Dispatch(context.Background(), marshalScene(t, s), surface, func(tile *Tile, _ DispatchStats) {
		tilesSeen++
	})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	if stats.Workgroups != 4 {
		t.Errorf("Expected 2x2 workgroups, got %d", stats.Workgroups)
	}
	if stats.Invocations != 256 {
		t.Errorf("Expected 256 invocations, got %d", stats.Invocations)
	}
	if stats.Writes != 100 {
		t.Errorf("Expected 100 writes, got %d", stats.Writes)
	}
	if tilesSeen != 4 {
		t.Errorf("Expected 4 tile callbacks, got %d", tilesSeen)
	}

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if surface.At(x, y).W() != 1 {
				t.Fatalf("Pixel (%d,%d) was not written", x, y)
			}
		}
	}
}

func TestDispatch_MatchesShadePixel(t *testing.T) {
	s := newTestScene(t, 24, 17, 2, 4)
	s.NextFrame()
	pt := integrator.NewPathTracingIntegrator(integrator.Config{})
	buf := marshalScene(t, s)

	serial := NewSurface(24, 17)
	if _, err := NewDispatcher(pt, 64, 1).Dispatch(context.Background(), buf, serial, nil); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	parallel := NewSurface(24, 17)
	if _, err := NewDispatcher(pt, 8, 4).Dispatch(context.Background(), buf, parallel, nil); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	for y := 0; y < 17; y++ {
		for x := 0; x < 24; x++ {
			expected := ShadePixel(s, pt, uint32(x), uint32(y))
			if serial.At(x, y) != expected {
				t.Fatalf("Pixel (%d,%d): serial dispatch %v, direct %v", x, y, serial.At(x, y), expected)
			}
			if parallel.At(x, y) != expected {
				t.Fatalf("Pixel (%d,%d): parallel dispatch %v, direct %v", x, y, parallel.At(x, y), expected)
			}
		}
	}
}

func TestDispatch_Cancelled(t *testing.T) {
	s := newTestScene(t, 32, 32, 1, 3)
	d := NewDispatcher(integrator.NewPathTracingIntegrator(integrator.Config{}), 8, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, marshalScene(t, s), NewSurface(32, 32), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestDispatch_RejectsBadInput(t *testing.T) {
	s := newTestScene(t, 16, 16, 1, 3)
	d := NewDispatcher(integrator.NewPathTracingIntegrator(integrator.Config{}), 8, 1)

	if _, err := d.Dispatch(context.Background(), make([]byte, 10), NewSurface(16, 16), nil); !errors.Is(err, scene.ErrInvalidBuffer) {
		t.Errorf("Expected ErrInvalidBuffer, got %v", err)
	}

	if _, err := d.Dispatch(context.Background(), marshalScene(t, s), NewSurface(8, 8), nil); err == nil {
		t.Error("Expected an error for a surface of the wrong size")
	}
}
