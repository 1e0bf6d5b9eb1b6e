package core

import (
	"math"
	"math/bits"
	"sort"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestJenkinsHash_KnownValues(t *testing.T) {
	tests := []struct {
		input    uint32
		expected uint32
	}{
		{0, 0},
		{1, 307143837},
		{2, 614320443},
		{12345, 734251491},
		{0xdeadbeef, 1819486462},
	}

	for _, tt := range tests {
		if got := JenkinsHash(tt.input); got != tt.expected {
			t.Errorf("JenkinsHash(%d): expected %d, got %d", tt.input, tt.expected, got)
		}
	}
}

func TestNewSeed_Formula(t *testing.T) {
	seed := NewSeed(3, 2, 10, 0)
	if seed != 2759739638 {
		t.Errorf("Expected seed 2759739638 for pixel (3,2) frame 0, got %d", seed)
	}

	seed = NewSeed(3, 2, 10, 1)
	if seed != 3705323713 {
		t.Errorf("Expected seed 3705323713 for pixel (3,2) frame 1, got %d", seed)
	}
}

func TestSeed_NextSequence(t *testing.T) {
	seed := NewSeed(3, 2, 10, 0)
	expected := []uint32{2952405792, 3576874588, 3341229066}

	for i, want := range expected {
		got := seed.Next()
		if got != want {
			t.Errorf("Draw %d: expected %d, got %d", i, want, got)
		}
		if uint32(seed) != got {
			t.Errorf("Draw %d: state %d does not match returned value %d", i, uint32(seed), got)
		}
	}
}

func TestSeed_Deterministic(t *testing.T) {
	a := NewSeed(17, 5, 640, 42)
	b := NewSeed(17, 5, 640, 42)
	for i := 0; i < 100; i++ {
		if a.Range(-1, 1) != b.Range(-1, 1) {
			t.Fatalf("Streams diverged at draw %d", i)
		}
	}
}

func TestNewSeed_DistinctPixelsAndFrames(t *testing.T) {
	const width, height = 64, 64
	seen := make(map[Seed]bool, width*height)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			s := NewSeed(x, y, width, 7)
			if seen[s] {
				t.Fatalf("Duplicate seed %d at pixel (%d,%d)", s, x, y)
			}
			seen[s] = true
		}
	}

	if NewSeed(10, 10, width, 0) == NewSeed(10, 10, width, 1) {
		t.Error("Expected different seeds for consecutive frames")
	}
}

func TestJenkinsHash_Avalanche(t *testing.T) {
	totalFlipped := 0
	trials := 0
	for i := uint32(0); i < 1000; i++ {
		x := i*2654435761 + 12345
		base := JenkinsHash(x)
		for bit := 0; bit < 32; bit++ {
			totalFlipped += bits.OnesCount32(base ^ JenkinsHash(x^(1<<bit)))
			trials++
		}
	}

	average := float64(totalFlipped) / float64(trials)
	if average < 13 || average > 19 {
		t.Errorf("Expected roughly 16 output bits to flip per input bit, got %.2f", average)
	}
}

func TestSeed_RangeMean(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float32
	}{
		{"unit", 0, 1},
		{"jitter", -0.5, 0.5},
		{"wide", -2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := NewSeed(1, 1, 100, 3)
			values := make([]float64, 10000)
			for i := range values {
				v := seed.Range(tt.lo, tt.hi)
				if v < tt.lo || v > tt.hi {
					t.Fatalf("Value %f outside [%f, %f]", v, tt.lo, tt.hi)
				}
				values[i] = float64(v)
			}

			mean := stat.Mean(values, nil)
			expected := float64(tt.lo+tt.hi) / 2
			tolerance := 0.02 * float64(tt.hi-tt.lo)
			if math.Abs(mean-expected) > tolerance {
				t.Errorf("Expected mean %f, got %f", expected, mean)
			}
		})
	}
}

func TestSeed_RangeUniformKS(t *testing.T) {
	const n = 10000
	seed := NewSeed(3, 2, 10, 0)

	draws := make([]float64, n)
	for i := range draws {
		draws[i] = float64(seed.Range(0, 1))
	}
	sort.Float64s(draws)

	// Exact uniform quantiles as the reference sample
	quantiles := make([]float64, n)
	for i := range quantiles {
		quantiles[i] = (float64(i) + 0.5) / n
	}

	d := stat.KolmogorovSmirnov(draws, nil, quantiles, nil)
	if d > 0.02 {
		t.Errorf("KS distance %f exceeds 0.02, draws are not uniform", d)
	}
}
