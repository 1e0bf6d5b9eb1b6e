package renderer

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Frame          uint32        // Frame index the pass was rendered with
	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of samples accumulated
	AverageSamples float64       // Average samples per pixel
	MaxSamples     int           // Maximum samples allowed per pixel (0 = unlimited)
	MinSamples     int           // Minimum samples accumulated by any pixel
	MaxSamplesUsed int           // Maximum samples accumulated by any pixel
	Dispatch       DispatchStats // Work done by the pass's dispatch
	LuminanceMean  float64       // Mean linear luminance of the accumulated image
	LuminanceStd   float64       // Standard deviation of the per-pixel luminance
}

// PixelStats tracks the running mean of a single pixel across frames
type PixelStats struct {
	ColorAccum       core.Vec3 // Sample-weighted RGB accumulator
	LuminanceAccum   float64   // Luminance accumulator
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int       // Number of samples folded in
}

// AddSample adds a single color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.AddSamples(color, 1)
}

// AddSamples folds in the mean of count samples, weighting it by count
func (ps *PixelStats) AddSamples(mean core.Vec3, count int) {
	if count <= 0 {
		return
	}
	ps.ColorAccum = ps.ColorAccum.Add(mean.Mul(float32(count)))
	luminance := float64(core.Luminance(mean))
	ps.LuminanceAccum += luminance * float64(count)
	ps.LuminanceSqAccum += luminance * luminance * float64(count)
	ps.SampleCount += count
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Mul(1.0 / float32(ps.SampleCount))
}

// Reset discards everything accumulated so far
func (ps *PixelStats) Reset() {
	*ps = PixelStats{}
}

// luminanceStats returns the mean and standard deviation of the per-pixel luminance
func luminanceStats(pixelStats [][]PixelStats) (mean, std float64) {
	var values []float64
	for y := range pixelStats {
		for x := range pixelStats[y] {
			values = append(values, float64(core.Luminance(pixelStats[y][x].GetColor())))
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// CalculateAverageLuminance returns the mean luminance of an 8-bit image in [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	pixelCount := bounds.Dx() * bounds.Dy()
	if pixelCount == 0 {
		return 0
	}

	values := make([]float64, 0, pixelCount)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := core.NewVec3(float32(r)/0xffff, float32(g)/0xffff, float32(b)/0xffff)
			values = append(values, float64(core.Luminance(c)))
		}
	}
	return stat.Mean(values, nil)
}
