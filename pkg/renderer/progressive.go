package renderer

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/integrator"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize           int               // Size of each tile in pixels, rounded up to whole workgroups
	MaxPasses          int               // Maximum number of frames to accumulate
	MaxSamplesPerPixel int               // Stop once every pixel has this many samples (0 = no limit)
	NumWorkers         int               // Number of parallel workers (0 = use CPU count)
	Gamma              float32           // Output gamma; 1 keeps raw linear values
	Integrator         integrator.Config // Path tracing options
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:           64,
		MaxPasses:          10,
		MaxSamplesPerPixel: 0,
		NumWorkers:         0, // Auto-detect CPU count
		Gamma:              1.0,
	}
}

// ProgressiveRenderer accumulates one dispatched frame per pass into a running
// per-pixel mean. The scene is only mutated between passes.
type ProgressiveRenderer struct {
	mu          sync.Mutex
	scene       *scene.Scene
	config      ProgressiveConfig
	dispatcher  *Dispatcher
	surface     *Surface       // Output of the most recent frame
	pixelStats  [][]PixelStats // Accumulated frames (global image coordinates)
	currentPass int
	logger      core.Logger
}

// NewProgressiveRenderer creates a progressive renderer for s. The renderer owns
// s from now on; use UpdateScene to change it.
func NewProgressiveRenderer(s *scene.Scene, config ProgressiveConfig, logger core.Logger) (*ProgressiveRenderer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}

	pathTracer := integrator.NewPathTracingIntegrator(config.Integrator)
	pr := &ProgressiveRenderer{
		scene:      s,
		config:     config,
		dispatcher: NewDispatcher(pathTracer, config.TileSize, config.NumWorkers),
		logger:     logger,
	}
	pr.allocate()
	return pr, nil
}

// allocate sizes the surface and accumulation buffers to the scene
func (pr *ProgressiveRenderer) allocate() {
	width, height := int(pr.scene.Params.Width), int(pr.scene.Params.Height)
	pr.surface = NewSurface(width, height)
	pr.pixelStats = make([][]PixelStats, height)
	for y := range pr.pixelStats {
		pr.pixelStats[y] = make([]PixelStats, width)
	}
}

// resetAccumulation clears every pixel's running mean
func (pr *ProgressiveRenderer) resetAccumulation() {
	for y := range pr.pixelStats {
		for x := range pr.pixelStats[y] {
			pr.pixelStats[y][x].Reset()
		}
	}
}

// Width returns the image width in pixels
func (pr *ProgressiveRenderer) Width() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.surface.Width
}

// Height returns the image height in pixels
func (pr *ProgressiveRenderer) Height() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.surface.Height
}

// GetNumWorkers returns the number of dispatch workers
func (pr *ProgressiveRenderer) GetNumWorkers() int {
	return pr.dispatcher.GetNumWorkers()
}

// UpdateScene applies update to the scene between passes, marks it changed and
// discards the accumulated frames. A failing update leaves the accumulation intact.
func (pr *ProgressiveRenderer) UpdateScene(update func(s *scene.Scene) error) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if err := update(pr.scene); err != nil {
		return err
	}
	if err := pr.scene.Validate(); err != nil {
		return err
	}
	pr.scene.MarkChanged()

	if int(pr.scene.Params.Width) != pr.surface.Width || int(pr.scene.Params.Height) != pr.surface.Height {
		pr.allocate()
	} else {
		pr.resetAccumulation()
	}
	return nil
}

// Frame returns the frame index the next pass will render
func (pr *ProgressiveRenderer) Frame() uint32 {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.scene.Params.Frame
}

// RenderPass dispatches one frame and folds it into the accumulated image
func (pr *ProgressiveRenderer) RenderPass(ctx context.Context, passNumber int, tileCallback func(TileCompletionResult)) (*image.RGBA, RenderStats, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.currentPass = passNumber
	params := pr.scene.Params
	spp := int(params.SamplesPerPixel)

	pr.logger.Printf("Pass %d: frame %d, %d samples per pixel (using %d workers)...\n",
		passNumber, params.Frame, spp, pr.dispatcher.GetNumWorkers())

	if params.SceneChanged() {
		pr.resetAccumulation()
	}

	buffer, err := pr.scene.MarshalBinary()
	if err != nil {
		return nil, RenderStats{}, fmt.Errorf("failed to encode scene: %w", err)
	}

	tileNumber := 0
	totalTiles := len(pr.dispatcher.Tiles(params.Width, params.Height))
	imageBounds := pr.surface.Bounds()

	dispatchStats, err := pr.dispatcher.Dispatch(ctx, buffer, pr.surface, func(tile *Tile, _ DispatchStats) {
		tileNumber++

		// Tiles at the right and bottom edges overhang the image
		bounds := tile.Bounds.Intersect(imageBounds)
		pr.accumulate(bounds, spp)

		if tileCallback != nil {
			tileCallback(TileCompletionResult{
				TileX:      tile.Bounds.Min.X / pr.dispatcher.GetTileSize(),
				TileY:      tile.Bounds.Min.Y / pr.dispatcher.GetTileSize(),
				TileImage:  pr.extractTileImage(bounds),
				PassNumber: passNumber,

				// Progress information
				TileNumber:  tileNumber,
				TotalTiles:  totalTiles,
				TotalPasses: pr.config.MaxPasses,
			})
		}
	})
	if err != nil {
		// Some tiles were already folded in; start over
		pr.resetAccumulation()
		return nil, RenderStats{}, err
	}

	img, stats := pr.assembleCurrentImage()
	stats.Frame = params.Frame
	stats.Dispatch = dispatchStats

	pr.scene.NextFrame()
	return img, stats, nil
}

// accumulate folds the latest frame inside bounds into the running means
func (pr *ProgressiveRenderer) accumulate(bounds image.Rectangle, spp int) {
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr.pixelStats[y][x].AddSamples(pr.surface.At(x, y).Vec3(), spp)
		}
	}
}

// extractTileImage extracts a tile image from the shared pixel stats array
func (pr *ProgressiveRenderer) extractTileImage(bounds image.Rectangle) *image.RGBA {
	tileImage := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			stats := &pr.pixelStats[y][x]
			if stats.SampleCount > 0 {
				pixelColor := vec3ToColor(stats.GetColor(), pr.config.Gamma)
				tileImage.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, pixelColor)
			}
		}
	}

	return tileImage
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *image.RGBA // Image data for just this tile
	PassNumber int         // Which pass this tile was rendered in

	// Progress information
	TileNumber  int // Current tile number in this pass (1-based)
	TotalTiles  int // Total number of tiles in the image
	TotalPasses int // Total number of passes planned
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive renders passes in a goroutine and reports them on channels.
// If options.TileUpdates is false, the tile channel is closed immediately.
func (pr *ProgressiveRenderer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, 100)
	errChan := make(chan error, 1)

	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)

		pr.logger.Printf("Starting progressive rendering with %d passes...\n", pr.config.MaxPasses)

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			startTime := time.Now()

			var tileCallback func(TileCompletionResult)
			if options.TileUpdates {
				tileCallback = func(result TileCompletionResult) {
					select {
					case tileChan <- result:
					case <-ctx.Done():
					default:
						// Channel full, drop the update; the pass image carries it anyway
					}
				}
			}

			img, stats, err := pr.RenderPass(ctx, pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}

			pr.logger.Printf("Pass %d completed in %v (%.0f samples/pixel)\n",
				pass, time.Since(startTime), stats.AverageSamples)

			reachedMax := pr.config.MaxSamplesPerPixel > 0 && stats.MinSamples >= pr.config.MaxSamplesPerPixel
			result := PassResult{
				PassNumber: pass,
				Image:      img,
				Stats:      stats,
				IsLast:     pass == pr.config.MaxPasses || reachedMax,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				return
			}

			if reachedMax {
				pr.logger.Printf("Reached maximum samples per pixel (%d), stopping.\n", pr.config.MaxSamplesPerPixel)
				break
			}
		}
	}()

	return passChan, tileChan, errChan
}

// assembleCurrentImage creates an image from the accumulated pixel stats
// and calculates render statistics in a single pass
func (pr *ProgressiveRenderer) assembleCurrentImage() (*image.RGBA, RenderStats) {
	width, height := pr.surface.Width, pr.surface.Height
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	stats := RenderStats{
		TotalPixels: width * height,
		MaxSamples:  pr.config.MaxSamplesPerPixel,
		MinSamples:  -1,
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixel := &pr.pixelStats[y][x]
			img.SetRGBA(x, y, vec3ToColor(pixel.GetColor(), pr.config.Gamma))

			stats.TotalSamples += pixel.SampleCount
			if stats.MinSamples < 0 || pixel.SampleCount < stats.MinSamples {
				stats.MinSamples = pixel.SampleCount
			}
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, pixel.SampleCount)
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	stats.MinSamples = max(stats.MinSamples, 0)
	stats.LuminanceMean, stats.LuminanceStd = luminanceStats(pr.pixelStats)

	return img, stats
}

// Tile represents a rectangular region of the invocation grid
type Tile struct {
	ID     int             // Unique tile identifier
	Bounds image.Rectangle // Invocation bounds (x0,y0,x1,y1), may overhang the image
}

// NewTile creates a new tile with the specified bounds
func NewTile(id int, bounds image.Rectangle) *Tile {
	return &Tile{
		ID:     id,
		Bounds: bounds,
	}
}

// NewTileGrid creates a grid of tiles covering the entire grid
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, NewTile(tileID, image.Rect(x0, y0, x1, y1)))
			tileID++
		}
	}

	return tiles
}
