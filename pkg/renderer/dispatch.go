package renderer

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-gpu-pathtracer/pkg/integrator"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
	"github.com/df07/go-gpu-pathtracer/pkg/shader"
)

// DispatchStats counts the work done by a dispatch
type DispatchStats struct {
	Workgroups  int // Workgroups launched, including partially covered ones
	Invocations int // Invocations launched (Workgroups * 64)
	Writes      int // Pixels written; invocations outside the image write nothing
}

// Add accumulates other into ds
func (ds *DispatchStats) Add(other DispatchStats) {
	ds.Workgroups += other.Workgroups
	ds.Invocations += other.Invocations
	ds.Writes += other.Writes
}

// TileTask is one tile of workgroups handed to a worker
type TileTask struct {
	Tile   *Tile
	TaskID int
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  DispatchStats
}

// Dispatcher runs the kernel over the 2D invocation grid on a pool of goroutines.
// The grid is rounded up to whole workgroups and split into tiles of workgroups.
type Dispatcher struct {
	integrator integrator.Integrator
	tileSize   int
	numWorkers int
}

// NewDispatcher creates a dispatcher. tileSize is rounded up to a multiple of the
// workgroup size; numWorkers <= 0 uses one worker per CPU.
func NewDispatcher(integ integrator.Integrator, tileSize, numWorkers int) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	tileSize = (tileSize + shader.WorkgroupSize - 1) / shader.WorkgroupSize * shader.WorkgroupSize

	return &Dispatcher{
		integrator: integ,
		tileSize:   tileSize,
		numWorkers: numWorkers,
	}
}

// GetNumWorkers returns the number of worker goroutines used per dispatch
func (d *Dispatcher) GetNumWorkers() int {
	return d.numWorkers
}

// GetTileSize returns the tile edge length in pixels
func (d *Dispatcher) GetTileSize() int {
	return d.tileSize
}

// Tiles returns the tile grid covering the padded invocation grid for an image
func (d *Dispatcher) Tiles(width, height uint32) []*Tile {
	groupsX, groupsY := shader.DispatchSize(width, height)
	return NewTileGrid(int(groupsX)*shader.WorkgroupSize, int(groupsY)*shader.WorkgroupSize, d.tileSize)
}

// Dispatch decodes the scene buffer and shades every pixel of surface.
// onTile, if not nil, is called on the calling goroutine as each tile finishes.
// Cancelling ctx stops workers between tiles and returns ctx's error.
func (d *Dispatcher) Dispatch(ctx context.Context, buffer []byte, surface *Surface, onTile func(*Tile, DispatchStats)) (DispatchStats, error) {
	var s scene.Scene
	if err := s.UnmarshalBinary(buffer); err != nil {
		return DispatchStats{}, err
	}
	if int(s.Params.Width) != surface.Width || int(s.Params.Height) != surface.Height {
		return DispatchStats{}, fmt.Errorf("surface is %dx%d but scene renders %dx%d",
			surface.Width, surface.Height, s.Params.Width, s.Params.Height)
	}

	tiles := d.Tiles(s.Params.Width, s.Params.Height)
	taskQueue := make(chan TileTask, len(tiles))
	resultQueue := make(chan TileResult, len(tiles))

	for taskID, tile := range tiles {
		taskQueue <- TileTask{Tile: tile, TaskID: taskID}
	}
	close(taskQueue)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.numWorkers; i++ {
		g.Go(func() error {
			for task := range taskQueue {
				if err := gctx.Err(); err != nil {
					return err
				}
				resultQueue <- TileResult{
					TaskID: task.TaskID,
					Stats:  d.renderTile(&s, task.Tile.Bounds, surface),
				}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(resultQueue)
	}()

	var total DispatchStats
	for result := range resultQueue {
		total.Add(result.Stats)
		if onTile != nil {
			onTile(tiles[result.TaskID], result.Stats)
		}
	}

	if err := <-waitErr; err != nil {
		return total, err
	}
	// Cancellation after the last tile was picked up still counts as cancelled
	if err := ctx.Err(); err != nil {
		return total, err
	}
	return total, nil
}

// renderTile runs every invocation in bounds. Tiles never overlap, so workers
// write disjoint pixels of the shared surface.
func (d *Dispatcher) renderTile(s *scene.Scene, bounds image.Rectangle, surface *Surface) DispatchStats {
	stats := DispatchStats{
		Workgroups:  (bounds.Dx() / shader.WorkgroupSize) * (bounds.Dy() / shader.WorkgroupSize),
		Invocations: bounds.Dx() * bounds.Dy(),
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if x >= surface.Width || y >= surface.Height {
				continue
			}
			if surface.Set(x, y, ShadePixel(s, d.integrator, uint32(x), uint32(y))) {
				stats.Writes++
			}
		}
	}
	return stats
}
