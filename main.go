package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/profile"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/integrator"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
	"github.com/df07/go-gpu-pathtracer/pkg/shader"
)

// Config holds all command line configuration
type Config struct {
	SceneType   string
	ConfigFile  string
	Width       int
	Height      int
	Samples     int
	Depth       int
	Frames      int
	Workers     int
	DiffuseOnly bool
	Gamma       float64
	Format      string
	GIF         bool
	OutputDir   string
	SPIRVPath   string
	BufferPath  string
	SaveScene   string
	Profile     string
	List        bool
	Help        bool
}

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func main() {
	config := parseFlags()

	if config.Help {
		showHelp()
		return
	}

	if config.List {
		if err := listScenes(os.Stdout); err != nil {
			exitf("Error listing scenes: %v\n", err)
		}
		return
	}

	if config.SPIRVPath != "" {
		if err := writeKernel(config.SPIRVPath); err != nil {
			exitf("Error compiling kernel: %v\n", err)
		}
		successColor.Printf("Kernel written to %s\n", config.SPIRVPath)
		return
	}

	if err := run(config); err != nil {
		exitf("Error: %v\n", err)
	}
}

func exitf(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func parseFlags() Config {
	config := Config{}
	flag.StringVar(&config.SceneType, "scene", "default", "Scene id: "+strings.Join(scene.BuiltInNames(), ", ")+", or file:<path>")
	flag.StringVar(&config.ConfigFile, "config", "", "Load the scene from a YAML or JSON scene file (overrides -scene)")
	flag.IntVar(&config.Width, "width", 0, "Image width (0 = scene default)")
	flag.IntVar(&config.Height, "height", 0, "Image height (0 = scene default)")
	flag.IntVar(&config.Samples, "samples", 0, "Samples per pixel per frame (0 = scene default)")
	flag.IntVar(&config.Depth, "depth", 0, "Maximum bounce depth (0 = scene default)")
	flag.IntVar(&config.Frames, "frames", 1, "Number of frames to accumulate")
	flag.IntVar(&config.Workers, "workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	flag.BoolVar(&config.DiffuseOnly, "diffuse-only", false, "Treat every material as Lambertian")
	flag.Float64Var(&config.Gamma, "gamma", 1.0, "Output gamma (1 = linear)")
	flag.StringVar(&config.Format, "format", "png", "Output format: png, bmp or tiff")
	flag.BoolVar(&config.GIF, "gif", false, "Also write an animated GIF of the progressive frames")
	flag.StringVar(&config.OutputDir, "out", "output", "Output directory")
	flag.StringVar(&config.SPIRVPath, "spirv", "", "Compile the compute kernel to SPIR-V at this path and exit")
	flag.StringVar(&config.BufferPath, "buffer", "", "Also write the scene's uniform buffer to this path")
	flag.StringVar(&config.SaveScene, "save-scene", "", "Also save the resolved scene as a YAML scene file")
	flag.StringVar(&config.Profile, "profile", "", "Enable profiling: cpu or mem")
	flag.BoolVar(&config.List, "list", false, "List available scenes and exit")
	flag.BoolVar(&config.Help, "help", false, "Show help information")
	flag.Parse()
	return config
}

func showHelp() {
	fmt.Println("GPU Path Tracer")
	fmt.Println("Usage: pathtracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pathtracer -scene=sphere-grid -frames=8")
	fmt.Println("  pathtracer -config=scenes/snowman.json -samples=4 -gif")
	fmt.Println("  pathtracer -spirv=pathtrace.spv")
	fmt.Println()
	fmt.Println("Output will be saved to <out>/<scene>/render_<timestamp>.<format>")
}

func run(config Config) error {
	if config.Profile != "" {
		stop, err := startProfiling(config.Profile, config.OutputDir)
		if err != nil {
			return err
		}
		defer stop()
	}

	sceneID := resolveSceneID(config)
	infoColor.Printf("Loading scene %s...\n", sceneID)

	sceneObj, err := createScene(sceneID, config)
	if err != nil {
		return err
	}

	outputDir := filepath.Join(config.OutputDir, sceneDirName(sceneID))
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if config.BufferPath != "" {
		if err := writeBuffer(config.BufferPath, sceneObj); err != nil {
			return err
		}
		infoColor.Printf("Uniform buffer written to %s\n", config.BufferPath)
	}
	if config.SaveScene != "" {
		if err := scene.Save(config.SaveScene, scene.ToFile(sceneObj)); err != nil {
			return err
		}
		infoColor.Printf("Scene file written to %s\n", config.SaveScene)
	}

	progressiveConfig := renderer.DefaultProgressiveConfig()
	progressiveConfig.MaxPasses = config.Frames
	progressiveConfig.NumWorkers = config.Workers
	progressiveConfig.Gamma = float32(config.Gamma)
	progressiveConfig.Integrator = integrator.Config{DiffuseOnly: config.DiffuseOnly}

	pt, err := renderer.NewProgressiveRenderer(sceneObj, progressiveConfig, renderer.NewDefaultLogger())
	if err != nil {
		return err
	}

	infoColor.Printf("Rendering %dx%d, %d spp x %d frames, depth %d, %d workers\n",
		pt.Width(), pt.Height(), sceneObj.Params.SamplesPerPixel, config.Frames,
		sceneObj.Params.MaxDepth, pt.GetNumWorkers())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	startTime := time.Now()
	passChan, _, errChan := pt.RenderProgressive(ctx, renderer.RenderOptions{})

	var frames []*image.RGBA
	var last renderer.PassResult
	for result := range passChan {
		last = result
		if config.GIF {
			frames = append(frames, result.Image)
		}
	}
	if err := <-errChan; err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if last.Image == nil {
		return fmt.Errorf("render produced no frames")
	}

	renderTime := time.Since(startTime)
	fmt.Printf("Render completed in %v\n", renderTime)
	fmt.Printf("Samples per pixel: %.1f (range %d - %d), mean luminance %.4f\n",
		last.Stats.AverageSamples, last.Stats.MinSamples, last.Stats.MaxSamplesUsed, last.Stats.LuminanceMean)

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.%s", timestamp, config.Format))
	if err := saveImage(filename, last.Image, config.Format); err != nil {
		return err
	}
	successColor.Printf("Render saved as %s\n", filename)

	if config.GIF {
		gifName := filepath.Join(outputDir, fmt.Sprintf("render_%s.gif", timestamp))
		if err := saveGIF(gifName, frames, 20); err != nil {
			return err
		}
		successColor.Printf("Animation saved as %s\n", gifName)
	}
	return nil
}

// resolveSceneID maps -config onto a file scene id
func resolveSceneID(config Config) string {
	if config.ConfigFile != "" {
		return "file:" + config.ConfigFile
	}
	return config.SceneType
}

// createScene builds the scene and applies command line overrides
func createScene(sceneID string, config Config) (*scene.Scene, error) {
	if config.Width < 0 || config.Height < 0 || config.Samples < 0 || config.Depth < 0 {
		return nil, fmt.Errorf("width, height, samples and depth must not be negative")
	}

	sceneObj, err := scene.Create(sceneID, geometry.CameraConfig{
		Width:  uint32(config.Width),
		Height: uint32(config.Height),
	})
	if err != nil {
		return nil, err
	}

	sceneObj.SetSampling(scene.SamplingConfig{
		SamplesPerPixel: uint32(config.Samples),
		MaxDepth:        uint32(config.Depth),
	})
	return sceneObj, nil
}

// sceneDirName turns a scene id into a directory name
func sceneDirName(sceneID string) string {
	if path, ok := strings.CutPrefix(sceneID, "file:"); ok {
		base := filepath.Base(path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return sceneID
}

func startProfiling(mode, dir string) (func(), error) {
	switch mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook).Stop, nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath(dir), profile.NoShutdownHook).Stop, nil
	default:
		return nil, fmt.Errorf("unknown profile mode %q (want cpu or mem)", mode)
	}
}

// encodeImage writes img in the named format
func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func saveImage(filename string, img image.Image, format string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := encodeImage(file, img, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return nil
}

// buildGIF quantizes the progressive frames into an animation. delay is in 1/100 s.
func buildGIF(frames []*image.RGBA, delay int) *gif.GIF {
	anim := &gif.GIF{}
	for _, frame := range frames {
		paletted := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, frame.Bounds(), frame, image.Point{})
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}
	return anim
}

func saveGIF(filename string, frames []*image.RGBA, delay int) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := gif.EncodeAll(file, buildGIF(frames, delay)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return nil
}

func writeKernel(path string) error {
	spirv, err := shader.Compile()
	if err != nil {
		return err
	}
	return os.WriteFile(path, spirv, 0644)
}

func writeBuffer(path string, sceneObj *scene.Scene) error {
	data, err := sceneObj.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write uniform buffer: %w", err)
	}
	return nil
}

// listScenes prints every built-in and discovered scene file
func listScenes(w io.Writer) error {
	scenes, err := scene.ListAllScenes()
	if err != nil {
		return err
	}
	for _, group := range scenes.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(w, "  %-32s %s\n", info.ID, info.Description)
		}
	}
	return nil
}
