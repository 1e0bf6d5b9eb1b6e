package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
	"github.com/df07/go-gpu-pathtracer/pkg/shader"
)

// DefaultTileSize is the tile edge used by web renders
const DefaultTileSize = 64

// Parameter limits shared by request parsing and /api/scene-config
const (
	minImageSize  = 8
	maxImageSize  = 2000
	maxSPP        = 10000
	maxDepthLimit = 1000
	maxPasses     = 10000
	minGamma      = 0.1
	maxGamma      = 5.0
)

// Server handles web requests for the path tracer
type Server struct {
	port int
	mux  *http.ServeMux
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	s := &Server{port: port, mux: http.NewServeMux()}

	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	s.mux.HandleFunc("/api/kernel.spv", s.handleKernel)

	return s
}

// Handler returns the HTTP handler serving every endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene           string  `json:"scene"`           // Scene id (e.g., "default" or "file:scenes/snowman.json")
	Width           int     `json:"width"`           // Image width
	Height          int     `json:"height"`          // Image height
	SamplesPerPixel int     `json:"samplesPerPixel"` // Samples per pixel per frame (0 = scene default)
	MaxDepth        int     `json:"maxDepth"`        // Maximum bounce depth (0 = scene default)
	MaxPasses       int     `json:"maxPasses"`       // Maximum number of frames
	MaxSamples      int     `json:"maxSamples"`      // Stop once every pixel has this many samples (0 = no limit)
	DiffuseOnly     bool    `json:"diffuseOnly"`     // Treat every material as Lambertian
	Gamma           float64 `json:"gamma"`           // Output gamma
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeJSONError writes {"error": message} with the given status
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in and file scenes grouped for the UI
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// handleKernel serves the compute kernel as SPIR-V, or as WGSL with ?format=wgsl
func (s *Server) handleKernel(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "wgsl" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		fmt.Fprint(w, shader.Source)
		return
	}

	spirv, err := shader.Compile()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Length", strconv.Itoa(len(spirv)))
	w.Write(spirv)
}

// parseCommonSceneParams parses the scene, size and sampling parameters shared by
// /api/render and /api/inspect
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()

	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, minImageSize, maxImageSize); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", 225, minImageSize, maxImageSize); err != nil {
		return err
	}
	if req.SamplesPerPixel, err = parseIntParam(query, "spp", 0, 0, maxSPP); err != nil {
		return err
	}
	if req.MaxDepth, err = parseIntParam(query, "depth", 0, 0, maxDepthLimit); err != nil {
		return err
	}
	return nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene builds the requested scene at the requested size. File scenes
// must be listed by scene discovery; arbitrary paths are rejected.
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	if strings.HasPrefix(req.Scene, "file:") && !isListedFileScene(req.Scene) {
		return nil, fmt.Errorf("unknown scene: %s", req.Scene)
	}

	sceneObj, err := scene.Create(req.Scene, geometry.CameraConfig{
		Width:  uint32(req.Width),
		Height: uint32(req.Height),
	})
	if err != nil {
		return nil, err
	}

	sceneObj.SetSampling(scene.SamplingConfig{
		SamplesPerPixel: uint32(req.SamplesPerPixel),
		MaxDepth:        uint32(req.MaxDepth),
	})
	return sceneObj, nil
}

func isListedFileScene(id string) bool {
	files, err := scene.ListFileScenes()
	if err != nil {
		return false
	}
	for _, info := range files {
		if info.ID == id {
			return true
		}
	}
	return false
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = "default"
	}

	sceneObj, err := s.createScene(&RenderRequest{Scene: sceneName})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Return the scene's sampling configuration with validation limits
	sampling := sceneObj.SamplingConfig()
	cameraConfig := sceneObj.CameraConfig()
	response := map[string]interface{}{
		"scene": sceneName,
		"defaults": map[string]interface{}{
			"width":           cameraConfig.Width,
			"height":          cameraConfig.Height,
			"samplesPerPixel": sampling.SamplesPerPixel,
			"maxDepth":        sampling.MaxDepth,
			"maxPasses":       10,
			"gamma":           1.0,
			"spheres":         sceneObj.GetPrimitiveCount(),
		},
		"limits": map[string]interface{}{
			"width":     map[string]int{"min": minImageSize, "max": maxImageSize},
			"height":    map[string]int{"min": minImageSize, "max": maxImageSize},
			"spp":       map[string]int{"min": 0, "max": maxSPP},
			"depth":     map[string]int{"min": 0, "max": maxDepthLimit},
			"maxPasses": map[string]int{"min": 1, "max": maxPasses},
			"gamma":     map[string]float64{"min": minGamma, "max": maxGamma},
		},
	}

	writeJSON(w, http.StatusOK, response)
}
