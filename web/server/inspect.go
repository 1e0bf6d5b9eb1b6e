package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/integrator"
	"github.com/df07/go-gpu-pathtracer/pkg/material"
	"github.com/df07/go-gpu-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float32             `json:"point"`
	Normal       [3]float32             `json:"normal"`
	Distance     float32                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// InspectResult contains the nearest hit along a pixel's centre ray
type InspectResult struct {
	Hit         bool
	HitRecord   material.HitRecord
	SphereIndex int // -1 when the hit could not be matched to a sphere
}

func vec3Array(v core.Vec3) [3]float32 {
	return [3]float32{v.X(), v.Y(), v.Z()}
}

// extractMaterialInfo describes a material for the inspector
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	albedo := core.Clamp(mat.Albedo(), 0, 1)
	properties := map[string]interface{}{
		"albedo": vec3Array(mat.Albedo()),
		"color": fmt.Sprintf("#%02x%02x%02x",
			int(albedo.X()*255), int(albedo.Y()*255), int(albedo.Z()*255)),
	}
	if mat.Kind == material.KindMetallic {
		properties["fuzz"] = mat.Fuzz
	}
	return mat.Kind.String(), properties
}

// inspectPixel casts the centre ray of a pixel and returns the nearest sphere hit
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY uint32) InspectResult {
	ray := sceneObj.Camera.GetCenterRay(pixelX, pixelY)

	hit, isHit := integrator.NearestHit(sceneObj, ray, integrator.MinHitDistance, geometry.Unbounded)
	if !isHit {
		return InspectResult{Hit: false, SphereIndex: -1}
	}

	// NearestHit doesn't report which sphere it hit; find the one with the same t
	for i := uint32(0); i < sceneObj.SphereCount; i++ {
		if sphereHit, ok := sceneObj.Spheres[i].Hit(ray, integrator.MinHitDistance, geometry.Unbounded); ok && sphereHit.T == hit.T {
			return InspectResult{Hit: true, HitRecord: hit, SphereIndex: int(i)}
		}
	}
	return InspectResult{Hit: true, HitRecord: hit, SphereIndex: -1}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeJSONError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	sceneObj, err := s.createScene(inspectReq)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := inspectPixel(sceneObj, uint32(pixelX), uint32(pixelY))
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(result.HitRecord.Material)
	geometryProps := map[string]interface{}{"index": result.SphereIndex}
	if result.SphereIndex >= 0 {
		sphere := sceneObj.Spheres[result.SphereIndex]
		geometryProps["center"] = vec3Array(sphere.Center)
		geometryProps["radius"] = sphere.Radius
	}

	response := InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: "sphere",
		Point:        vec3Array(result.HitRecord.Point),
		Normal:       vec3Array(result.HitRecord.Normal),
		Distance:     result.HitRecord.T,
		FrontFace:    result.HitRecord.FrontFace,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	}
	writeJSON(w, http.StatusOK, response)
}
