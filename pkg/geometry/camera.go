package geometry

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// ErrInvalidCamera is returned when a camera configuration cannot produce a projection plane
var ErrInvalidCamera = errors.New("invalid camera")

// CameraConfig contains the user-facing parameters for a pinhole camera
type CameraConfig struct {
	LookFrom core.Vec3 `json:"lookFrom"`
	LookAt   core.Vec3 `json:"lookAt"`
	VFov     float32   `json:"vfov"` // Vertical field of view in degrees
	Width    uint32    `json:"width"`
	Height   uint32    `json:"height"`
}

// Camera is the precomputed projection the kernel reads for every pixel.
// PixelOrigin is the world-space centre of pixel (0,0); each pixel step moves
// by PixelDeltaX to the right and PixelDeltaY down.
type Camera struct {
	LookFrom    core.Vec3
	LookAt      core.Vec3
	U, V, W     core.Vec3
	PixelDeltaX core.Vec3
	PixelDeltaY core.Vec3
	PixelOrigin core.Vec3
	VFov        float32
}

var worldUp = core.NewVec3(0, 1, 0)

// NewCamera builds the camera basis and pixel grid for the configured image size
func NewCamera(config CameraConfig) (Camera, error) {
	if config.Width == 0 || config.Height == 0 {
		return Camera{}, fmt.Errorf("%w: image size %dx%d", ErrInvalidCamera, config.Width, config.Height)
	}
	if config.VFov <= 0 || config.VFov >= 180 {
		return Camera{}, fmt.Errorf("%w: vfov %.2f outside (0, 180)", ErrInvalidCamera, config.VFov)
	}

	toEye := config.LookFrom.Sub(config.LookAt)
	focalLength := toEye.Len()
	if focalLength == 0 {
		return Camera{}, fmt.Errorf("%w: lookFrom equals lookAt", ErrInvalidCamera)
	}

	w := toEye.Normalize()
	side := worldUp.Cross(w)
	if core.LengthSquared(side) == 0 {
		return Camera{}, fmt.Errorf("%w: view direction is parallel to the up vector", ErrInvalidCamera)
	}
	u := side.Normalize()
	v := w.Cross(u)

	theta := config.VFov * math32.Pi / 180
	h := math32.Tan(theta / 2)
	viewportHeight := 2 * h * focalLength
	viewportWidth := viewportHeight * float32(config.Width) / float32(config.Height)

	// Rows run top to bottom, so the vertical edge points against v
	viewportX := u.Mul(viewportWidth)
	viewportY := v.Mul(-viewportHeight)

	pixelDeltaX := viewportX.Mul(1 / float32(config.Width))
	pixelDeltaY := viewportY.Mul(1 / float32(config.Height))

	viewportUpperLeft := config.LookFrom.
		Sub(w.Mul(focalLength)).
		Sub(viewportX.Mul(0.5)).
		Sub(viewportY.Mul(0.5))
	pixelOrigin := viewportUpperLeft.Add(pixelDeltaX.Add(pixelDeltaY).Mul(0.5))

	return Camera{
		LookFrom:    config.LookFrom,
		LookAt:      config.LookAt,
		U:           u,
		V:           v,
		W:           w,
		PixelDeltaX: pixelDeltaX,
		PixelDeltaY: pixelDeltaY,
		PixelOrigin: pixelOrigin,
		VFov:        config.VFov,
	}, nil
}

// GetRay returns a jittered primary ray through pixel (x, y).
// Two draws are taken from seed for the sub-pixel offset.
func (c Camera) GetRay(x, y uint32, seed *core.Seed) core.Ray {
	jitterX := seed.Range(-0.5, 0.5)
	jitterY := seed.Range(-0.5, 0.5)
	return c.rayThrough(float32(x)+jitterX, float32(y)+jitterY)
}

// GetCenterRay returns the unjittered ray through the centre of pixel (x, y)
func (c Camera) GetCenterRay(x, y uint32) core.Ray {
	return c.rayThrough(float32(x), float32(y))
}

func (c Camera) rayThrough(px, py float32) core.Ray {
	target := c.PixelOrigin.
		Add(c.PixelDeltaX.Mul(px)).
		Add(c.PixelDeltaY.Mul(py))
	return core.NewRay(c.LookFrom, target.Sub(c.LookFrom))
}

// MergeCameraConfig returns base with any non-zero fields of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if override.LookFrom != (core.Vec3{}) {
		result.LookFrom = override.LookFrom
	}
	if override.LookAt != (core.Vec3{}) {
		result.LookAt = override.LookAt
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.Height != 0 {
		result.Height = override.Height
	}
	return result
}
