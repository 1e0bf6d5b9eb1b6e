// Package shader holds the WGSL compute kernel that mirrors the CPU renderer
// and compiles it to SPIR-V for GPU hosts.
package shader

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// Source is the WGSL path tracing kernel
//
//go:embed pathtrace.wgsl
var Source string

// EntryPoint is the compute entry point name in Source
const EntryPoint = "main"

// WorkgroupSize is the edge length of the kernel's square workgroup
const WorkgroupSize = 8

// Binding slots declared by the kernel
const (
	BindingOutput = 0 // texture_storage_2d<rgba8unorm, write>
	BindingWorld  = 1 // uniform World
)

// SPIRVMagic is the first word of every SPIR-V module
const SPIRVMagic uint32 = 0x07230203

// Compile translates the kernel to SPIR-V bytes
func Compile() ([]byte, error) {
	spirv, err := naga.Compile(Source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile path tracing kernel: %w", err)
	}
	return spirv, nil
}

// CompileWords translates the kernel to SPIR-V as little-endian 32-bit words
func CompileWords() ([]uint32, error) {
	spirvBytes, err := Compile()
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// DispatchSize returns the number of workgroups needed to cover a width x height image
func DispatchSize(width, height uint32) (groupsX, groupsY uint32) {
	groupsX = (width + WorkgroupSize - 1) / WorkgroupSize
	groupsY = (height + WorkgroupSize - 1) / WorkgroupSize
	return groupsX, groupsY
}
