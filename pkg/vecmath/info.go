package vecmath

import (
	"runtime"

	"github.com/viterin/vek/vek32"
	"golang.org/x/sys/cpu"
)

// RuntimeInfo describes the vector math acceleration active in this process.
type RuntimeInfo struct {
	// Accelerated reports whether SIMD code paths are in use.
	Accelerated bool
	// Features lists the CPU features backing the acceleration.
	Features []string
	// Arch is the runtime architecture the report was taken on.
	Arch string
}

// Info returns the active acceleration report. The result is constant for
// the lifetime of the process.
func Info() RuntimeInfo {
	info := RuntimeInfo{
		Accelerated: vek32.Info().Acceleration,
		Arch:        runtime.GOARCH,
	}
	if cpu.X86.HasAVX2 {
		info.Features = append(info.Features, "avx2")
	}
	if cpu.X86.HasFMA {
		info.Features = append(info.Features, "fma")
	}
	if cpu.ARM64.HasASIMD {
		info.Features = append(info.Features, "neon")
	}
	return info
}
