package raster

import "sync/atomic"

// CorrelationKernel scores a projected point set at an integer cell offset.
// Implementations must match the reference loop bit-for-bit on in-bounds
// cells and treat out-of-bounds cells as zero.
type CorrelationKernel func(r *Raster, cx, cy []int32, ox, oy int) int

var kernel atomic.Pointer[CorrelationKernel]

// RegisterKernel installs an accelerated correlation kernel (e.g. a SIMD
// implementation). Passing nil reverts to the reference loop. Scoring
// degrades transparently when no kernel is registered; callers never see
// an error from the back-end being absent.
func RegisterKernel(k CorrelationKernel) {
	if k == nil {
		kernel.Store(nil)
		return
	}
	kernel.Store(&k)
}

// KernelActive reports whether an accelerated correlation kernel is
// currently registered.
func KernelActive() bool {
	return kernel.Load() != nil
}

func activeKernel() CorrelationKernel {
	p := kernel.Load()
	if p == nil {
		return nil
	}
	return *p
}
