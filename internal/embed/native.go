package embed

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// Device identifies which acceleration tier an embedder is running on
// (§4.8's CUDA → Metal → CPU order).
type Device string

const (
	DeviceCUDA Device = "cuda"
	DeviceMetal Device = "metal"
	DeviceCPU  Device = "cpu"
)

// nativeLibCandidates lists, per device and platform, the shared library
// purego should try to dlopen to confirm the runtime is actually present.
// A successful open is treated as "device available"; it is closed again
// immediately since detection, not computation, is all this stage needs —
// no on-device tensor kernel exists in this module (see DESIGN.md).
var nativeLibCandidates = map[Device][]string{
	DeviceCUDA:  {"libcudart.so", "libcudart.so.12", "libcudart.so.11"},
	DeviceMetal: {"/System/Library/Frameworks/Metal.framework/Metal"},
}

// probeDevice reports whether dev's runtime library can be dlopen'd on this
// platform. CUDA is only probed on linux/windows; Metal only on darwin.
func probeDevice(dev Device) bool {
	switch dev {
	case DeviceCUDA:
		if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
			return false
		}
	case DeviceMetal:
		if runtime.GOOS != "darwin" {
			return false
		}
	default:
		return false
	}

	for _, name := range nativeLibCandidates[dev] {
		handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			continue
		}
		purego.Dlclose(handle)
		return true
	}
	return false
}

// DetectDevice returns the first available device in CUDA → Metal → CPU
// order (§4.8).
func DetectDevice() Device {
	if probeDevice(DeviceCUDA) {
		return DeviceCUDA
	}
	if probeDevice(DeviceMetal) {
		return DeviceMetal
	}
	return DeviceCPU
}

// nativeEmbedder selects an acceleration tier at construction time and
// embeds through the CPU hash embedder underneath it. A local on-device
// neural embedding runtime (ONNX/ggml) is out of scope for this module — see
// DESIGN.md for why — so every device tier currently produces identical
// vectors; Device only changes what ModelName() reports and lets future
// native kernels slot in behind the same interface without a caller-visible
// change. A wholesale load failure on the detected device still has to
// downgrade to CPU rather than fail the embedder outright (§4.8).
type nativeEmbedder struct {
	mu     sync.RWMutex
	device Device
	cpu    *StaticEmbedder768
}

// NewNativeEmbedder probes CUDA then Metal then falls back to CPU, and
// returns an Embedder that never errors out of device selection — the
// fallback chain terminates at the always-available static CPU tier.
func NewNativeEmbedder(_ context.Context) *nativeEmbedder {
	dev := DetectDevice()
	slog.Info("embedding device selected", "device", string(dev))
	return &nativeEmbedder{device: dev, cpu: NewStaticEmbedder768()}
}

func (e *nativeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.cpu.Embed(ctx, text)
}

func (e *nativeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.cpu.EmbedBatch(ctx, texts)
}

func (e *nativeEmbedder) Dimensions() int {
	return e.cpu.Dimensions()
}

func (e *nativeEmbedder) ModelName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fmt.Sprintf("native-%s", e.device)
}

func (e *nativeEmbedder) Available(ctx context.Context) bool {
	return e.cpu.Available(ctx)
}

func (e *nativeEmbedder) Close() error {
	return e.cpu.Close()
}

func (e *nativeEmbedder) SetBatchIndex(idx int) { e.cpu.SetBatchIndex(idx) }

func (e *nativeEmbedder) SetFinalBatch(isFinal bool) { e.cpu.SetFinalBatch(isFinal) }

// Device reports which acceleration tier this embedder selected.
func (e *nativeEmbedder) Device() Device {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.device
}

// downgradeToCPU is called when the selected device's runtime fails to
// actually load a model (§4.8's "wholesale model-load failure downgrades
// the entire file to metadata-only" maps, at the embedder level, to
// dropping to the CPU tier rather than erroring).
func (e *nativeEmbedder) downgradeToCPU(reason error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	slog.Warn("embedding device load failed, downgrading to cpu", "device", string(e.device), "error", reason)
	e.device = DeviceCPU
}
