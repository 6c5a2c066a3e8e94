package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ProviderType represents an embedding provider.
type ProviderType string

const (
	// ProviderNative probes for a local CUDA/Metal/CPU acceleration tier
	// (§4.8) and embeds through it. This is the default: it never performs
	// network I/O, matching the module's offline invariant.
	ProviderNative ProviderType = "native"

	// ProviderStatic uses the deterministic hash-based embedder directly,
	// bypassing device probing. Useful for tests and for --backend=static.
	ProviderStatic ProviderType = "static"
)

// NewEmbedder creates an embedder for the given provider. The
// LOCALFINDERX_EMBEDDER environment variable can override the provider
// ("native" or "static"); LOCALFINDERX_EMBED_CACHE=false disables the query
// cache that is otherwise wrapped around the result.
func NewEmbedder(ctx context.Context, provider ProviderType, _ string) (Embedder, error) {
	if envProvider := os.Getenv("LOCALFINDERX_EMBEDDER"); envProvider != "" {
		if p := ParseProvider(envProvider); IsValidProvider(envProvider) {
			provider = p
		}
	}

	var embedder Embedder
	switch provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder768()
	default:
		embedder = NewNativeEmbedder(ctx)
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}

	return embedder, nil
}

// isCacheDisabled checks if the embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("LOCALFINDERX_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// NewDefaultEmbedder creates the default embedder (native device probing
// with CPU fallback).
func NewDefaultEmbedder(ctx context.Context) (Embedder, error) {
	return NewEmbedder(ctx, ProviderNative, "")
}

// ParseProvider converts a string to ProviderType, defaulting to native for
// anything unrecognized.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return ProviderStatic
	default:
		return ProviderNative
	}
}

// String returns the string representation of ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns all valid provider names.
func ValidProviders() []string {
	return []string{string(ProviderNative), string(ProviderStatic)}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo contains information about an embedder.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo returns information about an embedder, unwrapping a CachedEmbedder
// to report on the underlying provider.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.inner
	}

	switch inner.(type) {
	case *nativeEmbedder:
		info.Provider = ProviderNative
	default:
		info.Provider = ProviderStatic
	}

	return info
}

// MustNewEmbedder creates an embedder and panics on failure.
// Use only in tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, provider ProviderType, model string) Embedder {
	embedder, err := NewEmbedder(ctx, provider, model)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
