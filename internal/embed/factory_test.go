package embed

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_StaticProvider(t *testing.T) {
	ctx := context.Background()
	embedder, err := NewEmbedder(ctx, ProviderStatic, "")
	require.NoError(t, err)
	defer embedder.Close()

	assert.Equal(t, "static768", embedder.ModelName())
	assert.True(t, embedder.Available(ctx))
}

func TestNewEmbedder_NativeProvider(t *testing.T) {
	ctx := context.Background()
	embedder, err := NewEmbedder(ctx, ProviderNative, "")
	require.NoError(t, err)
	defer embedder.Close()

	assert.Contains(t, embedder.ModelName(), "native-")
	assert.True(t, embedder.Available(ctx))
}

func TestNewEmbedder_EnvVarOverridesProvider(t *testing.T) {
	orig := os.Getenv("LOCALFINDERX_EMBEDDER")
	defer os.Setenv("LOCALFINDERX_EMBEDDER", orig)
	os.Setenv("LOCALFINDERX_EMBEDDER", "static")

	ctx := context.Background()
	embedder, err := NewEmbedder(ctx, ProviderNative, "")
	require.NoError(t, err)
	defer embedder.Close()

	assert.Equal(t, "static768", embedder.ModelName())
}

func TestNewEmbedder_CacheDisabledEnvVar(t *testing.T) {
	orig := os.Getenv("LOCALFINDERX_EMBED_CACHE")
	defer os.Setenv("LOCALFINDERX_EMBED_CACHE", orig)
	os.Setenv("LOCALFINDERX_EMBED_CACHE", "false")

	ctx := context.Background()
	embedder, err := NewEmbedder(ctx, ProviderStatic, "")
	require.NoError(t, err)
	defer embedder.Close()

	_, ok := embedder.(*CachedEmbedder)
	assert.False(t, ok, "cache should be disabled")
}

func TestNewEmbedder_CacheEnabledByDefault(t *testing.T) {
	orig := os.Getenv("LOCALFINDERX_EMBED_CACHE")
	defer os.Setenv("LOCALFINDERX_EMBED_CACHE", orig)
	os.Unsetenv("LOCALFINDERX_EMBED_CACHE")

	ctx := context.Background()
	embedder, err := NewEmbedder(ctx, ProviderStatic, "")
	require.NoError(t, err)
	defer embedder.Close()

	_, ok := embedder.(*CachedEmbedder)
	assert.True(t, ok, "cache should be enabled by default")
}

func TestParseProvider(t *testing.T) {
	assert.Equal(t, ProviderStatic, ParseProvider("static"))
	assert.Equal(t, ProviderNative, ParseProvider("native"))
	assert.Equal(t, ProviderNative, ParseProvider("unknown"))
	assert.Equal(t, ProviderNative, ParseProvider(""))
}

func TestIsValidProvider(t *testing.T) {
	assert.True(t, IsValidProvider("native"))
	assert.True(t, IsValidProvider("static"))
	assert.False(t, IsValidProvider("ollama"))
	assert.False(t, IsValidProvider("mlx"))
}

func TestGetInfo_Static(t *testing.T) {
	ctx := context.Background()
	embedder, err := NewEmbedder(ctx, ProviderStatic, "")
	require.NoError(t, err)
	defer embedder.Close()

	info := GetInfo(ctx, embedder)
	assert.Equal(t, ProviderStatic, info.Provider)
	assert.Equal(t, 768, info.Dimensions)
	assert.True(t, info.Available)
}

func TestGetInfo_Native(t *testing.T) {
	ctx := context.Background()
	embedder, err := NewEmbedder(ctx, ProviderNative, "")
	require.NoError(t, err)
	defer embedder.Close()

	info := GetInfo(ctx, embedder)
	assert.Equal(t, ProviderNative, info.Provider)
}

func TestMustNewEmbedder_Succeeds(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		embedder := MustNewEmbedder(ctx, ProviderStatic, "")
		defer embedder.Close()
	})
}
