package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgrxVersion(t *testing.T) {
	tests := []struct {
		name    string
		toml    string
		want    string
		wantErr bool
	}{
		{name: "exact pin", toml: "[dependencies]\npgrx = \"=0.12.9\"\n", want: "0.12.9"},
		{name: "caret", toml: "[dependencies]\npgrx = \"^0.11\"\n", want: "0.11"},
		{name: "table form", toml: "[dependencies]\npgrx = { version = \"=0.11.4\", features = [\"unsafe-postgres\"] }\n", want: "0.11.4"},
		{name: "missing", toml: "[dependencies]\nserde = \"1\"\n", wantErr: true},
		{name: "invalid toml", toml: "[dependencies\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PgrxVersion([]byte(tt.toml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFeatureArgs(t *testing.T) {
	assert.Nil(t, FeatureArgs(nil, false, 17))
	assert.Equal(t, []string{"--features", "a b"}, FeatureArgs([]string{"a", "b"}, false, 17))
	assert.Equal(t, []string{"--no-default-features", "--features", "pg16"}, FeatureArgs(nil, true, 16))
	assert.Equal(t, []string{"--no-default-features", "--features", "pg17 simd"}, FeatureArgs([]string{"simd"}, true, 17))
}

func TestConfigureArgs(t *testing.T) {
	assert.Equal(t, []string{"--with-pgconfig=/pg_config", "--without-protobuf", "--without-interrupt-tests"}, ConfigureArgs("postgis", "/pg_config"))
	assert.Nil(t, ConfigureArgs("anything_else", "/pg_config"))
}

func TestPgrxToolchain_SkipsInstalledAndInitialized(t *testing.T) {
	runner := &fakeRunner{}
	cache := NewToolchainCache()
	tc := &pgrxToolchain{root: t.TempDir(), pgMajor: 17, pgConfig: "/pg_config", jobs: 2, runner: runner, cache: cache}

	require.NoError(t, tc.ensure(context.Background(), "0.12.9", t.TempDir()))
	require.NoError(t, tc.ensure(context.Background(), "0.12.9", t.TempDir()))
	assert.Equal(t, 1, runner.count("cargo install"))
	assert.Equal(t, 1, runner.count("cargo pgrx init"))

	// A different target major re-initializes but reuses the install.
	tc16 := *tc
	tc16.pgMajor = 16
	require.NoError(t, tc16.ensure(context.Background(), "0.12.9", t.TempDir()))
	assert.Equal(t, 1, runner.count("cargo install"))
	assert.Equal(t, 1, runner.count("cargo pgrx init --pg16=/pg_config"))
}

func TestPgrxToolchain_InitFailureNotMemoized(t *testing.T) {
	runner := &fakeRunner{failOn: "pgrx init"}
	tc := &pgrxToolchain{root: t.TempDir(), pgMajor: 17, pgConfig: "/pg_config", jobs: 1, runner: runner, cache: NewToolchainCache()}

	require.Error(t, tc.ensure(context.Background(), "0.12.9", t.TempDir()))
	assert.False(t, tc.cache.Initialized(ToolchainKey{Tool: "cargo-pgrx", Version: "0.12.9", PGMajor: 17}))
}
