package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultExtensions_Demo(t *testing.T) {
	m := &Manifest{Entries: []Entry{{
		Name:    "demo",
		Kind:    KindExtension,
		Enabled: boolPtr(true),
		Runtime: Runtime{DefaultEnable: true},
	}}}

	assert.Equal(t, []string{"demo"}, DefaultExtensions(m))
	assert.Empty(t, PreloadLibraries(m))
}

func TestDefaultExtensions_Filtering(t *testing.T) {
	disabled := gitEntry("disabled")
	disabled.Enabled = boolPtr(false)
	disabled.DisabledReason = "broken"

	optional := gitEntry("optional")
	optional.Runtime.DefaultEnable = false

	tool := gitEntry("pgbadger")
	tool.Kind = KindTool

	sqlOnly := gitEntry("pgflow")
	sqlOnly.Runtime = Runtime{PreloadOnly: true, DefaultEnable: true}

	preloadOnly := gitEntry("auto_explain")
	preloadOnly.Runtime = Runtime{SharedPreload: true, PreloadOnly: true, DefaultEnable: true}

	preloaded := gitEntry("pg_cron")
	preloaded.Runtime = Runtime{SharedPreload: true, DefaultEnable: true}

	dependent := gitEntry("postgis_topology")
	dependent.Dependencies = []string{"postgis"}

	m := &Manifest{Entries: []Entry{
		disabled, optional, tool, sqlOnly, preloadOnly, preloaded, dependent, gitEntry("postgis"),
	}}

	assert.Equal(t, []string{"pg_cron", "postgis", "postgis_topology"}, DefaultExtensions(m))
}

func TestPreloadLibraries(t *testing.T) {
	cron := gitEntry("pg_cron")
	cron.Runtime = Runtime{SharedPreload: true, DefaultEnable: true}

	partman := gitEntry("pg_partman")
	partman.Runtime = Runtime{SharedPreload: true, DefaultEnable: true, PreloadLibraryName: "pg_partman_bgw"}

	sameLib := gitEntry("pg_partman_extra")
	sameLib.Runtime = Runtime{SharedPreload: true, DefaultEnable: true, PreloadLibraryName: "pg_partman_bgw"}

	off := gitEntry("pg_hint_plan")
	off.Runtime = Runtime{SharedPreload: true}

	m := &Manifest{Entries: []Entry{builtinEntry("plpgsql"), cron, partman, sameLib, off}}

	assert.Equal(t, []string{"pg_cron", "pg_partman_bgw"}, PreloadLibraries(m))
}

func TestLoadStrategy(t *testing.T) {
	tests := []struct {
		runtime  Runtime
		strategy LoadStrategy
		creates  bool
	}{
		{Runtime{}, LoadCreateExtension, true},
		{Runtime{SharedPreload: true}, LoadSharedPreload, true},
		{Runtime{SharedPreload: true, PreloadOnly: true}, LoadSharedPreload, false},
		{Runtime{PreloadOnly: true}, LoadSQLSchema, false},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			assert.Equal(t, tt.strategy, tt.runtime.Strategy())
			assert.Equal(t, tt.creates, tt.runtime.CreatesExtension())
		})
	}
}

func TestVendorPackaged(t *testing.T) {
	cron := gitEntry("pg_cron")
	cron.InstallVia = InstallPGDG
	cron.Build = nil

	m := &Manifest{Entries: []Entry{gitEntry("vector"), cron}}
	got := VendorPackaged(m)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "pg_cron", got[0].Name)
	}
}

func TestSourcePin(t *testing.T) {
	tests := []struct {
		name  string
		src   Source
		kind  PinKind
		value string
	}{
		{"commit", Source{Type: SourceGit, Commit: "abc1234"}, PinCommit, "abc1234"},
		{"tag", Source{Type: SourceGit, Tag: "v1.0"}, PinTag, "v1.0"},
		{"ref hash", Source{Type: SourceGitRef, Ref: "0123456789abcdef"}, PinCommit, "0123456789abcdef"},
		{"ref tag", Source{Type: SourceGitRef, Ref: "REL_1_2"}, PinTag, "REL_1_2"},
		{"builtin", Source{Type: SourceBuiltin}, PinNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, value := tt.src.Pin()
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestTagVersion(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"1.6.4", "1.6.4"},
		{"v1.6.4", "1.6.4"},
		{"V2.0", "2.0"},
		{"hypopg-1.4.1", "1.4.1"},
		{"pg_cron-1.6.4", "1.6.4"},
		{"ver_1.5.2", "1.5.2"},
		{"REL_17_0", "17.0"},
		{"REL17_2", "17.2"},
		{"release/2.3.0", "2.3.0"},
		{"v1.2.3-rc1", "1.2.3-rc1"},
		{"stable", "stable"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, TagVersion(tt.tag))
		})
	}
}
